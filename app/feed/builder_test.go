package feed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/lysyi3m/board-feeds/app/content"
	"github.com/lysyi3m/board-feeds/app/site"
)

type stubProber map[string]bool

func (p stubProber) Probe(_ context.Context, url string) error {
	if p[url] {
		return nil
	}
	return errors.New("missing")
}

func testContentConfig() site.ContentConfig {
	return site.ContentConfig{
		ContainerSelector: "div.xe_content",
		CDNBase:           "https://cdn.site",
		RelativePrefixes:  []string{"/files/attach"},
		ImageWidth:        "720px",
	}
}

func TestBuilderEndToEnd(t *testing.T) {
	builder := NewBuilder(testContentConfig(), stubProber{"https://cdn.site/a.jpg": true})

	post, err := builder.Run(context.Background(), PostItem{
		Title:      "",
		Link:       "https://site/1",
		RawContent: `<html><body><div class="xe_content"><p>hi</p><img src='/files/attach/a.jpg'></div></body></html>`,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(post.Content, `<img src="https://cdn.site/a.jpg"`) {
		t.Errorf("Content should reference the CDN image, got %s", post.Content)
	}
	if post.FeaturedImage != "https://cdn.site/a.jpg" {
		t.Errorf("Expected featured image, got %q", post.FeaturedImage)
	}

	doc, _, err := newTestGenerator().Run(testChannel(), []PostItem{post}, GUIDSet{})
	if err != nil {
		t.Fatal(err)
	}
	rss := string(doc.XML)

	for _, want := range []string{"<title>Untitled Post 1</title>", "<description>hi</description>", `<img src="https://cdn.site/a.jpg"`} {
		if !strings.Contains(rss, want) {
			t.Errorf("RSS should contain %q", want)
		}
	}

	start := strings.Index(rss, "<content:encoded>")
	end := strings.Index(rss, "</content:encoded>")
	if start < 0 || end < start || strings.Contains(rss[start:end], "\n") {
		t.Error("content:encoded should be present and free of newlines")
	}
}

func TestBuilderPosterFallback(t *testing.T) {
	builder := NewBuilder(testContentConfig(), stubProber{"https://cdn.site/p.jpg": true})

	post, err := builder.Run(context.Background(), PostItem{
		Link:       "https://site/3",
		RawContent: `<div class="xe_content"><video src="/files/attach/v.mp4" poster="/files/attach/p.jpg"></video></div>`,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if post.FeaturedImage != "https://cdn.site/p.jpg" {
		t.Errorf("Expected poster as featured image, got %q", post.FeaturedImage)
	}
	if !strings.Contains(post.Content, "<video") || !strings.Contains(post.Content, " controls") {
		t.Errorf("Expected rewritten video, got %s", post.Content)
	}
}

func TestBuilderMissingContainer(t *testing.T) {
	builder := NewBuilder(testContentConfig(), stubProber{})

	_, err := builder.Run(context.Background(), PostItem{Link: "https://site/4", RawContent: "<p>no container</p>"})
	if !errors.Is(err, content.ErrContainerNotFound) {
		t.Errorf("Expected ErrContainerNotFound, got: %v", err)
	}
}

func TestBuilderLogsExtractedMedia(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	builder := NewBuilder(testContentConfig(), stubProber{})
	_, err := builder.Run(context.Background(), PostItem{
		Link:       "https://site/7",
		RawContent: `<html><body><div class="xe_content"><p>clip</p><video src="/files/attach/v.mp4" poster="/files/attach/p.jpg"></video></div></body></html>`,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	out := logs.String()
	for _, want := range []string{"Post media extracted", "link=https://site/7", "media=1", "https://cdn.site/v.mp4", "/files/attach/v.mp4"} {
		if !strings.Contains(out, want) {
			t.Errorf("Debug log should contain %q, got %s", want, out)
		}
	}
}
