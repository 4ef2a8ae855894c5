package feed

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func newTestGenerator() *Generator {
	g := NewGenerator("test")
	g.now = func() time.Time {
		return time.Date(2024, 3, 9, 8, 5, 1, 0, time.FixedZone("KST", 9*60*60))
	}
	return g
}

func testChannel() Channel {
	return Channel{
		Name:              "humor",
		Title:             "Humor Board",
		Link:              "https://site",
		Description:       "Funny posts",
		Creator:           "editor",
		DefaultCategories: []string{"모두", "기분"},
	}
}

func TestGenerateRSS(t *testing.T) {
	generator := newTestGenerator()

	items := []PostItem{
		{
			Title:         "First",
			Link:          "https://site/1",
			Content:       `<p>hi</p><p><img src="https://cdn.site/a.jpg" width="720px"></p>`,
			FeaturedImage: "https://cdn.site/a.jpg",
			Categories:    []string{"유머", "기분", ""},
		},
	}

	doc, _, err := generator.Run(testChannel(), items, GUIDSet{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	rss := string(doc.XML)

	expected := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:dc="http://purl.org/dc/elements/1.1/">`,
		"<title>Humor Board</title>",
		"<link>https://site</link>",
		"<description>Funny posts</description>",
		"<lastBuildDate>Fri, 08 Mar 2024 23:05:01 GMT</lastBuildDate>",
		"<generator>board-feeds/test</generator>",
		"<title>First</title>",
		"<link>https://site/1</link>",
		"<category>모두</category>\n      <category>기분</category>\n      <category>유머</category>\n",
		"<dc:creator>editor</dc:creator>",
		`<guid isPermaLink="true">https://site/1</guid>`,
		"<description>hi</description>",
		`<content:encoded><![CDATA[<p>hi</p><p><img src="https://cdn.site/a.jpg" width="720px"></p>]]></content:encoded>`,
		`<enclosure url="https://cdn.site/a.jpg" type="image/jpeg" length="0" />`,
	}
	for _, want := range expected {
		if !strings.Contains(rss, want) {
			t.Errorf("RSS should contain %q\n%s", want, rss)
		}
	}

	if strings.Contains(rss, "wp:postmeta") || strings.Contains(rss, "xmlns:wp") {
		t.Error("RSS should not contain WordPress markup for a plain channel")
	}
	if strings.Count(rss, "<category>기분</category>") != 1 {
		t.Error("Duplicate categories should be emitted once")
	}
	if doc.ItemsEmitted != 1 || doc.ItemsSkipped != 0 {
		t.Errorf("Expected 1 emitted and 0 skipped, got %d and %d", doc.ItemsEmitted, doc.ItemsSkipped)
	}

	if err := xml.Unmarshal(doc.XML, new(struct{})); err != nil {
		t.Errorf("Generated document is not well-formed: %v", err)
	}
}

func TestGenerateFallbacks(t *testing.T) {
	generator := newTestGenerator()

	items := []PostItem{
		{Title: "", Link: "https://site/1", Content: "<p>hi</p>"},
		{Title: "   ", Link: "", Content: ""},
	}

	doc, _, err := generator.Run(testChannel(), items, GUIDSet{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	rss := string(doc.XML)

	expected := []string{
		"<title>Untitled Post 1</title>",
		"<title>Untitled Post 2</title>",
		"<link>https://site/placeholder/2</link>",
		`<guid isPermaLink="true">https://site/placeholder/2</guid>`,
		"<description></description>",
		"<content:encoded></content:encoded>",
	}
	for _, want := range expected {
		if !strings.Contains(rss, want) {
			t.Errorf("RSS should contain %q", want)
		}
	}
}

func TestGenerateBlankLinkFallsBackToPlaceholder(t *testing.T) {
	generator := newTestGenerator()

	doc, _, err := generator.Run(testChannel(), []PostItem{{Title: "Blank", Link: "   ", Content: "<p>x</p>"}}, GUIDSet{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(doc.GUIDs) != 1 || doc.GUIDs[0] != "https://site/placeholder/1" {
		t.Errorf("Expected placeholder GUID, got %v", doc.GUIDs)
	}
	if !strings.Contains(string(doc.XML), "<link>https://site/placeholder/1</link>") {
		t.Error("Blank link should fall back to the placeholder")
	}
}

func TestGenerateFlattensContentNewlines(t *testing.T) {
	generator := newTestGenerator()

	items := []PostItem{{Title: "Lines", Link: "https://site/1", Content: "<p>line1\nline2\r\nline3\rline4</p>"}}
	doc, _, err := generator.Run(testChannel(), items, GUIDSet{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	rss := string(doc.XML)

	if !strings.Contains(rss, "<content:encoded><![CDATA[<p>line1 line2 line3 line4</p>]]></content:encoded>") {
		t.Errorf("Content should be emitted on one line, got:\n%s", rss)
	}
}

func TestGenerateUniqueGUIDs(t *testing.T) {
	generator := newTestGenerator()

	items := []PostItem{
		{Title: "a", Link: "https://site/2"},
		{Title: "b", Link: "https://site/2"},
		{Title: "c", Link: "https://site/3"},
		{Title: "d", Link: "https://site/2-1"},
	}

	seen := GUIDSet{"https://site/3": {}}
	doc, out, err := generator.Run(testChannel(), items, seen)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{"https://site/2", "https://site/2-1", "https://site/3-2", "https://site/2-1-3"}
	if len(doc.GUIDs) != len(expected) {
		t.Fatalf("Expected %d GUIDs, got %v", len(expected), doc.GUIDs)
	}
	for i, want := range expected {
		if doc.GUIDs[i] != want {
			t.Errorf("GUID %d: expected %q, got %q", i, want, doc.GUIDs[i])
		}
	}

	if len(seen) != 1 {
		t.Errorf("Input GUID set must not be modified, got %d entries", len(seen))
	}
	if len(out) != 5 {
		t.Errorf("Expected 5 GUIDs in the returned set, got %d", len(out))
	}
}

func TestGenerateWordPressPostmeta(t *testing.T) {
	generator := newTestGenerator()

	channel := testChannel()
	channel.WordPress = true
	channel.ThumbnailMetaKey = "_thumbnail_url"

	items := []PostItem{
		{Title: "a", Link: "https://site/1", Content: "<p>x</p>", FeaturedImage: "https://cdn.site/a.png"},
		{Title: "b", Link: "https://site/2", Content: "<p>y</p>", FeaturedImage: "/relative.png"},
	}

	doc, _, err := generator.Run(channel, items, GUIDSet{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	rss := string(doc.XML)

	expected := []string{
		`xmlns:wp="http://wordpress.org/export/1.2/"`,
		`<enclosure url="https://cdn.site/a.png" type="image/png" length="0" />`,
		"<wp:meta_key>_thumbnail_url</wp:meta_key>",
		"<wp:meta_value>https://cdn.site/a.png</wp:meta_value>",
	}
	for _, want := range expected {
		if !strings.Contains(rss, want) {
			t.Errorf("RSS should contain %q", want)
		}
	}

	if strings.Count(rss, "<enclosure") != 1 {
		t.Error("Relative featured images should not produce an enclosure")
	}
}

func TestGenerateSkipsInvalidItems(t *testing.T) {
	generator := newTestGenerator()

	items := []PostItem{
		{Title: "bad \xff title", Link: "https://site/1"},
		{Title: "good", Link: "https://site/1"},
	}

	doc, _, err := generator.Run(testChannel(), items, GUIDSet{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if doc.ItemsEmitted != 1 || doc.ItemsSkipped != 1 {
		t.Errorf("Expected 1 emitted and 1 skipped, got %d and %d", doc.ItemsEmitted, doc.ItemsSkipped)
	}
	if len(doc.GUIDs) != 1 || doc.GUIDs[0] != "https://site/1" {
		t.Errorf("Skipped items should not claim a GUID, got %v", doc.GUIDs)
	}
}

func TestGenerateEscapesContent(t *testing.T) {
	generator := newTestGenerator()

	items := []PostItem{
		{Title: "a & b\x01", Link: "https://site/1?x=1&y=2", Content: "<p>end ]]> here</p>"},
	}

	doc, _, err := generator.Run(testChannel(), items, GUIDSet{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	rss := string(doc.XML)

	if !strings.Contains(rss, "<title>a &amp; b</title>") {
		t.Error("Title should be escaped and stripped of control characters")
	}
	if !strings.Contains(rss, "<link>https://site/1?x=1&amp;y=2</link>") {
		t.Error("Link should be escaped")
	}
	if !strings.Contains(rss, "<![CDATA[<p>end ]]]]><![CDATA[> here</p>]]>") {
		t.Error("CDATA terminator inside content should be split")
	}
	if err := xml.Unmarshal(doc.XML, new(struct{})); err != nil {
		t.Errorf("Generated document is not well-formed: %v", err)
	}
}

func TestGenerateRequiresChannel(t *testing.T) {
	_, _, err := newTestGenerator().Run(Channel{Name: "x"}, nil, GUIDSet{})
	if err == nil {
		t.Error("Expected error for channel without title and link")
	}
}

func TestGuessImageType(t *testing.T) {
	tests := map[string]string{
		"https://cdn/a.jpg":        "image/jpeg",
		"https://cdn/a.PNG":        "image/png",
		"https://cdn/a.gif?x=1":    "image/gif",
		"https://cdn/no-extension": "image/jpeg",
	}
	for in, want := range tests {
		if got := guessImageType(in); got != want {
			t.Errorf("guessImageType(%q) = %q, expected %q", in, got, want)
		}
	}
}
