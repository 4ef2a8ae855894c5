package content

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
	"github.com/lysyi3m/board-feeds/app/media"
	"github.com/lysyi3m/board-feeds/app/site"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var lazySrcAttrs = []string{"data-src", "data-original", "data-lazy-src"}

var textBlocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Blockquote: true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Dl:         true,
	atom.Pre:        true,
	atom.Table:      true,
	atom.Figcaption: true,
}

var containers = map[atom.Atom]bool{
	atom.Body:    true,
	atom.Div:     true,
	atom.Section: true,
	atom.Article: true,
	atom.Main:    true,
	atom.Header:  true,
	atom.Footer:  true,
	atom.Aside:   true,
	atom.Figure:  true,
	atom.Center:  true,
	atom.Form:    true,
	atom.Picture: true,
}

type Extractor struct {
	containerSelector   string
	adSelectors         []string
	placeholderPatterns []string
	imageWidth          string
	wrapVideo           bool
	readabilityFallback bool
	normalizer          *media.Normalizer
}

func NewExtractor(c site.ContentConfig) *Extractor {
	return &Extractor{
		containerSelector:   c.ContainerSelector,
		adSelectors:         c.AdSelectors,
		placeholderPatterns: c.PlaceholderPatterns,
		imageWidth:          c.ImageWidth,
		wrapVideo:           c.WrapVideo,
		readabilityFallback: c.ReadabilityFallback,
		normalizer:          media.NewNormalizer(c.CDNBase, c.RelativePrefixes, c.DefaultPrefix),
	}
}

// Run isolates the post body of rawHTML and rebuilds it as a flat list of
// paragraphs, images and videos with absolute media URLs.
func (e *Extractor) Run(rawHTML, pageURL string) (Extraction, error) {
	container, err := e.locate(rawHTML, pageURL)
	if err != nil {
		return Extraction{}, err
	}

	removeComments(container.Nodes[0])
	container.Find("script, style, noscript").Remove()
	for _, selector := range e.adSelectors {
		container.Find(selector).Remove()
	}

	var result Extraction
	e.prepareMedia(container, &result)

	var b strings.Builder
	e.walk(&b, container.Nodes[0])

	if strings.TrimSpace(b.String()) == "" {
		return Extraction{}, ErrEmptyContent
	}

	result.HTML = b.String()
	return result, nil
}

func (e *Extractor) locate(rawHTML, pageURL string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	}

	if e.containerSelector != "" {
		if container := doc.Find(e.containerSelector).First(); container.Length() > 0 {
			return container, nil
		}
	}

	if !e.readabilityFallback {
		return nil, ErrContainerNotFound
	}

	base, _ := url.Parse(pageURL)
	if base == nil {
		base = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return nil, ErrContainerNotFound
	}

	slog.Debug("Container located by readability", "url", pageURL, "title", article.Title)

	fallback, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContainerNotFound, err)
	}
	return fallback.Find("body").First(), nil
}

func (e *Extractor) prepareMedia(container *goquery.Selection, result *Extraction) {
	firstVideo := true

	container.Find("img, video").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "img" {
			e.prepareImage(s, result)
			return
		}

		if firstVideo {
			firstVideo = false
			if poster, ok := s.Attr("poster"); ok {
				result.PosterURL = e.normalizer.Normalize(poster)
			}
		}
		e.prepareVideo(s, result)
	})
}

func (e *Extractor) prepareImage(s *goquery.Selection, result *Extraction) {
	src := strings.TrimSpace(s.AttrOr("src", ""))
	if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
		for _, attr := range lazySrcAttrs {
			if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
				src = v
				break
			}
		}
	}

	resolved := e.normalizer.Normalize(src)
	if resolved == "" || e.isPlaceholder(resolved) {
		s.Remove()
		return
	}

	s.SetAttr("src", resolved)
	if _, ok := s.Attr("width"); !ok && e.imageWidth != "" {
		s.SetAttr("width", e.imageWidth)
	}

	result.ImageURLs = append(result.ImageURLs, resolved)
	result.Media = append(result.Media, media.Reference{Kind: media.KindImage, OriginalURL: src, ResolvedURL: resolved})
}

func (e *Extractor) prepareVideo(s *goquery.Selection, result *Extraction) {
	src := strings.TrimSpace(s.AttrOr("src", ""))
	if src == "" {
		slog.Debug("Dropping video without src")
		s.Remove()
		return
	}

	resolved := e.normalizer.Normalize(src)
	s.SetAttr("src", resolved)

	var poster string
	if p, ok := s.Attr("poster"); ok && strings.TrimSpace(p) != "" {
		poster = e.normalizer.Normalize(p)
		s.SetAttr("poster", poster)
	}

	s.SetAttr("controls", "")
	if _, ok := s.Attr("width"); !ok && e.imageWidth != "" {
		s.SetAttr("width", e.imageWidth)
	}

	s.Find("source").Each(func(_ int, source *goquery.Selection) {
		if v, ok := source.Attr("src"); ok {
			source.SetAttr("src", e.normalizer.Normalize(v))
		}
	})

	result.VideoURLs = append(result.VideoURLs, resolved)
	result.Media = append(result.Media, media.Reference{Kind: media.KindVideo, OriginalURL: src, ResolvedURL: resolved, PosterURL: poster})
}

func (e *Extractor) isPlaceholder(u string) bool {
	for _, pattern := range e.placeholderPatterns {
		if pattern != "" && strings.Contains(u, pattern) {
			return true
		}
	}
	return false
}

func (e *Extractor) walk(b *strings.Builder, parent *html.Node) {
	var run []*html.Node

	flush := func() {
		if len(run) == 0 {
			return
		}
		if nodesHaveText(run) || nodesHaveMedia(run) {
			b.WriteString("<p>")
			for _, n := range run {
				html.Render(b, n)
			}
			b.WriteString("</p>")
		}
		run = nil
	}

	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			if c.Type == html.TextNode {
				run = append(run, c)
			}
			continue
		}

		switch {
		case c.DataAtom == atom.Img:
			flush()
			b.WriteString("<p>")
			html.Render(b, c)
			b.WriteString("</p>")
		case c.DataAtom == atom.Video:
			flush()
			if e.wrapVideo {
				b.WriteString("<p>")
				html.Render(b, c)
				b.WriteString("</p>")
			} else {
				html.Render(b, c)
			}
		case c.DataAtom == atom.Iframe:
			flush()
			html.Render(b, c)
		case textBlocks[c.DataAtom]:
			flush()
			if nodesHaveText([]*html.Node{c}) || nodesHaveMedia([]*html.Node{c}) {
				html.Render(b, c)
			}
		case containers[c.DataAtom]:
			flush()
			e.walk(b, c)
		default:
			run = append(run, c)
		}
	}

	flush()
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

func nodesHaveText(nodes []*html.Node) bool {
	for _, n := range nodes {
		if strings.TrimSpace(goquery.NewDocumentFromNode(n).Text()) != "" {
			return true
		}
	}
	return false
}

func nodesHaveMedia(nodes []*html.Node) bool {
	for _, n := range nodes {
		if isMedia(n) || goquery.NewDocumentFromNode(n).Find("img, video, iframe").Length() > 0 {
			return true
		}
	}
	return false
}

func isMedia(n *html.Node) bool {
	return n.Type == html.ElementNode &&
		(n.DataAtom == atom.Img || n.DataAtom == atom.Video || n.DataAtom == atom.Iframe)
}
