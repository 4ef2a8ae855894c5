package content

import (
	"html"
	"strings"

	"github.com/lysyi3m/board-feeds/app/embed"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var videoAttrDenylist = map[string]bool{
	"__idm_id__":     true,
	"data-idm-id":    true,
	"data-saved-src": true,
	"data-savedsrc":  true,
	"saved-src":      true,
	"saved_src":      true,
}

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Param:  true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

var bodyContext = &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}

// Rewriter turns extracted post HTML into the single-line markup emitted in
// content:encoded. Video links become player iframes and media tags are
// reduced to a fixed attribute set.
type Rewriter struct{}

func NewRewriter() *Rewriter {
	return &Rewriter{}
}

func (r *Rewriter) Run(fragment string) string {
	nodes, err := xhtml.ParseFragment(strings.NewReader(fragment), bodyContext)
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, n := range nodes {
		r.rewrite(&b, n)
	}

	out := strings.ReplaceAll(b.String(), "\r", "")
	return strings.ReplaceAll(out, "\n", " ")
}

func (r *Rewriter) rewrite(b *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		if strings.TrimSpace(n.Data) != "" {
			b.WriteString("<p>")
			b.WriteString(html.EscapeString(n.Data))
			b.WriteString("</p>")
		}
		return
	case xhtml.ElementNode:
	default:
		return
	}

	switch {
	case n.DataAtom == atom.Script || n.DataAtom == atom.Style:
	case n.DataAtom == atom.Img:
		if markup := imageMarkup(n); markup != "" {
			b.WriteString("<p>" + markup + "</p>")
		}
	case n.DataAtom == atom.Video:
		b.WriteString("<p>" + videoMarkup(n) + "</p>")
	case n.DataAtom == atom.Iframe:
		if markup := linkMarkup(attr(n, "src")); markup != "" {
			b.WriteString("<p>" + markup + "</p>")
		}
	case n.DataAtom == atom.A && !hasMedia(n):
		if markup := linkMarkup(attr(n, "href")); markup != "" {
			b.WriteString("<p>" + markup + "</p>")
		}
	case textBlocks[n.DataAtom] && hasText(n):
		r.render(b, n)
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			r.rewrite(b, c)
		}
	}
}

// render serializes a block that is kept as is, canonicalizing the media and
// links inside it.
func (r *Rewriter) render(b *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(html.EscapeString(n.Data))
		return
	case xhtml.ElementNode:
	default:
		return
	}

	switch {
	case n.DataAtom == atom.Script || n.DataAtom == atom.Style:
		return
	case n.DataAtom == atom.Img:
		b.WriteString(imageMarkup(n))
		return
	case n.DataAtom == atom.Video:
		b.WriteString(videoMarkup(n))
		return
	case n.DataAtom == atom.Iframe:
		b.WriteString(linkMarkup(attr(n, "src")))
		return
	case n.DataAtom == atom.A && !hasMedia(n):
		b.WriteString(linkMarkup(attr(n, "href")))
		return
	}

	writeStartTag(b, n, n.Attr)
	if voidElements[n.DataAtom] {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.render(b, c)
	}
	b.WriteString("</" + n.Data + ">")
}

func linkMarkup(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	return embed.Classify(u).Markup()
}

func imageMarkup(n *xhtml.Node) string {
	if strings.TrimSpace(attr(n, "src")) == "" {
		return ""
	}

	var attrs []xhtml.Attribute
	for _, key := range []string{"src", "alt", "width", "height"} {
		if v := attr(n, key); v != "" {
			attrs = append(attrs, xhtml.Attribute{Key: key, Val: v})
		}
	}

	var b strings.Builder
	writeStartTag(&b, n, attrs)
	return b.String()
}

func videoMarkup(n *xhtml.Node) string {
	var attrs []xhtml.Attribute
	for _, a := range n.Attr {
		if videoAttrDenylist[a.Key] || a.Key == "controls" {
			continue
		}
		attrs = append(attrs, a)
	}
	attrs = append(attrs, xhtml.Attribute{Key: "controls"})

	var b strings.Builder
	writeStartTag(&b, n, attrs)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode && c.DataAtom == atom.Source {
			writeStartTag(&b, c, c.Attr)
		}
	}
	b.WriteString("</video>")
	return b.String()
}

func writeStartTag(b *strings.Builder, n *xhtml.Node, attrs []xhtml.Attribute) {
	b.WriteString("<" + n.Data)
	for _, a := range attrs {
		b.WriteString(" " + a.Key)
		if a.Val != "" {
			b.WriteString(`="` + html.EscapeString(a.Val) + `"`)
		}
	}
	b.WriteString(">")
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasText(n *xhtml.Node) bool {
	if n.Type == xhtml.TextNode {
		return strings.TrimSpace(n.Data) != ""
	}
	if n.Type == xhtml.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasText(c) {
			return true
		}
	}
	return false
}

func hasMedia(n *xhtml.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isMedia(c) || hasMedia(c) {
			return true
		}
	}
	return false
}
