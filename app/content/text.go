package content

import (
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const DescriptionLimit = 200

// PlainText strips markup from fragment, collapses whitespace and keeps at
// most limit runes.
func PlainText(fragment string, limit int) string {
	nodes, err := xhtml.ParseFragment(strings.NewReader(fragment), bodyContext)
	if err != nil {
		return ""
	}

	var parts []string
	var collect func(n *xhtml.Node)
	collect = func(n *xhtml.Node) {
		switch n.Type {
		case xhtml.TextNode:
			parts = append(parts, n.Data)
			return
		case xhtml.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	for _, n := range nodes {
		collect(n)
	}

	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return truncateRunes(text, limit)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
