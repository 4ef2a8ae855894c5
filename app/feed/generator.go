package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/board-feeds/app/content"
	"github.com/samber/lo"
)

const (
	nsContent   = "http://purl.org/rss/1.0/modules/content/"
	nsDC        = "http://purl.org/dc/elements/1.1/"
	nsWordPress = "http://wordpress.org/export/1.2/"

	lastBuildDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"
	defaultEnclosure    = "image/jpeg"
)

type Generator struct {
	version string
	now     func() time.Time
}

func NewGenerator(version string) *Generator {
	return &Generator{
		version: version,
		now:     time.Now,
	}
}

// Run serializes items into an RSS 2.0 document. seen is not modified; the
// returned set holds seen plus every GUID emitted here.
func (g *Generator) Run(channel Channel, items []PostItem, seen GUIDSet) (*Document, GUIDSet, error) {
	if channel.Title == "" || channel.Link == "" {
		return nil, seen, fmt.Errorf("channel %q needs a title and a link", channel.Name)
	}

	guids := seen.Clone()
	doc := &Document{Channel: channel}

	var itemsBuf bytes.Buffer
	withPostmeta := false

	for i, item := range items {
		guid := nextGUID(guids, itemLink(channel, item, i), i)

		postmeta, err := g.writeItem(&itemsBuf, channel, item, i, guid)
		if err != nil {
			slog.Warn("Skipping item", "site", channel.Name, "index", i, "link", item.Link, "error", err)
			doc.ItemsSkipped++
			continue
		}

		guids[guid] = struct{}{}
		doc.GUIDs = append(doc.GUIDs, guid)
		doc.ItemsEmitted++
		withPostmeta = withPostmeta || postmeta
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf(`<rss version="2.0" xmlns:content="%s" xmlns:dc="%s"`, nsContent, nsDC))
	if withPostmeta {
		buf.WriteString(fmt.Sprintf(` xmlns:wp="%s"`, nsWordPress))
	}
	buf.WriteString(">\n  <channel>\n")

	g.writeElement(&buf, "title", sanitize(channel.Title), 4)
	g.writeElement(&buf, "link", sanitize(channel.Link), 4)
	description := channel.Description
	if description == "" {
		description = fmt.Sprintf("Posts collected from %s", channel.Link)
	}
	g.writeElement(&buf, "description", sanitize(description), 4)
	g.writeElement(&buf, "lastBuildDate", g.now().UTC().Format(lastBuildDateLayout), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("board-feeds/%s", g.version), 4)

	buf.Write(itemsBuf.Bytes())

	buf.WriteString("  </channel>\n</rss>\n")

	doc.XML = buf.Bytes()
	return doc, guids, nil
}

func (g *Generator) writeItem(out *bytes.Buffer, channel Channel, item PostItem, index int, guid string) (bool, error) {
	fields := append([]string{item.Title, item.Link, item.Content, item.FeaturedImage}, item.Categories...)
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return false, fmt.Errorf("%w: invalid UTF-8", ErrInvalidItem)
		}
	}

	title := cmp.Or(strings.TrimSpace(item.Title), fmt.Sprintf("Untitled Post %d", index+1))
	link := itemLink(channel, item, index)
	body := flattenLines.Replace(sanitize(item.Content))

	var buf bytes.Buffer
	buf.WriteString("    <item>\n")

	g.writeElement(&buf, "title", sanitize(title), 6)
	g.writeElement(&buf, "link", sanitize(link), 6)

	for _, category := range mergeCategories(channel.DefaultCategories, item.Categories) {
		g.writeElement(&buf, "category", sanitize(category), 6)
	}

	g.writeElement(&buf, "dc:creator", sanitize(channel.Creator), 6)

	buf.WriteString(`      <guid isPermaLink="true">`)
	xml.EscapeText(&buf, []byte(sanitize(guid)))
	buf.WriteString("</guid>\n")

	buf.WriteString("      <description>")
	xml.EscapeText(&buf, []byte(content.PlainText(body, content.DescriptionLimit)))
	buf.WriteString("</description>\n")

	buf.WriteString("      <content:encoded>")
	if body != "" {
		buf.WriteString("<![CDATA[")
		buf.WriteString(strings.ReplaceAll(body, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]>")
	}
	buf.WriteString("</content:encoded>\n")

	postmeta := false
	if image := sanitize(item.FeaturedImage); isAbsoluteURL(image) {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" type=\"%s\" length=\"0\" />\n",
			html.EscapeString(image),
			html.EscapeString(guessImageType(image))))

		if channel.WordPress {
			buf.WriteString("      <wp:postmeta>\n")
			g.writeElement(&buf, "wp:meta_key", channel.ThumbnailMetaKey, 8)
			g.writeElement(&buf, "wp:meta_value", image, 8)
			buf.WriteString("      </wp:postmeta>\n")
			postmeta = true
		}
	}

	buf.WriteString("    </item>\n")

	out.Write(buf.Bytes())
	return postmeta, nil
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// nextGUID returns link, or link-index when link is taken. A further counter
// is appended in the rare case that is taken too.
func nextGUID(used GUIDSet, link string, index int) string {
	if !used.Has(link) {
		return link
	}

	candidate := fmt.Sprintf("%s-%d", link, index)
	for n := 1; used.Has(candidate); n++ {
		candidate = fmt.Sprintf("%s-%d-%d", link, index, n)
	}
	return candidate
}

func itemLink(channel Channel, item PostItem, index int) string {
	return cmp.Or(strings.TrimSpace(item.Link), placeholderLink(channel.Link, index))
}

func placeholderLink(channelLink string, index int) string {
	return fmt.Sprintf("%s/placeholder/%d", strings.TrimRight(channelLink, "/"), index+1)
}

func mergeCategories(defaults, categories []string) []string {
	all := make([]string, 0, len(defaults)+len(categories))
	for _, c := range append(append([]string{}, defaults...), categories...) {
		all = append(all, strings.TrimSpace(c))
	}
	return lo.Uniq(lo.Compact(all))
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func guessImageType(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return defaultEnclosure
	}

	mimeType := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path)))
	if mimeType == "" {
		return defaultEnclosure
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// sanitize drops runes that XML 1.0 does not allow in character data.
// content:encoded is emitted on a single line.
var flattenLines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		case r >= 0xD800 && r <= 0xDFFF:
			return -1
		default:
			return r
		}
	}, s)
}
