package feed

import (
	"errors"

	"github.com/lysyi3m/board-feeds/app/site"
)

var (
	ErrInvalidItem = errors.New("item cannot be serialized")
	ErrWriteFailed = errors.New("feed document cannot be written")
)

// PostItem is one scraped post. It lives for a single build.
type PostItem struct {
	Title         string
	Link          string
	RawContent    string
	Content       string
	FeaturedImage string
	Categories    []string
}

type Channel struct {
	Name              string
	Title             string
	Link              string
	Description       string
	Creator           string
	DefaultCategories []string
	WordPress         bool
	ThumbnailMetaKey  string
}

func NewChannel(c *site.Config) Channel {
	return Channel{
		Name:              c.Name,
		Title:             c.Channel.Title,
		Link:              c.Channel.Link,
		Description:       c.Channel.Description,
		Creator:           c.Channel.Creator,
		DefaultCategories: c.Channel.DefaultCategories,
		WordPress:         c.Channel.WordPress,
		ThumbnailMetaKey:  c.Channel.ThumbnailMetaKey,
	}
}

// GUIDSet holds the GUIDs already used in a document.
type GUIDSet map[string]struct{}

func (s GUIDSet) Has(guid string) bool {
	_, ok := s[guid]
	return ok
}

func (s GUIDSet) Clone() GUIDSet {
	out := make(GUIDSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

type Document struct {
	Channel      Channel
	XML          []byte
	GUIDs        []string
	ItemsEmitted int
	ItemsSkipped int
}
