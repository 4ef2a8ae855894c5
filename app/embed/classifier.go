package embed

import (
	"fmt"
	"html"
	"regexp"
)

type Kind string

const (
	KindYouTube Kind = "youtube"
	KindVimeo   Kind = "vimeo"
	KindGeneric Kind = "generic"
)

var (
	youtubePattern = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)
	vimeoPattern   = regexp.MustCompile(`vimeo\.com/(?:video/|embed/)?(\d+)`)
)

type Embed struct {
	Kind    Kind
	VideoID string
	URL     string
}

// Classify detects YouTube and Vimeo video URLs. Anything else is generic.
func Classify(url string) Embed {
	if m := youtubePattern.FindStringSubmatch(url); m != nil {
		return Embed{Kind: KindYouTube, VideoID: m[1], URL: url}
	}
	if m := vimeoPattern.FindStringSubmatch(url); m != nil {
		return Embed{Kind: KindVimeo, VideoID: m[1], URL: url}
	}
	return Embed{Kind: KindGeneric, URL: url}
}

func (e Embed) IsVideo() bool {
	return e.Kind == KindYouTube || e.Kind == KindVimeo
}

// PlayerURL returns the embeddable player address, or "" for generic links.
func (e Embed) PlayerURL() string {
	switch e.Kind {
	case KindYouTube:
		return "https://www.youtube.com/embed/" + e.VideoID
	case KindVimeo:
		return "https://player.vimeo.com/video/" + e.VideoID
	default:
		return ""
	}
}

func (e Embed) Markup() string {
	if player := e.PlayerURL(); player != "" {
		return fmt.Sprintf(`<iframe width="360px" height="auto" src="%s" frameborder="0" allowfullscreen></iframe>`, player)
	}
	return fmt.Sprintf(`<a href="%s">Watch Video</a>`, html.EscapeString(e.URL))
}
