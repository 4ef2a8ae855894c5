package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		kind Kind
		id   string
	}{
		{"https://youtu.be/dQw4w9WgXcQ", KindYouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", KindYouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", KindYouTube, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1", KindYouTube, "dQw4w9WgXcQ"},
		{"https://vimeo.com/76979871", KindVimeo, "76979871"},
		{"https://vimeo.com/video/76979871", KindVimeo, "76979871"},
		{"https://player.vimeo.com/video/76979871", KindVimeo, "76979871"},
		{"https://example.com/x", KindGeneric, ""},
		{"https://youtu.be/short", KindGeneric, ""},
		{"https://youtu.be/dQw4w9WgXcQxyz", KindGeneric, ""},
		{"", KindGeneric, ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Classify(tt.url)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.id, got.VideoID)
			assert.Equal(t, tt.url, got.URL)
		})
	}
}

func TestMarkup(t *testing.T) {
	assert.Equal(t,
		`<iframe width="360px" height="auto" src="https://www.youtube.com/embed/dQw4w9WgXcQ" frameborder="0" allowfullscreen></iframe>`,
		Classify("https://youtu.be/dQw4w9WgXcQ").Markup())

	assert.Equal(t,
		`<iframe width="360px" height="auto" src="https://player.vimeo.com/video/76979871" frameborder="0" allowfullscreen></iframe>`,
		Classify("https://vimeo.com/76979871").Markup())

	assert.Equal(t,
		`<a href="https://example.com/x?a=1&amp;b=2">Watch Video</a>`,
		Classify("https://example.com/x?a=1&b=2").Markup())
}
