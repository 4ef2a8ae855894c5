package content

import (
	"testing"

	"github.com/lysyi3m/board-feeds/app/media"
	"github.com/lysyi3m/board-feeds/app/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	return NewExtractor(site.ContentConfig{
		ContainerSelector:   "div.xe_content",
		CDNBase:             "https://cdn.site",
		RelativePrefixes:    []string{"/files/attach"},
		AdSelectors:         []string{"div.view_ad", `div[id^="dcamp_ad"]`},
		PlaceholderPatterns: []string{"blank.gif"},
		ImageWidth:          "720px",
	})
}

func page(body string) string {
	return `<html><head><title>t</title></head><body><div class="header">menu</div><div class="xe_content">` + body + `</div></body></html>`
}

func TestExtractorParagraphAndImage(t *testing.T) {
	result, err := newTestExtractor().Run(page(`<p>hi</p><img src='/files/attach/a.jpg'>`), "https://site/1")
	require.NoError(t, err)

	assert.Equal(t, `<p>hi</p><p><img src="https://cdn.site/a.jpg" width="720px"/></p>`, result.HTML)
	assert.Equal(t, []string{"https://cdn.site/a.jpg"}, result.ImageURLs)
	require.Len(t, result.Media, 1)
	assert.Equal(t, media.KindImage, result.Media[0].Kind)
	assert.Equal(t, "/files/attach/a.jpg", result.Media[0].OriginalURL)
	assert.NotContains(t, result.HTML, "menu")
}

func TestExtractorContainerNotFound(t *testing.T) {
	_, err := newTestExtractor().Run(`<html><body><div class="other">x</div></body></html>`, "https://site/1")
	assert.ErrorIs(t, err, ErrContainerNotFound)
}

func TestExtractorEmptyContent(t *testing.T) {
	result, err := newTestExtractor().Run(page(`<p>   </p><!-- note --><script>var a = 1;</script><div class="view_ad">ad</div>`), "https://site/1")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Empty(t, result.HTML)
}

func TestExtractorRemovesNoise(t *testing.T) {
	raw := page(`<p>keep</p><!-- hidden --><script>alert(1)</script><style>p{}</style><div class="view_ad">buy</div><div id="dcamp_ad_1">ad</div>`)

	result, err := newTestExtractor().Run(raw, "https://site/1")
	require.NoError(t, err)

	assert.Equal(t, `<p>keep</p>`, result.HTML)
}

func TestExtractorDropsVideoWithoutSrc(t *testing.T) {
	raw := page(`<p>clip</p><video poster="/files/attach/p.jpg"><source src="/files/attach/v.mp4"></video>`)

	result, err := newTestExtractor().Run(raw, "https://site/1")
	require.NoError(t, err)

	assert.NotContains(t, result.HTML, "<video")
	assert.Empty(t, result.VideoURLs)
	assert.Equal(t, "https://cdn.site/p.jpg", result.PosterURL)
}

func TestExtractorVideo(t *testing.T) {
	raw := page(`<video src="/files/attach/v.mp4" poster="/files/attach/p.jpg"><source src="/files/attach/v.mp4" type="video/mp4"></video>`)

	result, err := newTestExtractor().Run(raw, "https://site/1")
	require.NoError(t, err)

	assert.Contains(t, result.HTML, `src="https://cdn.site/v.mp4"`)
	assert.Contains(t, result.HTML, `poster="https://cdn.site/p.jpg"`)
	assert.Contains(t, result.HTML, `controls=""`)
	assert.Contains(t, result.HTML, `<source src="https://cdn.site/v.mp4" type="video/mp4"/>`)
	assert.Equal(t, []string{"https://cdn.site/v.mp4"}, result.VideoURLs)
	assert.Equal(t, "https://cdn.site/p.jpg", result.PosterURL)
	require.Len(t, result.Media, 1)
	assert.Equal(t, "https://cdn.site/p.jpg", result.Media[0].PosterURL)
}

func TestExtractorWrapVideo(t *testing.T) {
	e := NewExtractor(site.ContentConfig{ContainerSelector: "div.xe_content", WrapVideo: true})

	result, err := e.Run(page(`<video src="https://v.host/v.mp4"></video>`), "https://site/1")
	require.NoError(t, err)

	assert.Contains(t, result.HTML, `<p><video src="https://v.host/v.mp4" controls=""></video></p>`)
}

func TestExtractorLazyAndPlaceholderImages(t *testing.T) {
	raw := page(`<img src="data:image/gif;base64,R0lG" data-src="/files/attach/b.jpg"><img src="/files/attach/blank.gif"><img>`)

	result, err := newTestExtractor().Run(raw, "https://site/1")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.site/b.jpg"}, result.ImageURLs)
	assert.Contains(t, result.HTML, `src="https://cdn.site/b.jpg"`)
	assert.NotContains(t, result.HTML, "blank.gif")
}

func TestExtractorKeepsExistingWidth(t *testing.T) {
	result, err := newTestExtractor().Run(page(`<img src="https://img.host/a.png" width="100">`), "https://site/1")
	require.NoError(t, err)

	assert.Equal(t, `<p><img src="https://img.host/a.png" width="100"/></p>`, result.HTML)
}

func TestExtractorFlattensContainersInOrder(t *testing.T) {
	raw := page(`hello <b>world</b><div><p>first</p><figure><img src="/files/attach/c.jpg"></figure></div><h2>title</h2><ul><li>item</li></ul><p><br></p>`)

	result, err := newTestExtractor().Run(raw, "https://site/1")
	require.NoError(t, err)

	assert.Equal(t,
		`<p>hello <b>world</b></p><p>first</p><p><img src="https://cdn.site/c.jpg" width="720px"/></p><h2>title</h2><ul><li>item</li></ul>`,
		result.HTML)
}

func TestExtractorKeepsIframe(t *testing.T) {
	result, err := newTestExtractor().Run(page(`<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe>`), "https://site/1")
	require.NoError(t, err)

	assert.Equal(t, `<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe>`, result.HTML)
}
