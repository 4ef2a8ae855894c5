package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/board-feeds/app/content"
	"github.com/lysyi3m/board-feeds/app/site"
)

// Builder runs the per-post normalization: body extraction, featured image
// selection and embed rewriting.
type Builder struct {
	extractor *content.Extractor
	resolver  *content.Resolver
	rewriter  *content.Rewriter
}

func NewBuilder(c site.ContentConfig, prober content.Prober) *Builder {
	return &Builder{
		extractor: content.NewExtractor(c),
		resolver:  content.NewResolver(prober),
		rewriter:  content.NewRewriter(),
	}
}

func (b *Builder) Run(ctx context.Context, post PostItem) (PostItem, error) {
	extraction, err := b.extractor.Run(post.RawContent, post.Link)
	if err != nil {
		return post, fmt.Errorf("extract %s: %w", post.Link, err)
	}

	b.logMedia(post.Link, extraction)

	post.FeaturedImage = b.resolver.Run(ctx, extraction.ImageURLs, extraction.PosterURL)
	post.Content = b.rewriter.Run(extraction.HTML)
	if post.Content == "" {
		return post, fmt.Errorf("rewrite %s: %w", post.Link, content.ErrEmptyContent)
	}

	return post, nil
}

func (b *Builder) logMedia(link string, extraction content.Extraction) {
	if len(extraction.Media) == 0 {
		return
	}

	var original []string
	for _, ref := range extraction.Media {
		if ref.OriginalURL != ref.ResolvedURL {
			original = append(original, ref.OriginalURL)
		}
	}

	slog.Debug("Post media extracted",
		"link", link,
		"media", len(extraction.Media),
		"images", extraction.ImageURLs,
		"videos", extraction.VideoURLs,
		"poster", extraction.PosterURL,
		"rewritten", original)
}
