package content

import (
	"context"
	"log/slog"
)

type Prober interface {
	Probe(ctx context.Context, url string) error
}

// Resolver picks the featured image of a post: the first body image when it
// is reachable, otherwise the poster of the first video.
type Resolver struct {
	prober Prober
}

func NewResolver(prober Prober) *Resolver {
	return &Resolver{prober: prober}
}

func (r *Resolver) Run(ctx context.Context, imageURLs []string, posterURL string) string {
	if len(imageURLs) > 0 && imageURLs[0] != "" {
		if r.validate(ctx, imageURLs[0]) {
			return imageURLs[0]
		}
	}

	if posterURL != "" && r.validate(ctx, posterURL) {
		return posterURL
	}

	return ""
}

func (r *Resolver) validate(ctx context.Context, url string) bool {
	if err := r.prober.Probe(ctx, url); err != nil {
		slog.Debug("Featured image candidate rejected", "url", url, "error", err)
		return false
	}
	return true
}
