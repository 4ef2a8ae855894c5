package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	ok     map[string]bool
	probed []string
}

func (p *fakeProber) Probe(_ context.Context, url string) error {
	p.probed = append(p.probed, url)
	if p.ok[url] {
		return nil
	}
	return errors.New("not found")
}

func TestResolverFirstImage(t *testing.T) {
	prober := &fakeProber{ok: map[string]bool{"https://cdn/a.jpg": true, "https://cdn/b.jpg": true}}

	got := NewResolver(prober).Run(context.Background(), []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, "https://cdn/p.jpg")

	assert.Equal(t, "https://cdn/a.jpg", got)
	assert.Equal(t, []string{"https://cdn/a.jpg"}, prober.probed)
}

func TestResolverDoesNotTrySecondImage(t *testing.T) {
	prober := &fakeProber{ok: map[string]bool{"https://cdn/b.jpg": true}}

	got := NewResolver(prober).Run(context.Background(), []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, "")

	assert.Equal(t, "", got)
	assert.Equal(t, []string{"https://cdn/a.jpg"}, prober.probed)
}

func TestResolverPosterFallback(t *testing.T) {
	prober := &fakeProber{ok: map[string]bool{"https://cdn/p.jpg": true}}

	got := NewResolver(prober).Run(context.Background(), nil, "https://cdn/p.jpg")
	assert.Equal(t, "https://cdn/p.jpg", got)
}

func TestResolverPosterIsValidated(t *testing.T) {
	prober := &fakeProber{}

	got := NewResolver(prober).Run(context.Background(), []string{"https://cdn/a.jpg"}, "https://cdn/p.jpg")

	assert.Equal(t, "", got)
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/p.jpg"}, prober.probed)
}
