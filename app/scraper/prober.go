package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Prober checks that a media URL answers a HEAD request successfully.
type Prober struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func NewProber(client *http.Client, userAgent string, timeout time.Duration) *Prober {
	return &Prober{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (p *Prober) Probe(ctx context.Context, mediaURL string) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodHead, mediaURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrProbeFailed, mediaURL, err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s: %w", ErrProbeFailed, mediaURL, &StatusError{Code: resp.StatusCode})
	}

	return nil
}
