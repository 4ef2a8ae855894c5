package content

import (
	"errors"

	"github.com/lysyi3m/board-feeds/app/media"
)

var (
	ErrContainerNotFound = errors.New("content container not found")
	ErrEmptyContent      = errors.New("no content left after extraction")
)

type Extraction struct {
	HTML      string
	ImageURLs []string
	VideoURLs []string
	Media     []media.Reference
	PosterURL string
}
