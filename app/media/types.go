package media

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Reference is a media element found while extracting a post body.
type Reference struct {
	Kind        Kind
	OriginalURL string
	ResolvedURL string
	PosterURL   string
}
