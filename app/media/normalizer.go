package media

import (
	"strings"
)

// Normalizer turns the relative media paths used by board software into
// absolute CDN URLs.
type Normalizer struct {
	CDNBase          string
	RelativePrefixes []string
	DefaultPrefix    string
}

func NewNormalizer(cdnBase string, prefixes []string, defaultPrefix string) *Normalizer {
	return &Normalizer{
		CDNBase:          cdnBase,
		RelativePrefixes: prefixes,
		DefaultPrefix:    defaultPrefix,
	}
}

func (n *Normalizer) Normalize(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	if IsAbsolute(u) || hasPrefixFold(u, "data:") {
		return u
	}

	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}

	for _, prefix := range n.RelativePrefixes {
		if prefix != "" && strings.HasPrefix(u, prefix) {
			return joinURL(n.CDNBase, strings.TrimPrefix(u, prefix))
		}
	}

	return joinURL(joinURL(n.CDNBase, n.DefaultPrefix), u)
}

// IsAbsolute reports whether u carries an http or https scheme.
func IsAbsolute(u string) bool {
	return hasPrefixFold(u, "http://") || hasPrefixFold(u, "https://")
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
