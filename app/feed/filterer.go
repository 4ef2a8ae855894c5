package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/board-feeds/app/site"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops the posts rejected by the site filters and reports how many were
// dropped.
func (f *Filterer) Run(posts []PostItem, filters []site.ConfigFilter) ([]PostItem, int) {
	if len(filters) == 0 {
		return posts, 0
	}

	kept := make([]PostItem, 0, len(posts))
	for _, post := range posts {
		if rejected, reason := f.applyFilters(post, filters); rejected {
			slog.Debug("Post filtered", "link", post.Link, "reason", reason)
			continue
		}
		kept = append(kept, post)
	}

	return kept, len(posts) - len(kept)
}

func (f *Filterer) applyFilters(post PostItem, filters []site.ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(post, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(post PostItem, field string) string {
	switch field {
	case "title":
		return post.Title
	case "link":
		return post.Link
	case "categories":
		return strings.Join(post.Categories, " ")
	default:
		return ""
	}
}
