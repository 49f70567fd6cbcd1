// Package search does case-insensitive keyword search over local document
// trees.
package search

import (
	"strings"

	"github.com/rogersnm/docsync/internal/model"
)

type Result struct {
	Collection string
	RemoteID   string
	Title      string
	Path       string
	Snippet    string
	// TitleMatch is set when the title itself matched.
	TitleMatch bool
}

// Documents returns the documents whose title, description or body contain
// query. Title matches come first, each group in tree order.
func Documents(collection string, docs []model.ParsedDocument, query string) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var byTitle, byBody []Result
	for _, d := range docs {
		r := Result{
			Collection: collection,
			RemoteID:   d.Metadata.RemoteID,
			Title:      d.Metadata.Title,
			Path:       d.RelativePath,
		}
		switch {
		case matchesQuery(q, d.Metadata.Title):
			r.TitleMatch = true
			r.Snippet = snippet(d.Content, q)
			byTitle = append(byTitle, r)
		case matchesQuery(q, d.Content):
			r.Snippet = snippet(d.Content, q)
			byBody = append(byBody, r)
		case matchesQuery(q, d.Metadata.Description):
			r.Snippet = snippet(d.Metadata.Description, q)
			byBody = append(byBody, r)
		}
	}
	return append(byTitle, byBody...)
}

func matchesQuery(q, text string) bool {
	return strings.Contains(strings.ToLower(text), q)
}

func snippet(body, query string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, query)
	if idx < 0 || len(lower) != len(body) {
		return ""
	}
	start := max(idx-40, 0)
	end := min(idx+len(query)+40, len(body))
	s := body[start:end]
	if start > 0 {
		s = "..." + s
	}
	if end < len(body) {
		s = s + "..."
	}
	return strings.ReplaceAll(s, "\n", " ")
}
