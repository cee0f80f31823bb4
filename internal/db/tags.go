package db

import (
	"context"
	"fmt"

	"github.com/lumenfeed/lumenfeed/pkg/utils/text"
)

const ensureTagInsertSQL = `
INSERT INTO tags (label, slug)
VALUES ($1, $2)
ON CONFLICT (slug) DO NOTHING`

const getTagBySlugSQL = `
SELECT id, label, slug, created_at
FROM tags
WHERE slug = $1`

// EnsureTag makes sure a tag exists for the label and returns it.
// Labels are Title-Cased and identified by slug, so "big cats" and
// "Big  Cats" resolve to the same row. Idempotent under races: a
// concurrent insert loses the conflict and re-selects the winner.
func (q *Queries) EnsureTag(ctx context.Context, rawLabel string) (*Tag, error) {
	label := text.TitleCase(rawLabel)
	slug := text.Slugify(label)
	if slug == "" {
		return nil, fmt.Errorf("ensure tag: empty slug for label %q", rawLabel)
	}

	if _, err := q.db.Exec(ctx, ensureTagInsertSQL, label, slug); err != nil {
		return nil, fmt.Errorf("ensure tag %q: %w", slug, err)
	}

	var t Tag
	err := q.db.QueryRow(ctx, getTagBySlugSQL, slug).
		Scan(&t.ID, &t.Label, &t.Slug, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ensure tag %q: select: %w", slug, err)
	}
	return &t, nil
}

const listTagSuggestionsSQL = `
SELECT label
FROM tags
ORDER BY created_at DESC
LIMIT $1`

// ListTagSuggestions returns the newest tag labels for the empty-query
// suggestion list.
func (q *Queries) ListTagSuggestions(ctx context.Context, limit int32) ([]string, error) {
	rows, err := q.db.Query(ctx, listTagSuggestionsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list tag suggestions: %w", err)
	}
	defer rows.Close()
	return collectLabels(rows)
}

const searchTagsSQL = `
SELECT label
FROM tags
WHERE label ILIKE '%' || $1 || '%'
ORDER BY label ASC
LIMIT $2`

// SearchTags returns labels matching a substring, alphabetically.
func (q *Queries) SearchTags(ctx context.Context, query string, limit int32) ([]string, error) {
	rows, err := q.db.Query(ctx, searchTagsSQL, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	defer rows.Close()
	return collectLabels(rows)
}

type labelRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// collectLabels Title-Cases and deduplicates while keeping row order.
func collectLabels(rows labelRows) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})

	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan tag label: %w", err)
		}
		t := text.TitleCase(label)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, rows.Err()
}
