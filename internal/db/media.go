package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// MaxMediaTags caps the tags column at every write path.
const MaxMediaTags = 10

// InsertMediaParams contains the fields for a new catalog row.
type InsertMediaParams struct {
	OwnerID         string
	MediaType       MediaType
	Audience        Audience
	Title           pgtype.Text
	Description     pgtype.Text
	StoragePath     string
	DurationSeconds pgtype.Float8
	Width           pgtype.Int4
	Height          pgtype.Int4
	Tags            []string
}

const insertMediaSQL = `
INSERT INTO media (owner_id, media_type, audience, title, description,
                   storage_path, duration_seconds, width, height, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, owner_id, media_type, audience, title, description,
          storage_path, duration_seconds, width, height, tags, created_at`

// InsertMedia inserts one catalog row and returns it. Tag lists beyond
// the cap are truncated, never rejected.
func (q *Queries) InsertMedia(ctx context.Context, params InsertMediaParams) (*Media, error) {
	if !params.Audience.Valid() {
		return nil, fmt.Errorf("insert media: invalid audience %q", params.Audience)
	}

	tags := params.Tags
	if len(tags) > MaxMediaTags {
		tags = tags[:MaxMediaTags]
	}

	row := q.db.QueryRow(ctx, insertMediaSQL,
		params.OwnerID,
		params.MediaType,
		params.Audience,
		params.Title,
		params.Description,
		params.StoragePath,
		params.DurationSeconds,
		params.Width,
		params.Height,
		tags,
	)
	return scanMedia(row)
}

const getMediaSQL = `
SELECT id, owner_id, media_type, audience, title, description,
       storage_path, duration_seconds, width, height, tags, created_at
FROM media
WHERE id = $1`

// GetMedia fetches one catalog row by id.
func (q *Queries) GetMedia(ctx context.Context, id int64) (*Media, error) {
	return scanMedia(q.db.QueryRow(ctx, getMediaSQL, id))
}

const listMediaByOwnerSQL = `
SELECT id, owner_id, media_type, audience, title, description,
       storage_path, duration_seconds, width, height, tags, created_at
FROM media
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2`

// ListMediaByOwner returns an owner's newest rows first.
func (q *Queries) ListMediaByOwner(ctx context.Context, ownerID string, limit int32) ([]*Media, error) {
	rows, err := q.db.Query(ctx, listMediaByOwnerSQL, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var out []*Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*Media, error) {
	var m Media
	err := row.Scan(
		&m.ID,
		&m.OwnerID,
		&m.MediaType,
		&m.Audience,
		&m.Title,
		&m.Description,
		&m.StoragePath,
		&m.DurationSeconds,
		&m.Width,
		&m.Height,
		&m.Tags,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan media: %w", err)
	}
	return &m, nil
}
