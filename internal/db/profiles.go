package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrProfileNotFound reports an unknown user id.
var ErrProfileNotFound = errors.New("profile not found")

const getProfileSQL = `
SELECT user_id, username, created_at
FROM profiles
WHERE user_id = $1`

// GetProfile fetches the profile for a user id.
func (q *Queries) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := q.db.QueryRow(ctx, getProfileSQL, userID).
		Scan(&p.UserID, &p.Username, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return &p, nil
}

const upsertProfileSQL = `
INSERT INTO profiles (user_id, username)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username`

// UpsertProfile records the display name seen for a user id. The
// session is the source of truth; this keeps the catalog joinable.
func (q *Queries) UpsertProfile(ctx context.Context, userID, username string) error {
	if _, err := q.db.Exec(ctx, upsertProfileSQL, userID, username); err != nil {
		return fmt.Errorf("upsert profile %s: %w", userID, err)
	}
	return nil
}
