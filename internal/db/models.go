package db

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// MediaType mirrors the media_type enum.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

// Audience mirrors the audience_type enum.
type Audience string

const (
	AudienceStraight Audience = "straight"
	AudienceGay      Audience = "gay"
	AudienceTrans    Audience = "trans"
	AudienceBisexual Audience = "bisexual"
	AudienceLesbian  Audience = "lesbian"
	AudienceAnimated Audience = "animated"
)

// Valid reports whether a is a known audience value.
func (a Audience) Valid() bool {
	switch a {
	case AudienceStraight, AudienceGay, AudienceTrans,
		AudienceBisexual, AudienceLesbian, AudienceAnimated:
		return true
	}
	return false
}

// Media is one published catalog row.
type Media struct {
	ID              int64
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
	CreatedAt       time.Time
}

// Tag is one row of the tag vocabulary.
type Tag struct {
	ID        int64
	Label     string
	Slug      string
	CreatedAt time.Time
}

// Profile maps a user id to its public display name.
type Profile struct {
	UserID    string
	Username  string
	CreatedAt time.Time
}
