package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// TextOrNull wraps a string into a pgtype.Text, empty meaning NULL.
func TextOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// Float8 wraps a float into a non-null pgtype.Float8.
func Float8(f float64) pgtype.Float8 {
	return pgtype.Float8{Float64: f, Valid: true}
}

// Int4OrNull wraps an int into a pgtype.Int4, zero meaning NULL.
func Int4OrNull(n int) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(n), Valid: n != 0}
}
