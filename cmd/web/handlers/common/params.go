package common

import (
	"github.com/labstack/echo/v4"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/internal/ingest"
)

// RequireSessionUser resolves the caller's identity from the session
// cookie. Absent or shape-invalid identities both yield 401; a value
// that fails the shape check is never allowed near a storage path.
func RequireSessionUser(c echo.Context, sm *auth.SessionManager) (ingest.Identity, error) {
	userID, username, err := sm.GetSession(c.Request())
	if err != nil {
		return ingest.Identity{}, ErrUnauthorized()
	}
	id := ingest.Identity{UserID: userID, Username: username}
	if err := id.Validate(); err != nil {
		return ingest.Identity{}, ErrUnauthorized()
	}
	return id, nil
}
