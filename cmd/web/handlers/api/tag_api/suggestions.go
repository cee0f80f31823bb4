// package tag_api serves the tag picker's vocabulary endpoints.
package tag_api

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/cmd/web/handlers/common"
	"github.com/lumenfeed/lumenfeed/internal/db"
)

const suggestionLimit = 50

// HandleSuggestions returns recent tags, or a substring search when
// ?q= is present.
func HandleSuggestions(sm *auth.SessionManager, dbc *db.DatabaseConnection) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := common.RequireSessionUser(c, sm); err != nil {
			return common.RespondError(c, 401, "unauthorized")
		}

		ctx := c.Request().Context()
		q := strings.TrimSpace(c.QueryParam("q"))

		var (
			labels []string
			err    error
		)
		if q == "" {
			labels, err = dbc.Queries(ctx).ListTagSuggestions(ctx, suggestionLimit)
		} else {
			labels, err = dbc.Queries(ctx).SearchTags(ctx, q, suggestionLimit)
		}
		if err != nil {
			slog.Error("tag suggestions failed", "q", q, "error", err)
			return common.RespondError(c, 500, "could not load tags")
		}

		return c.JSON(200, map[string]any{"tags": labels})
	}
}
