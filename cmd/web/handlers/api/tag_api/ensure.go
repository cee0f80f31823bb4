package tag_api

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/cmd/web/handlers/common"
	"github.com/lumenfeed/lumenfeed/internal/db"
)

// HandleEnsure creates a tag if its slug is new. Calling it twice with
// the same label yields the same row.
func HandleEnsure(sm *auth.SessionManager, dbc *db.DatabaseConnection) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := common.RequireSessionUser(c, sm); err != nil {
			return common.RespondError(c, 401, "unauthorized")
		}

		var req struct {
			Label string `json:"label"`
		}
		if err := c.Bind(&req); err != nil {
			return common.RespondError(c, 400, "invalid json")
		}
		if strings.TrimSpace(req.Label) == "" {
			return common.RespondError(c, 400, "label is required")
		}

		ctx := c.Request().Context()
		tag, err := dbc.Queries(ctx).EnsureTag(ctx, req.Label)
		if err != nil {
			slog.Error("ensure tag failed", "label", req.Label, "error", err)
			return common.RespondError(c, 400, "could not create tag")
		}

		return c.JSON(200, map[string]any{
			"tag": map[string]any{
				"id":    tag.ID,
				"label": tag.Label,
				"slug":  tag.Slug,
			},
		})
	}
}
