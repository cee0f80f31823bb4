package upload_api

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/cmd/web/handlers/common"
	"github.com/lumenfeed/lumenfeed/pkg/watermark"
)

// HandleWatermark renders the caller's overlay badge server-side, for
// clients that cannot composite it themselves. The bytes are identical
// to what a capable client would produce and stage.
func HandleWatermark(sm *auth.SessionManager, composer *watermark.Composer) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := common.RequireSessionUser(c, sm)
		if err != nil {
			return common.RespondError(c, 401, "unauthorized")
		}

		png, err := composer.For(owner.Username)
		if err != nil {
			slog.Error("watermark render failed", "username", owner.Username, "error", err)
			return common.RespondError(c, 500, "could not render watermark")
		}
		return c.Blob(200, "image/png", png)
	}
}
