// package upload_api serves the upload wizard's server boundary: the
// signed upload handshake, the trim+watermark publish job and image
// finalization.
package upload_api

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/cmd/web/handlers/common"
	"github.com/lumenfeed/lumenfeed/internal/metrics"
	"github.com/lumenfeed/lumenfeed/internal/storage"
)

// Signer is the slice of the storage client the handshake needs.
type Signer interface {
	SignUpload(ctx context.Context, bucket, path string) (*storage.SignedUpload, error)
}

var extCleaner = regexp.MustCompile(`[^a-z0-9]`)

// objectExt picks the published file extension. Videos always land as
// mp4; images keep a sanitized version of their original extension.
func objectExt(kind, filename string) string {
	if kind == "video" {
		return "mp4"
	}
	ext := ""
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		ext = extCleaner.ReplaceAllString(strings.ToLower(filename[i+1:]), "")
	}
	if ext == "" {
		ext = "jpg"
	}
	return ext
}

func HandleCreate(sm *auth.SessionManager, store Signer, mediaBucket string) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := common.RequireSessionUser(c, sm)
		if err != nil {
			return common.RespondError(c, 401, "unauthorized")
		}

		var req struct {
			Kind     string `json:"kind"`
			Filename string `json:"filename"`
		}
		if err := c.Bind(&req); err != nil {
			return common.RespondError(c, 400, "invalid json")
		}

		var prefix string
		switch req.Kind {
		case "video":
			prefix = "videos"
		case "image":
			prefix = "images"
		default:
			return common.RespondError(c, 400, "kind must be video or image")
		}

		path := fmt.Sprintf("%s/%s/%s.%s", prefix, owner.UserID, uuid.NewString(), objectExt(req.Kind, req.Filename))

		signed, err := store.SignUpload(c.Request().Context(), mediaBucket, path)
		if err != nil {
			slog.Error("signed upload handshake failed", "path", path, "error", err)
			return common.RespondError(c, 500, "could not sign upload")
		}

		metrics.SignedUploadsTotal.WithLabelValues(req.Kind).Inc()
		return c.JSON(200, signed)
	}
}
