package upload_api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/cmd/web/handlers/common"
	"github.com/lumenfeed/lumenfeed/internal/db"
	"github.com/lumenfeed/lumenfeed/internal/ingest"
	"github.com/lumenfeed/lumenfeed/internal/metrics"
	"github.com/lumenfeed/lumenfeed/pkg/ffmpeg"
)

type trimWatermarkRequest struct {
	StagingVideoPath string   `json:"stagingVideoPath"`
	StagingWmPath    string   `json:"stagingWmPath"`
	StartSec         float64  `json:"startSec"`
	EndSec           float64  `json:"endSec"`
	Position         string   `json:"position"`
	Mute             bool     `json:"mute"`
	Audience         string   `json:"audience"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
}

// HandleTrimWatermark runs the full video publish pipeline for one
// staged upload and responds with the new catalog row reference.
func HandleTrimWatermark(sm *auth.SessionManager, pipeline *ingest.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := common.RequireSessionUser(c, sm)
		if err != nil {
			return common.RespondError(c, 401, "unauthorized")
		}

		var req trimWatermarkRequest
		if err := c.Bind(&req); err != nil {
			return common.RespondError(c, 400, "invalid json")
		}

		job := ingest.TranscodeJob{
			StagingVideoPath:     req.StagingVideoPath,
			StagingWatermarkPath: req.StagingWmPath,
			StartSec:             req.StartSec,
			EndSec:               req.EndSec,
			Position:             ffmpeg.OverlayPosition(req.Position),
			Mute:                 req.Mute,
			Audience:             db.Audience(req.Audience),
			Title:                req.Title,
			Description:          req.Description,
			Tags:                 req.Tags,
		}

		start := time.Now()
		record, err := pipeline.IngestVideo(c.Request().Context(), owner, job)
		if err != nil {
			kind := string(ingest.KindOf(err))
			if kind == "" {
				kind = "internal"
			}
			metrics.ObserveIngest("video", kind, time.Since(start))
			slog.Error("video ingest failed", "owner", owner.UserID, "kind", kind, "error", err)
			return common.RespondPipelineError(c, err)
		}
		metrics.ObserveIngest("video", "ok", time.Since(start))

		return c.JSON(200, map[string]any{
			"row": map[string]any{
				"id":           record.ID,
				"storage_path": record.StoragePath,
			},
		})
	}
}
