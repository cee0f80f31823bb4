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
)

type finalizeImageRequest struct {
	Path        string   `json:"path"`
	Audience    string   `json:"audience"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
}

func (r finalizeImageRequest) job() ingest.ImageJob {
	return ingest.ImageJob{
		StoragePath: r.Path,
		Audience:    db.Audience(r.Audience),
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Width:       r.Width,
		Height:      r.Height,
	}
}

// HandleFinalizeImage writes the catalog row for one image the browser
// already uploaded through the signed handshake.
func HandleFinalizeImage(sm *auth.SessionManager, pipeline *ingest.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := common.RequireSessionUser(c, sm)
		if err != nil {
			return common.RespondError(c, 401, "unauthorized")
		}

		var req finalizeImageRequest
		if err := c.Bind(&req); err != nil {
			return common.RespondError(c, 400, "invalid json")
		}

		start := time.Now()
		record, err := pipeline.IngestImage(c.Request().Context(), owner, req.job())
		if err != nil {
			kind := ingest.KindOf(err)
			metrics.ObserveIngest("image", string(kind), time.Since(start))
			slog.Error("image finalize failed", "owner", owner.UserID, "error", err)
			if kind == ingest.KindCatalogWrite {
				return common.RespondError(c, 400, "could not save media")
			}
			return common.RespondPipelineError(c, err)
		}
		metrics.ObserveIngest("image", "ok", time.Since(start))

		return c.JSON(200, map[string]any{
			"row": map[string]any{
				"id":           record.ID,
				"storage_path": record.StoragePath,
			},
		})
	}
}

type finalizeBatchRequest struct {
	Audience    string `json:"audience"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        []string `json:"tags"`
	Items       []struct {
		Path   string `json:"path"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"items"`
}

// HandleFinalizeImages finalizes a whole gallery. Items fail
// independently; the response partitions successes and failures by the
// request's item index.
func HandleFinalizeImages(sm *auth.SessionManager, pipeline *ingest.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := common.RequireSessionUser(c, sm)
		if err != nil {
			return common.RespondError(c, 401, "unauthorized")
		}

		var req finalizeBatchRequest
		if err := c.Bind(&req); err != nil {
			return common.RespondError(c, 400, "invalid json")
		}
		if len(req.Items) == 0 {
			return common.RespondError(c, 400, "no items")
		}

		jobs := make([]ingest.ImageJob, len(req.Items))
		for i, item := range req.Items {
			jobs[i] = ingest.ImageJob{
				StoragePath: item.Path,
				Audience:    db.Audience(req.Audience),
				Title:       req.Title,
				Description: req.Description,
				Tags:        req.Tags,
				Width:       item.Width,
				Height:      item.Height,
			}
		}

		result := pipeline.IngestImageBatch(c.Request().Context(), owner, jobs)

		successes := make([]map[string]any, 0, len(result.Successes))
		for _, s := range result.Successes {
			metrics.BatchItemsTotal.WithLabelValues("ok").Inc()
			successes = append(successes, map[string]any{
				"index":        s.Index,
				"id":           s.Record.ID,
				"storage_path": s.Record.StoragePath,
			})
		}
		failures := make([]map[string]any, 0, len(result.Failures))
		for _, f := range result.Failures {
			metrics.BatchItemsTotal.WithLabelValues("failed").Inc()
			failures = append(failures, map[string]any{
				"index": f.Index,
				"error": f.Error,
			})
		}
		if len(result.Failures) > 0 {
			slog.Warn("image batch finished with failures",
				"owner", owner.UserID, "ok", len(result.Successes), "failed", len(result.Failures))
		}

		return c.JSON(200, map[string]any{
			"successes": successes,
			"failures":  failures,
		})
	}
}
