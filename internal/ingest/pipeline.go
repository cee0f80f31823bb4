// Package ingest runs the publish pipeline: staged upload in, catalog
// row out. The video path trims, watermarks and re-encodes through an
// ffmpeg subprocess; the image path finalizes already-uploaded bytes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lumenfeed/lumenfeed/internal/db"
	"github.com/lumenfeed/lumenfeed/pkg/ffmpeg"
)

// ObjectStore is the slice of the storage client the pipeline needs.
type ObjectStore interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	Remove(ctx context.Context, bucket string, paths ...string) error
}

// Catalog persists finished media rows and the owner's display name.
type Catalog interface {
	InsertMedia(ctx context.Context, params db.InsertMediaParams) (*db.Media, error)
	UpsertProfile(ctx context.Context, userID, username string) error
}

// TranscodeFunc executes one trim+overlay pass. Production wires
// ffmpeg.TranscodeSpec.Transcode; tests substitute a fake.
type TranscodeFunc func(ctx context.Context, spec ffmpeg.TranscodeSpec, input, overlay, output string) ffmpeg.RunResult

// ProbeFunc reads media properties from a file on disk.
type ProbeFunc func(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)

// Config assembles a Pipeline. Store and Catalog are required; the
// rest defaults to the production wiring.
type Config struct {
	Store   ObjectStore
	Catalog Catalog

	StagingBucket    string
	MediaBucket      string
	TranscodeTimeout time.Duration

	Logger    *slog.Logger
	Transcode TranscodeFunc
	Probe     ProbeFunc
}

type Pipeline struct {
	store   ObjectStore
	catalog Catalog

	stagingBucket    string
	mediaBucket      string
	transcodeTimeout time.Duration

	log       *slog.Logger
	transcode TranscodeFunc
	probe     ProbeFunc
	sanitize  *bluemonday.Policy
}

const (
	defaultStagingBucket    = "uploads-staging"
	defaultMediaBucket      = "media"
	defaultTranscodeTimeout = 5 * time.Minute

	batchWorkers = 3
)

func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		store:            cfg.Store,
		catalog:          cfg.Catalog,
		stagingBucket:    cfg.StagingBucket,
		mediaBucket:      cfg.MediaBucket,
		transcodeTimeout: cfg.TranscodeTimeout,
		log:              cfg.Logger,
		transcode:        cfg.Transcode,
		probe:            cfg.Probe,
		sanitize:         bluemonday.StrictPolicy(),
	}
	if p.stagingBucket == "" {
		p.stagingBucket = defaultStagingBucket
	}
	if p.mediaBucket == "" {
		p.mediaBucket = defaultMediaBucket
	}
	if p.transcodeTimeout <= 0 {
		p.transcodeTimeout = defaultTranscodeTimeout
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.transcode == nil {
		p.transcode = func(ctx context.Context, spec ffmpeg.TranscodeSpec, input, overlay, output string) ffmpeg.RunResult {
			return spec.Transcode(ctx, input, overlay, output)
		}
	}
	if p.probe == nil {
		p.probe = ffmpeg.Probe
	}
	return p
}

// IngestVideo runs the full video publish: scope checks, staging
// fetch, transcode in a scratch workspace, publish, catalog insert,
// best-effort staging cleanup. Any step failing aborts the job with a
// kinded error; nothing already published is rolled back.
func (p *Pipeline) IngestVideo(ctx context.Context, owner Identity, job TranscodeJob) (*db.Media, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	plan, err := job.plan(owner)
	if err != nil {
		return nil, err
	}

	videoBytes, err := p.store.Download(ctx, p.stagingBucket, job.StagingVideoPath)
	if err != nil {
		return nil, wrap(KindUpstreamFetch, err, "download staged video")
	}
	overlayBytes, err := p.store.Download(ctx, p.stagingBucket, job.StagingWatermarkPath)
	if err != nil {
		return nil, wrap(KindUpstreamFetch, err, "download staged watermark")
	}

	ws, err := newWorkspace()
	if err != nil {
		return nil, wrap(KindTranscodeFailed, err, "create workspace")
	}
	defer ws.release(p.log)

	if err := ws.materialize(videoBytes, overlayBytes); err != nil {
		return nil, wrap(KindTranscodeFailed, err, "materialize staged artifacts")
	}

	spec := ffmpeg.Defaults()
	spec.StartSec = plan.start
	spec.DurationSec = plan.duration
	spec.Position = plan.position
	spec.Mute = job.Mute

	tctx, cancel := context.WithTimeout(ctx, p.transcodeTimeout)
	defer cancel()
	if res := p.transcode(tctx, spec, ws.input, ws.overlay, ws.output); res.Err != nil {
		return nil, &Error{
			Kind:     KindTranscodeFailed,
			Msg:      "transcode subprocess failed",
			ExitCode: exitCodeOf(res.Err),
			Err:      res.Err,
		}
	}

	output, err := os.ReadFile(ws.output)
	if err != nil {
		return nil, wrap(KindTranscodeFailed, err, "read transcoded output")
	}

	mediaPath := fmt.Sprintf("videos/%s/%s.mp4", owner.UserID, uuid.NewString())
	if err := p.store.Upload(ctx, p.mediaBucket, mediaPath, output, "video/mp4"); err != nil {
		return nil, wrap(KindPublishUpload, err, "upload transcoded video")
	}

	params := db.InsertMediaParams{
		OwnerID:         owner.UserID,
		MediaType:       db.MediaTypeVideo,
		Audience:        job.Audience,
		Title:           db.TextOrNull(p.cleanText(job.Title)),
		Description:     db.TextOrNull(p.cleanText(job.Description)),
		StoragePath:     mediaPath,
		DurationSeconds: db.Float8(plan.duration),
		Tags:            plan.tags,
	}
	if probed, perr := p.probe(ctx, ws.output); perr != nil {
		p.log.Warn("probe of transcoded output failed", "error", perr)
	} else {
		params.Width = db.Int4OrNull(probed.Width)
		params.Height = db.Int4OrNull(probed.Height)
	}

	p.recordProfile(ctx, owner)

	record, err := p.catalog.InsertMedia(ctx, params)
	if err != nil {
		p.log.Error("catalog insert failed, published object orphaned",
			"bucket", p.mediaBucket, "path", mediaPath, "error", err)
		return nil, wrap(KindCatalogWrite, err, "insert media row")
	}

	if err := p.store.Remove(ctx, p.stagingBucket, job.StagingVideoPath, job.StagingWatermarkPath); err != nil {
		p.log.Warn("staging cleanup failed", "error", err)
	}

	p.log.Info("video published",
		"owner", owner.UserID,
		"path", mediaPath,
		"duration_seconds", plan.duration,
		"source_size", humanize.Bytes(uint64(len(videoBytes))),
		"output_size", humanize.Bytes(uint64(len(output))))
	return record, nil
}

// IngestImage writes the catalog row for one already-uploaded image.
func (p *Pipeline) IngestImage(ctx context.Context, owner Identity, job ImageJob) (*db.Media, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := job.validate(owner); err != nil {
		return nil, err
	}

	p.recordProfile(ctx, owner)

	record, err := p.catalog.InsertMedia(ctx, db.InsertMediaParams{
		OwnerID:     owner.UserID,
		MediaType:   db.MediaTypeImage,
		Audience:    job.Audience,
		Title:       db.TextOrNull(p.cleanText(job.Title)),
		Description: db.TextOrNull(p.cleanText(job.Description)),
		StoragePath: job.StoragePath,
		Width:       db.Int4OrNull(job.Width),
		Height:      db.Int4OrNull(job.Height),
		Tags:        normalizeTags(job.Tags),
	})
	if err != nil {
		return nil, wrap(KindCatalogWrite, err, "insert media row")
	}
	return record, nil
}

// BatchSuccess and BatchFailure key batch outcomes by the caller's
// original item index, not by completion order.
type BatchSuccess struct {
	Index  int       `json:"index"`
	Record *db.Media `json:"record"`
}

type BatchFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type BatchResult struct {
	Successes []BatchSuccess `json:"successes"`
	Failures  []BatchFailure `json:"failures"`
}

// IngestImageBatch finalizes jobs through a bounded worker pool. Item
// failures are collected, never propagated to their siblings.
func (p *Pipeline) IngestImageBatch(ctx context.Context, owner Identity, jobs []ImageJob) BatchResult {
	var (
		mu     sync.Mutex
		result BatchResult
	)

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < batchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				record, err := p.IngestImage(ctx, owner, jobs[i])
				mu.Lock()
				if err != nil {
					result.Failures = append(result.Failures, BatchFailure{Index: i, Error: err.Error()})
				} else {
					result.Successes = append(result.Successes, BatchSuccess{Index: i, Record: record})
				}
				mu.Unlock()
			}
		}()
	}
	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	sort.Slice(result.Successes, func(a, b int) bool { return result.Successes[a].Index < result.Successes[b].Index })
	sort.Slice(result.Failures, func(a, b int) bool { return result.Failures[a].Index < result.Failures[b].Index })
	return result
}

// cleanText strips markup from user-supplied metadata.
func (p *Pipeline) cleanText(s string) string {
	return strings.TrimSpace(p.sanitize.Sanitize(s))
}

// recordProfile keeps the owner's display name current for catalog joins.
// Failures do not block the publish.
func (p *Pipeline) recordProfile(ctx context.Context, owner Identity) {
	if err := p.catalog.UpsertProfile(ctx, owner.UserID, owner.Username); err != nil {
		p.log.Warn("profile upsert failed", "owner", owner.UserID, "error", err)
	}
}

func exitCodeOf(err error) int {
	var fe *ffmpeg.Error
	if errors.As(err, &fe) {
		return fe.ExitCode()
	}
	return -1
}
