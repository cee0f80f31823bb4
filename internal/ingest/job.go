package ingest

import (
	"regexp"
	"strings"

	"github.com/lumenfeed/lumenfeed/internal/db"
	"github.com/lumenfeed/lumenfeed/pkg/ffmpeg"
	"github.com/lumenfeed/lumenfeed/pkg/utils/text"
)

// userIDPattern constrains identity values before they appear in any
// storage path. Anything looser would open path traversal through the
// session cookie.
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{10,}$`)

// Identity is the resolved caller, passed explicitly into every
// pipeline operation and never re-read mid-job.
type Identity struct {
	UserID   string
	Username string
}

// Validate checks the identifier shape.
func (id Identity) Validate() error {
	if !userIDPattern.MatchString(id.UserID) {
		return errUnauthorized("missing or malformed user identity")
	}
	return nil
}

// TranscodeJob is one video publish request: two staged artifacts, a
// trim window and the catalog metadata for the resulting row.
type TranscodeJob struct {
	StagingVideoPath     string
	StagingWatermarkPath string

	StartSec float64
	EndSec   float64
	Position ffmpeg.OverlayPosition
	Mute     bool

	Audience    db.Audience
	Title       string
	Description string
	Tags        []string
}

// videoPlan is a validated, clamped job ready for execution.
type videoPlan struct {
	start    float64
	duration float64
	position ffmpeg.OverlayPosition
	tags     []string
}

// plan validates the job against the owner and clamps the trim
// window. Path checks run before anything touches the network.
func (j TranscodeJob) plan(owner Identity) (*videoPlan, error) {
	if j.StagingVideoPath == "" || j.StagingWatermarkPath == "" {
		return nil, errInvalid("missing staging paths")
	}

	scope := "/" + owner.UserID + "/"
	if !strings.Contains(j.StagingVideoPath, scope) || !strings.Contains(j.StagingWatermarkPath, scope) {
		return nil, errForbidden("staging paths are not scoped to the caller")
	}

	if j.EndSec <= j.StartSec {
		return nil, errInvalid("trim window is empty")
	}
	if !j.Audience.Valid() {
		return nil, errInvalid("unknown audience")
	}

	position := j.Position
	if position == "" {
		position = ffmpeg.OverlayBottomRight
	}
	if !position.Valid() {
		return nil, errInvalid("unknown overlay position")
	}

	start := maxFloat(0, j.StartSec)
	end := maxFloat(start, j.EndSec)
	duration := maxFloat(0.01, end-start)

	return &videoPlan{
		start:    start,
		duration: duration,
		position: position,
		tags:     normalizeTags(j.Tags),
	}, nil
}

// ImageJob finalizes one image the browser already uploaded through
// the signed-upload handshake.
type ImageJob struct {
	StoragePath string

	Audience    db.Audience
	Title       string
	Description string
	Tags        []string
	Width       int
	Height      int
}

func (j ImageJob) validate(owner Identity) error {
	if j.StoragePath == "" {
		return errInvalid("missing storage path")
	}
	if !strings.Contains(j.StoragePath, "/"+owner.UserID+"/") {
		return errForbidden("storage path is not scoped to the caller")
	}
	if !j.Audience.Valid() {
		return errInvalid("unknown audience")
	}
	return nil
}

// normalizeTags title-cases, deduplicates case-insensitively and
// truncates to the catalog cap, preserving first-seen order.
func normalizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		label := text.TitleCase(r)
		if label == "" {
			continue
		}
		dup := false
		for _, existing := range out {
			if strings.EqualFold(existing, label) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, label)
		if len(out) == db.MaxMediaTags {
			break
		}
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
