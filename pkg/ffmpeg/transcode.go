package ffmpeg

import (
	"context"
	"fmt"
)

// OverlayPosition identifies a corner of the video frame for the
// watermark overlay.
type OverlayPosition string

const (
	OverlayTopLeft     OverlayPosition = "top-left"
	OverlayTopRight    OverlayPosition = "top-right"
	OverlayBottomLeft  OverlayPosition = "bottom-left"
	OverlayBottomRight OverlayPosition = "bottom-right"
)

// Valid reports whether p is one of the four supported corners.
func (p OverlayPosition) Valid() bool {
	switch p {
	case OverlayTopLeft, OverlayTopRight, OverlayBottomLeft, OverlayBottomRight:
		return true
	}
	return false
}

// Expr returns the ffmpeg overlay filter expression for the corner,
// keeping the watermark inset pixels away from the frame edges.
func (p OverlayPosition) Expr(inset int) string {
	switch p {
	case OverlayTopRight:
		return fmt.Sprintf("overlay=W-w-%d:%d", inset, inset)
	case OverlayBottomLeft:
		return fmt.Sprintf("overlay=%d:H-h-%d", inset, inset)
	case OverlayBottomRight:
		return fmt.Sprintf("overlay=W-w-%d:H-h-%d", inset, inset)
	default:
		return fmt.Sprintf("overlay=%d:%d", inset, inset)
	}
}

// TranscodeSpec describes a trim, downscale and watermark pass over a
// source video. Zero values fall back to the defaults in Defaults.
type TranscodeSpec struct {
	StartSec    float64
	DurationSec float64

	ScaleHeight int     // output height, width follows aspect (-2)
	FrameRate   int     // constant output frame rate
	Position    OverlayPosition
	Inset       int     // watermark distance from frame edges, pixels

	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	Mute         bool // drop audio streams entirely
}

// Defaults returns the standard publishing profile: 720p30, libx264
// ultrafast at CRF 32, AAC 128k audio.
func Defaults() TranscodeSpec {
	return TranscodeSpec{
		ScaleHeight:  720,
		FrameRate:    30,
		Position:     OverlayBottomRight,
		Inset:        16,
		VideoCodec:   "libx264",
		Preset:       "ultrafast",
		CRF:          32,
		AudioCodec:   "aac",
		AudioBitrate: "128k",
	}
}

// normalized fills zero fields from Defaults.
func (s TranscodeSpec) normalized() TranscodeSpec {
	def := Defaults()
	if s.ScaleHeight == 0 {
		s.ScaleHeight = def.ScaleHeight
	}
	if s.FrameRate == 0 {
		s.FrameRate = def.FrameRate
	}
	if !s.Position.Valid() {
		s.Position = def.Position
	}
	if s.Inset == 0 {
		s.Inset = def.Inset
	}
	if s.VideoCodec == "" {
		s.VideoCodec = def.VideoCodec
	}
	if s.Preset == "" {
		s.Preset = def.Preset
	}
	if s.CRF == 0 {
		s.CRF = def.CRF
	}
	if s.AudioCodec == "" {
		s.AudioCodec = def.AudioCodec
	}
	if s.AudioBitrate == "" {
		s.AudioBitrate = def.AudioBitrate
	}
	return s
}

// Command builds the ffmpeg invocation. The overlay image is
// added as a second input and composited over the scaled video.
func (s TranscodeSpec) Command(input, overlay, output string) *Command {
	s = s.normalized()

	opts := []Option{
		SeekSeconds(s.StartSec),
		DurationSeconds(s.DurationSec),
		Input(overlay),
		FilterComplex(fmt.Sprintf("[0:v]scale=-2:%d,fps=%d[v0]", s.ScaleHeight, s.FrameRate)),
		FilterComplex(fmt.Sprintf("[v0][1:v]%s[vout]", s.Position.Expr(s.Inset))),
		MapStream("[vout]"),
	}

	if s.Mute {
		opts = append(opts, NoAudio)
	} else {
		opts = append(opts, MapOptionalAudio)
	}

	opts = append(opts,
		VideoCodec(s.VideoCodec),
		Preset(s.Preset),
		CRF(s.CRF),
	)

	if !s.Mute {
		opts = append(opts,
			AudioCodec(s.AudioCodec),
			AudioBitrate(s.AudioBitrate),
		)
	}

	return NewCommand(input, output, opts...)
}

// Transcode runs the trim+watermark pass and returns the captured
// ffmpeg output alongside any error.
func (s TranscodeSpec) Transcode(ctx context.Context, input, overlay, output string) RunResult {
	return s.Command(input, overlay, output).RunCapture(ctx)
}
