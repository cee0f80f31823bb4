// Package ffmpeg provides a composable API for building and executing ffmpeg commands.
package ffmpeg

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
)

// Command represents an ffmpeg command being built.
type Command struct {
	inputs        []string
	output        string
	preInput      []string // args before the first -i (like -ss for input seeking)
	postInput     []string // args after the inputs
	filters       []string // collected -vf filters
	filterComplex []string // collected -filter_complex chains
}

// Option modifies a Command. Options are composable and order-independent
// (ffmpeg will receive args in correct order regardless of option order).
type Option interface {
	Apply(cmd *Command)
}

// OptionFunc is a function that implements Option.
type OptionFunc func(cmd *Command)

// Apply implements Option.
func (f OptionFunc) Apply(cmd *Command) { f(cmd) }

// NewCommand creates a command with input/output and applies options.
func NewCommand(input, output string, opts ...Option) *Command {
	cmd := &Command{
		inputs: []string{input},
		output: output,
	}
	for _, opt := range opts {
		opt.Apply(cmd)
	}
	return cmd
}

// Build returns the complete ffmpeg argument list.
func (c *Command) Build() []string {
	args := []string{"-hide_banner", "-y"}

	// Pre-input args (seeking, duration limit)
	args = append(args, c.preInput...)

	// Inputs (additional inputs come from the Input option)
	for _, in := range c.inputs {
		args = append(args, "-i", in)
	}

	// Post-input args
	args = append(args, c.postInput...)

	// Combine simple video filters
	if len(c.filters) > 0 {
		args = append(args, "-vf", strings.Join(c.filters, ","))
	}

	// Filter graph chains are joined with ";"
	if len(c.filterComplex) > 0 {
		args = append(args, "-filter_complex", strings.Join(c.filterComplex, ";"))
	}

	// Auto-apply faststart for MP4/M4A outputs
	ext := strings.ToLower(filepath.Ext(c.output))
	if ext == ".mp4" || ext == ".m4a" || ext == ".mov" {
		args = append(args, "-movflags", "+faststart")
	}

	// Output
	args = append(args, c.output)

	return args
}

// Run executes the ffmpeg command.
func (c *Command) Run(ctx context.Context) error {
	return run(ctx, c.Build())
}

// RunCapture executes the ffmpeg command and returns both stderr logs and any error.
func (c *Command) RunCapture(ctx context.Context) RunResult {
	return runCapture(ctx, c.Build())
}

// Run executes an ffmpeg command with the given options.
func Run(ctx context.Context, input, output string, opts ...Option) error {
	return NewCommand(input, output, opts...).Run(ctx)
}

// RunCapture executes an ffmpeg command and returns both the stderr logs and any error.
func RunCapture(ctx context.Context, input, output string, opts ...Option) RunResult {
	return NewCommand(input, output, opts...).RunCapture(ctx)
}

// --- Input Options ---

// Input adds a secondary input (overlay image, audio bed, etc.).
func Input(path string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.inputs = append(cmd.inputs, path)
	})
}

// --- Seeking Options ---

// SeekSeconds sets the start position (input seeking, before the inputs).
func SeekSeconds(start float64) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatSeconds(start))
	})
}

// DurationSeconds limits the output duration (-t before the inputs).
func DurationSeconds(d float64) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-t", formatSeconds(d))
	})
}

// --- Video Codec Options ---

// VideoCodec sets the video codec (-c:v).
func VideoCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:v", codec)
	})
}

// CRF sets the constant rate factor.
func CRF(value int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-crf", strconv.Itoa(value))
	})
}

// Preset sets the encoding preset (ultrafast, fast, medium, etc.).
func Preset(name string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-preset", name)
	})
}

// --- Audio Codec Options ---

// AudioCodec sets the audio codec (-c:a).
func AudioCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:a", codec)
	})
}

// AudioBitrate sets the audio bitrate (-b:a).
func AudioBitrate(bitrate string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-b:a", bitrate)
	})
}

// NoAudio disables audio in output (-an).
var NoAudio Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-an")
})

// --- Filter Options ---

// Filter adds a video filter to the -vf chain.
func Filter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filters = append(cmd.filters, f)
	})
}

// FilterComplex adds a chain to the -filter_complex graph.
func FilterComplex(chain string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filterComplex = append(cmd.filterComplex, chain)
	})
}

// MapStream maps a specific stream (-map {spec}).
func MapStream(spec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-map", spec)
	})
}

// MapOptionalAudio maps the first input's audio stream if one exists
// (-map 0:a?). Inputs without audio are not an error.
var MapOptionalAudio Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-map", "0:a?")
})

// --- Misc ---

// ExtraArgs adds raw arguments (escape hatch for unsupported options).
func ExtraArgs(args ...string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, args...)
	})
}

// --- Utility ---

func formatSeconds(secs float64) string {
	// Millisecond precision is what ffmpeg expects for -ss/-t.
	return strconv.FormatFloat(secs, 'f', 3, 64)
}
