package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Clip selection policy.
const (
	MinClipSeconds   = 5.0
	MaxClipSeconds   = 60.0
	MaxSourceSeconds = 65.0

	// Duration probes report float seconds; allow a hair of slack so a
	// 65.02s file from a sloppy muxer is not rejected.
	sourceDurationTolerance = 0.05

	// MetadataTimeout bounds the duration probe on a newly selected
	// video. Exceeding it fails the selection, no retry.
	MetadataTimeout = 10 * time.Second
)

var (
	// ErrSourceTooLong rejects videos over the hard duration ceiling.
	ErrSourceTooLong = fmt.Errorf("video longer than %.0fs is not allowed", MaxSourceSeconds)

	// ErrMetadataTimeout means the duration probe did not finish in time.
	ErrMetadataTimeout = errors.New("timed out reading video metadata")
)

// CheckSourceDuration enforces the selection-time duration ceiling.
func CheckSourceDuration(duration float64) error {
	if duration > MaxSourceSeconds+sourceDurationTolerance {
		return ErrSourceTooLong
	}
	return nil
}

// ProbeSource runs a duration probe under the metadata timeout.
func ProbeSource(ctx context.Context, probe func(context.Context) (float64, error)) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()

	duration, err := probe(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, ErrMetadataTimeout
		}
		return 0, err
	}
	return duration, nil
}

// TrimWindow is the [Start, End] second range selected from a source
// video. After any drag: 0 <= Start < End <= Duration and the window
// length stays within [MinClipSeconds, min(MaxClipSeconds, Duration)].
type TrimWindow struct {
	Start    float64
	End      float64
	Duration float64
}

// NewTrimWindow opens a window at the head of the video, as wide as the
// clip ceiling allows.
func NewTrimWindow(duration float64) TrimWindow {
	win := MaxClipSeconds
	if duration > 0 && duration < win {
		win = duration
	}
	return TrimWindow{Start: 0, End: win, Duration: duration}
}

// Length returns the selected duration in seconds.
func (w TrimWindow) Length() float64 {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start
}

func (w TrimWindow) maxLen() float64 {
	if w.Duration < MaxClipSeconds {
		return w.Duration
	}
	return MaxClipSeconds
}

// DragLeft moves the start edge by delta seconds. The edge stops at the
// minimum window length; widening past the ceiling drags the start back
// to keep the window at the maximum.
func (w TrimWindow) DragLeft(delta float64) TrimWindow {
	ns := clamp(w.Start+delta, 0, w.End-MinClipSeconds)
	if w.End-ns > w.maxLen() {
		ns = w.End - w.maxLen()
	}
	w.Start = ns
	return w
}

// DragRight moves the end edge by delta seconds, mirroring DragLeft.
func (w TrimWindow) DragRight(delta float64) TrimWindow {
	ne := clamp(w.End+delta, w.Start+MinClipSeconds, w.Duration)
	if ne-w.Start > w.maxLen() {
		ne = w.Start + w.maxLen()
	}
	w.End = ne
	return w
}

// Move shifts the whole window by delta seconds. A window squeezed
// below the floor by the boundary clamp is re-inflated symmetrically;
// pushing past either end slides the window flush against it.
func (w TrimWindow) Move(delta float64) TrimWindow {
	ns := clamp(w.Start+delta, 0, w.Duration)
	ne := clamp(w.End+delta, 0, w.Duration)

	length := ne - ns
	if length < MinClipSeconds {
		d := MinClipSeconds - length
		ns -= d / 2
		ne += d / 2
	}
	if max := w.maxLen(); length > max {
		d := length - max
		ns += d / 2
		ne -= d / 2
	}
	if ns < 0 {
		ne -= ns
		ns = 0
	}
	if ne > w.Duration {
		ns -= ne - w.Duration
		ne = w.Duration
	}

	w.Start = ns
	w.End = ne
	return w
}

// Valid reports whether the window invariants hold.
func (w TrimWindow) Valid() bool {
	if w.Start < 0 || w.End > w.Duration || w.Start >= w.End {
		return false
	}
	length := w.Length()
	return length >= MinClipSeconds-1e-9 && length <= w.maxLen()+1e-9
}

func clamp(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
