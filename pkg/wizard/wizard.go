// Package wizard models the upload selection flow: pick a source,
// trim a video or arrange images, fill in audience, tags and a
// description, then submit. The state machine is UI-agnostic; a client
// drives it and renders whatever the current step requires.
package wizard

import (
	"errors"
	"fmt"
)

// Step is the wizard's current position in the flow.
type Step int

const (
	StepPickSource Step = iota
	StepTrimOrArrange
	StepAudience
	StepTags
	StepDescription
	StepSubmitting
	StepDone
	StepFailed
)

func (s Step) String() string {
	switch s {
	case StepPickSource:
		return "pick-source"
	case StepTrimOrArrange:
		return "trim-or-arrange"
	case StepAudience:
		return "audience"
	case StepTags:
		return "tags"
	case StepDescription:
		return "description"
	case StepSubmitting:
		return "submitting"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Kind is the selected source type.
type Kind string

const (
	KindVideo  Kind = "video"
	KindImages Kind = "images"
)

// Audience is the content's main audience. Values must match the
// audience_type catalog enum.
type Audience string

const (
	AudienceStraight Audience = "straight"
	AudienceGay      Audience = "gay"
	AudienceTrans    Audience = "trans"
	AudienceBisexual Audience = "bisexual"
	AudienceLesbian  Audience = "lesbian"
	AudienceAnimated Audience = "animated"
)

// Audiences lists every valid audience in display order.
var Audiences = []Audience{
	AudienceStraight,
	AudienceGay,
	AudienceTrans,
	AudienceBisexual,
	AudienceLesbian,
	AudienceAnimated,
}

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	for _, v := range Audiences {
		if a == v {
			return true
		}
	}
	return false
}

var (
	ErrWrongStep   = errors.New("operation not allowed in current step")
	ErrTagRange    = errors.New("select between 3 and 10 tags")
	ErrBadAudience = errors.New("unknown audience")
)

// Wizard is the selection flow state machine.
type Wizard struct {
	step Step
	kind Kind

	window  TrimWindow
	muted   bool
	gallery *Gallery

	audience    Audience
	tags        *TagPicker
	description string

	err error
}

// New starts a wizard at source selection.
func New() *Wizard {
	return &Wizard{
		step:     StepPickSource,
		audience: AudienceStraight,
		tags:     NewTagPicker(),
		muted:    true,
	}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Kind returns the selected source kind.
func (w *Wizard) Kind() Kind { return w.kind }

// Err returns the error retained from a failed submission.
func (w *Wizard) Err() error { return w.err }

// SelectVideo accepts a probed source duration and opens the trim
// editor. Sources over the ceiling are rejected and the wizard stays at
// source selection — there is no editing path for an over-long video.
func (w *Wizard) SelectVideo(duration float64) error {
	if w.step != StepPickSource {
		return ErrWrongStep
	}
	if err := CheckSourceDuration(duration); err != nil {
		return err
	}

	w.kind = KindVideo
	w.window = NewTrimWindow(duration)
	w.muted = true
	w.step = StepTrimOrArrange
	return nil
}

// SelectImages accepts a count of chosen images and opens the gallery
// arranger.
func (w *Wizard) SelectImages(count int) error {
	if w.step != StepPickSource {
		return ErrWrongStep
	}
	g, err := NewGallery(count)
	if err != nil {
		return err
	}

	w.kind = KindImages
	w.gallery = g
	w.step = StepTrimOrArrange
	return nil
}

// Window returns the current trim window.
func (w *Wizard) Window() TrimWindow { return w.window }

// SetWindow stores a dragged trim window. Windows violating the
// invariants are refused.
func (w *Wizard) SetWindow(win TrimWindow) error {
	if w.kind != KindVideo {
		return ErrWrongStep
	}
	if !win.Valid() {
		return fmt.Errorf("invalid trim window [%0.2f, %0.2f]", win.Start, win.End)
	}
	w.window = win
	return nil
}

// Gallery returns the image arranger, nil for video selections.
func (w *Wizard) Gallery() *Gallery { return w.gallery }

// SetMuted toggles audio for the selected clip.
func (w *Wizard) SetMuted(muted bool) { w.muted = muted }

// Muted reports whether the clip's audio is dropped.
func (w *Wizard) Muted() bool { return w.muted }

// SetAudience picks the main audience.
func (w *Wizard) SetAudience(a Audience) error {
	if !a.Valid() {
		return ErrBadAudience
	}
	w.audience = a
	return nil
}

// Audience returns the chosen audience.
func (w *Wizard) Audience() Audience { return w.audience }

// Tags returns the tag picker.
func (w *Wizard) Tags() *TagPicker { return w.tags }

// SetDescription stores the free-text description.
func (w *Wizard) SetDescription(s string) { w.description = s }

// Description returns the free-text description.
func (w *Wizard) Description() string { return w.description }

// Next advances one step. Leaving the tag step requires the tag count
// to be in range; leaving the description step goes through Submit.
func (w *Wizard) Next() error {
	switch w.step {
	case StepTrimOrArrange:
		w.step = StepAudience
	case StepAudience:
		w.step = StepTags
	case StepTags:
		if !w.tags.CanAdvance() {
			return ErrTagRange
		}
		w.step = StepDescription
	default:
		return ErrWrongStep
	}
	return nil
}

// Back steps backward through the metadata flow.
func (w *Wizard) Back() error {
	switch w.step {
	case StepTrimOrArrange:
		w.step = StepPickSource
		w.kind = ""
		w.gallery = nil
	case StepAudience:
		w.step = StepTrimOrArrange
	case StepTags:
		w.step = StepAudience
	case StepDescription:
		w.step = StepTags
	case StepFailed:
		// Failure surfaces at the description step for a retry.
		w.step = StepDescription
	default:
		return ErrWrongStep
	}
	return nil
}

// Submit enters the submitting state. Only reachable from the final
// description step.
func (w *Wizard) Submit() error {
	if w.step != StepDescription {
		return ErrWrongStep
	}
	w.err = nil
	w.step = StepSubmitting
	return nil
}

// Finish records the submission outcome. A failure keeps every
// selection intact so re-submitting re-runs the whole pipeline.
func (w *Wizard) Finish(err error) error {
	if w.step != StepSubmitting {
		return ErrWrongStep
	}
	if err != nil {
		w.err = err
		w.step = StepFailed
		return nil
	}
	w.step = StepDone
	return nil
}
