// Package runner implements the Scenario Runner: the instrumentation API a
// scenario script calls against, driving the browser while recording
// events and coordinating the capture loop's pause/resume around
// narration, slides, and transitions.
package runner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ivlev/demoreel/internal/clock"
	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/pipeline"
	"github.com/ivlev/demoreel/internal/timeline"
)

const (
	defaultSlideDurationMs   = 2000
	fillCharDelayMs          = 30
	minCursorMoveDurationMs  = 200
	maxCursorMoveDurationMs  = 800
)

// NarrationSegment is one pre-generated narration window, as produced by
// the narration preprocessor. Only the first segment in a recording
// carries an AudioFile; the rest reference the single continuous track
// implicitly.
type NarrationSegment struct {
	Text       string
	DurationMs int64
	AudioFile  string
}

// SceneOptions configures Scene.
type SceneOptions struct {
	Description string
	Slide       *timeline.Slide
}

// ActionOptions configures an action-triggering call (click/fill/hover/
// press/navigate/dblclick).
type ActionOptions struct {
	Narration string
	Value     string // used by Fill
}

// TransitionOptions configures Transition.
type TransitionOptions struct {
	Kind       timeline.TransitionKind
	DurationMs int64
}

// Overlay is the minimal surface the runner needs to show/hide a slide
// overlay; implemented by overlay.CSSOverlay, a CSS-injection shim over
// the driver.
type Overlay interface {
	Show(ctx context.Context, slide *timeline.Slide, title, description string) error
	Hide(ctx context.Context) error
}

// Runner exposes the instrumentation API and owns the per-recording state
// a scenario implicitly depends on: cursor position, narration queue
// cursor, and pending-transition flag. All of it is owned here rather than
// as module-level statics, so multiple recordings never interfere.
type Runner struct {
	clock   *clock.Clock
	session driver.Session
	overlay Overlay

	events []timeline.Event

	cursorX, cursorY int
	eventSeq         int

	narrationQueue []NarrationSegment
	narrationIdx   int

	transitionPending *timeline.TransitionMarker
	transitions       []timeline.TransitionMarker

	slideEntryIndices []int
}

// New creates a Runner seeded with the viewport centre as the initial
// cursor position.
func New(c *clock.Clock, sess driver.Session, overlay Overlay, viewportW, viewportH int, narration []NarrationSegment) *Runner {
	return &Runner{
		clock:          c,
		session:        sess,
		overlay:        overlay,
		cursorX:        viewportW / 2,
		cursorY:        viewportH / 2,
		narrationQueue: narration,
	}
}

// Events returns the recorded event stream so far.
func (r *Runner) Events() []timeline.Event {
	out := make([]timeline.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Transitions returns the recorded transition markers so far.
func (r *Runner) Transitions() []timeline.TransitionMarker {
	out := make([]timeline.TransitionMarker, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// SlideEntryIndices returns the manifest indices of every Hold entry
// created by a Scene call carrying a slide, in recording order. The
// compositor uses this to suppress chrome and cursor rendering while a
// slide is on screen.
func (r *Runner) SlideEntryIndices() []int {
	out := make([]int, len(r.slideEntryIndices))
	copy(out, r.slideEntryIndices)
	return out
}

func (r *Runner) nextID() string {
	r.eventSeq++
	return fmt.Sprintf("ev-%03d", r.eventSeq)
}

func (r *Runner) append(e timeline.Event) {
	e.ID = r.nextID()
	e.TimestampMs = r.clock.CurrentTimeMs()
	r.events = append(r.events, e)
}

// Scene emits a Scene event. If opts.Slide is present, it pauses capture,
// shows the slide overlay, takes one explicit frame, holds for the
// slide's duration, removes the overlay, and leaves capture paused — the
// next action resumes it.
func (r *Runner) Scene(ctx context.Context, title string, opts SceneOptions) error {
	r.append(timeline.Event{
		Kind:        timeline.EventScene,
		Title:       title,
		Description: opts.Description,
		Slide:       opts.Slide,
	})

	if opts.Slide == nil {
		return nil
	}

	if err := r.clock.PauseCapture(); err != nil {
		return pipeline.WrapDriverFailure("scene", "", "", err)
	}

	if r.overlay != nil {
		if err := r.overlay.Show(ctx, opts.Slide, title, opts.Description); err != nil {
			return pipeline.WrapDriverFailure("scene", "", "", err)
		}
	}

	file, err := r.clock.CaptureOneFrame(ctx, r.session)
	if err != nil {
		return pipeline.WrapDriverFailure("scene", "", "", err)
	}

	duration := opts.Slide.DurationMs
	if duration <= 0 {
		duration = defaultSlideDurationMs
	}

	// A slide that narrates consumes the next pre-generated segment and
	// holds for whichever is longer: the configured slide duration or the
	// segment's spoken duration, so speech is never cut short.
	if opts.Slide.Narrate != "" {
		if r.narrationIdx >= len(r.narrationQueue) {
			return pipeline.NewError(pipeline.NarrationMismatch, "scene: no pre-generated segment available for slide narration %q", opts.Slide.Narrate)
		}
		seg := r.narrationQueue[r.narrationIdx]
		r.narrationIdx++

		if seg.DurationMs > duration {
			duration = seg.DurationMs
		}

		segDuration := seg.DurationMs
		r.append(timeline.Event{
			Kind:            timeline.EventNarration,
			Text:            opts.Slide.Narrate,
			AudioDurationMs: &segDuration,
			AudioFile:       seg.AudioFile,
		})
	}

	holdFrames := int(math.Ceil(float64(duration) * float64(r.clock.FPS()) / 1000.0))
	r.clock.AddHold(file, holdFrames)
	r.slideEntryIndices = append(r.slideEntryIndices, len(r.clock.Manifest())-1)

	if r.overlay != nil {
		if err := r.overlay.Hide(ctx); err != nil {
			return pipeline.WrapDriverFailure("scene", "", "", err)
		}
	}

	// capture stays paused; the next action resumes it.
	return nil
}

func (r *Runner) emitNarrationIfPresent(ctx context.Context, narration string) error {
	if narration == "" {
		return nil
	}
	return r.Narrate(ctx, narration)
}

// Navigate drives the browser to load url, emitting narration first if
// requested.
func (r *Runner) Navigate(ctx context.Context, url string, opts ActionOptions) error {
	if err := r.ResolvePendingTransition(ctx); err != nil {
		return err
	}
	if err := r.emitNarrationIfPresent(ctx, opts.Narration); err != nil {
		return err
	}
	if err := r.session.Goto(ctx, url); err != nil {
		return pipeline.WrapDriverFailure("navigate", url, "", err)
	}
	r.append(timeline.Event{
		Kind:       timeline.EventAction,
		ActionKind: timeline.ActionNavigate,
		Selector:   url,
	})
	return nil
}

// Click, Fill, Hover, Press, and DblClick each emit narration first (if
// requested), move the cursor to the target's resolved centre, perform the
// action, and emit an Action event carrying the resolved bounding box.
func (r *Runner) Click(ctx context.Context, selector string, opts ActionOptions) error {
	return r.doAction(ctx, timeline.ActionClick, selector, opts, func() error {
		return r.session.Click(ctx, selector)
	})
}

func (r *Runner) Hover(ctx context.Context, selector string, opts ActionOptions) error {
	return r.doAction(ctx, timeline.ActionHover, selector, opts, func() error {
		return r.session.Hover(ctx, selector)
	})
}

func (r *Runner) Press(ctx context.Context, selector, key string, opts ActionOptions) error {
	return r.doAction(ctx, timeline.ActionPress, selector, opts, func() error {
		return r.session.Press(ctx, selector, key)
	})
}

func (r *Runner) DblClick(ctx context.Context, selector string, opts ActionOptions) error {
	return r.doAction(ctx, timeline.ActionDblClick, selector, opts, func() error {
		return r.session.DblClick(ctx, selector)
	})
}

// Fill types opts.Value one character at a time with a fixed 30ms
// per-character delay. Session.Fill replaces the field's contents, so each
// step fills the value typed so far.
func (r *Runner) Fill(ctx context.Context, selector string, opts ActionOptions) error {
	return r.doAction(ctx, timeline.ActionFill, selector, opts, func() error {
		typed := ""
		for _, ch := range opts.Value {
			typed += string(ch)
			if err := r.session.Fill(ctx, selector, typed); err != nil {
				return err
			}
			time.Sleep(fillCharDelayMs * time.Millisecond)
		}
		return nil
	})
}

func (r *Runner) doAction(ctx context.Context, kind timeline.ActionKind, selector string, opts ActionOptions, perform func() error) error {
	if err := r.ResolvePendingTransition(ctx); err != nil {
		return err
	}
	if err := r.emitNarrationIfPresent(ctx, opts.Narration); err != nil {
		return err
	}

	box, found, err := r.session.BoundingBox(ctx, selector)
	if err != nil {
		return pipeline.WrapDriverFailure(string(kind), "", selector, err)
	}

	if found {
		cx, cy := box.X+box.W/2, box.Y+box.H/2
		r.moveCursor(cx, cy)
	}

	if err := perform(); err != nil {
		return pipeline.WrapDriverFailure(string(kind), "", selector, err)
	}

	var bb *timeline.BoundingBox
	if found {
		bb = &timeline.BoundingBox{X: box.X, Y: box.Y, W: box.W, H: box.H}
	}

	r.append(timeline.Event{
		Kind:        timeline.EventAction,
		ActionKind:  kind,
		Selector:    selector,
		Value:       opts.Value,
		BoundingBox: bb,
	})
	return nil
}

// moveCursor records a CursorTarget from the last position to (x,y), with
// moveDurationMs a monotone function of Euclidean distance clamped to
// [200,800]ms, and updates the remembered cursor position.
func (r *Runner) moveCursor(x, y int) {
	dx := float64(x - r.cursorX)
	dy := float64(y - r.cursorY)
	dist := math.Sqrt(dx*dx + dy*dy)

	// 1px -> ~200ms, long cross-viewport moves saturate at 800ms.
	duration := minCursorMoveDurationMs + dist
	if duration > maxCursorMoveDurationMs {
		duration = maxCursorMoveDurationMs
	}
	if duration < minCursorMoveDurationMs {
		duration = minCursorMoveDurationMs
	}

	r.append(timeline.Event{
		Kind:           timeline.EventCursorTarget,
		FromX:          r.cursorX,
		FromY:          r.cursorY,
		ToX:            x,
		ToY:            y,
		MoveDurationMs: int64(duration),
		Easing:         "bezier",
	})

	r.cursorX, r.cursorY = x, y
}

// Wait emits a Wait{reason=pacing} event; the clock advances via real
// capture if running, or, if paused, via AddHold on the tail manifest file
// without any real waiting.
func (r *Runner) Wait(ctx context.Context, ms int64) error {
	r.append(timeline.Event{
		Kind:           timeline.EventWait,
		WaitDurationMs: ms,
		Reason:         timeline.WaitPacing,
	})

	if r.clock.IsPaused() {
		holdFrames := int(math.Ceil(float64(ms) * float64(r.clock.FPS()) / 1000.0))
		tail := r.lastManifestFile()
		r.clock.AddHold(tail, holdFrames)
		return nil
	}
	return r.clock.WaitForDuration(ctx, ms)
}

func (r *Runner) lastManifestFile() string {
	m := r.clock.Manifest()
	if len(m) == 0 {
		return ""
	}
	return m[len(m)-1].File
}

// Narrate pauses capture, pops the next pre-generated narration segment,
// takes one explicit frame, holds for its audio duration, emits a
// Narration event referencing the segment's audio file reference (only
// the first segment in the whole recording carries one), and resumes
// capture.
func (r *Runner) Narrate(ctx context.Context, text string) error {
	if r.narrationIdx >= len(r.narrationQueue) {
		return pipeline.NewError(pipeline.NarrationMismatch, "narrate: no pre-generated segment available for %q", text)
	}
	seg := r.narrationQueue[r.narrationIdx]
	r.narrationIdx++

	if err := r.clock.PauseCapture(); err != nil {
		return pipeline.WrapDriverFailure("narrate", "", "", err)
	}

	file, err := r.clock.CaptureOneFrame(ctx, r.session)
	if err != nil {
		return pipeline.WrapDriverFailure("narrate", "", "", err)
	}

	holdFrames := int(math.Ceil(float64(seg.DurationMs) * float64(r.clock.FPS()) / 1000.0))
	r.clock.AddHold(file, holdFrames)

	duration := seg.DurationMs
	r.append(timeline.Event{
		Kind:            timeline.EventNarration,
		Text:            text,
		AudioDurationMs: &duration,
		AudioFile:       seg.AudioFile,
	})

	r.clock.ResumeCapture()
	return nil
}

// Transition pauses capture and records a TransitionMarker referencing the
// current tail manifest entry. The next resolving action is responsible
// for capturing the explicit "after" frame once the transition duration
// has been accounted for by the time remapper; here the runner only
// records the marker and flags that a transition is pending.
//
// Calling Transition twice without an intervening action replaces the
// previous marker with a warning. A transition left pending at the end of
// the scenario is discarded with a warning by Finalize.
func (r *Runner) Transition(ctx context.Context, opts TransitionOptions, log Warner) error {
	if opts.DurationMs <= 0 {
		return pipeline.NewError(pipeline.InvalidArgument, "transition: duration must be > 0, got %d", opts.DurationMs)
	}

	if err := r.clock.PauseCapture(); err != nil {
		return pipeline.WrapDriverFailure("transition", "", "", err)
	}

	manifestLen := len(r.clock.Manifest())
	if manifestLen == 0 {
		return pipeline.NewError(pipeline.InvalidArgument, "transition: no frames captured yet")
	}

	durationFrames := int(math.Ceil(float64(opts.DurationMs) * float64(r.clock.FPS()) / 1000.0))
	if durationFrames < 1 {
		durationFrames = 1
	}

	marker := timeline.TransitionMarker{
		AfterEntryIndex: manifestLen - 1,
		Kind:            opts.Kind,
		DurationFrames:  durationFrames,
		ConsumedFrames:  1,
	}

	if r.transitionPending != nil {
		if log != nil {
			log.Warnf("transition: replacing pending transition at entry %d with new one at entry %d", r.transitionPending.AfterEntryIndex, marker.AfterEntryIndex)
		}
		r.transitions = r.transitions[:len(r.transitions)-1]
	}

	r.transitions = append(r.transitions, marker)
	r.transitionPending = &r.transitions[len(r.transitions)-1]

	return nil
}

// ResolvePendingTransition is called by the next resolving action (per
// §4.3: "the next resolving action captures an explicit after frame, then
// resumes capture"). It captures the after frame and clears the pending
// flag. With no transition pending it only resumes capture, which is how
// the action after a slide resumes the capture Scene left paused.
func (r *Runner) ResolvePendingTransition(ctx context.Context) error {
	if r.transitionPending == nil {
		r.clock.ResumeCapture()
		return nil
	}
	if _, err := r.clock.CaptureOneFrame(ctx, r.session); err != nil {
		return pipeline.WrapDriverFailure("transition-resolve", "", "", err)
	}
	r.transitionPending = nil
	r.clock.ResumeCapture()
	return nil
}

// Finalize discards a transition left pending at end-of-scenario with a
// warning, per the open-question decision recorded in DESIGN.md.
func (r *Runner) Finalize(log Warner) {
	if r.transitionPending != nil {
		if log != nil {
			log.Warnf("transition: discarding pending transition at entry %d left open at end of scenario", r.transitionPending.AfterEntryIndex)
		}
		for i := range r.transitions {
			if &r.transitions[i] == r.transitionPending {
				r.transitions = append(r.transitions[:i], r.transitions[i+1:]...)
				break
			}
		}
		r.transitionPending = nil
	}
}

// Warner is the minimal logging surface Transition/Finalize need.
type Warner interface {
	Warnf(format string, args ...interface{})
}
