package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoreel/internal/clock"
	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/timeline"
)

type nopWarner struct{ warnings []string }

func (w *nopWarner) Warnf(format string, args ...interface{}) {
	w.warnings = append(w.warnings, format)
}

func newTestRunner(t *testing.T, narration []NarrationSegment) *Runner {
	c := clock.New(30, t.TempDir(), nil)
	sess := driver.StubSession{}
	return New(c, sess, nil, 1920, 1080, narration)
}

func TestNew_SeedsCursorAtViewportCenter(t *testing.T) {
	r := newTestRunner(t, nil)
	assert.Equal(t, 960, r.cursorX)
	assert.Equal(t, 540, r.cursorY)
}

func TestClick_EmitsCursorTargetThenActionEvent(t *testing.T) {
	r := newTestRunner(t, nil)
	err := r.Click(context.Background(), "#button", ActionOptions{})
	require.NoError(t, err)

	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, timeline.EventCursorTarget, events[0].Kind)
	assert.Equal(t, timeline.EventAction, events[1].Kind)
	assert.Equal(t, timeline.ActionClick, events[1].ActionKind)
}

func TestClick_EmitsNarrationEventFirstWhenRequested(t *testing.T) {
	r := newTestRunner(t, []NarrationSegment{{Text: "click this", DurationMs: 500}})
	err := r.Click(context.Background(), "#button", ActionOptions{Narration: "click this"})
	require.NoError(t, err)

	events := r.Events()
	require.GreaterOrEqual(t, len(events), 1)
	assert.Equal(t, timeline.EventNarration, events[0].Kind)
}

func TestNarrate_FailsWithNarrationMismatchWhenQueueExhausted(t *testing.T) {
	r := newTestRunner(t, nil)
	err := r.Narrate(context.Background(), "unexpected line")
	require.Error(t, err)
}

func TestNarrate_OnlyFirstSegmentCarriesAudioFile(t *testing.T) {
	r := newTestRunner(t, []NarrationSegment{
		{Text: "one", DurationMs: 500, AudioFile: "narration-full.mp3"},
		{Text: "two", DurationMs: 500, AudioFile: ""},
	})

	require.NoError(t, r.Narrate(context.Background(), "one"))
	require.NoError(t, r.Narrate(context.Background(), "two"))

	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "narration-full.mp3", events[0].AudioFile)
	assert.Equal(t, "", events[1].AudioFile)
}

func TestScene_WithSlideHoldsThenLeavesCapturePaused(t *testing.T) {
	r := newTestRunner(t, nil)
	slide := &timeline.Slide{DurationMs: 1000}

	err := r.Scene(context.Background(), "Intro", SceneOptions{Slide: slide})
	require.NoError(t, err)

	assert.True(t, r.clock.IsPaused())
	manifest := r.clock.Manifest()
	require.Len(t, manifest, 1)
	assert.Equal(t, timeline.EntryHold, manifest[0].Kind)
	assert.Equal(t, 31, manifest[0].Count) // 1 explicit frame + ceil(1000*30/1000) held frames merged
}

func TestScene_WithoutSlideDoesNotTouchCapture(t *testing.T) {
	r := newTestRunner(t, nil)
	err := r.Scene(context.Background(), "Plain scene", SceneOptions{})
	require.NoError(t, err)
	assert.False(t, r.clock.IsPaused())
	assert.Empty(t, r.clock.Manifest())
}

func TestScene_WithSlideNarrateConsumesSegmentAndExtendsHold(t *testing.T) {
	r := newTestRunner(t, []NarrationSegment{{Text: "hello", DurationMs: 2000}})
	slide := &timeline.Slide{DurationMs: 1000, Narrate: "hello"}

	err := r.Scene(context.Background(), "Intro", SceneOptions{Slide: slide})
	require.NoError(t, err)

	events := r.Events()
	require.Len(t, events, 2) // scene + narration
	assert.Equal(t, timeline.EventNarration, events[1].Kind)

	manifest := r.clock.Manifest()
	require.Len(t, manifest, 1)
	// segment duration (2000ms) exceeds slide duration (1000ms), so the
	// hold covers the full 2000ms at 30fps.
	assert.Equal(t, 61, manifest[0].Count) // 1 explicit frame + ceil(2000*30/1000)
	assert.Equal(t, []int{0}, r.SlideEntryIndices())
}

func TestScene_WithSlideNarrateFailsWhenQueueExhausted(t *testing.T) {
	r := newTestRunner(t, nil)
	slide := &timeline.Slide{DurationMs: 1000, Narrate: "hello"}
	err := r.Scene(context.Background(), "Intro", SceneOptions{Slide: slide})
	require.Error(t, err)
}

func TestTransition_RejectsNonPositiveDuration(t *testing.T) {
	r := newTestRunner(t, nil)
	_, _ = r.clock.CaptureOneFrame(context.Background(), driver.StubSession{})

	err := r.Transition(context.Background(), TransitionOptions{Kind: timeline.TransitionFade, DurationMs: 0}, nil)
	require.Error(t, err)
}

func TestTransition_TwiceWithoutActionWarnsAndReplaces(t *testing.T) {
	r := newTestRunner(t, nil)
	_, _ = r.clock.CaptureOneFrame(context.Background(), driver.StubSession{})

	require.NoError(t, r.Transition(context.Background(), TransitionOptions{Kind: timeline.TransitionFade, DurationMs: 300}, nil))

	w := &nopWarner{}
	require.NoError(t, r.Transition(context.Background(), TransitionOptions{Kind: timeline.TransitionWipe, DurationMs: 300}, w))

	assert.Len(t, w.warnings, 1)
	assert.Len(t, r.Transitions(), 1)
	assert.Equal(t, timeline.TransitionWipe, r.Transitions()[0].Kind)
}

func TestFinalize_DiscardsPendingTransitionWithWarning(t *testing.T) {
	r := newTestRunner(t, nil)
	_, _ = r.clock.CaptureOneFrame(context.Background(), driver.StubSession{})
	require.NoError(t, r.Transition(context.Background(), TransitionOptions{Kind: timeline.TransitionFade, DurationMs: 300}, nil))

	w := &nopWarner{}
	r.Finalize(w)

	assert.Len(t, w.warnings, 1)
	assert.Empty(t, r.Transitions())
}

func TestDoAction_ResolvesPendingTransitionFirst(t *testing.T) {
	r := newTestRunner(t, nil)
	_, _ = r.clock.CaptureOneFrame(context.Background(), driver.StubSession{})
	require.NoError(t, r.Transition(context.Background(), TransitionOptions{Kind: timeline.TransitionFade, DurationMs: 300}, nil))

	require.NoError(t, r.Click(context.Background(), "#next", ActionOptions{}))

	assert.Nil(t, r.transitionPending)
	assert.False(t, r.clock.IsPaused())
}
