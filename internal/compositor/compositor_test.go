package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoreel/internal/timeline"
)

func solidImage(w, h int, col color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, col)
		}
	}
	return img
}

func TestRenderTransition_AllKindsProduceNonEmptyFrame(t *testing.T) {
	before := solidImage(64, 48, color.RGBA{255, 0, 0, 255})
	after := solidImage(64, 48, color.RGBA{0, 0, 255, 255})

	kinds := []timeline.TransitionKind{
		timeline.TransitionFade, timeline.TransitionWipe, timeline.TransitionSlideUp,
		timeline.TransitionSlideLeft, timeline.TransitionZoom, timeline.TransitionDoorway,
		timeline.TransitionSwap, timeline.TransitionCube,
	}

	for _, k := range kinds {
		dst := image.NewRGBA(image.Rect(0, 0, 64, 48))
		renderTransition(dst, before, after, k, 0.5)
		assert.NotNil(t, dst.Pix, "kind=%s", k)
	}
}

func TestRenderTransition_FadeAtZeroIsBefore(t *testing.T) {
	before := solidImage(10, 10, color.RGBA{255, 0, 0, 255})
	after := solidImage(10, 10, color.RGBA{0, 0, 255, 255})
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))

	renderTransition(dst, before, after, timeline.TransitionFade, 0.0)

	r, g, b, _ := dst.At(5, 5).RGBA()
	assert.Greater(t, r, g)
	assert.Greater(t, r, b)
}

func TestCursorPosition_InterpolatesWithinWindow(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventCursorTarget, TimestampMs: 1000, FromX: 0, FromY: 0, ToX: 100, ToY: 0, MoveDurationMs: 400},
	}

	x, y, ok := CursorPosition(events, 1000, false)
	require.True(t, ok)
	assert.InDelta(t, 0, x, 0.01)
	assert.InDelta(t, 0, y, 0.01)

	x, _, ok = CursorPosition(events, 1400, false)
	require.True(t, ok)
	assert.InDelta(t, 100, x, 0.01)

	_, _, ok = CursorPosition(events, 2000, false)
	assert.False(t, ok, "outside the move window")
}

func TestCursorPosition_SuppressedDuringSlideOrTransition(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventCursorTarget, TimestampMs: 1000, FromX: 0, ToX: 100, MoveDurationMs: 400},
	}
	_, _, ok := CursorPosition(events, 1100, true)
	assert.False(t, ok)
}

func TestFramePool_ReusesBufferOfSameSize(t *testing.T) {
	pool := NewFramePool()
	rect := image.Rect(0, 0, 1280, 720)

	first := pool.Get(rect)
	pool.Put(first)
	second := pool.Get(rect)

	assert.Same(t, first, second)
}

func TestMostRecentNavigate_ReadsSelectorFieldOfNavigateAction(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventAction, ActionKind: timeline.ActionNavigate, TimestampMs: 500, Selector: "https://example.com/pricing?ref=demo"},
	}
	c := New(events, Options{})

	assert.Equal(t, "example.com/pricing", c.mostRecentNavigate(1000))
}

func TestMostRecentNavigate_IgnoresNavigateAfterOutputTime(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventAction, ActionKind: timeline.ActionNavigate, TimestampMs: 2000, Selector: "https://example.com/later"},
	}
	c := New(events, Options{})

	assert.Equal(t, "", c.mostRecentNavigate(1000))
}

func TestDrawActionEffects_NavigateLabelUsesSelectorNotValue(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventAction, ActionKind: timeline.ActionNavigate, TimestampMs: 0, Selector: "https://example.com/dashboard", Value: ""},
	}
	c := New(events, Options{})
	dst := image.NewRGBA(image.Rect(0, 0, 400, 200))

	c.drawActionEffects(dst, 100)

	found := false
	for _, px := range dst.Pix {
		if px != 0 {
			found = true
			break
		}
	}
	assert.True(t, found, "expected the navigate label to paint something onto the frame")
}

func TestEaseInOutCubic_ClampsAndIsMonotonic(t *testing.T) {
	assert.Equal(t, 0.0, easeInOutCubic(-1))
	assert.Equal(t, 1.0, easeInOutCubic(2))
	assert.InDelta(t, 0.5, easeInOutCubic(0.5), 0.001)

	prev := 0.0
	for x := 0.0; x <= 1.0; x += 0.1 {
		v := easeInOutCubic(x)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}
