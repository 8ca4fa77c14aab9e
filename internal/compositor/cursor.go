package compositor

import "github.com/ivlev/demoreel/internal/timeline"

// easeInOutCubic is the smooth cubic in-out easing used for both cursor
// motion and transition progress, adapted from the teacher's renderer
// keyframe interpolator.
func easeInOutCubic(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - cube(-2*t+2)/2
}

func cube(x float64) float64 { return x * x * x }

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// CursorPosition reports where the cursor should be drawn at outputTimeMs,
// or ok=false when no CursorTarget event is active (outside its window, or
// suppressed during a slide/transition).
func CursorPosition(events []timeline.Event, outputTimeMs int64, suppressed bool) (x, y float64, ok bool) {
	if suppressed {
		return 0, 0, false
	}

	var active *timeline.Event
	for i := range events {
		e := events[i]
		if e.Kind != timeline.EventCursorTarget {
			continue
		}
		start := e.TimestampMs
		end := start + e.MoveDurationMs
		if outputTimeMs >= start && outputTimeMs <= end {
			active = &events[i]
		}
	}
	if active == nil {
		return 0, 0, false
	}

	t := float64(outputTimeMs-active.TimestampMs) / float64(active.MoveDurationMs)
	t = easeInOutCubic(t)

	return lerp(float64(active.FromX), float64(active.ToX), t), lerp(float64(active.FromY), float64(active.ToY), t), true
}
