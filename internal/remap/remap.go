// Package remap translates between scenario source time, captured virtual
// time, and final output time — the three time bases that every stage of
// the pipeline must agree on.
package remap

import "github.com/ivlev/demoreel/internal/timeline"

// SlideWindow describes one inserted slide in source-time order: the scene
// timestamp it freezes on, the slide's resolved duration, and the dead
// zone immediately after it during which captured frames are stale.
type SlideWindow struct {
	SceneTimestampMs int64
	DurationMs       int64
	DeadAfterMs      int64
}

// ExpandedFrameCount re-exports the manifest-level helper for callers that
// only import remap.
func ExpandedFrameCount(manifest []timeline.ManifestEntry) int64 {
	return timeline.ExpandedFrameCount(manifest)
}

// TotalOutputFrames re-exports the manifest-level helper for callers that
// only import remap.
func TotalOutputFrames(manifest []timeline.ManifestEntry, transitions []timeline.TransitionMarker) int64 {
	return timeline.TotalOutputFrames(manifest, transitions)
}

// SourceTimeMs maps an output-time instant back to scenario source time,
// accounting for every slide inserted before it.
//
// For each slide in source-time order, output time is shifted forward by
// the cumulative duration of slides already passed:
//   - before the slide's insertion point: subtract the slides seen so far;
//   - inside the slide's own output window: freeze at the slide's source
//     timestamp;
//   - after the slide: add its duration to the accumulated offset and
//     keep walking.
//
// After slides are accounted for, the result is clamped out of any dead
// zone it may have landed in.
func SourceTimeMs(outputMs int64, slides []SlideWindow) int64 {
	var accumulated int64
	result := outputMs

	for _, s := range slides {
		slideStart := s.SceneTimestampMs + accumulated
		slideEnd := slideStart + s.DurationMs

		if outputMs < slideStart {
			result = outputMs - accumulated
			return clampDeadZone(result, slides)
		}
		if outputMs < slideEnd {
			return s.SceneTimestampMs
		}
		accumulated += s.DurationMs
	}

	result = outputMs - accumulated
	return clampDeadZone(result, slides)
}

func clampDeadZone(sourceMs int64, slides []SlideWindow) int64 {
	for _, s := range slides {
		if s.DeadAfterMs <= 0 {
			continue
		}
		zoneStart := s.SceneTimestampMs
		zoneEnd := s.SceneTimestampMs + s.DeadAfterMs
		if sourceMs >= zoneStart && sourceMs < zoneEnd {
			return zoneEnd
		}
	}
	return sourceMs
}

// RemapEvents returns a new event slice with every timestamp shifted
// forward by the sum of all slide durations whose scene timestamp is at or
// before the event's own timestamp. Inputs are never mutated.
func RemapEvents(events []timeline.Event, slides []SlideWindow) []timeline.Event {
	out := make([]timeline.Event, len(events))
	for i, e := range events {
		var shift int64
		for _, s := range slides {
			if s.SceneTimestampMs <= e.TimestampMs {
				shift += s.DurationMs
			}
		}
		e.TimestampMs += shift
		out[i] = e
	}
	return out
}
