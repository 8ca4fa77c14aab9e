// Package tts defines the TTS provider external collaborator contract
// (spec.md §6) and its backends: a cloud REST API, an alternative cloud
// REST API, and a local offline bridge.
package tts

import "context"

// SynthesizeOptions vary by backend: a voice name, and free-form style
// instructions some providers accept.
type SynthesizeOptions struct {
	Voice string
	Style string
}

// Provider synthesizes one audio file from text and reports its duration
// when the backend knows it; a durationMs of 0 means unknown (the cloud
// backend always returns 0 and leaves measuring to the duration probe).
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (audioFile string, durationMs int64, err error)
}

// SegmentResult is one segment's exact boundary, as reported by a
// SegmentSynthesizer that placed its own gaps instead of requiring
// silence detection.
type SegmentResult struct {
	Index      int
	Text       string
	StartMs    int64
	EndMs      int64
	DurationMs int64
}

// SegmentSynthesizer is an optional capability: a backend that synthesizes
// each narration segment separately and reports exact boundaries, so the
// narration preprocessor can skip its silence-detection alignment step
// entirely for this backend.
type SegmentSynthesizer interface {
	Provider
	SynthesizeSegments(ctx context.Context, texts []string, opts SynthesizeOptions) (audioFile string, segments []SegmentResult, err error)
}
