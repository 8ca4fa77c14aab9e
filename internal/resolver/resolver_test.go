package resolver

import (
	"context"
	"testing"

	"github.com/ivlev/demoreel/internal/timeline"
	"github.com/stretchr/testify/require"
)

func manifestABC() []timeline.ManifestEntry {
	return []timeline.ManifestEntry{
		{Kind: timeline.EntryFrame, File: "a.jpg"},
		{Kind: timeline.EntryFrame, File: "b.jpg"},
		{Kind: timeline.EntryFrame, File: "c.jpg"},
	}
}

// S1 — one-scene, two-click: no transitions, expect totalOutputFrames=3,
// resolve(1) = Source(b).
func TestResolve_S1_NoTransitions(t *testing.T) {
	manifest := manifestABC()
	require.Equal(t, int64(3), timeline.TotalOutputFrames(manifest, nil))

	ref, err := Resolve(1, manifest, nil)
	require.NoError(t, err)
	require.Equal(t, KindSource, ref.Kind)
	require.Equal(t, "b.jpg", ref.SourceFile)
}

// S2 — one transition: [{after=0, kind=fade, duration=3, consumed=1}].
func TestResolve_S2_OneTransition(t *testing.T) {
	manifest := manifestABC()
	transitions := []timeline.TransitionMarker{
		{AfterEntryIndex: 0, Kind: timeline.TransitionFade, DurationFrames: 3, ConsumedFrames: 1},
	}
	require.Equal(t, int64(5), timeline.TotalOutputFrames(manifest, transitions))

	ref0, err := Resolve(0, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindSource, ref0.Kind)
	require.Equal(t, "a.jpg", ref0.SourceFile)

	ref1, err := Resolve(1, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindTransition, ref1.Kind)
	require.InDelta(t, 1.0/3.0, ref1.Progress, 1e-9)
	require.Equal(t, "a.jpg", ref1.BeforeFile)
	require.Equal(t, "b.jpg", ref1.AfterFile)

	ref2, err := Resolve(2, manifest, transitions)
	require.NoError(t, err)
	require.InDelta(t, 2.0/3.0, ref2.Progress, 1e-9)

	ref3, err := Resolve(3, manifest, transitions)
	require.NoError(t, err)
	require.InDelta(t, 1.0, ref3.Progress, 1e-9)

	ref4, err := Resolve(4, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindSource, ref4.Kind)
	require.Equal(t, "c.jpg", ref4.SourceFile)
}

// S3 — hold + transition: [Frame(a), Hold(b,3), Frame(c)], [{after=1, duration=2}].
func TestResolve_S3_HoldAndTransition(t *testing.T) {
	manifest := []timeline.ManifestEntry{
		{Kind: timeline.EntryFrame, File: "a.jpg"},
		{Kind: timeline.EntryHold, File: "b.jpg", Count: 3},
		{Kind: timeline.EntryFrame, File: "c.jpg"},
	}
	transitions := []timeline.TransitionMarker{
		{AfterEntryIndex: 1, Kind: timeline.TransitionFade, DurationFrames: 2, ConsumedFrames: 1},
	}

	ref3, err := Resolve(3, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindSource, ref3.Kind)
	require.Equal(t, "b.jpg", ref3.SourceFile)

	ref4, err := Resolve(4, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindTransition, ref4.Kind)

	ref5, err := Resolve(5, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindTransition, ref5.Kind)
}

// Invariant 10: a transition with durationFrames=1 occupies exactly one
// output frame with progress=1.0.
func TestResolve_SingleFrameTransitionHasFullProgress(t *testing.T) {
	manifest := manifestABC()
	transitions := []timeline.TransitionMarker{
		{AfterEntryIndex: 0, Kind: timeline.TransitionFade, DurationFrames: 1, ConsumedFrames: 1},
	}
	ref, err := Resolve(1, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindTransition, ref.Kind)
	require.Equal(t, 1.0, ref.Progress)

	ref2, err := Resolve(2, manifest, transitions)
	require.NoError(t, err)
	require.Equal(t, KindSource, ref2.Kind)
	require.Equal(t, "c.jpg", ref2.SourceFile)
}

// Invariant 9: the last output frame resolves to the manifest's last file
// when no transition spans it.
func TestResolve_LastFrameIsLastFile(t *testing.T) {
	manifest := manifestABC()
	total := timeline.TotalOutputFrames(manifest, nil)
	ref, err := Resolve(total-1, manifest, nil)
	require.NoError(t, err)
	require.Equal(t, "c.jpg", ref.SourceFile)
}

func TestResolveAll_MatchesSequentialResolve(t *testing.T) {
	manifest := manifestABC()
	transitions := []timeline.TransitionMarker{
		{AfterEntryIndex: 0, Kind: timeline.TransitionFade, DurationFrames: 3, ConsumedFrames: 1},
	}
	total := timeline.TotalOutputFrames(manifest, transitions)

	refs, err := ResolveAll(context.Background(), total, manifest, transitions, 4)
	require.NoError(t, err)
	require.Len(t, refs, int(total))

	for f := int64(0); f < total; f++ {
		want, err := Resolve(f, manifest, transitions)
		require.NoError(t, err)
		require.Equal(t, want, refs[f])
	}
}
