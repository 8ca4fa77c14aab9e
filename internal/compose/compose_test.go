package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoreel/internal/config"
	"github.com/ivlev/demoreel/internal/narration"
	"github.com/ivlev/demoreel/internal/timeline"
)

func TestCountNarrationEvents_CountsOnlyNarrationKind(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventScene},
		{Kind: timeline.EventNarration},
		{Kind: timeline.EventAction},
		{Kind: timeline.EventNarration},
	}
	assert.Equal(t, 2, countNarrationEvents(events))
}

func TestSegmentsFromManifest_OnlyFirstSegmentCarriesAudioFile(t *testing.T) {
	m := &narration.Manifest{
		AudioFile: "narration-full.mp3",
		Segments: []narration.Segment{
			{Text: "one", DurationMs: 500},
			{Text: "two", DurationMs: 750},
		},
	}

	segs := segmentsFromManifest(m)
	require.Len(t, segs, 2)
	assert.Equal(t, "narration-full.mp3", segs[0].AudioFile)
	assert.Equal(t, "", segs[1].AudioFile)
	assert.Equal(t, int64(750), segs[1].DurationMs)
}

func TestSegmentsFromManifest_EmptyManifestYieldsNoSegments(t *testing.T) {
	m := &narration.Manifest{}
	assert.Empty(t, segmentsFromManifest(m))
}

func TestBuildTimeline_CarriesRecordedEventsAndManifest(t *testing.T) {
	cfg := config.Config{ScenarioFile: "demo.yaml", Width: 1280, Height: 720, FPS: 24}
	rec := &recordResult{
		events:      []timeline.Event{{Kind: timeline.EventScene}},
		manifest:    []timeline.ManifestEntry{{Kind: timeline.EntryFrame, File: "f0.png", Count: 1}},
		transitions: []timeline.TransitionMarker{{AfterEntryIndex: 0, Kind: timeline.TransitionFade, DurationFrames: 10}},
	}

	tl := buildTimeline(cfg, rec)

	assert.Equal(t, timeline.SchemaVersion, tl.Version)
	assert.Equal(t, "demo.yaml", tl.Metadata.ScenarioFile)
	assert.Equal(t, 1280, tl.Metadata.Viewport.Width)
	assert.Equal(t, 720, tl.Metadata.Viewport.Height)
	assert.Equal(t, 24, tl.Metadata.FPS)
	assert.Equal(t, rec.manifest, tl.Metadata.FrameManifest)
	assert.Equal(t, rec.transitions, tl.Metadata.TransitionMarkers)
	assert.Equal(t, rec.events, tl.Events)
}

func TestSlideWindows_PairsSceneEventsWithTheirHoldEntryInOrder(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventScene, TimestampMs: 0, Slide: &timeline.Slide{DurationMs: 2000, DeadAfterMs: 100}},
		{Kind: timeline.EventAction, TimestampMs: 500},
		{Kind: timeline.EventScene, TimestampMs: 5000, Slide: &timeline.Slide{DurationMs: 3000}},
	}
	manifest := []timeline.ManifestEntry{
		{Kind: timeline.EntryHold, File: "a.png", Count: 60}, // 2s @ 30fps
		{Kind: timeline.EntryHold, File: "b.png", Count: 90}, // 3s @ 30fps
	}

	windows := slideWindows(events, []int{0, 1}, manifest, 30)

	require.Len(t, windows, 2)
	assert.Equal(t, int64(0), windows[0].SceneTimestampMs)
	assert.Equal(t, int64(2000), windows[0].DurationMs)
	assert.Equal(t, int64(100), windows[0].DeadAfterMs)
	assert.Equal(t, int64(5000), windows[1].SceneTimestampMs)
	assert.Equal(t, int64(3000), windows[1].DurationMs)
}

func TestSlideWindows_SkipsOutOfRangeEntryIndices(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventScene, TimestampMs: 0, Slide: &timeline.Slide{DurationMs: 1000}},
	}
	manifest := []timeline.ManifestEntry{{Kind: timeline.EntryHold, File: "a.png", Count: 30}}

	windows := slideWindows(events, []int{0, 7}, manifest, 30)
	assert.Len(t, windows, 1)
}

func TestSlideWindows_NoSlidesYieldsNoWindows(t *testing.T) {
	windows := slideWindows(nil, nil, nil, 30)
	assert.Empty(t, windows)
}

func TestFirstNarrationTimestampMs_ReturnsEarliestNarrationEvent(t *testing.T) {
	events := []timeline.Event{
		{Kind: timeline.EventScene, TimestampMs: 0},
		{Kind: timeline.EventAction, TimestampMs: 1200},
		{Kind: timeline.EventNarration, TimestampMs: 1500},
		{Kind: timeline.EventNarration, TimestampMs: 4000},
	}
	assert.Equal(t, int64(1500), firstNarrationTimestampMs(events))
}

func TestFirstNarrationTimestampMs_NoNarrationYieldsZero(t *testing.T) {
	events := []timeline.Event{{Kind: timeline.EventScene, TimestampMs: 900}}
	assert.Equal(t, int64(0), firstNarrationTimestampMs(events))
}
