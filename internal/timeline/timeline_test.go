package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func manifestABC() []ManifestEntry {
	return []ManifestEntry{
		{Kind: EntryFrame, File: "a.jpg"},
		{Kind: EntryFrame, File: "b.jpg"},
		{Kind: EntryFrame, File: "c.jpg"},
	}
}

func TestExpandedFrameCount(t *testing.T) {
	require.Equal(t, int64(3), ExpandedFrameCount(manifestABC()))

	withHold := []ManifestEntry{
		{Kind: EntryFrame, File: "a.jpg"},
		{Kind: EntryHold, File: "b.jpg", Count: 3},
		{Kind: EntryFrame, File: "c.jpg"},
	}
	require.Equal(t, int64(5), ExpandedFrameCount(withHold))
}

func TestEntryToFirstExpandedFrame(t *testing.T) {
	withHold := []ManifestEntry{
		{Kind: EntryFrame, File: "a.jpg"},
		{Kind: EntryHold, File: "b.jpg", Count: 3},
		{Kind: EntryFrame, File: "c.jpg"},
	}
	require.Equal(t, ExpandedFrame(0), EntryToFirstExpandedFrame(withHold, 0))
	require.Equal(t, ExpandedFrame(1), EntryToFirstExpandedFrame(withHold, 1))
	require.Equal(t, ExpandedFrame(4), EntryToFirstExpandedFrame(withHold, 2))
	require.Equal(t, ExpandedFrame(3), LastExpandedFrameOfEntry(withHold, 1))
}

// S2 from the spec: totalOutputFrames = expandedFrameCount + Sum(duration-consumed).
func TestTotalOutputFrames(t *testing.T) {
	transitions := []TransitionMarker{
		{AfterEntryIndex: 0, Kind: TransitionFade, DurationFrames: 3, ConsumedFrames: 1},
	}
	require.Equal(t, int64(5), TotalOutputFrames(manifestABC(), transitions))
}

func TestValidate_RejectsBadVersion(t *testing.T) {
	tl := &Timeline{Version: 99, Metadata: Metadata{FrameManifest: manifestABC()}}
	require.Error(t, Validate(tl))
}

func TestValidate_RejectsEmptyManifest(t *testing.T) {
	tl := &Timeline{Version: SchemaVersion, Metadata: Metadata{FrameManifest: nil}}
	require.Error(t, Validate(tl))
}

func TestValidate_RejectsNonMonotonicEvents(t *testing.T) {
	tl := &Timeline{
		Version: SchemaVersion,
		Metadata: Metadata{FrameManifest: manifestABC()},
		Events: []Event{
			{ID: "ev-001", Kind: EventScene, Title: "Intro", TimestampMs: 100},
			{ID: "ev-002", Kind: EventScene, Title: "Later", TimestampMs: 50},
		},
	}
	require.Error(t, Validate(tl))
}

func TestValidate_RejectsUnknownActionKind(t *testing.T) {
	tl := &Timeline{
		Version:  SchemaVersion,
		Metadata: Metadata{FrameManifest: manifestABC()},
		Events: []Event{
			{ID: "ev-001", Kind: EventAction, ActionKind: "teleport", TimestampMs: 0},
		},
	}
	require.Error(t, Validate(tl))
}

func TestValidate_RejectsMalformedHexColor(t *testing.T) {
	tl := &Timeline{
		Version:  SchemaVersion,
		Metadata: Metadata{FrameManifest: manifestABC()},
		Events: []Event{
			{ID: "ev-001", Kind: EventScene, Title: "Intro", TimestampMs: 0, Slide: &Slide{BrandColor: "blue"}},
		},
	}
	require.Error(t, Validate(tl))
}

func TestValidate_RejectsZeroDurationHold(t *testing.T) {
	tl := &Timeline{
		Version: SchemaVersion,
		Metadata: Metadata{FrameManifest: []ManifestEntry{
			{Kind: EntryHold, File: "a.jpg", Count: 0},
		}},
	}
	require.Error(t, Validate(tl))
}

func TestValidate_RejectsBadTransitionRange(t *testing.T) {
	tl := &Timeline{
		Version:  SchemaVersion,
		Metadata: Metadata{FrameManifest: manifestABC(), TransitionMarkers: []TransitionMarker{
			{AfterEntryIndex: 9, Kind: TransitionFade, DurationFrames: 1, ConsumedFrames: 1},
		}},
	}
	require.Error(t, Validate(tl))
}

func TestValidate_AcceptsWellFormedTimeline(t *testing.T) {
	tl := &Timeline{
		Version:  SchemaVersion,
		Metadata: Metadata{FrameManifest: manifestABC(), FPS: 30},
		Events: []Event{
			{ID: "ev-001", Kind: EventScene, Title: "Intro", TimestampMs: 0},
			{ID: "ev-002", Kind: EventAction, ActionKind: ActionClick, Selector: "#go", TimestampMs: 33},
		},
	}
	require.NoError(t, Validate(tl))
}

// Round-trip law: validate(serialize(timeline)) = Ok(timeline).
func TestSerializeParseRoundTrip(t *testing.T) {
	tl := &Timeline{
		Version:  SchemaVersion,
		Metadata: Metadata{FrameManifest: manifestABC(), FPS: 30},
		Events: []Event{
			{ID: "ev-001", Kind: EventScene, Title: "Intro", TimestampMs: 0},
		},
	}
	data, err := Serialize(tl)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, tl.Version, parsed.Version)
	require.Equal(t, tl.Events, parsed.Events)
	require.Equal(t, tl.Metadata.FrameManifest, parsed.Metadata.FrameManifest)
}
