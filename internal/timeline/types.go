// Package timeline defines the wire-format types shared by every stage of
// the compose pipeline: the recorded event stream, the frame manifest, and
// the transition markers that stitch scenes together.
package timeline

// SchemaVersion is the only version this build accepts.
const SchemaVersion = 1

// SourceMs is scenario source time: monotonic, advanced by capture
// intervals and explicit holds.
type SourceMs int64

// OutputMs is final output time: source time shifted forward by the
// cumulative duration of inserted slides and transitions.
type OutputMs int64

// ExpandedFrame indexes into the fully expanded (post-Hold) frame sequence.
type ExpandedFrame int64

// Viewport is the captured browser viewport size in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata carries everything about a recording except the event stream
// itself.
type Metadata struct {
	TestFile          string             `json:"testFile"`
	ScenarioFile      string             `json:"scenarioFile"`
	RecordedAt        string             `json:"recordedAt"`
	Viewport          Viewport           `json:"viewport"`
	FPS               int                `json:"fps"`
	FrameManifest     []ManifestEntry    `json:"frameManifest"`
	TransitionMarkers []TransitionMarker `json:"transitionMarkers"`
}

// EntryKind discriminates ManifestEntry's tagged union.
type EntryKind string

const (
	EntryFrame EntryKind = "frame"
	EntryHold  EntryKind = "hold"
)

// ManifestEntry is one unit of the frame sequence: either a distinct frame
// backed by one image, or a run-length hold of a repeated frame.
type ManifestEntry struct {
	Kind  EntryKind `json:"kind"`
	File  string    `json:"file"`
	Count int       `json:"count,omitempty"` // only meaningful for EntryHold
}

// Frames returns how many virtual frames this entry expands to.
func (e ManifestEntry) Frames() int64 {
	if e.Kind == EntryHold {
		return int64(e.Count)
	}
	return 1
}

// TransitionKind enumerates the supported inter-scene animations.
type TransitionKind string

const (
	TransitionFade      TransitionKind = "fade"
	TransitionWipe      TransitionKind = "wipe"
	TransitionSlideUp   TransitionKind = "slide-up"
	TransitionSlideLeft TransitionKind = "slide-left"
	TransitionZoom      TransitionKind = "zoom"
	TransitionDoorway   TransitionKind = "doorway"
	TransitionSwap      TransitionKind = "swap"
	TransitionCube      TransitionKind = "cube"
)

var validTransitionKinds = map[TransitionKind]bool{
	TransitionFade: true, TransitionWipe: true, TransitionSlideUp: true,
	TransitionSlideLeft: true, TransitionZoom: true, TransitionDoorway: true,
	TransitionSwap: true, TransitionCube: true,
}

// TransitionMarker directs the resolver to insert a kind-specific
// animation after a manifest entry.
type TransitionMarker struct {
	AfterEntryIndex int            `json:"afterEntryIndex"`
	Kind            TransitionKind `json:"kind"`
	DurationFrames  int            `json:"durationFrames"`
	ConsumedFrames  int            `json:"consumedFrames"`
	BeforeFile      string         `json:"beforeFile,omitempty"`
	AfterFile       string         `json:"afterFile,omitempty"`
}

// EventKind discriminates Event's tagged union.
type EventKind string

const (
	EventScene        EventKind = "scene"
	EventAction       EventKind = "action"
	EventCursorTarget EventKind = "cursorTarget"
	EventNarration    EventKind = "narration"
	EventWait         EventKind = "wait"
)

// ActionKind enumerates supported Action variants.
type ActionKind string

const (
	ActionClick     ActionKind = "click"
	ActionFill      ActionKind = "fill"
	ActionHover     ActionKind = "hover"
	ActionPress     ActionKind = "press"
	ActionNavigate  ActionKind = "navigate"
	ActionDblClick  ActionKind = "dblclick"
)

var validActionKinds = map[ActionKind]bool{
	ActionClick: true, ActionFill: true, ActionHover: true,
	ActionPress: true, ActionNavigate: true, ActionDblClick: true,
}

// WaitReason enumerates why a Wait event was recorded.
type WaitReason string

const (
	WaitPacing         WaitReason = "pacing"
	WaitNarrationSync  WaitReason = "narrationSync"
	WaitPageLoad       WaitReason = "pageLoad"
)

// BoundingBox is a pixel rectangle in captured-viewport coordinates.
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Slide configures the freeze-frame overlay a Scene may carry.
type Slide struct {
	DurationMs    int    `json:"duration,omitempty" yaml:"duration,omitempty"` // default 2000 if zero
	BrandColor    string `json:"brandColor,omitempty" yaml:"brandColor,omitempty"`
	TextColor     string `json:"textColor,omitempty" yaml:"textColor,omitempty"`
	FontFamily    string `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	TitleFontSize int    `json:"titleFontSize,omitempty" yaml:"titleFontSize,omitempty"`
	Narrate       string `json:"narrate,omitempty" yaml:"narrate,omitempty"`
	// DeadAfterMs is the source-time window after the slide during which
	// captured frames are known stale (navigation still settling).
	DeadAfterMs int `json:"deadAfterMs,omitempty" yaml:"deadAfterMs,omitempty"`
}

// Event is a tagged union of everything the runner appends to a timeline.
// Only the fields relevant to Kind are populated.
type Event struct {
	ID          string     `json:"id"`
	Kind        EventKind  `json:"kind"`
	TimestampMs int64      `json:"timestampMs"`

	// Scene fields
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Slide       *Slide `json:"slide,omitempty"`

	// Action fields
	ActionKind   ActionKind   `json:"actionKind,omitempty"`
	Selector     string       `json:"selector,omitempty"`
	Value        string       `json:"value,omitempty"`
	DurationMs   int64        `json:"durationMs,omitempty"`
	BoundingBox  *BoundingBox `json:"boundingBox,omitempty"`
	SettledAtMs  *int64       `json:"settledAtMs,omitempty"`

	// CursorTarget fields
	FromX          int    `json:"fromX,omitempty"`
	FromY          int    `json:"fromY,omitempty"`
	ToX            int    `json:"toX,omitempty"`
	ToY            int    `json:"toY,omitempty"`
	MoveDurationMs int64  `json:"moveDurationMs,omitempty"`
	Easing         string `json:"easing,omitempty"`

	// Narration fields
	Text           string `json:"text,omitempty"`
	AudioDurationMs *int64 `json:"audioDurationMs,omitempty"`
	AudioFile       string `json:"audioFile,omitempty"`

	// Wait fields
	WaitDurationMs int64      `json:"waitDurationMs,omitempty"`
	Reason         WaitReason `json:"reason,omitempty"`
}

// Timeline is the top-level persisted and validated value.
type Timeline struct {
	Version  int      `json:"version"`
	Metadata Metadata `json:"metadata"`
	Events   []Event  `json:"events"`
}

// ExpandedFrameCount sums the virtual-frame count contributed by every
// manifest entry. O(entries), never O(expanded frames).
func ExpandedFrameCount(manifest []ManifestEntry) int64 {
	var total int64
	for _, e := range manifest {
		total += e.Frames()
	}
	return total
}

// EntryToFirstExpandedFrame returns the expanded-frame index of the first
// virtual frame contributed by entry i.
func EntryToFirstExpandedFrame(manifest []ManifestEntry, i int) ExpandedFrame {
	var total int64
	for k := 0; k < i; k++ {
		total += manifest[k].Frames()
	}
	return ExpandedFrame(total)
}

// LastExpandedFrameOfEntry returns the expanded-frame index of the last
// virtual frame contributed by entry i.
func LastExpandedFrameOfEntry(manifest []ManifestEntry, i int) ExpandedFrame {
	return EntryToFirstExpandedFrame(manifest, i) + ExpandedFrame(manifest[i].Frames()) - 1
}

// TotalOutputFrames adds every transition's frame surplus/deficit on top of
// the expanded frame count.
func TotalOutputFrames(manifest []ManifestEntry, transitions []TransitionMarker) int64 {
	total := ExpandedFrameCount(manifest)
	for _, t := range transitions {
		total += int64(t.DurationFrames - t.ConsumedFrames)
	}
	return total
}
