package timeline

import (
	"fmt"
	"regexp"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{3}([0-9a-fA-F]{1}|[0-9a-fA-F]{3}|[0-9a-fA-F]{5})?$`)

// Validate is the single source of truth for wire-format invariants. It is
// invoked by the compose pipeline before timeline.json is persisted and
// rendered, and by Parse on every timeline read back.
func Validate(t *Timeline) error {
	if t.Version != SchemaVersion {
		return fmt.Errorf("unsupported timeline version %d, want %d", t.Version, SchemaVersion)
	}

	if err := validateEvents(t.Events); err != nil {
		return err
	}
	if err := validateManifest(t.Metadata.FrameManifest); err != nil {
		return err
	}
	if err := validateTransitions(t.Metadata.TransitionMarkers, len(t.Metadata.FrameManifest)); err != nil {
		return err
	}

	return nil
}

func validateEvents(events []Event) error {
	var lastTs int64 = -1
	for i, e := range events {
		if e.TimestampMs < 0 {
			return fmt.Errorf("event %d (%s) has negative timestamp", i, e.ID)
		}
		if e.TimestampMs < lastTs {
			return fmt.Errorf("event %d (%s) is out of order: %d < %d", i, e.ID, e.TimestampMs, lastTs)
		}
		lastTs = e.TimestampMs

		if err := validateEvent(i, e); err != nil {
			return err
		}
	}
	return nil
}

func validateEvent(i int, e Event) error {
	switch e.Kind {
	case EventScene:
		if e.Title == "" {
			return fmt.Errorf("event %d (%s): scene requires a title", i, e.ID)
		}
		if e.Slide != nil {
			if err := validateSlide(i, e.Slide); err != nil {
				return err
			}
		}
	case EventAction:
		if !validActionKinds[e.ActionKind] {
			return fmt.Errorf("event %d (%s): unknown action kind %q", i, e.ID, e.ActionKind)
		}
		if e.SettledAtMs != nil && *e.SettledAtMs < e.TimestampMs {
			return fmt.Errorf("event %d (%s): settledAtMs %d before timestampMs %d", i, e.ID, *e.SettledAtMs, e.TimestampMs)
		}
	case EventCursorTarget:
		if e.MoveDurationMs <= 0 {
			return fmt.Errorf("event %d (%s): cursorTarget moveDurationMs must be > 0", i, e.ID)
		}
	case EventNarration:
		if e.Text == "" {
			return fmt.Errorf("event %d (%s): narration text must be non-empty", i, e.ID)
		}
	case EventWait:
		if e.WaitDurationMs <= 0 {
			return fmt.Errorf("event %d (%s): wait durationMs must be > 0", i, e.ID)
		}
	default:
		return fmt.Errorf("event %d (%s): unknown event kind %q", i, e.ID, e.Kind)
	}
	return nil
}

func validateSlide(i int, s *Slide) error {
	if s.BrandColor != "" && !hexColorRe.MatchString(s.BrandColor) {
		return fmt.Errorf("event %d: slide brandColor %q is not a valid hex colour", i, s.BrandColor)
	}
	if s.TextColor != "" && !hexColorRe.MatchString(s.TextColor) {
		return fmt.Errorf("event %d: slide textColor %q is not a valid hex colour", i, s.TextColor)
	}
	if s.DurationMs < 0 {
		return fmt.Errorf("event %d: slide duration must be positive", i)
	}
	return nil
}

func validateManifest(manifest []ManifestEntry) error {
	if len(manifest) == 0 {
		return fmt.Errorf("frameManifest must be non-empty")
	}
	for i, entry := range manifest {
		switch entry.Kind {
		case EntryFrame:
			if entry.File == "" {
				return fmt.Errorf("manifest entry %d: frame requires a file", i)
			}
		case EntryHold:
			if entry.Count <= 0 {
				return fmt.Errorf("manifest entry %d: hold count must be >= 1, got %d", i, entry.Count)
			}
		default:
			return fmt.Errorf("manifest entry %d: unknown kind %q", i, entry.Kind)
		}
	}
	return nil
}

func validateTransitions(transitions []TransitionMarker, manifestLen int) error {
	lastIndex := -1
	for i, tr := range transitions {
		if tr.AfterEntryIndex < 0 || tr.AfterEntryIndex >= manifestLen {
			return fmt.Errorf("transition %d: afterEntryIndex %d out of range [0,%d)", i, tr.AfterEntryIndex, manifestLen)
		}
		if !validTransitionKinds[tr.Kind] {
			return fmt.Errorf("transition %d: unknown kind %q", i, tr.Kind)
		}
		if tr.DurationFrames <= 0 {
			return fmt.Errorf("transition %d: durationFrames must be >= 1, got %d", i, tr.DurationFrames)
		}
		if tr.ConsumedFrames <= 0 {
			return fmt.Errorf("transition %d: consumedFrames must be >= 1, got %d", i, tr.ConsumedFrames)
		}
		if tr.AfterEntryIndex < lastIndex {
			return fmt.Errorf("transition %d: markers must be sorted by afterEntryIndex", i)
		}
		lastIndex = tr.AfterEntryIndex
	}
	return nil
}
