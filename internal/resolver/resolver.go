// Package resolver computes, for each output frame, the file (or
// transition descriptor) a compositor should draw. The resolver is pure:
// identical timelines always resolve identically, and resolving different
// frames can run in parallel.
package resolver

import (
	"fmt"

	"github.com/ivlev/demoreel/internal/timeline"
)

// Kind discriminates a resolved frame.
type Kind string

const (
	KindSource      Kind = "source"
	KindTransition  Kind = "transition"
)

// FrameRef is what the compositor receives for one output frame.
type FrameRef struct {
	Kind Kind

	// Populated when Kind == KindSource.
	SourceFile  string
	EntryIndex  int // index into the manifest of SourceFile's entry

	// Populated when Kind == KindTransition.
	BeforeFile     string
	AfterFile      string
	Progress       float64
	TransitionKind timeline.TransitionKind
}

// fileAt returns the backing file of the entry that contains the given
// expanded frame index.
func fileAt(manifest []timeline.ManifestEntry, frame timeline.ExpandedFrame) string {
	file, _ := entryAt(manifest, frame)
	return file
}

func entryAt(manifest []timeline.ManifestEntry, frame timeline.ExpandedFrame) (string, int) {
	var cursor int64
	for i, entry := range manifest {
		next := cursor + entry.Frames()
		if int64(frame) < next {
			return entry.File, i
		}
		cursor = next
	}
	if len(manifest) == 0 {
		return "", -1
	}
	return manifest[len(manifest)-1].File, len(manifest) - 1
}

// Resolve returns the frame plan for a single output frame index.
func Resolve(outputFrame int64, manifest []timeline.ManifestEntry, transitions []timeline.TransitionMarker) (FrameRef, error) {
	expandedCount := timeline.ExpandedFrameCount(manifest)
	if expandedCount == 0 {
		return FrameRef{}, fmt.Errorf("resolver: empty manifest")
	}

	var offset int64
	for _, tr := range transitions {
		s := int64(timeline.LastExpandedFrameOfEntry(manifest, tr.AfterEntryIndex))
		lastBefore := s + offset
		windowStart := lastBefore + 1
		windowEnd := lastBefore + int64(tr.DurationFrames)

		if outputFrame >= windowStart && outputFrame <= windowEnd {
			progress := float64(outputFrame-lastBefore) / float64(tr.DurationFrames)

			beforeFile := tr.BeforeFile
			if beforeFile == "" {
				beforeFile = fileAt(manifest, timeline.ExpandedFrame(s))
			}
			afterFile := tr.AfterFile
			if afterFile == "" && tr.AfterEntryIndex+1 < len(manifest) {
				afterFile = manifest[tr.AfterEntryIndex+1].File
			}

			return FrameRef{
				Kind:           KindTransition,
				BeforeFile:     beforeFile,
				AfterFile:      afterFile,
				Progress:       progress,
				TransitionKind: tr.Kind,
			}, nil
		}

		offset += int64(tr.DurationFrames - tr.ConsumedFrames)
	}

	sourceFrame := outputFrame - offset
	if sourceFrame < 0 {
		sourceFrame = 0
	}
	if sourceFrame > expandedCount-1 {
		sourceFrame = expandedCount - 1
	}

	file, idx := entryAt(manifest, timeline.ExpandedFrame(sourceFrame))
	return FrameRef{
		Kind:       KindSource,
		SourceFile: file,
		EntryIndex: idx,
	}, nil
}
