// Package narration implements the Narration Preprocessor: a dry run that
// collects narration texts in order, synthesizes one continuous audio
// file, and aligns the N-1 longest detected silences to boundaries
// between the N segment texts.
package narration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ivlev/demoreel/internal/durationprobe"
	"github.com/ivlev/demoreel/internal/logging"
	"github.com/ivlev/demoreel/internal/silence"
	"github.com/ivlev/demoreel/internal/tts"
)

// Separator joins narration texts into one concatenated script with a
// pause-inducing gap: two newlines, an ellipsis, two newlines.
const Separator = "\n\n...\n\n"

const (
	DefaultThresholdDb    = -30.0
	DefaultMinDurationSec = 0.3
)

// Segment is one narration-text window within the single concatenated
// audio file, bounded by detected silences (or, for a segment-exact
// backend, by the backend's own reported boundaries).
type Segment struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	StartMs    int64  `json:"startMs"`
	EndMs      int64  `json:"endMs"`
	DurationMs int64  `json:"durationMs"`
}

// Manifest is the persisted record of one narration alignment run.
type Manifest struct {
	Provider         string             `json:"provider"`
	Voice            string             `json:"voice"`
	FullScript       string             `json:"fullScript"`
	ScriptHash       string             `json:"scriptHash"`
	AudioFile        string             `json:"audioFile"`
	TotalDurationMs  int64              `json:"totalDurationMs"`
	SilencesDetected []silence.Interval `json:"silencesDetected"`
	Segments         []Segment          `json:"segments"`
}

// Options configures one preprocessing run.
type Options struct {
	Provider        tts.Provider
	SilenceDetector silence.Detector
	DurationProbe   durationprobe.Prober
	SynthOpts       tts.SynthesizeOptions
	ThresholdDb     float64
	MinDurationSec  float64
	AudioDir        string // where narration-full.* and the manifest are written
	ReuseDir        string // optional caller-supplied reuse directory
	Log             *logging.Logger
}

func scriptHash(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// ScriptHash returns the hash Preprocess would compute for texts, so a
// caller can look up a prior render (e.g. in a render catalog) before
// deciding whether to pass a ReuseDir.
func ScriptHash(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	return scriptHash(joinScript(texts))
}

// Preprocess runs the full pipeline of spec.md §4.4 steps 1-7 over the
// ordered narration texts collected from a dry run.
func Preprocess(ctx context.Context, texts []string, opts Options) (*Manifest, error) {
	if len(texts) == 0 {
		return &Manifest{Segments: nil}, nil
	}

	if opts.ThresholdDb == 0 {
		opts.ThresholdDb = DefaultThresholdDb
	}
	if opts.MinDurationSec == 0 {
		opts.MinDurationSec = DefaultMinDurationSec
	}

	script := joinScript(texts)
	hash := scriptHash(script)

	if cached, ok := tryReuse(hash, opts.ReuseDir, opts.AudioDir); ok {
		return cached, nil
	}

	// A SegmentSynthesizer places its own gaps and reports exact
	// boundaries, bypassing silence detection entirely.
	if seg, ok := opts.Provider.(tts.SegmentSynthesizer); ok {
		return preprocessWithSegmentSynthesizer(ctx, texts, script, hash, seg, opts)
	}

	return preprocessWithSilenceDetection(ctx, texts, script, hash, opts)
}

func joinScript(texts []string) string {
	out := texts[0]
	for _, t := range texts[1:] {
		out += Separator + t
	}
	return out
}

func tryReuse(hash, reuseDir, audioDir string) (*Manifest, bool) {
	for _, dir := range []string{reuseDir, audioDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, "narration-manifest.json")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		if m.ScriptHash == hash {
			return &m, true
		}
	}
	return nil, false
}

func preprocessWithSegmentSynthesizer(ctx context.Context, texts []string, script, hash string, provider tts.SegmentSynthesizer, opts Options) (*Manifest, error) {
	audioFile, results, err := provider.SynthesizeSegments(ctx, texts, opts.SynthOpts)
	if err != nil {
		return nil, fmt.Errorf("narration: segment synthesis failed: %w", err)
	}

	segments := make([]Segment, len(results))
	var total int64
	for i, r := range results {
		segments[i] = Segment{Index: i, Text: r.Text, StartMs: r.StartMs, EndMs: r.EndMs, DurationMs: r.DurationMs}
		if r.EndMs > total {
			total = r.EndMs
		}
	}

	m := &Manifest{
		Provider:        provider.Name(),
		Voice:           opts.SynthOpts.Voice,
		FullScript:      script,
		ScriptHash:      hash,
		AudioFile:       audioFile,
		TotalDurationMs: total,
		Segments:        segments,
	}
	return m, persist(m, opts.AudioDir)
}

func preprocessWithSilenceDetection(ctx context.Context, texts []string, script, hash string, opts Options) (*Manifest, error) {
	audioFile, _, err := opts.Provider.Synthesize(ctx, script, opts.SynthOpts)
	if err != nil {
		return nil, fmt.Errorf("narration: synthesis failed: %w", err)
	}

	totalMs, err := opts.DurationProbe.DurationMs(ctx, audioFile)
	if err != nil {
		return nil, fmt.Errorf("narration: duration probe failed: %w", err)
	}

	detected, err := opts.SilenceDetector.Detect(ctx, audioFile, opts.ThresholdDb, opts.MinDurationSec)
	if err != nil {
		return nil, fmt.Errorf("narration: silence detection failed: %w", err)
	}

	segments := alignSegments(texts, totalMs, detected, opts.Log)

	m := &Manifest{
		Provider:         opts.Provider.Name(),
		Voice:            opts.SynthOpts.Voice,
		FullScript:       script,
		ScriptHash:       hash,
		AudioFile:        audioFile,
		TotalDurationMs:  totalMs,
		SilencesDetected: detected,
		Segments:         segments,
	}
	return m, persist(m, opts.AudioDir)
}

// alignSegments picks the N-1 longest silences, re-sorts them by start
// time, and uses each midpoint as a boundary. If fewer than N-1 silences
// were detected, falls back to proportional splitting by text length.
func alignSegments(texts []string, totalMs int64, detected []silence.Interval, log *logging.Logger) []Segment {
	n := len(texts)
	needed := n - 1

	if needed <= 0 {
		return []Segment{{Index: 0, Text: texts[0], StartMs: 0, EndMs: totalMs, DurationMs: totalMs}}
	}

	if len(detected) < needed {
		if log != nil {
			log.Warnf("narration: only %d silences detected, need %d; falling back to proportional split", len(detected), needed)
		}
		return proportionalSplit(texts, totalMs)
	}

	longest := make([]silence.Interval, len(detected))
	copy(longest, detected)
	sort.Slice(longest, func(i, j int) bool {
		return (longest[i].EndMs - longest[i].StartMs) > (longest[j].EndMs - longest[j].StartMs)
	})
	longest = longest[:needed]
	sort.Slice(longest, func(i, j int) bool { return longest[i].StartMs < longest[j].StartMs })

	boundaries := make([]int64, needed)
	for i, s := range longest {
		boundaries[i] = (s.StartMs + s.EndMs) / 2
	}

	segments := make([]Segment, n)
	prev := int64(0)
	for i := 0; i < n; i++ {
		end := totalMs
		if i < needed {
			end = boundaries[i]
		}
		segments[i] = Segment{Index: i, Text: texts[i], StartMs: prev, EndMs: end, DurationMs: end - prev}
		prev = end
	}
	return segments
}

func proportionalSplit(texts []string, totalMs int64) []Segment {
	var totalLen int
	for _, t := range texts {
		totalLen += len(t)
	}
	if totalLen == 0 {
		totalLen = 1
	}

	segments := make([]Segment, len(texts))
	var cursor int64
	for i, t := range texts {
		var dur int64
		if i == len(texts)-1 {
			dur = totalMs - cursor
		} else {
			dur = totalMs * int64(len(t)) / int64(totalLen)
		}
		segments[i] = Segment{Index: i, Text: t, StartMs: cursor, EndMs: cursor + dur, DurationMs: dur}
		cursor += dur
	}
	return segments
}

func persist(m *Manifest, audioDir string) error {
	if audioDir == "" {
		return nil
	}
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(audioDir, "narration-manifest.json"), data, 0o644)
}
