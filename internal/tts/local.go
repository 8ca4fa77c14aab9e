package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// LocalConfig configures the offline TTS backend: a bridge binary (e.g. a
// Python script wrapping an on-device model) invoked via os/exec, the same
// external-process idiom the rest of this pipeline uses for ffmpeg/ffprobe.
type LocalConfig struct {
	BridgePath       string // e.g. path to pocket-tts main.py / generate_segments.py
	PythonPath       string // defaults to "python3"
	Voice            string
	GapMs            int // silence gap between synthesized segments
	Tempo            float64
	OutputDir        string
}

// LocalProvider shells out to an offline TTS bridge. It implements
// SegmentSynthesizer: its bridge synthesizes one audio clip per narration
// segment with a known silence gap between them, so segment boundaries are
// exact and the narration preprocessor never needs to run silence
// detection against this backend's output.
type LocalProvider struct {
	cfg LocalConfig
}

func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	if cfg.PythonPath == "" {
		cfg.PythonPath = "python3"
	}
	if cfg.GapMs == 0 {
		cfg.GapMs = 1500
	}
	if cfg.Tempo == 0 {
		cfg.Tempo = 1.0
	}
	return &LocalProvider{cfg: cfg}
}

func (p *LocalProvider) Name() string { return "local" }

// Synthesize concatenates a single-text call through SynthesizeSegments so
// callers that only need the Provider interface still get an exact
// duration without a silence-detection pass.
func (p *LocalProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (string, int64, error) {
	audioFile, segments, err := p.SynthesizeSegments(ctx, []string{text}, opts)
	if err != nil {
		return "", 0, err
	}
	if len(segments) == 0 {
		return audioFile, 0, nil
	}
	return audioFile, segments[0].EndMs, nil
}

type segmentResultJSON struct {
	Output   string `json:"output"`
	Duration int64  `json:"duration_ms"`
	Segments []struct {
		Index    int    `json:"index"`
		Text     string `json:"text"`
		StartMs  int64  `json:"startMs"`
		EndMs    int64  `json:"endMs"`
		DurMs    int64  `json:"durationMs"`
	} `json:"segments"`
}

// SynthesizeSegments shells out to generate_segments.py-style bridge,
// which synthesizes each text as its own clip, places a fixed silence gap
// between them, concatenates, and reports each segment's start/end/duration
// directly — no detection needed because the gaps were placed, not found.
func (p *LocalProvider) SynthesizeSegments(ctx context.Context, texts []string, opts SynthesizeOptions) (string, []SegmentResult, error) {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return "", nil, err
	}

	manifestPath := filepath.Join(p.cfg.OutputDir, "local-tts-input.json")
	manifest := map[string]interface{}{"segments": segmentTexts(texts)}
	data, err := json.Marshal(manifest)
	if err != nil {
		return "", nil, err
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return "", nil, err
	}

	outFile := filepath.Join(p.cfg.OutputDir, "narration-full.wav")
	voice := opts.Voice
	if voice == "" {
		voice = p.cfg.Voice
	}

	args := []string{
		p.cfg.BridgePath,
		"--manifest", manifestPath,
		"--output", outFile,
		"--voice", voice,
		"--gap-ms", fmt.Sprintf("%d", p.cfg.GapMs),
		"--tempo", fmt.Sprintf("%f", p.cfg.Tempo),
		"--output-dir", p.cfg.OutputDir,
	}

	cmd := exec.CommandContext(ctx, p.cfg.PythonPath, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", nil, fmt.Errorf("tts local: bridge failed: %w", err)
	}

	var result segmentResultJSON
	if err := json.Unmarshal(out, &result); err != nil {
		return "", nil, fmt.Errorf("tts local: parsing bridge output: %w", err)
	}

	segments := make([]SegmentResult, len(result.Segments))
	for i, s := range result.Segments {
		segments[i] = SegmentResult{
			Index: s.Index, Text: s.Text,
			StartMs: s.StartMs, EndMs: s.EndMs, DurationMs: s.DurMs,
		}
	}
	return outFile, segments, nil
}

func segmentTexts(texts []string) []map[string]string {
	out := make([]map[string]string, len(texts))
	for i, t := range texts {
		out[i] = map[string]string{"text": t}
	}
	return out
}
