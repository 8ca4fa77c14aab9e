package compose

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ivlev/demoreel/internal/catalog"
	"github.com/ivlev/demoreel/internal/clock"
	"github.com/ivlev/demoreel/internal/config"
	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/durationprobe"
	"github.com/ivlev/demoreel/internal/logging"
	"github.com/ivlev/demoreel/internal/narration"
	"github.com/ivlev/demoreel/internal/overlay"
	"github.com/ivlev/demoreel/internal/pipeline"
	"github.com/ivlev/demoreel/internal/remap"
	"github.com/ivlev/demoreel/internal/runner"
	"github.com/ivlev/demoreel/internal/scenario"
	"github.com/ivlev/demoreel/internal/silence"
	"github.com/ivlev/demoreel/internal/timeline"
	"github.com/ivlev/demoreel/internal/tts"
)

// runNarrationDryRun runs the narration preprocessor over the texts the
// scenario would narrate, in order, without driving a browser. An explicit
// --reuse-audio directory is passed through as ReuseDir. A bare
// --reuse-audio (which arrives as the output root itself) consults the
// render catalog for a prior run of the same script under the same
// provider/voice; on a hit, ReuseDir points Preprocess at that prior run's
// audio directory, and on a miss TTS runs as usual. Without the flag the
// catalog is only written to, never read.
func runNarrationDryRun(ctx context.Context, texts []string, provider tts.Provider, cfg config.Config, audioDir string, log *logging.Logger) (*narration.Manifest, error) {
	cat, err := catalog.Open(filepath.Join(cfg.OutputDir, "catalog.db"))
	if err != nil {
		return nil, pipeline.WrapTtsFailure(err)
	}
	defer cat.Close()

	reuseDir := cfg.ReuseAudio
	hash := narration.ScriptHash(texts)
	if reuseDir != "" && reuseDir == cfg.OutputDir {
		reuseDir = ""
		if entry, ok, err := cat.Lookup(hash); err == nil && ok && entry.Provider == provider.Name() && entry.Voice == cfg.TTSVoice {
			reuseDir = entry.AudioDir
		}
	}

	opts := narration.Options{
		Provider:        provider,
		SilenceDetector: silence.FFmpegDetector{},
		DurationProbe:   durationprobe.FFProbeProber{},
		SynthOpts:       tts.SynthesizeOptions{Voice: cfg.TTSVoice},
		ThresholdDb:     cfg.SilenceThresholdDb,
		MinDurationSec:  cfg.SilenceMinDurationSec,
		AudioDir:        audioDir,
		ReuseDir:        reuseDir,
		Log:             log,
	}

	m, err := narration.Preprocess(ctx, texts, opts)
	if err != nil {
		return nil, pipeline.WrapTtsFailure(err)
	}

	if hash != "" {
		_ = cat.Put(catalog.Entry{
			ScriptHash: hash, Provider: provider.Name(), Voice: cfg.TTSVoice,
			AudioDir: audioDir, CreatedAt: time.Now(),
		})
	}
	return m, nil
}

// recordResult is everything the real recording pass produces.
type recordResult struct {
	events            []timeline.Event
	manifest          []timeline.ManifestEntry
	transitions       []timeline.TransitionMarker
	slideEntryIndices []int
}

// runRecordingPass drives the scenario once against a real browser
// session, with the capture loop ticking on its own goroutine while the
// scenario's actions pause/resume it as needed.
func runRecordingPass(ctx context.Context, sc *scenario.Scenario, launcher driver.Launcher, cfg config.Config, framesDir string, narrManifest *narration.Manifest) (*recordResult, error) {
	sess, err := launcher.Launch(ctx, driver.LaunchOptions{ViewportWidth: cfg.Width, ViewportHeight: cfg.Height})
	if err != nil {
		return nil, pipeline.WrapDriverFailure("launch", "", "", err)
	}
	defer sess.Close()

	c := clock.New(cfg.FPS, framesDir, nil)

	var segments []runner.NarrationSegment
	if narrManifest != nil {
		segments = segmentsFromManifest(narrManifest)
	}

	r := runner.New(c, sess, overlay.CSSOverlay{Session: sess}, cfg.Width, cfg.Height, segments)

	runCtx, cancel := context.WithCancel(ctx)
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- c.Run(runCtx, sess, nil)
	}()

	if err := scenario.Run(ctx, r, sc, nil); err != nil {
		cancel()
		<-loopErr
		return nil, err
	}
	cancel()
	<-loopErr // context.Canceled, expected
	c.CheckDrift()

	return &recordResult{
		events:            r.Events(),
		manifest:          c.Manifest(),
		transitions:       r.Transitions(),
		slideEntryIndices: r.SlideEntryIndices(),
	}, nil
}

// segmentsFromManifest converts a narration manifest's aligned segments
// into the ordered queue the runner pops from; only the first segment
// carries the continuous track's file reference, matching the Narrate
// and Scene contract that only one Event in the whole recording points at
// the shared audio file.
func segmentsFromManifest(m *narration.Manifest) []runner.NarrationSegment {
	out := make([]runner.NarrationSegment, len(m.Segments))
	for i, s := range m.Segments {
		out[i] = runner.NarrationSegment{Text: s.Text, DurationMs: s.DurationMs}
	}
	if len(out) > 0 {
		out[0].AudioFile = m.AudioFile
	}
	return out
}

// buildTimeline assembles the persisted Timeline value from a recording.
func buildTimeline(cfg config.Config, rec *recordResult) timeline.Timeline {
	return timeline.Timeline{
		Version: timeline.SchemaVersion,
		Metadata: timeline.Metadata{
			ScenarioFile:      cfg.ScenarioFile,
			Viewport:          timeline.Viewport{Width: cfg.Width, Height: cfg.Height},
			FPS:               cfg.FPS,
			FrameManifest:     rec.manifest,
			TransitionMarkers: rec.transitions,
		},
		Events: rec.events,
	}
}

// slideWindows derives remap.SlideWindow values from the recorded events
// and the manifest indices Scene marked as slides, in recording order:
// the Scene event's own timestamp, the hold's resolved duration (read
// back from the manifest entry Scene extended), and any configured dead
// zone immediately after it.
func slideWindows(events []timeline.Event, slideEntryIndices []int, manifest []timeline.ManifestEntry, fps int) []remap.SlideWindow {
	var sceneEvents []timeline.Event
	for _, e := range events {
		if e.Kind == timeline.EventScene && e.Slide != nil {
			sceneEvents = append(sceneEvents, e)
		}
	}

	windows := make([]remap.SlideWindow, 0, len(slideEntryIndices))
	for i, entryIdx := range slideEntryIndices {
		if i >= len(sceneEvents) || entryIdx < 0 || entryIdx >= len(manifest) {
			continue
		}
		durationMs := manifest[entryIdx].Count * 1000 / fps
		windows = append(windows, remap.SlideWindow{
			SceneTimestampMs: sceneEvents[i].TimestampMs,
			DurationMs:       int64(durationMs),
			DeadAfterMs:      int64(sceneEvents[i].Slide.DeadAfterMs),
		})
	}
	return windows
}
