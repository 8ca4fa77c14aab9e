// Package compose wires every stage into the two-pass compose run: a
// narration pass over the texts collected from the scenario's steps
// without driving a browser, a real recording pass against
// a browser driver, a divergence check between the two, time remapping,
// concurrent frame resolution, per-frame compositing, and encoding.
package compose

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/ivlev/demoreel/internal/cliprint"
	"github.com/ivlev/demoreel/internal/clock"
	"github.com/ivlev/demoreel/internal/compositor"
	"github.com/ivlev/demoreel/internal/config"
	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/logging"
	"github.com/ivlev/demoreel/internal/narration"
	"github.com/ivlev/demoreel/internal/pipeline"
	"github.com/ivlev/demoreel/internal/remap"
	"github.com/ivlev/demoreel/internal/resolver"
	"github.com/ivlev/demoreel/internal/runner"
	"github.com/ivlev/demoreel/internal/scenario"
	"github.com/ivlev/demoreel/internal/timeline"
	"github.com/ivlev/demoreel/internal/tts"
	"github.com/ivlev/demoreel/internal/video"
)

// Result is everything a caller might want to report after a successful
// run.
type Result struct {
	OutputFile string
	VersionDir string
	Stages     []cliprint.StageSummary
}

// Run executes the full compose pipeline for one scenario against cfg,
// printing progress via print (stderr by default) and structured
// diagnostics via sugaredLog.
func Run(ctx context.Context, cfg config.Config, sc *scenario.Scenario, launcher driver.Launcher, provider tts.Provider, print *cliprint.Printer, sugaredLog *logging.Logger) (*Result, error) {
	if print == nil {
		print = cliprint.Stderr()
	}

	lock, err := config.AcquireVersionLock(cfg.OutputDir)
	if err != nil {
		err = pipeline.NewError(pipeline.InvalidArgument, "compose: %v", err)
		print.Fail("version", err)
		return nil, err
	}
	defer lock.Release()

	versionDir, err := config.NextVersionDir(cfg.OutputDir)
	if err != nil {
		err = pipeline.WrapRenderFailure(err)
		print.Fail("version", err)
		return nil, err
	}

	framesDir := filepath.Join(versionDir, "frames")
	audioDir := filepath.Join(versionDir, "audio")
	for _, dir := range []string{versionDir, framesDir, audioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			err = pipeline.WrapRenderFailure(err)
			print.Fail("version", err)
			return nil, err
		}
	}

	var stages []cliprint.StageSummary
	narrationStart := time.Now()

	print.Step("collecting narration from a dry run")
	narrTexts := sc.CollectNarration()

	var narrManifest *narration.Manifest
	if len(narrTexts) > 0 && !cfg.NoVoiceover {
		narrManifest, err = runNarrationDryRun(ctx, narrTexts, provider, cfg, audioDir, sugaredLog)
		if err != nil {
			print.Fail("narration", err)
			return nil, err
		}
	}
	stages = append(stages, cliprint.StageSummary{
		Name: "narration", Duration: time.Since(narrationStart),
		Detail: fmt.Sprintf("%d segments", len(narrTexts)),
	})
	print.Done("narration preprocessed (%d segments)", len(narrTexts))

	recordStart := time.Now()
	print.Step("recording against the browser driver")
	rec, err := runRecordingPass(ctx, sc, launcher, cfg, framesDir, narrManifest)
	if err != nil {
		print.Fail("record", err)
		return nil, err
	}
	stages = append(stages, cliprint.StageSummary{
		Name: "record", Duration: time.Since(recordStart),
		Detail: fmt.Sprintf("%d events", len(rec.events)),
	})
	print.Done("recorded %d events", len(rec.events))

	if narrManifest != nil {
		recordedCount := countNarrationEvents(rec.events)
		if recordedCount != len(narrManifest.Segments) {
			err := pipeline.NewNarrationMismatch(len(narrManifest.Segments), recordedCount)
			print.Fail("narration-divergence", err)
			return nil, err
		}
	}

	buildStart := time.Now()
	print.Step("building and validating the timeline")
	tl := buildTimeline(cfg, rec)
	if err := timeline.Validate(&tl); err != nil {
		err = pipeline.WrapSchemaViolation(err)
		print.Fail("validate", err)
		return nil, err
	}
	if data, err := timeline.Serialize(&tl); err == nil {
		_ = os.WriteFile(filepath.Join(versionDir, "timeline.json"), data, 0o644)
	}
	stages = append(stages, cliprint.StageSummary{Name: "validate", Duration: time.Since(buildStart)})

	remapStart := time.Now()
	slides := slideWindows(rec.events, rec.slideEntryIndices, rec.manifest, cfg.FPS)
	remappedEvents := remap.RemapEvents(tl.Events, slides)
	totalFrames := timeline.TotalOutputFrames(tl.Metadata.FrameManifest, tl.Metadata.TransitionMarkers)
	stages = append(stages, cliprint.StageSummary{
		Name: "remap", Duration: time.Since(remapStart),
		Detail: fmt.Sprintf("%d output frames", totalFrames),
	})

	resolveStart := time.Now()
	print.Step("resolving %d output frames", totalFrames)
	workers := cfg.Workers
	if workers <= 0 {
		workers = resolver.PoolSize(logicalCPUCount())
	}
	refs, err := resolver.ResolveAll(ctx, totalFrames, tl.Metadata.FrameManifest, tl.Metadata.TransitionMarkers, workers)
	if err != nil {
		err = pipeline.WrapRenderFailure(err)
		print.Fail("resolve", err)
		return nil, err
	}
	stages = append(stages, cliprint.StageSummary{Name: "resolve", Duration: time.Since(resolveStart)})
	print.Done("resolved %d frames with %d workers", len(refs), workers)

	encodeStart := time.Now()
	print.Step("compositing and encoding")
	slideEntries := make(map[int]bool, len(rec.slideEntryIndices))
	for _, i := range rec.slideEntryIndices {
		slideEntries[i] = true
	}
	comp := compositor.New(remappedEvents, compositor.Options{
		DrawCursor: !cfg.NoCursor,
		DrawChrome: true,
	})

	outPath := filepath.Join(versionDir, "output.mp4")
	var audioFile string
	var audioOffsetMs int64
	if narrManifest != nil {
		audioFile = narrManifest.AudioFile
		audioOffsetMs = firstNarrationTimestampMs(remappedEvents)
	}

	enc, err := video.Start(ctx, outPath, video.Params{
		Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS,
		Codec: cfg.VideoCodec, CRF: cfg.CRF, PixelFormat: cfg.PixelFormat,
		AudioFile: audioFile, AudioOffsetMs: audioOffsetMs,
	})
	if err != nil {
		err = pipeline.WrapRenderFailure(err)
		print.Fail("encode", err)
		return nil, err
	}

	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	for frame, ref := range refs {
		outputMs := int64(frame) * 1000 / int64(cfg.FPS)
		inSlide := ref.Kind == resolver.KindSource && slideEntries[ref.EntryIndex]

		img, err := comp.Draw(ref, outputMs, bounds, inSlide)
		if err != nil {
			err = pipeline.WrapRenderFailure(err)
			print.Fail("composite", err)
			return nil, err
		}
		if err := enc.WriteFrame(img); err != nil {
			err = pipeline.WrapRenderFailure(err)
			print.Fail("encode", err)
			return nil, err
		}
		comp.Pool().Put(img)
	}
	if err := enc.Finish(); err != nil {
		err = pipeline.WrapRenderFailure(err)
		print.Fail("encode", err)
		return nil, err
	}
	stages = append(stages, cliprint.StageSummary{
		Name: "composite+encode", Duration: time.Since(encodeStart),
		Detail: outPath,
	})
	print.Done("wrote %s", outPath)
	print.Summary(stages)

	return &Result{OutputFile: outPath, VersionDir: versionDir, Stages: stages}, nil
}

// logicalCPUCount asks gopsutil for the host's logical core count,
// falling back to runtime.NumCPU if the host doesn't expose /proc/cpuinfo
// (e.g. inside some sandboxes).
func logicalCPUCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// firstNarrationTimestampMs returns the output-time timestamp of the
// first narration event in events, or 0 if there is none. The continuous
// narration track is placed at this offset so it starts where the
// narrator actually begins speaking in the remapped timeline, not at
// frame 0.
func firstNarrationTimestampMs(events []timeline.Event) int64 {
	for _, e := range events {
		if e.Kind == timeline.EventNarration {
			return e.TimestampMs
		}
	}
	return 0
}

func countNarrationEvents(events []timeline.Event) int {
	var n int
	for _, e := range events {
		if e.Kind == timeline.EventNarration {
			n++
		}
	}
	return n
}
