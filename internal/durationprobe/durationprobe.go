// Package durationprobe measures an audio file's duration via ffprobe,
// falling back to a size-based estimate using known PCM parameters when
// probing fails. Adapted directly from the teacher's GetAudioDuration.
package durationprobe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PCMParams describes the raw parameters needed to estimate duration from
// file size alone (used only as a last-resort fallback).
type PCMParams struct {
	SampleRate int
	Channels   int
	BytesPerSample int
}

// Prober is the duration-probe external collaborator contract.
type Prober interface {
	DurationMs(ctx context.Context, audioFile string) (int64, error)
}

// FFProbeProber shells out to ffprobe; on failure it falls back to a
// size/PCM-rate estimate if Fallback is set.
type FFProbeProber struct {
	Fallback *PCMParams
}

func (p FFProbeProber) DurationMs(ctx context.Context, audioFile string) (int64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioFile)

	out, err := cmd.CombinedOutput()
	if err == nil {
		var seconds float64
		if _, scanErr := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &seconds); scanErr == nil {
			return int64(seconds * 1000), nil
		}
	}

	if p.Fallback == nil {
		return 0, fmt.Errorf("durationprobe: ffprobe failed and no fallback configured: %w", err)
	}

	info, statErr := os.Stat(audioFile)
	if statErr != nil {
		return 0, fmt.Errorf("durationprobe: ffprobe failed (%v) and stat failed: %w", err, statErr)
	}

	bytesPerSecond := p.Fallback.SampleRate * p.Fallback.Channels * p.Fallback.BytesPerSample
	if bytesPerSecond <= 0 {
		return 0, fmt.Errorf("durationprobe: invalid fallback PCM parameters")
	}
	seconds := float64(info.Size()) / float64(bytesPerSecond)
	return int64(seconds * 1000), nil
}
