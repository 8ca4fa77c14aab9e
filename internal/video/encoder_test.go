package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs_IncludesRawVideoInputAndCodec(t *testing.T) {
	args := buildArgs("/tmp/out.mp4", Params{Width: 1920, Height: 1080, FPS: 30, Codec: "libx264", CRF: 20})

	assert.Contains(t, args, "rawvideo")
	assert.Contains(t, args, "1920x1080")
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "20")
	assert.Contains(t, args, "/tmp/out.mp4")
}

func TestBuildArgs_AudioTrackAddsOffsetAndShortest(t *testing.T) {
	args := buildArgs("/tmp/out.mp4", Params{
		Width: 640, Height: 480, FPS: 30,
		AudioFile: "/tmp/narration.mp3", AudioOffsetMs: 500,
	})

	assert.Contains(t, args, "-itsoffset")
	assert.Contains(t, args, "0.500000")
	assert.Contains(t, args, "/tmp/narration.mp3")
	assert.Contains(t, args, "-shortest")
	assert.Contains(t, args, "aac")
}

func TestBuildArgs_NoAudioFileOmitsAudioFlags(t *testing.T) {
	args := buildArgs("/tmp/out.mp4", Params{Width: 640, Height: 480, FPS: 30})

	assert.NotContains(t, args, "-itsoffset")
	assert.NotContains(t, args, "-shortest")
}

func TestBuildArgs_ScaleAddedWhenRequested(t *testing.T) {
	args := buildArgs("/tmp/out.mp4", Params{Width: 1920, Height: 1080, FPS: 30, ScaleWidth: 1280, ScaleHeight: 720})

	found := false
	for _, a := range args {
		if a == "scale=1280:720,format=yuv420p" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCrfToBitrateKbps_MonotonicallyDecreasesWithHigherCRF(t *testing.T) {
	low := crfToBitrateKbps(18)
	high := crfToBitrateKbps(28)
	assert.Greater(t, low, high)
}
