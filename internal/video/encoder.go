// Package video encodes a stream of composited RGBA frames plus one
// offset audio track into a single container file. Adapted from the
// teacher's FFmpegEncoder, which piped raw RGBA frames to ffmpeg over
// stdin; here the pipe carries every output frame of the full video
// instead of one slide segment, and a second ffmpeg input supplies the
// narration track at a fixed offset instead of being layered in by a
// filter_complex xfade graph.
package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
)

// Params configures the encode.
type Params struct {
	Width       int
	Height      int
	FPS         int
	Codec       string // e.g. libx264, h264_videotoolbox, h264_nvenc
	CRF         int    // -crf for libx264/default, -cq for nvenc, mapped to a bitrate for videotoolbox
	PixelFormat string // defaults to yuv420p
	ScaleWidth  int    // 0 means no extra scale pass
	ScaleHeight int

	// AudioFile, if non-empty, is muxed as a single track delayed by
	// AudioOffsetMs relative to frame zero.
	AudioFile     string
	AudioOffsetMs int64
}

// Encoder streams frames to an ffmpeg subprocess and produces one
// encoded container file.
type Encoder struct {
	params  Params
	outPath string

	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Start launches the ffmpeg subprocess and opens its stdin for raw RGBA
// frame writes. Call WriteFrame once per output frame in order, then
// Finish.
func Start(ctx context.Context, outPath string, params Params) (*Encoder, error) {
	if params.PixelFormat == "" {
		params.PixelFormat = "yuv420p"
	}

	args := buildArgs(outPath, params)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("video: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("video: ffmpeg start: %w", err)
	}

	return &Encoder{params: params, outPath: outPath, cmd: cmd, stdin: stdin}, nil
}

func buildArgs(outPath string, p Params) []string {
	if p.PixelFormat == "" {
		p.PixelFormat = "yuv420p"
	}
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}

	if p.AudioFile != "" {
		if p.AudioOffsetMs > 0 {
			args = append(args, "-itsoffset", fmt.Sprintf("%f", float64(p.AudioOffsetMs)/1000.0))
		}
		args = append(args, "-i", p.AudioFile)
	}

	vf := fmt.Sprintf("format=%s", p.PixelFormat)
	if p.ScaleWidth > 0 && p.ScaleHeight > 0 {
		vf = fmt.Sprintf("scale=%d:%d,%s", p.ScaleWidth, p.ScaleHeight, vf)
	}
	args = append(args, "-vf", vf)

	codec := p.Codec
	if codec == "" {
		codec = "libx264"
	}
	args = append(args, "-c:v", codec)

	switch codec {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", crfToBitrateKbps(p.CRF)))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.CRF))
	default:
		crf := p.CRF
		if crf == 0 {
			crf = 23
		}
		args = append(args, "-crf", fmt.Sprintf("%d", crf), "-preset", "medium")
	}

	if p.AudioFile != "" {
		args = append(args, "-c:a", "aac", "-shortest")
	}

	args = append(args, "-pix_fmt", p.PixelFormat, outPath)
	return args
}

// crfToBitrateKbps mirrors the teacher's quality->bitrate heuristic for
// bitrate-only encoders that don't accept -crf.
func crfToBitrateKbps(crf int) int {
	if crf <= 0 {
		crf = 23
	}
	quality := 100 - crf*2
	if quality < 10 {
		quality = 10
	}
	return quality * 100
}

// WriteFrame writes one RGBA frame to the encoder's stdin pipe, in
// output-frame order.
func (e *Encoder) WriteFrame(img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	_, err := e.stdin.Write(rgba.Pix)
	return err
}

// Finish closes the frame pipe and waits for ffmpeg to finalize the
// container.
func (e *Encoder) Finish() error {
	if err := e.stdin.Close(); err != nil {
		return fmt.Errorf("video: closing stdin: %w", err)
	}
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("video: ffmpeg wait: %w", err)
	}
	return nil
}
