package compositor

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/demoreel/internal/timeline"
)

// renderTransition draws one of the eight transition styles between a
// before and after face into dst, at the given eased progress in [0,1].
// Each style composites two layered faces over a black backdrop; the
// specific geometry mirrors the zoom/slide/fade shapes the teacher's
// ffmpeg filter-string effects generated, reimplemented here as direct
// pixel compositing since frames are resolved in Go rather than handed
// to an ffmpeg filter graph.
func renderTransition(dst *image.RGBA, before, after image.Image, kind timeline.TransitionKind, progress float64) {
	progress = clamp01(progress)
	bounds := dst.Bounds()

	fillBlack(dst)

	switch kind {
	case timeline.TransitionFade:
		xdraw.Draw(dst, bounds, before, image.Point{}, xdraw.Src)
		xdraw.Draw(dst, bounds, fadeMask(after, progress), image.Point{}, xdraw.Over)

	case timeline.TransitionWipe:
		xdraw.Draw(dst, bounds, before, image.Point{}, xdraw.Src)
		w := bounds.Dx()
		cut := int(float64(w) * progress)
		wipeRect := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+cut, bounds.Max.Y)
		xdraw.Draw(dst, wipeRect, after, wipeRect.Min, xdraw.Src)

	case timeline.TransitionSlideUp:
		h := bounds.Dy()
		offset := int(float64(h) * (1 - progress))
		xdraw.Draw(dst, bounds.Add(image.Pt(0, offset)), before, bounds.Min, xdraw.Src)
		xdraw.Draw(dst, bounds.Add(image.Pt(0, offset-h)), after, bounds.Min, xdraw.Src)

	case timeline.TransitionSlideLeft:
		w := bounds.Dx()
		offset := int(float64(w) * (1 - progress))
		xdraw.Draw(dst, bounds.Add(image.Pt(offset, 0)), before, bounds.Min, xdraw.Src)
		xdraw.Draw(dst, bounds.Add(image.Pt(offset-w, 0)), after, bounds.Min, xdraw.Src)

	case timeline.TransitionZoom:
		xdraw.Draw(dst, bounds, scaled(before, bounds, 1.0+0.3*progress), image.Point{}, xdraw.Src)
		xdraw.Draw(dst, bounds, fadeMask(scaled(after, bounds, 1.3-0.3*progress), progress), image.Point{}, xdraw.Over)

	case timeline.TransitionDoorway:
		renderDoorway(dst, before, after, progress)

	case timeline.TransitionSwap:
		renderPerspectiveSlide(dst, before, after, progress, true)

	case timeline.TransitionCube:
		renderPerspectiveSlide(dst, before, after, progress, false)

	default:
		xdraw.Draw(dst, bounds, before, image.Point{}, xdraw.Src)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func fillBlack(dst *image.RGBA) {
	bounds := dst.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, image.Black)
		}
	}
}

// fadeMask wraps img so compositing it with xdraw.Over applies a uniform
// alpha of progress, giving a crossfade.
func fadeMask(img image.Image, progress float64) image.Image {
	return &alphaImage{Image: img, alpha: progress}
}

type alphaImage struct {
	image.Image
	alpha float64
}

func (a *alphaImage) At(x, y int) color.Color {
	r, g, b, al := a.Image.At(x, y).RGBA()
	return rgbaColor{
		r: uint32(float64(r) * a.alpha),
		g: uint32(float64(g) * a.alpha),
		b: uint32(float64(b) * a.alpha),
		a: uint32(float64(al) * a.alpha),
	}
}

type rgbaColor struct{ r, g, b, a uint32 }

func (c rgbaColor) RGBA() (uint32, uint32, uint32, uint32) { return c.r, c.g, c.b, c.a }

// scaled returns a version of img scaled about its center by factor,
// using the same bounds (crop/letterbox as needed).
func scaled(img image.Image, bounds image.Rectangle, factor float64) image.Image {
	if factor == 1.0 {
		return img
	}
	cx, cy := float64(bounds.Dx())/2, float64(bounds.Dy())/2
	srcRect := image.Rect(
		int(cx-cx/factor), int(cy-cy/factor),
		int(cx+cx/factor), int(cy+cy/factor),
	)
	out := image.NewRGBA(bounds)
	xdraw.CatmullRom.Scale(out, bounds, img, srcRect, xdraw.Src, nil)
	return out
}

// renderDoorway splits the before face symmetrically and pushes the
// halves outward while the after face scales in behind them.
func renderDoorway(dst *image.RGBA, before, after image.Image, progress float64) {
	bounds := dst.Bounds()
	xdraw.Draw(dst, bounds, scaled(after, bounds, 0.7+0.3*progress), image.Point{}, xdraw.Src)

	half := bounds.Dx() / 2
	push := int(float64(half) * progress)

	left := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+half, bounds.Max.Y)
	right := image.Rect(bounds.Min.X+half, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)

	xdraw.Draw(dst, left.Add(image.Pt(-push, 0)), before, left.Min, xdraw.Src)
	xdraw.Draw(dst, right.Add(image.Pt(push, 0)), before, right.Min, xdraw.Src)
}

// renderPerspectiveSlide approximates a 3D rotate/translate (swap) or
// cube rotation by horizontally squeezing the outgoing face as it slides
// off and the incoming face as it slides in, a flat-projection stand-in
// for true perspective transform.
func renderPerspectiveSlide(dst *image.RGBA, before, after image.Image, progress float64, mirrored bool) {
	bounds := dst.Bounds()
	w := bounds.Dx()

	beforeSqueeze := math.Cos(progress * math.Pi / 2)
	afterSqueeze := math.Sin(progress * math.Pi / 2)

	beforeW := int(float64(w) * beforeSqueeze)
	afterW := int(float64(w) * afterSqueeze)

	if beforeW > 0 {
		beforeRect := image.Rect(0, bounds.Min.Y, beforeW, bounds.Max.Y)
		xdraw.CatmullRom.Scale(dst, beforeRect, before, bounds, xdraw.Src, nil)
	}
	if afterW > 0 {
		var afterRect image.Rectangle
		if mirrored {
			afterRect = image.Rect(w-afterW, bounds.Min.Y, w, bounds.Max.Y)
		} else {
			afterRect = image.Rect(beforeW, bounds.Min.Y, beforeW+afterW, bounds.Max.Y)
		}
		xdraw.CatmullRom.Scale(dst, afterRect, after, bounds, xdraw.Src, nil)
	}
}
