package compositor

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws s in basicfont.Face7x13 with its baseline at (x, y),
// left-aligned. Used for the chrome address bar and action-effect labels,
// where a bitmap face is plenty: none of this text is meant to survive
// close inspection, only to read as "a browser" at video resolution.
func drawText(dst *image.RGBA, x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{C: col},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// textWidth returns the pixel width s would occupy in basicfont.Face7x13,
// for callers that need to size a background box before drawing the text.
func textWidth(s string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(s).Ceil()
}
