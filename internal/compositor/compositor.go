// Package compositor draws each resolved output frame: the base layer
// (a source frame or a two-face transition), a browser-chrome overlay,
// the interpolated cursor, click ripples, and action-effect overlays.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // registers the JPEG decoder for captured screenshots
	_ "image/png"  // registers the PNG decoder for title-slide overlay assets
	"net/url"
	"os"

	"github.com/ivlev/demoreel/internal/resolver"
	"github.com/ivlev/demoreel/internal/timeline"
)

// rippleWindowMs is how long a click ripple remains visible after its
// Action event.
const rippleWindowMs = 400

// Options configures the compositor's drawing of ambient overlays.
type Options struct {
	DrawCursor bool
	DrawChrome bool
	Pool       *FramePool
}

// Compositor draws output frames given a resolved frame plan and the
// recorded event stream.
type Compositor struct {
	opts   Options
	events []timeline.Event

	frameCache map[string]image.Image
}

func New(events []timeline.Event, opts Options) *Compositor {
	if opts.Pool == nil {
		opts.Pool = NewFramePool()
	}
	return &Compositor{opts: opts, events: events, frameCache: make(map[string]image.Image)}
}

// Pool returns the frame buffer pool Draw allocates from, so callers can
// return buffers with Pool().Put once a frame has been encoded.
func (c *Compositor) Pool() *FramePool { return c.opts.Pool }

// loadImage reads and decodes a manifest-referenced frame file, caching
// decoded images since Hold entries and transition faces repeat files.
func (c *Compositor) loadImage(path string) (image.Image, error) {
	if img, ok := c.frameCache[path]; ok {
		return img, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("compositor: opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("compositor: decoding %s: %w", path, err)
	}
	c.frameCache[path] = img
	return img, nil
}

// Draw renders one output frame into an RGBA buffer taken from the pool.
// Callers must return it via Pool.Put once encoded.
func (c *Compositor) Draw(ref resolver.FrameRef, outputTimeMs int64, bounds image.Rectangle, inSlide bool) (*image.RGBA, error) {
	dst := c.opts.Pool.Get(bounds)

	switch ref.Kind {
	case resolver.KindSource:
		img, err := c.loadImage(ref.SourceFile)
		if err != nil {
			return nil, err
		}
		draw.Draw(dst, bounds, img, image.Point{}, draw.Src)

	case resolver.KindTransition:
		before, err := c.loadImage(ref.BeforeFile)
		if err != nil {
			return nil, err
		}
		after, err := c.loadImage(ref.AfterFile)
		if err != nil {
			return nil, err
		}
		eased := easeInOutCubic(ref.Progress)
		renderTransition(dst, before, after, ref.TransitionKind, eased)

	default:
		return nil, fmt.Errorf("compositor: unknown frame ref kind %q", ref.Kind)
	}

	inTransition := ref.Kind == resolver.KindTransition

	if c.opts.DrawChrome && !inSlide && !inTransition {
		c.drawChrome(dst, outputTimeMs)
	}

	if c.opts.DrawCursor {
		if x, y, ok := CursorPosition(c.events, outputTimeMs, inSlide || inTransition); ok {
			drawCursor(dst, x, y)
		}
	}

	c.drawClickRipples(dst, outputTimeMs)
	c.drawActionEffects(dst, outputTimeMs)

	return dst, nil
}

// mostRecentNavigate finds the last Action{Navigate} at or before
// outputTimeMs and returns its URL's host+path for the address bar.
func (c *Compositor) mostRecentNavigate(outputTimeMs int64) string {
	var lastURL string
	for _, e := range c.events {
		if e.Kind != timeline.EventAction || e.ActionKind != timeline.ActionNavigate {
			continue
		}
		if e.TimestampMs > outputTimeMs {
			break
		}
		lastURL = e.Selector
	}
	if lastURL == "" {
		return ""
	}
	u, err := url.Parse(lastURL)
	if err != nil {
		return lastURL
	}
	return u.Host + u.Path
}

var (
	chromeBarColor   = color.RGBA{0xe8, 0xe8, 0xea, 0xff}
	chromeTabColor   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	chromeTrafficRed = color.RGBA{0xff, 0x5f, 0x57, 0xff}
	chromeTrafficAmb = color.RGBA{0xff, 0xbd, 0x2e, 0xff}
	chromeTrafficGrn = color.RGBA{0x28, 0xc8, 0x40, 0xff}
	addressBarColor  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	addressTextColor = color.RGBA{0x30, 0x30, 0x34, 0xff}
)

const chromeHeightPx = 72

// drawChrome draws a simplified browser-chrome strip across the top of
// the frame: traffic lights, a tab, and an address bar showing the most
// recently navigated host+path.
func (c *Compositor) drawChrome(dst *image.RGBA, outputTimeMs int64) {
	bounds := dst.Bounds()
	chromeRect := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+chromeHeightPx)
	fillRect(dst, chromeRect, chromeBarColor)

	tabRect := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+200, bounds.Min.Y+32)
	fillRect(dst, tabRect, chromeTabColor)

	fillCircle(dst, bounds.Min.X+20, bounds.Min.Y+16, 6, chromeTrafficRed)
	fillCircle(dst, bounds.Min.X+44, bounds.Min.Y+16, 6, chromeTrafficAmb)
	fillCircle(dst, bounds.Min.X+68, bounds.Min.Y+16, 6, chromeTrafficGrn)

	addrRect := image.Rect(bounds.Min.X+16, bounds.Min.Y+40, bounds.Max.X-16, bounds.Min.Y+64)
	fillRect(dst, addrRect, addressBarColor)

	if host := c.mostRecentNavigate(outputTimeMs); host != "" {
		drawText(dst, addrRect.Min.X+12, addrRect.Min.Y+17, host, addressTextColor)
	}
}

func fillRect(dst *image.RGBA, r image.Rectangle, col color.Color) {
	draw.Draw(dst, r, &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func fillCircle(dst *image.RGBA, cx, cy, radius int, col color.Color) {
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= radius*radius {
				dst.Set(cx+x, cy+y, col)
			}
		}
	}
}

var cursorColor = color.RGBA{0x20, 0x20, 0x20, 0xff}

// drawCursor paints a small filled arrow-like dot at (x,y); good enough
// fidelity for a synthesized demo cursor without needing a bitmap asset.
func drawCursor(dst *image.RGBA, x, y float64) {
	fillCircle(dst, int(x), int(y), 8, cursorColor)
}

var rippleColor = color.RGBA{0x4a, 0x90, 0xd9, 0x80}

// drawClickRipples draws an expanding ring at every click's bounding-box
// centre within rippleWindowMs of outputTimeMs.
func (c *Compositor) drawClickRipples(dst *image.RGBA, outputTimeMs int64) {
	for _, e := range c.events {
		if e.Kind != timeline.EventAction || e.ActionKind != timeline.ActionClick || e.BoundingBox == nil {
			continue
		}
		age := outputTimeMs - e.TimestampMs
		if age < 0 || age > rippleWindowMs {
			continue
		}
		t := float64(age) / float64(rippleWindowMs)
		radius := int(8 + 24*t)
		cx := e.BoundingBox.X + e.BoundingBox.W/2
		cy := e.BoundingBox.Y + e.BoundingBox.H/2
		drawRing(dst, cx, cy, radius, rippleColor)
	}
}

func drawRing(dst *image.RGBA, cx, cy, radius int, col color.Color) {
	const thickness = 3
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			d2 := x*x + y*y
			if d2 <= radius*radius && d2 >= (radius-thickness)*(radius-thickness) {
				dst.Set(cx+x, cy+y, col)
			}
		}
	}
}

var (
	focusBoxColor    = color.RGBA{0x4a, 0x90, 0xd9, 0xa0} // fill: input got focus
	softHighlightCol = color.RGBA{0xff, 0xd5, 0x4a, 0x50} // hover/press/dblclick
	navigateLabelBg  = color.RGBA{0x20, 0x20, 0x24, 0xc0}
	navigateLabelFg  = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// drawActionEffects draws a per-Action-kind overlay briefly after the
// action occurs: a focus box around filled inputs, a softer highlight
// around hover/press/dblclick targets, and a small label near the top of
// the frame for navigations (which have no on-page element to outline).
func (c *Compositor) drawActionEffects(dst *image.RGBA, outputTimeMs int64) {
	for _, e := range c.events {
		if e.Kind != timeline.EventAction || e.ActionKind == timeline.ActionClick {
			continue
		}
		age := outputTimeMs - e.TimestampMs
		if age < 0 || age > rippleWindowMs {
			continue
		}

		if e.ActionKind == timeline.ActionNavigate {
			c.drawNavigateLabel(dst, e.Selector)
			continue
		}
		if e.BoundingBox == nil {
			continue
		}
		box := image.Rect(e.BoundingBox.X, e.BoundingBox.Y, e.BoundingBox.X+e.BoundingBox.W, e.BoundingBox.Y+e.BoundingBox.H)
		if e.ActionKind == timeline.ActionFill {
			strokeRect(dst, box, focusBoxColor)
		} else {
			strokeRect(dst, box, softHighlightCol)
		}
	}
}

// drawNavigateLabel draws a small pill naming the navigated-to URL just
// below the chrome bar, since a navigation has no on-page element to
// outline the way a fill or hover does.
func (c *Compositor) drawNavigateLabel(dst *image.RGBA, rawURL string) {
	label := "→ " + rawURL
	w := textWidth(label) + 16
	bounds := dst.Bounds()
	box := image.Rect(bounds.Min.X+16, bounds.Min.Y+chromeHeightPx+8, bounds.Min.X+16+w, bounds.Min.Y+chromeHeightPx+28)
	fillRect(dst, box, navigateLabelBg)
	drawText(dst, box.Min.X+8, box.Min.Y+15, label, navigateLabelFg)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, col color.Color) {
	const thickness = 2
	for x := r.Min.X; x < r.Max.X; x++ {
		for t := 0; t < thickness; t++ {
			dst.Set(x, r.Min.Y+t, col)
			dst.Set(x, r.Max.Y-1-t, col)
		}
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for t := 0; t < thickness; t++ {
			dst.Set(r.Min.X+t, y, col)
			dst.Set(r.Max.X-1-t, y, col)
		}
	}
}
