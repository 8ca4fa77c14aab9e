// Package overlay implements the Scene slide overlay the Scenario Runner
// injects into the page before capturing a slide's explicit frame:
// a full-screen branded backdrop with a title and description, placed
// with a generated stylesheet since the driver's Inject is CSS-only.
package overlay

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/timeline"
)

const (
	defaultBrandColor = "#0b1220"
	defaultTextColor  = "#ffffff"
	defaultFontFamily = "system-ui, sans-serif"
	defaultTitleSize  = 48
	overlayZIndex     = 2147483000
)

// CSSOverlay shows and hides a slide by appending (Show) and then
// overriding (Hide) a <style> element against the session's page, the
// only DOM surface driver.Session.Inject exposes. Both mark their content
// !important so the later of the two always wins, and a slide shown after
// an earlier Hide is visible again.
type CSSOverlay struct {
	Session driver.Session
}

func (o CSSOverlay) Show(ctx context.Context, slide *timeline.Slide, title, description string) error {
	brand := slide.BrandColor
	if brand == "" {
		brand = defaultBrandColor
	}
	text := slide.TextColor
	if text == "" {
		text = defaultTextColor
	}
	font := slide.FontFamily
	if font == "" {
		font = defaultFontFamily
	}
	size := slide.TitleFontSize
	if size <= 0 {
		size = defaultTitleSize
	}

	css := fmt.Sprintf(`
html::before {
	content: "" !important;
	position: fixed; inset: 0;
	background: %s;
	z-index: %d;
}
html::after {
	content: %s !important;
	position: fixed; inset: 0;
	display: flex; flex-direction: column;
	align-items: center; justify-content: center;
	text-align: center; white-space: pre-line;
	color: %s;
	font-family: %s;
	font-size: %dpx;
	padding: 0 10%%;
	z-index: %d;
}
`, brand, overlayZIndex, cssString(titleAndDescription(title, description)), text, font, size, overlayZIndex+1)

	return o.Session.Inject(ctx, css)
}

func (o CSSOverlay) Hide(ctx context.Context) error {
	css := fmt.Sprintf(`
html::before { content: none !important; }
html::after { content: none !important; }
`)
	return o.Session.Inject(ctx, css)
}

func titleAndDescription(title, description string) string {
	if description == "" {
		return title
	}
	return title + "\n" + description
}

// cssString renders s as a double-quoted CSS string literal, escaping the
// characters that would otherwise break out of the quotes.
func cssString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\A `)
	return `"` + s + `"`
}
