package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

var namedKeys = map[string]input.Key{
	"enter":     input.Enter,
	"tab":       input.Tab,
	"escape":    input.Escape,
	"backspace": input.Backspace,
	"arrowup":   input.ArrowUp,
	"arrowdown": input.ArrowDown,
	"space":     input.Space,
}

func keyFor(key string) input.Key {
	if k, ok := namedKeys[strings.ToLower(key)]; ok {
		return k
	}
	if len(key) == 1 {
		if k, ok := input.Keys[rune(key[0])]; ok {
			return k
		}
	}
	return input.Enter
}

// RodLauncher launches real go-rod browser sessions.
type RodLauncher struct{}

func (RodLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	browser := rod.New().Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("launch: connect: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("launch: open page: %w", err)
	}

	dpr := opts.DeviceScaleFactor
	if dpr == 0 {
		dpr = 1
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: dpr,
		Mobile:            false,
	}); err != nil {
		browser.Close()
		return nil, fmt.Errorf("launch: set viewport: %w", err)
	}

	return &rodSession{browser: browser, page: page}, nil
}

type rodSession struct {
	browser *rod.Browser
	page    *rod.Page
}

func (s *rodSession) Goto(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return s.page.WaitLoad()
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatJpeg,
	})
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) Fill(ctx context.Context, selector, value string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	// One character at a time with a fixed per-character delay happens at
	// the runner layer, which calls Fill once per rune with the value typed
	// so far; each call replaces the field's contents.
	return el.Input(value)
}

func (s *rodSession) Hover(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("hover %s: %w", selector, err)
	}
	return el.Hover()
}

func (s *rodSession) Press(ctx context.Context, selector, key string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("press %s: %w", selector, err)
	}
	return el.Type(keyFor(key))
}

func (s *rodSession) DblClick(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("dblclick %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) BoundingBox(ctx context.Context, selector string) (*Rect, bool, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, false, nil
	}
	box, err := el.Shape()
	if err != nil || len(box.Quads) == 0 {
		return nil, false, nil
	}
	q := box.Quads[0]
	minX, minY, maxX, maxY := q[0], q[1], q[0], q[1]
	for i := 0; i < len(q); i += 2 {
		if q[i] < minX {
			minX = q[i]
		}
		if q[i] > maxX {
			maxX = q[i]
		}
		if q[i+1] < minY {
			minY = q[i+1]
		}
		if q[i+1] > maxY {
			maxY = q[i+1]
		}
	}
	return &Rect{X: int(minX), Y: int(minY), W: int(maxX - minX), H: int(maxY - minY)}, true, nil
}

func (s *rodSession) Inject(ctx context.Context, css string) error {
	_, err := s.page.Context(ctx).Eval(fmt.Sprintf(`() => {
		const style = document.createElement('style');
		style.textContent = %q;
		document.head.appendChild(style);
	}`, css))
	return err
}

func (s *rodSession) Close() error {
	return s.browser.Close()
}
