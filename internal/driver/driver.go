// Package driver defines the browser-driver external collaborator
// contract and its implementations: a real go-rod-backed session, and a
// no-op stub session whose methods all succeed without doing anything.
package driver

import "context"

// Rect is a bounding box in captured-viewport pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// LaunchOptions configures a new browser session.
type LaunchOptions struct {
	ViewportWidth  int
	ViewportHeight int
	DeviceScaleFactor float64 // DPR is 1 during capture; upscaling is deferred to the encoder.
	Locale         string
	Timezone       string
	ColorScheme    string
}

// Session is the minimal surface the core needs from a browser driver.
type Session interface {
	Goto(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Hover(ctx context.Context, selector string) error
	Press(ctx context.Context, selector, key string) error
	DblClick(ctx context.Context, selector string) error
	BoundingBox(ctx context.Context, selector string) (*Rect, bool, error)
	Inject(ctx context.Context, css string) error
	Close() error
}

// Launcher opens a new Session.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}
