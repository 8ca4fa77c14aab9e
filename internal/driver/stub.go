package driver

import "context"

// StubSession is a no-op Session: every navigation/input method succeeds
// immediately and does nothing, so a scenario can be executed off-screen
// (the tests run scenarios and runners against it). The compose pipeline
// does not use it: narration texts are collected from the step list
// without executing it.
//
// Any property a scenario reaches through beyond this narrow interface
// (e.g. a raw page handle) is out of the Session contract entirely; a
// scenario author who needs driver internals during the dry run should
// not — the instrumentation API is the only thing scenarios call.
type StubSession struct{}

func (StubSession) Goto(ctx context.Context, url string) error                  { return nil }
func (StubSession) Screenshot(ctx context.Context) ([]byte, error)              { return nil, nil }
func (StubSession) Click(ctx context.Context, selector string) error            { return nil }
func (StubSession) Fill(ctx context.Context, selector, value string) error      { return nil }
func (StubSession) Hover(ctx context.Context, selector string) error            { return nil }
func (StubSession) Press(ctx context.Context, selector, key string) error       { return nil }
func (StubSession) DblClick(ctx context.Context, selector string) error         { return nil }
func (StubSession) Inject(ctx context.Context, css string) error                { return nil }
func (StubSession) Close() error                                                { return nil }

// BoundingBox returns a fixed, plausible box rather than "not found" so a
// scenario's distance-based cursor-move timing still computes something
// sane during the dry run.
func (StubSession) BoundingBox(ctx context.Context, selector string) (*Rect, bool, error) {
	return &Rect{X: 0, Y: 0, W: 100, H: 40}, true, nil
}

// StubLauncher always returns a StubSession.
type StubLauncher struct{}

func (StubLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	return StubSession{}, nil
}
