// Package clock implements the virtual clock and capture loop: a single
// monotonic clock and a coherent frame manifest, advanced under
// cooperative pause/resume from the scenario runner. There is no sharding
// here — the virtual clock is single-writer by design.
package clock

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/logging"
	"github.com/ivlev/demoreel/internal/timeline"
)

// driftThreshold is the fraction of target fps below which a drift
// warning is emitted (not fatal).
const driftThreshold = 0.85

// Clock drives frame capture at a fixed interval and maintains the
// timeline's manifest and virtual-frame index.
type Clock struct {
	fps       int
	framesDir string
	runID     string // run-scoped prefix distinguishing this capture's frame files
	log       *logging.Logger

	mu           sync.Mutex
	frameIndex   int64
	manifest     []timeline.ManifestEntry
	lastHash     [md5.Size]byte
	hasLast      bool
	paused       bool
	failureCount int64

	writeSem     *semaphore.Weighted // caps in-flight disk writes at 1
	lastWriteErr error

	achievedFrames int64
	runStart       time.Time
}

// New creates a Clock that writes distinct frames under framesDir. Each
// Clock stamps its frame filenames with a fresh run ID so two concurrent
// or successive captures into the same framesDir never collide.
func New(fps int, framesDir string, log *logging.Logger) *Clock {
	return &Clock{
		fps:       fps,
		framesDir: framesDir,
		runID:     uuid.NewString(),
		log:       log,
		writeSem:  semaphore.NewWeighted(1),
	}
}

// FPS returns the clock's configured frame rate.
func (c *Clock) FPS() int {
	return c.fps
}

// IsPaused reports whether the loop is currently paused.
func (c *Clock) IsPaused() bool {
	return c.isPaused()
}

// CurrentTimeMs returns virtualFrameIndex * 1000/fps.
func (c *Clock) CurrentTimeMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameIndex * 1000 / int64(c.fps)
}

// Manifest returns a copy of the frame manifest built so far, taken under
// the clock's lock; entries appended after the call are not reflected in
// the returned slice.
func (c *Clock) Manifest() []timeline.ManifestEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]timeline.ManifestEntry, len(c.manifest))
	copy(out, c.manifest)
	return out
}

// FailureCount reports how many capture ticks were skipped due to
// screenshot failures.
func (c *Clock) FailureCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failureCount
}

// intervalMs is the fixed tick spacing: 1000/fps.
func (c *Clock) intervalMs() int64 {
	return 1000 / int64(c.fps)
}

// waitOutstandingWrite blocks until any previously started disk write has
// flushed, by acquiring and immediately releasing the single write slot,
// then returns that write's error, if any.
func (c *Clock) waitOutstandingWrite() error {
	if err := c.writeSem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	c.writeSem.Release(1)

	c.mu.Lock()
	err := c.lastWriteErr
	c.lastWriteErr = nil
	c.mu.Unlock()
	return err
}

// startWrite takes the single write slot on the caller's goroutine, so a
// following waitOutstandingWrite always sees this write, then performs
// the disk write on its own goroutine so the caller can move on to the
// next screenshot immediately. At most one write is ever in flight,
// capping the pipelined screenshot/write overlap at a single outstanding
// frame.
func (c *Clock) startWrite(file string, data []byte) {
	if err := c.writeSem.Acquire(context.Background(), 1); err != nil {
		return
	}
	go func() {
		defer c.writeSem.Release(1)

		err := os.WriteFile(file, data, 0o644)
		c.mu.Lock()
		c.lastWriteErr = err
		c.mu.Unlock()
	}()
}

func (c *Clock) frameFilename(index int64) string {
	return filepath.Join(c.framesDir, fmt.Sprintf("%s-frame-%06d.jpg", c.runID, index))
}

// appendFrameLocked appends a new Frame entry; merging repeated files
// into a Hold is appendHoldLocked's job. Caller must hold c.mu.
func (c *Clock) appendFrameLocked(file string) {
	c.manifest = append(c.manifest, timeline.ManifestEntry{Kind: timeline.EntryFrame, File: file})
}

// appendHoldLocked extends the tail Hold by count, or starts a new one.
// Caller must hold c.mu.
func (c *Clock) appendHoldLocked(file string, count int) {
	if n := len(c.manifest); n > 0 {
		tail := &c.manifest[n-1]
		if tail.File == file {
			if tail.Kind == timeline.EntryHold {
				tail.Count += count
				return
			}
			if tail.Kind == timeline.EntryFrame {
				*tail = timeline.ManifestEntry{Kind: timeline.EntryHold, File: file, Count: 1 + count}
				return
			}
		}
	}
	c.manifest = append(c.manifest, timeline.ManifestEntry{Kind: timeline.EntryHold, File: file, Count: count})
}

// AddHold extends the tail by count virtual frames without new I/O; used
// for explicit dwell (slides, narration playback, waits during a paused
// capture).
func (c *Clock) AddHold(file string, count int) {
	if count <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendHoldLocked(file, count)
	c.frameIndex += int64(count)
}

// CaptureOneFrame always writes a new frame file, ignoring dedup, and
// increments the virtual-frame index by 1. Used for sharp before/after
// boundaries around slides and transitions.
func (c *Clock) CaptureOneFrame(ctx context.Context, sess driver.Session) (string, error) {
	data, err := sess.Screenshot(ctx)
	if err != nil {
		c.mu.Lock()
		c.failureCount++
		c.mu.Unlock()
		return "", fmt.Errorf("captureOneFrame: screenshot: %w", err)
	}

	c.mu.Lock()
	idx := c.frameIndex
	file := c.frameFilename(idx)
	c.mu.Unlock()

	if err := os.WriteFile(file, data, 0o644); err != nil {
		return "", fmt.Errorf("captureOneFrame: write: %w", err)
	}

	c.mu.Lock()
	c.appendFrameLocked(file)
	c.frameIndex++
	if len(data) >= md5.Size {
		c.lastHash = md5.Sum(data)
		c.hasLast = true
	}
	c.mu.Unlock()

	return file, nil
}

// PauseCapture returns only after the loop has observed the flag and any
// pending disk write has flushed.
func (c *Clock) PauseCapture() error {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
	return c.waitOutstandingWrite()
}

// ResumeCapture is idempotent if already running.
func (c *Clock) ResumeCapture() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

func (c *Clock) isPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// WaitForDuration blocks until the virtual clock has advanced by at least
// ceil(ms*fps/1000) frames. This couples real waits to captured frames so
// a loop running behind target fps does not desynchronise time.
func (c *Clock) WaitForDuration(ctx context.Context, ms int64) error {
	targetFrames := (ms*int64(c.fps) + 999) / 1000
	start := c.currentFrameIndex()
	for c.currentFrameIndex()-start < targetFrames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(c.intervalMs()) * time.Millisecond):
		}
	}
	return nil
}

func (c *Clock) currentFrameIndex() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameIndex
}

// Run drives the fixed-interval capture loop until ctx is cancelled or
// stop() returns true. It is meant to run on its own goroutine, cooperating
// with pause/resume issued by the scenario runner on other goroutines.
func (c *Clock) Run(ctx context.Context, sess driver.Session, stop func() bool) error {
	c.runStart = time.Now()
	interval := time.Duration(c.intervalMs()) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if stop != nil && stop() {
				return nil
			}
			if c.isPaused() {
				continue
			}
			c.tick(ctx, sess)
		}
	}
}

func (c *Clock) tick(ctx context.Context, sess driver.Session) {
	if err := c.waitOutstandingWrite(); err != nil && c.log != nil {
		c.log.Warnf("capture: previous frame write failed: %v", err)
	}

	data, err := sess.Screenshot(ctx)
	if err != nil {
		c.mu.Lock()
		c.failureCount++
		c.mu.Unlock()
		return
	}

	hash := md5.Sum(data)

	c.mu.Lock()
	dup := c.hasLast && hash == c.lastHash
	if dup {
		var tailFile string
		if n := len(c.manifest); n > 0 {
			tailFile = c.manifest[n-1].File
		}
		c.appendHoldLocked(tailFile, 1)
		c.frameIndex++
		c.achievedFrames++
		c.mu.Unlock()
		return
	}

	idx := c.frameIndex
	file := c.frameFilename(idx)
	c.frameIndex++
	c.achievedFrames++
	c.lastHash = hash
	c.hasLast = true
	c.appendFrameLocked(file)
	c.mu.Unlock()

	c.startWrite(file, data)
}

// AchievedFPS reports the observed capture rate since Run started, for
// drift diagnostics.
func (c *Clock) AchievedFPS() float64 {
	c.mu.Lock()
	achieved := c.achievedFrames
	c.mu.Unlock()
	elapsed := time.Since(c.runStart).Seconds()
	if elapsed <= 0 {
		return float64(c.fps)
	}
	return float64(achieved) / elapsed
}

// CheckDrift emits a warning (not fatal) through the clock's logger if the
// achieved capture rate over the run fell below 85% of target fps. A
// Clock created with a nil logger emits nothing.
func (c *Clock) CheckDrift() {
	achieved := c.AchievedFPS()
	if achieved < float64(c.fps)*driftThreshold && c.log != nil {
		c.log.Warnf("capture: achieved %.1f fps, target %d fps (drift below %.0f%%)", achieved, c.fps, driftThreshold*100)
	}
}
