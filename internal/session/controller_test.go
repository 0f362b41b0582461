package session

import (
	"context"
	"errors"
	"image"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// Advance moves time forward and runs due timers in order on the calling
// goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.when.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].when.Before(due[j].when) })
	for _, t := range due {
		t.f()
	}
}

// recorder is an ExtractFunc that records the boxes it was asked to extract.
type recorder struct {
	mu      sync.Mutex
	boxes   []detection.BoundingBox
	results []Result
	release chan struct{}
	err     error

	running    int
	maxRunning int
}

func (r *recorder) extract(ctx context.Context, frame image.Image, box detection.BoundingBox) (*ocr.Selection, error) {
	r.mu.Lock()
	r.boxes = append(r.boxes, box)
	r.running++
	r.maxRunning = max(r.maxRunning, r.running)
	release := r.release
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running--
		r.mu.Unlock()
	}()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &ocr.Selection{Best: ocr.Attempt{Text: "text", Confidence: 80}}, nil
}

func (r *recorder) onResult(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) extracted() []detection.BoundingBox {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]detection.BoundingBox(nil), r.boxes...)
}

func (r *recorder) delivered() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func newTestController(t *testing.T, rec *recorder) (*Controller, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts := DefaultOptions()
	opts.Clock = clock
	c := New(context.Background(), rec.extract, rec.onResult, opts)
	t.Cleanup(c.Close)
	return c, clock
}

var (
	frame = image.NewRGBA(image.Rect(0, 0, 200, 150))
	boxA  = detection.BoundingBox{X: 50, Y: 30, Width: 100, Height: 90}
	boxB  = detection.BoundingBox{X: 20, Y: 10, Width: 160, Height: 120}
)

func TestController_DebouncedExtraction(t *testing.T) {
	rec := &recorder{}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce - time.Millisecond)
	c.Wait()
	if n := len(rec.extracted()); n != 0 {
		t.Fatalf("extraction started before debounce elapsed: %d", n)
	}

	clock.Advance(time.Millisecond)
	c.Wait()
	got := rec.extracted()
	if len(got) != 1 || got[0] != boxA {
		t.Fatalf("expected one extraction of %v, got %v", boxA, got)
	}

	results := rec.delivered()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].SessionID != c.ID() || results[0].ExtractionID == "" {
		t.Errorf("unexpected ids: %+v", results[0])
	}
	if results[0].Hash != Hash(boxA, DefaultHashGranularity) {
		t.Error("result hash does not match the boundary")
	}
}

func TestController_SameBoundaryTwice(t *testing.T) {
	rec := &recorder{}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)
	c.Wait()

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)
	c.Wait()

	if n := len(rec.extracted()); n != 1 {
		t.Errorf("expected 1 extraction, got %d", n)
	}
}

func TestController_JitterKeepsHash(t *testing.T) {
	rec := &recorder{}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)
	c.Wait()

	jitter := detection.BoundingBox{X: boxA.X + 2, Y: boxA.Y - 1, Width: boxA.Width + 1, Height: boxA.Height}
	c.Observe(frame, &jitter)
	clock.Advance(DefaultDebounce)
	c.Wait()

	if n := len(rec.extracted()); n != 1 {
		t.Errorf("jitter triggered re-extraction: %d extractions", n)
	}
}

func TestController_ChangeRestartsTimer(t *testing.T) {
	rec := &recorder{}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(500 * time.Millisecond)
	c.Observe(frame, &boxB)
	clock.Advance(500 * time.Millisecond)
	c.Wait()
	if n := len(rec.extracted()); n != 0 {
		t.Fatalf("expected no extraction yet, got %d", n)
	}

	clock.Advance(400 * time.Millisecond)
	c.Wait()
	got := rec.extracted()
	if len(got) != 1 || got[0] != boxB {
		t.Fatalf("expected only %v to be extracted, got %v", boxB, got)
	}
}

func TestController_UnchangedBoundaryDoesNotResetTimer(t *testing.T) {
	rec := &recorder{}
	c, clock := newTestController(t, rec)

	for i := 0; i < 9; i++ {
		c.Observe(frame, &boxA)
		clock.Advance(100 * time.Millisecond)
	}
	c.Wait()
	if n := len(rec.extracted()); n != 1 {
		t.Errorf("expected 1 extraction after a stable stream, got %d", n)
	}
}

func TestController_BoundaryLostBeforeFire(t *testing.T) {
	rec := &recorder{}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(300 * time.Millisecond)
	c.Observe(frame, nil)
	clock.Advance(DefaultDebounce)
	c.Wait()

	if n := len(rec.extracted()); n != 0 {
		t.Errorf("expected no extraction, got %d", n)
	}
}

func TestController_StaleResultDropped(t *testing.T) {
	rec := &recorder{release: make(chan struct{})}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)

	// Boundary moves while A is being extracted.
	c.Observe(frame, &boxB)
	close(rec.release)
	c.Wait()

	if n := len(rec.delivered()); n != 0 {
		t.Fatalf("stale result delivered: %d", n)
	}
	if s := c.Stats(); s.Stale != 1 {
		t.Errorf("Stats.Stale = %d, want 1", s.Stale)
	}

	// A was never accepted, so B proceeds normally.
	clock.Advance(DefaultDebounce)
	c.Wait()
	results := rec.delivered()
	if len(results) != 1 || results[0].Boundary != boxB {
		t.Fatalf("expected B to be delivered, got %+v", results)
	}
}

func TestController_SingleFlight(t *testing.T) {
	rec := &recorder{release: make(chan struct{})}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)

	// B becomes stable while A is still running.
	c.Observe(frame, &boxB)
	clock.Advance(DefaultDebounce)

	close(rec.release)
	c.Wait()

	rec.mu.Lock()
	maxRunning := rec.maxRunning
	rec.mu.Unlock()
	if maxRunning != 1 {
		t.Errorf("max concurrent extractions = %d, want 1", maxRunning)
	}

	got := rec.extracted()
	if len(got) != 2 || got[0] != boxA || got[1] != boxB {
		t.Fatalf("expected A then B, got %v", got)
	}
	results := rec.delivered()
	if len(results) != 1 || results[0].Boundary != boxB {
		t.Errorf("expected only B delivered, got %+v", results)
	}
}

func TestController_FailureAccepted(t *testing.T) {
	rec := &recorder{err: ocr.ErrAllAttemptsFailed}
	c, clock := newTestController(t, rec)

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)
	c.Wait()

	results := rec.delivered()
	if len(results) != 1 || !errors.Is(results[0].Err, ocr.ErrAllAttemptsFailed) {
		t.Fatalf("expected a failure result, got %+v", results)
	}

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)
	c.Wait()
	if n := len(rec.extracted()); n != 1 {
		t.Errorf("failed boundary retried without changing: %d extractions", n)
	}
}

func TestController_ContextCancel(t *testing.T) {
	rec := &recorder{release: make(chan struct{})}
	clock := newFakeClock()
	opts := DefaultOptions()
	opts.Clock = clock

	ctx, cancel := context.WithCancel(context.Background())
	c := New(ctx, rec.extract, rec.onResult, opts)

	c.Observe(frame, &boxA)
	clock.Advance(DefaultDebounce)
	cancel()
	c.Close()

	if n := len(rec.delivered()); n != 0 {
		t.Errorf("result delivered after cancellation: %d", n)
	}

	c.Observe(frame, &boxB)
	clock.Advance(DefaultDebounce)
	c.Wait()
	if n := len(rec.extracted()); n != 1 {
		t.Errorf("extraction started after close: %d", n)
	}
}

func TestController_Defaults(t *testing.T) {
	c := New(context.Background(), (&recorder{}).extract, nil, Options{})
	defer c.Close()

	if c.opts.Debounce != DefaultDebounce {
		t.Errorf("Debounce = %v, want %v", c.opts.Debounce, DefaultDebounce)
	}
	if c.opts.HashGranularity != DefaultHashGranularity {
		t.Errorf("HashGranularity = %d, want %d", c.opts.HashGranularity, DefaultHashGranularity)
	}
	if c.ID() == "" {
		t.Error("expected a session id")
	}
}
