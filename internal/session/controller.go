package session

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
)

// DefaultDebounce is how long a boundary must stay unchanged before it is
// extracted.
const DefaultDebounce = 900 * time.Millisecond

// ExtractFunc extracts text from the boundary region of a frame.
type ExtractFunc func(ctx context.Context, frame image.Image, box detection.BoundingBox) (*ocr.Selection, error)

// Result is delivered once per completed, non-stale extraction.
type Result struct {
	SessionID    string                `json:"session_id"`
	ExtractionID string                `json:"extraction_id"`
	Boundary     detection.BoundingBox `json:"boundary"`
	Hash         uint64                `json:"hash"`
	Selection    *ocr.Selection        `json:"selection,omitempty"`
	Err          error                 `json:"-"`
	Elapsed      time.Duration         `json:"elapsed_ns"`
}

// Options configures a Controller.
type Options struct {
	Debounce        time.Duration
	HashGranularity int

	// Clock defaults to SystemClock.
	Clock Clock

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultOptions returns the session defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:        DefaultDebounce,
		HashGranularity: DefaultHashGranularity,
	}
}

// Stats counts controller activity.
type Stats struct {
	Observed  int `json:"observed"`
	Started   int `json:"started"`
	Delivered int `json:"delivered"`
	Stale     int `json:"stale"`
}

// Controller turns a stream of per-frame detections into debounced,
// single-flight extractions.
//
// A boundary whose hash equals the last accepted hash is ignored. Any other
// boundary (re)starts the debounce timer; when the timer fires and the
// boundary is still current, one extraction starts. At most one extraction
// runs at a time. When it completes, the result is delivered and its hash
// accepted unless the current boundary has changed meanwhile, in which case
// the result is stale and dropped.
//
// The owning context bounds the session: once it is done (or Close is
// called) pending timers are stopped, the in-flight extraction is cancelled
// and further observations are ignored.
type Controller struct {
	id       string
	opts     Options
	extract  ExtractFunc
	onResult func(Result)
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.Mutex

	closed bool

	accepted    uint64
	hasAccepted bool

	current    uint64
	hasCurrent bool
	frame      image.Image
	box        detection.BoundingBox

	timer      Timer
	timerHash  uint64
	generation uint64

	busy     bool
	inflight uint64
	queued   bool

	stats Stats
}

// New starts a session bound to ctx. onResult is called from the extraction
// goroutine and may be nil.
func New(ctx context.Context, extract ExtractFunc, onResult func(Result), opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.HashGranularity <= 0 {
		opts.HashGranularity = DefaultHashGranularity
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Controller{
		id:       uuid.NewString(),
		opts:     opts,
		extract:  extract,
		onResult: onResult,
	}
	c.log = opts.Logger.With("session", c.id)
	c.ctx, c.cancel = context.WithCancel(ctx)

	// Tear down when the owning context ends.
	go func() {
		<-c.ctx.Done()
		c.shutdown()
	}()

	c.log.Debug("session started", "debounce", opts.Debounce, "granularity", opts.HashGranularity)
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Observe reports the detection for one frame. A nil box means no boundary
// was found.
func (c *Controller) Observe(frame image.Image, box *detection.BoundingBox) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.stats.Observed++

	if box == nil {
		c.hasCurrent = false
		c.frame = nil
		c.stopTimer()
		return
	}

	h := Hash(*box, c.opts.HashGranularity)
	changed := !c.hasCurrent || c.current != h
	c.current, c.hasCurrent = h, true
	c.frame, c.box = frame, *box

	switch {
	case c.hasAccepted && h == c.accepted:
		c.stopTimer()
	case c.busy && h == c.inflight:
		c.stopTimer()
	case c.timer != nil && h == c.timerHash:
		// Unchanged boundary; let the pending timer run.
	default:
		if changed {
			c.log.Debug("boundary changed", "hash", h, "box", *box)
		}
		c.startTimer(h)
	}
}

// Close ends the session and waits for the in-flight extraction to return.
func (c *Controller) Close() {
	c.cancel()
	c.shutdown()
	c.wg.Wait()
}

// Wait blocks until no extraction is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Stats returns a snapshot of the activity counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimer()
	c.hasCurrent = false
	c.frame = nil
	c.queued = false
	c.log.Debug("session closed", "observed", c.stats.Observed, "started", c.stats.Started)
}

// startTimer replaces any pending timer. Callers hold mu.
func (c *Controller) startTimer(h uint64) {
	c.stopTimer()
	c.generation++
	gen := c.generation
	c.timerHash = h
	c.timer = c.opts.Clock.AfterFunc(c.opts.Debounce, func() { c.fire(h, gen) })
}

// stopTimer cancels the pending timer. Callers hold mu.
func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Controller) fire(h, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.closed {
		return
	}
	c.timer = nil
	if !c.hasCurrent || c.current != h {
		return
	}
	if c.busy {
		c.queued = true
		return
	}
	c.begin()
}

// begin starts extracting the current boundary. Callers hold mu.
func (c *Controller) begin() {
	c.busy = true
	c.inflight = c.current
	c.stats.Started++

	h, frame, box := c.current, c.frame, c.box
	c.wg.Add(1)
	go c.run(h, frame, box)
}

func (c *Controller) run(h uint64, frame image.Image, box detection.BoundingBox) {
	defer c.wg.Done()

	res := Result{
		SessionID:    c.id,
		ExtractionID: uuid.NewString(),
		Boundary:     box,
		Hash:         h,
	}
	log := c.log.With("extraction", res.ExtractionID)
	log.Info("extraction started", "box", box)

	start := c.opts.Clock.Now()
	res.Selection, res.Err = c.extract(c.ctx, frame, box)
	res.Elapsed = c.opts.Clock.Now().Sub(start)

	c.mu.Lock()
	c.busy = false
	stale := c.closed || !c.hasCurrent || c.current != h
	if stale {
		c.stats.Stale++
	} else {
		c.accepted, c.hasAccepted = h, true
		c.stats.Delivered++
	}
	if c.queued {
		c.queued = false
		if c.hasCurrent && !(c.hasAccepted && c.current == c.accepted) {
			c.begin()
		}
	}
	c.mu.Unlock()

	if stale {
		log.Info("dropping stale extraction result", "elapsed", res.Elapsed)
		return
	}
	if res.Err != nil {
		log.Warn("extraction failed", "error", res.Err, "elapsed", res.Elapsed)
	} else {
		log.Info("extraction complete",
			"method", res.Selection.Best.Method,
			"confidence", res.Selection.Best.Confidence,
			"elapsed", res.Elapsed)
	}
	if c.onResult != nil {
		c.onResult(res)
	}
}
