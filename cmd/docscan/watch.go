package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/session"
	"github.com/ironsheep/docscan-mcp/internal/video"
)

var watchCmd = &cobra.Command{
	Use:   "watch <video>",
	Short: "Extract text whenever a stable document appears in a video",
	Long: `Sample frames from a video (or anything ffmpeg can open), detect the
document boundary in each and extract text once a boundary has stayed put
for the debounce interval. One JSON object is printed per extraction.

Examples:
  docscan watch desk.mp4
  docscan watch /dev/video0 --fps 10 --max-width 960`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Float64("fps", 0, "frames sampled per second (default DOCSCAN_FRAME_RATE)")
	watchCmd.Flags().Int("max-width", 1280, "scale frames down to this width (0 keeps the source size)")
	watchCmd.Flags().Duration("debounce", 0, "how long a boundary must be stable before extraction")
}

// watchEvent is printed for every delivered extraction.
type watchEvent struct {
	SessionID      string                `json:"session_id"`
	ExtractionID   string                `json:"extraction_id"`
	Boundary       detection.BoundingBox `json:"boundary"`
	Text           string                `json:"text,omitempty"`
	Confidence     float64               `json:"confidence,omitempty"`
	Method         string                `json:"method,omitempty"`
	SpellCorrected bool                  `json:"spell_corrected,omitempty"`
	Error          string                `json:"error,omitempty"`
	Elapsed        time.Duration         `json:"elapsed_ns"`
}

func newWatchEvent(res session.Result) watchEvent {
	ev := watchEvent{
		SessionID:    res.SessionID,
		ExtractionID: res.ExtractionID,
		Boundary:     res.Boundary,
		Elapsed:      res.Elapsed,
	}
	switch {
	case res.Err != nil:
		ev.Error = res.Err.Error()
	case res.Selection != nil:
		ev.Text = res.Selection.Best.Text
		ev.Confidence = res.Selection.Best.Confidence
		ev.Method = res.Selection.Best.Method.String()
		ev.SpellCorrected = res.Selection.SpellCorrected
	}
	return ev
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, _, p, err := setup(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	fps, _ := cmd.Flags().GetFloat64("fps")
	if fps <= 0 {
		fps = cfg.FrameRate
	}
	maxWidth, _ := cmd.Flags().GetInt("max-width")
	sessOpts := cfg.Session()
	if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
		sessOpts.Debounce = d
	}
	sessOpts.Logger = logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	enc := json.NewEncoder(cmd.OutOrStdout())
	onResult := func(res session.Result) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(newWatchEvent(res)); err != nil {
			logger.Error("failed to write result", "error", err)
		}
	}
	ctrl := session.New(ctx, p.Extractor(), onResult, sessOpts)
	defer ctrl.Close()

	path := args[0]
	frames, errc := video.Frames(ctx, path, video.Options{
		FPS:      fps,
		MaxWidth: maxWidth,
		Logger:   logger,
	})

	// Pace file input at the sampling rate so the debounce runs on video time.
	limiter := rate.NewLimiter(rate.Limit(fps), 1)
	for frame := range frames {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		res, err := p.Detect(ctx, frame.Image)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("detection failed", "frame", frame.Index, "error", err)
			ctrl.Observe(frame.Image, nil)
			continue
		}
		var box *detection.BoundingBox
		if res.Found() {
			box = &res.Candidate.BoundingBox
		}
		logger.Debug("frame", "index", frame.Index, "found", box != nil)
		ctrl.Observe(frame.Image, box)
	}
	// Drain so the decoder goroutine can exit.
	for range frames {
	}

	if err := <-errc; err != nil && ctx.Err() == nil {
		return err
	}

	// Give the last stable boundary its chance to be extracted.
	select {
	case <-time.After(sessOpts.Debounce + 50*time.Millisecond):
	case <-ctx.Done():
	}
	ctrl.Wait()

	stats := ctrl.Stats()
	logger.Info("watch finished",
		"session", ctrl.ID(),
		"observed", stats.Observed,
		"extractions", stats.Started,
		"delivered", stats.Delivered,
		"stale", stats.Stale)
	return nil
}
