// Package config loads docscan settings from an optional .env file and
// DOCSCAN_* environment variables, and turns them into the option structs of
// the detection, ocr and session packages.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
	"github.com/ironsheep/docscan-mcp/internal/session"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DOCSCAN_"

// Config holds every setting of a docscan process. Detection, OCR and Session
// build the option structs the core packages take.
type Config struct {
	// Detection
	MinBoundaryArea   int
	MaxAreaRatio      float64
	CannyLow          float64
	CannyHigh         float64
	BlockSize         int
	ThresholdC        float64
	CombineResults    bool
	ParallelDetectors bool

	// OCR
	MultiPreprocessing  bool
	FastMode            bool
	ConfidenceThreshold float64
	SpellCheck          bool
	MaxAlternatives     int
	OCRConcurrency      int
	Language            string
	TessdataPrefix      string

	// Session
	Debounce        time.Duration
	HashGranularity int

	// watch
	FrameRate float64

	// logging
	LogLevel string
}

// Default returns the built-in settings.
func Default() Config {
	det := detection.DefaultOptions()
	ocrOpts := ocr.DefaultOptions()
	return Config{
		MinBoundaryArea:   det.MinBoundaryArea,
		MaxAreaRatio:      det.MaxAreaRatio,
		CannyLow:          det.CannyLow,
		CannyHigh:         det.CannyHigh,
		BlockSize:         det.BlockSize,
		ThresholdC:        det.ThresholdC,
		CombineResults:    det.CombineResults,
		ParallelDetectors: true,

		MultiPreprocessing:  ocrOpts.MultiPreprocessing,
		FastMode:            ocrOpts.FastMode,
		ConfidenceThreshold: ocrOpts.ConfidenceThreshold,
		SpellCheck:          ocrOpts.SpellCheck,
		MaxAlternatives:     ocrOpts.MaxAlternatives,
		Language:            ocrOpts.Language,

		Debounce:        session.DefaultDebounce,
		HashGranularity: session.DefaultHashGranularity,

		FrameRate: 5,
		LogLevel:  "info",
	}
}

// Load reads envFile (when non-empty and present) into the process
// environment without overriding variables that are already set, then
// applies DOCSCAN_* overrides on top of Default.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	d := Default()
	cfg := Config{
		MinBoundaryArea:   envInt("MIN_BOUNDARY_AREA", d.MinBoundaryArea),
		MaxAreaRatio:      envFloat("MAX_AREA_RATIO", d.MaxAreaRatio),
		CannyLow:          envFloat("CANNY_LOW", d.CannyLow),
		CannyHigh:         envFloat("CANNY_HIGH", d.CannyHigh),
		BlockSize:         envInt("BLOCK_SIZE", d.BlockSize),
		ThresholdC:        envFloat("THRESHOLD_C", d.ThresholdC),
		CombineResults:    envBool("COMBINE_RESULTS", d.CombineResults),
		ParallelDetectors: envBool("PARALLEL_DETECTORS", d.ParallelDetectors),

		MultiPreprocessing:  envBool("MULTI_PREPROCESSING", d.MultiPreprocessing),
		FastMode:            envBool("FAST_MODE", d.FastMode),
		ConfidenceThreshold: envFloat("CONFIDENCE_THRESHOLD", d.ConfidenceThreshold),
		SpellCheck:          envBool("SPELL_CHECK", d.SpellCheck),
		MaxAlternatives:     envInt("MAX_ALTERNATIVES", d.MaxAlternatives),
		OCRConcurrency:      envInt("OCR_CONCURRENCY", d.OCRConcurrency),
		Language:            envStr("LANGUAGE", d.Language),
		TessdataPrefix:      envStr("TESSDATA_PREFIX", d.TessdataPrefix),

		Debounce:        envDur("DEBOUNCE", d.Debounce),
		HashGranularity: envInt("HASH_GRANULARITY", d.HashGranularity),

		FrameRate: envFloat("FRAME_RATE", d.FrameRate),
		LogLevel:  envStr("LOG_LEVEL", d.LogLevel),
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.MinBoundaryArea < 0:
		return fmt.Errorf("min boundary area must not be negative, got %d", c.MinBoundaryArea)
	case c.MaxAreaRatio < 0 || c.MaxAreaRatio > 1:
		return fmt.Errorf("max area ratio must be within [0, 1], got %g", c.MaxAreaRatio)
	case c.CannyLow < 0 || c.CannyHigh < 0:
		return fmt.Errorf("canny thresholds must not be negative, got %g/%g", c.CannyLow, c.CannyHigh)
	case c.BlockSize < 3:
		return fmt.Errorf("block size must be at least 3, got %d", c.BlockSize)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100:
		return fmt.Errorf("confidence threshold must be within [0, 100], got %g", c.ConfidenceThreshold)
	case c.MaxAlternatives < 0:
		return fmt.Errorf("max alternatives must not be negative, got %d", c.MaxAlternatives)
	case c.OCRConcurrency < 0:
		return fmt.Errorf("ocr concurrency must not be negative, got %d", c.OCRConcurrency)
	case c.Language == "":
		return errors.New("language must not be empty")
	case c.Debounce <= 0:
		return fmt.Errorf("debounce must be positive, got %s", c.Debounce)
	case c.HashGranularity < 1:
		return fmt.Errorf("hash granularity must be at least 1, got %d", c.HashGranularity)
	case c.FrameRate <= 0:
		return fmt.Errorf("frame rate must be positive, got %g", c.FrameRate)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Detection returns the detection options.
func (c Config) Detection() detection.Options {
	return detection.Options{
		MinBoundaryArea: c.MinBoundaryArea,
		MaxAreaRatio:    c.MaxAreaRatio,
		CannyLow:        c.CannyLow,
		CannyHigh:       c.CannyHigh,
		BlockSize:       c.BlockSize,
		ThresholdC:      c.ThresholdC,
		CombineResults:  c.CombineResults,
		Parallel:        c.ParallelDetectors,
	}
}

// OCR returns the extraction options.
func (c Config) OCR() ocr.Options {
	opts := ocr.DefaultOptions()
	opts.MultiPreprocessing = c.MultiPreprocessing
	opts.FastMode = c.FastMode
	opts.ConfidenceThreshold = c.ConfidenceThreshold
	opts.SpellCheck = c.SpellCheck
	opts.MaxAlternatives = c.MaxAlternatives
	opts.Concurrency = c.OCRConcurrency
	opts.BlockSize = c.BlockSize
	opts.ThresholdC = c.ThresholdC
	opts.Language = c.Language
	return opts
}

// Session returns the session options. Clock and logger are left to the
// caller.
func (c Config) Session() session.Options {
	return session.Options{
		Debounce:        c.Debounce,
		HashGranularity: c.HashGranularity,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
