// Command docscan finds document boundaries in images and video and
// extracts their text.
//
// Run without a subcommand it serves the MCP tools over stdin/stdout.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/ocr/tesseract"
	"github.com/ironsheep/docscan-mcp/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "docscan",
	Short: "Document boundary detection and OCR",
	Long: `docscan locates the outline of a document in an image or video frame
and reads its text by running several preprocessing variants through
Tesseract and keeping the best result.

Without a subcommand it runs as an MCP server on stdin/stdout.

Settings are read from DOCSCAN_* environment variables (optionally loaded
from a .env file) and may be overridden with flags.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", ".env", "environment file to load before reading DOCSCAN_* variables")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Int("min-area", 0, "minimum boundary area in pixels")
	flags.Bool("fast", false, "run only the adaptive-binary variant on a downscaled image")
	flags.Bool("spell-check", true, "apply spell correction to the selected text")
	flags.Float64("confidence", 0, "minimum OCR confidence (0-100)")
	flags.StringP("language", "l", "", "Tesseract language")
	flags.Bool("parallel", true, "run boundary detectors concurrently")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment configuration and applies any flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("min-area") {
		cfg.MinBoundaryArea, _ = flags.GetInt("min-area")
	}
	if flags.Changed("fast") {
		cfg.FastMode, _ = flags.GetBool("fast")
	}
	if flags.Changed("spell-check") {
		cfg.SpellCheck, _ = flags.GetBool("spell-check")
	}
	if flags.Changed("confidence") {
		cfg.ConfidenceThreshold, _ = flags.GetFloat64("confidence")
	}
	if flags.Changed("language") {
		cfg.Language, _ = flags.GetString("language")
	}
	if flags.Changed("parallel") {
		cfg.ParallelDetectors, _ = flags.GetBool("parallel")
	}
	return cfg, cfg.Validate()
}

// newLogger writes text logs to stderr; stdout carries protocol and results.
func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}

// setup loads the configuration and builds the logger, OCR engine and
// pipeline shared by every subcommand.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, *tesseract.Engine, *pipeline.Pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, nil, err
	}

	engine := tesseract.New(tesseract.Config{
		TessdataPrefix:  cfg.TessdataPrefix,
		DefaultLanguage: cfg.Language,
	})
	p := pipeline.New(engine, pipeline.Options{
		Detection:   cfg.Detection(),
		OCR:         cfg.OCR(),
		CropPadding: pipeline.DefaultCropPadding,
	}, logger)
	return cfg, logger, engine, p, nil
}
