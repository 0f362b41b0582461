package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/docscan-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools over stdin/stdout",
	Long: `Serve the document tools over the MCP protocol (JSON-RPC 2.0, one
message per line on stdin/stdout). Configure it in your MCP client.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	_, logger, engine, p, err := setup(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info := engine.Info()
	logger.Info("starting MCP server",
		"version", Version,
		"commit", GitCommit,
		"ocr_available", info.Available,
		"ocr_version", info.Version)

	srv := server.New(p, engine.Info, logger, Version)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}
