package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/docscan-mcp/internal/ocr/tesseract"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "docscan %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)

		info := tesseract.New(tesseract.Config{}).Info()
		if info.Available {
			fmt.Fprintf(out, "  OCR: %s (tesseract %s)\n", info.Backend, info.Version)
		} else {
			fmt.Fprintf(out, "  OCR: unavailable (%s)\n", info.Error)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
