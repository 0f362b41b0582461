package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Find the document boundary in an image",
	Long: `Find the document boundary in an image and print it as JSON.

Examples:
  docscan detect receipt.jpg
  docscan detect scan.png --min-area 5000`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runDetect,
}

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract the text of the document in an image",
	Long: `Find the document boundary in an image, crop to it and extract its
text. When no boundary is found the whole image is read.

Examples:
  docscan extract receipt.jpg
  docscan extract receipt.jpg --fast
  docscan extract page.png --no-detect -l deu`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runExtract,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("no-detect", false, "read the whole image without looking for a boundary")
	extractCmd.Flags().Bool("text", false, "print only the extracted text")
}

type detectOutput struct {
	Path      string                     `json:"path"`
	Width     int                        `json:"width"`
	Height    int                        `json:"height"`
	Detection *detection.DetectionResult `json:"detection"`
	Elapsed   time.Duration              `json:"elapsed_ns"`
}

type extractOutput struct {
	Path      string                     `json:"path"`
	Detection *detection.DetectionResult `json:"detection,omitempty"`
	Selection *ocr.Selection             `json:"selection"`
	Elapsed   time.Duration              `json:"elapsed_ns"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	_, _, _, p, err := setup(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	path := args[0]
	img, err := p.Load(path)
	if err != nil {
		return err
	}
	start := time.Now()
	res, err := p.DetectFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), detectOutput{
		Path:      path,
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		Detection: res,
		Elapsed:   time.Since(start),
	})
}

func runExtract(cmd *cobra.Command, args []string) error {
	_, _, _, p, err := setup(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	noDetect, _ := cmd.Flags().GetBool("no-detect")
	textOnly, _ := cmd.Flags().GetBool("text")

	path := args[0]
	img, err := p.Load(path)
	if err != nil {
		return err
	}

	start := time.Now()
	out := extractOutput{Path: path}
	var box *detection.BoundingBox
	if !noDetect {
		res, err := p.Detect(cmd.Context(), img)
		if err != nil {
			return err
		}
		out.Detection = res
		if res.Found() {
			box = &res.Candidate.BoundingBox
		}
	}

	sel, err := p.Extract(cmd.Context(), img, box)
	if err != nil {
		return fmt.Errorf("text extraction failed: %w", err)
	}
	out.Selection = sel
	out.Elapsed = time.Since(start)

	if textOnly {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), sel.Best.Text)
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
