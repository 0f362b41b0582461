// Package tesseract implements the ocr.Engine contract on top of the
// Tesseract engine (via gosseract/v2).
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The engine requires cgo. Binaries built with CGO_ENABLED=0 still link, but
// every call fails with ErrUnavailable so detection keeps working without
// OCR.
package tesseract

import (
	"errors"
)

// ErrUnavailable is returned when the binary was built without Tesseract
// support.
var ErrUnavailable = errors.New("tesseract support not compiled in (built without cgo)")

// Config configures an Engine.
type Config struct {
	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the Tesseract default.
	TessdataPrefix string

	// DefaultLanguage is used when a call does not name a language.
	DefaultLanguage string
}

// Info describes the OCR backend.
type Info struct {
	Available      bool   `json:"available"`
	Version        string `json:"version,omitempty"`
	Error          string `json:"error,omitempty"`
	Backend        string `json:"backend"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
}

// Backend names the OCR implementation reported by Info.
const Backend = "gosseract"

func (c Config) language(requested string) string {
	switch {
	case requested != "":
		return requested
	case c.DefaultLanguage != "":
		return c.DefaultLanguage
	default:
		return "eng"
	}
}
