package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var (
	// ErrEngineFailure marks a variant the engine produced no usable text for.
	ErrEngineFailure = errors.New("ocr engine failure")

	// ErrAllAttemptsFailed is returned when every variant failed or came back
	// empty.
	ErrAllAttemptsFailed = errors.New("all ocr attempts failed")

	errEmptyText = errors.New("empty text")
)

// Word is one recognized word.
type Word struct {
	Text string `json:"text"`

	// Confidence is the engine's word confidence, 0-100.
	Confidence float64 `json:"confidence"`

	// Box locates the word in the recognized image.
	Box image.Rectangle `json:"box"`
}

// Recognition is the outcome of one engine call.
type Recognition struct {
	Text string `json:"text"`

	// Confidence is the engine's overall confidence, 0-100.
	Confidence float64 `json:"confidence"`

	Words []Word `json:"words"`
}

// RecognizeOptions are passed through to the engine unchanged.
type RecognizeOptions struct {
	// Language is an engine language code such as "eng".
	Language string

	// PageSegMode is the engine's page segmentation mode. Zero leaves the
	// engine default.
	PageSegMode int
}

// Engine is an external text recognizer. Recognize blocks until the engine
// produces a result or fails; implementations should return promptly once
// ctx is done.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, opts RecognizeOptions) (*Recognition, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image, opts RecognizeOptions) (*Recognition, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, img image.Image, opts RecognizeOptions) (*Recognition, error) {
	return f(ctx, img, opts)
}

// AttemptError reports why a preprocessing variant produced no attempt. It
// matches ErrEngineFailure as well as the underlying cause.
type AttemptError struct {
	Method Method
	Err    error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s variant: %v", e.Method, e.Err)
}

// Unwrap returns both the engine failure marker and the cause.
func (e *AttemptError) Unwrap() []error {
	return []error{ErrEngineFailure, e.Err}
}
