// Package video streams decoded frames out of a video file.
//
// Frames are produced by ffmpeg (via ffmpeg-go) as a PNG image2pipe stream
// and decoded one at a time, so memory use does not grow with the length of
// the video. The ffmpeg binary must be on PATH.
package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DefaultFPS is the sampling rate used when Options.FPS is not positive.
const DefaultFPS = 5

// Frame is one decoded video frame.
type Frame struct {
	Index int
	Image image.Image
}

// Options configures frame extraction.
type Options struct {
	// FPS is the number of frames sampled per second of video.
	FPS float64

	// MaxWidth scales wider frames down to this width, keeping the aspect
	// ratio. Narrower frames and zero keep the source size.
	MaxWidth int

	// Stderr receives ffmpeg's diagnostic output. Nil discards it.
	Stderr io.Writer

	Logger *slog.Logger
}

// Frames starts ffmpeg on path and returns a channel of decoded frames. The
// frame channel is closed when the video ends, decoding fails or ctx is
// done; the error channel then yields exactly one value, nil on a clean end.
func Frames(ctx context.Context, path string, opts Options) (<-chan Frame, <-chan error) {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r, w := io.Pipe()
	stream := ffmpeg.Input(path).
		Output("pipe:1", outputArgs(opts)).
		WithOutput(w).
		WithErrorOutput(opts.Stderr)
	stream.Context = ctx

	go func() {
		err := stream.Run()
		if err != nil {
			err = fmt.Errorf("ffmpeg failed on %s: %w", path, err)
		}
		w.CloseWithError(err)
	}()

	frames := make(chan Frame)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(frames)
		defer r.Close()

		n, err := Decode(ctx, r, frames)
		opts.Logger.Debug("video stream ended", "path", path, "frames", n, "error", err)
		errc <- err
	}()
	return frames, errc
}

// outputArgs builds the ffmpeg output options for a PNG frame pipe. Frames
// wider than MaxWidth are scaled down; narrower ones keep their size.
func outputArgs(opts Options) ffmpeg.KwArgs {
	kw := ffmpeg.KwArgs{
		"format": "image2pipe",
		"vcodec": "png",
		"r":      strconv.FormatFloat(opts.FPS, 'f', -1, 64),
	}
	if opts.MaxWidth > 0 {
		kw["vf"] = fmt.Sprintf("scale='min(%d,iw)':-2", opts.MaxWidth)
	}
	return kw
}

// Decode reads consecutive PNG images from r and sends them on frames until
// r is exhausted. It returns the number of frames sent.
func Decode(ctx context.Context, r io.Reader, frames chan<- Frame) (int, error) {
	br := bufio.NewReader(r)
	n := 0
	for {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}

		img, err := png.Decode(br)
		if err != nil {
			return n, fmt.Errorf("decode frame %d failed: %w", n, err)
		}

		select {
		case frames <- Frame{Index: n, Image: img}:
			n++
		case <-ctx.Done():
			return n, ctx.Err()
		}
	}
}
