package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// pngStream concatenates n encoded frames, each filled with a distinct gray.
func pngStream(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		img := image.NewGray(image.Rect(0, 0, 8, 6))
		for j := range img.Pix {
			img.Pix[j] = uint8(i * 40)
		}
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("failed to encode frame: %v", err)
		}
	}
	return buf.Bytes()
}

func collect(t *testing.T, data []byte) ([]Frame, error) {
	t.Helper()
	frames := make(chan Frame)
	var got []Frame
	done := make(chan struct{})
	go func() {
		for f := range frames {
			got = append(got, f)
		}
		close(done)
	}()
	_, err := Decode(context.Background(), bytes.NewReader(data), frames)
	close(frames)
	<-done
	return got, err
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		frames int
	}{
		{"empty", 0},
		{"single", 1},
		{"several", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(t, pngStream(t, tt.frames))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(got) != tt.frames {
				t.Fatalf("got %d frames, want %d", len(got), tt.frames)
			}
			for i, f := range got {
				if f.Index != i {
					t.Errorf("frame %d has index %d", i, f.Index)
				}
				if f.Image.Bounds().Dx() != 8 || f.Image.Bounds().Dy() != 6 {
					t.Errorf("frame %d size = %v", i, f.Image.Bounds())
				}
				gray := color.GrayModel.Convert(f.Image.At(0, 0)).(color.Gray)
				if gray.Y != uint8(i*40) {
					t.Errorf("frame %d out of order: gray %d", i, gray.Y)
				}
			}
		})
	}
}

func TestDecode_Truncated(t *testing.T) {
	data := pngStream(t, 2)
	got, err := collect(t, data[:len(data)-20])
	if err == nil {
		t.Fatal("expected an error for a truncated stream")
	}
	if len(got) != 1 {
		t.Errorf("expected the complete first frame, got %d", len(got))
	}
}

func TestDecode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames := make(chan Frame)
	n, err := Decode(ctx, bytes.NewReader(pngStream(t, 3)), frames)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n != 0 {
		t.Errorf("sent %d frames after cancellation", n)
	}
}

func TestOutputArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantRate string
		wantVF   string
	}{
		{"source size", Options{FPS: 5}, "5", ""},
		{"fractional rate", Options{FPS: 2.5}, "2.5", ""},
		{"downscale only", Options{FPS: 10, MaxWidth: 1280}, "10", "scale='min(1280,iw)':-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kw := outputArgs(tt.opts)
			if kw["format"] != "image2pipe" || kw["vcodec"] != "png" {
				t.Errorf("unexpected pipe format: %v", kw)
			}
			if kw["r"] != tt.wantRate {
				t.Errorf("rate: got %v, want %s", kw["r"], tt.wantRate)
			}
			vf, ok := kw["vf"]
			if tt.wantVF == "" {
				if ok {
					t.Errorf("unexpected filter %v", vf)
				}
				return
			}
			if vf != tt.wantVF {
				t.Errorf("filter: got %v, want %s", vf, tt.wantVF)
			}
		})
	}
}

func TestFrames_MissingFile(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	frames, errc := Frames(ctx, filepath.Join(t.TempDir(), "missing.mp4"), Options{})
	for range frames {
		t.Error("unexpected frame")
	}
	if err := <-errc; err == nil {
		t.Error("expected an error for a missing file")
	}
}
