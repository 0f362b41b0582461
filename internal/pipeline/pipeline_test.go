package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
)

// createDocumentFrame draws a gray 100x90 rectangle at (50,30) on a white
// 200x150 frame.
func createDocumentFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x >= 50 && x < 150 && y >= 30 && y < 120 {
				c = color.RGBA{128, 128, 128, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func createBlankFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// sizeEngine records the size of every image it is asked to recognize.
type sizeEngine struct {
	mu    sync.Mutex
	sizes []image.Point
}

func (e *sizeEngine) Recognize(ctx context.Context, img image.Image, opts ocr.RecognizeOptions) (*ocr.Recognition, error) {
	e.mu.Lock()
	e.sizes = append(e.sizes, img.Bounds().Size())
	e.mu.Unlock()
	return &ocr.Recognition{
		Text:       "Invoice total due",
		Confidence: 85,
		Words: []ocr.Word{
			{Text: "Invoice", Confidence: 84},
			{Text: "total", Confidence: 86},
			{Text: "due", Confidence: 85},
		},
	}, nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Detection.MinBoundaryArea = 100
	return opts
}

func TestProcess_FindsAndExtracts(t *testing.T) {
	engine := &sizeEngine{}
	p := New(engine, testOptions(), nil)
	defer p.Close()

	report, err := p.Process(context.Background(), createDocumentFrame())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !report.Detection.Found() {
		t.Fatal("expected a boundary")
	}
	box := report.Detection.Candidate.BoundingBox
	if absInt(box.X-50) > 5 || absInt(box.Y-30) > 5 || absInt(box.Width-100) > 5 || absInt(box.Height-90) > 5 {
		t.Errorf("boundary %+v not within 5px of {50,30,100,90}", box)
	}
	if report.Selection == nil || report.Selection.Best.Text != "Invoice total due" {
		t.Fatalf("unexpected selection: %+v", report.Selection)
	}

	if len(engine.sizes) != len(ocr.AllMethods) {
		t.Fatalf("expected %d engine calls, got %d", len(ocr.AllMethods), len(engine.sizes))
	}
	want := image.Pt(box.Width+2*DefaultCropPadding, box.Height+2*DefaultCropPadding)
	for _, got := range engine.sizes {
		if got != want {
			t.Errorf("engine saw %v, want crop %v", got, want)
		}
	}
}

func TestProcess_BlankFrame(t *testing.T) {
	engine := &sizeEngine{}
	p := New(engine, testOptions(), nil)
	defer p.Close()

	report, err := p.Process(context.Background(), createBlankFrame())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if report.Detection.Found() {
		t.Errorf("unexpected boundary: %+v", report.Detection.Candidate)
	}
	if report.Selection != nil {
		t.Error("selection should be nil without a boundary")
	}
	if len(engine.sizes) != 0 {
		t.Errorf("engine called %d times without a boundary", len(engine.sizes))
	}
}

func TestExtract_WholeImage(t *testing.T) {
	engine := &sizeEngine{}
	opts := testOptions()
	opts.OCR.FastMode = true
	p := New(engine, opts, nil)
	defer p.Close()

	if _, err := p.Extract(context.Background(), createBlankFrame(), nil); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(engine.sizes) != 1 || engine.sizes[0] != image.Pt(200, 150) {
		t.Errorf("engine saw %v, want one 200x150 image", engine.sizes)
	}
}

func TestExtract_BoxOutsideImage(t *testing.T) {
	p := New(&sizeEngine{}, testOptions(), nil)
	defer p.Close()

	box := detection.BoundingBox{X: 500, Y: 500, Width: 10, Height: 10}
	if _, err := p.Extract(context.Background(), createBlankFrame(), &box); err == nil {
		t.Error("expected crop error")
	}
}

func TestExtract_AllVariantsFail(t *testing.T) {
	failing := ocr.EngineFunc(func(ctx context.Context, img image.Image, opts ocr.RecognizeOptions) (*ocr.Recognition, error) {
		return nil, errors.New("engine down")
	})
	p := New(failing, testOptions(), nil)
	defer p.Close()

	_, err := p.Extract(context.Background(), createDocumentFrame(), nil)
	if !errors.Is(err, ocr.ErrAllAttemptsFailed) {
		t.Errorf("expected ErrAllAttemptsFailed, got %v", err)
	}
}

func TestDetectFile_UsesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, createDocumentFrame()); err != nil {
		t.Fatal(err)
	}
	f.Close()

	p := New(&sizeEngine{}, testOptions(), nil)
	defer p.Close()

	res, err := p.DetectFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectFile failed: %v", err)
	}
	if !res.Found() {
		t.Error("expected a boundary")
	}
	if p.Cache().Len() != 1 {
		t.Errorf("cache len = %d, want 1", p.Cache().Len())
	}
}

func TestUnload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, createBlankFrame()); err != nil {
		t.Fatal(err)
	}
	f.Close()

	p := New(&sizeEngine{}, testOptions(), nil)
	defer p.Close()

	if _, err := p.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !p.Unload(path) {
		t.Error("Unload should report the cached image")
	}
	if p.Cache().Len() != 0 {
		t.Errorf("cache len = %d after Unload, want 0", p.Cache().Len())
	}
	if p.Unload(path) {
		t.Error("second Unload should report nothing cached")
	}

	// The file is read again after unloading.
	os.Remove(path)
	if _, err := p.Load(path); err == nil {
		t.Error("Load after Unload should read the removed file and fail")
	}
}

func TestClose(t *testing.T) {
	p := New(&sizeEngine{}, testOptions(), nil)
	p.Close()
	p.Close()

	if _, err := p.Detect(context.Background(), createBlankFrame()); !errors.Is(err, ErrClosed) {
		t.Errorf("Detect after Close: got %v, want ErrClosed", err)
	}
	if _, err := p.Load("anything.png"); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close: got %v, want ErrClosed", err)
	}
}

func TestDetect_Cancelled(t *testing.T) {
	p := New(&sizeEngine{}, testOptions(), nil)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Detect(ctx, createDocumentFrame()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestWithOverrides(t *testing.T) {
	engine := &sizeEngine{}
	p := New(engine, testOptions(), nil)
	defer p.Close()

	ocrOpts := p.Options().OCR
	ocrOpts.FastMode = true
	fast := p.WithOCR(ocrOpts)
	if _, err := fast.Extract(context.Background(), createBlankFrame(), nil); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(engine.sizes) != 1 {
		t.Errorf("fast override ran %d variants, want 1", len(engine.sizes))
	}
	if p.Options().OCR.FastMode {
		t.Error("override leaked into the original pipeline")
	}

	detOpts := p.Options().Detection
	detOpts.MinBoundaryArea = 50000
	strict := p.WithDetection(detOpts)
	res, err := strict.Detect(context.Background(), createDocumentFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if res.Found() {
		t.Error("boundary smaller than the override minimum was accepted")
	}

	p.Close()
	if _, err := fast.Detect(context.Background(), createBlankFrame()); !errors.Is(err, ErrClosed) {
		t.Errorf("derived pipeline should share the lifetime, got %v", err)
	}
}
