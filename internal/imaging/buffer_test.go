package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestPixelBuffer_Valid(t *testing.T) {
	tests := []struct {
		name string
		buf  PixelBuffer
		want bool
	}{
		{"gray", PixelBuffer{Width: 2, Height: 2, Channels: 1, Pix: make([]uint8, 4)}, true},
		{"rgb", PixelBuffer{Width: 2, Height: 2, Channels: 3, Pix: make([]uint8, 12)}, true},
		{"rgba", PixelBuffer{Width: 2, Height: 2, Channels: 4, Pix: make([]uint8, 16)}, true},
		{"two channels", PixelBuffer{Width: 2, Height: 2, Channels: 2, Pix: make([]uint8, 8)}, false},
		{"short pix", PixelBuffer{Width: 2, Height: 2, Channels: 3, Pix: make([]uint8, 11)}, false},
		{"zero width", PixelBuffer{Width: 0, Height: 2, Channels: 1}, false},
		{"negative height", PixelBuffer{Width: 2, Height: -2, Channels: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.buf.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromImage_SubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	src.SetNRGBA(5, 6, color.NRGBA{10, 20, 30, 255})
	sub := src.SubImage(image.Rect(4, 4, 8, 8))

	buf := FromImage(sub)
	if buf.Width != 4 || buf.Height != 4 || buf.Channels != 4 {
		t.Fatalf("buffer: got %dx%dx%d, want 4x4x4", buf.Width, buf.Height, buf.Channels)
	}
	// (5,6) in the source is (1,2) in the sub-image
	off := (2*4 + 1) * 4
	if buf.Pix[off] != 10 || buf.Pix[off+1] != 20 || buf.Pix[off+2] != 30 {
		t.Errorf("pixel (1,2): got %v, want [10 20 30 255]", buf.Pix[off:off+4])
	}
}

func TestFromImage_Generic(t *testing.T) {
	img := createInMemoryImage(3, 2, color.RGBA{200, 100, 50, 255})
	buf := FromImage(img)
	if !buf.Valid() {
		t.Fatal("FromImage produced an invalid buffer")
	}
	if buf.Pix[0] != 200 || buf.Pix[1] != 100 || buf.Pix[2] != 50 || buf.Pix[3] != 255 {
		t.Errorf("first pixel: got %v", buf.Pix[:4])
	}
}

func TestFromImage_Empty(t *testing.T) {
	buf := FromImage(image.NewRGBA(image.Rectangle{}))
	if buf.Valid() {
		t.Error("empty image should give an invalid buffer")
	}
}

func TestPixelBuffer_ImageRoundTrip(t *testing.T) {
	buf := PixelBuffer{Width: 2, Height: 1, Channels: 3, Pix: []uint8{255, 0, 0, 0, 0, 255}}
	img := buf.Image()
	r, _, b, a := img.At(1, 0).RGBA()
	if r != 0 || b>>8 != 255 || a>>8 != 255 {
		t.Errorf("pixel (1,0): got r=%d b=%d a=%d", r, b>>8, a>>8)
	}

	back := FromImage(img)
	if back.Pix[0] != 255 || back.Pix[6] != 255 {
		t.Errorf("round trip lost data: %v", back.Pix)
	}
}

func TestBinaryMap_IsSet(t *testing.T) {
	m := NewBinaryMap(3, 3)
	m.Pix[4] = 255

	if !m.IsSet(1, 1) {
		t.Error("center should be set")
	}
	if m.IsSet(0, 0) {
		t.Error("corner should not be set")
	}
	if m.IsSet(-1, 1) || m.IsSet(3, 1) || m.IsSet(1, 5) {
		t.Error("out-of-bounds coordinates must be background")
	}
	if m.Foreground() != 1 {
		t.Errorf("Foreground: got %d, want 1", m.Foreground())
	}
}
