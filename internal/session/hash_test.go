package session

import (
	"testing"

	"github.com/ironsheep/docscan-mcp/internal/detection"
)

func TestHash(t *testing.T) {
	base := detection.BoundingBox{X: 50, Y: 30, Width: 100, Height: 90}

	tests := []struct {
		name  string
		other detection.BoundingBox
		same  bool
	}{
		{"identical", base, true},
		{"sub-quantum jitter", detection.BoundingBox{X: 54, Y: 26, Width: 104, Height: 94}, true},
		{"moved", detection.BoundingBox{X: 80, Y: 30, Width: 100, Height: 90}, false},
		{"resized", detection.BoundingBox{X: 50, Y: 30, Width: 140, Height: 90}, false},
		{"swapped fields", detection.BoundingBox{X: 30, Y: 50, Width: 90, Height: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			same := Hash(base, DefaultHashGranularity) == Hash(tt.other, DefaultHashGranularity)
			if same != tt.same {
				t.Errorf("same hash = %v, want %v", same, tt.same)
			}
		})
	}
}

func TestHash_Granularity(t *testing.T) {
	a := detection.BoundingBox{X: 10, Y: 10, Width: 100, Height: 100}
	b := detection.BoundingBox{X: 12, Y: 10, Width: 100, Height: 100}

	if Hash(a, 1) == Hash(b, 1) {
		t.Error("granularity 1 should distinguish a 2px move")
	}
	if Hash(a, 0) != Hash(a, 1) {
		t.Error("granularity below 1 should behave like 1")
	}
	if Hash(a, 10) != Hash(b, 10) {
		t.Error("granularity 10 should absorb a 2px move")
	}
}
