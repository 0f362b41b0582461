package ocr

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestTextQuality(t *testing.T) {
	prose := TextQuality("The quick brown fox jumps over the lazy dog", []float64{90, 88, 91, 89, 90, 92, 90, 88, 91})
	noise := TextQuality("#~ |l ;; ,, %% @@", []float64{20, 80, 5, 60})

	if prose <= noise {
		t.Errorf("prose %.1f should outscore noise %.1f", prose, noise)
	}

	tests := []struct {
		name string
		text string
	}{
		{"prose", "The quick brown fox"},
		{"symbols", "!!! ??? ###"},
		{"one long word", strings.Repeat("a", 500)},
		{"spaces", "a b c d e f g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := TextQuality(tt.text, nil)
			if q < 0 || q > 100 {
				t.Errorf("TextQuality = %.2f outside 0-100", q)
			}
		})
	}
}

func TestTextQuality_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if q := TextQuality(text, nil); q != 0 {
			t.Errorf("TextQuality(%q) = %.2f, want 0", text, q)
		}
	}
}

func TestTextQuality_ConsistentConfidencesScoreHigher(t *testing.T) {
	text := "steady words here"
	steady := TextQuality(text, []float64{80, 80, 80})
	erratic := TextQuality(text, []float64{10, 95, 40})
	if steady <= erratic {
		t.Errorf("steady %.2f should outscore erratic %.2f", steady, erratic)
	}
}

func TestComposite(t *testing.T) {
	a := Attempt{
		Text:            "abc",
		Confidence:      50,
		WordConfidences: []float64{40},
		TextQuality:     60,
	}
	want := 0.4*50 + 0.3*60 + 0.2*40 + 2 // log2(1+3)
	if got := Composite(a); math.Abs(got-want) > 1e-9 {
		t.Errorf("Composite = %v, want %v", got, want)
	}

	// Without word confidences the overall confidence stands in.
	a.WordConfidences = nil
	want = 0.4*50 + 0.3*60 + 0.2*50 + 2
	if got := Composite(a); math.Abs(got-want) > 1e-9 {
		t.Errorf("Composite without words = %v, want %v", got, want)
	}
}

func TestComposite_LengthBonusCapped(t *testing.T) {
	long := Attempt{Text: strings.Repeat("word ", 2000)}
	if got := Composite(long); got != maxLengthBonus {
		t.Errorf("Composite of long empty-scored text = %v, want %v", got, maxLengthBonus)
	}
}

func TestNewAttempt(t *testing.T) {
	rec := recognition("hello there world", 77)
	a := NewAttempt(MethodDenoised, rec, 3*time.Millisecond)

	if a.Method != MethodDenoised || a.Elapsed != 3*time.Millisecond {
		t.Errorf("unexpected attempt metadata: %+v", a)
	}
	if len(a.WordConfidences) != 3 {
		t.Errorf("expected 3 word confidences, got %d", len(a.WordConfidences))
	}
	if a.TextQuality != TextQuality(a.Text, a.WordConfidences) {
		t.Error("TextQuality not derived from the text")
	}
	if a.QualityScore != Composite(a) {
		t.Error("QualityScore not the composite")
	}
}
