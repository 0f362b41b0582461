package ocr

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Text quality weights, summing to 100.
const (
	alphaWeight  = 30.0
	wordWeight   = 20.0
	spaceWeight  = 15.0
	spreadWeight = 20.0
	lengthWeight = 15.0

	idealWordLength = 5.0
	idealSpaceRatio = 0.15

	// spreadCeiling is the word-confidence standard deviation at which the
	// spread component reaches zero.
	spreadCeiling = 50.0

	// maxLengthBonus caps the composite length bonus.
	maxLengthBonus = 10.0
)

// Composite weights.
const (
	confidenceShare = 0.4
	qualityShare    = 0.3
	wordConfShare   = 0.2
)

// Attempt is one engine call on one preprocessing variant.
type Attempt struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`

	WordConfidences []float64 `json:"word_confidences,omitempty"`

	// QualityScore is the composite ranking score.
	QualityScore float64 `json:"quality_score"`

	// TextQuality is the 0-100 text quality sub-score.
	TextQuality float64 `json:"text_quality"`

	Method  Method        `json:"method"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// NewAttempt builds a scored attempt from an engine recognition.
func NewAttempt(m Method, rec *Recognition, elapsed time.Duration) Attempt {
	confs := make([]float64, 0, len(rec.Words))
	for _, w := range rec.Words {
		confs = append(confs, w.Confidence)
	}
	a := Attempt{
		Text:            rec.Text,
		Confidence:      rec.Confidence,
		WordConfidences: confs,
		Method:          m,
		Elapsed:         elapsed,
	}
	a.TextQuality = TextQuality(a.Text, a.WordConfidences)
	a.QualityScore = Composite(a)
	return a
}

// TextQuality scores how much text looks like readable prose, 0-100. It
// rewards a high share of letters, words averaging about five characters, a
// space ratio near 0.15, consistent word confidences and longer text (log
// scaled). Empty text scores 0.
func TextQuality(text string, wordConfidences []float64) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}

	letters, spaces := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
			spaces++
		}
	}
	nonSpace := total - spaces
	if nonSpace == 0 {
		return 0
	}

	alpha := float64(letters) / float64(nonSpace)

	words := strings.Fields(text)
	wordRunes := 0
	for _, w := range words {
		wordRunes += utf8.RuneCountInString(w)
	}
	avg := float64(wordRunes) / float64(len(words))
	wordScore := math.Max(0, 1-math.Abs(avg-idealWordLength)/idealWordLength)

	spaceRatio := float64(spaces) / float64(total)
	spaceScore := math.Max(0, 1-math.Abs(spaceRatio-idealSpaceRatio)/idealSpaceRatio)

	spreadScore := 0.5
	if len(wordConfidences) > 0 {
		spreadScore = math.Max(0, 1-stddev(wordConfidences)/spreadCeiling)
	}

	lengthScore := math.Min(1, math.Log10(1+float64(total))/3)

	return alphaWeight*alpha +
		wordWeight*wordScore +
		spaceWeight*spaceScore +
		spreadWeight*spreadScore +
		lengthWeight*lengthScore
}

// Composite is the ranking score of an attempt:
//
//	0.4*confidence + 0.3*textQuality + 0.2*meanWordConfidence + lengthBonus
//
// The length bonus is log2(1+runes) capped at 10. Without word confidences
// the overall confidence stands in for their mean.
func Composite(a Attempt) float64 {
	wordConf := a.Confidence
	if len(a.WordConfidences) > 0 {
		wordConf = mean(a.WordConfidences)
	}
	bonus := math.Min(maxLengthBonus, math.Log2(1+float64(utf8.RuneCountInString(a.Text))))
	return confidenceShare*a.Confidence +
		qualityShare*a.TextQuality +
		wordConfShare*wordConf +
		bonus
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)))
}
