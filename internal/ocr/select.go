package ocr

import (
	"sort"
)

// Selection is the outcome of an extraction.
type Selection struct {
	Best Attempt `json:"best"`

	// Alternatives are the runner-up attempts, best first.
	Alternatives []Attempt `json:"alternatives,omitempty"`

	SpellCorrected bool `json:"spell_corrected"`

	// Failures lists variants that produced no attempt.
	Failures []Failure `json:"failures,omitempty"`
}

// Failure describes a dropped variant.
type Failure struct {
	Method Method `json:"method"`
	Error  string `json:"error"`
}

// Select picks the best attempt.
//
// Attempts whose confidence is below threshold are excluded and the highest
// QualityScore among the rest wins. When no attempt clears the threshold the
// highest-confidence attempt is returned instead. Ties keep the earlier
// attempt. Up to maxAlternatives of the remaining attempts are attached,
// ordered by QualityScore.
func Select(attempts []Attempt, threshold float64, maxAlternatives int) (*Selection, error) {
	if len(attempts) == 0 {
		return nil, ErrAllAttemptsFailed
	}

	best := -1
	for i, a := range attempts {
		if a.Confidence < threshold {
			continue
		}
		if best < 0 || a.QualityScore > attempts[best].QualityScore {
			best = i
		}
	}
	if best < 0 {
		best = 0
		for i, a := range attempts {
			if a.Confidence > attempts[best].Confidence {
				best = i
			}
		}
	}

	sel := &Selection{Best: attempts[best]}
	if maxAlternatives <= 0 {
		return sel, nil
	}

	rest := make([]Attempt, 0, len(attempts)-1)
	for i, a := range attempts {
		if i != best {
			rest = append(rest, a)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].QualityScore > rest[j].QualityScore
	})
	if len(rest) > maxAlternatives {
		rest = rest[:maxAlternatives]
	}
	if len(rest) > 0 {
		sel.Alternatives = rest
	}
	return sel, nil
}
