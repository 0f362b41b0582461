package ocr

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// misreads maps common whole-word recognition errors, lower case, to their
// correction.
var misreads = map[string]string{
	"tbe":   "the",
	"tlie":  "the",
	"teh":   "the",
	"0f":    "of",
	"1n":    "in",
	"1s":    "is",
	"1t":    "it",
	"t0":    "to",
	"wlth":  "with",
	"tlis":  "this",
	"tbat":  "that",
	"wbich": "which",
}

// lookalikes maps digits that are commonly read in place of letters. They are
// replaced only between two letters.
var lookalikes = map[rune]rune{
	'0': 'o',
	'1': 'l',
	'5': 's',
}

// Correct applies the fixed substitution table to text, then collapses runs
// of blanks, trims lines, drops repeated blank lines and folds typographic
// ligatures such as "ﬁ". Superscripts, fractions and other compatibility
// characters are kept. Words the table does not cover are left alone. The
// boolean reports whether the result differs from text.
func Correct(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		for i, f := range fields {
			fields[i] = correctToken(f)
		}
		out = append(out, strings.Join(fields, " "))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	corrected := foldLigatures(strings.Join(out, "\n"))
	return corrected, corrected != text
}

// foldLigatures expands the Latin ligatures of the Alphabetic Presentation
// Forms block to their letters.
func foldLigatures(s string) string {
	if strings.IndexFunc(s, isLigature) < 0 {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if isLigature(r) {
			b.WriteString(norm.NFKC.String(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLigature(r rune) bool {
	return r >= 0xFB00 && r <= 0xFB06
}

// correctToken corrects the word inside leading and trailing punctuation.
func correctToken(tok string) string {
	start := strings.IndexFunc(tok, isWordRune)
	if start < 0 {
		return tok
	}
	end := strings.LastIndexFunc(tok, isWordRune)
	_, size := utf8.DecodeRuneInString(tok[end:])
	end += size
	word := tok[start:end]
	return tok[:start] + correctWord(word) + tok[end:]
}

func correctWord(word string) string {
	if fix, ok := misreads[strings.ToLower(word)]; ok {
		return matchCase(word, fix)
	}

	runes := []rune(word)
	letters, digits := 0, 0
	upper := true
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
			if !unicode.IsUpper(r) {
				upper = false
			}
		case unicode.IsDigit(r):
			digits++
		default:
			return word
		}
	}
	if digits == 0 || digits >= letters {
		return word
	}

	// Every digit must be a look-alike with a letter on each side, as in
	// "he1lo"; "Win10", "A4" and "5th" stay as they are.
	out := make([]rune, len(runes))
	for i, r := range runes {
		if !unicode.IsDigit(r) {
			out[i] = r
			continue
		}
		sub, ok := lookalikes[r]
		if !ok || i == 0 || i == len(runes)-1 ||
			!unicode.IsLetter(runes[i-1]) || !unicode.IsLetter(runes[i+1]) {
			return word
		}
		if upper {
			sub = unicode.ToUpper(sub)
		}
		out[i] = sub
	}
	return string(out)
}

// matchCase carries the capitalization of word over to fix.
func matchCase(word, fix string) string {
	runes := []rune(word)
	allUpper := true
	for _, r := range runes {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			allUpper = false
		}
	}
	switch {
	case allUpper && len(runes) > 1 && hasLetter(word):
		return strings.ToUpper(fix)
	case unicode.IsUpper(runes[0]):
		f := []rune(fix)
		f[0] = unicode.ToUpper(f[0])
		return string(f)
	default:
		return fix
	}
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
