package language

import "strings"

// Revised-romanization transliteration tables, indexed by the jamo
// position within a composed Hangul syllable block.
var (
	koreanInitials = [19]string{
		"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s",
		"ss", "", "j", "jj", "ch", "k", "t", "p", "h",
	}
	koreanVowels = [21]string{
		"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa",
		"wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
	}
	koreanFinals = [28]string{
		"", "g", "kk", "gs", "n", "nj", "nh", "d", "l", "lg",
		"lm", "lb", "ls", "lt", "lp", "lh", "m", "b", "bs", "s",
		"ss", "ng", "j", "ch", "k", "t", "p", "h",
	}
)

const (
	hangulBase = rune(0xAC00)
	hangulEnd  = rune(0xD7A3)
)

// romanizeKorean transliterates composed Hangul syllable blocks by
// decomposing each into initial/vowel/final jamo. Non-Hangul runes
// pass through untouched.
func romanizeKorean(text string) string {
	var out strings.Builder
	for _, r := range text {
		if r < hangulBase || r > hangulEnd {
			out.WriteRune(r)
			continue
		}
		code := r - hangulBase
		final := code % 28
		vowel := (code / 28) % 21
		initial := code / (28 * 21)

		out.WriteString(koreanInitials[initial])
		out.WriteString(koreanVowels[vowel])
		out.WriteString(koreanFinals[final])
	}
	return out.String()
}
