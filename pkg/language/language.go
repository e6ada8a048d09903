// Package language detects a lyric document's language and produces
// Latin-script romanizations for Chinese, Japanese and Korean text.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Alignment is the natural text alignment for a language.
type Alignment string

const (
	AlignLeft  Alignment = "Left"
	AlignRight Alignment = "Right"
)

// rightToLeftLanguages is the fixed allowlist of right-to-left codes.
// Malay ("zlm") uses Arabic script but is not written right-to-left,
// so it is deliberately absent.
var rightToLeftLanguages = map[string]struct{}{
	// Persian
	"pes": {}, "urd": {},
	// Arabic languages
	"arb": {}, "uig": {},
	// Hebrew languages
	"heb": {}, "ydd": {},
	// Mende languages
	"men": {},
}

// Detect identifies the dominant language of the text and returns its
// ISO-639-3 code. Empty or whitespace-only input yields "".
func Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	return whatlanggo.LangToString(info.Lang)
}

// AlignmentFor returns Right for the fixed right-to-left allowlist and
// Left for everything else, unknown codes included.
func AlignmentFor(code string) Alignment {
	if _, ok := rightToLeftLanguages[code]; ok {
		return AlignRight
	}
	return AlignLeft
}
