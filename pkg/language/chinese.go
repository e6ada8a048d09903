package language

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
)

var pinyinArgs = pinyin.NewArgs()

// romanizeChinese converts Han characters to their pinyin readings,
// dash-joined per run the way grouped readings are displayed. Runs of
// anything else pass through verbatim, so mixed-script lines keep
// their Latin (or other) segments.
func romanizeChinese(text string) string {
	var out strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if !unicode.Is(unicode.Han, runes[i]) {
			out.WriteRune(runes[i])
			i++
			continue
		}

		j := i
		for j < len(runes) && unicode.Is(unicode.Han, runes[j]) {
			j++
		}
		out.WriteString(strings.Join(pinyin.LazyPinyin(string(runes[i:j]), pinyinArgs), "-"))
		i = j
	}
	return out.String()
}
