package language

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gojp/kana"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// The morphological tokenizer is expensive to build, so it is
// initialized once per process and shared. The first caller that
// triggers initialization receives any failure; the result, error
// included, is memoized.
var (
	japaneseOnce      sync.Once
	japaneseTokenizer *tokenizer.Tokenizer
	japaneseInitErr   error
)

func ensureJapaneseTokenizer() (*tokenizer.Tokenizer, error) {
	japaneseOnce.Do(func() {
		japaneseTokenizer, japaneseInitErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	if japaneseInitErr != nil {
		return nil, fmt.Errorf("japanese tokenizer init: %w", japaneseInitErr)
	}
	return japaneseTokenizer, nil
}

// romanizeJapanese tokenizes the text and converts each token's
// katakana reading to Hepburn romaji, space-joined. Tokens without a
// dictionary reading (latin text, punctuation) keep their surface form.
func romanizeJapanese(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t, err := ensureJapaneseTokenizer()
	if err != nil {
		return "", err
	}

	tokens := t.Tokenize(text)
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		reading, hasReading := token.Reading()
		if !hasReading || reading == "" || reading == "*" {
			parts = append(parts, token.Surface)
			continue
		}
		parts = append(parts, kana.KanaToRomaji(reading))
	}
	return strings.Join(parts, " "), nil
}
