package language

import (
	"context"
	"unicode"
)

// RomanizedLanguage names the script a romanization came from.
type RomanizedLanguage string

const (
	RomanizedChinese  RomanizedLanguage = "Chinese"
	RomanizedJapanese RomanizedLanguage = "Japanese"
	RomanizedKorean   RomanizedLanguage = "Korean"
)

func containsKana(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			return true
		}
	}
	return false
}

func containsHangul(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

func containsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// Romanize tries Japanese, then Korean, then Chinese, short-circuiting
// on the first strategy that applies. Each strategy fires on a primary
// language match OR on the presence of its script; the order matters
// because kanji would otherwise read as Han and take the Chinese path.
// ok is false when no strategy applies.
func Romanize(ctx context.Context, text string, primaryLanguage string) (romanized string, lang RomanizedLanguage, ok bool, err error) {
	if primaryLanguage == "jpn" || containsKana(text) {
		romanized, err = romanizeJapanese(ctx, text)
		if err != nil {
			return "", "", false, err
		}
		return romanized, RomanizedJapanese, true, nil
	}

	if primaryLanguage == "kor" || containsHangul(text) {
		return romanizeKorean(text), RomanizedKorean, true, nil
	}

	if primaryLanguage == "cmn" || containsHan(text) {
		return romanizeChinese(text), RomanizedChinese, true, nil
	}

	return "", "", false, nil
}
