package language

import (
	"context"
	"strings"
	"testing"
)

func TestAlignmentFor(t *testing.T) {
	cases := []struct {
		code string
		want Alignment
	}{
		{"heb", AlignRight},
		{"arb", AlignRight},
		{"urd", AlignRight},
		{"eng", AlignLeft},
		{"zlm", AlignLeft}, // Arabic script but not right-to-left
		{"xxx", AlignLeft}, // unknown codes default Left
		{"", AlignLeft},
	}

	for _, c := range cases {
		if got := AlignmentFor(c.code); got != c.want {
			t.Errorf("AlignmentFor(%q) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestDetectEmpty(t *testing.T) {
	if got := Detect(""); got != "" {
		t.Errorf("Detect(\"\") = %q, want \"\"", got)
	}
	if got := Detect("   \n\t "); got != "" {
		t.Errorf("Detect(whitespace) = %q, want \"\"", got)
	}
}

func TestDetectEnglish(t *testing.T) {
	got := Detect("The quick brown fox jumps over the lazy dog and keeps on running through the night")
	if got != "eng" {
		t.Errorf("Detect(english) = %q, want \"eng\"", got)
	}
}

func TestRomanizePriority(t *testing.T) {
	ctx := context.Background()

	t.Run("HiraganaWinsOverMisdetection", func(t *testing.T) {
		// Kana presence must trigger the Japanese path even when the
		// document-level language was identified as something else.
		romanized, lang, ok, err := Romanize(ctx, "こんにちは", "eng")
		if err != nil {
			t.Fatalf("Romanize: %v", err)
		}
		if !ok || lang != RomanizedJapanese {
			t.Fatalf("expected Japanese, got ok=%v lang=%v", ok, lang)
		}
		if romanized == "" {
			t.Error("expected non-empty romaji")
		}
	})

	t.Run("HangulBeforeChinese", func(t *testing.T) {
		romanized, lang, ok, err := Romanize(ctx, "안녕하세요", "eng")
		if err != nil {
			t.Fatalf("Romanize: %v", err)
		}
		if !ok || lang != RomanizedKorean {
			t.Fatalf("expected Korean, got ok=%v lang=%v", ok, lang)
		}
		if romanized != "annyeonghaseyo" {
			t.Errorf("expected annyeonghaseyo, got %q", romanized)
		}
	})

	t.Run("HanFallsToChinese", func(t *testing.T) {
		_, lang, ok, err := Romanize(ctx, "中国人", "eng")
		if err != nil {
			t.Fatalf("Romanize: %v", err)
		}
		if !ok || lang != RomanizedChinese {
			t.Fatalf("expected Chinese, got ok=%v lang=%v", ok, lang)
		}
	})

	t.Run("MixedHanLatinKeepsLatin", func(t *testing.T) {
		romanized, lang, ok, err := Romanize(ctx, "我爱你 baby", "cmn")
		if err != nil {
			t.Fatalf("Romanize: %v", err)
		}
		if !ok || lang != RomanizedChinese {
			t.Fatalf("expected Chinese, got ok=%v lang=%v", ok, lang)
		}
		if !strings.Contains(romanized, "baby") {
			t.Errorf("latin segment dropped, got %q", romanized)
		}
		if !strings.Contains(romanized, "wo-ai-ni") {
			t.Errorf("expected pinyin readings, got %q", romanized)
		}
	})

	t.Run("PrimaryLanguageMatch", func(t *testing.T) {
		// "cmn" primary match fires even without Han codepoints.
		_, lang, ok, err := Romanize(ctx, "ni hao", "cmn")
		if err != nil {
			t.Fatalf("Romanize: %v", err)
		}
		if !ok || lang != RomanizedChinese {
			t.Fatalf("expected Chinese by primary language, got ok=%v lang=%v", ok, lang)
		}
	})

	t.Run("LatinTextNoMatch", func(t *testing.T) {
		_, _, ok, err := Romanize(ctx, "hello world", "eng")
		if err != nil {
			t.Fatalf("Romanize: %v", err)
		}
		if ok {
			t.Error("expected no romanization for latin text")
		}
	})
}

func TestRomanizeKoreanMixedText(t *testing.T) {
	got := romanizeKorean("한 day")
	if got != "han day" {
		t.Errorf("expected non-Hangul runes to pass through, got %q", got)
	}
}

func TestRomanizeJapaneseReading(t *testing.T) {
	romanized, err := romanizeJapanese(context.Background(), "日本語")
	if err != nil {
		t.Fatalf("romanizeJapanese: %v", err)
	}
	if !strings.Contains(strings.ToLower(romanized), "nihongo") {
		t.Errorf("expected reading to contain nihongo, got %q", romanized)
	}
}
