package lyrics

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"lyricsync/pkg/language"
)

// ErrEmptyLyrics is returned for documents with no content. Callers are
// expected to reject such documents before transforming.
var ErrEmptyLyrics = errors.New("lyrics document has no content")

// textUnit is one romanizable piece of the document: its text plus
// where the romanized form lands.
type textUnit struct {
	text   string
	target *string
}

// Transform enriches a raw document into its display-ready form. The
// document's language is detected once over all of its text, every
// textual unit is romanized concurrently, and interludes are inserted
// into timed gaps. Transform takes ownership of raw.
func Transform(ctx context.Context, raw *Raw) (*Transformed, error) {
	if raw == nil || raw.IsEmpty() {
		return nil, ErrEmptyLyrics
	}

	transformed := &Transformed{Raw: *raw}

	fullText := joinedText(&transformed.Raw)
	transformed.Language = language.Detect(fullText)
	transformed.NaturalAlignment = language.AlignmentFor(transformed.Language)

	if err := romanizeAll(ctx, transformed); err != nil {
		return nil, err
	}

	insertInterludes(&transformed.Raw)
	return transformed, nil
}

// joinedText concatenates every textual unit, newline between lines and
// vocals, syllables space-joined unless part of the same word.
func joinedText(raw *Raw) string {
	var lines []string
	switch raw.Type {
	case KindStatic:
		for _, line := range raw.Lines {
			lines = append(lines, line.Text)
		}
	case KindLine:
		for _, segment := range raw.LineContent {
			if segment.Type == SegmentVocal {
				lines = append(lines, segment.Text)
			}
		}
	case KindSyllable:
		for _, segment := range raw.SyllableContent {
			if segment.Type != SegmentVocal {
				continue
			}
			var text strings.Builder
			for i, syllable := range segment.Lead.Syllables {
				if i > 0 && !syllable.IsPartOfWord {
					text.WriteByte(' ')
				}
				text.WriteString(syllable.Text)
			}
			lines = append(lines, text.String())
		}
	}
	return strings.Join(lines, "\n")
}

// textUnits collects every romanizable unit of the document, background
// syllables included.
func textUnits(raw *Raw) []textUnit {
	var units []textUnit
	switch raw.Type {
	case KindStatic:
		for i := range raw.Lines {
			line := &raw.Lines[i]
			units = append(units, textUnit{text: line.Text, target: &line.RomanizedText})
		}
	case KindLine:
		for i := range raw.LineContent {
			segment := &raw.LineContent[i]
			if segment.Type == SegmentVocal {
				units = append(units, textUnit{text: segment.Text, target: &segment.RomanizedText})
			}
		}
	case KindSyllable:
		for i := range raw.SyllableContent {
			segment := &raw.SyllableContent[i]
			if segment.Type != SegmentVocal {
				continue
			}
			for j := range segment.Lead.Syllables {
				syllable := &segment.Lead.Syllables[j]
				units = append(units, textUnit{text: syllable.Text, target: &syllable.RomanizedText})
			}
			for g := range segment.Background {
				group := &segment.Background[g]
				for j := range group.Syllables {
					syllable := &group.Syllables[j]
					units = append(units, textUnit{text: syllable.Text, target: &syllable.RomanizedText})
				}
			}
		}
	}
	return units
}

// romanizeAll runs the romanization chain over every unit concurrently
// and waits for all of them. Units write to distinct targets; only the
// document-level romanized language is shared, and last-writer-wins is
// fine since all units share one language.
func romanizeAll(ctx context.Context, transformed *Transformed) error {
	group, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	for _, unit := range textUnits(&transformed.Raw) {
		unit := unit
		group.Go(func() error {
			romanized, lang, ok, err := language.Romanize(ctx, unit.text, transformed.Language)
			if err != nil {
				return err
			}
			if ok {
				*unit.target = romanized
				mu.Lock()
				transformed.RomanizedLanguage = lang
				mu.Unlock()
			}
			return nil
		})
	}
	return group.Wait()
}
