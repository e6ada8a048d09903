// Package lyrics models provider lyric documents and transforms them
// into display-ready timelines: language-tagged, romanized where the
// script calls for it, and with interludes synthesized into timed gaps.
package lyrics

import (
	"encoding/json"
	"fmt"

	"lyricsync/pkg/language"
)

// Kind discriminates the three provider document shapes.
type Kind string

const (
	KindStatic   Kind = "Static"
	KindLine     Kind = "Line"
	KindSyllable Kind = "Syllable"
)

// SegmentKind discriminates the entries of a timed content sequence.
type SegmentKind string

const (
	SegmentVocal     SegmentKind = "Vocal"
	SegmentInterlude SegmentKind = "Interlude"
)

// StaticLine is an untimed lyric line.
type StaticLine struct {
	Text          string `json:"Text"`
	RomanizedText string `json:"RomanizedText,omitempty"`
}

// LineSegment is one entry of a Line document: a timed vocal line or an
// interlude. Interludes carry timing only.
type LineSegment struct {
	Type SegmentKind `json:"Type"`

	StartTime float64 `json:"StartTime"`
	EndTime   float64 `json:"EndTime"`

	Text            string `json:"Text,omitempty"`
	RomanizedText   string `json:"RomanizedText,omitempty"`
	OppositeAligned bool   `json:"OppositeAligned,omitempty"`
}

// Syllable is the smallest timed textual unit. IsPartOfWord marks a
// syllable that glues to the previous one without a space.
type Syllable struct {
	Text          string  `json:"Text"`
	RomanizedText string  `json:"RomanizedText,omitempty"`
	StartTime     float64 `json:"StartTime"`
	EndTime       float64 `json:"EndTime"`
	IsPartOfWord  bool    `json:"IsPartOfWord,omitempty"`
}

// SyllableGroup is an ordered syllable run with its overall span.
type SyllableGroup struct {
	StartTime float64    `json:"StartTime"`
	EndTime   float64    `json:"EndTime"`
	Syllables []Syllable `json:"Syllables"`
}

// SyllableSegment is one entry of a Syllable document. Vocals carry a
// lead group and optional background groups; interludes carry timing
// only.
type SyllableSegment struct {
	Type SegmentKind `json:"Type"`

	StartTime float64 `json:"StartTime,omitempty"`
	EndTime   float64 `json:"EndTime,omitempty"`

	Lead            SyllableGroup   `json:"Lead,omitempty"`
	Background      []SyllableGroup `json:"Background,omitempty"`
	OppositeAligned bool            `json:"OppositeAligned,omitempty"`
}

// Raw is a provider lyric document. Exactly one of Lines, LineContent
// or SyllableContent is populated, selected by Type. On the wire both
// content variants share the "Content" field; decoding switches on the
// Type tag once, here, so the rest of the package can match on the
// variant directly.
type Raw struct {
	Type Kind

	Lines           []StaticLine
	LineContent     []LineSegment
	SyllableContent []SyllableSegment
}

type rawWire struct {
	Type    Kind            `json:"Type"`
	Lines   json.RawMessage `json:"Lines,omitempty"`
	Content json.RawMessage `json:"Content,omitempty"`
}

func (r *Raw) UnmarshalJSON(data []byte) error {
	var wire rawWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	r.Type = wire.Type
	switch wire.Type {
	case KindStatic:
		return json.Unmarshal(wire.Lines, &r.Lines)
	case KindLine:
		return json.Unmarshal(wire.Content, &r.LineContent)
	case KindSyllable:
		return json.Unmarshal(wire.Content, &r.SyllableContent)
	default:
		return fmt.Errorf("unknown lyrics type %q", wire.Type)
	}
}

func (r Raw) MarshalJSON() ([]byte, error) {
	wire := rawWire{Type: r.Type}

	var err error
	switch r.Type {
	case KindStatic:
		wire.Lines, err = json.Marshal(r.Lines)
	case KindLine:
		wire.Content, err = json.Marshal(r.LineContent)
	case KindSyllable:
		wire.Content, err = json.Marshal(r.SyllableContent)
	default:
		err = fmt.Errorf("unknown lyrics type %q", r.Type)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(&wire)
}

// IsEmpty reports whether the document has no content to transform.
func (r *Raw) IsEmpty() bool {
	switch r.Type {
	case KindStatic:
		return len(r.Lines) == 0
	case KindLine:
		return len(r.LineContent) == 0
	case KindSyllable:
		return len(r.SyllableContent) == 0
	}
	return true
}

// Transformed is a Raw document enriched with language information and
// inserted interludes. Constructed once per track and never mutated
// afterwards; a track change supersedes it wholesale.
type Transformed struct {
	Raw

	Language          string
	NaturalAlignment  language.Alignment
	RomanizedLanguage language.RomanizedLanguage
}

type transformedHead struct {
	Language          string                     `json:"Language"`
	NaturalAlignment  language.Alignment         `json:"NaturalAlignment"`
	RomanizedLanguage language.RomanizedLanguage `json:"RomanizedLanguage,omitempty"`
}

func (t Transformed) MarshalJSON() ([]byte, error) {
	body, err := t.Raw.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}

	head, err := json.Marshal(transformedHead{
		Language:          t.Language,
		NaturalAlignment:  t.NaturalAlignment,
		RomanizedLanguage: t.RomanizedLanguage,
	})
	if err != nil {
		return nil, err
	}
	var headFields map[string]json.RawMessage
	if err := json.Unmarshal(head, &headFields); err != nil {
		return nil, err
	}
	for key, value := range headFields {
		merged[key] = value
	}
	return json.Marshal(merged)
}

func (t *Transformed) UnmarshalJSON(data []byte) error {
	var head transformedHead
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	t.Language = head.Language
	t.NaturalAlignment = head.NaturalAlignment
	t.RomanizedLanguage = head.RomanizedLanguage
	return t.Raw.UnmarshalJSON(data)
}
