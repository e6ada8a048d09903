package lyrics

// Gap analysis constants: an interlude fills any inter-vocal gap of at
// least MinimumInterludeDuration, ending EndInterludeEarlyBy before the
// next vocal as prep time for it.
const (
	MinimumInterludeDuration = 2.0
	EndInterludeEarlyBy      = 0.25
)

// vocalSpan is a vocal unit's effective time range plus its index in
// the content sequence, so insertions land at the right position even
// when the sequence already carries non-vocal segments.
type vocalSpan struct {
	start, end float64
	index      int
}

// insertInterludes synthesizes interlude segments into the document's
// timed gaps. Static documents have no timing and are left alone. The
// scan runs from the end backward so insertion indices stay valid and
// freshly inserted interludes are never re-scanned.
func insertInterludes(raw *Raw) {
	switch raw.Type {
	case KindLine:
		spans := lineVocalSpans(raw.LineContent)
		for _, gap := range interludeGaps(spans) {
			raw.LineContent = insertLineSegment(raw.LineContent, gap.index, LineSegment{
				Type:      SegmentInterlude,
				StartTime: gap.start,
				EndTime:   gap.end,
			})
		}
	case KindSyllable:
		spans := syllableVocalSpans(raw.SyllableContent)
		for _, gap := range interludeGaps(spans) {
			raw.SyllableContent = insertSyllableSegment(raw.SyllableContent, gap.index, SyllableSegment{
				Type:      SegmentInterlude,
				StartTime: gap.start,
				EndTime:   gap.end,
			})
		}
	}
}

func lineVocalSpans(content []LineSegment) []vocalSpan {
	var spans []vocalSpan
	for i, segment := range content {
		if segment.Type == SegmentVocal {
			spans = append(spans, vocalSpan{start: segment.StartTime, end: segment.EndTime, index: i})
		}
	}
	return spans
}

// syllableVocalSpans unions each vocal's lead and background group
// spans: earliest start, latest end.
func syllableVocalSpans(content []SyllableSegment) []vocalSpan {
	var spans []vocalSpan
	for i, segment := range content {
		if segment.Type != SegmentVocal {
			continue
		}
		start, end := segment.Lead.StartTime, segment.Lead.EndTime
		for _, background := range segment.Background {
			if background.StartTime < start {
				start = background.StartTime
			}
			if background.EndTime > end {
				end = background.EndTime
			}
		}
		spans = append(spans, vocalSpan{start: start, end: end, index: i})
	}
	return spans
}

// interludeGaps yields the interludes to insert, in application order:
// inter-vocal gaps scanned backward first (so earlier content indices
// are untouched by later insertions), then the leading interlude when
// the first vocal starts late enough.
func interludeGaps(spans []vocalSpan) []vocalSpan {
	if len(spans) == 0 {
		return nil
	}

	var gaps []vocalSpan
	for i := len(spans) - 1; i > 0; i-- {
		prior, next := spans[i-1], spans[i]
		if next.start-prior.end >= MinimumInterludeDuration {
			gaps = append(gaps, vocalSpan{
				start: prior.end,
				end:   next.start - EndInterludeEarlyBy,
				index: next.index,
			})
		}
	}

	if spans[0].start >= MinimumInterludeDuration {
		gaps = append(gaps, vocalSpan{
			start: 0,
			end:   spans[0].start - EndInterludeEarlyBy,
			index: 0,
		})
	}
	return gaps
}

func insertLineSegment(content []LineSegment, index int, segment LineSegment) []LineSegment {
	content = append(content, LineSegment{})
	copy(content[index+1:], content[index:])
	content[index] = segment
	return content
}

func insertSyllableSegment(content []SyllableSegment, index int, segment SyllableSegment) []SyllableSegment {
	content = append(content, SyllableSegment{})
	copy(content[index+1:], content[index:])
	content[index] = segment
	return content
}
