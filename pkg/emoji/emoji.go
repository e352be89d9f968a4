// Package emoji segments text into plain-text and emoji glyph runs.
//
// Segmentation is a deterministic left-to-right rune scan: at each position
// the scanner attempts to consume one complete emoji sequence (base emoji
// with optional variation selector and skin-tone modifier, ZWJ compositions,
// regional-indicator flags, keycaps, and tag sequences). Characters that do
// not start a sequence accumulate into text runs. Adjacent text runs merge;
// each emoji sequence stays a separate run because every sequence resolves
// to one cached glyph image.
package emoji

// Run is a contiguous slice of a paragraph: either plain text or one
// complete emoji sequence.
type Run struct {
	// Text is the substring of the run.
	Text string

	// Glyph is true when the run is a single emoji sequence.
	Glyph bool
}

// Segment splits text into alternating text and glyph runs.
// The concatenation of all run texts reproduces the input exactly.
func Segment(text string) []Run {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	runs := make([]Run, 0, 4)

	i := 0
	for i < len(runes) {
		n := sequenceLen(runes[i:])
		if n > 0 {
			runs = append(runs, Run{Text: string(runes[i : i+n]), Glyph: true})
			i += n
			continue
		}
		// Accumulate plain text up to the next sequence start.
		start := i
		for i < len(runes) && sequenceLen(runes[i:]) == 0 {
			i++
		}
		runs = append(runs, Run{Text: string(runes[start:i])})
	}

	return runs
}

// Contains reports whether text holds at least one emoji sequence.
func Contains(text string) bool {
	for _, r := range text {
		if isEmojiBase(r) {
			return true
		}
	}
	return false
}

// sequenceLen returns the rune length of the emoji sequence starting at
// runes[0], or 0 if the position does not start a sequence.
func sequenceLen(runes []rune) int {
	if len(runes) == 0 {
		return 0
	}
	r := runes[0]

	// Flag: a pair of regional indicators.
	if isRegionalIndicator(r) {
		if len(runes) >= 2 && isRegionalIndicator(runes[1]) {
			return 2
		}
		return 1
	}

	// Subdivision flag: black flag + tag characters + cancel tag.
	if r == blackFlag {
		if n := tagSequenceLen(runes); n > 0 {
			return n
		}
		return 1
	}

	// Keycap: digit/#/* + optional VS16 + combining enclosing keycap.
	if isKeycapBase(r) {
		return keycapLen(runes)
	}

	if !isEmojiBase(r) {
		return 0
	}

	return extendedLen(runes)
}

// extendedLen consumes a base emoji plus variation selector, skin-tone
// modifier, and any ZWJ continuations.
func extendedLen(runes []rune) int {
	i := 1

	if i < len(runes) && runes[i] == vsText {
		return 0 // explicit text presentation
	}
	if i < len(runes) && runes[i] == vsEmoji {
		i++
	}
	if i < len(runes) && isSkinTone(runes[i]) {
		i++
	}

	// ZWJ compositions: family, professions, etc.
	for i+1 < len(runes) && runes[i] == zwj {
		n := zwjContinuationLen(runes[i+1:])
		if n == 0 {
			break
		}
		i += 1 + n
	}

	return i
}

// zwjContinuationLen parses the emoji unit allowed after a ZWJ.
func zwjContinuationLen(runes []rune) int {
	if len(runes) == 0 || !isEmojiBase(runes[0]) {
		return 0
	}
	i := 1
	if i < len(runes) && runes[i] == vsEmoji {
		i++
	}
	if i < len(runes) && isSkinTone(runes[i]) {
		i++
	}
	return i
}

func tagSequenceLen(runes []rune) int {
	i := 1
	for i < len(runes) && isTagChar(runes[i]) {
		i++
	}
	if i > 1 && i < len(runes) && runes[i] == cancelTag {
		return i + 1
	}
	return 0
}

func keycapLen(runes []rune) int {
	i := 1
	if i < len(runes) && runes[i] == vsEmoji {
		i++
	}
	if i < len(runes) && runes[i] == keycapMark {
		return i + 1
	}
	return 0
}

// Special code points in emoji sequences.
const (
	zwj        = 0x200D  // zero-width joiner
	vsText     = 0xFE0E  // variation selector: text presentation
	vsEmoji    = 0xFE0F  // variation selector: emoji presentation
	keycapMark = 0x20E3  // combining enclosing keycap
	blackFlag  = 0x1F3F4 // base of subdivision flag sequences
	cancelTag  = 0xE007F // terminates subdivision flag sequences
)

func isRegionalIndicator(r rune) bool { return r >= 0x1F1E6 && r <= 0x1F1FF }
func isSkinTone(r rune) bool          { return r >= 0x1F3FB && r <= 0x1F3FF }
func isTagChar(r rune) bool           { return r >= 0xE0020 && r <= 0xE007E }

func isKeycapBase(r rune) bool {
	return (r >= '0' && r <= '9') || r == '#' || r == '*'
}

// isEmojiBase reports whether r can start an emoji sequence. It covers the
// pictographic blocks with default emoji presentation plus the legacy
// symbol ranges commonly rendered as emoji.
func isEmojiBase(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // misc symbols and pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport and map
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental pictographs
		return true
	case r >= 0x1FA00 && r <= 0x1FAFF: // pictographs extended
		return true
	case r >= 0x2600 && r <= 0x26FF: // misc symbols (sun, stars, sports)
		return true
	case r >= 0x2700 && r <= 0x27BF: // dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // arrows and geometric (star, circles)
		return r == 0x2B05 || r == 0x2B06 || r == 0x2B07 || r == 0x2B1B || r == 0x2B1C || r == 0x2B50 || r == 0x2B55
	case r == 0x203C || r == 0x2049: // double/interrobang exclamation
		return true
	case r == 0x2139: // information source
		return true
	case r >= 0x2194 && r <= 0x2199: // arrows with emoji variants
		return true
	case r == 0x21A9 || r == 0x21AA: // hooked arrows
		return true
	case r >= 0x23E9 && r <= 0x23FA: // media control symbols
		return true
	case r == 0x24C2: // circled M
		return true
	case r >= 0x25AA && r <= 0x25FE: // small squares, triangles
		return r == 0x25AA || r == 0x25AB || r == 0x25B6 || r == 0x25C0 || (r >= 0x25FB && r <= 0x25FE)
	case r >= 0x2934 && r <= 0x2935: // right arrows curving
		return true
	case r == 0x3030 || r == 0x303D: // wavy dash, part alternation
		return true
	case r == 0x3297 || r == 0x3299: // circled ideographs
		return true
	default:
		return false
	}
}
