package render

import (
	"strings"
	"unicode"

	"github.com/wp2pdf/wp2pdf/pkg/emoji"
)

// emojiScale sizes a glyph image relative to the font size.
const emojiScale = 0.85

// lineScale sets the line box height relative to the font size.
const lineScale = 1.5

// segment is one indivisible unit of a body line: a word or an emoji
// sequence. Widths are in document units (mm).
type segment struct {
	text        string
	glyph       bool
	width       float64
	spaceBefore bool // separated from the previous segment by whitespace
}

// line is a packed row of segments.
type line struct {
	segments []segment
	width    float64
}

// measurer yields the rendered width of a string at the current font. It is
// the only part of the PDF engine the packing pass needs.
type measurer interface {
	GetStringWidth(s string) float64
}

// splitSegments breaks paragraph text into word and glyph segments. Words
// within a text run and runs separated by whitespace carry spaceBefore, so
// the original spacing survives packing; a glyph butted directly against
// text (no whitespace) stays flush.
func splitSegments(m measurer, text string, glyphWidth float64) []segment {
	// Most paragraphs carry no emoji; split them straight into words.
	if !emoji.Contains(text) {
		var segs []segment
		leading := startsWithSpace(text)
		for i, word := range strings.Fields(text) {
			segs = append(segs, segment{
				text:        word,
				width:       m.GetStringWidth(word),
				spaceBefore: i > 0 || leading,
			})
		}
		return segs
	}

	var segs []segment
	pendingSpace := false
	for _, run := range emoji.Segment(text) {
		if run.Glyph {
			segs = append(segs, segment{
				text:        run.Text,
				glyph:       true,
				width:       glyphWidth,
				spaceBefore: pendingSpace,
			})
			pendingSpace = false
			continue
		}
		leading := startsWithSpace(run.Text)
		words := strings.Fields(run.Text)
		for i, word := range words {
			segs = append(segs, segment{
				text:        word,
				width:       m.GetStringWidth(word),
				spaceBefore: i > 0 || pendingSpace || leading,
			})
		}
		if run.Text != "" {
			pendingSpace = endsWithSpace(run.Text) || (len(words) == 0 && pendingSpace)
		}
	}
	return segs
}

// packLines packs segments greedily into lines no wider than maxWidth. A
// segment is never split: one wider than maxWidth gets a line of its own and
// overflows the right margin. The first segment on a line drops its leading
// space.
func packLines(segs []segment, spaceWidth, maxWidth float64) []line {
	var lines []line
	var cur line
	for _, seg := range segs {
		advance := seg.width
		if len(cur.segments) > 0 && seg.spaceBefore {
			advance += spaceWidth
		}
		if len(cur.segments) > 0 && cur.width+advance > maxWidth {
			lines = append(lines, cur)
			cur = line{}
			advance = seg.width
		}
		cur.segments = append(cur.segments, seg)
		cur.width += advance
	}
	if len(cur.segments) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

func startsWithSpace(s string) bool {
	for _, r := range s {
		return unicode.IsSpace(r)
	}
	return false
}

func endsWithSpace(s string) bool {
	runes := []rune(s)
	return len(runes) > 0 && unicode.IsSpace(runes[len(runes)-1])
}
