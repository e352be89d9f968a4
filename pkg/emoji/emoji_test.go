package emoji

import (
	"reflect"
	"strings"
	"testing"
)

func TestSegmentMixed(t *testing.T) {
	got := Segment("Text 😀 more")
	want := []Run{
		{Text: "Text "},
		{Text: "😀", Glyph: true},
		{Text: " more"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}
}

func TestSegmentPlainText(t *testing.T) {
	got := Segment("no emoji here")
	want := []Run{{Text: "no emoji here"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}
}

func TestSegmentEmpty(t *testing.T) {
	if got := Segment(""); got != nil {
		t.Errorf("Segment(\"\") = %+v, want nil", got)
	}
}

func TestSegmentAdjacentGlyphsStaySeparate(t *testing.T) {
	got := Segment("😀😀")
	want := []Run{
		{Text: "😀", Glyph: true},
		{Text: "😀", Glyph: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}
}

func TestSegmentZWJSequence(t *testing.T) {
	// Family: man + ZWJ + woman + ZWJ + girl should stay one glyph run.
	family := "\U0001F468‍\U0001F469‍\U0001F467"
	got := Segment("a" + family + "b")
	want := []Run{
		{Text: "a"},
		{Text: family, Glyph: true},
		{Text: "b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}
}

func TestSegmentFlag(t *testing.T) {
	flag := "\U0001F1FA\U0001F1F8" // US flag
	got := Segment(flag)
	if len(got) != 1 || !got[0].Glyph || got[0].Text != flag {
		t.Errorf("Segment(flag) = %+v", got)
	}
}

func TestSegmentKeycap(t *testing.T) {
	keycap := "1️⃣"
	got := Segment("press " + keycap)
	want := []Run{
		{Text: "press "},
		{Text: keycap, Glyph: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}

	// A bare digit is plain text.
	got = Segment("room 101")
	if len(got) != 1 || got[0].Glyph {
		t.Errorf("bare digits should be text, got %+v", got)
	}
}

func TestSegmentSkinTone(t *testing.T) {
	wave := "\U0001F44B\U0001F3FD" // waving hand, medium skin tone
	got := Segment(wave)
	if len(got) != 1 || !got[0].Glyph || got[0].Text != wave {
		t.Errorf("Segment = %+v", got)
	}
}

func TestSegmentTextPresentationSelector(t *testing.T) {
	// U+2600 with the text variation selector must remain plain text.
	got := Segment("☀︎ ok")
	for _, r := range got {
		if r.Glyph {
			t.Errorf("text-presentation sequence segmented as glyph: %+v", got)
		}
	}
}

func TestSegmentRoundTrips(t *testing.T) {
	inputs := []string{
		"Text 😀 more",
		"😀😀 twins",
		"flags \U0001F1FA\U0001F1F8 and \U0001F1E9\U0001F1EA!",
		"tags: 📁 news, 🏷️ golang",
		"plain",
	}
	for _, in := range inputs {
		var sb strings.Builder
		for _, r := range Segment(in) {
			sb.WriteString(r.Text)
		}
		if sb.String() != in {
			t.Errorf("segmentation of %q does not round-trip: %q", in, sb.String())
		}
	}
}

func TestSegmentDeterministic(t *testing.T) {
	in := "mix 😀 of 🏷️ glyphs 📁 and text"
	first := Segment(in)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(Segment(in), first) {
			t.Fatal("segmentation must be deterministic")
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains("hello 😀") {
		t.Error("Contains should detect emoji")
	}
	if Contains("hello world") {
		t.Error("Contains should be false for plain text")
	}
}
