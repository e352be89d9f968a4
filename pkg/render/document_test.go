package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/wp2pdf/wp2pdf/pkg/glyphcache"
	"github.com/wp2pdf/wp2pdf/pkg/images"
	"github.com/wp2pdf/wp2pdf/pkg/wordpress"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{
		Fonts:     Builtin(),
		OutputDir: t.TempDir(),
		Logger:    log.New(io.Discard),
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func decodedPNG(t *testing.T, w, h int) *images.Decoded {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &images.Decoded{Width: w, Height: h, PNG: buf.Bytes()}
}

func samplePost() wordpress.Post {
	return wordpress.Post{
		ID:      7,
		Date:    "2023-05-01T10:00:00",
		Title:   wordpress.Rendered{Rendered: "Hello <b>World</b>"},
		Content: wordpress.Rendered{Rendered: "<p>First paragraph.</p><p>Second paragraph.</p>"},
	}
}

func TestRenderDocumentFilename(t *testing.T) {
	r := testRenderer(t)
	path, err := r.RenderDocument(context.Background(), samplePost(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "20230501_Hello_World.pdf" {
		t.Errorf("filename = %q, want 20230501_Hello_World.pdf", filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("rendered PDF is empty")
	}
}

func TestRenderDocumentUnknownDate(t *testing.T) {
	r := testRenderer(t)
	post := samplePost()
	post.Date = "yesterday-ish"
	path, err := r.RenderDocument(context.Background(), post, nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "unknown_date_7.pdf" {
		t.Errorf("filename = %q, want unknown_date_7.pdf", filepath.Base(path))
	}
}

func TestRenderDocumentDeterministic(t *testing.T) {
	r := testRenderer(t)
	post := samplePost()
	ctx := context.Background()

	path, err := r.RenderDocument(ctx, post, nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	path2, err := r.RenderDocument(ctx, post, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path2)
	if err != nil {
		t.Fatal(err)
	}

	if path != path2 {
		t.Errorf("same post produced different paths: %q vs %q", path, path2)
	}
	if !bytes.Equal(first, second) {
		t.Error("same post produced different bytes")
	}
}

func TestRenderDocumentCollisionSuffix(t *testing.T) {
	r := testRenderer(t)
	ctx := context.Background()

	first := samplePost()
	if _, err := r.RenderDocument(ctx, first, nil); err != nil {
		t.Fatal(err)
	}

	second := samplePost()
	second.ID = 8
	path, err := r.RenderDocument(ctx, second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "20230501_Hello_World_8.pdf" {
		t.Errorf("collision filename = %q, want 20230501_Hello_World_8.pdf", filepath.Base(path))
	}
}

func TestRenderDocumentWithImages(t *testing.T) {
	r := testRenderer(t)
	img := decodedPNG(t, 40, 20)

	// nil entries stand for failed downloads and are skipped.
	path, err := r.RenderDocument(context.Background(), samplePost(),
		[]*images.Decoded{nil, img, nil})
	if err != nil {
		t.Fatal(err)
	}
	withImage, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	r2 := testRenderer(t)
	path2, err := r2.RenderDocument(context.Background(), samplePost(), nil)
	if err != nil {
		t.Fatal(err)
	}
	without, err := os.Stat(path2)
	if err != nil {
		t.Fatal(err)
	}
	if withImage.Size() <= without.Size() {
		t.Errorf("image page did not grow the document: %d <= %d",
			withImage.Size(), without.Size())
	}
}

func TestRenderDocumentTagLine(t *testing.T) {
	r := testRenderer(t)
	post := samplePost()
	post.Embedded.Terms = [][]wordpress.Term{
		{{Taxonomy: "category", Name: "News"}, {Taxonomy: "category", Name: "News"}},
		{{Taxonomy: "post_tag", Name: "go"}},
	}
	if _, err := r.RenderDocument(context.Background(), post, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRenderDocumentSurvivesStaleGlyphMapping(t *testing.T) {
	// An earlier run left a mapping entry whose image file no longer exists,
	// and the glyph cannot be refetched. The render must still succeed; only
	// the glyph image is skipped.
	glyphDir := t.TempDir()
	mapping, err := json.Marshal(map[string]string{"😀": "gone.png"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(glyphDir, "emoji_mapping.json"), mapping, 0o644); err != nil {
		t.Fatal(err)
	}
	offline := glyphcache.FetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("offline")
	})
	glyphs, err := glyphcache.New(glyphDir, offline, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	r, err := NewRenderer(Options{
		Fonts:     Builtin(),
		Glyphs:    glyphs,
		OutputDir: t.TempDir(),
		Logger:    log.New(io.Discard),
	})
	if err != nil {
		t.Fatal(err)
	}

	post := samplePost()
	post.Content = wordpress.Rendered{Rendered: "<p>hi 😀 there</p>"}
	path, err := r.RenderDocument(context.Background(), post, nil)
	if err != nil {
		t.Fatalf("render failed on stale glyph mapping: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("rendered PDF is empty")
	}
}

func TestRenderDocumentLogsUnparseableDate(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRenderer(Options{
		Fonts:     Builtin(),
		OutputDir: t.TempDir(),
		Logger:    log.New(&buf),
	})
	if err != nil {
		t.Fatal(err)
	}

	post := samplePost()
	post.Date = "yesterday-ish"
	if _, err := r.RenderDocument(context.Background(), post, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "unparseable post date") {
		t.Errorf("date parse failure not logged, got %q", buf.String())
	}

	buf.Reset()
	if _, err := r.RenderErrorDocument(post, "boom"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "unparseable post date") {
		t.Errorf("error document date parse failure not logged, got %q", buf.String())
	}
}

func TestRenderErrorDocument(t *testing.T) {
	r := testRenderer(t)
	post := samplePost()
	path, err := r.RenderErrorDocument(post, "image decode failed: unexpected EOF")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "error_7_Hello_World.pdf" {
		t.Errorf("filename = %q, want error_7_Hello_World.pdf", filepath.Base(path))
	}
	if filepath.Dir(path) != r.errorsDir {
		t.Errorf("error document outside errors dir: %q", path)
	}
}

func TestFormatTags(t *testing.T) {
	terms := []wordpress.Term{
		{Taxonomy: "category", Name: "News"},
		{Taxonomy: "post_tag", Name: "go"},
		{Taxonomy: "category", Name: "News"}, // duplicate
		{Taxonomy: "series", Name: "Q2"},
		{Taxonomy: "post_tag", Name: ""}, // empty name dropped
	}
	got := formatTags(terms)
	want := "Tags: 📁 News, 🏷️ go, Q2"
	if got != want {
		t.Errorf("formatTags = %q, want %q", got, want)
	}
	if formatTags(nil) != "" {
		t.Error("formatTags(nil) should be empty")
	}
}

func TestNewRendererValidation(t *testing.T) {
	if _, err := NewRenderer(Options{Fonts: Builtin()}); err == nil {
		t.Error("expected error for missing output dir")
	}
	if _, err := NewRenderer(Options{OutputDir: t.TempDir()}); err == nil {
		t.Error("expected error for missing fonts")
	}
}

func TestFromDirMissingFonts(t *testing.T) {
	if _, err := FromDir(t.TempDir()); err == nil {
		t.Error("expected error for empty fonts directory")
	}
}
