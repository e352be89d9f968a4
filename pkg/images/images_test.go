package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wp2pdf/wp2pdf/pkg/httputil"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestThumbnailSuffixRewrite(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://s.example/wp/photo-300x200.jpg", "https://s.example/wp/photo.jpg"},
		{"https://s.example/wp/photo.jpg", "https://s.example/wp/photo.jpg"},
		{"https://s.example/wp/shot-1024x768.png", "https://s.example/wp/shot.png"},
		{"https://s.example/wp/no-dims-here.png", "https://s.example/wp/no-dims-here.png"},
	}
	for _, tt := range tests {
		if got := thumbnailSuffix.ReplaceAllString(tt.in, "$1"); got != tt.want {
			t.Errorf("rewrite(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDimensions(t *testing.T) {
	src := encodePNG(t, solidRGBA(40, 20, color.RGBA{R: 0x20, G: 0x40, B: 0x60, A: 0xff}))
	dec, err := Normalize(src, 800)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Width != 40 || dec.Height != 20 {
		t.Errorf("dimensions = %dx%d, want 40x20", dec.Width, dec.Height)
	}
	if _, err := png.Decode(bytes.NewReader(dec.PNG)); err != nil {
		t.Errorf("output is not valid PNG: %v", err)
	}
}

func TestNormalizeDownscalesLongEdge(t *testing.T) {
	src := encodePNG(t, solidRGBA(1600, 400, color.RGBA{A: 0xff}))
	dec, err := Normalize(src, 800)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Width != 800 || dec.Height != 200 {
		t.Errorf("dimensions = %dx%d, want 800x200", dec.Width, dec.Height)
	}

	tall := encodePNG(t, solidRGBA(400, 1600, color.RGBA{A: 0xff}))
	dec, err = Normalize(tall, 800)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Width != 200 || dec.Height != 800 {
		t.Errorf("dimensions = %dx%d, want 200x800", dec.Width, dec.Height)
	}
}

func TestNormalizeNeverUpscales(t *testing.T) {
	src := encodePNG(t, solidRGBA(10, 10, color.RGBA{A: 0xff}))
	dec, err := Normalize(src, 800)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Width != 10 || dec.Height != 10 {
		t.Errorf("dimensions = %dx%d, want 10x10", dec.Width, dec.Height)
	}
}

func TestNormalizeFlattensAlpha(t *testing.T) {
	// Fully transparent pixels must come out white, not black.
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	dec, err := Normalize(encodePNG(t, img), 800)
	if err != nil {
		t.Fatal(err)
	}
	out, err := png.Decode(bytes.NewReader(dec.PNG))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := out.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("transparent pixel flattened to %v %v %v, want white", r, g, b)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("not an image"), 800); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchPrefersFullSize(t *testing.T) {
	full := encodePNG(t, solidRGBA(30, 30, color.RGBA{A: 0xff}))
	var fullHits, thumbHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			fullHits++
			w.Write(full)
		case "/photo-300x200.png":
			thumbHits++
			w.Write(full)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, Logger: log.New(io.Discard)})
	dec, err := f.Fetch(context.Background(), srv.URL+"/photo-300x200.png")
	if err != nil {
		t.Fatal(err)
	}
	if dec.Width != 30 {
		t.Errorf("width = %d, want 30", dec.Width)
	}
	if fullHits != 1 || thumbHits != 0 {
		t.Errorf("full=%d thumb=%d, want 1/0", fullHits, thumbHits)
	}
}

func TestFetchFallsBackToThumbnail(t *testing.T) {
	thumb := encodePNG(t, solidRGBA(12, 8, color.RGBA{A: 0xff}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/photo-300x200.png" {
			w.Write(thumb)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(Options{Timeout: 5 * time.Second, Logger: log.New(io.Discard)})
	dec, err := f.Fetch(context.Background(), srv.URL+"/photo-300x200.png")
	if err != nil {
		t.Fatal(err)
	}
	if dec.Width != 12 || dec.Height != 8 {
		t.Errorf("dimensions = %dx%d, want 12x8", dec.Width, dec.Height)
	}
}

func TestFetchUsesCache(t *testing.T) {
	img := encodePNG(t, solidRGBA(5, 5, color.RGBA{A: 0xff}))
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(img)
	}))
	defer srv.Close()

	cache, err := httputil.NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(Options{Timeout: 5 * time.Second, Cache: cache, Logger: log.New(io.Discard)})

	ctx := context.Background()
	if _, err := f.Fetch(ctx, srv.URL+"/a.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(ctx, srv.URL+"/a.png"); err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}
