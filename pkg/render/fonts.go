// Package render lays out posts as paginated A4 PDF documents: a header
// block, greedily packed mixed text/emoji body lines, and one page per
// image.
package render

import (
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"

	"github.com/wp2pdf/wp2pdf/pkg/errors"
)

// Fonts selects the font family a document is set in and knows how to
// register it with a PDF instance.
type Fonts struct {
	family string
	files  map[string]string // style → TTF path; empty for core fonts
}

// Builtin selects the PDF core Helvetica family. No files are registered
// and no Unicode coverage is available beyond cp1252; intended for tests
// and environments without font assets.
func Builtin() Fonts {
	return Fonts{family: "Helvetica"}
}

// FromDir selects the NotoSans family loaded from TTF files in dir. The
// regular, bold, and italic faces must all be present; a missing file is
// reported immediately so a run aborts before any post is processed.
func FromDir(dir string) (Fonts, error) {
	files := map[string]string{
		"":  filepath.Join(dir, "NotoSans-Regular.ttf"),
		"B": filepath.Join(dir, "NotoSans-Bold.ttf"),
		"I": filepath.Join(dir, "NotoSans-Italic.ttf"),
	}
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			return Fonts{}, errors.Wrap(errors.ErrCodeFontUnavailable, err,
				"font file %s", path)
		}
	}
	return Fonts{family: "NotoSans", files: files}, nil
}

// Family returns the font family name to pass to SetFont.
func (f Fonts) Family() string { return f.family }

// register adds the UTF-8 faces to pdf. Core-font mode is a no-op.
func (f Fonts) register(pdf *fpdf.Fpdf) error {
	for style, path := range f.files {
		pdf.AddUTF8Font(f.family, style, path)
	}
	if err := pdf.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeFontUnavailable, err, "register fonts")
	}
	return nil
}
