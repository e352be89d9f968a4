package render

import (
	"bytes"
	"context"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/charmbracelet/log"

	"github.com/wp2pdf/wp2pdf/pkg/glyphcache"
	"github.com/wp2pdf/wp2pdf/pkg/httputil"
	"github.com/wp2pdf/wp2pdf/pkg/images"
	"github.com/wp2pdf/wp2pdf/pkg/wordpress"
)

// Page geometry, in mm.
const (
	bottomMargin       = 15 // auto page break threshold
	ruleInset          = 20 // horizontal rules start/end this far from the page edge
	paragraphSpacing   = 8  // vertical gap between body paragraphs
	pageBreakLookahead = 20 // a paragraph needs at least this much room to start
	imageTopOffset     = 10 // image pages place the image below the top margin
	mmPerPixel         = 25.4 / 96
)

// creationDate pins the PDF metadata timestamp so rendering the same post
// twice produces byte-identical output.
var creationDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// composer drives one PDF document. It owns the fpdf instance for the
// lifetime of a single post.
type composer struct {
	pdf    *fpdf.Fpdf
	fonts  Fonts
	glyphs *glyphcache.Cache
	logger *log.Logger
}

func newComposer(fonts Fonts, glyphs *glyphcache.Cache, logger *log.Logger) (*composer, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	if err := fonts.register(pdf); err != nil {
		return nil, err
	}
	pdf.SetCreationDate(creationDate)
	pdf.SetModificationDate(creationDate)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AddPage()
	return &composer{pdf: pdf, fonts: fonts, glyphs: glyphs, logger: logger}, nil
}

// header writes the title block: centered bold title, rule, centered date,
// rule, and an optional italic tag line followed by its own rule.
func (c *composer) header(ctx context.Context, title, date string, terms []wordpress.Term) {
	c.pdf.SetFont(c.fonts.family, "B", 16)
	c.pdf.MultiCell(0, 10, title, "", "C", false)
	c.rule()

	c.pdf.SetFont(c.fonts.family, "", 12)
	c.pdf.CellFormat(0, 10, displayDate(c.logger, date), "", 1, "C", false, 0, "")
	c.rule()

	if tagLine := formatTags(terms); tagLine != "" {
		c.pdf.SetFont(c.fonts.family, "I", 12)
		c.writeLines(ctx, tagLine, 12)
		c.rule()
	}
	c.pdf.Ln(5)
}

// body writes the paragraphs with inter-paragraph spacing and a lookahead
// page-break check, so a paragraph never starts in the last sliver of a
// page.
func (c *composer) body(ctx context.Context, paragraphs []string) {
	_, pageH := c.pdf.GetPageSize()
	_, _, _, bottom := c.pdf.GetMargins()
	for i, text := range paragraphs {
		if i > 0 {
			c.pdf.Ln(paragraphSpacing)
		}
		if c.pdf.GetY()+pageBreakLookahead > pageH-bottom {
			c.pdf.AddPage()
		}
		c.pdf.SetFont(c.fonts.family, "", 12)
		c.writeLines(ctx, text, 12)
	}
}

// writeLines lays out one paragraph as packed mixed text/glyph lines at the
// current font and writes them from the current Y position.
func (c *composer) writeLines(ctx context.Context, text string, fontSize float64) {
	glyphW := c.pdf.PointConvert(fontSize * emojiScale)
	lineH := c.pdf.PointConvert(fontSize * lineScale)
	spaceW := c.pdf.GetStringWidth(" ")

	pageW, pageH := c.pdf.GetPageSize()
	left, _, right, bottom := c.pdf.GetMargins()
	maxW := pageW - left - right

	lines := packLines(splitSegments(c.pdf, text, glyphW), spaceW, maxW)
	for _, ln := range lines {
		y := c.pdf.GetY()
		if y+lineH > pageH-bottom {
			c.pdf.AddPage()
			y = c.pdf.GetY()
		}
		x := left
		for i, seg := range ln.segments {
			if i > 0 && seg.spaceBefore {
				x += spaceW
			}
			if seg.glyph {
				c.drawGlyph(ctx, seg.text, x, y, glyphW, lineH)
			} else {
				c.pdf.SetXY(x, y)
				c.pdf.CellFormat(seg.width, lineH, seg.text, "", 0, "L", false, 0, "")
			}
			x += seg.width
		}
		c.pdf.SetY(y + lineH)
	}
}

// drawGlyph places a cached emoji image vertically centered in the line
// box. A cache miss skips the image but the caller has already reserved the
// advance, so surrounding text keeps its position.
func (c *composer) drawGlyph(ctx context.Context, key string, x, y, size, lineH float64) {
	if c.glyphs == nil {
		return
	}
	path, ok := c.glyphs.Path(ctx, key)
	if !ok {
		c.logger.Debug("skipping glyph", "key", key)
		return
	}
	iy := y + (lineH-size)/2
	c.pdf.ImageOptions(path, x, iy, size, size, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	// fpdf errors are sticky; a bad image file must cost one glyph, not the
	// whole document.
	if c.pdf.Err() {
		c.logger.Warn("glyph image rejected", "key", key, "err", c.pdf.Error())
		c.pdf.ClearError()
	}
}

// imagePage places one image on a fresh page, shrunk to fit the usable box
// while preserving aspect ratio, horizontally centered below the top margin.
func (c *composer) imagePage(img *images.Decoded) {
	c.pdf.AddPage()

	pageW, pageH := c.pdf.GetPageSize()
	_, top, _, bottom := c.pdf.GetMargins()
	boxW := pageW - 2*ruleInset
	boxH := pageH - top - imageTopOffset - bottom

	w, h := fitRect(float64(img.Width)*mmPerPixel, float64(img.Height)*mmPerPixel, boxW, boxH)
	x := (pageW - w) / 2
	y := top + imageTopOffset

	name := "img-" + httputil.Hash(img.PNG)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.PNG))
	c.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

// rule draws a horizontal separator across the page at the current Y.
func (c *composer) rule() {
	pageW, _ := c.pdf.GetPageSize()
	y := c.pdf.GetY()
	c.pdf.Line(ruleInset, y, pageW-ruleInset, y)
	c.pdf.Ln(4)
}

// fitRect shrinks a w×h rectangle to fit within maxW×maxH, preserving the
// aspect ratio. Rectangles already inside the box keep their size.
func fitRect(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := 1.0
	if s := maxW / w; s < scale {
		scale = s
	}
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

// displayDate formats a post date for the header. An unparseable date is
// logged and shown raw.
func displayDate(logger *log.Logger, date string) string {
	t, err := ParseDate(date)
	if err != nil {
		logger.Warn("unparseable post date", "date", date, "err", err)
		return date
	}
	return t.Format("20060102 @ 15:04")
}

// formatTags builds the "Tags:" header line from the embedded taxonomy
// terms, de-duplicated in first-seen order. Categories get a folder glyph,
// post tags a label glyph, other taxonomies appear bare.
func formatTags(terms []wordpress.Term) string {
	seen := make(map[wordpress.Term]bool)
	var parts []string
	for _, term := range terms {
		if term.Name == "" || seen[term] {
			continue
		}
		seen[term] = true
		switch term.Taxonomy {
		case "category":
			parts = append(parts, "📁 "+term.Name)
		case "post_tag":
			parts = append(parts, "🏷️ "+term.Name)
		default:
			parts = append(parts, term.Name)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Tags: " + strings.Join(parts, ", ")
}
