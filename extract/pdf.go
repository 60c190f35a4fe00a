package extract

import (
	"errors"
	"sort"
	"strings"

	pdf "rsc.io/pdf"
)

// ExtractPDF runs the deterministic parser over every page of a PDF and
// returns the deduplicated markers. PDFs without a text layer (pure scans)
// yield no markers and no error; the caller decides how to report that.
func ExtractPDF(filePath string) ([]Marker, error) {
	r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	var all []Marker
	total := r.NumPage()
	if total == 0 {
		return nil, errors.New("pdf has no pages")
	}
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		all = append(all, ParseText(pageText(p))...)
	}
	return Dedupe(all), nil
}

// pageText rebuilds line structure from glyph positions. The pdf library
// returns a flat list of positioned fragments; the parser needs one test
// name or value per line, so fragments are bucketed by their Y coordinate.
func pageText(p pdf.Page) string {
	content := p.Content()
	if len(content.Text) == 0 {
		return ""
	}
	type frag struct {
		x, y float64
		s    string
	}
	frags := make([]frag, 0, len(content.Text))
	for _, t := range content.Text {
		frags = append(frags, frag{x: t.X, y: t.Y, s: t.S})
	}
	// Top of page first, left to right inside a line. Fragments within half
	// a text-height of each other belong to the same line.
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].y != frags[j].y {
			return frags[i].y > frags[j].y
		}
		return frags[i].x < frags[j].x
	})
	// columnGap splits name and result columns onto separate lines, which is
	// the shape the parser expects.
	const (
		lineTolerance = 3.0
		columnGap     = 80.0
	)
	var b strings.Builder
	lineY := frags[0].y
	for i, f := range frags {
		if i > 0 {
			prev := frags[i-1]
			if lineY-f.y > lineTolerance {
				b.WriteString("\n")
				lineY = f.y
			} else if f.x-prev.x > columnGap {
				b.WriteString("\n")
			}
		}
		b.WriteString(f.s)
	}
	return b.String()
}
