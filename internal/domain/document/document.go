// Package document isolates the PDF library behind a page/cell abstraction.
// Adapters consume RawPage values and never touch the PDF reader directly,
// so layout knowledge depends on stable cell coordinates rather than on
// library-specific text extraction order.
package document

import (
	"errors"
	"fmt"
	"time"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnreadableDocument marks files that cannot be opened as PDFs:
	// corrupted content, password protection, or zero pages.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrUnsupportedContent marks PDFs with no extractable text layer,
	// typically scanned statements rasterized to images.
	ErrUnsupportedContent = errors.New("unsupported content: no text layer")
)

// Cell is a positioned run of text on a page. X grows rightward, Y grows
// upward (PDF coordinate space); W is the rendered width in points.
type Cell struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	Text string  `json:"text"`
}

// RawPage holds one page's extracted content: plain text lines in reading
// order plus the positioned cells they were assembled from. RawPages are
// ephemeral; they exist only between loading and adapter mapping.
type RawPage struct {
	Number int      `json:"number"` // 1-based
	Lines  []string `json:"lines"`
	Cells  []Cell   `json:"cells,omitempty"`
}

// Info carries the PDF document information dictionary fields used for
// statement metadata validation.
type Info struct {
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
	PageCount    int
}

// Document is a fully loaded statement PDF.
type Document struct {
	Path  string
	Pages []RawPage
	Info  Info
}

// Loader opens statement PDFs from the filesystem.
type Loader struct {
	layout layoutConfig
}

// NewLoader returns a Loader with layout thresholds tuned for statement
// tables (tight rows, wide column gutters).
func NewLoader() *Loader {
	return &Loader{layout: defaultLayoutConfig()}
}

// Load opens the PDF at path and extracts every page. It fails with
// ErrUnreadableDocument when the file cannot be parsed and with
// ErrUnsupportedContent when no page yields any text.
func (l *Loader) Load(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, path, err)
	}
	defer f.Close()

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("%w: %s: zero pages", ErrUnreadableDocument, path)
	}

	doc := &Document{
		Path:  path,
		Info:  readInfo(r, n),
		Pages: make([]RawPage, 0, n),
	}

	totalCells := 0
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		texts := pageTexts(page)
		raw := l.layout.assemble(i, texts)
		totalCells += len(raw.Cells)
		doc.Pages = append(doc.Pages, raw)
	}

	if totalCells == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, path)
	}
	return doc, nil
}

// pageTexts pulls the glyph stream for one page. The underlying library can
// panic on malformed content streams; a panic degrades to an empty page so a
// single bad page does not kill the whole document.
func pageTexts(page pdf.Page) (texts []pdf.Text) {
	defer func() {
		if recover() != nil {
			texts = nil
		}
	}()
	return page.Content().Text
}

func readInfo(r *pdf.Reader, pages int) Info {
	info := Info{PageCount: pages}

	defer func() {
		recover() // malformed trailers are not fatal, Info stays partial
	}()

	dict := r.Trailer().Key("Info")
	if dict.IsNull() {
		return info
	}
	info.Creator = dict.Key("Creator").RawString()
	info.Producer = dict.Key("Producer").RawString()
	info.CreationDate = parsePDFDate(dict.Key("CreationDate").RawString())
	info.ModDate = parsePDFDate(dict.Key("ModDate").RawString())
	return info
}

// parsePDFDate parses "D:YYYYMMDDHHmmSS..." dates, ignoring the timezone
// suffix. Returns the zero time when the value does not match.
func parsePDFDate(s string) time.Time {
	if len(s) < 2 || s[:2] != "D:" {
		return time.Time{}
	}
	digits := s[2:]
	for _, layout := range []string{"20060102150405", "200601021504", "20060102"} {
		if len(digits) >= len(layout) {
			if t, err := time.Parse(layout, digits[:len(layout)]); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
