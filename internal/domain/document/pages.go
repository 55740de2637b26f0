package document

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// PagesLoader reads pre-extracted page dumps instead of PDFs: one RawPage
// JSON object per line, the format the pages debug dump emits. It lets a
// batch rerun against captured text when the source PDFs are no longer at
// hand. Page dumps carry no Info dictionary, so metadata validation flags
// the result as missing metadata.
type PagesLoader struct{}

func NewPagesLoader() *PagesLoader { return &PagesLoader{} }

// Load reads the page dump at path. Undecodable lines and empty documents
// fail with ErrUnreadableDocument; pages without any cell content fail with
// ErrUnsupportedContent, mirroring the PDF loader's contract.
func (l *PagesLoader) Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, path, err)
	}
	defer f.Close()

	doc := &Document{Path: path}
	totalCells := 0

	sc := bufio.NewScanner(f)
	// statement pages with dense cell grids exceed the default line limit
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var page RawPage
		if err := json.Unmarshal(line, &page); err != nil {
			return nil, fmt.Errorf("%w: %s: line %d: %v", ErrUnreadableDocument, path, len(doc.Pages)+1, err)
		}
		totalCells += len(page.Cells)
		doc.Pages = append(doc.Pages, page)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, path, err)
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s: zero pages", ErrUnreadableDocument, path)
	}
	if totalCells == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, path)
	}
	doc.Info.PageCount = len(doc.Pages)
	return doc, nil
}
