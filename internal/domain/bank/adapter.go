// Package bank holds one extraction adapter per supported institution.
// Adapters map raw page content to the canonical statement model and own
// all layout knowledge: header anchors, table column labels, footer
// markers, per-bank date and amount conventions. The adapter set is
// closed; unrecognized layouts fail loudly instead of degrading.
package bank

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/statement"
)

// ErrLayoutMismatch marks a document whose content does not match the
// adapter's expected statement layout.
var ErrLayoutMismatch = errors.New("statement layout mismatch")

// LayoutError carries the anchor that failed to match. It wraps
// ErrLayoutMismatch so callers can classify with errors.Is.
type LayoutError struct {
	Bank   string
	Anchor string
	Page   int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s: anchor %q not found (page %d)", e.Bank, e.Anchor, e.Page)
}

func (e *LayoutError) Unwrap() error { return ErrLayoutMismatch }

// RawTransaction is one extracted table row before normalization into a
// canonical record. PostingDate is zero when the statement prints a
// single date per transaction.
type RawTransaction struct {
	Date        time.Time
	PostingDate time.Time
	Amount      decimal.Decimal
	Description string
	Page        int
}

// Adapter extracts the statement header and transaction rows from the
// pages of one document.
type Adapter interface {
	Bank() string
	Extract(pages []document.RawPage) (*statement.Header, []RawTransaction, error)
}

// Adapter identifiers. Selection is always explicit; there is no
// content sniffing.
const (
	KaspiGoldID       = "kaspi_gold"
	KaspiPayID        = "kaspi_pay"
	HalykIndividualID = "halyk_individual"
	HalykBusinessID   = "halyk_business"
	ForteID           = "forte"
)

var registry = map[string]Adapter{
	KaspiGoldID:       KaspiGold{},
	KaspiPayID:        KaspiPay{},
	HalykIndividualID: HalykIndividual{},
	HalykBusinessID:   HalykBusiness{},
	ForteID:           Forte{},
}

// firstPageLines guards the header scan: a document with no pages can never
// match any anchor.
func firstPageLines(bank string, pages []document.RawPage) ([]string, error) {
	if len(pages) == 0 {
		return nil, &LayoutError{Bank: bank, Anchor: "first page", Page: 1}
	}
	return pages[0].Lines, nil
}

// Resolve returns the adapter registered under id.
func Resolve(id string) (Adapter, error) {
	a, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown bank adapter %q (supported: %v)", id, IDs())
	}
	return a, nil
}

// IDs lists the supported adapter identifiers in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
