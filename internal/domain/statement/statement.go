// Package statement defines the canonical data model every bank adapter
// produces: the statement header and the normalized transaction record.
// The record JSON layout is the contract downstream consumers depend on and
// must stay identical across banks.
package statement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Header carries the account-level fields of one statement.
type Header struct {
	Bank           string          `json:"bank"`
	AccountID      string          `json:"account_id"`
	Currency       string          `json:"currency"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`

	// Turnover totals printed in the statement footer, when the bank prints
	// them. Both zero means the footer carried no totals.
	DebitTurnover  decimal.Decimal `json:"debit_turnover"`
	CreditTurnover decimal.Decimal `json:"credit_turnover"`
}

// Record is the canonical transaction record. Once written it is immutable.
type Record struct {
	Bank              string          `json:"bank"`
	AccountID         string          `json:"account_id"`
	TransactionDate   CivilDate       `json:"transaction_date"`
	PostingDate       *CivilDate      `json:"posting_date,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Description       string          `json:"description"`
	RecordID          string          `json:"record_id"`
	SourceFingerprint string          `json:"source_fingerprint"`
	SourcePage        int             `json:"source_page"`
}

// CivilDate marshals as a calendar date ("2006-01-02") with no time part,
// matching what statements actually print.
type CivilDate struct {
	time.Time
}

// Date wraps a time.Time as a calendar date for record fields.
func Date(t time.Time) CivilDate { return CivilDate{t} }

// DatePtr returns a calendar date pointer, or nil for the zero time.
func DatePtr(t time.Time) *CivilDate {
	if t.IsZero() {
		return nil
	}
	d := Date(t)
	return &d
}

func (d CivilDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *CivilDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse("2006-01-02", s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// DeriveRecordID computes the stable identifier used for deduplication
// across overlapping statement periods. Two reissued statements covering
// the same transaction derive the same ID; the sequence index keeps
// legitimate same-day same-amount duplicates within one statement apart.
func DeriveRecordID(accountID string, date time.Time, amount decimal.Decimal, description string, seq int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d",
		accountID,
		date.Format("2006-01-02"),
		amount.String(),
		description,
		seq,
	)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Statement bundles a parsed header with its normalized records.
type Statement struct {
	Header  Header
	Records []Record
}

// SignedSum returns the sum of all record amounts.
func (s *Statement) SignedSum() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range s.Records {
		sum = sum.Add(r.Amount)
	}
	return sum
}
