package statement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/pkg/money"
)

// Validation flags recorded in statement metadata. Flags report anomalies
// without rejecting the statement; the orchestrator decides severity.
const (
	FlagPeriodInverted     = "period_end_before_start"
	FlagClosingMismatch    = "closing_balance_mismatch"
	FlagTurnoverMismatch   = "footer_turnover_mismatch"
	FlagNoTransactions     = "no_tx_rows_parsed"
	FlagUnknownCurrency    = "unknown_currency_code"
	FlagDocCreatedEarly    = "pdf_created_before_period_end"
	FlagDocCreatedLate     = "pdf_created_long_after_period_end"
	FlagDocModifiedAfter   = "pdf_modified_after_creation"
	FlagDocMissingMetadata = "pdf_metadata_missing"
)

// BalanceMismatchError reports a closing balance that disagrees with
// opening + sum of signed amounts beyond the currency tolerance. It is a
// flag by default and only fails the file under strict balance mode, since
// some banks omit fees from the printed ledger.
type BalanceMismatchError struct {
	Stated   decimal.Decimal
	Computed decimal.Decimal
	Currency string
}

func (e *BalanceMismatchError) Error() string {
	return fmt.Sprintf("closing balance %s disagrees with computed %s %s",
		e.Stated.StringFixed(money.Fraction(e.Currency)),
		e.Computed.StringFixed(money.Fraction(e.Currency)),
		e.Currency)
}

// Validate checks a parsed statement's numeric invariants and returns the
// flag list plus the balance error when the ledger does not close. The
// statement itself is never mutated: mismatches are reported, not corrected.
func Validate(s *Statement) ([]string, *BalanceMismatchError) {
	var flags []string

	if s.Header.PeriodEnd.Before(s.Header.PeriodStart) {
		flags = append(flags, FlagPeriodInverted)
	}
	if !money.IsKnownCurrency(s.Header.Currency) {
		flags = append(flags, FlagUnknownCurrency)
	}
	if len(s.Records) == 0 {
		flags = append(flags, FlagNoTransactions)
	}

	if !s.Header.DebitTurnover.IsZero() || !s.Header.CreditTurnover.IsZero() {
		var debits, credits decimal.Decimal
		for _, r := range s.Records {
			if r.Amount.IsNegative() {
				debits = debits.Add(r.Amount.Abs())
			} else {
				credits = credits.Add(r.Amount)
			}
		}
		if !money.WithinTolerance(debits, s.Header.DebitTurnover, s.Header.Currency) ||
			!money.WithinTolerance(credits, s.Header.CreditTurnover, s.Header.Currency) {
			flags = append(flags, FlagTurnoverMismatch)
		}
	}

	computed := s.Header.OpeningBalance.Add(s.SignedSum())
	var balErr *BalanceMismatchError
	if !money.WithinTolerance(computed, s.Header.ClosingBalance, s.Header.Currency) {
		flags = append(flags, FlagClosingMismatch)
		balErr = &BalanceMismatchError{
			Stated:   s.Header.ClosingBalance,
			Computed: computed,
			Currency: s.Header.Currency,
		}
	}

	return flags, balErr
}

// maxIssueDelay is how long after the period end a statement PDF may
// plausibly have been generated before it gets flagged.
const maxIssueDelay = 45 * 24 * time.Hour

// ValidateDocInfo sanity-checks the PDF information dictionary against the
// statement period. A bank-issued statement is generated after its period
// closes and shortly thereafter; anything else is flagged for review.
func ValidateDocInfo(info document.Info, periodEnd time.Time) []string {
	var flags []string

	if info.CreationDate.IsZero() {
		return append(flags, FlagDocMissingMetadata)
	}
	if !periodEnd.IsZero() {
		if info.CreationDate.Before(periodEnd) {
			flags = append(flags, FlagDocCreatedEarly)
		} else if info.CreationDate.Sub(periodEnd) > maxIssueDelay {
			flags = append(flags, FlagDocCreatedLate)
		}
	}
	if !info.ModDate.IsZero() && info.ModDate.After(info.CreationDate.Add(time.Minute)) {
		flags = append(flags, FlagDocModifiedAfter)
	}
	return flags
}
