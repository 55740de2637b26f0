package normalizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// AmountParseError reports a raw amount with non-numeric residue after
// separator and symbol stripping.
type AmountParseError struct {
	Raw    string
	Reason string
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("amount %q: %s", e.Raw, e.Reason)
}

// Convention describes how a bank prints numbers.
type Convention struct {
	// DecimalComma is true for "1 234,56" / "1.234,56" style amounts and
	// false for "1,234.56".
	DecimalComma bool
}

// KZTConvention matches every supported Kazakh bank: space (or NBSP)
// thousands grouping with a comma decimal separator.
var KZTConvention = Convention{DecimalComma: true}

// currencyTokens are symbols and codes stripped from amount cells. Kaspi
// prints the tenge sign inline ("1 234,56 ₸").
var currencyTokens = []string{"₸", "$", "€", "₽", "KZT", "USD", "EUR", "RUB"}

// ParseAmount parses a raw amount under the given convention into an exact
// decimal. Leading '-' or a trailing '-' (some Halyk debit cells) and
// parentheses all mean negative. Empty input is an error; use
// ParseOptionalAmount for cells that may legitimately be blank.
func ParseAmount(raw string, conv Convention) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &AmountParseError{Raw: raw, Reason: "empty"}
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "+") {
		s = strings.TrimPrefix(s, "+")
	}

	s = stripSpaces(s)
	if conv.DecimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	if s == "" {
		return decimal.Zero, &AmountParseError{Raw: raw, Reason: "no digits"}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &AmountParseError{Raw: raw, Reason: "non-numeric residue"}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseOptionalAmount is ParseAmount for cells that may be blank: empty
// input yields zero and ok=false instead of an error.
func ParseOptionalAmount(raw string, conv Convention) (decimal.Decimal, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, false, nil
	}
	d, err := ParseAmount(raw, conv)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// ParseDebitCredit maps a split debit/credit column pair to one signed
// amount: debit is negative, credit positive. Exactly one side must carry a
// value; both empty or both filled is an error, because it signals a
// misaligned table row rather than a legitimate transaction.
func ParseDebitCredit(debitRaw, creditRaw string, conv Convention) (decimal.Decimal, error) {
	debit, hasDebit, err := ParseOptionalAmount(debitRaw, conv)
	if err != nil {
		return decimal.Zero, err
	}
	credit, hasCredit, err := ParseOptionalAmount(creditRaw, conv)
	if err != nil {
		return decimal.Zero, err
	}

	switch {
	case hasDebit && hasCredit && !debit.IsZero() && !credit.IsZero():
		return decimal.Zero, &AmountParseError{
			Raw:    debitRaw + " / " + creditRaw,
			Reason: "both debit and credit populated",
		}
	case hasDebit && !debit.IsZero():
		return debit.Abs().Neg(), nil
	case hasCredit:
		return credit.Abs(), nil
	case hasDebit:
		return decimal.Zero, nil
	default:
		return decimal.Zero, &AmountParseError{
			Raw:    debitRaw + " / " + creditRaw,
			Reason: "neither debit nor credit populated",
		}
	}
}

// stripSpaces removes every space-like rune. unicode.IsSpace covers the
// NBSP (U+00A0) and narrow NBSP (U+202F) thousands separators bank PDFs use.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
