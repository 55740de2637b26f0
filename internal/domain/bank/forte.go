package bank

import (
	"regexp"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/normalizer"
	"github.com/abenov/bankstmt/internal/domain/statement"
	"github.com/abenov/bankstmt/pkg/money"
)

// Forte extracts ForteBank statements. Labels come printed bilingually
// (Kazakh/Russian); the footer carries the closing balance plus debit and
// credit turnover totals, which feed the turnover cross-check.
type Forte struct{}

var (
	forteAccountRe = regexp.MustCompile(`(KZ[0-9A-Z]{18})`)
	fortePeriodRe  = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})\s*[-—]\s*(\d{2}\.\d{2}\.\d{4})`)
	forteOpenRe    = regexp.MustCompile(`(?:Кіріс қалдық|Входящий остаток)[^\d-]*` + amountGroup)
	forteCloseRe   = regexp.MustCompile(`(?:Шығыс қалдық|Исходящий остаток)[^\d-]*` + amountGroup)
	forteDebitRe   = regexp.MustCompile(`(?:Дебет айналымы|Обороты по дебету)[^\d-]*` + amountGroup)
	forteCreditRe  = regexp.MustCompile(`(?:Кредит айналымы|Обороты по кредиту)[^\d-]*` + amountGroup)
	forteCurrRe    = regexp.MustCompile(`Валюта[^A-Z]*([A-Z]{3})`)
)

func (Forte) Bank() string { return ForteID }

func (a Forte) Extract(pages []document.RawPage) (*statement.Header, []RawTransaction, error) {
	hdr, err := a.header(pages)
	if err != nil {
		return nil, nil, err
	}

	spec := tableSpec{
		bank:      ForteID,
		required:  []string{"Күні/Дата", "Дебет", "Кредит", "Назначение платежа"},
		optional:  []string{"Жіберуші/Отправитель"},
		stop:      []string{"Шығыс қалдық", "Исходящий остаток", "айналымы", "Обороты по", "Итого"},
		wrapLabel: "Назначение платежа",
		mapRow: func(page int, get func(string) string) (RawTransaction, error) {
			date, err := normalizer.ParseDate(get("Күні/Дата"), normalizer.ForteDateFormats)
			if err != nil {
				return RawTransaction{}, err
			}
			amount, err := normalizer.ParseDebitCredit(get("Дебет"), get("Кредит"), normalizer.KZTConvention)
			if err != nil {
				return RawTransaction{}, err
			}
			return RawTransaction{
				Date:        date,
				Amount:      amount,
				Description: normalizer.JoinWrapped([]string{get("Назначение платежа"), get("Жіберуші/Отправитель")}),
			}, nil
		},
	}

	txs, err := extractTable(spec, pages)
	if err != nil {
		return nil, nil, err
	}
	return hdr, txs, nil
}

func (Forte) header(pages []document.RawPage) (*statement.Header, error) {
	lines, err := firstPageLines(ForteID, pages)
	if err != nil {
		return nil, err
	}

	acct := findSubmatch(lines, forteAccountRe)
	if acct == nil {
		return nil, &LayoutError{Bank: ForteID, Anchor: "account number", Page: 1}
	}
	period := findSubmatch(lines, fortePeriodRe)
	if period == nil {
		return nil, &LayoutError{Bank: ForteID, Anchor: "statement period", Page: 1}
	}
	open := findSubmatch(lines, forteOpenRe)
	if open == nil {
		return nil, &LayoutError{Bank: ForteID, Anchor: "Кіріс қалдық", Page: 1}
	}
	closeM := findSubmatchTail(pages, forteCloseRe)
	if closeM == nil {
		return nil, &LayoutError{Bank: ForteID, Anchor: "Шығыс қалдық", Page: len(pages)}
	}

	start, err := normalizer.ParseDate(period[1], normalizer.ForteDateFormats)
	if err != nil {
		return nil, err
	}
	end, err := normalizer.ParseDate(period[2], normalizer.ForteDateFormats)
	if err != nil {
		return nil, err
	}
	opening, err := normalizer.ParseAmount(open[1], normalizer.KZTConvention)
	if err != nil {
		return nil, err
	}
	closing, err := normalizer.ParseAmount(closeM[1], normalizer.KZTConvention)
	if err != nil {
		return nil, err
	}

	currency := money.KZT
	if m := findSubmatch(lines, forteCurrRe); m != nil {
		currency = m[1]
	}

	hdr := &statement.Header{
		Bank:           ForteID,
		AccountID:      acct[1],
		Currency:       currency,
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}

	// turnover totals are optional footer lines
	if m := findSubmatchTail(pages, forteDebitRe); m != nil {
		d, err := normalizer.ParseAmount(m[1], normalizer.KZTConvention)
		if err != nil {
			return nil, err
		}
		hdr.DebitTurnover = d
	}
	if m := findSubmatchTail(pages, forteCreditRe); m != nil {
		c, err := normalizer.ParseAmount(m[1], normalizer.KZTConvention)
		if err != nil {
			return nil, err
		}
		hdr.CreditTurnover = c
	}
	return hdr, nil
}
