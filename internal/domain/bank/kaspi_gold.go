package bank

import (
	"regexp"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/normalizer"
	"github.com/abenov/bankstmt/internal/domain/statement"
	"github.com/abenov/bankstmt/pkg/money"
)

// KaspiGold extracts personal card statements: a four column table with a
// single signed amount per row, dd.mm.yy dates, tenge sign printed inline.
type KaspiGold struct{}

var (
	kaspiGoldAccountRe = regexp.MustCompile(`(KZ[0-9A-Z]{18})`)
	kaspiGoldPeriodRe  = regexp.MustCompile(`с\s+(\d{2}\.\d{2}\.\d{2})\s+по\s+(\d{2}\.\d{2}\.\d{2})`)
	kaspiGoldOpenRe    = regexp.MustCompile(`Остаток на начало[^\d-]*` + amountGroup)
	kaspiGoldCloseRe   = regexp.MustCompile(`Остаток на конец[^\d-]*` + amountGroup)
)

func (KaspiGold) Bank() string { return KaspiGoldID }

func (a KaspiGold) Extract(pages []document.RawPage) (*statement.Header, []RawTransaction, error) {
	hdr, err := a.header(pages)
	if err != nil {
		return nil, nil, err
	}

	spec := tableSpec{
		bank:      KaspiGoldID,
		required:  []string{"Дата", "Сумма", "Операция"},
		optional:  []string{"Детали"},
		stop:      []string{"Остаток на конец", "Итого"},
		wrapLabel: "Детали",
		mapRow: func(page int, get func(string) string) (RawTransaction, error) {
			date, err := normalizer.ParseDate(get("Дата"), normalizer.KaspiDateFormats)
			if err != nil {
				return RawTransaction{}, err
			}
			amount, err := normalizer.ParseAmount(get("Сумма"), normalizer.KZTConvention)
			if err != nil {
				return RawTransaction{}, err
			}
			return RawTransaction{
				Date:        date,
				Amount:      amount,
				Description: normalizer.JoinWrapped([]string{get("Операция"), get("Детали")}),
			}, nil
		},
	}

	txs, err := extractTable(spec, pages)
	if err != nil {
		return nil, nil, err
	}
	return hdr, txs, nil
}

func (KaspiGold) header(pages []document.RawPage) (*statement.Header, error) {
	lines, err := firstPageLines(KaspiGoldID, pages)
	if err != nil {
		return nil, err
	}

	acct := findSubmatch(lines, kaspiGoldAccountRe)
	if acct == nil {
		return nil, &LayoutError{Bank: KaspiGoldID, Anchor: "account number", Page: 1}
	}
	period := findSubmatch(lines, kaspiGoldPeriodRe)
	if period == nil {
		return nil, &LayoutError{Bank: KaspiGoldID, Anchor: "statement period", Page: 1}
	}
	open := findSubmatch(lines, kaspiGoldOpenRe)
	if open == nil {
		return nil, &LayoutError{Bank: KaspiGoldID, Anchor: "Остаток на начало", Page: 1}
	}
	closeM := findSubmatchTail(pages, kaspiGoldCloseRe)
	if closeM == nil {
		return nil, &LayoutError{Bank: KaspiGoldID, Anchor: "Остаток на конец", Page: 1}
	}

	start, err := normalizer.ParseDate(period[1], normalizer.KaspiDateFormats)
	if err != nil {
		return nil, err
	}
	end, err := normalizer.ParseDate(period[2], normalizer.KaspiDateFormats)
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

	return &statement.Header{
		Bank:           KaspiGoldID,
		AccountID:      acct[1],
		Currency:       money.KZT,
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}, nil
}
