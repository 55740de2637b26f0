package bank

import (
	"regexp"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/normalizer"
	"github.com/abenov/bankstmt/internal/domain/statement"
	"github.com/abenov/bankstmt/pkg/money"
)

// KaspiPay extracts merchant account statements: split debit and credit
// columns, payment purpose plus counterparty, opening and closing
// balances labeled in the header block.
type KaspiPay struct{}

var (
	kaspiPayAccountRe = regexp.MustCompile(`(KZ[0-9A-Z]{18})`)
	kaspiPayPeriodRe  = regexp.MustCompile(`с\s+(\d{2}\.\d{2}\.\d{2})\s+по\s+(\d{2}\.\d{2}\.\d{2})`)
	kaspiPayOpenRe    = regexp.MustCompile(`Входящий остаток[^\d-]*` + amountGroup)
	kaspiPayCloseRe   = regexp.MustCompile(`Исходящий остаток[^\d-]*` + amountGroup)
)

func (KaspiPay) Bank() string { return KaspiPayID }

func (a KaspiPay) Extract(pages []document.RawPage) (*statement.Header, []RawTransaction, error) {
	hdr, err := a.header(pages)
	if err != nil {
		return nil, nil, err
	}

	spec := tableSpec{
		bank:      KaspiPayID,
		required:  []string{"Дата", "Дебет", "Кредит", "Назначение платежа"},
		optional:  []string{"Контрагент"},
		stop:      []string{"Исходящий остаток", "Итого"},
		wrapLabel: "Назначение платежа",
		mapRow: func(page int, get func(string) string) (RawTransaction, error) {
			date, err := normalizer.ParseDate(get("Дата"), normalizer.KaspiDateFormats)
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
				Description: normalizer.JoinWrapped([]string{get("Назначение платежа"), get("Контрагент")}),
			}, nil
		},
	}

	txs, err := extractTable(spec, pages)
	if err != nil {
		return nil, nil, err
	}
	return hdr, txs, nil
}

func (KaspiPay) header(pages []document.RawPage) (*statement.Header, error) {
	lines, err := firstPageLines(KaspiPayID, pages)
	if err != nil {
		return nil, err
	}

	acct := findSubmatch(lines, kaspiPayAccountRe)
	if acct == nil {
		return nil, &LayoutError{Bank: KaspiPayID, Anchor: "account number", Page: 1}
	}
	period := findSubmatch(lines, kaspiPayPeriodRe)
	if period == nil {
		return nil, &LayoutError{Bank: KaspiPayID, Anchor: "statement period", Page: 1}
	}
	open := findSubmatch(lines, kaspiPayOpenRe)
	if open == nil {
		return nil, &LayoutError{Bank: KaspiPayID, Anchor: "Входящий остаток", Page: 1}
	}
	closeM := findSubmatchTail(pages, kaspiPayCloseRe)
	if closeM == nil {
		return nil, &LayoutError{Bank: KaspiPayID, Anchor: "Исходящий остаток", Page: 1}
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
		Bank:           KaspiPayID,
		AccountID:      acct[1],
		Currency:       money.KZT,
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}, nil
}
