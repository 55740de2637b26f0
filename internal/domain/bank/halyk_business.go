package bank

import (
	"regexp"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/normalizer"
	"github.com/abenov/bankstmt/internal/domain/statement"
	"github.com/abenov/bankstmt/pkg/money"
)

// HalykBusiness extracts current account (type A) statements: IIK account
// anchor, dd.mm.yyyy dates, split debit/credit, payment details plus
// counterparty name, closing balance printed in the footer block.
type HalykBusiness struct{}

var (
	halykBizAccountRe = regexp.MustCompile(`ИИК[:\s]*(KZ[0-9A-Z]{18})`)
	halykBizPeriodRe  = regexp.MustCompile(`с\s+(\d{2}\.\d{2}\.\d{4})\s+по\s+(\d{2}\.\d{2}\.\d{4})`)
	halykBizOpenRe    = regexp.MustCompile(`Входящий остаток[^\d-]*` + amountGroup)
	halykBizCloseRe   = regexp.MustCompile(`Исходящий остаток[^\d-]*` + amountGroup)
	halykBizCurrRe    = regexp.MustCompile(`Валюта[^A-Z]*([A-Z]{3})`)
)

func (HalykBusiness) Bank() string { return HalykBusinessID }

func (a HalykBusiness) Extract(pages []document.RawPage) (*statement.Header, []RawTransaction, error) {
	hdr, err := a.header(pages)
	if err != nil {
		return nil, nil, err
	}

	spec := tableSpec{
		bank:      HalykBusinessID,
		required:  []string{"Дата", "Дебет", "Кредит", "Детали платежа"},
		optional:  []string{"Контрагент"},
		stop:      []string{"Исходящий остаток", "Итого"},
		wrapLabel: "Детали платежа",
		mapRow: func(page int, get func(string) string) (RawTransaction, error) {
			date, err := normalizer.ParseDate(get("Дата"), normalizer.HalykDateFormats)
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
				Description: normalizer.JoinWrapped([]string{get("Детали платежа"), get("Контрагент")}),
			}, nil
		},
	}

	txs, err := extractTable(spec, pages)
	if err != nil {
		return nil, nil, err
	}
	return hdr, txs, nil
}

func (HalykBusiness) header(pages []document.RawPage) (*statement.Header, error) {
	lines, err := firstPageLines(HalykBusinessID, pages)
	if err != nil {
		return nil, err
	}

	acct := findSubmatch(lines, halykBizAccountRe)
	if acct == nil {
		return nil, &LayoutError{Bank: HalykBusinessID, Anchor: "ИИК", Page: 1}
	}
	period := findSubmatch(lines, halykBizPeriodRe)
	if period == nil {
		return nil, &LayoutError{Bank: HalykBusinessID, Anchor: "statement period", Page: 1}
	}
	open := findSubmatch(lines, halykBizOpenRe)
	if open == nil {
		return nil, &LayoutError{Bank: HalykBusinessID, Anchor: "Входящий остаток", Page: 1}
	}
	// closing lives in the footer, usually on the last page
	closeM := findSubmatchTail(pages, halykBizCloseRe)
	if closeM == nil {
		return nil, &LayoutError{Bank: HalykBusinessID, Anchor: "Исходящий остаток", Page: len(pages)}
	}

	start, err := normalizer.ParseDate(period[1], normalizer.HalykDateFormats)
	if err != nil {
		return nil, err
	}
	end, err := normalizer.ParseDate(period[2], normalizer.HalykDateFormats)
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
	if m := findSubmatch(lines, halykBizCurrRe); m != nil {
		currency = m[1]
	}

	return &statement.Header{
		Bank:           HalykBusinessID,
		AccountID:      acct[1],
		Currency:       currency,
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}, nil
}
