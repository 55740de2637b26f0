package bank

import (
	"regexp"
	"time"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/normalizer"
	"github.com/abenov/bankstmt/internal/domain/statement"
	"github.com/abenov/bankstmt/pkg/money"
)

// HalykIndividual extracts personal account (type B) statements. These
// print two dates per row: the transaction date and the processing date
// the bank posted it under. Income and expense live in separate
// account-currency columns.
type HalykIndividual struct{}

var (
	halykIndAccountRe = regexp.MustCompile(`(KZ[0-9A-Z]{18})`)
	halykIndPeriodRe  = regexp.MustCompile(`с\s+(\d{2}\.\d{2}\.\d{4})\s+по\s+(\d{2}\.\d{2}\.\d{4})`)
	halykIndOpenRe    = regexp.MustCompile(`Остаток на начало[^\d-]*` + amountGroup)
	halykIndCloseRe   = regexp.MustCompile(`Остаток на конец[^\d-]*` + amountGroup)
	halykIndCurrRe    = regexp.MustCompile(`Валюта[^A-Z]*([A-Z]{3})`)
)

func (HalykIndividual) Bank() string { return HalykIndividualID }

func (a HalykIndividual) Extract(pages []document.RawPage) (*statement.Header, []RawTransaction, error) {
	hdr, err := a.header(pages)
	if err != nil {
		return nil, nil, err
	}

	spec := tableSpec{
		bank: HalykIndividualID,
		required: []string{
			"Дата проведения операции",
			"Расход в валюте счета",
			"Приход в валюте счета",
			"Описание операции",
		},
		optional:  []string{"Дата транзакции"},
		stop:      []string{"Остаток на конец", "Итого"},
		wrapLabel: "Описание операции",
		mapRow: func(page int, get func(string) string) (RawTransaction, error) {
			posted, err := normalizer.ParseDate(get("Дата проведения операции"), normalizer.HalykDateFormats)
			if err != nil {
				return RawTransaction{}, err
			}
			amount, err := normalizer.ParseDebitCredit(
				get("Расход в валюте счета"),
				get("Приход в валюте счета"),
				normalizer.KZTConvention,
			)
			if err != nil {
				return RawTransaction{}, err
			}

			tx := RawTransaction{
				Date:        posted,
				Description: normalizer.CleanDescription(get("Описание операции")),
				Amount:      amount,
			}
			// when the statement prints the original transaction date too,
			// it becomes the primary date and the processing date demotes
			// to posting date
			if raw := get("Дата транзакции"); raw != "" {
				var txDate time.Time
				txDate, err = normalizer.ParseDate(raw, normalizer.HalykDateFormats)
				if err != nil {
					return RawTransaction{}, err
				}
				tx.Date = txDate
				tx.PostingDate = posted
			}
			return tx, nil
		},
	}

	txs, err := extractTable(spec, pages)
	if err != nil {
		return nil, nil, err
	}
	return hdr, txs, nil
}

func (HalykIndividual) header(pages []document.RawPage) (*statement.Header, error) {
	lines, err := firstPageLines(HalykIndividualID, pages)
	if err != nil {
		return nil, err
	}

	acct := findSubmatch(lines, halykIndAccountRe)
	if acct == nil {
		return nil, &LayoutError{Bank: HalykIndividualID, Anchor: "account number", Page: 1}
	}
	period := findSubmatch(lines, halykIndPeriodRe)
	if period == nil {
		return nil, &LayoutError{Bank: HalykIndividualID, Anchor: "statement period", Page: 1}
	}
	open := findSubmatch(lines, halykIndOpenRe)
	if open == nil {
		return nil, &LayoutError{Bank: HalykIndividualID, Anchor: "Остаток на начало", Page: 1}
	}
	closeM := findSubmatchTail(pages, halykIndCloseRe)
	if closeM == nil {
		return nil, &LayoutError{Bank: HalykIndividualID, Anchor: "Остаток на конец", Page: len(pages)}
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
	if m := findSubmatch(lines, halykIndCurrRe); m != nil {
		currency = m[1]
	}

	return &statement.Header{
		Bank:           HalykIndividualID,
		AccountID:      acct[1],
		Currency:       currency,
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: opening,
		ClosingBalance: closing,
	}, nil
}
