package bank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abenov/bankstmt/internal/domain/document"
)

const testAccount = "KZ1234567890ABCDEF12"

func cell(x, y float64, text string) document.Cell {
	return document.Cell{X: x, Y: y, Text: text}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	for _, id := range IDs() {
		a, err := Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, id, a.Bank())
	}

	_, err := Resolve("monzo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bank adapter")
}

func TestKaspiGoldExtract(t *testing.T) {
	page := document.RawPage{
		Number: 1,
		Lines: []string{
			"ВЫПИСКА по Kaspi Gold",
			"Номер счета: " + testAccount,
			"за период с 01.06.24 по 30.06.24",
			"Остаток на начало периода: 1 000,00 ₸",
			"Остаток на конец периода: 3 500,00 ₸",
		},
		Cells: []document.Cell{
			cell(50, 700, "Дата"), cell(150, 700, "Сумма"), cell(250, 700, "Операция"), cell(350, 700, "Детали"),
			cell(50, 680, "05.06.24"), cell(150, 680, "+ 5 000,00 ₸"), cell(250, 680, "Пополнение"), cell(350, 680, "Перевод от Иванов И."),
			cell(50, 660, "10.06.24"), cell(150, 660, "- 2 500,00 ₸"), cell(250, 660, "Покупка"), cell(350, 660, "Magnum"),
			cell(50, 640, "Остаток на конец периода: 3 500,00 ₸"),
		},
	}

	hdr, txs, err := KaspiGold{}.Extract([]document.RawPage{page})
	require.NoError(t, err)

	assert.Equal(t, testAccount, hdr.AccountID)
	assert.Equal(t, "KZT", hdr.Currency)
	assert.Equal(t, day(2024, 6, 1), hdr.PeriodStart)
	assert.Equal(t, day(2024, 6, 30), hdr.PeriodEnd)
	assert.Equal(t, "1000", hdr.OpeningBalance.String())
	assert.Equal(t, "3500", hdr.ClosingBalance.String())

	require.Len(t, txs, 2)
	assert.Equal(t, day(2024, 6, 5), txs[0].Date)
	assert.Equal(t, "5000", txs[0].Amount.String())
	assert.Equal(t, "Пополнение Перевод от Иванов И.", txs[0].Description)
	assert.Equal(t, "-2500", txs[1].Amount.String())
	assert.Equal(t, "Покупка Magnum", txs[1].Description)
	assert.Equal(t, 1, txs[1].Page)
}

func TestKaspiPayExtract(t *testing.T) {
	page := document.RawPage{
		Number: 1,
		Lines: []string{
			"Выписка по счету " + testAccount,
			"за период с 01.01.24 по 31.01.24",
			"Входящий остаток: 10 000,00",
			"Исходящий остаток: 13 800,00",
		},
		Cells: []document.Cell{
			cell(50, 700, "Дата"), cell(150, 700, "Дебет"), cell(250, 700, "Кредит"), cell(350, 700, "Контрагент"), cell(450, 700, "Назначение платежа"),
			cell(50, 680, "05.01.24"), cell(250, 680, "5 000,00"), cell(350, 680, "ТОО Ромашка"), cell(450, 680, "Оплата за услуги"),
			cell(50, 660, "10.01.24"), cell(150, 660, "1 200,00"), cell(450, 660, "Комиссия банка"),
			cell(450, 640, "по договору 42"),
			cell(50, 620, "Исходящий остаток: 13 800,00"),
		},
	}

	hdr, txs, err := KaspiPay{}.Extract([]document.RawPage{page})
	require.NoError(t, err)

	assert.Equal(t, "10000", hdr.OpeningBalance.String())
	assert.Equal(t, "13800", hdr.ClosingBalance.String())

	require.Len(t, txs, 2)
	assert.Equal(t, "5000", txs[0].Amount.String())
	assert.Equal(t, "Оплата за услуги ТОО Ромашка", txs[0].Description)
	assert.Equal(t, "-1200", txs[1].Amount.String())
	assert.Equal(t, "Комиссия банка по договору 42", txs[1].Description,
		"wrapped purpose line folds into the previous row")
}

func TestHalykBusinessExtractMultiPage(t *testing.T) {
	first := document.RawPage{
		Number: 1,
		Lines: []string{
			"АО Народный Банк Казахстана",
			"ИИК: " + testAccount,
			"Валюта: KZT",
			"за период с 01.01.2024 по 31.01.2024",
			"Входящий остаток: 100 000,00",
		},
		Cells: []document.Cell{
			cell(40, 700, "Дата"), cell(120, 700, "Дебет"), cell(220, 700, "Кредит"), cell(320, 700, "Детали платежа"), cell(470, 700, "Контрагент (имя)"),
			cell(40, 680, "05.01.2024"), cell(220, 680, "50 000,00"), cell(320, 680, "Оплата по договору 7"), cell(470, 680, "ТОО Алма"),
		},
	}
	second := document.RawPage{
		Number: 2,
		Lines: []string{
			"Исходящий остаток: 130 000,00",
		},
		Cells: []document.Cell{
			cell(40, 700, "20.01.2024"), cell(120, 700, "20 000,00"), cell(320, 700, "Комиссия за обслуживание"),
			cell(40, 680, "Исходящий остаток: 130 000,00"),
		},
	}

	hdr, txs, err := HalykBusiness{}.Extract([]document.RawPage{first, second})
	require.NoError(t, err)

	assert.Equal(t, testAccount, hdr.AccountID)
	assert.Equal(t, "KZT", hdr.Currency)
	assert.Equal(t, "100000", hdr.OpeningBalance.String())
	assert.Equal(t, "130000", hdr.ClosingBalance.String(), "closing comes from the last page footer")

	require.Len(t, txs, 2)
	assert.Equal(t, "50000", txs[0].Amount.String())
	assert.Equal(t, "Оплата по договору 7 ТОО Алма", txs[0].Description)
	assert.Equal(t, 1, txs[0].Page)
	assert.Equal(t, "-20000", txs[1].Amount.String())
	assert.Equal(t, 2, txs[1].Page, "rows continue across pages without a repeated header")
}

func TestHalykIndividualExtract(t *testing.T) {
	page := document.RawPage{
		Number: 1,
		Lines: []string{
			"Выписка по счету " + testAccount,
			"за период с 01.03.2024 по 31.03.2024",
			"Остаток на начало периода: 500,00",
			"Остаток на конец периода: 700,00",
		},
		Cells: []document.Cell{
			cell(40, 700, "Дата транзакции"), cell(140, 700, "Дата проведения операции"), cell(280, 700, "Расход в валюте счета"), cell(380, 700, "Приход в валюте счета"), cell(480, 700, "Описание операции"),
			cell(40, 680, "01.03.2024"), cell(140, 680, "03.03.2024"), cell(380, 680, "200,00"), cell(480, 680, "Перевод"),
			cell(40, 660, "Остаток на конец периода: 700,00"),
		},
	}

	hdr, txs, err := HalykIndividual{}.Extract([]document.RawPage{page})
	require.NoError(t, err)

	assert.Equal(t, "500", hdr.OpeningBalance.String())
	assert.Equal(t, "700", hdr.ClosingBalance.String())

	require.Len(t, txs, 1)
	assert.Equal(t, day(2024, 3, 1), txs[0].Date, "transaction date wins over processing date")
	assert.Equal(t, day(2024, 3, 3), txs[0].PostingDate)
	assert.Equal(t, "200", txs[0].Amount.String())
}

func TestForteExtract(t *testing.T) {
	page := document.RawPage{
		Number: 1,
		Lines: []string{
			"Шот/Счет: " + testAccount,
			"Кезең/Период: 01.02.2024 - 29.02.2024",
			"Кіріс қалдық/Входящий остаток: 1 000,00",
			"Дебет айналымы/Обороты по дебету: 300,00",
			"Кредит айналымы/Обороты по кредиту: 500,00",
			"Шығыс қалдық/Исходящий остаток: 1 200,00",
		},
		Cells: []document.Cell{
			cell(40, 700, "Күні/Дата"), cell(150, 700, "Дебет"), cell(250, 700, "Кредит"), cell(350, 700, "Жіберуші/Отправитель"), cell(480, 700, "Назначение платежа"),
			cell(40, 680, "05.02.2024"), cell(250, 680, "500,00"), cell(350, 680, "ТОО Алма"), cell(480, 680, "Оплата по счету"),
			cell(40, 660, "10.02.2024"), cell(150, 660, "300,00"), cell(480, 660, "Комиссия"),
			cell(40, 640, "Дебет айналымы/Обороты по дебету: 300,00"),
			cell(40, 620, "Кредит айналымы/Обороты по кредиту: 500,00"),
			cell(40, 600, "Шығыс қалдық/Исходящий остаток: 1 200,00"),
		},
	}

	hdr, txs, err := Forte{}.Extract([]document.RawPage{page})
	require.NoError(t, err)

	assert.Equal(t, day(2024, 2, 1), hdr.PeriodStart)
	assert.Equal(t, day(2024, 2, 29), hdr.PeriodEnd)
	assert.Equal(t, "1000", hdr.OpeningBalance.String())
	assert.Equal(t, "1200", hdr.ClosingBalance.String())
	assert.Equal(t, "300", hdr.DebitTurnover.String())
	assert.Equal(t, "500", hdr.CreditTurnover.String())

	require.Len(t, txs, 2)
	assert.Equal(t, "500", txs[0].Amount.String())
	assert.Equal(t, "Оплата по счету ТОО Алма", txs[0].Description)
	assert.Equal(t, "-300", txs[1].Amount.String())
}

func TestExtractLayoutMismatch(t *testing.T) {
	// a Kaspi Pay document fed to the Halyk business adapter has no ИИК anchor
	page := document.RawPage{
		Number: 1,
		Lines: []string{
			"Выписка по счету " + testAccount,
			"за период с 01.01.24 по 31.01.24",
			"Входящий остаток: 10 000,00",
		},
		Cells: []document.Cell{cell(50, 700, "Дата")},
	}

	_, _, err := HalykBusiness{}.Extract([]document.RawPage{page})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	var le *LayoutError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, HalykBusinessID, le.Bank)
	assert.Equal(t, "ИИК", le.Anchor)
}

func TestExtractEmptyDocument(t *testing.T) {
	for _, id := range IDs() {
		a, err := Resolve(id)
		require.NoError(t, err)

		_, _, err = a.Extract(nil)
		require.Error(t, err, id)
		assert.ErrorIs(t, err, ErrLayoutMismatch, id)
	}
}

func TestExtractTableHeaderMissing(t *testing.T) {
	// header anchors match but the transaction table never appears
	page := document.RawPage{
		Number: 1,
		Lines: []string{
			"Номер счета: " + testAccount,
			"за период с 01.06.24 по 30.06.24",
			"Остаток на начало периода: 0,00",
			"Остаток на конец периода: 0,00",
		},
		Cells: []document.Cell{cell(50, 700, "Справка о доступном остатке")},
	}

	_, _, err := KaspiGold{}.Extract([]document.RawPage{page})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}
