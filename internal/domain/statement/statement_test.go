package statement

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abenov/bankstmt/internal/domain/document"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveRecordID(t *testing.T) {
	d := date(2024, 3, 5)
	amount := decimal.RequireFromString("-1500.00")

	a := DeriveRecordID("KZ123", d, amount, "Покупка Magnum", 0)
	b := DeriveRecordID("KZ123", d, amount, "Покупка Magnum", 0)
	assert.Equal(t, a, b, "identical inputs derive identical IDs")
	assert.Len(t, a, 32)

	c := DeriveRecordID("KZ123", d, amount, "Покупка Magnum", 1)
	assert.NotEqual(t, a, c, "sequence index separates in-statement duplicates")

	e := DeriveRecordID("KZ999", d, amount, "Покупка Magnum", 0)
	assert.NotEqual(t, a, e)
}

func TestRecordJSONShape(t *testing.T) {
	rec := Record{
		Bank:              "kaspi_gold",
		AccountID:         "KZ123",
		TransactionDate:   Date(date(2024, 3, 5)),
		PostingDate:       DatePtr(date(2024, 3, 6)),
		Amount:            decimal.RequireFromString("-1500.5"),
		Currency:          "KZT",
		Description:       "Покупка",
		RecordID:          "abc",
		SourceFingerprint: "ff00",
		SourcePage:        2,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2024-03-05", got["transaction_date"])
	assert.Equal(t, "2024-03-06", got["posting_date"])
	assert.Equal(t, "-1500.5", got["amount"])
	assert.Equal(t, float64(2), got["source_page"])

	// posting_date is omitted when the statement prints a single date
	rec.PostingDate = nil
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "posting_date")
}

func TestCivilDateRoundTrip(t *testing.T) {
	var d CivilDate
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05"`), &d))
	assert.Equal(t, Date(date(2024, 3, 5)), d)

	require.Error(t, d.UnmarshalJSON([]byte(`20240305`)), "unquoted values are rejected")
}

func TestValidateBalanced(t *testing.T) {
	s := &Statement{
		Header: Header{
			Bank:           "forte",
			AccountID:      "KZ1",
			Currency:       "KZT",
			PeriodStart:    date(2024, 1, 1),
			PeriodEnd:      date(2024, 1, 31),
			OpeningBalance: decimal.RequireFromString("100.00"),
			ClosingBalance: decimal.RequireFromString("250.00"),
		},
		Records: []Record{
			{Amount: decimal.RequireFromString("200.00")},
			{Amount: decimal.RequireFromString("-50.00")},
		},
	}

	flags, balErr := Validate(s)
	assert.Empty(t, flags)
	assert.Nil(t, balErr)
}

func TestValidateClosingMismatch(t *testing.T) {
	s := &Statement{
		Header: Header{
			Currency:       "KZT",
			PeriodStart:    date(2024, 1, 1),
			PeriodEnd:      date(2024, 1, 31),
			OpeningBalance: decimal.RequireFromString("100.00"),
			ClosingBalance: decimal.RequireFromString("400.00"),
		},
		Records: []Record{{Amount: decimal.RequireFromString("200.00")}},
	}

	flags, balErr := Validate(s)
	assert.Contains(t, flags, FlagClosingMismatch)
	require.NotNil(t, balErr)
	assert.Equal(t, "300.00", balErr.Computed.StringFixed(2))
}

func TestValidateWithinTolerance(t *testing.T) {
	s := &Statement{
		Header: Header{
			Currency:       "KZT",
			PeriodStart:    date(2024, 1, 1),
			PeriodEnd:      date(2024, 1, 31),
			OpeningBalance: decimal.RequireFromString("0.00"),
			ClosingBalance: decimal.RequireFromString("100.01"),
		},
		Records: []Record{{Amount: decimal.RequireFromString("100.00")}},
	}

	_, balErr := Validate(s)
	assert.Nil(t, balErr, "one minor unit is within tolerance")
}

func TestValidateTurnovers(t *testing.T) {
	base := Header{
		Currency:       "KZT",
		PeriodStart:    date(2024, 1, 1),
		PeriodEnd:      date(2024, 1, 31),
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.RequireFromString("150.00"),
	}
	records := []Record{
		{Amount: decimal.RequireFromString("200.00")},
		{Amount: decimal.RequireFromString("-50.00")},
	}

	t.Run("matching footer totals", func(t *testing.T) {
		h := base
		h.DebitTurnover = decimal.RequireFromString("50.00")
		h.CreditTurnover = decimal.RequireFromString("200.00")
		flags, _ := Validate(&Statement{Header: h, Records: records})
		assert.NotContains(t, flags, FlagTurnoverMismatch)
	})

	t.Run("disagreeing footer totals", func(t *testing.T) {
		h := base
		h.DebitTurnover = decimal.RequireFromString("999.00")
		h.CreditTurnover = decimal.RequireFromString("200.00")
		flags, _ := Validate(&Statement{Header: h, Records: records})
		assert.Contains(t, flags, FlagTurnoverMismatch)
	})

	t.Run("no totals printed", func(t *testing.T) {
		flags, _ := Validate(&Statement{Header: base, Records: records})
		assert.NotContains(t, flags, FlagTurnoverMismatch)
	})
}

func TestValidateEmptyAndInverted(t *testing.T) {
	s := &Statement{
		Header: Header{
			Currency:    "KZT",
			PeriodStart: date(2024, 2, 1),
			PeriodEnd:   date(2024, 1, 1),
		},
	}
	flags, _ := Validate(s)
	assert.Contains(t, flags, FlagPeriodInverted)
	assert.Contains(t, flags, FlagNoTransactions)
}

func TestValidateDocInfo(t *testing.T) {
	periodEnd := date(2024, 1, 31)

	t.Run("plausible statement", func(t *testing.T) {
		info := document.Info{CreationDate: date(2024, 2, 2)}
		assert.Empty(t, ValidateDocInfo(info, periodEnd))
	})

	t.Run("created before period end", func(t *testing.T) {
		info := document.Info{CreationDate: date(2024, 1, 15)}
		assert.Contains(t, ValidateDocInfo(info, periodEnd), FlagDocCreatedEarly)
	})

	t.Run("created far too late", func(t *testing.T) {
		info := document.Info{CreationDate: date(2024, 6, 1)}
		assert.Contains(t, ValidateDocInfo(info, periodEnd), FlagDocCreatedLate)
	})

	t.Run("modified after creation", func(t *testing.T) {
		info := document.Info{
			CreationDate: date(2024, 2, 2),
			ModDate:      date(2024, 2, 9),
		}
		assert.Contains(t, ValidateDocInfo(info, periodEnd), FlagDocModifiedAfter)
	})

	t.Run("missing metadata", func(t *testing.T) {
		assert.Equal(t, []string{FlagDocMissingMetadata}, ValidateDocInfo(document.Info{}, periodEnd))
	})
}
