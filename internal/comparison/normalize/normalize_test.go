package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgv/internal/comparison/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindName, KindOf(models.FieldName))
	assert.Equal(t, KindName, KindOf(models.FieldCompany))
	assert.Equal(t, KindDateRange, KindOf(models.FieldTenure))
	assert.Equal(t, KindDate, KindOf(models.FieldDateOfJoining))
	assert.Equal(t, KindCurrency, KindOf(models.FieldSalary))
	assert.Equal(t, KindIdentifier, KindOf(models.FieldUAN))
	assert.Equal(t, KindText, KindOf("remarks"))
}

func TestName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"case folded", "RAVI Kumar", "ravi kumar"},
		{"whitespace collapsed", "  Ravi   Kumar \t", "ravi kumar"},
		{"punctuation removed", "Acme Pvt. Ltd.", "acme pvt ltd"},
		{"compatibility forms", "Ｒａｖｉ", "ravi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Name(tt.raw)
			assert.Equal(t, tt.want, v.Text)
			assert.Equal(t, tt.raw, v.Raw, "original casing is kept for display")
			assert.False(t, v.Unparsed)
		})
	}
}

func TestDateRange(t *testing.T) {
	t.Run("primary grammar", func(t *testing.T) {
		v := DateRange("2020-01-01 to 2023-06-30")
		require.False(t, v.Unparsed)
		assert.False(t, v.LowConfidence)
		assert.Equal(t, date(2020, 1, 1), v.Start)
		assert.Equal(t, date(2023, 6, 30), v.End)
	})

	t.Run("open ended", func(t *testing.T) {
		v := DateRange("2021-04-01 to present")
		require.False(t, v.Unparsed)
		assert.True(t, v.Open)
		assert.True(t, v.End.IsZero())
	})

	t.Run("free text fallback is low confidence", func(t *testing.T) {
		v := DateRange("Jan 2020 - Jun 2023")
		require.False(t, v.Unparsed)
		assert.True(t, v.LowConfidence)
		assert.Equal(t, date(2020, 1, 1), v.Start)
		assert.Equal(t, date(2023, 6, 1), v.End)
	})

	t.Run("unparsable values pass through flagged", func(t *testing.T) {
		v := DateRange("about three years")
		assert.True(t, v.Unparsed)
		assert.Equal(t, "about three years", v.Raw)
	})

	t.Run("end before start is unparsed", func(t *testing.T) {
		assert.True(t, DateRange("2023-01-01 to 2020-01-01").Unparsed)
	})
}

func TestDate(t *testing.T) {
	assert.Equal(t, date(2019, 7, 15), Date("2019-07-15").Start)

	v := Date("15/07/2019")
	assert.True(t, v.LowConfidence)
	assert.Equal(t, date(2019, 7, 15), v.Start)

	assert.True(t, Date("JULY 2019").LowConfidence)
	assert.True(t, Date("sometime").Unparsed)
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		raw      string
		amount   int64
		currency string
	}{
		{"50000", 50000, "INR"},
		{"₹ 5,00,000/-", 500000, "INR"},
		{"Rs. 45,000", 45000, "INR"},
		{"USD 1,200", 1200, "USD"},
		{"$1200", 1200, "USD"},
		{"6.5 LPA", 650000, "INR"},
		{"50k", 50000, "INR"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := Currency(tt.raw)
			require.False(t, v.Unparsed)
			assert.True(t, decimal.NewFromInt(tt.amount).Equal(v.Amount), "got %s", v.Amount)
			assert.Equal(t, tt.currency, v.Currency)
		})
	}

	assert.True(t, Currency("negotiable").Unparsed)
	assert.True(t, Currency("-500").Unparsed)
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "100200300400", Identifier(" 1002-0030-0400 ").Text)
	assert.Equal(t, "AB12", Identifier("ab 12").Text)
}

func TestPayrollDays(t *testing.T) {
	assert.Equal(t, 30, PayrollDays(date(2020, 1, 1), date(2020, 2, 1)))
	assert.Equal(t, 30, PayrollDays(date(2020, 2, 1), date(2020, 1, 1)), "order does not matter")
	assert.Equal(t, 0, PayrollDays(date(2023, 6, 30), date(2023, 6, 30)))
	assert.Equal(t, 90, PayrollDays(date(2020, 1, 15), date(2020, 4, 15)))
	assert.Equal(t, 31, CalendarDays(date(2020, 1, 1), date(2020, 2, 1)))
}
