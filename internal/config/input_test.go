package config

import (
	"testing"
	"time"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_Valid(t *testing.T) {
	parser := NewInputParser()
	file, err := parser.LoadFromFile("testdata/case_valid.yaml")
	require.NoError(t, err)

	assert.Equal(t, "p-100", file.Pensioner.ID)
	assert.Equal(t, "8765432", file.Pensioner.DocumentNumber)
	require.Len(t, file.Payments, 3)
	assert.True(t, file.Payments[0].MesadaAmount().Equal(decimal.NewFromInt(600_000)))
	assert.True(t, file.Payments[2].MesadaAdicionalAmount().Equal(decimal.NewFromInt(1_200_000)))
	require.Len(t, file.Historical, 2)
	assert.Equal(t, "1.100.000,00", file.Historical[0].ValueBefore)

	require.Len(t, file.Sharing, 1)
	assert.Equal(t, time.Date(2014, 6, 13, 0, 0, 0, 0, time.UTC), file.Sharing[0].EffectiveFrom)
	assert.True(t, file.Sharing[0].IsISS())

	assert.Equal(t, "evolucion", file.Options.Variant)
	assert.Equal(t, 2016, file.Options.EndYear)
	require.NotNil(t, file.Options.IncludeBonus)
	assert.True(t, *file.Options.IncludeBonus)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	parser := NewInputParser()

	_, err := parser.LoadFromFile("testdata/case_invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DocumentNumber")

	_, err = parser.LoadFromFile("testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")

	_, err = parser.Parse([]byte("pensioner: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func validCase() *domain.Case {
	return &domain.Case{
		Pensioner: domain.Pensioner{ID: "p-1", DocumentNumber: "123"},
		Payments: []domain.PaymentRecord{{
			Year:        2012,
			PeriodLabel: "2012-03-01 a 2012-03-31",
			LineItems:   []domain.LineItem{{Code: "MESAD", Income: decimal.NewFromInt(1)}},
		}},
	}
}

func TestValidateCase(t *testing.T) {
	parser := NewInputParser()
	require.NoError(t, parser.ValidateCase(validCase()))

	tests := []struct {
		name    string
		mutate  func(c *domain.Case)
		wantErr string
	}{
		{"missing id", func(c *domain.Case) { c.Pensioner.ID = "" }, "Pensioner.ID"},
		{"no records", func(c *domain.Case) { c.Payments = nil }, "no payment"},
		{"no line items", func(c *domain.Case) { c.Payments[0].LineItems = nil }, "payment 0"},
		{"negative income", func(c *domain.Case) {
			c.Payments[0].LineItems[0].Income = decimal.NewFromInt(-5)
		}, "negative income"},
		{"label outside year", func(c *domain.Case) { c.Payments[0].PeriodLabel = "2011-03-01 a 2011-03-31" }, "period starts in 2011"},
		{"year too old", func(c *domain.Case) { c.Payments[0].Year = 1800 }, "Year"},
		{"historical without values", func(c *domain.Case) {
			c.Historical = []domain.HistoricalPayment{{Year: 2000}}
		}, "historical record 0"},
		{"historical unparseable", func(c *domain.Case) {
			c.Historical = []domain.HistoricalPayment{{Year: 2000, ValueBefore: "mil pesos"}}
		}, "unparseable"},
		{"sharing without date", func(c *domain.Case) {
			c.Sharing = []domain.SharingRecord{{EmployerShareValue: decimal.NewFromInt(1)}}
		}, "EffectiveFrom"},
		{"sharing zero", func(c *domain.Case) {
			c.Sharing = []domain.SharingRecord{{EffectiveFrom: time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)}}
		}, "both zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCase()
			tt.mutate(c)
			err := parser.ValidateCase(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateOptions(t *testing.T) {
	parser := NewInputParser()
	file, err := parser.LoadFromFile("testdata/case_valid.yaml")
	require.NoError(t, err)
	require.NoError(t, parser.ValidateOptions(&file.Options))

	opts := file.Options
	opts.SplitStrategy = "halves"
	err = parser.ValidateOptions(&opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SplitStrategy")

	opts = file.Options
	opts.StartYear = 2020
	opts.EndYear = 2010
	assert.Error(t, parser.ValidateOptions(&opts))
}
