package compare

import (
	"context"
	"testing"

	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/indices"
	"github.com/rgehrsitz/mesada/internal/liquidation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompareEngine(t *testing.T) *CompareEngine {
	t.Helper()
	table, err := indices.Default()
	require.NoError(t, err)
	return NewCompareEngine(calculation.NewEngine(table), nil)
}

func historicalCase() *domain.Case {
	return &domain.Case{
		Pensioner:  domain.Pensioner{ID: "p-1", DocumentNumber: "123"},
		Historical: []domain.HistoricalPayment{{Year: 2003, ValueBefore: "1.000.000,00"}},
	}
}

func TestSelectorScenarios(t *testing.T) {
	opts := SelectorScenarios(liquidation.Options{Variant: "evolucion", EndYear: 2004})

	assert.Equal(t, "evolucion_smlmv", opts.Base.Name)
	assert.Equal(t, "smlmv", opts.Base.Options.Selector)
	require.Len(t, opts.Alternatives, 2)
	assert.Equal(t, "ipc", opts.Alternatives[0].Options.Selector)
	assert.Equal(t, "max", opts.Alternatives[1].Options.Selector)
	assert.Equal(t, 2004, opts.Alternatives[1].Options.EndYear)

	bare := SelectorScenarios(liquidation.Options{})
	assert.Equal(t, "smlmv", bare.Base.Name)
}

func TestVariantScenarios(t *testing.T) {
	opts, err := VariantScenarios(liquidation.Options{EndYear: 2010}, "evolucion", "serp")
	require.NoError(t, err)
	assert.Equal(t, "evolucion", opts.Base.Options.Variant)
	require.Len(t, opts.Alternatives, 1)
	assert.Equal(t, "serp", opts.Alternatives[0].Name)

	_, err = VariantScenarios(liquidation.Options{})
	assert.Error(t, err)
}

func TestCompareEngine_Selectors(t *testing.T) {
	ce := newCompareEngine(t)

	set, err := ce.Compare(context.Background(), historicalCase(),
		SelectorScenarios(liquidation.Options{Variant: "evolucion", EndYear: 2004}))
	require.NoError(t, err)

	assert.Equal(t, "p-1", set.PensionerID)
	require.NotNil(t, set.BaseResult)
	assert.True(t, set.BaseResult.TotalRetroactive.Equal(decimal.NewFromInt(187_600)), set.BaseResult.TotalRetroactive.String())

	require.Len(t, set.AlternativeResults, 2)
	ipc := set.AlternativeResults[0]
	assert.True(t, ipc.TotalRetroactive.IsZero(), "IPC projection equals the payable basis")
	assert.True(t, ipc.RetroactivePctFromBase.Equal(decimal.NewFromInt(-100)))
	assert.True(t, ipc.FinalMesadaDiffFromBase.Equal(decimal.NewFromInt(-13_400)))

	max := set.AlternativeResults[1]
	assert.True(t, max.TotalRetroactive.Equal(decimal.NewFromInt(187_600)))
	assert.NotEmpty(t, set.Recommendations)
}

func TestCompareEngine_UnknownVariant(t *testing.T) {
	ce := newCompareEngine(t)

	opts, err := VariantScenarios(liquidation.Options{EndYear: 2004}, "evolucion", "nope")
	require.NoError(t, err)

	_, err = ce.Compare(context.Background(), historicalCase(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario nope")
}

func TestCompareEngine_CanceledContext(t *testing.T) {
	ce := newCompareEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ce.Compare(ctx, historicalCase(), SelectorScenarios(liquidation.Options{Variant: "evolucion"}))
	assert.ErrorIs(t, err, context.Canceled)
}
