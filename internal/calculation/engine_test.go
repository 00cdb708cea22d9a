package calculation

import (
	"errors"
	"testing"
	"time"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine := NewEngine(defaultTable(t))

	assert.NotNil(t, engine, "Should create engine")
	assert.NotNil(t, engine.Table, "Should keep the reference table")
	assert.NotNil(t, engine.Logger, "Should initialize logger")
}

func TestEngine_SetLogger(t *testing.T) {
	engine := NewEngine(defaultTable(t))

	// Test setting a custom logger
	customLogger := &TestLogger{}
	engine.SetLogger(customLogger)

	assert.Equal(t, customLogger, engine.Logger, "Should set custom logger")

	// Test setting nil logger (should use no-op logger)
	engine.SetLogger(nil)

	assert.NotNil(t, engine.Logger, "Should not be nil")
	assert.IsType(t, NopLogger{}, engine.Logger, "Should be no-op logger")
}

func scenarioCase() *domain.Case {
	return &domain.Case{
		Pensioner: domain.Pensioner{ID: "p-1", DocumentNumber: "19000111", EmployeeName: "Pensionado de Prueba"},
		Historical: []domain.HistoricalPayment{
			{Year: 2003, ValueBefore: "1.000.000,00"},
		},
	}
}

func TestEngine_Liquidate_Scenario2004(t *testing.T) {
	engine := NewEngine(defaultTable(t))
	logger := &TestLogger{}
	engine.SetLogger(logger)

	result, err := engine.Liquidate(scenarioCase(), Params{
		StartYear:    2003,
		EndYear:      2004,
		Selector:     domain.MaxOfSMLMVAndIPC,
		IncludeBonus: true,
	})
	require.NoError(t, err)

	rows := result.Rows()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].MesadaDifference.IsZero(), "base year has no gap")
	assert.True(t, rows[1].MesadaDifference.Equal(decimal.NewFromInt(13_400)))
	assert.True(t, rows[1].RetroactiveSubtotal.Equal(decimal.NewFromInt(187_600)))
	assert.Equal(t, "2004", rows[1].Period)

	assert.True(t, result.Summary.TotalGeneralRetroactivo.Equal(decimal.NewFromInt(187_600)))
	assert.True(t, result.Summary.MesadaPensionalInicial.Equal(decimal.NewFromInt(1_000_000)))
	assert.Equal(t, 2003, result.Summary.StartYear)
	assert.Equal(t, 2004, result.Summary.EndYear)
	assert.Nil(t, result.Summary.FechaPrimeraMesada)
	assert.NotEmpty(t, logger.messages)
}

func TestEngine_Liquidate_BaseUnavailable(t *testing.T) {
	engine := NewEngine(defaultTable(t))

	_, err := engine.Liquidate(scenarioCase(), Params{StartYear: 2001, Selector: domain.SMLMVOnly})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBaseMesadaUnavailable))

	_, err = engine.Liquidate(&domain.Case{}, Params{Selector: domain.SMLMVOnly})
	assert.True(t, errors.Is(err, ErrBaseMesadaUnavailable))
}

func TestEngine_Liquidate_StartYearInferred(t *testing.T) {
	engine := NewEngine(defaultTable(t))
	result, err := engine.Liquidate(scenarioCase(), Params{EndYear: 2006, Selector: domain.SMLMVOnly, IncludeBonus: true})
	require.NoError(t, err)
	assert.Equal(t, 2003, result.Summary.StartYear)
	assert.Len(t, result.Rows(), 4)
}

func TestEngine_Liquidate_ActualPaidFlagsUnavailable(t *testing.T) {
	engine := NewEngine(defaultTable(t))
	c := scenarioCase()
	c.Historical = append(c.Historical, domain.HistoricalPayment{Year: 2005, ValueBefore: "1.100.000"})

	result, err := engine.Liquidate(c, Params{
		StartYear:    2003,
		EndYear:      2005,
		Selector:     domain.SMLMVOnly,
		IncludeBonus: true,
		PayableBasis: PayableActualPaid,
	})
	require.NoError(t, err)

	rows := result.Rows()
	require.Len(t, rows, 3)
	assert.True(t, rows[1].Unavailable)
	assert.True(t, rows[1].MesadaDifference.IsZero())
	assert.False(t, rows[2].Unavailable)
	assert.True(t, rows[2].MesadaActuallyPaid.Equal(decimal.NewFromInt(1_100_000)))
	assert.Equal(t, []int{2004}, result.Summary.UnavailableYears)
}

func TestEngine_Liquidate_WithSharing(t *testing.T) {
	engine := NewEngine(defaultTable(t))
	c := scenarioCase()
	c.Sharing = []domain.SharingRecord{{
		EffectiveFrom:      time.Date(2005, 6, 13, 0, 0, 0, 0, time.UTC),
		SharingType:        domain.SharingTypeISS,
		EmployerShareValue: decimal.NewFromInt(200_000),
		ISSShareValue:      decimal.NewFromInt(800_000),
	}}
	sharingDate := c.InitialSharing().EffectiveFrom

	result, err := engine.Liquidate(c, Params{
		StartYear:    2003,
		EndYear:      2007,
		Selector:     domain.SMLMVOnly,
		IncludeBonus: true,
		SharingDate:  &sharingDate,
		Strategy:     ProrateStrategy{},
		Shares:       RecordShares{Records: c.Sharing},
	})
	require.NoError(t, err)

	require.Len(t, result.Split.BeforeSharing, 3)
	require.Len(t, result.Split.AfterSharing, 3)
	assert.Equal(t, "2005 (01-05)", result.Split.BeforeSharing[2].Period)
	assert.Equal(t, "2005 (06-12)", result.Split.AfterSharing[0].Period)

	fifth := decimal.RequireFromString("0.2")
	first := result.Split.AfterSharing[0]
	assert.True(t, first.Payable.Equal(decimal.NewFromInt(200_000)), "record value paid by the employer")
	assert.True(t, first.EmployerShare.Equal(decimal.NewFromInt(200_000)))
	assert.True(t, first.EmployerDue.Equal(first.ProjectedMesadaBySMLMV.Mul(fifth)))
	assert.True(t, first.MesadaDifference.Equal(decimal.Max(decimal.Zero, first.EmployerDue.Sub(first.Payable))))

	later := result.Split.AfterSharing[1]
	assert.True(t, later.EmployerShare.Equal(later.ProjectedMesadaByIPC.Mul(fifth)))
	assert.True(t, later.Payable.Equal(later.EmployerShare))
	assert.False(t, later.Payable.Equal(later.ProjectedMesadaByIPC), "after sharing the baseline is the employer value")
	assert.True(t, later.MesadaDifference.Equal(
		decimal.Max(decimal.Zero, later.ProjectedMesadaBySMLMV.Sub(later.ProjectedMesadaByIPC)).Mul(fifth)))

	rows := result.Rows()
	prev := decimal.Zero
	for _, r := range rows {
		assert.True(t, r.CumulativeRetroactiveTotal.Sub(prev).Equal(r.RetroactiveSubtotal))
		prev = r.CumulativeRetroactiveTotal
	}
	assert.True(t, result.Summary.TotalGeneralRetroactivo.Equal(prev))
}

func TestEngine_Liquidate_FixedMismatch(t *testing.T) {
	engine := NewEngine(defaultTable(t))
	date := time.Date(2005, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := engine.Liquidate(scenarioCase(), Params{
		StartYear:   2003,
		Selector:    domain.SMLMVOnly,
		SharingDate: &date,
		Strategy:    NewFixedDateStrategy(DefaultFixedSplitDate, 11, 3),
	})
	assert.True(t, errors.Is(err, ErrSharingDateMismatch))
}

func TestEngine_Liquidate_Cap(t *testing.T) {
	engine := NewEngine(defaultTable(t))
	c := &domain.Case{Historical: []domain.HistoricalPayment{{Year: 2003, ValueBefore: "2.000.000"}}}

	result, err := engine.Liquidate(c, Params{
		StartYear:     2003,
		EndYear:       2004,
		Selector:      domain.MaxOfSMLMVAndIPC,
		IncludeBonus:  true,
		CapMultiplier: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	require.Len(t, result.Antijuridico, 2)

	// 5 x 332,000 = 1,660,000 in 2003
	assert.True(t, result.Antijuridico[0].CappedMesada.Equal(decimal.NewFromInt(1_660_000)))
	assert.True(t, result.Antijuridico[0].Excess.Equal(decimal.NewFromInt(340_000)))
	assert.True(t, result.TotalAntijuridico().GreaterThan(decimal.Zero))
	for _, r := range result.Rows() {
		assert.False(t, r.MesadaDifference.IsNegative())
	}
}

func TestParsePayableBasis(t *testing.T) {
	b, err := ParsePayableBasis("actual_paid")
	require.NoError(t, err)
	assert.Equal(t, PayableActualPaid, b)

	b, err = ParsePayableBasis("")
	require.NoError(t, err)
	assert.Equal(t, PayableIPCProjection, b)
	assert.Equal(t, "ipc_projection", b.String())

	_, err = ParsePayableBasis("nope")
	assert.Error(t, err)
}

// TestLogger is a simple logger for testing
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}
