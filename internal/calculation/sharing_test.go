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

func yearRows(from, to, count int) []domain.YearRow {
	rows := make([]domain.YearRow, 0, to-from+1)
	for y := from; y <= to; y++ {
		rows = append(rows, domain.YearRow{
			Year:                   y,
			StartMonth:             1,
			EndMonth:               12,
			ProjectedMesadaBySMLMV: decimal.NewFromInt(1_000_000),
			ProjectedMesadaByIPC:   decimal.NewFromInt(900_000),
			Payable:                decimal.NewFromInt(900_000),
			MesadaCount:            count,
		})
	}
	return rows
}

func sharingYearCounts(t *testing.T, split domain.Split, year int) (before, after int) {
	t.Helper()
	for _, r := range split.BeforeSharing {
		if r.Year == year {
			before += r.MesadaCount
		}
	}
	for _, r := range split.AfterSharing {
		if r.Year == year {
			after += r.MesadaCount
		}
	}
	return before, after
}

func TestNewSplitStrategy(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", StrategyProrate},
		{"prorate", StrategyProrate},
		{"WHOLE_YEAR", StrategyWholeYear},
		{"fixed", StrategyFixed},
	}
	for _, tt := range tests {
		s, err := NewSplitStrategy(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.Name())
	}

	_, err := NewSplitStrategy("halves")
	assert.Error(t, err)
}

func TestSplitBySharing_Placement(t *testing.T) {
	rows := yearRows(2010, 2018, 14)
	split, err := SplitBySharing(rows, time.Date(2014, 6, 13, 0, 0, 0, 0, time.UTC), ProrateStrategy{}, true)
	require.NoError(t, err)

	for _, r := range split.BeforeSharing {
		assert.LessOrEqual(t, r.Year, 2014)
		assert.False(t, r.AfterSharing)
	}
	for _, r := range split.AfterSharing {
		assert.GreaterOrEqual(t, r.Year, 2014)
		assert.True(t, r.AfterSharing)
	}
	assert.Len(t, split.BeforeSharing, 5)
	assert.Len(t, split.AfterSharing, 5)
	require.NotNil(t, split.SharingDate)
	assert.Equal(t, 2014, split.SharingDate.Year())
}

func TestProrateStrategy_Conservation(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		for _, bonus := range []bool{true, false} {
			full := FullYearMesadas(bonus)
			split, err := SplitBySharing(yearRows(2014, 2014, full), time.Date(2014, month, 10, 0, 0, 0, 0, time.UTC), ProrateStrategy{}, bonus)
			require.NoError(t, err)

			before, after := sharingYearCounts(t, split, 2014)
			assert.Equal(t, full, before+after, "month %s bonus %v", month, bonus)
		}
	}
}

func TestProrateStrategy_Boundaries(t *testing.T) {
	split, err := SplitBySharing(yearRows(2014, 2014, 14), time.Date(2014, 6, 13, 0, 0, 0, 0, time.UTC), ProrateStrategy{}, true)
	require.NoError(t, err)
	require.Len(t, split.BeforeSharing, 1)
	require.Len(t, split.AfterSharing, 1)

	before, after := split.BeforeSharing[0], split.AfterSharing[0]
	assert.Equal(t, 1, before.StartMonth)
	assert.Equal(t, 5, before.EndMonth)
	assert.Equal(t, 5, before.MesadaCount)
	assert.Equal(t, 6, after.StartMonth)
	assert.Equal(t, 12, after.EndMonth)
	assert.Equal(t, 9, after.MesadaCount, "seven months plus both bonuses")

	split, err = SplitBySharing(yearRows(2014, 2014, 14), time.Date(2014, 9, 1, 0, 0, 0, 0, time.UTC), ProrateStrategy{}, true)
	require.NoError(t, err)
	assert.Equal(t, 9, split.BeforeSharing[0].MesadaCount, "eight months plus the June bonus")
	assert.Equal(t, 5, split.AfterSharing[0].MesadaCount)
}

func TestProrateStrategy_JanuaryGoesWholeYearAfter(t *testing.T) {
	split, err := SplitBySharing(yearRows(2013, 2015, 14), time.Date(2014, 1, 20, 0, 0, 0, 0, time.UTC), ProrateStrategy{}, true)
	require.NoError(t, err)
	require.Len(t, split.BeforeSharing, 1)
	require.Len(t, split.AfterSharing, 2)
	assert.Equal(t, 2014, split.AfterSharing[0].Year)
	assert.Equal(t, 14, split.AfterSharing[0].MesadaCount)
	assert.False(t, split.AfterSharing[0].IsPartial())
}

func TestWholeYearStrategy(t *testing.T) {
	split, err := SplitBySharing(yearRows(2013, 2015, 12), time.Date(2014, 8, 1, 0, 0, 0, 0, time.UTC), WholeYearStrategy{}, false)
	require.NoError(t, err)
	require.Len(t, split.BeforeSharing, 1)
	require.Len(t, split.AfterSharing, 2)
	assert.Equal(t, 12, split.AfterSharing[0].MesadaCount)
}

func TestFixedDateStrategy(t *testing.T) {
	strategy, err := NewSplitStrategy(StrategyFixed)
	require.NoError(t, err)

	split, err := SplitBySharing(yearRows(2013, 2015, 14), DefaultFixedSplitDate, strategy, true)
	require.NoError(t, err)
	before, after := sharingYearCounts(t, split, 2014)
	assert.Equal(t, 11, before)
	assert.Equal(t, 3, after)
	assert.Equal(t, 14, before+after)

	_, err = SplitBySharing(yearRows(2013, 2015, 14), time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC), strategy, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSharingDateMismatch))
}

func TestFixedDateStrategy_WithoutBonus(t *testing.T) {
	_, err := SplitBySharing(yearRows(2013, 2015, 12), DefaultFixedSplitDate, NewFixedDateStrategy(DefaultFixedSplitDate, 11, 3), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFixedSplitCounts))

	split, err := SplitBySharing(yearRows(2013, 2015, 12), DefaultFixedSplitDate, NewFixedDateStrategy(DefaultFixedSplitDate, 9, 3), false)
	require.NoError(t, err)
	before, after := sharingYearCounts(t, split, 2014)
	assert.Equal(t, 12, before+after)
	assert.Equal(t, 12, split.BeforeSharing[0].MesadaCount)
}

func TestFixedAndProrateAgreeOnConfiguredDate(t *testing.T) {
	rows := yearRows(2012, 2016, 14)
	fixed, err := SplitBySharing(rows, DefaultFixedSplitDate, NewFixedDateStrategy(DefaultFixedSplitDate, 11, 3), true)
	require.NoError(t, err)
	prorate, err := SplitBySharing(rows, DefaultFixedSplitDate, ProrateStrategy{}, true)
	require.NoError(t, err)

	require.Equal(t, len(fixed.BeforeSharing), len(prorate.BeforeSharing))
	require.Equal(t, len(fixed.AfterSharing), len(prorate.AfterSharing))
	for i := range fixed.BeforeSharing {
		assert.Equal(t, fixed.BeforeSharing[i].Year, prorate.BeforeSharing[i].Year)
		assert.Equal(t, fixed.BeforeSharing[i].PeriodLabel(), prorate.BeforeSharing[i].PeriodLabel())
	}
	for i := range fixed.AfterSharing {
		assert.Equal(t, fixed.AfterSharing[i].PeriodLabel(), prorate.AfterSharing[i].PeriodLabel())
	}

	fb, fa := sharingYearCounts(t, fixed, 2014)
	pb, pa := sharingYearCounts(t, prorate, 2014)
	assert.Equal(t, fb+fa, pb+pa)
}

func TestRecordShares(t *testing.T) {
	records := []domain.SharingRecord{
		{
			EffectiveFrom:      time.Date(2014, 6, 13, 0, 0, 0, 0, time.UTC),
			EmployerShareValue: decimal.NewFromInt(300_000),
			ISSShareValue:      decimal.NewFromInt(700_000),
		},
		{
			EffectiveFrom:      time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
			EmployerShareValue: decimal.NewFromInt(320_000),
			ISSShareValue:      decimal.NewFromInt(480_000),
		},
	}
	shares := RecordShares{Records: records}

	parts, ok := shares.Shares(2016, decimal.NewFromInt(1))
	require.True(t, ok)
	assert.True(t, parts.Employer.Equal(decimal.NewFromInt(320_000)))
	assert.True(t, parts.ISS.Equal(decimal.NewFromInt(480_000)))
	assert.True(t, parts.EmployerFraction.Equal(decimal.RequireFromString("0.4")), "got %s", parts.EmployerFraction)

	parts, ok = shares.Shares(2015, decimal.NewFromInt(1_100_000))
	require.True(t, ok)
	assert.True(t, parts.Employer.Equal(decimal.NewFromInt(330_000)), "got %s", parts.Employer)
	assert.True(t, parts.ISS.Equal(decimal.NewFromInt(770_000)), "got %s", parts.ISS)
	assert.True(t, parts.EmployerFraction.Equal(decimal.RequireFromString("0.3")))

	_, ok = RecordShares{}.Shares(2015, decimal.NewFromInt(1))
	assert.False(t, ok)
}

func TestPercentShares(t *testing.T) {
	shares := PercentShares{EmployerPct: decimal.NewFromInt(25), ISSPct: decimal.NewFromInt(75)}
	parts, ok := shares.Shares(2015, decimal.NewFromInt(1_000_000))
	require.True(t, ok)
	assert.True(t, parts.Employer.Equal(decimal.NewFromInt(250_000)))
	assert.True(t, parts.ISS.Equal(decimal.NewFromInt(750_000)))
	assert.True(t, parts.EmployerFraction.Equal(decimal.RequireFromString("0.25")))

	_, ok = shares.Shares(2015, decimal.Zero)
	assert.False(t, ok)
	_, ok = PercentShares{}.Shares(2015, decimal.NewFromInt(1_000_000))
	assert.False(t, ok)
}

func TestApplySharing(t *testing.T) {
	split, err := SplitBySharing(yearRows(2013, 2015, 14), time.Date(2014, 6, 13, 0, 0, 0, 0, time.UTC), ProrateStrategy{}, true)
	require.NoError(t, err)

	logger := &TestLogger{}
	ApplySharing(&split, PercentShares{EmployerPct: decimal.NewFromInt(40), ISSPct: decimal.NewFromInt(60)}, logger)

	for _, r := range split.AfterSharing {
		assert.True(t, r.EmployerShare.Equal(decimal.NewFromInt(360_000)))
		assert.True(t, r.ISSShare.Equal(decimal.NewFromInt(540_000)))
		assert.True(t, r.Payable.Equal(decimal.NewFromInt(360_000)), "employer value paid is payable")
		assert.True(t, r.EmployerFraction.Equal(decimal.RequireFromString("0.4")))
	}
	for _, r := range split.BeforeSharing {
		assert.True(t, r.EmployerShare.IsZero())
		assert.True(t, r.Payable.Equal(decimal.NewFromInt(900_000)))
	}
	assert.Empty(t, logger.messages)

	split = ComputeSplitDifferences(split)
	for _, r := range split.BeforeSharing {
		assert.True(t, r.MesadaDifference.Equal(decimal.NewFromInt(100_000)))
	}
	for _, r := range split.AfterSharing {
		// 40% of the 1.000.000 projection against 40% of the 900.000 paid
		assert.True(t, r.EmployerDue.Equal(decimal.NewFromInt(400_000)))
		assert.True(t, r.MesadaDifference.Equal(decimal.NewFromInt(40_000)), "got %s", r.MesadaDifference)
	}

	ApplySharing(&split, RecordShares{}, logger)
	assert.NotEmpty(t, logger.messages, "unsplittable rows are logged")
}
