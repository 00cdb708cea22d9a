package calculation

import (
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/indices"
	"github.com/shopspring/decimal"
)

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalZero    = decimal.Zero
	decimalHundred = decimal.NewFromInt(100)
)

// SelectGrowth returns the annual growth percentage the selector applies for a year
func SelectGrowth(idx domain.YearlyIndex, selector domain.GrowthSelector) decimal.Decimal {
	switch selector {
	case domain.IPCOnly:
		return idx.IPCGrowthPct
	case domain.MaxOfSMLMVAndIPC:
		if idx.IPCGrowthPct.GreaterThan(idx.SMLMVGrowthPct) {
			return idx.IPCGrowthPct
		}
		return idx.SMLMVGrowthPct
	default:
		return idx.SMLMVGrowthPct
	}
}

// ProjectSeries compounds base from startYear through endYear.
//
// The base year carries the base value untouched; every following year is the
// previous value times (1 + growth/100). If startYear is not covered by the
// table the series is empty, and years after the table's last year are
// omitted, so an out-of-range year never receives a value.
func ProjectSeries(base decimal.Decimal, startYear, endYear int, table *indices.Table, selector domain.GrowthSelector) []domain.ProjectedValue {
	if table == nil || !table.Contains(startYear) || endYear < startYear {
		return nil
	}
	if endYear > table.LastYear() {
		endYear = table.LastYear()
	}

	series := make([]domain.ProjectedValue, 0, endYear-startYear+1)
	series = append(series, domain.ProjectedValue{Year: startYear, Value: base})

	value := base
	for year := startYear + 1; year <= endYear; year++ {
		idx, ok := table.Lookup(year)
		if !ok {
			break
		}
		factor := decimalOne.Add(SelectGrowth(idx, selector).Div(decimalHundred))
		value = value.Mul(factor)
		series = append(series, domain.ProjectedValue{Year: year, Value: value})
	}
	return series
}

// NumberOfSMLMV expresses value as a multiple of the year's minimum wage.
// Returns 0 when the year is not covered or its SMLMV is zero.
func NumberOfSMLMV(value decimal.Decimal, year int, table *indices.Table) decimal.Decimal {
	if table == nil {
		return decimalZero
	}
	idx, ok := table.Lookup(year)
	if !ok {
		return decimalZero
	}
	return smlmvCount(value, idx.SMLMV)
}

func smlmvCount(value, smlmv decimal.Decimal) decimal.Decimal {
	if smlmv.IsZero() {
		return decimalZero
	}
	return value.Div(smlmv)
}

// BuildRows lays out one YearRow per projected year carrying both the
// selector projection and the IPC projection of the same base
func BuildRows(base decimal.Decimal, startYear, endYear int, table *indices.Table, selector domain.GrowthSelector, mesadaCount int) []domain.YearRow {
	bySelector := ProjectSeries(base, startYear, endYear, table, selector)
	byIPC := ProjectSeries(base, startYear, endYear, table, domain.IPCOnly)

	rows := make([]domain.YearRow, 0, len(bySelector))
	for i, pv := range bySelector {
		idx, _ := table.Lookup(pv.Year)
		ipc := byIPC[i].Value
		rows = append(rows, domain.YearRow{
			Year:                        pv.Year,
			StartMonth:                  1,
			EndMonth:                    12,
			SMLMV:                       idx.SMLMV,
			SMLMVGrowthPct:              idx.SMLMVGrowthPct,
			IPCGrowthPct:                idx.IPCGrowthPct,
			ProjectedMesadaBySMLMV:      pv.Value,
			SMLMVCountAtSMLMVProjection: smlmvCount(pv.Value, idx.SMLMV),
			ProjectedMesadaByIPC:        ipc,
			SMLMVCountAtIPCProjection:   smlmvCount(ipc, idx.SMLMV),
			MesadaCount:                 mesadaCount,
		})
	}
	return rows
}

// FullYearMesadas is the number of mesadas paid in a whole year
func FullYearMesadas(includeBonus bool) int {
	if includeBonus {
		return 14
	}
	return 12
}
