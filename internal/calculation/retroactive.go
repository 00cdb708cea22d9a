package calculation

import (
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/shopspring/decimal"
)

// ComputeDifferences fills the loss metrics, the per-row difference and the
// running retroactive total of rows, in order. Unavailable rows contribute
// nothing but keep the running total. Split after-sharing rows compare the
// employer's fraction of the projection with the employer value paid.
func ComputeDifferences(rows []domain.YearRow) []domain.YearRow {
	out := make([]domain.YearRow, len(rows))
	cumulative := decimalZero

	for i, row := range rows {
		row.PercentLossOfIPCProjection = PercentLoss(row.ProjectedMesadaByIPC, row.ProjectedMesadaBySMLMV)
		row.SMLMVLossOfIPCProjection = row.SMLMVCountAtSMLMVProjection.Sub(row.SMLMVCountAtIPCProjection)

		due := row.ProjectedMesadaBySMLMV
		if row.AfterSharing && row.EmployerFraction.GreaterThan(decimalZero) {
			due = due.Mul(row.EmployerFraction)
			row.EmployerDue = due
		}
		if row.Unavailable {
			row.MesadaDifference = decimalZero
		} else {
			row.MesadaDifference = decimal.Max(decimalZero, due.Sub(row.Payable))
		}
		row.RetroactiveSubtotal = row.MesadaDifference.Mul(decimal.NewFromInt(int64(row.MesadaCount)))
		cumulative = cumulative.Add(row.RetroactiveSubtotal)
		row.CumulativeRetroactiveTotal = cumulative
		out[i] = row
	}
	return out
}

// PercentLoss is 100 * (1 - ipc/smlmv), or 0 when the SMLMV projection is not positive
func PercentLoss(ipc, smlmv decimal.Decimal) decimal.Decimal {
	if !smlmv.GreaterThan(decimalZero) {
		return decimalZero
	}
	return decimalHundred.Mul(decimalOne.Sub(ipc.Div(smlmv)))
}

// ComputeSplitDifferences runs ComputeDifferences across both halves of a
// split so the running total carries from before into after sharing
func ComputeSplitDifferences(split domain.Split) domain.Split {
	rows := ComputeDifferences(split.Rows())
	n := len(split.BeforeSharing)
	split.BeforeSharing = rows[:n:n]
	split.AfterSharing = rows[n:]
	return split
}

// ApplyCap limits each row's selector projection to multiplier x SMLMV and
// returns the ledger of what was cut off. Rows of a year without SMLMV are
// left uncapped.
func ApplyCap(rows []domain.YearRow, multiplier decimal.Decimal) ([]domain.YearRow, []domain.AntijuridicoRow) {
	out := make([]domain.YearRow, len(rows))
	ledger := make([]domain.AntijuridicoRow, 0, len(rows))
	cumulative := decimalZero

	for i, row := range rows {
		projected := row.ProjectedMesadaBySMLMV
		capped := projected
		limit := row.SMLMV.Mul(multiplier)
		if limit.GreaterThan(decimalZero) && projected.GreaterThan(limit) {
			capped = limit
		}
		excess := projected.Sub(capped)
		subtotal := excess.Mul(decimal.NewFromInt(int64(row.MesadaCount)))
		cumulative = cumulative.Add(subtotal)

		row.ProjectedMesadaBySMLMV = capped
		row.SMLMVCountAtSMLMVProjection = smlmvCount(capped, row.SMLMV)
		out[i] = row

		ledger = append(ledger, domain.AntijuridicoRow{
			Year:             row.Year,
			Period:           row.PeriodLabel(),
			Cap:              limit,
			ProjectedMesada:  projected,
			CappedMesada:     capped,
			Excess:           excess,
			MesadaCount:      row.MesadaCount,
			ExcessSubtotal:   subtotal,
			CumulativeExcess: cumulative,
		})
	}
	return out, ledger
}
