package liquidation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/normalize"
	"github.com/shopspring/decimal"
)

// Certificado reports the first and last mesada actually paid in each year
// and how it moved; it does no retroactive math
type Certificado struct{}

func (Certificado) Name() string { return VariantCertificado }

func (Certificado) Description() string {
	return "Certificado: first/last mesada of each year and its year-over-year change"
}

func (Certificado) Defaults() Options {
	return Options{
		Variant:         VariantCertificado,
		HistoricalField: "before",
		Locale:          "auto",
	}
}

func (v Certificado) Run(engine *calculation.Engine, c *domain.Case, opts Options) (*domain.Liquidation, error) {
	opts = opts.Merge(v.Defaults())
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := calculation.Logger(calculation.NopLogger{})
	if engine != nil && engine.Logger != nil {
		log = engine.Logger
	}

	chain := normalize.ChainForCase(c, opts.normalizeOptions())
	years := certificadoYears(c, opts)
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: no payment records for pensioner %s", calculation.ErrBaseMesadaUnavailable, c.Pensioner.ID)
	}

	rows := make([]domain.CertificadoRow, 0, len(years))
	var notes []string
	for _, year := range years {
		row := domain.CertificadoRow{Year: year, Biweekly: normalize.IsBiweekly(year, c.Payments)}

		var first, last *normalize.MonthMesada
		months := normalize.MonthlyMesadas(year, c.Payments)
		for i := range months {
			m := &months[i]
			row.MesadaAdicional = row.MesadaAdicional.Add(m.Adicional)
			if !m.Amount.GreaterThan(decimal.Zero) {
				continue
			}
			if first == nil {
				first = m
			}
			last = m
		}

		if first != nil {
			row.FirstMesada, row.LastMesada = first.Amount, last.Amount
			fd, ld := first.Date, last.Date
			row.FirstPaymentDate, row.LastPaymentDate = &fd, &ld
		} else if value, ok := chain.Resolve(year); ok {
			row.FirstMesada, row.LastMesada = value, value
			notes = append(notes, fmt.Sprintf("%d resolved from non-itemized records", year))
		} else {
			log.Debugf("certificado: no mesada for %d", year)
			continue
		}
		row.IntraYearDelta = row.LastMesada.Sub(row.FirstMesada)

		if n := len(rows); n > 0 && rows[n-1].Year == year-1 && rows[n-1].LastMesada.GreaterThan(decimal.Zero) {
			prev := rows[n-1].LastMesada
			row.YearOverYearDelta = row.FirstMesada.Sub(prev)
			row.YearOverYearPct = row.YearOverYearDelta.Div(prev).Mul(decimal.NewFromInt(100))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no year could be resolved for pensioner %s", calculation.ErrBaseMesadaUnavailable, c.Pensioner.ID)
	}

	summary := domain.Summary{
		MesadaPensionalInicial: rows[0].FirstMesada,
		StartYear:              rows[0].Year,
		EndYear:                rows[len(rows)-1].Year,
	}
	if d, ok := normalize.FirstPaymentDate(c.Payments); ok {
		summary.FechaPrimeraMesada = &d
	}
	log.Infof("certificado %s: %d years", c.Pensioner.ID, len(rows))

	return &domain.Liquidation{
		Variant:     v.Name(),
		Pensioner:   c.Pensioner,
		Summary:     summary,
		Certificado: rows,
		Notes:       notes,
	}, nil
}

// certificadoYears lists the years with payment or historical records inside
// the requested range
func certificadoYears(c *domain.Case, opts Options) []int {
	seen := map[int]bool{}
	for _, p := range c.Payments {
		seen[p.Year] = true
	}
	for _, h := range c.Historical {
		seen[h.Year] = true
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		if opts.StartYear != 0 && y < opts.StartYear {
			continue
		}
		if opts.EndYear != 0 && y > opts.EndYear {
			continue
		}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
