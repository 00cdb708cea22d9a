package calculation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/indices"
	"github.com/rgehrsitz/mesada/internal/normalize"
	"github.com/shopspring/decimal"
)

// ErrBaseMesadaUnavailable means no source could resolve the mesada of the base year
var ErrBaseMesadaUnavailable = errors.New("base mesada unavailable")

// PayableBasis selects what the projection is compared against before sharing
type PayableBasis int

const (
	// PayableIPCProjection compares against the base compounded by IPC only
	PayableIPCProjection PayableBasis = iota
	// PayableActualPaid compares against the mesada resolved from the records
	PayableActualPaid
)

func (b PayableBasis) String() string {
	if b == PayableActualPaid {
		return "actual_paid"
	}
	return "ipc_projection"
}

// ParsePayableBasis converts a basis name into a PayableBasis
func ParsePayableBasis(s string) (PayableBasis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ipc", "ipc_projection":
		return PayableIPCProjection, nil
	case "paid", "actual", "actual_paid":
		return PayableActualPaid, nil
	default:
		return PayableIPCProjection, fmt.Errorf("unknown payable basis: %s", s)
	}
}

// Params drives one run of the engine
type Params struct {
	StartYear    int // 0 means the first year with a resolvable mesada
	EndYear      int // 0 means the table's last year
	Selector     domain.GrowthSelector
	IncludeBonus bool
	PayableBasis PayableBasis
	Normalize    normalize.Options

	// SharingDate splits the rows when set; Strategy defaults to prorate
	SharingDate *time.Time
	Strategy    SplitStrategy
	Shares      ShareSource

	// CapMultiplier > 0 caps the selector projection at multiplier x SMLMV
	CapMultiplier decimal.Decimal
}

// Engine runs the projection, split and retroactive pipeline over a case
type Engine struct {
	Table  *indices.Table
	Logger Logger
}

// NewEngine creates an engine over a reference table
func NewEngine(table *indices.Table) *Engine {
	return &Engine{Table: table, Logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		e.Logger = NopLogger{}
		return
	}
	e.Logger = l
}

func (e *Engine) logger() Logger {
	if e.Logger == nil {
		return NopLogger{}
	}
	return e.Logger
}

// Liquidate computes the split liquidation table and its summary for a case
func (e *Engine) Liquidate(c *domain.Case, p Params) (*domain.Liquidation, error) {
	if c == nil {
		return nil, fmt.Errorf("case is nil")
	}
	if e.Table == nil {
		return nil, fmt.Errorf("engine has no reference table")
	}
	log := e.logger()
	chain := normalize.ChainForCase(c, p.Normalize)

	startYear := p.StartYear
	if startYear == 0 {
		first, ok := normalize.FirstPaymentYear(c)
		if !ok {
			return nil, fmt.Errorf("%w: no payment records for pensioner %s", ErrBaseMesadaUnavailable, c.Pensioner.ID)
		}
		startYear = first
	}
	endYear := p.EndYear
	if endYear == 0 {
		endYear = e.Table.LastYear()
	}
	if endYear < startYear {
		return nil, fmt.Errorf("end year %d is before start year %d", endYear, startYear)
	}

	base := chain.Explain(startYear)
	if !base.Found {
		return nil, fmt.Errorf("%w: year %d", ErrBaseMesadaUnavailable, startYear)
	}
	log.Debugf("base mesada %s for %d from %s records", base.Value.StringFixed(2), startYear, base.Source)

	if !e.Table.Contains(startYear) {
		log.Warnf("start year %d outside reference table %d-%d, nothing projected", startYear, e.Table.FirstYear(), e.Table.LastYear())
	} else if endYear > e.Table.LastYear() {
		log.Warnf("years after %d are not covered by the reference table and are omitted", e.Table.LastYear())
	}

	rows := BuildRows(base.Value, startYear, endYear, e.Table, p.Selector, FullYearMesadas(p.IncludeBonus))
	e.applyPayable(rows, chain, p.PayableBasis)

	var split domain.Split
	if p.SharingDate != nil {
		s, err := SplitBySharing(rows, *p.SharingDate, p.Strategy, p.IncludeBonus)
		if err != nil {
			return nil, err
		}
		split = s
		ApplySharing(&split, p.Shares, log)
	} else {
		split = domain.Split{BeforeSharing: rows}
	}

	var ledger []domain.AntijuridicoRow
	if p.CapMultiplier.GreaterThan(decimalZero) {
		var capped []domain.YearRow
		capped, ledger = ApplyCap(split.Rows(), p.CapMultiplier)
		n := len(split.BeforeSharing)
		split.BeforeSharing = capped[:n:n]
		split.AfterSharing = capped[n:]
	}

	split = ComputeSplitDifferences(split)
	labelPeriods(split.BeforeSharing)
	labelPeriods(split.AfterSharing)

	summary := domain.Summary{
		MesadaPensionalInicial: base.Value,
		StartYear:              startYear,
		EndYear:                endYear,
		Selector:               p.Selector,
	}
	if all := split.Rows(); len(all) > 0 {
		summary.TotalGeneralRetroactivo = all[len(all)-1].CumulativeRetroactiveTotal
		summary.EndYear = all[len(all)-1].Year
		for _, r := range all {
			if r.Unavailable {
				summary.UnavailableYears = append(summary.UnavailableYears, r.Year)
			}
		}
	}
	if first, ok := normalize.FirstPaymentDate(c.Payments); ok {
		summary.FechaPrimeraMesada = &first
	}

	log.Infof("liquidated %s %d-%d selector=%s total=%s", c.Pensioner.ID, summary.StartYear, summary.EndYear,
		p.Selector, summary.TotalGeneralRetroactivo.StringFixed(2))

	return &domain.Liquidation{
		Pensioner:    c.Pensioner,
		Summary:      summary,
		Split:        split,
		Antijuridico: ledger,
	}, nil
}

// applyPayable sets the pre-sharing payable value of each row
func (e *Engine) applyPayable(rows []domain.YearRow, chain *normalize.Chain, basis PayableBasis) {
	log := e.logger()
	for i := range rows {
		row := &rows[i]
		paid, found := chain.Resolve(row.Year)
		if found {
			row.MesadaActuallyPaid = paid
		}
		switch basis {
		case PayableActualPaid:
			if !found {
				row.Unavailable = true
				log.Debugf("mesada for %d unavailable", row.Year)
				continue
			}
			row.Payable = paid
		default:
			row.Payable = row.ProjectedMesadaByIPC
		}
	}
}

func labelPeriods(rows []domain.YearRow) {
	for i := range rows {
		rows[i].Period = rows[i].PeriodLabel()
	}
}
