package calculation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrSharingDateMismatch is returned by the fixed-date strategy when the
// sharing date is not the date it was configured for
var ErrSharingDateMismatch = errors.New("sharing date does not match the fixed split date")

// ErrFixedSplitCounts is returned by the fixed-date strategy when its mesada
// counts do not add up to the mesadas of a full year
var ErrFixedSplitCounts = errors.New("fixed split counts do not add up to a full year")

// Split strategy names accepted by NewSplitStrategy
const (
	StrategyProrate   = "prorate"
	StrategyWholeYear = "whole_year"
	StrategyFixed     = "fixed"
)

// DefaultFixedSplitDate is the FONECA compartición date with hardcoded counts
var DefaultFixedSplitDate = time.Date(2014, time.June, 13, 0, 0, 0, 0, time.UTC)

// SplitStrategy divides a row sequence around a sharing date
type SplitStrategy interface {
	Name() string
	// SplitYear divides the row for the sharing year. before is nil when the
	// whole year belongs after sharing.
	SplitYear(row domain.YearRow, sharingDate time.Time, includeBonus bool) (before, after *domain.YearRow, err error)
}

// NewSplitStrategy creates a split strategy by name. An empty name selects prorate.
func NewSplitStrategy(name string) (SplitStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyProrate:
		return ProrateStrategy{}, nil
	case StrategyWholeYear:
		return WholeYearStrategy{}, nil
	case StrategyFixed:
		return NewFixedDateStrategy(DefaultFixedSplitDate, 11, 3), nil
	default:
		return nil, fmt.Errorf("unknown split strategy: %s", name)
	}
}

// SplitBySharing assigns rows before the sharing year to BeforeSharing, rows
// after it to AfterSharing, and lets the strategy divide the sharing year
func SplitBySharing(rows []domain.YearRow, sharingDate time.Time, strategy SplitStrategy, includeBonus bool) (domain.Split, error) {
	if strategy == nil {
		strategy = ProrateStrategy{}
	}
	date := sharingDate
	split := domain.Split{SharingDate: &date}

	for _, row := range rows {
		switch {
		case row.Year < sharingDate.Year():
			split.BeforeSharing = append(split.BeforeSharing, row)
		case row.Year > sharingDate.Year():
			row.AfterSharing = true
			split.AfterSharing = append(split.AfterSharing, row)
		default:
			before, after, err := strategy.SplitYear(row, sharingDate, includeBonus)
			if err != nil {
				return domain.Split{}, fmt.Errorf("%s split of %d: %w", strategy.Name(), row.Year, err)
			}
			if before != nil {
				split.BeforeSharing = append(split.BeforeSharing, *before)
			}
			if after != nil {
				after.AfterSharing = true
				split.AfterSharing = append(split.AfterSharing, *after)
			}
		}
	}
	return split, nil
}

// ProrateStrategy splits the sharing year at the sharing month. Ordinary
// mesadas follow the month count and each bonus goes with the month it is
// paid in (June for the 14th, December for the 13th), so both halves always
// add up to a full year.
type ProrateStrategy struct{}

func (ProrateStrategy) Name() string { return StrategyProrate }

func (ProrateStrategy) SplitYear(row domain.YearRow, sharingDate time.Time, includeBonus bool) (*domain.YearRow, *domain.YearRow, error) {
	month := int(sharingDate.Month())
	if month == 1 {
		after := row
		after.StartMonth, after.EndMonth = 1, 12
		after.MesadaCount = FullYearMesadas(includeBonus)
		return nil, &after, nil
	}

	before, after := row, row
	before.StartMonth, before.EndMonth = 1, month-1
	after.StartMonth, after.EndMonth = month, 12
	before.MesadaCount = mesadasInMonths(1, month-1, includeBonus)
	after.MesadaCount = mesadasInMonths(month, 12, includeBonus)
	return &before, &after, nil
}

// mesadasInMonths counts the mesadas paid between two months inclusive
func mesadasInMonths(from, to int, includeBonus bool) int {
	if to < from {
		return 0
	}
	count := to - from + 1
	if includeBonus {
		if from <= 6 && 6 <= to {
			count++
		}
		if to == 12 {
			count++
		}
	}
	return count
}

// WholeYearStrategy puts the entire sharing year after sharing
type WholeYearStrategy struct{}

func (WholeYearStrategy) Name() string { return StrategyWholeYear }

func (WholeYearStrategy) SplitYear(row domain.YearRow, _ time.Time, includeBonus bool) (*domain.YearRow, *domain.YearRow, error) {
	after := row
	after.StartMonth, after.EndMonth = 1, 12
	after.MesadaCount = FullYearMesadas(includeBonus)
	return nil, &after, nil
}

// FixedDateStrategy splits only on its configured date, with fixed mesada
// counts on each side. Before+After must equal the mesadas of a full year, so
// the default 11/3 only works with the bonus mesadas included.
type FixedDateStrategy struct {
	Date   time.Time
	Before int
	After  int
}

// NewFixedDateStrategy creates a fixed-date strategy
func NewFixedDateStrategy(date time.Time, before, after int) FixedDateStrategy {
	return FixedDateStrategy{Date: date, Before: before, After: after}
}

func (s FixedDateStrategy) Name() string { return StrategyFixed }

func (s FixedDateStrategy) SplitYear(row domain.YearRow, sharingDate time.Time, includeBonus bool) (*domain.YearRow, *domain.YearRow, error) {
	if !sameDay(sharingDate, s.Date) {
		return nil, nil, fmt.Errorf("%w: got %s, configured %s", ErrSharingDateMismatch,
			sharingDate.Format("2006-01-02"), s.Date.Format("2006-01-02"))
	}
	if full := FullYearMesadas(includeBonus); s.Before+s.After != full {
		return nil, nil, fmt.Errorf("%w: %d+%d, a full year has %d", ErrFixedSplitCounts, s.Before, s.After, full)
	}
	month := int(s.Date.Month())
	before, after := row, row
	before.StartMonth, before.EndMonth = 1, month-1
	after.StartMonth, after.EndMonth = month, 12
	before.MesadaCount = s.Before
	after.MesadaCount = s.After
	return &before, &after, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ShareSplit is the employer/ISS division of one after-sharing year
type ShareSplit struct {
	Employer         decimal.Decimal // employer value paid
	ISS              decimal.Decimal
	EmployerFraction decimal.Decimal // employer part of the mesada, 0..1
}

// ShareSource supplies the employer and ISS parts of the mesada once sharing applies
type ShareSource interface {
	// Shares returns the split for a year. reference is the IPC projection of
	// that year, used when the paid values have to be derived proportionally.
	Shares(year int, reference decimal.Decimal) (ShareSplit, bool)
}

// RecordShares reads the split from causante records: the record effective in
// that exact year, else the initial record's percentages applied to reference
type RecordShares struct {
	Records []domain.SharingRecord
}

func (r RecordShares) Shares(year int, reference decimal.Decimal) (ShareSplit, bool) {
	c := domain.Case{Sharing: r.Records}
	if rec := c.SharingForYear(year); rec != nil && rec.Total().GreaterThan(decimalZero) {
		return ShareSplit{
			Employer:         rec.EmployerShareValue,
			ISS:              rec.ISSShareValue,
			EmployerFraction: rec.EmployerPct(),
		}, true
	}
	initial := c.InitialSharing()
	if initial == nil || initial.Total().IsZero() || !reference.GreaterThan(decimalZero) {
		return ShareSplit{}, false
	}
	return ShareSplit{
		Employer:         reference.Mul(initial.EmployerPct()),
		ISS:              reference.Mul(initial.ISSPct()),
		EmployerFraction: initial.EmployerPct(),
	}, true
}

// PercentShares applies configured percentages (0..100) to reference
type PercentShares struct {
	EmployerPct decimal.Decimal
	ISSPct      decimal.Decimal
}

func (p PercentShares) Shares(_ int, reference decimal.Decimal) (ShareSplit, bool) {
	if !reference.GreaterThan(decimalZero) || !p.EmployerPct.Add(p.ISSPct).GreaterThan(decimalZero) {
		return ShareSplit{}, false
	}
	fraction := p.EmployerPct.Div(decimalHundred)
	return ShareSplit{
		Employer:         reference.Mul(fraction),
		ISS:              reference.Mul(p.ISSPct).Div(decimalHundred),
		EmployerFraction: fraction,
	}, true
}

// ApplySharing sets the employer and ISS shares of every after-sharing row.
// The employer value paid becomes the payable mesada and the employer
// fraction scales what is owed in ComputeDifferences. Rows the source cannot
// split keep their previous payable value.
func ApplySharing(split *domain.Split, shares ShareSource, logger Logger) {
	if shares == nil {
		return
	}
	if logger == nil {
		logger = NopLogger{}
	}
	for i := range split.AfterSharing {
		row := &split.AfterSharing[i]
		parts, ok := shares.Shares(row.Year, row.ProjectedMesadaByIPC)
		if !ok {
			logger.Warnf("no sharing split available for %s, keeping payable %s", row.PeriodLabel(), row.Payable.StringFixed(2))
			continue
		}
		row.EmployerShare = parts.Employer
		row.ISSShare = parts.ISS
		row.EmployerFraction = parts.EmployerFraction
		row.Payable = parts.Employer
		row.Unavailable = false
	}
}
