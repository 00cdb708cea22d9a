// Package normalize extracts a canonical monthly pension amount (mesada) for a
// year out of the heterogeneous records kept for a pensioner. Each source is a
// Resolver; a Chain tries them in priority order and the first one that yields
// a positive amount wins.
package normalize

import (
	"strings"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/money"
	"github.com/shopspring/decimal"
)

// Resolver yields a mesada for a year from one kind of source
type Resolver interface {
	Name() string
	Resolve(year int) (decimal.Decimal, bool)
}

// Resolution describes which resolver produced a value
type Resolution struct {
	Year   int
	Value  decimal.Decimal
	Source string
	Found  bool
}

// Chain composes resolvers with first-success-wins semantics
type Chain struct {
	resolvers []Resolver
}

// NewChain builds a chain that consults resolvers in the given order
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Name lists the chained resolver names
func (c *Chain) Name() string {
	names := make([]string, len(c.resolvers))
	for i, r := range c.resolvers {
		names[i] = r.Name()
	}
	return strings.Join(names, ">")
}

// Resolve returns the first positive value any resolver yields
func (c *Chain) Resolve(year int) (decimal.Decimal, bool) {
	res := c.Explain(year)
	return res.Value, res.Found
}

// Explain is Resolve plus the name of the winning resolver
func (c *Chain) Explain(year int) Resolution {
	for _, r := range c.resolvers {
		if v, ok := r.Resolve(year); ok && v.GreaterThan(decimal.Zero) {
			return Resolution{Year: year, Value: v, Source: r.Name(), Found: true}
		}
	}
	return Resolution{Year: year, Value: decimal.Zero}
}

// ItemizedResolver reads recent itemized payment records
type ItemizedResolver struct {
	Payments []domain.PaymentRecord
}

func (r ItemizedResolver) Name() string { return "itemized" }

// Resolve applies the cadence rules:
//   - monthly: the first chronological month carrying a mesada
//   - biweekly: the first month with two mesada payments, their sum. Scanning
//     the first three months and then the remainder is the same as scanning
//     every month in order, so a single pass is used.
//   - biweekly with no complete month: the single half payment doubled
func (r ItemizedResolver) Resolve(year int) (decimal.Decimal, bool) {
	buckets, undated := groupByMonth(year, r.Payments)

	if len(buckets) == 0 {
		for _, p := range undated {
			if p.mesada.GreaterThan(decimal.Zero) {
				return p.mesada, true
			}
		}
		return decimal.Zero, false
	}

	if !isBiweekly(buckets) {
		for _, b := range buckets {
			if mp := b.mesadaPayments(); len(mp) > 0 {
				return mp[0].mesada, true
			}
		}
		return decimal.Zero, false
	}

	for _, b := range buckets {
		if mp := b.mesadaPayments(); len(mp) >= 2 {
			return mp[0].mesada.Add(mp[1].mesada), true
		}
	}
	for _, b := range buckets {
		if mp := b.mesadaPayments(); len(mp) == 1 {
			return mp[0].mesada.Mul(decimal.NewFromInt(2)), true
		}
	}
	return decimal.Zero, false
}

// HistoricalField selects which value of a legacy snapshot is read
type HistoricalField int

const (
	HistoricalBefore HistoricalField = iota
	HistoricalAfter
)

// ParseHistoricalField converts "before"/"after" into a HistoricalField
func ParseHistoricalField(s string) HistoricalField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "after", "despues", "después":
		return HistoricalAfter
	default:
		return HistoricalBefore
	}
}

func (f HistoricalField) String() string {
	if f == HistoricalAfter {
		return "after"
	}
	return "before"
}

// HistoricalResolver reads legacy payment snapshots
type HistoricalResolver struct {
	Records []domain.HistoricalPayment
	Field   HistoricalField
	Locale  money.Locale
}

func (r HistoricalResolver) Name() string { return "historical" }

// Resolve parses the configured value of the first snapshot for the year
func (r HistoricalResolver) Resolve(year int) (decimal.Decimal, bool) {
	for _, rec := range r.Records {
		if rec.Year != year {
			continue
		}
		raw := rec.ValueBefore
		if r.Field == HistoricalAfter {
			raw = rec.ValueAfter
		}
		if v, ok := money.ParseOrZero(raw, r.Locale); ok && v.GreaterThan(decimal.Zero) {
			return v, true
		}
	}
	return decimal.Zero, false
}

// SharingResolver reads the employer value of causante records
type SharingResolver struct {
	Records []domain.SharingRecord
}

func (r SharingResolver) Name() string { return "sharing" }

// Resolve returns the employer share of the earliest record effective in the year
func (r SharingResolver) Resolve(year int) (decimal.Decimal, bool) {
	c := domain.Case{Sharing: r.Records}
	rec := c.SharingForYear(year)
	if rec == nil || !rec.EmployerShareValue.GreaterThan(decimal.Zero) {
		return decimal.Zero, false
	}
	return rec.EmployerShareValue, true
}
