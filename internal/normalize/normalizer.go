package normalize

import (
	"time"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/money"
	"github.com/shopspring/decimal"
)

// Options tune how fallback sources are read
type Options struct {
	HistoricalField HistoricalField
	Locale          money.Locale
}

// DefaultOptions reads the "before" snapshot value and infers the locale
func DefaultOptions() Options {
	return Options{HistoricalField: HistoricalBefore, Locale: money.LocaleAuto}
}

// ChainFor builds the standard itemized > historical > sharing chain
func ChainFor(payments []domain.PaymentRecord, historical []domain.HistoricalPayment, sharing []domain.SharingRecord, opts Options) *Chain {
	return NewChain(
		ItemizedResolver{Payments: payments},
		HistoricalResolver{Records: historical, Field: opts.HistoricalField, Locale: opts.Locale},
		SharingResolver{Records: sharing},
	)
}

// ChainForCase builds the standard chain over a case's records
func ChainForCase(c *domain.Case, opts Options) *Chain {
	return ChainFor(c.Payments, c.Historical, c.Sharing, opts)
}

// GetMesadaForYear returns the canonical mesada for a year, or zero when no
// source knows it. Zero means unknown, never a zero pension.
func GetMesadaForYear(year int, payments []domain.PaymentRecord, historical []domain.HistoricalPayment, sharing []domain.SharingRecord) decimal.Decimal {
	v, _ := ChainFor(payments, historical, sharing, DefaultOptions()).Resolve(year)
	return v
}

// FirstPaymentDate returns the earliest period start among payments carrying a mesada
func FirstPaymentDate(payments []domain.PaymentRecord) (time.Time, bool) {
	var first time.Time
	found := false
	for _, p := range payments {
		if !p.MesadaAmount().GreaterThan(decimal.Zero) {
			continue
		}
		start, err := ParsePeriodStart(p.PeriodLabel, p.Year)
		if err != nil {
			continue
		}
		if !found || start.Before(first) {
			first = start
			found = true
		}
	}
	return first, found
}

// FirstPaymentYear returns the earliest year with any resolvable record
func FirstPaymentYear(c *domain.Case) (int, bool) {
	year := 0
	consider := func(y int) {
		if y > 0 && (year == 0 || y < year) {
			year = y
		}
	}
	if d, ok := FirstPaymentDate(c.Payments); ok {
		consider(d.Year())
	}
	for _, p := range c.Payments {
		if p.MesadaAmount().GreaterThan(decimal.Zero) {
			consider(p.Year)
		}
	}
	for _, h := range c.Historical {
		consider(h.Year)
	}
	return year, year != 0
}
