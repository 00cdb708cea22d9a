package normalize

import (
	"sort"
	"time"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/shopspring/decimal"
)

// datedPayment is a payment record with its resolved period start
type datedPayment struct {
	start  time.Time
	mesada decimal.Decimal
	bonus  decimal.Decimal
	half   bool // period covers a single fortnight
	index  int  // position in the source slice, keeps ordering stable
}

// monthBucket groups the mesada-carrying payments of one calendar month
type monthBucket struct {
	month    time.Month
	payments []datedPayment
}

// MonthMesada is the aggregated ordinary mesada paid in one calendar month
type MonthMesada struct {
	Month     time.Month
	Date      time.Time
	Amount    decimal.Decimal
	Adicional decimal.Decimal
	Payments  int
	Estimated bool // single half-month payment doubled
}

// groupByMonth returns the year's payments bucketed by month, chronologically.
// Records whose label cannot be parsed are returned separately in source order.
func groupByMonth(year int, payments []domain.PaymentRecord) ([]monthBucket, []datedPayment) {
	byMonth := map[time.Month]*monthBucket{}
	var undated []datedPayment

	for i, p := range payments {
		if p.Year != year {
			continue
		}
		dp := datedPayment{mesada: p.MesadaAmount(), bonus: p.MesadaAdicionalAmount(), index: i}
		start, end, err := ParsePeriod(p.PeriodLabel, p.Year)
		if err != nil || start.Year() != year {
			undated = append(undated, dp)
			continue
		}
		dp.start = start
		dp.half = isFortnight(start, end)
		bucket, ok := byMonth[start.Month()]
		if !ok {
			bucket = &monthBucket{month: start.Month()}
			byMonth[start.Month()] = bucket
		}
		bucket.payments = append(bucket.payments, dp)
	}

	buckets := make([]monthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		sort.SliceStable(b.payments, func(i, j int) bool {
			if b.payments[i].start.Equal(b.payments[j].start) {
				return b.payments[i].index < b.payments[j].index
			}
			return b.payments[i].start.Before(b.payments[j].start)
		})
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].month < buckets[j].month })
	return buckets, undated
}

// mesadaPayments keeps only the payments that carry an ordinary mesada
func (b monthBucket) mesadaPayments() []datedPayment {
	out := make([]datedPayment, 0, len(b.payments))
	for _, p := range b.payments {
		if p.mesada.GreaterThan(decimal.Zero) {
			out = append(out, p)
		}
	}
	return out
}

// isFortnight reports whether a period is the first or second half of a month
func isFortnight(start, end time.Time) bool {
	if start.Year() != end.Year() || start.Month() != end.Month() {
		return false
	}
	return (start.Day() == 1 && end.Day() == 15) || (start.Day() == 16 && end.Equal(endOfMonth(start)))
}

// isBiweekly reports whether any month holds two or more mesada payments or
// any mesada payment covers only half a month
func isBiweekly(buckets []monthBucket) bool {
	for _, b := range buckets {
		mp := b.mesadaPayments()
		if len(mp) >= 2 {
			return true
		}
		for _, p := range mp {
			if p.half {
				return true
			}
		}
	}
	return false
}

// IsBiweekly reports whether the pensioner was paid twice a month in the given year
func IsBiweekly(year int, payments []domain.PaymentRecord) bool {
	buckets, _ := groupByMonth(year, payments)
	return isBiweekly(buckets)
}

// MonthlyMesadas aggregates the year's payments into one value per month.
// Under a biweekly cadence a month with a single half payment is doubled and
// flagged as estimated.
func MonthlyMesadas(year int, payments []domain.PaymentRecord) []MonthMesada {
	buckets, _ := groupByMonth(year, payments)
	biweekly := isBiweekly(buckets)

	out := make([]MonthMesada, 0, len(buckets))
	for _, b := range buckets {
		mp := b.mesadaPayments()
		row := MonthMesada{Month: b.month, Payments: len(mp)}
		if len(b.payments) > 0 {
			row.Date = b.payments[0].start
		}
		for _, p := range b.payments {
			row.Adicional = row.Adicional.Add(p.bonus)
		}
		switch {
		case len(mp) == 0:
		case biweekly && len(mp) == 1:
			row.Amount = mp[0].mesada.Mul(decimal.NewFromInt(2))
			row.Estimated = true
		case biweekly:
			row.Amount = mp[0].mesada.Add(mp[1].mesada)
		default:
			row.Amount = mp[0].mesada
		}
		out = append(out, row)
	}
	return out
}
