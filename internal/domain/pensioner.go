package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line item codes used by the payroll exports for the monthly pension
const (
	CodeMesada          = "MESAD"
	CodeMesadaLong      = "MESADA"
	CodeMesadaAdicional = "MESAD14"
)

// SharingTypeISS marks a causante record shared with ISS / Colpensiones
const SharingTypeISS = "ISS"

// Pensioner identifies the person whose pension is being liquidated
type Pensioner struct {
	ID             string `yaml:"id" json:"id" validate:"required"`
	DocumentNumber string `yaml:"document_number" json:"documentNumber" validate:"required"`
	EmployeeName   string `yaml:"employee_name" json:"employeeName"`
}

// LineItem is one concept inside a payment receipt
type LineItem struct {
	Code   string          `yaml:"code" json:"code"`
	Name   string          `yaml:"name" json:"name"`
	Income decimal.Decimal `yaml:"income" json:"income"`
}

// IsMesadaAdicional reports whether the item is a 13th/14th bonus payment
func (li LineItem) IsMesadaAdicional() bool {
	if strings.EqualFold(strings.TrimSpace(li.Code), CodeMesadaAdicional) {
		return true
	}
	return strings.Contains(strings.ToLower(li.Name), "mesada adicional")
}

// IsMesada reports whether the item is the ordinary monthly pension
func (li LineItem) IsMesada() bool {
	if li.IsMesadaAdicional() {
		return false
	}
	code := strings.ToUpper(strings.TrimSpace(li.Code))
	if code == CodeMesada || code == CodeMesadaLong {
		return true
	}
	return strings.Contains(strings.ToLower(li.Name), "mesada pensional")
}

// PaymentRecord is a single itemized payment event
type PaymentRecord struct {
	Year        int        `yaml:"year" json:"year" validate:"gte=1900"`
	PeriodLabel string     `yaml:"period_label" json:"periodLabel"`
	LineItems   []LineItem `yaml:"line_items" json:"lineItems"`
}

// MesadaAmount sums the ordinary mesada items of the record
func (pr PaymentRecord) MesadaAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range pr.LineItems {
		if item.IsMesada() {
			total = total.Add(item.Income)
		}
	}
	return total
}

// MesadaAdicionalAmount sums the bonus mesada items of the record
func (pr PaymentRecord) MesadaAdicionalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range pr.LineItems {
		if item.IsMesadaAdicional() {
			total = total.Add(item.Income)
		}
	}
	return total
}

// HistoricalPayment is a legacy snapshot used when no itemized payment exists
type HistoricalPayment struct {
	Year        int    `yaml:"year" json:"year" validate:"gte=1900"`
	ValueBefore string `yaml:"value_before" json:"valueBefore"`
	ValueAfter  string `yaml:"value_after" json:"valueAfter"`
	StartDate   string `yaml:"start_date" json:"startDate"`
}

// SharingRecord (causante) describes how the pension is split between the
// employer and ISS / Colpensiones from a given date
type SharingRecord struct {
	EffectiveFrom      time.Time       `yaml:"effective_from" json:"effectiveFrom" validate:"required"`
	SharingType        string          `yaml:"sharing_type" json:"sharingType"`
	EmployerShareValue decimal.Decimal `yaml:"employer_share_value" json:"employerShareValue"`
	ISSShareValue      decimal.Decimal `yaml:"iss_share_value" json:"issShareValue"`
	BeneficiaryID      string          `yaml:"beneficiary_id" json:"beneficiaryId"`
	Note               string          `yaml:"note" json:"note"`
}

// Total returns employer plus ISS values
func (sr SharingRecord) Total() decimal.Decimal {
	return sr.EmployerShareValue.Add(sr.ISSShareValue)
}

// EmployerPct returns the employer's fraction of the total (0..1)
func (sr SharingRecord) EmployerPct() decimal.Decimal {
	total := sr.Total()
	if total.IsZero() {
		return decimal.Zero
	}
	return sr.EmployerShareValue.Div(total)
}

// ISSPct returns the ISS fraction of the total (0..1)
func (sr SharingRecord) ISSPct() decimal.Decimal {
	total := sr.Total()
	if total.IsZero() {
		return decimal.Zero
	}
	return sr.ISSShareValue.Div(total)
}

// IsISS reports whether the record is an ISS/Colpensiones sharing
func (sr SharingRecord) IsISS() bool {
	return strings.EqualFold(strings.TrimSpace(sr.SharingType), SharingTypeISS)
}

// Case bundles everything the store returns for one pensioner
type Case struct {
	Pensioner  Pensioner           `yaml:"pensioner" json:"pensioner"`
	Payments   []PaymentRecord     `yaml:"payments" json:"payments" validate:"dive"`
	Historical []HistoricalPayment `yaml:"historical" json:"historical" validate:"dive"`
	Sharing    []SharingRecord     `yaml:"sharing" json:"sharing" validate:"dive"`
}

// InitialSharing returns the earliest sharing record, or nil when there is none
func (c *Case) InitialSharing() *SharingRecord {
	var earliest *SharingRecord
	for i := range c.Sharing {
		rec := &c.Sharing[i]
		if earliest == nil || rec.EffectiveFrom.Before(earliest.EffectiveFrom) {
			earliest = rec
		}
	}
	return earliest
}

// SharingForYear returns the earliest record effective in the given year
func (c *Case) SharingForYear(year int) *SharingRecord {
	var found *SharingRecord
	for i := range c.Sharing {
		rec := &c.Sharing[i]
		if rec.EffectiveFrom.Year() != year {
			continue
		}
		if found == nil || rec.EffectiveFrom.Before(found.EffectiveFrom) {
			found = rec
		}
	}
	return found
}
