package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectedValue is one element of a projected mesada series
type ProjectedValue struct {
	Year  int             `json:"year"`
	Value decimal.Decimal `json:"value"`
}

// YearRow represents one year (or sub-year period when the sharing year is split)
// of a liquidation table
type YearRow struct {
	Year       int    `json:"year"`
	StartMonth int    `json:"startMonth"`
	EndMonth   int    `json:"endMonth"`
	Period     string `json:"period"`

	SMLMV          decimal.Decimal `json:"smlmv"`
	SMLMVGrowthPct decimal.Decimal `json:"smlmvGrowthPct"`
	IPCGrowthPct   decimal.Decimal `json:"ipcGrowthPct"`

	ProjectedMesadaBySMLMV      decimal.Decimal `json:"projectedMesadaBySmlmv"`
	SMLMVCountAtSMLMVProjection decimal.Decimal `json:"smlmvCountAtSmlmvProjection"`
	ProjectedMesadaByIPC        decimal.Decimal `json:"projectedMesadaByIpc"`
	SMLMVCountAtIPCProjection   decimal.Decimal `json:"smlmvCountAtIpcProjection"`
	PercentLossOfIPCProjection  decimal.Decimal `json:"percentLossOfIpcProjection"`
	SMLMVLossOfIPCProjection    decimal.Decimal `json:"smlmvLossOfIpcProjection"`

	// Payment side
	MesadaActuallyPaid decimal.Decimal `json:"mesadaActuallyPaid"`
	EmployerShare      decimal.Decimal `json:"employerShare"`
	ISSShare           decimal.Decimal `json:"issShare"`
	Payable            decimal.Decimal `json:"payable"`
	// After sharing the liability is the employer's: EmployerFraction of the
	// selector projection, compared with the employer value paid (Payable).
	EmployerFraction decimal.Decimal `json:"employerFraction"`
	EmployerDue      decimal.Decimal `json:"employerDue"`
	Unavailable        bool            `json:"unavailable"` // payable value could not be resolved
	AfterSharing       bool            `json:"afterSharing"`

	MesadaDifference           decimal.Decimal `json:"mesadaDifference"`
	MesadaCount                int             `json:"mesadaCount"`
	RetroactiveSubtotal        decimal.Decimal `json:"retroactiveSubtotal"`
	CumulativeRetroactiveTotal decimal.Decimal `json:"cumulativeRetroactiveTotal"`
}

// Months returns the number of calendar months the row covers
func (r YearRow) Months() int {
	if r.StartMonth == 0 || r.EndMonth == 0 {
		return 12
	}
	return r.EndMonth - r.StartMonth + 1
}

// IsPartial reports whether the row covers less than a full year
func (r YearRow) IsPartial() bool {
	return r.Months() < 12
}

// PeriodLabel renders "2014" for full years and "2014 (06-12)" for partial ones
func (r YearRow) PeriodLabel() string {
	if !r.IsPartial() {
		return fmt.Sprintf("%d", r.Year)
	}
	return fmt.Sprintf("%d (%02d-%02d)", r.Year, r.StartMonth, r.EndMonth)
}

// Split is the two-way division of a liquidation around the sharing date
type Split struct {
	SharingDate   *time.Time `json:"sharingDate,omitempty"`
	BeforeSharing []YearRow  `json:"beforeSharing"`
	AfterSharing  []YearRow  `json:"afterSharing"`
}

// Rows returns before and after rows in order
func (s Split) Rows() []YearRow {
	rows := make([]YearRow, 0, len(s.BeforeSharing)+len(s.AfterSharing))
	rows = append(rows, s.BeforeSharing...)
	rows = append(rows, s.AfterSharing...)
	return rows
}

// Summary carries the scalar results shown above every liquidation table
type Summary struct {
	TotalGeneralRetroactivo decimal.Decimal `json:"totalGeneralRetroactivo"`
	MesadaPensionalInicial  decimal.Decimal `json:"mesadaPensionalInicial"`
	FechaPrimeraMesada      *time.Time      `json:"fechaPrimeraMesada,omitempty"`
	StartYear               int             `json:"startYear"`
	EndYear                 int             `json:"endYear"`
	Selector                GrowthSelector  `json:"selector"`
	UnavailableYears        []int           `json:"unavailableYears,omitempty"`
}

// AntijuridicoRow is one year of the Precedente SERP unlawful-damage sub-ledger
type AntijuridicoRow struct {
	Year             int             `json:"year"`
	Period           string          `json:"period"`
	Cap              decimal.Decimal `json:"cap"` // CapMultiplier x SMLMV
	ProjectedMesada  decimal.Decimal `json:"projectedMesada"`
	CappedMesada     decimal.Decimal `json:"cappedMesada"`
	Excess           decimal.Decimal `json:"excess"`
	MesadaCount      int             `json:"mesadaCount"`
	ExcessSubtotal   decimal.Decimal `json:"excessSubtotal"`
	CumulativeExcess decimal.Decimal `json:"cumulativeExcess"`
}

// CertificadoRow summarises the payments actually made in one year
type CertificadoRow struct {
	Year              int             `json:"year"`
	FirstPaymentDate  *time.Time      `json:"firstPaymentDate,omitempty"`
	FirstMesada       decimal.Decimal `json:"firstMesada"`
	LastPaymentDate   *time.Time      `json:"lastPaymentDate,omitempty"`
	LastMesada        decimal.Decimal `json:"lastMesada"`
	IntraYearDelta    decimal.Decimal `json:"intraYearDelta"`
	YearOverYearDelta decimal.Decimal `json:"yearOverYearDelta"`
	YearOverYearPct   decimal.Decimal `json:"yearOverYearPct"`
	MesadaAdicional   decimal.Decimal `json:"mesadaAdicional"`
	Biweekly          bool            `json:"biweekly"`
}

// Liquidation is the full result of running one variant over one case
type Liquidation struct {
	Variant      string            `json:"variant"`
	Pensioner    Pensioner         `json:"pensioner"`
	Summary      Summary           `json:"summary"`
	Split        Split             `json:"split"`
	Antijuridico []AntijuridicoRow `json:"antijuridico,omitempty"`
	Certificado  []CertificadoRow  `json:"certificado,omitempty"`
	Notes        []string          `json:"notes,omitempty"`
}

// Rows returns every computed YearRow in chronological order
func (l *Liquidation) Rows() []YearRow {
	return l.Split.Rows()
}

// TotalAntijuridico returns the final cumulative excess of the SERP sub-ledger
func (l *Liquidation) TotalAntijuridico() decimal.Decimal {
	if len(l.Antijuridico) == 0 {
		return decimal.Zero
	}
	return l.Antijuridico[len(l.Antijuridico)-1].CumulativeExcess
}
