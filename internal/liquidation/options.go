package liquidation

import (
	"fmt"
	"time"

	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/money"
	"github.com/rgehrsitz/mesada/internal/normalize"
	"github.com/shopspring/decimal"
)

// Options are the user-facing knobs of a liquidation run. Zero values take
// the variant's defaults.
type Options struct {
	Variant         string          `yaml:"variant" json:"variant"`
	StartYear       int             `yaml:"start_year" json:"startYear" validate:"omitempty,gte=1900,lte=2100"`
	EndYear         int             `yaml:"end_year" json:"endYear" validate:"omitempty,gte=1900,lte=2100"`
	Selector        string          `yaml:"selector" json:"selector" validate:"omitempty,oneof=smlmv smlmv_only ipc ipc_only max max_of_smlmv_and_ipc"`
	IncludeBonus    *bool           `yaml:"include_bonus" json:"includeBonus,omitempty"`
	SplitStrategy   string          `yaml:"split_strategy" json:"splitStrategy" validate:"omitempty,oneof=prorate whole_year fixed"`
	PayableBasis    string          `yaml:"payable_basis" json:"payableBasis" validate:"omitempty,oneof=ipc_projection actual_paid"`
	HistoricalField string          `yaml:"historical_field" json:"historicalField" validate:"omitempty,oneof=before after"`
	Locale          string          `yaml:"locale" json:"locale"`
	CapMultiplier   decimal.Decimal `yaml:"cap_multiplier" json:"capMultiplier"`
	EmployerPct     decimal.Decimal `yaml:"employer_pct" json:"employerPct"`
	ISSPct          decimal.Decimal `yaml:"iss_pct" json:"issPct"`
	SharingDate     *time.Time      `yaml:"sharing_date" json:"sharingDate,omitempty"`
	FixedSplitDate  *time.Time      `yaml:"fixed_split_date" json:"fixedSplitDate,omitempty"`
	FixedBefore     int             `yaml:"fixed_before" json:"fixedBefore" validate:"gte=0,lte=14"`
	FixedAfter      int             `yaml:"fixed_after" json:"fixedAfter" validate:"gte=0,lte=14"`
}

// Merge fills every unset field of o from defaults
func (o Options) Merge(defaults Options) Options {
	if o.Variant == "" {
		o.Variant = defaults.Variant
	}
	if o.StartYear == 0 {
		o.StartYear = defaults.StartYear
	}
	if o.EndYear == 0 {
		o.EndYear = defaults.EndYear
	}
	if o.Selector == "" {
		o.Selector = defaults.Selector
	}
	if o.IncludeBonus == nil {
		o.IncludeBonus = defaults.IncludeBonus
	}
	if o.SplitStrategy == "" {
		o.SplitStrategy = defaults.SplitStrategy
	}
	if o.PayableBasis == "" {
		o.PayableBasis = defaults.PayableBasis
	}
	if o.HistoricalField == "" {
		o.HistoricalField = defaults.HistoricalField
	}
	if o.Locale == "" {
		o.Locale = defaults.Locale
	}
	if o.CapMultiplier.IsZero() {
		o.CapMultiplier = defaults.CapMultiplier
	}
	if o.EmployerPct.IsZero() && o.ISSPct.IsZero() {
		o.EmployerPct = defaults.EmployerPct
		o.ISSPct = defaults.ISSPct
	}
	if o.SharingDate == nil {
		o.SharingDate = defaults.SharingDate
	}
	if o.FixedSplitDate == nil {
		o.FixedSplitDate = defaults.FixedSplitDate
	}
	if o.FixedBefore == 0 && o.FixedAfter == 0 {
		o.FixedBefore = defaults.FixedBefore
		o.FixedAfter = defaults.FixedAfter
	}
	return o
}

// Bonus reports whether the 13th and 14th mesadas are counted
func (o Options) Bonus() bool {
	return o.IncludeBonus == nil || *o.IncludeBonus
}

// Validate performs the cross-field checks struct tags cannot express
func (o Options) Validate() error {
	if o.StartYear != 0 && o.EndYear != 0 && o.EndYear < o.StartYear {
		return fmt.Errorf("end_year %d is before start_year %d", o.EndYear, o.StartYear)
	}
	if o.CapMultiplier.IsNegative() {
		return fmt.Errorf("cap_multiplier cannot be negative")
	}
	if o.EmployerPct.IsNegative() || o.ISSPct.IsNegative() {
		return fmt.Errorf("sharing percentages cannot be negative")
	}
	if o.EmployerPct.Add(o.ISSPct).GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("employer_pct + iss_pct cannot exceed 100")
	}
	if _, err := o.growthSelector(); err != nil {
		return err
	}
	if _, err := o.payableBasis(); err != nil {
		return err
	}
	if _, err := money.ParseLocale(o.Locale); err != nil {
		return err
	}
	return nil
}

func (o Options) growthSelector() (domain.GrowthSelector, error) {
	if o.Selector == "" {
		return domain.SMLMVOnly, nil
	}
	return domain.ParseGrowthSelector(o.Selector)
}

func (o Options) payableBasis() (calculation.PayableBasis, error) {
	return calculation.ParsePayableBasis(o.PayableBasis)
}

func (o Options) normalizeOptions() normalize.Options {
	locale, _ := money.ParseLocale(o.Locale)
	return normalize.Options{
		HistoricalField: normalize.ParseHistoricalField(o.HistoricalField),
		Locale:          locale,
	}
}

// splitStrategy builds the configured strategy. The fixed strategy uses the
// configured date and counts when set.
func (o Options) splitStrategy() (calculation.SplitStrategy, error) {
	if o.SplitStrategy == calculation.StrategyFixed {
		date := calculation.DefaultFixedSplitDate
		if o.FixedSplitDate != nil {
			date = *o.FixedSplitDate
		}
		before, after := o.FixedBefore, o.FixedAfter
		if before == 0 && after == 0 {
			before, after = 11, 3
		}
		return calculation.NewFixedDateStrategy(date, before, after), nil
	}
	return calculation.NewSplitStrategy(o.SplitStrategy)
}

// params translates the options into engine parameters
func (o Options) params() (calculation.Params, error) {
	if err := o.Validate(); err != nil {
		return calculation.Params{}, err
	}
	selector, _ := o.growthSelector()
	basis, _ := o.payableBasis()
	strategy, err := o.splitStrategy()
	if err != nil {
		return calculation.Params{}, err
	}
	return calculation.Params{
		StartYear:     o.StartYear,
		EndYear:       o.EndYear,
		Selector:      selector,
		IncludeBonus:  o.Bonus(),
		PayableBasis:  basis,
		Normalize:     o.normalizeOptions(),
		Strategy:      strategy,
		CapMultiplier: o.CapMultiplier,
	}, nil
}

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }
