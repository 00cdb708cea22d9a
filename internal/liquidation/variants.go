// Package liquidation wires the calculation engine into the named liquidation
// variants a case can be run under.
package liquidation

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/shopspring/decimal"
)

// Variant names
const (
	VariantEvolucion   = "evolucion"
	VariantSERP        = "serp"
	VariantSimulador   = "simulador"
	VariantCertificado = "certificado"
)

// ErrSharingSplitRequired is returned by the simulador when neither the
// options nor the case's causante records give the employer/ISS split
var ErrSharingSplitRequired = errors.New("simulador needs employer_pct and iss_pct")

// Variant is one way of liquidating a case
type Variant interface {
	Name() string
	Description() string
	Defaults() Options
	Run(engine *calculation.Engine, c *domain.Case, opts Options) (*domain.Liquidation, error)
}

// Evolucion compares the SMLMV projection with the IPC projection before and
// after the compartición given by the earliest causante record
type Evolucion struct{}

func (Evolucion) Name() string { return VariantEvolucion }

func (Evolucion) Description() string {
	return "Evolución de la mesada: SMLMV vs IPC before and after sharing"
}

func (Evolucion) Defaults() Options {
	return Options{
		Variant:         VariantEvolucion,
		Selector:        "smlmv",
		IncludeBonus:    boolPtr(true),
		SplitStrategy:   calculation.StrategyProrate,
		PayableBasis:    "ipc_projection",
		HistoricalField: "before",
		Locale:          "auto",
	}
}

func (v Evolucion) Run(engine *calculation.Engine, c *domain.Case, opts Options) (*domain.Liquidation, error) {
	opts = opts.Merge(v.Defaults())
	return runWithRecordSharing(engine, c, opts, v.Name())
}

// PrecedenteSERP is Evolucion under the more favourable index, with the
// projection capped at CapMultiplier x SMLMV and the cut-off tracked in the
// antijurídico ledger. The cap applies before the retroactive difference.
type PrecedenteSERP struct{}

func (PrecedenteSERP) Name() string { return VariantSERP }

func (PrecedenteSERP) Description() string {
	return "Precedente SERP: max(SMLMV, IPC) with the 5 x SMLMV antijurídico ledger"
}

func (PrecedenteSERP) Defaults() Options {
	d := Evolucion{}.Defaults()
	d.Variant = VariantSERP
	d.Selector = "max"
	d.CapMultiplier = decimal.NewFromInt(5)
	return d
}

func (v PrecedenteSERP) Run(engine *calculation.Engine, c *domain.Case, opts Options) (*domain.Liquidation, error) {
	opts = opts.Merge(v.Defaults())
	return runWithRecordSharing(engine, c, opts, v.Name())
}

// SimuladorFONECA simulates the compartición with configured percentages on
// a fixed date rather than reading them from causante records
type SimuladorFONECA struct{}

func (SimuladorFONECA) Name() string { return VariantSimulador }

func (SimuladorFONECA) Description() string {
	return "Simulador FONECA: configurable sharing percentages, 13 June 2014 split (11/3)"
}

func (SimuladorFONECA) Defaults() Options {
	return Options{
		Variant:         VariantSimulador,
		Selector:        "max",
		IncludeBonus:    boolPtr(true),
		SplitStrategy:   calculation.StrategyFixed,
		PayableBasis:    "ipc_projection",
		HistoricalField: "before",
		Locale:          "auto",
		FixedSplitDate:  timePtr(calculation.DefaultFixedSplitDate),
		FixedBefore:     11,
		FixedAfter:      3,
	}
}

func (v SimuladorFONECA) Run(engine *calculation.Engine, c *domain.Case, opts Options) (*domain.Liquidation, error) {
	opts = opts.Merge(v.Defaults())
	params, err := opts.params()
	if err != nil {
		return nil, err
	}

	var notes []string
	employer, iss := opts.EmployerPct, opts.ISSPct
	if employer.IsZero() && iss.IsZero() {
		initial := c.InitialSharing()
		if initial == nil || initial.Total().IsZero() {
			return nil, fmt.Errorf("%w: the case has no causante records", ErrSharingSplitRequired)
		}
		employer = initial.EmployerPct().Mul(decimal.NewFromInt(100))
		iss = initial.ISSPct().Mul(decimal.NewFromInt(100))
		notes = append(notes, fmt.Sprintf("sharing percentages taken from causante record of %s",
			initial.EffectiveFrom.Format("2006-01-02")))
	}

	date := calculation.DefaultFixedSplitDate
	if opts.SharingDate != nil {
		date = *opts.SharingDate
	} else if opts.FixedSplitDate != nil {
		date = *opts.FixedSplitDate
	}
	params.SharingDate = &date
	params.Shares = calculation.PercentShares{EmployerPct: employer, ISSPct: iss}

	result, err := engine.Liquidate(c, params)
	if err != nil {
		return nil, err
	}
	result.Variant = v.Name()
	result.Notes = append(result.Notes, notes...)
	result.Notes = append(result.Notes, fmt.Sprintf("employer %s%% / ISS %s%%", employer.StringFixed(2), iss.StringFixed(2)))
	return result, nil
}

// runWithRecordSharing runs the engine splitting at the earliest causante
// record (or the explicit sharing date) with shares read from the records
func runWithRecordSharing(engine *calculation.Engine, c *domain.Case, opts Options, variant string) (*domain.Liquidation, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}

	var notes []string
	switch {
	case opts.SharingDate != nil:
		date := *opts.SharingDate
		params.SharingDate = &date
	case c.InitialSharing() != nil:
		date := c.InitialSharing().EffectiveFrom
		params.SharingDate = &date
	default:
		notes = append(notes, "no causante records: the whole period is before sharing")
	}
	params.Shares = calculation.RecordShares{Records: c.Sharing}

	result, err := engine.Liquidate(c, params)
	if err != nil {
		return nil, err
	}
	result.Variant = variant
	result.Notes = append(result.Notes, notes...)
	return result, nil
}
