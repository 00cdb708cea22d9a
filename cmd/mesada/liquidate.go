package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rgehrsitz/mesada/internal/config"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/liquidation"
	"github.com/rgehrsitz/mesada/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// caseFlags selects the case to liquidate: a YAML file or a pensioner id in the store
type caseFlags struct {
	casePath string
	id       string
}

func (cf *caseFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cf.casePath, "case", "", "Case YAML file (pensioner, payments, historical, sharing, options)")
	cmd.Flags().StringVar(&cf.id, "id", "", "Pensioner id to load from --store")
}

// load returns the case and any options stored with it
func (cf *caseFlags) load(ctx context.Context) (*domain.Case, liquidation.Options, error) {
	switch {
	case cf.casePath != "" && cf.id != "":
		return nil, liquidation.Options{}, fmt.Errorf("use either --case or --id, not both")
	case cf.casePath != "":
		file, err := config.NewInputParser().LoadFromFile(cf.casePath)
		if err != nil {
			return nil, liquidation.Options{}, err
		}
		return &file.Case, file.Options, nil
	case cf.id != "":
		s, release, err := openStore(ctx)
		if err != nil {
			return nil, liquidation.Options{}, err
		}
		defer release()
		c, err := store.LoadCase(ctx, s, cf.id)
		if err != nil {
			return nil, liquidation.Options{}, err
		}
		return c, liquidation.Options{}, nil
	default:
		return nil, liquidation.Options{}, fmt.Errorf("either --case or --id is required")
	}
}

// optionFlags mirror liquidation.Options. Only flags the user set override
// the case file's options.
type optionFlags struct {
	startYear       int
	endYear         int
	selector        string
	includeBonus    bool
	splitStrategy   string
	payableBasis    string
	historicalField string
	locale          string
	capMultiplier   string
	employerPct     string
	issPct          string
	sharingDate     string
	fixedSplitDate  string
	fixedBefore     int
	fixedAfter      int
}

func (of *optionFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&of.startYear, "start-year", 0, "First liquidated year (default: year of the first payment)")
	f.IntVar(&of.endYear, "end-year", 0, "Last liquidated year (default: last year of the reference table)")
	f.StringVar(&of.selector, "selector", "", "Growth index: smlmv, ipc or max")
	f.BoolVar(&of.includeBonus, "include-bonus", true, "Count the June and December mesadas adicionales")
	f.StringVar(&of.splitStrategy, "split-strategy", "", "Sharing-year split: prorate, whole_year or fixed")
	f.StringVar(&of.payableBasis, "payable-basis", "", "Payable mesada: ipc_projection or actual_paid")
	f.StringVar(&of.historicalField, "historical-field", "", "Historical value column: before or after")
	f.StringVar(&of.locale, "locale", "", "Amount locale for historical strings: auto, es-CO or en-US")
	f.StringVar(&of.capMultiplier, "cap-multiplier", "", "Cap the projection at N x SMLMV (serp)")
	f.StringVar(&of.employerPct, "employer-pct", "", "Employer share in percent (simulador)")
	f.StringVar(&of.issPct, "iss-pct", "", "ISS share in percent (simulador)")
	f.StringVar(&of.sharingDate, "sharing-date", "", "Override the compartición date (YYYY-MM-DD)")
	f.StringVar(&of.fixedSplitDate, "fixed-split-date", "", "Date the fixed split strategy accepts (YYYY-MM-DD)")
	f.IntVar(&of.fixedBefore, "fixed-before", 0, "Mesadas before the sharing date under the fixed strategy")
	f.IntVar(&of.fixedAfter, "fixed-after", 0, "Mesadas after the sharing date under the fixed strategy")
}

// apply overlays every flag the user set onto opts
func (of *optionFlags) apply(cmd *cobra.Command, opts *liquidation.Options) error {
	changed := cmd.Flags().Changed

	if changed("start-year") {
		opts.StartYear = of.startYear
	}
	if changed("end-year") {
		opts.EndYear = of.endYear
	}
	if changed("selector") {
		opts.Selector = of.selector
	}
	if changed("include-bonus") {
		b := of.includeBonus
		opts.IncludeBonus = &b
	}
	if changed("split-strategy") {
		opts.SplitStrategy = of.splitStrategy
	}
	if changed("payable-basis") {
		opts.PayableBasis = of.payableBasis
	}
	if changed("historical-field") {
		opts.HistoricalField = of.historicalField
	}
	if changed("locale") {
		opts.Locale = of.locale
	}
	if changed("fixed-before") {
		opts.FixedBefore = of.fixedBefore
	}
	if changed("fixed-after") {
		opts.FixedAfter = of.fixedAfter
	}

	decimals := []struct {
		flag  string
		value string
		dest  *decimal.Decimal
	}{
		{"cap-multiplier", of.capMultiplier, &opts.CapMultiplier},
		{"employer-pct", of.employerPct, &opts.EmployerPct},
		{"iss-pct", of.issPct, &opts.ISSPct},
	}
	for _, d := range decimals {
		if !changed(d.flag) {
			continue
		}
		v, err := decimal.NewFromString(d.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", d.flag, err)
		}
		*d.dest = v
	}

	dates := []struct {
		flag  string
		value string
		dest  **time.Time
	}{
		{"sharing-date", of.sharingDate, &opts.SharingDate},
		{"fixed-split-date", of.fixedSplitDate, &opts.FixedSplitDate},
	}
	for _, d := range dates {
		if !changed(d.flag) {
			continue
		}
		t, err := time.Parse("2006-01-02", d.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", d.flag, err)
		}
		*d.dest = &t
	}
	return nil
}

// resolveRun loads the case and merges options: case file, then flags
func resolveRun(cmd *cobra.Command, cf *caseFlags, of *optionFlags) (*domain.Case, liquidation.Options, error) {
	c, opts, err := cf.load(cmd.Context())
	if err != nil {
		return nil, opts, err
	}
	if err := of.apply(cmd, &opts); err != nil {
		return nil, opts, err
	}
	if err := config.NewInputParser().ValidateOptions(&opts); err != nil {
		return nil, opts, fmt.Errorf("invalid options: %w", err)
	}
	return c, opts, nil
}

func newVariantCmd(variant liquidation.Variant, aliases ...string) *cobra.Command {
	cf := &caseFlags{}
	of := &optionFlags{}

	cmd := &cobra.Command{
		Use:     variant.Name(),
		Aliases: aliases,
		Short:   variant.Description(),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, opts, err := resolveRun(cmd, cf, of)
			if err != nil {
				return err
			}
			opts.Variant = variant.Name()

			engine, err := newEngine()
			if err != nil {
				return err
			}
			logger.Debug("running liquidation",
				zap.String("variant", variant.Name()),
				zap.String("pensioner", c.Pensioner.ID))

			result, err := liquidation.NewRegistry().Run(cmd.Context(), engine, c, opts)
			if err != nil {
				return err
			}
			return writeReport(cmd, result)
		},
	}
	cf.bind(cmd)
	of.bind(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(
		newVariantCmd(liquidation.Evolucion{}, "evolucion-mesada"),
		newVariantCmd(liquidation.PrecedenteSERP{}, "precedente-serp"),
		newVariantCmd(liquidation.SimuladorFONECA{}, "foneca"),
		newVariantCmd(liquidation.Certificado{}),
	)
}
