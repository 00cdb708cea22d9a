package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/mesada/internal/compare"
	"github.com/rgehrsitz/mesada/internal/liquidation"
	"github.com/spf13/cobra"
)

func compareCmd() *cobra.Command {
	cf := &caseFlags{}
	of := &optionFlags{}
	var (
		by       string
		variant  string
		variants []string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a case under several growth indices or liquidation variants",
		Long: `Runs the same case under several scenarios and reports the deltas
against the first one.

Examples:
  # SMLMV (base) vs IPC vs max for the evolución variant
  mesada compare --case case.yaml

  # Variants side by side
  mesada compare --case case.yaml --by variant --variants evolucion,serp,simulador`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, opts, err := resolveRun(cmd, cf, of)
			if err != nil {
				return err
			}

			var scenarios compare.CompareOptions
			switch by {
			case "selector":
				opts.Variant = variant
				scenarios = compare.SelectorScenarios(opts)
			case "variant":
				scenarios, err = compare.VariantScenarios(opts, variants...)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("--by must be selector or variant, got %q", by)
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			set, err := compare.NewCompareEngine(engine, nil).Compare(cmd.Context(), c, scenarios)
			if err != nil {
				return err
			}

			var out string
			switch strings.ToLower(cfg.Format) {
			case "", "table", "console":
				out = (&compare.TableFormatter{}).Format(set)
			case "compact":
				out = (&compare.TableFormatter{}).FormatCompact(set)
			case "csv":
				out, err = (&compare.CSVFormatter{}).Format(set)
			case "json":
				out, err = (&compare.JSONFormatter{Pretty: true}).Format(set)
			default:
				return fmt.Errorf("unsupported format for compare: %s", cfg.Format)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cf.bind(cmd)
	of.bind(cmd)
	cmd.Flags().StringVar(&by, "by", "selector", "Comparison axis: selector or variant")
	cmd.Flags().StringVar(&variant, "variant", liquidation.VariantEvolucion, "Variant used for a selector comparison")
	cmd.Flags().StringSliceVar(&variants, "variants",
		[]string{liquidation.VariantEvolucion, liquidation.VariantSERP, liquidation.VariantSimulador},
		"Variants for a variant comparison; the first is the base")
	return cmd
}

func init() {
	rootCmd.AddCommand(compareCmd())
}
