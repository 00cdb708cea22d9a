package main

import (
	"fmt"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/rgehrsitz/mesada/internal/api"
	"github.com/rgehrsitz/mesada/internal/config"
	"github.com/rgehrsitz/mesada/internal/money"
	"github.com/rgehrsitz/mesada/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [case-file...]",
		Short: "Validate case files without liquidating them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := config.NewInputParser()
			failed := 0
			for _, path := range args {
				file, err := parser.LoadFromFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: pensioner %s, %d payments, %d historical, %d sharing records\n",
					path, file.Pensioner.ID, len(file.Payments), len(file.Historical), len(file.Sharing))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d case files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func indicesCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Print the SMLMV / IPC reference table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			table := engine.Table
			rows := table.Years()
			if year != 0 {
				idx, err := table.MustLookup(year)
				if err != nil {
					return err
				}
				rows = append(rows[:0:0], idx)
			}

			if cfg.Format == "json" {
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fuente: %s (%d-%d)\n", table.Source(), table.FirstYear(), table.LastYear())
			fmt.Fprintf(out, "%-6s %18s %10s %10s\n", "Año", "SMLMV", "% SMLMV", "% IPC")
			for _, r := range rows {
				fmt.Fprintf(out, "%-6d %18s %10s %10s\n", r.Year,
					money.Format(r.SMLMV), money.FormatPercent(r.SMLMVGrowthPct), money.FormatPercent(r.IPCGrowthPct))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Print a single year")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [case-file...]",
		Short: "Validate case files and write them to --store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			writer, ok := s.(store.Writer)
			if !ok {
				return fmt.Errorf("store %s is read-only", cfg.Store)
			}

			parser := config.NewInputParser()
			for _, path := range args {
				file, err := parser.LoadFromFile(path)
				if err != nil {
					return err
				}
				if err := writer.PutCase(cmd.Context(), &file.Case); err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				logger.Info("case imported", zap.String("file", path), zap.String("pensioner", file.Pensioner.ID))
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s)\n", file.Pensioner.ID, path)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var (
		addr string
		rate int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the liquidation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, release, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			engine, err := newEngine()
			if err != nil {
				return err
			}

			serverCfg := api.DefaultConfig()
			serverCfg.RateLimit = rate
			return api.NewServer(s, engine, logger, serverCfg).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().IntVar(&rate, "rate-limit", api.DefaultConfig().RateLimit, "Requests per minute per client IP (0 disables)")
	return cmd
}

func init() {
	rootCmd.AddCommand(validateCmd(), indicesCmd(), importCmd(), serveCmd())
}
