package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/indices"
	"github.com/rgehrsitz/mesada/internal/output"
	"github.com/rgehrsitz/mesada/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// settings holds the persistent flags after flag, environment (MESADA_*) and
// config-file values have been merged
type settings struct {
	Store       string
	Indices     string
	Format      string
	Output      string
	LogLevel    string
	LogFormat   string
	Assumptions bool
}

var (
	cfg    settings
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "mesada",
	Short: "Colombian pension (mesada pensional) liquidation CLI",
	Long: `Projects a pension mesada year by year under the SMLMV and IPC indices,
splits the liquidation around the compartición with ISS/Colpensiones and
computes the retroactive differences owed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadSettings(cmd); err != nil {
			return err
		}
		l, err := initializeLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Optional YAML file with default flag values")
	pf.String("store", "", "Document store: file:<dir> or redis:<addr>")
	pf.String("indices", "", "Reference table YAML overriding the embedded SMLMV/IPC data")
	pf.String("format", "table", "Output format: "+strings.Join(output.FormatterNames(), ", "))
	pf.StringP("output", "o", "", "Write the report to this file instead of stdout")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log encoding: console or json")
	pf.Bool("assumptions", false, "Print the calculation premises in table and HTML reports")

	rootCmd.AddCommand(versionCmd())
}

// loadSettings merges flags with MESADA_* environment variables and the
// optional --config file. Explicit flags win.
func loadSettings(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("MESADA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	cfg = settings{
		Store:       v.GetString("store"),
		Indices:     v.GetString("indices"),
		Format:      v.GetString("format"),
		Output:      v.GetString("output"),
		LogLevel:    v.GetString("log-level"),
		LogFormat:   v.GetString("log-format"),
		Assumptions: v.GetBool("assumptions"),
	}
	return nil
}

// initializeLogger creates a zap logger writing to stderr
func initializeLogger(level, format string) (*zap.Logger, error) {
	if level == "" {
		level = "warn"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	var config zap.Config
	switch format {
	case "", "console":
		config = zap.NewDevelopmentConfig()
	case "json":
		config = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// newEngine loads the reference table and wires the zap logger in
func newEngine() (*calculation.Engine, error) {
	var (
		table *indices.Table
		err   error
	)
	if cfg.Indices != "" {
		table, err = indices.LoadFile(cfg.Indices)
	} else {
		table, err = indices.Default()
	}
	if err != nil {
		return nil, err
	}
	engine := calculation.NewEngine(table)
	engine.SetLogger(logger.Sugar())
	return engine, nil
}

// openStore opens the configured store. The returned func releases it.
func openStore(ctx context.Context) (store.Store, func(), error) {
	if cfg.Store == "" {
		return nil, nil, fmt.Errorf("--store is required (file:<dir> or redis:<addr>)")
	}
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if c, ok := s.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return s, release, nil
}

// writeReport renders l with the configured formatter to --output or cmd's stdout
func writeReport(cmd *cobra.Command, l *domain.Liquidation) error {
	f := output.GetFormatterByName(cfg.Format)
	if f == nil {
		return fmt.Errorf("unsupported format: %s", cfg.Format)
	}
	switch tf := f.(type) {
	case output.TableFormatter:
		tf.Assumptions = cfg.Assumptions
		f = tf
	case output.HTMLFormatter:
		tf.Assumptions = cfg.Assumptions
		f = tf
	}
	if cfg.Output != "" {
		if err := output.WriteFormatted(f, l, cfg.Output); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", filepath.Clean(cfg.Output))
		return nil
	}
	out, err := f.Format(l)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mesada %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
