package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rgehrsitz/mesada/internal/domain"
)

// Formatter renders a liquidation for presentation
type Formatter interface {
	Name() string
	Format(l *domain.Liquidation) (string, error)
}

// FormatterFunc adapts a plain function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(l *domain.Liquidation) (string, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(l *domain.Liquidation) (string, error) { return f.F(l) }

// GetFormatterByName returns the formatter registered under name, or nil
func GetFormatterByName(name string) Formatter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table", "console":
		return TableFormatter{}
	case "csv":
		return CSVFormatter{}
	case "json":
		return JSONFormatter{Pretty: true}
	case "json-compact":
		return JSONFormatter{}
	case "html":
		return HTMLFormatter{}
	default:
		return nil
	}
}

// FormatterNames lists the accepted formatter names
func FormatterNames() []string {
	return []string{"table", "csv", "json", "json-compact", "html"}
}

// WriteFormatted renders l and writes it to path, creating parent directories.
// An empty path or "-" writes to stdout.
func WriteFormatted(f Formatter, l *domain.Liquidation, path string) error {
	if f == nil {
		return fmt.Errorf("no formatter")
	}
	out, err := f.Format(l)
	if err != nil {
		return fmt.Errorf("%s format: %w", f.Name(), err)
	}
	if path == "" || path == "-" {
		_, err = fmt.Fprintln(os.Stdout, out)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(out), 0o644)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
