// Package indices holds the yearly SMLMV and IPC reference data used by every
// liquidation. A Table is immutable once built and safe to share between
// goroutines.
package indices

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed data/indices.yaml
var embeddedIndices []byte

// ErrYearOutOfRange is returned by Must-style lookups for years the table does not cover
var ErrYearOutOfRange = errors.New("year outside reference table coverage")

// Table is a read-only, year-keyed set of economic indices
type Table struct {
	source string
	byYear map[int]domain.YearlyIndex
	first  int
	last   int
}

type tableFile struct {
	Source string               `yaml:"source"`
	Years  []domain.YearlyIndex `yaml:"years"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table, parsed once per process
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(embeddedIndices)
	})
	return defaultTable, defaultErr
}

// LoadFile reads a table from a YAML file with the same shape as the embedded dataset
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read indices file %s: %w", path, err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("indices file %s: %w", path, err)
	}
	return table, nil
}

// Parse builds a table from YAML bytes
func Parse(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return New(file.Source, file.Years)
}

// New validates the rows and builds a table. Years must be unique and contiguous.
func New(source string, rows []domain.YearlyIndex) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("reference table has no years")
	}

	sorted := make([]domain.YearlyIndex, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	t := &Table{
		source: source,
		byYear: make(map[int]domain.YearlyIndex, len(sorted)),
		first:  sorted[0].Year,
		last:   sorted[len(sorted)-1].Year,
	}
	for i, row := range sorted {
		if _, dup := t.byYear[row.Year]; dup {
			return nil, fmt.Errorf("duplicate year %d", row.Year)
		}
		if i > 0 && row.Year != sorted[i-1].Year+1 {
			return nil, fmt.Errorf("gap in coverage between %d and %d", sorted[i-1].Year, row.Year)
		}
		if row.SMLMV.LessThan(decimal.Zero) {
			return nil, fmt.Errorf("year %d: smlmv cannot be negative", row.Year)
		}
		t.byYear[row.Year] = row
	}
	return t, nil
}

// Source describes where the data came from
func (t *Table) Source() string { return t.source }

// FirstYear returns the earliest covered year
func (t *Table) FirstYear() int { return t.first }

// LastYear returns the latest covered year
func (t *Table) LastYear() int { return t.last }

// Contains reports whether the year is covered
func (t *Table) Contains(year int) bool {
	_, ok := t.byYear[year]
	return ok
}

// Lookup returns the indices for a year
func (t *Table) Lookup(year int) (domain.YearlyIndex, bool) {
	idx, ok := t.byYear[year]
	return idx, ok
}

// MustLookup returns the indices for a year or ErrYearOutOfRange
func (t *Table) MustLookup(year int) (domain.YearlyIndex, error) {
	idx, ok := t.byYear[year]
	if !ok {
		return domain.YearlyIndex{}, fmt.Errorf("%w: %d (covered %d-%d)", ErrYearOutOfRange, year, t.first, t.last)
	}
	return idx, nil
}

// Years returns all covered rows in ascending order
func (t *Table) Years() []domain.YearlyIndex {
	out := make([]domain.YearlyIndex, 0, len(t.byYear))
	for y := t.first; y <= t.last; y++ {
		out = append(out, t.byYear[y])
	}
	return out
}

// ClampRange trims [start, end] to the covered years. ok is false when nothing overlaps.
func (t *Table) ClampRange(start, end int) (int, int, bool) {
	if start < t.first {
		start = t.first
	}
	if end > t.last {
		end = t.last
	}
	return start, end, start <= end
}
