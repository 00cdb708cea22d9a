package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// YearlyIndex holds the economic reference values for one calendar year
type YearlyIndex struct {
	Year           int             `yaml:"year" json:"year"`
	SMLMV          decimal.Decimal `yaml:"smlmv" json:"smlmv"`                     // Monthly minimum wage in COP
	SMLMVGrowthPct decimal.Decimal `yaml:"smlmv_growth_pct" json:"smlmvGrowthPct"` // Increase decreed for this year, in percent
	IPCGrowthPct   decimal.Decimal `yaml:"ipc_growth_pct" json:"ipcGrowthPct"`     // CPI variation of the previous year, in percent
}

// GrowthSelector picks which annual percentage compounds a projection
type GrowthSelector int

const (
	SMLMVOnly GrowthSelector = iota
	IPCOnly
	MaxOfSMLMVAndIPC
)

func (g GrowthSelector) String() string {
	switch g {
	case SMLMVOnly:
		return "smlmv"
	case IPCOnly:
		return "ipc"
	case MaxOfSMLMVAndIPC:
		return "max"
	default:
		return "unknown"
	}
}

// MarshalText lets selectors travel as names in YAML and JSON
func (g GrowthSelector) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText accepts the names produced by String
func (g *GrowthSelector) UnmarshalText(text []byte) error {
	parsed, err := ParseGrowthSelector(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGrowthSelector converts a CLI or config value into a GrowthSelector
func ParseGrowthSelector(s string) (GrowthSelector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smlmv", "smlmv_only":
		return SMLMVOnly, nil
	case "ipc", "ipc_only":
		return IPCOnly, nil
	case "max", "max_of_smlmv_and_ipc":
		return MaxOfSMLMVAndIPC, nil
	default:
		return SMLMVOnly, fmt.Errorf("unknown growth selector: %q", s)
	}
}
