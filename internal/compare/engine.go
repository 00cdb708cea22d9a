package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/liquidation"
	"golang.org/x/sync/errgroup"
)

// Scenario is one named liquidation run inside a comparison
type Scenario struct {
	Name        string              `yaml:"name" json:"name"`
	Description string              `yaml:"description" json:"description"`
	Options     liquidation.Options `yaml:"options" json:"options"`
}

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	CalcEngine        *calculation.Engine
	Registry          *liquidation.Registry
	MetricsCalculator *MetricsCalculator
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calcEngine *calculation.Engine, registry *liquidation.Registry) *CompareEngine {
	if registry == nil {
		registry = liquidation.NewRegistry()
	}
	return &CompareEngine{
		CalcEngine:        calcEngine,
		Registry:          registry,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	Base         Scenario
	Alternatives []Scenario
}

// SelectorScenarios builds the three index scenarios (smlmv, ipc, max) for a
// variant, taking every other option from base. The first is the base.
func SelectorScenarios(base liquidation.Options) CompareOptions {
	mk := func(selector, description string) Scenario {
		opts := base
		opts.Selector = selector
		name := selector
		if opts.Variant != "" {
			name = opts.Variant + "_" + selector
		}
		return Scenario{Name: name, Description: description, Options: opts}
	}
	return CompareOptions{
		Base: mk("smlmv", "Proyección por variación del SMLMV"),
		Alternatives: []Scenario{
			mk("ipc", "Proyección por variación del IPC"),
			mk("max", "Proyección por el mayor entre SMLMV e IPC"),
		},
	}
}

// VariantScenarios builds one scenario per named variant. The first is the base.
func VariantScenarios(base liquidation.Options, variants ...string) (CompareOptions, error) {
	if len(variants) == 0 {
		return CompareOptions{}, fmt.Errorf("no variants to compare")
	}
	scenarios := make([]Scenario, len(variants))
	for i, v := range variants {
		opts := base
		opts.Variant = v
		scenarios[i] = Scenario{Name: v, Options: opts}
	}
	return CompareOptions{Base: scenarios[0], Alternatives: scenarios[1:]}, nil
}

// Compare runs every scenario over the case concurrently and measures the
// alternatives against the base
func (ce *CompareEngine) Compare(ctx context.Context, c *domain.Case, options CompareOptions) (*ComparisonSet, error) {
	scenarios := append([]Scenario{options.Base}, options.Alternatives...)
	liquidations := make([]*domain.Liquidation, len(scenarios))

	g, gCtx := errgroup.WithContext(ctx)
	for i, sc := range scenarios {
		g.Go(func() error {
			l, err := ce.Registry.Run(gCtx, ce.CalcEngine, c, sc.Options)
			if err != nil {
				if i == 0 {
					return fmt.Errorf("failed to calculate base scenario: %w", err)
				}
				return fmt.Errorf("failed to calculate scenario %s: %w", sc.Name, err)
			}
			liquidations[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseResult := ce.MetricsCalculator.CalculateMetrics(options.Base.Name, liquidations[0])
	baseResult.Description = options.Base.Description

	alternatives := []ComparisonResult{}
	for i, sc := range options.Alternatives {
		altResult := ce.MetricsCalculator.CalculateMetrics(sc.Name, liquidations[i+1])
		altResult.Description = sc.Description
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult)
		alternatives = append(alternatives, altResult)
	}

	compSet := &ComparisonSet{
		PensionerID:        c.Pensioner.ID,
		DocumentNumber:     c.Pensioner.DocumentNumber,
		BaseScenarioName:   options.Base.Name,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}

	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}
