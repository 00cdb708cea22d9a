package compare

import (
	"fmt"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/money"
	"github.com/shopspring/decimal"
)

// ComparisonResult represents a single liquidation scenario with calculated metrics
type ComparisonResult struct {
	ScenarioName string              `json:"scenarioName"`
	Description  string              `json:"description"`
	Variant      string              `json:"variant"`
	Selector     string              `json:"selector"`
	Liquidation  *domain.Liquidation `json:"-"`

	// Key Metrics
	TotalRetroactive     decimal.Decimal `json:"totalRetroactive"`
	InitialMesada        decimal.Decimal `json:"initialMesada"`
	FinalProjectedMesada decimal.Decimal `json:"finalProjectedMesada"` // last row, selector projection
	FinalIPCMesada       decimal.Decimal `json:"finalIpcMesada"`
	FinalPercentLoss     decimal.Decimal `json:"finalPercentLoss"`
	TotalAntijuridico    decimal.Decimal `json:"totalAntijuridico"`
	UnavailableYears     int             `json:"unavailableYears"`

	// Comparison to Base
	RetroactiveDiffFromBase decimal.Decimal `json:"retroactiveDiffFromBase"`
	RetroactivePctFromBase  decimal.Decimal `json:"retroactivePctFromBase"`
	FinalMesadaDiffFromBase decimal.Decimal `json:"finalMesadaDiffFromBase"`
}

// ComparisonSet represents a collection of scenario comparisons over one case
type ComparisonSet struct {
	PensionerID        string             `json:"pensionerId"`
	DocumentNumber     string             `json:"documentNumber"`
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
}

// MetricsCalculator extracts key metrics from liquidations
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes all comparison metrics for a liquidation
func (mc *MetricsCalculator) CalculateMetrics(name string, l *domain.Liquidation) ComparisonResult {
	result := ComparisonResult{
		ScenarioName:      name,
		Variant:           l.Variant,
		Selector:          l.Summary.Selector.String(),
		Liquidation:       l,
		TotalRetroactive:  l.Summary.TotalGeneralRetroactivo,
		InitialMesada:     l.Summary.MesadaPensionalInicial,
		TotalAntijuridico: l.TotalAntijuridico(),
		UnavailableYears:  len(l.Summary.UnavailableYears),
	}

	rows := l.Rows()
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		result.FinalProjectedMesada = last.ProjectedMesadaBySMLMV
		result.FinalIPCMesada = last.ProjectedMesadaByIPC
		result.FinalPercentLoss = last.PercentLossOfIPCProjection
	}

	return result
}

// CalculateComparison computes comparison metrics between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.RetroactiveDiffFromBase = scenario.TotalRetroactive.Sub(base.TotalRetroactive)

	if !base.TotalRetroactive.IsZero() {
		scenario.RetroactivePctFromBase = scenario.RetroactiveDiffFromBase.
			Div(base.TotalRetroactive).
			Mul(decimal.NewFromInt(100))
	}

	scenario.FinalMesadaDiffFromBase = scenario.FinalProjectedMesada.Sub(base.FinalProjectedMesada)

	return scenario
}

// GenerateRecommendations points out the scenario with the largest retroactive
// and any scenario whose payable side could not be fully resolved
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}

	best := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.TotalRetroactive.GreaterThan(best.TotalRetroactive) {
			best = alt
		}
	}

	if best != compSet.BaseResult {
		diff := best.TotalRetroactive.Sub(compSet.BaseResult.TotalRetroactive)
		recommendations = append(recommendations,
			"Mayor retroactivo: "+best.ScenarioName+" reconoce "+money.Format(diff)+
				" más que "+compSet.BaseResult.ScenarioName)
	} else {
		recommendations = append(recommendations,
			"Mayor retroactivo: el escenario base "+compSet.BaseResult.ScenarioName)
	}

	all := append([]ComparisonResult{*compSet.BaseResult}, compSet.AlternativeResults...)
	for _, r := range all {
		if r.UnavailableYears > 0 {
			recommendations = append(recommendations,
				fmt.Sprintf("Revisar %s: %d periodo(s) sin mesada pagada", r.ScenarioName, r.UnavailableYears))
		}
		if r.TotalAntijuridico.IsPositive() {
			recommendations = append(recommendations,
				"Daño antijurídico en "+r.ScenarioName+": "+money.Format(r.TotalAntijuridico))
		}
	}

	return recommendations
}
