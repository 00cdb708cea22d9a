package compare

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Variant",
		"Selector",
		"Total Retroactive",
		"Initial Mesada",
		"Final Projected Mesada",
		"Final IPC Mesada",
		"Final % Loss",
		"Total Antijuridico",
		"Unavailable Years",
		"Retroactive Diff from Base",
		"Retroactive % Change",
		"Final Mesada Diff from Base",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		result.Variant,
		result.Selector,
		result.TotalRetroactive.StringFixed(2),
		result.InitialMesada.StringFixed(2),
		result.FinalProjectedMesada.StringFixed(2),
		result.FinalIPCMesada.StringFixed(2),
		result.FinalPercentLoss.StringFixed(2),
		result.TotalAntijuridico.StringFixed(2),
		formatInt(result.UnavailableYears),
		result.RetroactiveDiffFromBase.StringFixed(2),
		result.RetroactivePctFromBase.StringFixed(2),
		result.FinalMesadaDiffFromBase.StringFixed(2),
	}
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
