package compare

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/mesada/internal/money"
	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing scenarios
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("COMPARACIÓN DE LIQUIDACIONES\n")
	sb.WriteString(strings.Repeat("=", 96) + "\n")
	sb.WriteString(fmt.Sprintf("Escenario base: %s\n", compSet.BaseScenarioName))
	sb.WriteString(fmt.Sprintf("Pensionado: %s (documento %s)\n", compSet.PensionerID, compSet.DocumentNumber))
	sb.WriteString("\n")

	nameWidth := 24
	numWidth := 22

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s\n",
		nameWidth, "Escenario",
		numWidth, "Retroactivo",
		numWidth, "Mesada final",
		numWidth, "Daño antijurídico"))
	sb.WriteString(strings.Repeat("-", 96) + "\n")

	if compSet.BaseResult != nil {
		sb.WriteString(tf.formatRow(compSet.BaseResult, nameWidth, numWidth, true))
	}

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 96) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 96) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nFRENTE AL ESCENARIO BASE\n")
		sb.WriteString(strings.Repeat("-", 96) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.ScenarioName))
			sb.WriteString(fmt.Sprintf("  Retroactivo:   %s%s (%s%%)\n",
				tf.deltaSymbol(alt.RetroactiveDiffFromBase),
				money.Format(alt.RetroactiveDiffFromBase.Abs()),
				alt.RetroactivePctFromBase.StringFixed(1)))
			if !alt.FinalMesadaDiffFromBase.IsZero() {
				sb.WriteString(fmt.Sprintf("  Mesada final:  %s%s\n",
					tf.deltaSymbol(alt.FinalMesadaDiffFromBase),
					money.Format(alt.FinalMesadaDiffFromBase.Abs())))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nOBSERVACIONES\n")
		sb.WriteString(strings.Repeat("-", 96) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single scenario row
func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.ScenarioName
	if isBase {
		name += " (base)"
	}

	return fmt.Sprintf("%-*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		numWidth, money.Format(result.TotalRetroactive),
		numWidth, money.Format(result.FinalProjectedMesada),
		numWidth, money.Format(result.TotalAntijuridico))
}

// deltaSymbol returns the sign prefix for a delta
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	} else if delta.IsNegative() {
		return "-"
	}
	return " "
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary for each scenario
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BaseScenarioName))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if !alt.RetroactiveDiffFromBase.IsZero() {
			change = tf.deltaSymbol(alt.RetroactiveDiffFromBase) + money.Format(alt.RetroactiveDiffFromBase.Abs())
		}

		sb.WriteString(fmt.Sprintf("%s: %s", alt.ScenarioName, change))
	}

	return sb.String()
}
