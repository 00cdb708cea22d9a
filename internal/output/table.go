package output

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/money"
)

// TableFormatter renders a fixed-width console report with es-CO amounts
type TableFormatter struct {
	Assumptions bool // print DefaultAssumptions above the tables
}

func (TableFormatter) Name() string { return "table" }

// Format generates a console table for a liquidation
func (tf TableFormatter) Format(l *domain.Liquidation) (string, error) {
	var sb strings.Builder

	title := "LIQUIDACIÓN " + strings.ToUpper(l.Variant)
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", 100) + "\n")
	fmt.Fprintf(&sb, "Pensionado: %s  Documento: %s  ID: %s\n",
		l.Pensioner.EmployeeName, l.Pensioner.DocumentNumber, l.Pensioner.ID)

	if tf.Assumptions {
		sb.WriteString("\nSupuestos:\n")
		for _, a := range DefaultAssumptions {
			fmt.Fprintf(&sb, "  • %s\n", a)
		}
	}

	if len(l.Certificado) > 0 {
		writeCertificado(&sb, l.Certificado)
		writeNotes(&sb, l.Notes)
		return sb.String(), nil
	}

	writeSummary(&sb, l)

	if len(l.Split.BeforeSharing) > 0 {
		header := "ANTES DE LA COMPARTICIÓN"
		if l.Split.SharingDate == nil {
			header = "EVOLUCIÓN DE LA MESADA"
		}
		writeRows(&sb, header, l.Split.BeforeSharing)
	}
	if len(l.Split.AfterSharing) > 0 {
		writeRows(&sb, "DESPUÉS DE LA COMPARTICIÓN ("+formatDate(l.Split.SharingDate)+")", l.Split.AfterSharing)
	}
	if len(l.Antijuridico) > 0 {
		writeAntijuridico(&sb, l.Antijuridico)
	}
	writeNotes(&sb, l.Notes)

	return sb.String(), nil
}

func writeSummary(sb *strings.Builder, l *domain.Liquidation) {
	s := l.Summary
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%-32s %s\n", "Mesada pensional inicial:", money.Format(s.MesadaPensionalInicial))
	if s.FechaPrimeraMesada != nil {
		fmt.Fprintf(sb, "%-32s %s\n", "Fecha primera mesada:", formatDate(s.FechaPrimeraMesada))
	}
	fmt.Fprintf(sb, "%-32s %d - %d\n", "Periodo liquidado:", s.StartYear, s.EndYear)
	fmt.Fprintf(sb, "%-32s %s\n", "Índice de proyección:", s.Selector)
	fmt.Fprintf(sb, "%-32s %s\n", "Total general retroactivo:", money.Format(s.TotalGeneralRetroactivo))
	if len(l.Antijuridico) > 0 {
		fmt.Fprintf(sb, "%-32s %s\n", "Total daño antijurídico:", money.Format(l.TotalAntijuridico()))
	}
	if len(s.UnavailableYears) > 0 {
		years := make([]string, len(s.UnavailableYears))
		for i, y := range s.UnavailableYears {
			years[i] = fmt.Sprintf("%d", y)
		}
		fmt.Fprintf(sb, "%-32s %s\n", "Años sin mesada pagada:", strings.Join(years, ", "))
	}
}

func writeRows(sb *strings.Builder, title string, rows []domain.YearRow) {
	sb.WriteString("\n" + title + "\n")
	sb.WriteString(strings.Repeat("-", 100) + "\n")
	fmt.Fprintf(sb, "%-14s %16s %7s %18s %7s %7s %18s %7s %8s %18s %18s %4s %20s\n",
		"Periodo", "SMLMV", "% SMLMV", "Mesada SMLMV", "# SMLMV", "% IPC", "Mesada IPC", "# SMLMV", "% Pérd.",
		"Mesada pagable", "Diferencia", "#", "Retroactivo acum.")

	for _, r := range rows {
		payable := money.Format(r.Payable)
		if r.Unavailable {
			payable = "N/D"
		}
		fmt.Fprintf(sb, "%-14s %16s %7s %18s %7s %7s %18s %7s %8s %18s %18s %4d %20s\n",
			r.Period,
			money.Format(r.SMLMV),
			money.FormatPercent(r.SMLMVGrowthPct),
			money.Format(r.ProjectedMesadaBySMLMV),
			money.FormatPlain(r.SMLMVCountAtSMLMVProjection, 2),
			money.FormatPercent(r.IPCGrowthPct),
			money.Format(r.ProjectedMesadaByIPC),
			money.FormatPlain(r.SMLMVCountAtIPCProjection, 2),
			money.FormatPercent(r.PercentLossOfIPCProjection),
			payable,
			money.Format(r.MesadaDifference),
			r.MesadaCount,
			money.Format(r.CumulativeRetroactiveTotal),
		)
		if r.AfterSharing && (!r.EmployerShare.IsZero() || !r.ISSShare.IsZero()) {
			fmt.Fprintf(sb, "%-14s   empresa %s  ISS %s  a cargo de la empresa %s\n", "",
				money.Format(r.EmployerShare), money.Format(r.ISSShare), money.Format(r.EmployerDue))
		}
	}
}

func writeAntijuridico(sb *strings.Builder, rows []domain.AntijuridicoRow) {
	sb.WriteString("\nDAÑO ANTIJURÍDICO (TOPE SMLMV)\n")
	sb.WriteString(strings.Repeat("-", 100) + "\n")
	fmt.Fprintf(sb, "%-14s %18s %18s %18s %18s %4s %20s\n",
		"Periodo", "Tope", "Mesada proyectada", "Mesada topada", "Exceso", "#", "Exceso acum.")
	for _, a := range rows {
		fmt.Fprintf(sb, "%-14s %18s %18s %18s %18s %4d %20s\n",
			a.Period,
			money.Format(a.Cap),
			money.Format(a.ProjectedMesada),
			money.Format(a.CappedMesada),
			money.Format(a.Excess),
			a.MesadaCount,
			money.Format(a.CumulativeExcess),
		)
	}
}

func writeCertificado(sb *strings.Builder, rows []domain.CertificadoRow) {
	sb.WriteString("\nCERTIFICADO DE MESADAS PAGADAS\n")
	sb.WriteString(strings.Repeat("-", 100) + "\n")
	fmt.Fprintf(sb, "%-6s %-11s %18s %-11s %18s %16s %16s %8s %18s %-9s\n",
		"Año", "Primera", "Mesada inicial", "Última", "Mesada final", "Δ en el año", "Δ vs año ant.", "%", "Adicionales", "Quincenal")
	for _, r := range rows {
		biweekly := "no"
		if r.Biweekly {
			biweekly = "sí"
		}
		fmt.Fprintf(sb, "%-6d %-11s %18s %-11s %18s %16s %16s %8s %18s %-9s\n",
			r.Year,
			formatDate(r.FirstPaymentDate),
			money.Format(r.FirstMesada),
			formatDate(r.LastPaymentDate),
			money.Format(r.LastMesada),
			money.Format(r.IntraYearDelta),
			money.Format(r.YearOverYearDelta),
			money.FormatPercent(r.YearOverYearPct),
			money.Format(r.MesadaAdicional),
			biweekly,
		)
	}
}

func writeNotes(sb *strings.Builder, notes []string) {
	if len(notes) == 0 {
		return
	}
	sb.WriteString("\nNotas:\n")
	for _, n := range notes {
		fmt.Fprintf(sb, "  - %s\n", n)
	}
}
