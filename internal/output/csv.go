package output

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/rgehrsitz/mesada/internal/domain"
)

// CSVFormatter writes one line per table row
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

// Format generates CSV output for a liquidation
func (cf CSVFormatter) Format(l *domain.Liquidation) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	var err error
	if len(l.Certificado) > 0 {
		err = cf.writeCertificado(writer, l.Certificado)
	} else {
		err = cf.writeRows(writer, l)
	}
	if err != nil {
		return "", err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (cf CSVFormatter) writeRows(writer *csv.Writer, l *domain.Liquidation) error {
	header := []string{
		"Section", "Period", "Year", "StartMonth", "EndMonth",
		"SMLMV", "SMLMVGrowthPct", "ProjectedMesadaBySMLMV", "SMLMVCountAtSMLMVProjection",
		"IPCGrowthPct", "ProjectedMesadaByIPC", "SMLMVCountAtIPCProjection",
		"PercentLossOfIPCProjection", "SMLMVLossOfIPCProjection",
		"MesadaActuallyPaid", "EmployerShare", "ISSShare", "Payable", "Unavailable", "EmployerDue",
		"MesadaDifference", "MesadaCount", "RetroactiveSubtotal", "CumulativeRetroactiveTotal",
	}
	if len(l.Antijuridico) > 0 {
		header = append(header, "Cap", "Excess", "ExcessSubtotal", "CumulativeExcess")
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	i := 0
	write := func(section string, rows []domain.YearRow) error {
		for _, r := range rows {
			record := []string{
				section, r.Period, formatInt(r.Year), formatInt(r.StartMonth), formatInt(r.EndMonth),
				r.SMLMV.StringFixed(2), r.SMLMVGrowthPct.StringFixed(2),
				r.ProjectedMesadaBySMLMV.StringFixed(2), r.SMLMVCountAtSMLMVProjection.StringFixed(4),
				r.IPCGrowthPct.StringFixed(2), r.ProjectedMesadaByIPC.StringFixed(2), r.SMLMVCountAtIPCProjection.StringFixed(4),
				r.PercentLossOfIPCProjection.StringFixed(2), r.SMLMVLossOfIPCProjection.StringFixed(4),
				r.MesadaActuallyPaid.StringFixed(2), r.EmployerShare.StringFixed(2), r.ISSShare.StringFixed(2),
				r.Payable.StringFixed(2), fmt.Sprintf("%t", r.Unavailable), r.EmployerDue.StringFixed(2),
				r.MesadaDifference.StringFixed(2), formatInt(r.MesadaCount),
				r.RetroactiveSubtotal.StringFixed(2), r.CumulativeRetroactiveTotal.StringFixed(2),
			}
			switch {
			case i < len(l.Antijuridico):
				a := l.Antijuridico[i]
				record = append(record, a.Cap.StringFixed(2), a.Excess.StringFixed(2),
					a.ExcessSubtotal.StringFixed(2), a.CumulativeExcess.StringFixed(2))
			case len(l.Antijuridico) > 0:
				record = append(record, "", "", "", "")
			}
			i++
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write("before", l.Split.BeforeSharing); err != nil {
		return err
	}
	return write("after", l.Split.AfterSharing)
}

func (cf CSVFormatter) writeCertificado(writer *csv.Writer, rows []domain.CertificadoRow) error {
	header := []string{
		"Year", "FirstPaymentDate", "FirstMesada", "LastPaymentDate", "LastMesada",
		"IntraYearDelta", "YearOverYearDelta", "YearOverYearPct", "MesadaAdicional", "Biweekly",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			formatInt(r.Year), formatDate(r.FirstPaymentDate), r.FirstMesada.StringFixed(2),
			formatDate(r.LastPaymentDate), r.LastMesada.StringFixed(2),
			r.IntraYearDelta.StringFixed(2), r.YearOverYearDelta.StringFixed(2), r.YearOverYearPct.StringFixed(2),
			r.MesadaAdicional.StringFixed(2), fmt.Sprintf("%t", r.Biweekly),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
