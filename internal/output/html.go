package output

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/money"
)

// HTMLFormatter produces a printable HTML report
type HTMLFormatter struct {
	Assumptions bool // list DefaultAssumptions under the heading
}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/liquidation.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("liquidation").Funcs(template.FuncMap{
	"curr": money.Format,
	"pct":  money.FormatPercent,
	"date": formatDate,
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(l *domain.Liquidation) (string, error) {
	var buf bytes.Buffer
	data := struct {
		*domain.Liquidation
		Assumptions []string
	}{Liquidation: l}
	if h.Assumptions {
		data.Assumptions = DefaultAssumptions
	}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
