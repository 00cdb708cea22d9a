package output

import (
	json "github.com/goccy/go-json"
	"github.com/rgehrsitz/mesada/internal/domain"
)

// JSONFormatter emits the liquidation as JSON. Amounts stay plain decimals.
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (JSONFormatter) Name() string { return "json" }

// Format generates JSON output for a liquidation
func (jf JSONFormatter) Format(l *domain.Liquidation) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(l, "", "  ")
	} else {
		data, err = json.Marshal(l)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
