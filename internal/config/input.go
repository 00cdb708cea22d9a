package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/liquidation"
	"github.com/rgehrsitz/mesada/internal/money"
	"github.com/rgehrsitz/mesada/internal/normalize"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CaseFile is the on-disk form of a case: the store documents of one
// pensioner plus optional run options
type CaseFile struct {
	domain.Case `yaml:",inline"`
	Options     liquidation.Options `yaml:"options"`
}

// InputParser handles parsing of case files
type InputParser struct {
	validate *validator.Validate
}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{validate: validator.New()}
}

// LoadFromFile loads a case from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*CaseFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates case YAML
func (ip *InputParser) Parse(data []byte) (*CaseFile, error) {
	var file CaseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateCase(&file.Case); err != nil {
		return nil, fmt.Errorf("case validation failed: %w", err)
	}
	if err := ip.ValidateOptions(&file.Options); err != nil {
		return nil, fmt.Errorf("options validation failed: %w", err)
	}
	return &file, nil
}

// ValidateCase validates the documents of a case
func (ip *InputParser) ValidateCase(c *domain.Case) error {
	if err := ip.structErrors(c); err != nil {
		return err
	}
	if strings.TrimSpace(c.Pensioner.ID) == "" {
		return fmt.Errorf("pensioner id is required")
	}

	for i, p := range c.Payments {
		if err := validatePayment(p); err != nil {
			return fmt.Errorf("payment %d (%d %q): %w", i, p.Year, p.PeriodLabel, err)
		}
	}
	for i, h := range c.Historical {
		if err := validateHistorical(h); err != nil {
			return fmt.Errorf("historical record %d (%d): %w", i, h.Year, err)
		}
	}
	for i, s := range c.Sharing {
		if err := validateSharing(s); err != nil {
			return fmt.Errorf("causante record %d (%s): %w", i, s.EffectiveFrom.Format("2006-01-02"), err)
		}
	}

	if len(c.Payments) == 0 && len(c.Historical) == 0 && len(c.Sharing) == 0 {
		return fmt.Errorf("case has no payment, historical or causante records")
	}
	return nil
}

// ValidateOptions validates run options
func (ip *InputParser) ValidateOptions(opts *liquidation.Options) error {
	if err := ip.structErrors(opts); err != nil {
		return err
	}
	return opts.Validate()
}

// structErrors runs tag validation and flattens the result into one error
// naming every offending field
func (ip *InputParser) structErrors(v interface{}) error {
	err := ip.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid fields: %s", strings.Join(msgs, "; "))
}

func validatePayment(p domain.PaymentRecord) error {
	if len(p.LineItems) == 0 {
		return fmt.Errorf("no line items")
	}
	for _, item := range p.LineItems {
		if item.Income.LessThan(decimal.Zero) {
			return fmt.Errorf("line item %s has negative income", item.Code)
		}
	}
	if start, err := normalize.ParsePeriodStart(p.PeriodLabel, p.Year); err == nil && start.Year() != p.Year {
		return fmt.Errorf("period starts in %d", start.Year())
	}
	return nil
}

func validateHistorical(h domain.HistoricalPayment) error {
	if strings.TrimSpace(h.ValueBefore) == "" && strings.TrimSpace(h.ValueAfter) == "" {
		return fmt.Errorf("no value before or after")
	}
	for _, raw := range []string{h.ValueBefore, h.ValueAfter} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := money.Parse(raw, money.LocaleAuto); err != nil {
			return err
		}
	}
	return nil
}

func validateSharing(s domain.SharingRecord) error {
	if s.EmployerShareValue.LessThan(decimal.Zero) || s.ISSShareValue.LessThan(decimal.Zero) {
		return fmt.Errorf("share values cannot be negative")
	}
	if s.Total().IsZero() {
		return fmt.Errorf("employer and ISS values are both zero")
	}
	return nil
}
