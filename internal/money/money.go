// Package money centralises how currency strings coming from payroll exports
// and legacy snapshots are turned into decimals, and how decimals are shown to
// people. Locale contract:
//
//	LocaleCO   "1.078.300,50"  dot groups thousands, comma marks decimals
//	LocaleUS   "1,078,300.50"  comma groups thousands, dot marks decimals
//	LocaleAuto infers the separators from the string itself
//
// Currency symbols ("$", "COP"), spaces and non-breaking spaces are ignored.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale selects the separator convention used by Parse
type Locale int

const (
	LocaleAuto Locale = iota
	LocaleCO
	LocaleUS
)

func (l Locale) String() string {
	switch l {
	case LocaleCO:
		return "es-CO"
	case LocaleUS:
		return "en-US"
	default:
		return "auto"
	}
}

// ParseLocale converts a flag or config value into a Locale
func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LocaleAuto, nil
	case "es-co", "co", "es":
		return LocaleCO, nil
	case "en-us", "us", "en":
		return LocaleUS, nil
	default:
		return LocaleAuto, fmt.Errorf("unknown locale: %q", s)
	}
}

// ErrUnparseable is returned when a string does not hold a currency amount
var ErrUnparseable = errors.New("unparseable currency value")

// Parse converts a locale-formatted currency string into a decimal
func Parse(s string, locale Locale) (decimal.Decimal, error) {
	cleaned, negative := clean(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}

	var normalized string
	switch locale {
	case LocaleCO:
		normalized = normalize(cleaned, '.', ',')
	case LocaleUS:
		normalized = normalize(cleaned, ',', '.')
	default:
		group, dec := inferSeparators(cleaned)
		normalized = normalize(cleaned, group, dec)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseOrZero returns the parsed value and whether parsing succeeded
func ParseOrZero(s string, locale Locale) (decimal.Decimal, bool) {
	d, err := Parse(s, locale)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func clean(s string) (string, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("COP", "", "cop", "", "$", "", " ", "", "\u00a0", "").Replace(s)
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return "", false
		}
	}
	return s, negative
}

// inferSeparators guesses which rune groups thousands and which marks decimals.
// When both appear the rightmost one is the decimal mark. A lone separator
// followed by exactly three digits is read as a thousands separator, which is
// how the payroll exports write whole pesos.
func inferSeparators(s string) (group, dec rune) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return '.', ','
		}
		return ',', '.'
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			return ',', '.'
		}
		return '.', ','
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			return '.', ','
		}
		return ',', '.'
	default:
		return ',', '.'
	}
}

func normalize(s string, group, dec rune) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case group:
			continue
		case dec:
			b.WriteRune('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var printerCO = message.NewPrinter(language.MustParse("es-CO"))

// Format renders an amount with es-CO grouping and two decimals, prefixed with "$"
func Format(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return "$ " + printerCO.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatPlain renders an amount with es-CO grouping and no currency symbol
func FormatPlain(d decimal.Decimal, scale int) string {
	f, _ := d.Round(int32(scale)).Float64()
	return printerCO.Sprint(number.Decimal(f, number.Scale(scale)))
}

// FormatPercent renders a percentage value (already multiplied by 100)
func FormatPercent(d decimal.Decimal) string {
	return FormatPlain(d, 2) + "%"
}
