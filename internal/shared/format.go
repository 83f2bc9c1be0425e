package shared

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is rendered wherever a value is absent or not a number.
const Placeholder = "-"

var esAR = message.NewPrinter(language.MustParse("es-AR"))

var spanishMonths = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

// FormatCurrency renders an ARS amount without decimals, es-AR grouping.
func FormatCurrency(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	return esAR.Sprintf("$ %v", number.Decimal(*v, number.MaxFractionDigits(0)))
}

// FormatNumber renders an integer-rounded quantity with es-AR grouping.
func FormatNumber(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	return esAR.Sprintf("%v", number.Decimal(*v, number.MaxFractionDigits(0)))
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// FormatDate renders an ISO date or datetime in the dashboard's short style,
// e.g. "15 ene 2024" or "15 ene 2024 10:30" when a time component is present.
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Placeholder
	}
	withTime := strings.Contains(value, "T")
	layout := "2006-01-02"
	if withTime {
		layout = "2006-01-02T15:04:05"
		if len(value) > len(layout) {
			value = value[:len(layout)]
		}
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return Placeholder
	}
	base := fmt.Sprintf("%d %s %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
	if withTime {
		return fmt.Sprintf("%s %02d:%02d", base, t.Hour(), t.Minute())
	}
	return base
}

// Float returns a pointer to v, for optional metric values.
func Float(v float64) *float64 {
	return &v
}
