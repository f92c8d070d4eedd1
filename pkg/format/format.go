// Package format renders calculator values as locale-aware strings.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/mathutil"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tag parses a locale code, falling back to the default locale when the code
// is empty or malformed.
func Tag(locale string) language.Tag {
	if strings.TrimSpace(locale) == "" {
		return language.Make(constants.DefaultLocale)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Make(constants.DefaultLocale)
	}
	return tag
}

// Printer returns a message printer for the locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Tag(locale))
}

// Number formats value with at most maxDecimals fraction digits, dropping
// trailing zeros, using the locale's grouping and decimal separators
// (e.g. "96.56", "1,234.5", "60").
func Number(locale string, value float64, maxDecimals int) string {
	if !mathutil.IsFinite(value) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	rounded := mathutil.RoundTo(value, maxDecimals)
	if rounded == 0 {
		rounded = 0 // drops the sign of negative zero
	}
	return Printer(locale).Sprintf(fmt.Sprintf("%%.%df", significantDecimals(rounded, maxDecimals)), rounded)
}

// Fixed formats value with exactly decimals fraction digits using the
// locale's separators (e.g. "1,234.50").
func Fixed(locale string, value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	rounded := mathutil.RoundTo(value, decimals)
	if rounded == 0 {
		rounded = 0
	}
	return Printer(locale).Sprintf(fmt.Sprintf("%%.%df", decimals), rounded)
}

// WithUnit formats value followed by a unit symbol, e.g. "0.64 ha".
func WithUnit(locale string, value float64, maxDecimals int, symbol string) string {
	number := Number(locale, value, maxDecimals)
	if symbol == "" {
		return number
	}
	return number + " " + symbol
}

// Percent formats value as a percentage, e.g. "12.5%".
func Percent(locale string, value float64, maxDecimals int) string {
	return Number(locale, value, maxDecimals) + "%"
}

// Currency formats amount with two decimals and the locale's narrow currency
// symbol in front, e.g. "-$1,234.56". An empty or unrecognised code uses the
// default currency.
func Currency(locale string, amount float64, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.MustParseISO(constants.DefaultCurrency)
	}
	symbol := Printer(locale).Sprint(currency.NarrowSymbol(unit))
	if symbol == unit.String() {
		// No symbol in the locale data; the ISO code stands alone.
		symbol += " "
	}

	formatted := Fixed(locale, math.Abs(amount), 2)
	if mathutil.Round(amount) < 0 {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// Template replaces {name} placeholders in tpl with the matching vars entry.
// Unknown placeholders are left untouched.
func Template(tpl string, vars map[string]string) string {
	if tpl == "" || len(vars) == 0 {
		return tpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

func significantDecimals(value float64, maxDecimals int) int {
	if maxDecimals <= 0 {
		return 0
	}
	s := strconv.FormatFloat(value, 'f', maxDecimals, 64)
	s = strings.TrimRight(s, "0")
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return len(s) - dot - 1
}
