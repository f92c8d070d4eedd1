package format

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name        string
		locale      string
		value       float64
		maxDecimals int
		expected    string
	}{
		{"Rounds to two decimals", "en", 96.56064, 2, "96.56"},
		{"Whole number drops fraction", "en", 60, 2, "60"},
		{"Trailing zero trimmed", "en", 5.10, 2, "5.1"},
		{"Small value", "en", 0.64, 2, "0.64"},
		{"Grouping separator", "en", 1234.567, 2, "1,234.57"},
		{"Negative value", "en", -12.5, 1, "-12.5"},
		{"Negative zero", "en", -0.001, 2, "0"},
		{"Zero decimals", "en", 12.65, 0, "13"},
		{"Spanish decimal comma", "es", 5.12, 2, "5,12"},
		{"Unknown locale falls back", "zz-invalid-@@", 0.64, 2, "0.64"},
		{"Empty locale falls back", "", 12.6518, 2, "12.65"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Number(tt.locale, tt.value, tt.maxDecimals))
		})
	}
}

func TestNumberNonFinite(t *testing.T) {
	assert.Equal(t, "NaN", Number("en", math.NaN(), 2))
	assert.Equal(t, "+Inf", Number("en", math.Inf(1), 2))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "1,234.50", Fixed("en", 1234.5, 2))
	assert.Equal(t, "0.00", Fixed("en", -0.001, 2))
	assert.Equal(t, "7", Fixed("en", 7.2, -1))
}

func TestWithUnit(t *testing.T) {
	assert.Equal(t, "0.64 ha", WithUnit("en", 0.64, 2, "ha"))
	assert.Equal(t, "96.56 km/h", WithUnit("en", 96.56064, 2, "km/h"))
	assert.Equal(t, "3", WithUnit("en", 3, 2, ""))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.5%", Percent("en", 12.5, 2))
	assert.Equal(t, "33.33%", Percent("en", 100.0/3.0, 2))
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		code     string
		expected string
	}{
		{"Positive dollars", 1234.56, "USD", "$1,234.56"},
		{"Negative dollars", -1234.56, "USD", "-$1,234.56"},
		{"Euro", 99.5, "eur", "€99.50"},
		{"Unknown code defaults to dollars", 10, "not-a-code", "$10.00"},
		{"Empty code defaults to dollars", 0, "", "$0.00"},
		{"Code without symbol", 10, "CHF", "CHF 10.00"},
		{"Rounded negative zero is positive", -0.001, "USD", "$0.00"},
		{"Pound", 5, "GBP", "£5.00"},
		{"Yen", 1200, "JPY", "¥1,200.00"},
		{"Indian rupee", 75, "INR", "₹75.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Currency("en", tt.amount, tt.code))
		})
	}
}

func TestCurrencyLocalized(t *testing.T) {
	assert.Equal(t, "$12.345,50", Currency("es", 12345.5, "USD"))
	assert.Equal(t, "€99,50", Currency("es", 99.5, "EUR"))
}

func TestNumberLargeFinite(t *testing.T) {
	out := Number("en", 1e305, 2)
	assert.NotContains(t, out, "∞")
	assert.NotContains(t, out, "Inf")
	assert.True(t, strings.HasPrefix(out, "1"), out)
}

func TestTemplate(t *testing.T) {
	got := Template("{amount} {from} = {result} {to}", map[string]string{
		"amount": "60",
		"from":   "mph",
		"result": "96.56",
		"to":     "km/h",
	})
	assert.Equal(t, "60 mph = 96.56 km/h", got)

	assert.Equal(t, "keep {unknown}", Template("keep {unknown}", map[string]string{"x": "y"}))
	assert.Equal(t, "", Template("", map[string]string{"x": "y"}))
	assert.Equal(t, "no vars", Template("no vars", nil))
}

func TestTag(t *testing.T) {
	assert.Equal(t, "en", Tag("").String())
	assert.Equal(t, "es", Tag("es").String())
	assert.Equal(t, "en", Tag("###").String())
}
