package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertKnownValues(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unitType Type
		from     string
		to       string
		expected float64
	}{
		{"mph to km/h", 60, Speed, "mph", "kmh", 96.56064},
		{"US gallons to liters", 15, Volume, "gal_us", "l", 56.78117676},
		{"fanegadas to hectares", 8, Area, "fan", "ha", 5.12},
		{"one fanegada to hectares", 1, Area, "fan", "ha", 0.64},
		{"fanegadas to acres", 8, Area, "fan", "ac", 12.651796},
		{"feet to meters", 10, Length, "ft", "m", 3.048},
		{"pounds to kilograms", 2.2, Mass, "lb", "kg", 0.997903214},
		{"boiling point to fahrenheit", 100, Temperature, "c", "f", 212},
		{"freezing point to celsius", 32, Temperature, "f", "c", 0},
		{"absolute zero to celsius", 0, Temperature, "k", "c", -273.15},
		{"same unit", 7.5, Length, "m", "m", 7.5},
		{"kibibytes to bytes", 1, Data, "kib", "b", 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.unitType, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-6)
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	values := []float64{0.001, 1, 8, 60, 12345.678}
	for _, unitType := range Types() {
		list := Units(unitType)
		for _, a := range list {
			for _, b := range list {
				for _, x := range values {
					there, err := Convert(x, unitType, a.ID, b.ID)
					require.NoError(t, err)
					back, err := Convert(there, unitType, b.ID, a.ID)
					require.NoError(t, err)
					tolerance := 1e-9 * math.Max(1, math.Abs(x))
					assert.InDeltaf(t, x, back, tolerance, "%s: %v %s -> %s -> %s", unitType, x, a.ID, b.ID, a.ID)
				}
			}
		}
	}
}

func TestFanegadaFactor(t *testing.T) {
	hectares, err := Convert(1, Area, "fan", "ha")
	require.NoError(t, err)
	assert.InDelta(t, 0.64, hectares, 1e-12)

	fan, err := Convert(hectares, Area, "ha", "fan")
	require.NoError(t, err)
	assert.InDelta(t, 1, fan, 1e-9)
}

func TestConvertUnknown(t *testing.T) {
	_, err := Convert(1, Speed, "warp", "kmh")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Convert(1, Speed, "kmh", "ha")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Convert(1, Type("luminosity"), "cd", "cd")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestBaseHelpers(t *testing.T) {
	base, err := ToBase(2, Length, "km")
	require.NoError(t, err)
	assert.Equal(t, 2000.0, base)

	miles, err := FromBase(base, Length, "mi")
	require.NoError(t, err)
	assert.InDelta(t, 1.242742, miles, 1e-6)

	_, err = ToBase(1, Length, "parsec")
	assert.ErrorIs(t, err, ErrUnknownUnit)
	_, err = FromBase(1, Length, "parsec")
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestUnitsOrderedBySize(t *testing.T) {
	list := Units(Length)
	require.NotEmpty(t, list)
	assert.Equal(t, "mm", list[0].ID)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Factor, list[i].Factor)
	}

	assert.Empty(t, Units(Type("nope")))
}

func TestTypesSorted(t *testing.T) {
	types := Types()
	assert.Contains(t, types, Area)
	assert.Contains(t, types, Temperature)
	for i := 1; i < len(types); i++ {
		assert.Less(t, string(types[i-1]), string(types[i]))
	}
}

func TestAttainable(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unitType Type
		from     string
		expected bool
	}{
		{"Freezing point", 0, Temperature, "c", true},
		{"Absolute zero in kelvin", 0, Temperature, "k", true},
		{"Absolute zero in fahrenheit", -459.67, Temperature, "f", true},
		{"Below absolute zero in celsius", -300, Temperature, "c", false},
		{"Negative kelvin", -5, Temperature, "k", false},
		{"Below absolute zero in fahrenheit", -460, Temperature, "f", false},
		{"Types without a floor", -10, Length, "m", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := ToBase(tt.value, tt.unitType, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Attainable(tt.unitType, base))
		})
	}
}
