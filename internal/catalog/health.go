package catalog

import (
	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/pkg/format"
	"github.com/iwvelando/calcsite/pkg/units"
)

// Healthy BMI range used for the weight range result.
const (
	bmiUnderweight = 18.5
	bmiOverweight  = 25.0
	bmiObese       = 30.0
)

// Mifflin-St Jeor sex constants.
const (
	bmrMaleOffset   = 5.0
	bmrFemaleOffset = -161.0
)

var activityFactors = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// measure reads a positive unit-aware input and converts it to the target
// unit of its type.
func measure(in calculator.Input, id string, t units.Type, fallback, target string) (float64, bool) {
	v, ok := in.Positive(id)
	if !ok {
		return 0, false
	}
	converted, err := units.Convert(v, t, in.Unit(id, fallback), target)
	if err != nil {
		return 0, false
	}
	return converted, true
}

func bmiCategory(value float64) string {
	switch {
	case value < bmiUnderweight:
		return "underweight"
	case value < bmiOverweight:
		return "normal"
	case value < bmiObese:
		return "overweight"
	default:
		return "obese"
	}
}

// bmi computes the body mass index from weight and height in any unit. The
// healthy weight range is reported in the unit the weight was entered in.
func bmi(cfg calculator.Config) calculator.Func {
	return func(in calculator.Input) calculator.Result {
		kg, ok := measure(in, "weight", units.Mass, "kg", "kg")
		if !ok {
			return calculator.Invalid()
		}
		m, ok := measure(in, "height", units.Length, "cm", "m")
		if !ok {
			return calculator.Invalid()
		}

		value := kg / (m * m)
		weightUnit, err := units.Lookup(units.Mass, in.Unit("weight", "kg"))
		if err != nil {
			return calculator.Invalid()
		}
		low := weightUnit.FromBase(bmiUnderweight * m * m)
		high := weightUnit.FromBase(bmiOverweight * m * m)
		category := bmiCategory(value)

		result := calculator.Result{
			Values: map[string]float64{
				"bmi":        value,
				"healthyMin": low,
				"healthyMax": high,
			},
			Formatted: map[string]string{
				"bmi":        format.Number(in.Locale, value, 1),
				"category":   in.Text(calculator.GroupMessages, category),
				"healthyMin": format.WithUnit(in.Locale, low, 1, symbol(in, weightUnit)),
				"healthyMax": format.WithUnit(in.Locale, high, 1, symbol(in, weightUnit)),
			},
			IsValid: true,
		}
		result.Summary = summary(in, result.Formatted)
		return result
	}
}

// bmr estimates the basal metabolic rate with the Mifflin-St Jeor equation
// and the daily energy need for the selected activity level.
func bmr(cfg calculator.Config) calculator.Func {
	return func(in calculator.Input) calculator.Result {
		kg, ok := measure(in, "weight", units.Mass, "kg", "kg")
		if !ok {
			return calculator.Invalid()
		}
		cm, ok := measure(in, "height", units.Length, "cm", "cm")
		if !ok {
			return calculator.Invalid()
		}
		age, ok := in.Positive("age")
		if !ok {
			return calculator.Invalid()
		}

		var offset float64
		switch in.Option("sex") {
		case "male":
			offset = bmrMaleOffset
		case "female":
			offset = bmrFemaleOffset
		default:
			return calculator.Invalid()
		}
		factor, ok := activityFactors[in.Option("activity")]
		if !ok {
			factor = activityFactors["sedentary"]
		}

		rate := 10*kg + 6.25*cm - 5*age + offset
		if rate <= 0 {
			return calculator.Invalid()
		}
		daily := rate * factor

		result := calculator.Result{
			Values: map[string]float64{
				"bmr":  rate,
				"tdee": daily,
			},
			Formatted: map[string]string{
				"bmr":  format.WithUnit(in.Locale, rate, 0, in.Text(calculator.GroupUnits, "kcalPerDay")),
				"tdee": format.WithUnit(in.Locale, daily, 0, in.Text(calculator.GroupUnits, "kcalPerDay")),
			},
			IsValid: true,
		}
		result.Summary = summary(in, result.Formatted)
		return result
	}
}
