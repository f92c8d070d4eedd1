package catalog

import (
	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/pkg/format"
	"github.com/iwvelando/calcsite/pkg/mathutil"
)

// Percentage modes.
const (
	modeOf          = "of"
	modeWhatPercent = "whatPercent"
	modeChange      = "change"
)

// percentage answers three questions about x and y: what is x% of y, what
// percent of y is x, and the change from x to y.
func percentage(cfg calculator.Config) calculator.Func {
	return func(in calculator.Input) calculator.Result {
		x, ok := in.Number("x")
		if !ok {
			return calculator.Invalid()
		}
		y, ok := in.Number("y")
		if !ok {
			return calculator.Invalid()
		}

		mode := in.Option("mode")
		if mode == "" {
			mode = modeOf
		}

		var value float64
		var formatted string
		switch mode {
		case modeOf:
			value = mathutil.ApplyPercentage(y, x)
			formatted = format.Number(in.Locale, value, 4)
		case modeWhatPercent:
			if y == 0 {
				return calculator.Invalid()
			}
			value = mathutil.CalculatePercentage(x, y)
			formatted = format.Percent(in.Locale, value, 2)
		case modeChange:
			if x == 0 {
				return calculator.Invalid()
			}
			value = mathutil.PercentChange(x, y)
			formatted = format.Percent(in.Locale, value, 2)
		default:
			return calculator.Invalid()
		}

		result := calculator.Result{
			Values:    map[string]float64{"result": value},
			Formatted: map[string]string{"result": formatted},
			IsValid:   true,
		}
		result.Summary = format.Template(in.T[calculator.GroupMessages][mode], map[string]string{
			"x":      format.Number(in.Locale, x, 4),
			"y":      format.Number(in.Locale, y, 4),
			"result": formatted,
		})
		return result
	}
}
