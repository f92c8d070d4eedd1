// Package finance provides compound growth calculations for savings and
// investment calculators.
package finance

import (
	"math"

	"github.com/iwvelando/calcsite/pkg/constants"
)

const percentDivisor = 100.0

func percentToDecimal(percent float64) float64 {
	return percent / percentDivisor
}

// Compounding frequencies in periods per year.
var Compounding = map[string]int{
	"annually":  1,
	"quarterly": 4,
	"monthly":   12,
	"daily":     365,
}

// Plan describes a savings plan. Rates are annual percentages and the
// contribution is deposited every month.
type Plan struct {
	Principal           float64
	MonthlyContribution float64
	AnnualReturnRate    float64
	TaxRate             float64
	Years               int
	PeriodsPerYear      int
}

// YearBalance captures the state of a plan at the end of one year.
type YearBalance struct {
	Year          int
	Contributions float64
	Growth        float64
	Tax           float64
	Balance       float64
}

// Project simulates the plan period by period and returns one entry per
// year. Contributions land at the start of each period and growth is taxed
// when positive, as an investment account would be.
func Project(plan Plan) []YearBalance {
	if plan.Years <= 0 {
		return nil
	}
	periods := plan.PeriodsPerYear
	if periods <= 0 {
		periods = constants.MonthsPerYear
	}

	periodicRate := percentToDecimal(plan.AnnualReturnRate) / float64(periods)
	contributionPerPeriod := plan.MonthlyContribution * constants.MonthsPerYear / float64(periods)

	balance := plan.Principal
	years := make([]YearBalance, 0, plan.Years)
	for year := 1; year <= plan.Years; year++ {
		current := YearBalance{Year: year}
		for p := 0; p < periods; p++ {
			balance += contributionPerPeriod
			current.Contributions += contributionPerPeriod

			growth := balance * periodicRate
			tax := 0.0
			if growth > 0 && plan.TaxRate > 0 {
				tax = growth * percentToDecimal(plan.TaxRate)
			}
			balance += growth - tax
			current.Growth += growth
			current.Tax += tax
		}
		current.Balance = balance
		years = append(years, current)
	}
	return years
}

// FutureValue is the closed-form balance of a lump sum compounded
// periodsPerYear times a year, with no contributions or tax.
func FutureValue(principal, annualRate float64, years, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		periodsPerYear = 1
	}
	rate := percentToDecimal(annualRate) / float64(periodsPerYear)
	return principal * math.Pow(1+rate, float64(years*periodsPerYear))
}
