package catalog

import (
	"math"

	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/finance"
	"github.com/iwvelando/calcsite/pkg/format"
	"github.com/iwvelando/calcsite/pkg/loans"
	"github.com/iwvelando/calcsite/pkg/mathutil"
)

// summary renders the locale's summary template.
func summary(in calculator.Input, vars map[string]string) string {
	return format.Template(in.T[calculator.GroupText]["summary"], vars)
}

// optional returns a numeric input or zero when it is absent.
func optional(in calculator.Input, id string) float64 {
	v, _ := in.Number(id)
	return v
}

// loanPayment amortizes a fixed-rate loan. Inputs: principal, downPayment,
// rate (annual %), termYears and extraPrincipal (monthly).
func loanPayment(cfg calculator.Config) calculator.Func {
	return func(in calculator.Input) calculator.Result {
		required, ok := calculator.RequirePositive(in, "principal", "termYears")
		if !ok {
			return calculator.Invalid()
		}
		rate, ok := in.Number("rate")
		if !ok || rate < 0 {
			return calculator.Invalid()
		}

		loan := loans.Loan{
			Principal:      required["principal"],
			DownPayment:    optional(in, "downPayment"),
			InterestRate:   rate,
			Term:           int(math.Round(required["termYears"] * constants.MonthsPerYear)),
			ExtraPrincipal: optional(in, "extraPrincipal"),
		}
		schedule := loans.Schedule(loan)
		if len(schedule) == 0 {
			return calculator.Invalid()
		}
		monthly := loans.CalculateMonthlyPayment(loan.Principal, loan.DownPayment, loan.InterestRate, loan.Term)
		paid, interest := loans.Totals(schedule)
		months := float64(len(schedule))

		money := func(v float64) string { return format.Currency(in.Locale, v, cfg.Currency) }
		result := calculator.Result{
			Values: map[string]float64{
				"monthlyPayment": monthly + math.Max(loan.ExtraPrincipal, 0),
				"loanAmount":     loan.Amount(),
				"totalPaid":      paid,
				"totalInterest":  interest,
				"payoffMonths":   months,
			},
			IsValid: true,
		}
		result.Formatted = map[string]string{
			"monthlyPayment": money(result.Values["monthlyPayment"]),
			"loanAmount":     money(loan.Amount()),
			"totalPaid":      money(paid),
			"totalInterest":  money(interest),
			"payoffMonths":   format.Number(in.Locale, months, 0),
		}
		result.Summary = summary(in, result.Formatted)

		rows := make([]map[string]any, 0, len(schedule)/constants.MonthsPerYear+1)
		for _, year := range loans.Yearly(schedule) {
			rows = append(rows, map[string]any{
				"year":      year.Year,
				"principal": mathutil.Round(year.Principal),
				"interest":  mathutil.Round(year.Interest),
				"balance":   mathutil.Round(year.RemainingPrincipal),
			})
		}
		result.Metadata = &calculator.Metadata{TableData: rows}
		return result
	}
}

// compoundInterest projects a savings plan. Inputs: principal,
// monthlyContribution, rate (annual %), years, compounding and taxRate.
// The projection is yearly, so years must be a whole number.
func compoundInterest(cfg calculator.Config) calculator.Func {
	return func(in calculator.Input) calculator.Result {
		principal, ok := in.Positive("principal")
		if !ok {
			return calculator.Invalid()
		}
		years, ok := in.Positive("years")
		if !ok || years != math.Trunc(years) {
			return calculator.Invalid()
		}
		rate, ok := in.Number("rate")
		if !ok {
			return calculator.Invalid()
		}
		periods, ok := finance.Compounding[in.Option("compounding")]
		if !ok {
			periods = constants.MonthsPerYear
		}

		plan := finance.Plan{
			Principal:           principal,
			MonthlyContribution: math.Max(optional(in, "monthlyContribution"), 0),
			AnnualReturnRate:    rate,
			TaxRate:             math.Max(optional(in, "taxRate"), 0),
			Years:               int(years),
			PeriodsPerYear:      periods,
		}
		projection := finance.Project(plan)
		if len(projection) == 0 {
			return calculator.Invalid()
		}

		contributions := plan.Principal
		var growth, tax float64
		rows := make([]map[string]any, 0, len(projection))
		for _, year := range projection {
			contributions += year.Contributions
			growth += year.Growth
			tax += year.Tax
			rows = append(rows, map[string]any{
				"year":          year.Year,
				"contributions": mathutil.Round(contributions),
				"interest":      mathutil.Round(growth - tax),
				"balance":       mathutil.Round(year.Balance),
			})
		}
		final := projection[len(projection)-1].Balance

		money := func(v float64) string { return format.Currency(in.Locale, v, cfg.Currency) }
		result := calculator.Result{
			Values: map[string]float64{
				"finalBalance":       final,
				"totalContributions": contributions,
				"totalInterest":      growth - tax,
				"totalTax":           tax,
			},
			IsValid:  true,
			Metadata: &calculator.Metadata{TableData: rows},
		}
		result.Formatted = map[string]string{
			"finalBalance":       money(final),
			"totalContributions": money(contributions),
			"totalInterest":      money(growth - tax),
			"totalTax":           money(tax),
		}
		vars := map[string]string{"years": format.Number(in.Locale, float64(plan.Years), 0)}
		for k, v := range result.Formatted {
			vars[k] = v
		}
		result.Summary = summary(in, vars)
		return result
	}
}

// tip splits a bill. Inputs: bill, tipPercent and people.
func tip(cfg calculator.Config) calculator.Func {
	return func(in calculator.Input) calculator.Result {
		bill, ok := in.Positive("bill")
		if !ok {
			return calculator.Invalid()
		}
		percent, ok := in.Number("tipPercent")
		if !ok || percent < 0 {
			return calculator.Invalid()
		}
		people := 1.0
		if n, ok := in.Number("people"); ok {
			people = math.Floor(n)
		}
		if people < 1 {
			return calculator.Invalid()
		}

		tipAmount := mathutil.ApplyPercentage(bill, percent)
		total := bill + tipAmount
		perPerson := total / people

		money := func(v float64) string { return format.Currency(in.Locale, v, cfg.Currency) }
		result := calculator.Result{
			Values: map[string]float64{
				"tip":       tipAmount,
				"total":     total,
				"perPerson": perPerson,
			},
			Formatted: map[string]string{
				"tip":       money(tipAmount),
				"total":     money(total),
				"perPerson": money(perPerson),
			},
			IsValid: true,
		}
		vars := map[string]string{
			"tipPercent": format.Percent(in.Locale, percent, 2),
			"people":     format.Number(in.Locale, people, 0),
		}
		for k, v := range result.Formatted {
			vars[k] = v
		}
		result.Summary = summary(in, vars)
		return result
	}
}
