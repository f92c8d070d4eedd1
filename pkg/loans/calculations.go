// Package loans provides common loan processing utilities.
package loans

import (
	"math"

	"github.com/iwvelando/calcsite/pkg/constants"
	"github.com/iwvelando/calcsite/pkg/mathutil"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              int
	Payment            float64
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// YearSummary aggregates the payments of one loan year.
type YearSummary struct {
	Year               int
	Principal          float64
	Interest           float64
	RemainingPrincipal float64
}

// Loan represents loan parameters. InterestRate is an annual percentage.
type Loan struct {
	Principal      float64
	DownPayment    float64
	InterestRate   float64
	Term           int // months
	ExtraPrincipal float64
}

// Amount is the financed amount after the down payment.
func (l Loan) Amount() float64 {
	return l.Principal - l.DownPayment
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, downPayment, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return (principal - downPayment) / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow((1.00 + periodicInterestRate), float64(termMonths))
	discountFactor := (power - 1.00) / power
	return (principal - downPayment) * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// Schedule builds the month-by-month amortization schedule of a loan. Extra
// principal is applied every month but never beyond the remaining balance,
// so the loan may be repaid before its term. An unusable loan (no financed
// amount or no term) yields an empty schedule.
func Schedule(loan Loan) []Payment {
	amount := loan.Amount()
	if amount <= 0 || loan.Term <= 0 || loan.InterestRate < 0 {
		return nil
	}

	monthlyPayment := CalculateMonthlyPayment(loan.Principal, loan.DownPayment, loan.InterestRate, loan.Term)
	extra := math.Max(loan.ExtraPrincipal, 0)

	schedule := make([]Payment, 0, loan.Term)
	remaining := amount
	for month := 1; month <= loan.Term; month++ {
		var current Payment
		current.Month = month
		current.Interest = CalculateInterestPayment(remaining, loan.InterestRate)
		current.Principal = monthlyPayment - current.Interest + extra

		if month == loan.Term || mathutil.Round(remaining-current.Principal) <= 0 {
			// Final payment clears the balance; avoids machine error leftovers.
			current.Principal = remaining
			current.Payment = current.Principal + current.Interest
			current.RemainingPrincipal = 0
			schedule = append(schedule, current)
			break
		}

		current.Payment = monthlyPayment + extra
		current.RemainingPrincipal = remaining - current.Principal
		remaining = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	return schedule
}

// Totals returns the total paid and the total interest of a schedule.
func Totals(schedule []Payment) (paid, interest float64) {
	for _, p := range schedule {
		paid += p.Payment
		interest += p.Interest
	}
	return paid, interest
}

// Yearly aggregates a schedule into loan years of twelve payments.
func Yearly(schedule []Payment) []YearSummary {
	var years []YearSummary
	for _, p := range schedule {
		year := (p.Month-1)/constants.MonthsPerYear + 1
		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, YearSummary{Year: year})
		}
		current := &years[len(years)-1]
		current.Principal += p.Principal
		current.Interest += p.Interest
		current.RemainingPrincipal = p.RemainingPrincipal
	}
	return years
}
