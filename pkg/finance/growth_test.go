package finance

import (
	"math"
	"testing"
)

func TestProjectMatchesClosedForm(t *testing.T) {
	tests := []struct {
		name        string
		compounding string
		rate        float64
		years       int
	}{
		{"Annual compounding", "annually", 5, 10},
		{"Quarterly compounding", "quarterly", 4, 7},
		{"Monthly compounding", "monthly", 7, 30},
		{"Daily compounding", "daily", 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := Compounding[tt.compounding]
			years := Project(Plan{Principal: 10000, AnnualReturnRate: tt.rate, Years: tt.years, PeriodsPerYear: periods})
			if len(years) != tt.years {
				t.Fatalf("Project() returned %d years, expected %d", len(years), tt.years)
			}
			expected := FutureValue(10000, tt.rate, tt.years, periods)
			got := years[len(years)-1].Balance
			if math.Abs(got-expected) > 0.01 {
				t.Errorf("final balance = %.2f, expected %.2f", got, expected)
			}
		})
	}
}

func TestProjectKnownValue(t *testing.T) {
	// $1,000 at 5% compounded annually for 10 years grows to $1,628.89.
	years := Project(Plan{Principal: 1000, AnnualReturnRate: 5, Years: 10, PeriodsPerYear: 1})
	if got := years[9].Balance; math.Abs(got-1628.89) > 0.01 {
		t.Errorf("balance = %.2f, expected 1628.89", got)
	}
}

func TestProjectContributions(t *testing.T) {
	years := Project(Plan{MonthlyContribution: 100, Years: 3, PeriodsPerYear: 12})
	for i, year := range years {
		if math.Abs(year.Contributions-1200) > 1e-9 {
			t.Errorf("year %d contributions = %.2f, expected 1200", i+1, year.Contributions)
		}
	}
	if got := years[2].Balance; math.Abs(got-3600) > 1e-9 {
		t.Errorf("balance without growth = %.2f, expected 3600", got)
	}

	// Quarterly deposits add up to the same yearly amount.
	quarterly := Project(Plan{MonthlyContribution: 100, Years: 1, PeriodsPerYear: 4})
	if math.Abs(quarterly[0].Contributions-1200) > 1e-9 {
		t.Errorf("quarterly contributions = %.2f, expected 1200", quarterly[0].Contributions)
	}
}

func TestProjectTax(t *testing.T) {
	untaxed := Project(Plan{Principal: 10000, AnnualReturnRate: 6, Years: 5, PeriodsPerYear: 12})
	taxed := Project(Plan{Principal: 10000, AnnualReturnRate: 6, TaxRate: 25, Years: 5, PeriodsPerYear: 12})

	if taxed[4].Balance >= untaxed[4].Balance {
		t.Errorf("taxed balance %.2f should be below untaxed %.2f", taxed[4].Balance, untaxed[4].Balance)
	}
	for _, year := range taxed {
		if math.Abs(year.Tax-year.Growth*0.25) > 1e-6 {
			t.Errorf("year %d tax = %.4f, expected a quarter of growth %.4f", year.Year, year.Tax, year.Growth)
		}
	}
}

func TestProjectDefaultsAndEdgeCases(t *testing.T) {
	if years := Project(Plan{Principal: 100, Years: 0}); years != nil {
		t.Errorf("expected nil for zero years, got %v", years)
	}

	years := Project(Plan{Principal: 100, AnnualReturnRate: 12, Years: 1})
	expected := FutureValue(100, 12, 1, 12)
	if math.Abs(years[0].Balance-expected) > 1e-9 {
		t.Errorf("default periods should be monthly: got %.4f, expected %.4f", years[0].Balance, expected)
	}

	if got := FutureValue(100, 10, 1, 0); math.Abs(got-110) > 1e-9 {
		t.Errorf("FutureValue() with zero periods = %.4f, expected 110", got)
	}
}
