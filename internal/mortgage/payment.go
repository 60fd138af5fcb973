package mortgage

import (
	"math"

	"github.com/shopspring/decimal"
)

// MonthlyPayment returns the constant principal-and-interest payment of an
// amortizing loan, rounded to the cent:
//
//	payment = principal * r / (1 - (1+r)^-n),  r = annualRatePercent/100/12, n = termYears*12
//
// It returns 0 when principal, rate or term is not strictly positive. A 0%
// rate therefore yields 0, not principal/n.
func MonthlyPayment(principal, annualRatePercent float64, termYears int) float64 {
	if principal <= 0 || annualRatePercent <= 0 || termYears <= 0 {
		return 0
	}
	r := monthlyRate(annualRatePercent)
	n := float64(termYears * monthsPerYear)
	return roundCents(principal * r / (1 - math.Pow(1+r, -n)))
}

// MaxPrincipal is the inverse of MonthlyPayment: the largest principal a
// monthly payment can service. The result is floored to whole currency units
// so capacity is never overstated.
func MaxPrincipal(maxMonthlyPayment, annualRatePercent float64, termYears int) float64 {
	if maxMonthlyPayment <= 0 || annualRatePercent <= 0 || termYears <= 0 {
		return 0
	}
	r := monthlyRate(annualRatePercent)
	n := float64(termYears * monthsPerYear)
	return math.Floor(maxMonthlyPayment * (1 - math.Pow(1+r, -n)) / r)
}

// MonthlyInsurance returns the unrounded monthly borrower-insurance premium
// for a principal at an annual rate expressed in percent.
func MonthlyInsurance(principal, insuranceRatePercent float64) float64 {
	return principal * insuranceRatePercent / 100 / monthsPerYear
}

func monthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 100 / monthsPerYear
}

func roundCents(v float64) float64 {
	return roundPlaces(v, 2)
}

func roundUnits(v float64) float64 {
	return roundPlaces(v, 0)
}

// roundPlaces leaves NaN and infinities untouched since decimal cannot hold them.
func roundPlaces(v float64, places int32) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
