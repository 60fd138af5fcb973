package mortgage

import (
	"math"

	"github.com/shopspring/decimal"
)

// GenerateSchedule expands a loan into its month-by-month amortization table.
//
// Amounts are carried in cents: each month's interest is rounded to the cent
// and the principal portion is the constant payment minus that interest. The
// final month repays whatever balance is left, so the principal portions sum
// exactly to the principal and the last remaining balance is zero.
//
// It returns nil when principal, rate or term is not strictly positive, or
// when an amount overflows float64.
func GenerateSchedule(principal, annualRatePercent float64, termYears int, insuranceRatePercent float64) []AmortizationLine {
	if principal <= 0 || annualRatePercent <= 0 || termYears <= 0 {
		return nil
	}
	monthlyPayment := MonthlyPayment(principal, annualRatePercent, termYears)
	monthlyInsurance := MonthlyInsurance(principal, insuranceRatePercent)
	if !finite(principal) || !finite(monthlyPayment) || !finite(monthlyInsurance) {
		return nil
	}

	months := termYears * monthsPerYear
	rate := decimal.NewFromFloat(monthlyRate(annualRatePercent))
	payment := decimal.NewFromFloat(monthlyPayment)
	insurance := decimal.NewFromFloat(monthlyInsurance).Round(2)

	remaining := decimal.NewFromFloat(principal).Round(2)
	var paidPrincipal, paidInterest, paidInsurance decimal.Decimal

	schedule := make([]AmortizationLine, 0, months)
	for month := 1; month <= months; month++ {
		interest := remaining.Mul(rate).Round(2)
		principalPart := payment.Sub(interest)
		if month == months || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}

		remaining = remaining.Sub(principalPart)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		paidPrincipal = paidPrincipal.Add(principalPart)
		paidInterest = paidInterest.Add(interest)
		paidInsurance = paidInsurance.Add(insurance)

		schedule = append(schedule, AmortizationLine{
			MonthIndex:          month,
			YearIndex:           int(math.Ceil(float64(month) / monthsPerYear)),
			PrincipalPortion:    principalPart.InexactFloat64(),
			InterestPortion:     interest.InexactFloat64(),
			InsurancePortion:    insurance.InexactFloat64(),
			TotalPayment:        principalPart.Add(interest).Add(insurance).InexactFloat64(),
			RemainingPrincipal:  remaining.InexactFloat64(),
			CumulativePrincipal: paidPrincipal.InexactFloat64(),
			CumulativeInterest:  paidInterest.InexactFloat64(),
			CumulativeInsurance: paidInsurance.InexactFloat64(),
		})
	}
	return schedule
}

// YearSummary rolls one year of a schedule up.
type YearSummary struct {
	Year               int     `json:"year"`
	PrincipalPaid      float64 `json:"principal_paid"`
	InterestPaid       float64 `json:"interest_paid"`
	InsurancePaid      float64 `json:"insurance_paid"`
	TotalPaid          float64 `json:"total_paid"`
	RemainingPrincipal float64 `json:"remaining_principal"`
}

// SummarizeByYear groups a schedule by YearIndex. The remaining principal of a
// year is the balance after its last month.
func SummarizeByYear(schedule []AmortizationLine) []YearSummary {
	var (
		years   []YearSummary
		current *YearSummary
		p, i, s decimal.Decimal
	)
	flush := func() {
		if current == nil {
			return
		}
		current.PrincipalPaid = p.Round(2).InexactFloat64()
		current.InterestPaid = i.Round(2).InexactFloat64()
		current.InsurancePaid = s.Round(2).InexactFloat64()
		current.TotalPaid = p.Add(i).Add(s).Round(2).InexactFloat64()
		years = append(years, *current)
	}

	for _, line := range schedule {
		if current == nil || current.Year != line.YearIndex {
			flush()
			current = &YearSummary{Year: line.YearIndex}
			p, i, s = decimal.Zero, decimal.Zero, decimal.Zero
		}
		p = p.Add(decimal.NewFromFloat(line.PrincipalPortion))
		i = i.Add(decimal.NewFromFloat(line.InterestPortion))
		s = s.Add(decimal.NewFromFloat(line.InsurancePortion))
		current.RemainingPrincipal = line.RemainingPrincipal
	}
	flush()
	return years
}
