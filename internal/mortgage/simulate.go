package mortgage

import (
	"fmt"
	"math"
)

// Simulate runs a full simulation for a borrower profile. It never fails:
// a profile that cannot carry any payment yields a non-eligible result with
// zeroed amounts and a single advisory.
func Simulate(p BorrowerProfile) SimulationResult {
	advisories := []string{}
	if p.TermYears > MaxRecommendedTermYears {
		advisories = append(advisories, fmt.Sprintf(
			"The maximum recommended term is %d years.", MaxRecommendedTermYears))
	}

	capacity := SolveCapacity(p)
	if !capacity.Eligible {
		return SimulationResult{
			ResidualLivingAllowance: roundUnits(capacity.DisposableIncome),
			TotalProjectBudget:      p.PersonalContribution,
			AmortizationSchedule:    []AmortizationLine{},
			Advisories: append(advisories,
				"Your income does not allow borrowing under the current debt-ratio and living-allowance rules."),
		}
	}

	principal := capacity.Principal
	insuranceRate := p.InsuranceRate()
	months := float64(p.TermYears * monthsPerYear)

	creditPayment := MonthlyPayment(principal, p.AnnualInterestRate, p.TermYears)
	insurancePayment := MonthlyInsurance(principal, insuranceRate)
	totalPayment := creditPayment + insurancePayment

	originationFee := math.Min(principal*OriginationRate, OriginationCap)
	guaranteeFee := principal * GuaranteeRate
	budget := principal + p.PersonalContribution
	notaryFee := budget * NotaryRateExisting

	// A zero principal (0% rate, for instance) has no interest at all.
	totalInterest := math.Max(creditPayment*months-principal, 0)
	totalInsurance := insurancePayment * months

	// Without income the ratio is undefined; report 0.
	var debtRatio float64
	if p.NetMonthlyIncome > 0 {
		debtRatio = (totalPayment + p.FixedMonthlyCharges) / p.NetMonthlyIncome * 100
	}
	residual := p.NetMonthlyIncome - p.FixedMonthlyCharges - totalPayment

	if debtRatio > SoftDebtRatioWarning {
		advisories = append(advisories, fmt.Sprintf(
			"Your debt-to-income ratio (%s) is high. Some banks may decline the application.",
			FormatPercent(debtRatio, 1)))
	}
	if residual < capacity.MinLivingAllowance*LivingAllowanceMargin {
		advisories = append(advisories, fmt.Sprintf(
			"Your remaining living allowance (%s) is close to the minimum. Plan a safety margin.",
			FormatEuros(residual)))
	}
	if p.PersonalContribution < principal*ContributionShareAdvised {
		advisories = append(advisories,
			"A personal contribution of at least 10% of the amount borrowed is recommended to obtain better terms.")
	}

	schedule := GenerateSchedule(principal, p.AnnualInterestRate, p.TermYears, insuranceRate)
	if schedule == nil {
		schedule = []AmortizationLine{}
	}

	return SimulationResult{
		MaxLoanPrincipal:            principal,
		MaxAffordableMonthlyPayment: roundCents(capacity.MaxMonthlyPayment),
		MonthlyPaymentCredit:        creditPayment,
		MonthlyInsuranceCost:        roundCents(insurancePayment),
		TotalMonthlyPayment:         roundCents(totalPayment),
		TotalCreditCost:             roundUnits(totalInterest + totalInsurance),
		TotalInterestPaid:           roundUnits(totalInterest),
		TotalInsurancePaid:          roundUnits(totalInsurance),
		DebtToIncomeRatio:           roundPlaces(debtRatio, 1),
		ResidualLivingAllowance:     roundUnits(residual),
		OriginationFee:              roundUnits(originationFee),
		GuaranteeFee:                roundUnits(guaranteeFee),
		EstimatedNotaryFee:          roundUnits(notaryFee),
		TotalProjectBudget:          budget,
		AmortizationSchedule:        schedule,
		Advisories:                  advisories,
		IsEligible:                  true,
	}
}
