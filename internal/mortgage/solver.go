package mortgage

import "math"

// Capacity is the outcome of the constraint solver.
type Capacity struct {
	DisposableIncome   float64
	MinLivingAllowance float64
	// MaxMonthlyPayment is the binding ceiling on credit plus insurance.
	MaxMonthlyPayment float64
	// Principal is the floored maximum principal net of insurance.
	Principal float64
	Eligible  bool
}

// MinLivingAllowance returns the income a household must keep after all
// monthly debt payments.
func MinLivingAllowance(householdSize int) float64 {
	switch {
	case householdSize <= 1:
		return LivingAllowanceSingle
	case householdSize == 2:
		return LivingAllowanceCouple
	default:
		return LivingAllowanceCouple + float64(householdSize-2)*LivingAllowancePerDependant
	}
}

// SolveCapacity bounds the affordable monthly payment by the debt-ratio cap
// and the living-allowance floor, then searches the principal whose credit
// payment plus insurance fits under that bound.
func SolveCapacity(p BorrowerProfile) Capacity {
	disposable := p.NetMonthlyIncome - p.FixedMonthlyCharges
	minLiving := MinLivingAllowance(p.Household())

	byDebtRatio := disposable * DebtRatioCap
	byLivingAllowance := p.NetMonthlyIncome - p.FixedMonthlyCharges - minLiving
	maxPayment := math.Min(byDebtRatio, byLivingAllowance)

	c := Capacity{
		DisposableIncome:   disposable,
		MinLivingAllowance: minLiving,
	}
	if maxPayment <= 0 {
		return c
	}
	c.Eligible = true
	c.MaxMonthlyPayment = maxPayment

	insuranceRate := p.InsuranceRate()
	principal := MaxPrincipal(maxPayment, p.AnnualInterestRate, p.TermYears)
	// Insurance depends on the principal it constrains; a few passes settle it
	// to well under one currency unit.
	for i := 0; i < InsuranceRefinementPasses; i++ {
		creditBudget := maxPayment - MonthlyInsurance(principal, insuranceRate)
		principal = MaxPrincipal(creditBudget, p.AnnualInterestRate, p.TermYears)
	}
	c.Principal = principal
	return c
}
