package mortgage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinLivingAllowance(t *testing.T) {
	assert.Equal(t, 800.0, MinLivingAllowance(0))
	assert.Equal(t, 800.0, MinLivingAllowance(1))
	assert.Equal(t, 1200.0, MinLivingAllowance(2))
	assert.Equal(t, 1500.0, MinLivingAllowance(3))
	assert.Equal(t, 1800.0, MinLivingAllowance(4))
}

func TestSolveCapacity_DebtRatioBinds(t *testing.T) {
	c := SolveCapacity(BorrowerProfile{
		NetMonthlyIncome:   3500,
		TermYears:          20,
		AnnualInterestRate: 3.5,
	})

	assert.True(t, c.Eligible)
	assert.InDelta(t, 1225.0, c.MaxMonthlyPayment, 1e-9)
	assert.Equal(t, 800.0, c.MinLivingAllowance)
	assert.Equal(t, 3500.0, c.DisposableIncome)

	credit := MonthlyPayment(c.Principal, 3.5, 20)
	insurance := MonthlyInsurance(c.Principal, DefaultInsuranceRate)
	assert.LessOrEqual(t, credit+insurance, c.MaxMonthlyPayment+0.01)
	assert.Less(t, c.Principal, MaxPrincipal(1225, 3.5, 20), "insurance reduces capacity")
}

func TestSolveCapacity_LivingAllowanceBinds(t *testing.T) {
	c := SolveCapacity(BorrowerProfile{
		NetMonthlyIncome:   1100,
		TermYears:          20,
		AnnualInterestRate: 3.5,
	})

	// 1100*0.35 = 385 but only 1100-800 = 300 may go to the loan
	assert.True(t, c.Eligible)
	assert.InDelta(t, 300.0, c.MaxMonthlyPayment, 1e-9)
}

func TestSolveCapacity_NotEligible(t *testing.T) {
	c := SolveCapacity(BorrowerProfile{
		NetMonthlyIncome:    1000,
		FixedMonthlyCharges: 300,
		TermYears:           20,
		AnnualInterestRate:  3.5,
	})

	assert.False(t, c.Eligible)
	assert.Equal(t, 0.0, c.MaxMonthlyPayment)
	assert.Equal(t, 0.0, c.Principal)
	assert.Equal(t, 700.0, c.DisposableIncome)
}

func TestSolveCapacity_ZeroRateGivesNoPrincipal(t *testing.T) {
	c := SolveCapacity(BorrowerProfile{
		NetMonthlyIncome:   3500,
		TermYears:          20,
		AnnualInterestRate: 0,
	})

	assert.True(t, c.Eligible)
	assert.Equal(t, 0.0, c.Principal)
}

func TestSolveCapacity_HouseholdSizeLowersCapacity(t *testing.T) {
	base := BorrowerProfile{NetMonthlyIncome: 2200, TermYears: 20, AnnualInterestRate: 3.5}
	family := base
	family.HouseholdSize = 4

	assert.Greater(t, SolveCapacity(base).Principal, SolveCapacity(family).Principal)
}

func TestSolveCapacity_ExplicitZeroInsurance(t *testing.T) {
	zero := 0.0
	p := BorrowerProfile{NetMonthlyIncome: 3500, TermYears: 20, AnnualInterestRate: 3.5, AnnualInsuranceRate: &zero}

	assert.Equal(t, MaxPrincipal(1225, 3.5, 20), SolveCapacity(p).Principal)
}
