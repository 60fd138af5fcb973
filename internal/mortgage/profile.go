package mortgage

import (
	"errors"
	"fmt"
)

// BorrowerProfile is the input of a simulation. Amounts are in euros.
type BorrowerProfile struct {
	NetMonthlyIncome     float64 `json:"net_monthly_income"`
	FixedMonthlyCharges  float64 `json:"fixed_monthly_charges"`
	PersonalContribution float64 `json:"personal_contribution"`
	TermYears            int     `json:"term_years"`
	AnnualInterestRate   float64 `json:"annual_interest_rate"`
	// AnnualInsuranceRate defaults to DefaultInsuranceRate when nil.
	AnnualInsuranceRate *float64 `json:"annual_insurance_rate,omitempty"`
	// HouseholdSize values below 1 count as a single-person household.
	HouseholdSize int `json:"household_size,omitempty"`
}

// InsuranceRate returns the insurance rate in percent, applying the default.
func (p BorrowerProfile) InsuranceRate() float64 {
	if p.AnnualInsuranceRate == nil {
		return DefaultInsuranceRate
	}
	return *p.AnnualInsuranceRate
}

// Household returns the household size, applying the default.
func (p BorrowerProfile) Household() int {
	if p.HouseholdSize < 1 {
		return 1
	}
	return p.HouseholdSize
}

// Validate reports form-level problems with a profile. Simulate does not call
// it and accepts any profile; it exists for request validation at the edge.
func (p BorrowerProfile) Validate() error {
	var errs []error
	if p.NetMonthlyIncome < 0 {
		errs = append(errs, errors.New("net_monthly_income must not be negative"))
	}
	if p.FixedMonthlyCharges < 0 {
		errs = append(errs, errors.New("fixed_monthly_charges must not be negative"))
	}
	if p.PersonalContribution < 0 {
		errs = append(errs, errors.New("personal_contribution must not be negative"))
	}
	if p.TermYears < MinTermYears || p.TermYears > MaxTermYears {
		errs = append(errs, fmt.Errorf("term_years must be between %d and %d", MinTermYears, MaxTermYears))
	}
	if p.AnnualInterestRate < 0 {
		errs = append(errs, errors.New("annual_interest_rate must not be negative"))
	}
	if p.AnnualInsuranceRate != nil && *p.AnnualInsuranceRate < 0 {
		errs = append(errs, errors.New("annual_insurance_rate must not be negative"))
	}
	if p.HouseholdSize < 0 {
		errs = append(errs, errors.New("household_size must not be negative"))
	}
	return errors.Join(errs...)
}

// SimulationResult is the full outcome of Simulate. It is built once and not
// modified afterwards.
type SimulationResult struct {
	MaxLoanPrincipal            float64            `json:"max_loan_principal"`
	MaxAffordableMonthlyPayment float64            `json:"max_affordable_monthly_payment"`
	MonthlyPaymentCredit        float64            `json:"monthly_payment_credit"`
	MonthlyInsuranceCost        float64            `json:"monthly_insurance_cost"`
	TotalMonthlyPayment         float64            `json:"total_monthly_payment"`
	TotalCreditCost             float64            `json:"total_credit_cost"`
	TotalInterestPaid           float64            `json:"total_interest_paid"`
	TotalInsurancePaid          float64            `json:"total_insurance_paid"`
	DebtToIncomeRatio           float64            `json:"debt_to_income_ratio"`
	ResidualLivingAllowance     float64            `json:"residual_living_allowance"`
	OriginationFee              float64            `json:"origination_fee"`
	GuaranteeFee                float64            `json:"guarantee_fee"`
	EstimatedNotaryFee          float64            `json:"estimated_notary_fee"`
	TotalProjectBudget          float64            `json:"total_project_budget"`
	AmortizationSchedule        []AmortizationLine `json:"amortization_schedule"`
	Advisories                  []string           `json:"advisories"`
	IsEligible                  bool               `json:"is_eligible"`
}

// AmortizationLine is one month of a schedule.
type AmortizationLine struct {
	MonthIndex          int     `json:"month_index"`
	YearIndex           int     `json:"year_index"`
	PrincipalPortion    float64 `json:"principal_portion"`
	InterestPortion     float64 `json:"interest_portion"`
	InsurancePortion    float64 `json:"insurance_portion"`
	TotalPayment        float64 `json:"total_payment"`
	RemainingPrincipal  float64 `json:"remaining_principal"`
	CumulativePrincipal float64 `json:"cumulative_principal"`
	CumulativeInterest  float64 `json:"cumulative_interest"`
	CumulativeInsurance float64 `json:"cumulative_insurance"`
}
