// Package mortgage implements the borrowing-capacity and amortization engine:
// payment arithmetic, the debt-ratio / living-allowance constraint solver, the
// monthly schedule generator and the simulation orchestrator.
//
// Every function in this package is pure. Degenerate inputs resolve to zero
// values instead of errors.
package mortgage

// Lending policy applied by the simulator.
const (
	DebtRatioCap         = 0.35 // share of disposable income a payment may take
	SoftDebtRatioWarning = 33.0 // percent, advisory threshold below the hard cap

	LivingAllowanceSingle       = 800.0
	LivingAllowanceCouple       = 1200.0
	LivingAllowancePerDependant = 300.0
	LivingAllowanceMargin       = 1.2

	MinTermYears            = 5
	MaxTermYears            = 30
	MaxRecommendedTermYears = 25

	DefaultInsuranceRate = 0.30 // percent of principal per year

	OriginationRate          = 0.01
	OriginationCap           = 1500.0
	GuaranteeRate            = 0.01
	NotaryRateExisting       = 0.08
	ContributionShareAdvised = 0.10

	// InsuranceRefinementPasses is the number of fixed-point passes used to
	// net the insurance premium out of the payment ceiling.
	InsuranceRefinementPasses = 5

	monthsPerYear = 12
)
