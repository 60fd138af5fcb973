package mortgage

// Employee contribution rates used to estimate net pay from gross salary.
const (
	contributionRateEmployee  = 0.22
	contributionRateExecutive = 0.25
)

// NetFromGross estimates the monthly net income, in whole euros, of an
// annual gross salary.
func NetFromGross(annualGross float64, executive bool) float64 {
	rate := contributionRateEmployee
	if executive {
		rate = contributionRateExecutive
	}
	return roundUnits(annualGross * (1 - rate) / monthsPerYear)
}
