package mortgage

import "sort"

// RateTable maps a loan term in years to an annual nominal rate in percent.
type RateTable map[int]float64

// DefaultRates returns the built-in market rates by term.
func DefaultRates() RateTable {
	return RateTable{
		10: 3.15,
		15: 3.35,
		20: 3.50,
		25: 3.65,
	}
}

// Lookup returns the rate of the largest term not above termYears, or the
// rate of the smallest term when termYears is below every entry. An empty
// table yields 0.
func (t RateTable) Lookup(termYears int) float64 {
	terms := t.Terms()
	if len(terms) == 0 {
		return 0
	}
	for i := len(terms) - 1; i >= 0; i-- {
		if termYears >= terms[i] {
			return t[terms[i]]
		}
	}
	return t[terms[0]]
}

// Terms returns the table keys in ascending order.
func (t RateTable) Terms() []int {
	terms := make([]int, 0, len(t))
	for term := range t {
		terms = append(terms, term)
	}
	sort.Ints(terms)
	return terms
}

// Clone returns an independent copy of the table.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
