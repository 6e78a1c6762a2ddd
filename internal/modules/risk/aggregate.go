package risk

import "fmt"

// AggregateReturns builds equal-weighted portfolio returns. Every series is
// right-aligned to the shortest one so only the most recent common periods count.
func AggregateReturns(series [][]float64) ([]float64, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no return series to aggregate", ErrNoData)
	}

	minLen := len(series[0])
	for _, s := range series[1:] {
		if len(s) < minLen {
			minLen = len(s)
		}
	}

	portfolio := make([]float64, minLen)
	weight := 1 / float64(len(series))
	for _, s := range series {
		offset := len(s) - minLen
		for i := 0; i < minLen; i++ {
			portfolio[i] += s[offset+i] * weight
		}
	}

	return portfolio, nil
}
