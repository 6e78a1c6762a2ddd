package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanWeights(t *testing.T) {
	cleaned := CleanWeights(map[string]float64{
		"A": 0.666666,
		"B": 0.33303,
		"C": 0.0004,
		"D": 0.001,
		"E": 0.00104,
	})

	assert.Equal(t, map[string]float64{"A": 0.6667, "B": 0.333}, cleaned)
}

func TestCleanWeights_SumWithinTolerance(t *testing.T) {
	cleaned := CleanWeights(map[string]float64{"A": 1.0 / 3, "B": 1.0 / 3, "C": 1.0 / 3})

	sum := 0.0
	for _, w := range cleaned {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}
