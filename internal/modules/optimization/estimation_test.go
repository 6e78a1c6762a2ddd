package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnsTable_RightAligned(t *testing.T) {
	returns := map[string][]float64{
		"A": {0.01, 0.02, 0.03},
		"B": {0.5, 0.02, 0.04, 0.06},
	}

	table, err := NewReturnsTable(returns, []string{"A", "B"})
	require.NoError(t, err)

	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, 0.02, table.Data.At(0, 1), "oldest B observation is dropped")

	mu := table.ExpectedReturns()
	assert.InDelta(t, 0.02*365, mu[0], 1e-9)
	assert.InDelta(t, 0.04*365, mu[1], 1e-9)

	cov := table.Covariance()
	assert.InDelta(t, 0.0001*365, cov.At(0, 0), 1e-9)
	assert.InDelta(t, 0.0004*365, cov.At(1, 1), 1e-9)
	assert.InDelta(t, 0.0002*365, cov.At(0, 1), 1e-9)
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0))
}

func TestReturnsTable_Errors(t *testing.T) {
	_, err := NewReturnsTable(map[string][]float64{}, nil)
	assert.Error(t, err)

	_, err = NewReturnsTable(map[string][]float64{"A": {0.1, 0.2}}, []string{"A", "B"})
	assert.Error(t, err)

	_, err = NewReturnsTable(map[string][]float64{"A": {0.1}}, []string{"A"})
	assert.Error(t, err)
}
