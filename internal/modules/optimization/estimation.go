package optimization

import (
	"fmt"

	"github.com/aegisos/riskengine/pkg/formulas"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ReturnsTable holds aligned daily log returns: one column per symbol, rows in
// time order. Series are right-aligned so every row is a common recent period.
type ReturnsTable struct {
	Symbols []string
	Data    *mat.Dense
}

// NewReturnsTable aligns the given series to the shortest one, keeping the most
// recent observations of each.
func NewReturnsTable(returns map[string][]float64, symbols []string) (*ReturnsTable, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	rows := -1
	for _, symbol := range symbols {
		r, ok := returns[symbol]
		if !ok {
			return nil, fmt.Errorf("missing returns for symbol %s", symbol)
		}
		if rows < 0 || len(r) < rows {
			rows = len(r)
		}
	}
	if rows < 2 {
		return nil, fmt.Errorf("insufficient data: need at least 2 observations, got %d", rows)
	}

	data := mat.NewDense(rows, len(symbols), nil)
	for j, symbol := range symbols {
		r := returns[symbol]
		offset := len(r) - rows
		for i := 0; i < rows; i++ {
			data.Set(i, j, r[offset+i])
		}
	}

	return &ReturnsTable{
		Symbols: append([]string(nil), symbols...),
		Data:    data,
	}, nil
}

// Rows returns the number of aligned periods.
func (t *ReturnsTable) Rows() int {
	r, _ := t.Data.Dims()
	return r
}

// ExpectedReturns returns the annualized mean daily return per symbol.
func (t *ReturnsTable) ExpectedReturns() []float64 {
	mu := make([]float64, len(t.Symbols))
	for j := range t.Symbols {
		col := mat.Col(nil, j, t.Data)
		mu[j] = stat.Mean(col, nil) * formulas.CryptoDaysPerYear
	}
	return mu
}

// Covariance returns the annualized sample (n-1) covariance matrix.
func (t *ReturnsTable) Covariance() *mat.SymDense {
	n := len(t.Symbols)
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, t.Data, nil)
	cov.ScaleSym(formulas.CryptoDaysPerYear, cov)
	return cov
}
