package metrics

import (
	"fmt"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// WeightedValue valor de una fuente de roll-up con su peso (nil = 1).
type WeightedValue struct {
	Value  decimal.Decimal
	Weight *decimal.Decimal
}

// Aggregate combina los valores de las fuentes de una sección o plantilla.
// nil si no hay valores (o peso total cero en WeightedAverage).
func Aggregate(aggregation string, values []WeightedValue) (*decimal.Decimal, error) {
	if len(values) == 0 {
		return nil, nil
	}
	switch aggregation {
	case entity.RollupCount:
		v := decimal.NewFromInt(int64(len(values)))
		return &v, nil
	case entity.RollupSum:
		sum := decimal.Zero
		for _, wv := range values {
			sum = sum.Add(wv.Value)
		}
		return &sum, nil
	case entity.RollupAvg:
		sum := decimal.Zero
		for _, wv := range values {
			sum = sum.Add(wv.Value)
		}
		avg := sum.Div(decimal.NewFromInt(int64(len(values))))
		return &avg, nil
	case entity.RollupWeightedAverage:
		sum, total := decimal.Zero, decimal.Zero
		for _, wv := range values {
			w := one
			if wv.Weight != nil {
				w = *wv.Weight
			}
			sum = sum.Add(wv.Value.Mul(w))
			total = total.Add(w)
		}
		if total.IsZero() {
			return nil, nil
		}
		avg := sum.Div(total)
		return &avg, nil
	}
	return nil, fmt.Errorf("%w: agregación %q no soportada", domain.ErrInvalidInput, aggregation)
}

// ValidRollupAggregation agregaciones aceptadas por mapeos de sección y plantilla.
func ValidRollupAggregation(a string) bool {
	switch a {
	case entity.RollupAvg, entity.RollupSum, entity.RollupCount, entity.RollupWeightedAverage:
		return true
	}
	return false
}
