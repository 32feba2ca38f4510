package metrics

import (
	"fmt"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Responses respuestas de un envío por ItemID.
type Responses map[string]*entity.FormResponse

// IndexResponses indexa respuestas por ítem.
func IndexResponses(rs []*entity.FormResponse) Responses {
	out := make(Responses, len(rs))
	for _, r := range rs {
		out[r.ItemID] = r
	}
	return out
}

// SampleResponses respuestas textuales de prueba (ItemID → valor) para probar un mapeo.
func SampleResponses(values map[string]string) Responses {
	out := make(Responses, len(values))
	for itemID, v := range values {
		text := v
		out[itemID] = &entity.FormResponse{ItemID: itemID, TextValue: &text}
	}
	return out
}

// ItemValue valor de un mapeo de campo. nil sin error cuando la respuesta no aporta valor
// o el mapeo es Derived.
func ItemValue(m *entity.FormItemMetricMapping, responses Responses) (*decimal.Decimal, error) {
	switch NormalizeMappingType(m.MappingType) {
	case direct:
		return DirectValue(responses[m.ItemID]), nil
	case compliance:
		return ComplianceValue(responses[m.ItemID], m.ExpectedValue), nil
	case calculated:
		f, err := ParseFormula(m.TransformationLogic)
		if err != nil {
			return nil, err
		}
		vars := make(map[string]decimal.Decimal, len(f.ItemAliases))
		for alias, itemID := range f.ItemAliases {
			v, ok := NumericValue(responses[itemID])
			if !ok {
				return nil, fmt.Errorf("%w: %s no tiene un valor numérico", domain.ErrInvalidInput, alias)
			}
			vars[alias] = v
		}
		v, err := f.Evaluate(vars)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	return nil, nil
}

// Source fuente ponderada de un roll-up: un mapeo de ítem (secciones) o de sección (plantillas).
type Source struct {
	MappingID string
	Weight    *decimal.Decimal
}

// RollupValue valor de un mapeo de sección o plantilla a partir de los valores ya calculados
// de sus fuentes (por ID de mapeo). Las fuentes sin valor no participan del agregado;
// en Calculated todas las variables de la fórmula deben tener valor.
func RollupValue(mappingType, aggregation, formula string, sources []Source, values map[string]decimal.Decimal) (*decimal.Decimal, error) {
	if mappingType == entity.RollupCalculated {
		f, err := ParseFormula(formula)
		if err != nil {
			return nil, err
		}
		vars := make(map[string]decimal.Decimal, len(f.ItemAliases))
		for alias, mappingID := range f.ItemAliases {
			v, ok := values[mappingID]
			if !ok {
				return nil, fmt.Errorf("%w: la fuente %s no tiene valor", domain.ErrInvalidInput, alias)
			}
			vars[alias] = v
		}
		v, err := f.Evaluate(vars)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	weighted := make([]WeightedValue, 0, len(sources))
	for _, s := range sources {
		if v, ok := values[s.MappingID]; ok {
			weighted = append(weighted, WeightedValue{Value: v, Weight: s.Weight})
		}
	}
	return Aggregate(aggregation, weighted)
}

// FormulaExpression expresión de una configuración de fórmula; "" si no es válida.
func FormulaExpression(raw string) string {
	f, err := ParseFormula(raw)
	if err != nil {
		return ""
	}
	return f.Expression
}
