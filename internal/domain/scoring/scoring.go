// Package scoring calcula puntajes ponderados de envíos de formularios.
//
//	puntaje de sección = Σ(WeightedScore × peso ítem) / Σ(peso ítem)
//	puntaje general    = Σ(puntaje sección × peso sección) / Σ(peso sección)
//
// Solo participan respuestas con WeightedScore y secciones con puntaje.
package scoring

import (
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// FieldScore puntaje de una respuesta.
type FieldScore struct {
	ItemID      string
	ItemName    string
	SectionID   string
	SectionName string
	Score       *decimal.Decimal
	Weight      decimal.Decimal
}

// SectionScore puntaje de una sección; Score nil si no tiene respuestas puntuadas.
type SectionScore struct {
	SectionID   string
	SectionName string
	Score       *decimal.Decimal
	Weight      decimal.Decimal
}

// Breakdown desglose completo de un envío.
type Breakdown struct {
	Sections     []SectionScore
	Fields       []FieldScore
	OverallScore *decimal.Decimal
}

type weighted struct {
	score  decimal.Decimal
	weight decimal.Decimal
}

// weightedAverage Σ(score×weight)/Σ(weight); nil si está vacío o el peso total es cero.
func weightedAverage(values []weighted) *decimal.Decimal {
	if len(values) == 0 {
		return nil
	}
	sum, total := decimal.Zero, decimal.Zero
	for _, v := range values {
		sum = sum.Add(v.score.Mul(v.weight))
		total = total.Add(v.weight)
	}
	if total.IsZero() {
		return nil
	}
	avg := sum.Div(total)
	return &avg
}

// Calculate arma el desglose de un envío a partir de la estructura de la plantilla.
// Las secciones se recorren en el orden de la estructura.
func Calculate(st *entity.TemplateStructure, responses []*entity.FormResponse) Breakdown {
	byItem := make(map[string]*entity.FormResponse, len(responses))
	for _, r := range responses {
		byItem[r.ItemID] = r
	}

	var out Breakdown
	var sectionValues []weighted
	for _, sec := range st.Sections {
		var itemValues []weighted
		for _, it := range st.ItemsOfSection(sec.ID) {
			resp, ok := byItem[it.ID]
			if !ok {
				continue
			}
			out.Fields = append(out.Fields, FieldScore{
				ItemID:      it.ID,
				ItemName:    it.ItemName,
				SectionID:   sec.ID,
				SectionName: sec.SectionName,
				Score:       resp.WeightedScore,
				Weight:      it.Weight,
			})
			if resp.WeightedScore != nil {
				itemValues = append(itemValues, weighted{score: *resp.WeightedScore, weight: it.Weight})
			}
		}
		score := weightedAverage(itemValues)
		out.Sections = append(out.Sections, SectionScore{
			SectionID:   sec.ID,
			SectionName: sec.SectionName,
			Score:       score,
			Weight:      sec.Weight,
		})
		if score != nil {
			sectionValues = append(sectionValues, weighted{score: *score, weight: sec.Weight})
		}
	}
	out.OverallScore = weightedAverage(sectionValues)
	return out
}

// Overall atajo que devuelve solo el puntaje general.
func Overall(st *entity.TemplateStructure, responses []*entity.FormResponse) *decimal.Decimal {
	return Calculate(st, responses).OverallScore
}

// Average promedio simple de puntajes no nulos; nil si no hay ninguno.
func Average(scores []*decimal.Decimal) *decimal.Decimal {
	sum, n := decimal.Zero, 0
	for _, s := range scores {
		if s == nil {
			continue
		}
		sum = sum.Add(*s)
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	return &avg
}
