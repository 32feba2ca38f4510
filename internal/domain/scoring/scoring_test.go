package scoring_test

import (
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/scoring"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }
func decp(v string) *decimal.Decimal { d := dec(v); return &d }

// ── Fixture: dos secciones ponderadas ────────────────────────────────────────

func structure() *entity.TemplateStructure {
	return &entity.TemplateStructure{
		Template: &entity.FormTemplate{ID: "tpl"},
		Sections: []*entity.FormSection{
			{ID: "s1", SectionName: "Infraestructura", Weight: dec("2")},
			{ID: "s2", SectionName: "Seguridad", Weight: dec("1")},
			{ID: "s3", SectionName: "Comentarios", Weight: dec("1")},
		},
		Items: []*entity.FormItem{
			{ID: "i1", SectionID: "s1", ItemName: "Servidores", Weight: dec("1"), IsActive: true},
			{ID: "i2", SectionID: "s1", ItemName: "Red", Weight: dec("3"), IsActive: true},
			{ID: "i3", SectionID: "s2", ItemName: "Antivirus", Weight: dec("1"), IsActive: true},
			{ID: "i4", SectionID: "s3", ItemName: "Notas", Weight: dec("1"), IsActive: true},
		},
	}
}

func TestCalculate_PromediosPonderados(t *testing.T) {
	note := "todo bien"
	responses := []*entity.FormResponse{
		{ItemID: "i1", WeightedScore: decp("100")},
		{ItemID: "i2", WeightedScore: decp("60")},
		{ItemID: "i3", WeightedScore: decp("40")},
		{ItemID: "i4", TextValue: &note},
	}

	b := scoring.Calculate(structure(), responses)

	require.Len(t, b.Sections, 3)
	// s1 = (100×1 + 60×3) / 4 = 70
	require.NotNil(t, b.Sections[0].Score)
	assert.True(t, b.Sections[0].Score.Equal(dec("70")))
	assert.True(t, b.Sections[1].Score.Equal(dec("40")))
	assert.Nil(t, b.Sections[2].Score, "sección sin puntajes queda en nil")

	// general = (70×2 + 40×1) / 3 = 60
	require.NotNil(t, b.OverallScore)
	assert.True(t, b.OverallScore.Equal(dec("60")))
	assert.Len(t, b.Fields, 4)
}

func TestCalculate_SinPuntajes(t *testing.T) {
	b := scoring.Calculate(structure(), nil)
	assert.Nil(t, b.OverallScore)
	assert.Empty(t, b.Fields)
}

func TestCalculate_PesoCeroDevuelveNil(t *testing.T) {
	st := structure()
	st.Items[0].Weight = decimal.Zero
	st.Items[1].Weight = decimal.Zero
	b := scoring.Calculate(st, []*entity.FormResponse{{ItemID: "i1", WeightedScore: decp("10")}})
	assert.Nil(t, b.Sections[0].Score)
	assert.Nil(t, b.OverallScore)
}

func TestAverage_IgnoraNulos(t *testing.T) {
	got := scoring.Average([]*decimal.Decimal{decp("10"), nil, decp("20")})
	require.NotNil(t, got)
	assert.True(t, got.Equal(dec("15")))
	assert.Nil(t, scoring.Average(nil))
}
