package forms_test

import (
	"errors"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/forms"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ── Apply ────────────────────────────────────────────────────────────────────

func TestApply_OpcionConPuntaje(t *testing.T) {
	item := &entity.FormItem{ID: "i1", ItemCode: "ESTADO", DataType: entity.DataTypeDropdown}
	options := []*entity.FormItemOption{
		{ID: "o1", OptionValue: "Good", ScoreValue: decp("10"), ScoreWeight: decp("2"), IsActive: true},
		{ID: "o2", OptionValue: "Bad", ScoreValue: decp("0"), IsActive: true},
	}
	resp := &entity.FormResponse{}

	require.NoError(t, forms.Apply(item, options, forms.Input{OptionID: strp("o1")}, resp))
	require.NotNil(t, resp.WeightedScore)
	assert.True(t, resp.WeightedScore.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "Good", *resp.TextValue)

	require.NoError(t, forms.Apply(item, options, forms.Input{Value: strp("bad")}, resp))
	assert.Equal(t, "o2", *resp.SelectedOptionID)
	assert.True(t, resp.WeightedScore.IsZero())

	err := forms.Apply(item, options, forms.Input{OptionID: strp("otro")}, resp)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestApply_ValoresTipados(t *testing.T) {
	resp := &entity.FormResponse{}

	num := &entity.FormItem{ItemCode: "N", DataType: entity.DataTypeNumber}
	require.NoError(t, forms.Apply(num, nil, forms.Input{Value: strp("12.5")}, resp))
	assert.True(t, resp.NumericValue.Equal(decimal.RequireFromString("12.5")))
	assert.Error(t, forms.Apply(num, nil, forms.Input{Value: strp("doce")}, resp))

	b := &entity.FormItem{ItemCode: "B", DataType: entity.DataTypeBoolean}
	require.NoError(t, forms.Apply(b, nil, forms.Input{Value: strp("Yes")}, resp))
	require.NotNil(t, resp.BooleanValue)
	assert.True(t, *resp.BooleanValue)
	assert.Nil(t, resp.NumericValue, "los valores previos se limpian")

	d := &entity.FormItem{ItemCode: "D", DataType: entity.DataTypeDate}
	require.NoError(t, forms.Apply(d, nil, forms.Input{Value: strp("2025-03-05")}, resp))
	require.NotNil(t, resp.DateValue)
	assert.Equal(t, 5, resp.DateValue.Day())

	multi := &entity.FormItem{ItemCode: "M", DataType: entity.DataTypeMultiSelect}
	opts := []*entity.FormItemOption{{ID: "a", OptionValue: "A", IsActive: true}, {ID: "b", OptionValue: "B", IsActive: true}}
	require.NoError(t, forms.Apply(multi, opts, forms.Input{OptionIDs: []string{"a", "b"}}, resp))
	assert.Equal(t, "A,B", *resp.TextValue)
}

// ── ValidateSubmission ───────────────────────────────────────────────────────

func TestValidateSubmission_ObligatoriosYReglas(t *testing.T) {
	minLen := 5
	st := &entity.TemplateStructure{
		Items: []*entity.FormItem{
			{ID: "i1", ItemCode: "SERVIDORES", ItemName: "Servidores", DataType: entity.DataTypeNumber, IsRequired: true, IsActive: true},
			{ID: "i2", ItemCode: "UPTIME", ItemName: "Uptime", DataType: entity.DataTypePercentage, IsActive: true},
			{ID: "i3", ItemCode: "NOTAS", ItemName: "Notas", DataType: entity.DataTypeText, IsActive: true},
			{ID: "i4", ItemCode: "CONTACTO", ItemName: "Contacto", DataType: entity.DataTypeEmail, IsActive: true},
			{ID: "i5", ItemCode: "VIEJO", ItemName: "Viejo", DataType: entity.DataTypeText, IsRequired: true, IsActive: false},
		},
		Validations: map[string][]*entity.FormItemValidation{
			"i2": {{ValidationType: entity.ValidationRange, MinValue: decp("0"), MaxValue: decp("100"), ErrorMessage: "Uptime entre 0 y 100"}},
			"i3": {{ValidationType: entity.ValidationMinLength, MinLength: &minLen}},
		},
	}
	responses := []*entity.FormResponse{
		{ItemID: "i2", NumericValue: decp("120")},
		{ItemID: "i3", TextValue: strp("ok")},
		{ItemID: "i4", TextValue: strp("no-es-email")},
	}

	err := forms.ValidateSubmission(st, responses)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]string{}
	for _, e := range verrs {
		fields[e.Field] = e.Message
	}
	assert.Contains(t, fields, "SERVIDORES")
	assert.Equal(t, "Uptime entre 0 y 100", fields["UPTIME"])
	assert.Contains(t, fields, "NOTAS")
	assert.Contains(t, fields, "CONTACTO")
	assert.NotContains(t, fields, "VIEJO", "ítems inactivos no se validan")
}

func TestValidateSubmission_Valido(t *testing.T) {
	st := &entity.TemplateStructure{
		Items: []*entity.FormItem{{ID: "i1", ItemCode: "A", DataType: entity.DataTypeNumber, IsRequired: true, IsActive: true}},
	}
	assert.NoError(t, forms.ValidateSubmission(st, []*entity.FormResponse{{ItemID: "i1", NumericValue: decp("1")}}))
}

func TestValidateRule(t *testing.T) {
	assert.NoError(t, forms.ValidateRule(&entity.FormItemValidation{ValidationType: entity.ValidationEmail}))
	assert.Error(t, forms.ValidateRule(&entity.FormItemValidation{ValidationType: entity.ValidationRange}))
	assert.Error(t, forms.ValidateRule(&entity.FormItemValidation{ValidationType: entity.ValidationRange, MinValue: decp("5"), MaxValue: decp("1")}))
	assert.Error(t, forms.ValidateRule(&entity.FormItemValidation{ValidationType: entity.ValidationPattern, Pattern: "("}))
	assert.Error(t, forms.ValidateRule(&entity.FormItemValidation{ValidationType: "Otro"}))
}

func TestPeriod(t *testing.T) {
	assert.NoError(t, forms.Period(2025, 1))
	assert.Error(t, forms.Period(2025, 13))
	assert.Error(t, forms.Period(1990, 5))
	assert.Equal(t, "2025-03", forms.PeriodLabel(2025, 3))
}
