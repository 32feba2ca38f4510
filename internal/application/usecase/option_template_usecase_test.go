package usecase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOptionTemplateUC(f *fixture) *usecase.OptionTemplateUseCase {
	return usecase.NewOptionTemplateUseCase(f.store.Options, f.store.Templates, f.store)
}

func yesNoRequest(code string) dto.OptionTemplateRequest {
	return dto.OptionTemplateRequest{
		TemplateName:         "Sí / No",
		TemplateCode:         code,
		Category:             "Binarias",
		ApplicableFieldTypes: "Dropdown, Radio",
		HasScoring:           true,
		Items: []dto.OptionTemplateItemInput{
			{OptionValue: "yes", OptionLabel: "Sí", ScoreValue: decp("100"), IsDefault: true},
			{OptionValue: "no", OptionLabel: "No", DisplayOrder: 1, ScoreValue: decp("0")},
		},
	}
}

func TestOptionTemplateCreate_CodigoUnicoYOpciones(t *testing.T) {
	f := newFixture(t)
	uc := newOptionTemplateUC(f)
	ctx := context.Background()

	out, err := uc.Create(ctx, userAdmin, yesNoRequest(" si_no "))
	require.NoError(t, err)
	assert.Equal(t, "SI_NO", out.TemplateCode)
	assert.Equal(t, []string{"Dropdown", "Radio"}, out.ApplicableFieldTypes)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "100", out.Items[0].ScoreValue.String())

	_, err = uc.Create(ctx, userAdmin, yesNoRequest("si_no"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	bad := yesNoRequest("DUP")
	bad.Items = append(bad.Items, dto.OptionTemplateItemInput{OptionValue: "YES", OptionLabel: "Otra vez", IsDefault: true})
	_, err = uc.Create(ctx, userAdmin, bad)
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	byCode, err := uc.GetByCode(ctx, "si_no")
	require.NoError(t, err)
	assert.Equal(t, out.ID, byCode.ID)
	assert.Len(t, byCode.Items, 2)

	list, err := uc.List(ctx, dto.OptionTemplateListRequest{FieldType: "Radio"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page.Total)
	cats, err := uc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Binarias"}, cats)
}

func TestOptionTemplate_SistemaNoEditable(t *testing.T) {
	f := newFixture(t)
	uc := newOptionTemplateUC(f)
	ctx := context.Background()

	out, err := uc.Create(ctx, userAdmin, yesNoRequest("SYS"))
	require.NoError(t, err)
	f.store.Options.Items[out.ID].IsSystemTemplate = true

	_, err = uc.Update(ctx, out.ID, yesNoRequest("SYS"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, uc.Delete(ctx, out.ID), domain.ErrForbidden)
}

func TestOptionTemplateApply_CopiaOpcionesYCuentaUso(t *testing.T) {
	f := newFixture(t)
	uc := newOptionTemplateUC(f)
	forms := newFormUC(f)
	ctx := context.Background()

	cat, err := uc.Create(ctx, userAdmin, yesNoRequest("SI_NO"))
	require.NoError(t, err)

	tpl, err := forms.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "Checklist", TemplateCode: "CHECK", TemplateType: entity.TemplateMonthly})
	require.NoError(t, err)
	sec, err := forms.CreateSection(ctx, tpl.ID, dto.SectionRequest{SectionName: "General"})
	require.NoError(t, err)
	dropdown, err := forms.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "extintor", ItemName: "Extintor vigente", DataType: entity.DataTypeDropdown})
	require.NoError(t, err)
	number, err := forms.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "horas", ItemName: "Horas", DataType: entity.DataTypeNumber, DisplayOrder: 1})
	require.NoError(t, err)

	_, err = uc.Apply(ctx, cat.ID, dto.ApplyOptionTemplateRequest{ItemID: number.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	opts, err := uc.Apply(ctx, cat.ID, dto.ApplyOptionTemplateRequest{ItemID: dropdown.ID})
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "yes", opts[0].OptionValue)
	assert.True(t, opts[0].IsDefault)
	assert.Len(t, f.store.Templates.Options[dropdown.ID], 2)

	got, err := uc.Get(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)

	published := seedTemplate(t, f, "PUB", false)
	_, err = uc.Apply(ctx, cat.ID, dto.ApplyOptionTemplateRequest{ItemID: published.Rating})
	assert.ErrorIs(t, err, domain.ErrTemplateNotDraft)
}
