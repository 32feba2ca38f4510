package usecase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormUC(f *fixture) *usecase.FormUseCase {
	s := f.store
	return usecase.NewFormUseCase(s.Categories, s.Templates, s)
}

func decp(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// seededTemplate plantilla con una sección, un campo numérico obligatorio, un dropdown con puntajes y un adjunto.
type seededTemplate struct {
	ID, SectionID             string
	Hours, Rating, Attachment string
	Good, Bad                 string
}

func seedTemplate(t *testing.T, f *fixture, code string, requiresApproval bool) seededTemplate {
	t.Helper()
	ctx := context.Background()
	uc := newFormUC(f)
	cat, err := uc.CreateCategory(ctx, dto.CategoryRequest{CategoryName: "Seguridad " + code})
	require.NoError(t, err)

	tpl, err := uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{
		CategoryID:       &cat.ID,
		TemplateName:     "Inspección " + code,
		TemplateCode:     code,
		TemplateType:     entity.TemplateMonthly,
		RequiresApproval: requiresApproval,
	})
	require.NoError(t, err)
	sec, err := uc.CreateSection(ctx, tpl.ID, dto.SectionRequest{SectionName: "General", Weight: decp("2")})
	require.NoError(t, err)

	hours, err := uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "hours", ItemName: "Horas", DataType: entity.DataTypeNumber, IsRequired: true})
	require.NoError(t, err)
	rating, err := uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "rating", ItemName: "Estado", DataType: entity.DataTypeDropdown, DisplayOrder: 1})
	require.NoError(t, err)
	opts, err := uc.ReplaceOptions(ctx, rating.ID, dto.ReplaceOptionsRequest{Options: []dto.OptionInput{
		{OptionValue: "good", OptionLabel: "Bueno", ScoreValue: decp("90")},
		{OptionValue: "bad", OptionLabel: "Malo", DisplayOrder: 1, ScoreValue: decp("20")},
	}})
	require.NoError(t, err)
	file, err := uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "evidence", ItemName: "Evidencia", DataType: entity.DataTypeFileUpload, DisplayOrder: 2})
	require.NoError(t, err)

	_, err = uc.Publish(ctx, tpl.ID)
	require.NoError(t, err)
	return seededTemplate{ID: tpl.ID, SectionID: sec.ID, Hours: hours.ID, Rating: rating.ID, Attachment: file.ID, Good: opts[0].ID, Bad: opts[1].ID}
}

func TestFormCreateTemplate_BorradorVersionUno(t *testing.T) {
	f := newFixture(t)
	uc := newFormUC(f)
	ctx := context.Background()

	out, err := uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "Ventas", TemplateCode: " ventas ", TemplateType: entity.TemplateMonthly})
	require.NoError(t, err)
	assert.Equal(t, "VENTAS", out.TemplateCode)
	assert.Equal(t, 1, out.Version)
	assert.Equal(t, entity.PublishDraft, out.PublishStatus)

	_, err = uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "Otra", TemplateCode: "VENTAS", TemplateType: entity.TemplateMonthly})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "template_code", verrs[0].Field)

	_, err = uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "X", TemplateCode: "X", TemplateType: entity.TemplateMonthly, CategoryID: strp(regionNorte)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFormPublishCheck_ErroresYAdvertencias(t *testing.T) {
	f := newFixture(t)
	uc := newFormUC(f)
	ctx := context.Background()

	tpl, err := uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "Vacía", TemplateCode: "EMPTY", TemplateType: entity.TemplateWeekly})
	require.NoError(t, err)

	check, err := uc.PublishCheck(ctx, tpl.ID)
	require.NoError(t, err)
	assert.False(t, check.CanPublish)
	assert.Len(t, check.Errors, 1)
	assert.Len(t, check.Warnings, 1, "sin categoría")

	_, err = uc.Publish(ctx, tpl.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sec, err := uc.CreateSection(ctx, tpl.ID, dto.SectionRequest{SectionName: "Única"})
	require.NoError(t, err)
	assert.True(t, sec.Weight.Equal(decimal.NewFromInt(1)))
	_, err = uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "pick", ItemName: "Elegir", DataType: entity.DataTypeRadio})
	require.NoError(t, err)

	check, err = uc.PublishCheck(ctx, tpl.ID)
	require.NoError(t, err)
	assert.False(t, check.CanPublish)
	assert.Equal(t, []string{"el campo PICK no tiene opciones"}, check.Errors)
}

func TestFormItem_Validaciones(t *testing.T) {
	f := newFixture(t)
	uc := newFormUC(f)
	ctx := context.Background()
	tpl, err := uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "A", TemplateCode: "A", TemplateType: entity.TemplateDaily})
	require.NoError(t, err)
	other, err := uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "B", TemplateCode: "B", TemplateType: entity.TemplateDaily})
	require.NoError(t, err)
	sec, err := uc.CreateSection(ctx, tpl.ID, dto.SectionRequest{SectionName: "S"})
	require.NoError(t, err)
	foreign, err := uc.CreateSection(ctx, other.ID, dto.SectionRequest{SectionName: "S"})
	require.NoError(t, err)

	_, err = uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "q1", ItemName: "Q1", DataType: "Hologram"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: foreign.ID, ItemCode: "q1", ItemName: "Q1", DataType: entity.DataTypeText})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	item, err := uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "q1", ItemName: "Q1", DataType: entity.DataTypeText})
	require.NoError(t, err)
	_, err = uc.CreateItem(ctx, tpl.ID, dto.ItemRequest{SectionID: sec.ID, ItemCode: "Q1", ItemName: "Otra", DataType: entity.DataTypeText})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "código repetido")

	_, err = uc.ReplaceOptions(ctx, item.ID, dto.ReplaceOptionsRequest{Options: []dto.OptionInput{{OptionValue: "a", OptionLabel: "A"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "texto sin opciones")

	_, err = uc.ReplaceValidations(ctx, item.ID, dto.ReplaceValidationsRequest{Validations: []dto.ValidationInput{{ValidationType: entity.ValidationPattern, Pattern: "("}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	rules, err := uc.ReplaceValidations(ctx, item.ID, dto.ReplaceValidationsRequest{Validations: []dto.ValidationInput{{ValidationType: entity.ValidationPattern, Pattern: "^[A-Z]+$"}}})
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	assert.ErrorIs(t, uc.DeleteSection(ctx, sec.ID), domain.ErrHasDependents)
}

func TestFormPublish_SoloBorradorYEdicionBloqueada(t *testing.T) {
	f := newFixture(t)
	uc := newFormUC(f)
	ctx := context.Background()
	seeded := seedTemplate(t, f, "SEG", false)

	got, err := uc.GetTemplate(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PublishPublished, got.PublishStatus)
	assert.NotNil(t, got.PublishedAt)
	require.Len(t, got.Sections, 1)
	assert.Len(t, got.Sections[0].Items, 3)

	_, err = uc.Publish(ctx, seeded.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = uc.CreateSection(ctx, seeded.ID, dto.SectionRequest{SectionName: "Nueva"})
	assert.ErrorIs(t, err, domain.ErrTemplateNotDraft)
	assert.ErrorIs(t, uc.DeleteItem(ctx, seeded.Hours), domain.ErrTemplateNotDraft)
}

func TestFormTransiciones(t *testing.T) {
	f := newFixture(t)
	uc := newFormUC(f)
	ctx := context.Background()
	seeded := seedTemplate(t, f, "TR", false)

	out, err := uc.Archive(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PublishArchived, out.PublishStatus)

	_, err = uc.Archive(ctx, seeded.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	out, err = uc.Deprecate(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PublishDeprecated, out.PublishStatus)
}

func TestFormCreateVersion_CopiaEstructuraYDeprecaAnterior(t *testing.T) {
	f := newFixture(t)
	uc := newFormUC(f)
	ctx := context.Background()
	seeded := seedTemplate(t, f, "VER", false)

	v2, err := uc.CreateVersion(ctx, userAdmin, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, "VER", v2.TemplateCode)
	assert.Equal(t, entity.PublishDraft, v2.PublishStatus)

	_, err = uc.CreateVersion(ctx, userAdmin, seeded.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ya hay un borrador")

	copied, err := uc.GetTemplate(ctx, v2.ID)
	require.NoError(t, err)
	require.Len(t, copied.Sections, 1)
	require.Len(t, copied.Sections[0].Items, 3)
	assert.True(t, copied.Sections[0].Weight.Equal(decimal.NewFromInt(2)))
	rating := copied.Sections[0].Items[1]
	assert.Equal(t, "RATING", rating.ItemCode)
	assert.Len(t, rating.Options, 2)
	assert.NotEqual(t, seeded.Rating, rating.ID)

	_, err = uc.Publish(ctx, v2.ID)
	require.NoError(t, err)
	v1, err := uc.GetTemplate(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PublishDeprecated, v1.PublishStatus)

	_, err = uc.UpdateTemplate(ctx, v2.ID, dto.TemplateRequest{TemplateName: "X", TemplateCode: "OTRO", TemplateType: entity.TemplateMonthly})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el código de una versión no cambia")
}

func TestFormDeleteCategory_ConPlantillas(t *testing.T) {
	f := newFixture(t)
	uc := newFormUC(f)
	ctx := context.Background()
	cat, err := uc.CreateCategory(ctx, dto.CategoryRequest{CategoryName: "Calidad"})
	require.NoError(t, err)
	_, err = uc.CreateTemplate(ctx, userAdmin, dto.TemplateRequest{CategoryID: &cat.ID, TemplateName: "Q", TemplateCode: "Q", TemplateType: entity.TemplateAnnual})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.DeleteCategory(ctx, cat.ID), domain.ErrHasDependents)

	list, err := uc.ListCategories(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Items[0].TemplateCount)
}
