package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/forms"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// FormUseCase categorías, plantillas y su estructura. La estructura solo cambia en borrador.
type FormUseCase struct {
	categories repository.FormCategoryRepository
	templates  repository.FormTemplateRepository
	tx         ports.TxRunner
	now        func() time.Time
}

// NewFormUseCase construye el caso de uso de formularios.
func NewFormUseCase(categories repository.FormCategoryRepository, templates repository.FormTemplateRepository, tx ports.TxRunner) *FormUseCase {
	return &FormUseCase{categories: categories, templates: templates, tx: tx, now: time.Now}
}

var one = decimal.NewFromInt(1)

func weightOrOne(w *decimal.Decimal) decimal.Decimal {
	if w == nil || w.IsNegative() {
		return one
	}
	return *w
}

// ── Categorías ────────────────────────────────────────────────────────────────

// ListCategories categorías con cantidad de plantillas.
func (uc *FormUseCase) ListCategories(ctx context.Context, in dto.PageRequest) (dto.ListResponse[dto.CategoryResponse], error) {
	in.DefaultPage()
	cats, total, err := uc.categories.List(ctx, repository.ListParams{Search: strings.TrimSpace(in.Search), Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return dto.ListResponse[dto.CategoryResponse]{}, err
	}
	out := make([]dto.CategoryResponse, 0, len(cats))
	for _, c := range cats {
		n, err := uc.categories.CountTemplates(ctx, c.ID)
		if err != nil {
			return dto.ListResponse[dto.CategoryResponse]{}, err
		}
		out = append(out, toCategoryResponse(c, n))
	}
	return dto.NewList(out, in, total), nil
}

// CreateCategory alta de categoría.
func (uc *FormUseCase) CreateCategory(ctx context.Context, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	now := uc.now()
	c := &entity.FormCategory{
		CategoryName: strings.TrimSpace(in.CategoryName),
		Description:  strings.TrimSpace(in.Description),
		DisplayOrder: in.DisplayOrder,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	out := toCategoryResponse(c, 0)
	return &out, nil
}

// UpdateCategory modificación de categoría.
func (uc *FormUseCase) UpdateCategory(ctx context.Context, id string, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	c.CategoryName = strings.TrimSpace(in.CategoryName)
	c.Description = strings.TrimSpace(in.Description)
	c.DisplayOrder = in.DisplayOrder
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.UpdatedAt = uc.now()
	if err := uc.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	out := toCategoryResponse(c, 0)
	return &out, nil
}

// DeleteCategory elimina una categoría sin plantillas.
func (uc *FormUseCase) DeleteCategory(ctx context.Context, id string) error {
	c, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrNotFound
	}
	n, err := uc.categories.CountTemplates(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasDependents
	}
	return uc.categories.Delete(ctx, id)
}

// ── Plantillas ────────────────────────────────────────────────────────────────

// ListTemplates plantillas paginadas.
func (uc *FormUseCase) ListTemplates(ctx context.Context, in dto.TemplateListRequest) (dto.ListResponse[dto.TemplateResponse], error) {
	in.DefaultPage()
	items, total, err := uc.templates.List(ctx, repository.TemplateFilter{
		CategoryID:    in.CategoryID,
		PublishStatus: in.PublishStatus,
		Search:        strings.TrimSpace(in.Search),
		OnlyActive:    in.OnlyActive,
		Limit:         in.Limit,
		Offset:        in.Offset,
	})
	if err != nil {
		return dto.ListResponse[dto.TemplateResponse]{}, err
	}
	out := make([]dto.TemplateResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toTemplateResponse(t))
	}
	return dto.NewList(out, in.PageRequest, total), nil
}

// GetTemplate plantilla con su estructura completa.
func (uc *FormUseCase) GetTemplate(ctx context.Context, id string) (*dto.TemplateStructureResponse, error) {
	st, err := uc.templates.GetStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return toStructureResponse(st), nil
}

func (uc *FormUseCase) loadTemplate(ctx context.Context, id string) (*entity.FormTemplate, error) {
	t, err := uc.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (uc *FormUseCase) loadDraft(ctx context.Context, id string) (*entity.FormTemplate, error) {
	t, err := uc.loadTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsDraft() {
		return nil, domain.ErrTemplateNotDraft
	}
	return t, nil
}

// CreateTemplate alta de plantilla en borrador, versión 1.
func (uc *FormUseCase) CreateTemplate(ctx context.Context, actorID string, in dto.TemplateRequest) (*dto.TemplateResponse, error) {
	now := uc.now()
	t := &entity.FormTemplate{
		CategoryID:       emptyToNil(in.CategoryID),
		TemplateName:     strings.TrimSpace(in.TemplateName),
		TemplateCode:     normalizeCode(in.TemplateCode),
		Description:      strings.TrimSpace(in.Description),
		TemplateType:     in.TemplateType,
		Version:          1,
		PublishStatus:    entity.PublishDraft,
		RequiresApproval: in.RequiresApproval,
		IsActive:         true,
		CreatedBy:        actorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.validateTemplate(ctx, t, true); err != nil {
		return nil, err
	}
	if err := uc.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	out := toTemplateResponse(t)
	return &out, nil
}

// UpdateTemplate datos generales. El código solo cambia en borrador de la primera versión.
func (uc *FormUseCase) UpdateTemplate(ctx context.Context, id string, in dto.TemplateRequest) (*dto.TemplateResponse, error) {
	t, err := uc.loadTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	code := normalizeCode(in.TemplateCode)
	codeChanged := code != t.TemplateCode
	if codeChanged && (!t.IsDraft() || t.Version > 1) {
		return nil, domain.Invalid("template_code", "el código no se puede cambiar en esta versión")
	}
	t.CategoryID = emptyToNil(in.CategoryID)
	t.TemplateName = strings.TrimSpace(in.TemplateName)
	t.TemplateCode = code
	t.Description = strings.TrimSpace(in.Description)
	t.TemplateType = in.TemplateType
	t.RequiresApproval = in.RequiresApproval
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := uc.validateTemplate(ctx, t, codeChanged); err != nil {
		return nil, err
	}
	t.UpdatedAt = uc.now()
	if err := uc.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	out := toTemplateResponse(t)
	return &out, nil
}

// validateTemplate categoría existente y, si checkCode, código libre.
// Las versiones de una plantilla comparten código.
func (uc *FormUseCase) validateTemplate(ctx context.Context, t *entity.FormTemplate, checkCode bool) error {
	var errs domain.ValidationErrors
	if checkCode {
		byCode, err := uc.templates.GetByCode(ctx, t.TemplateCode)
		if err != nil {
			return err
		}
		if byCode != nil && byCode.ID != t.ID {
			errs.Add("template_code", "ya existe una plantilla con ese código")
		}
	}
	if t.CategoryID != nil {
		c, err := uc.categories.GetByID(ctx, *t.CategoryID)
		if err != nil {
			return err
		}
		if c == nil {
			errs.Add("category_id", "categoría inexistente")
		}
	}
	return errs.OrNil()
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// CreateSection agrega una sección a una plantilla en borrador.
func (uc *FormUseCase) CreateSection(ctx context.Context, templateID string, in dto.SectionRequest) (*dto.SectionResponse, error) {
	if _, err := uc.loadDraft(ctx, templateID); err != nil {
		return nil, err
	}
	now := uc.now()
	s := &entity.FormSection{
		TemplateID:   templateID,
		SectionName:  strings.TrimSpace(in.SectionName),
		Description:  strings.TrimSpace(in.Description),
		DisplayOrder: in.DisplayOrder,
		Weight:       weightOrOne(in.Weight),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.templates.CreateSection(ctx, s); err != nil {
		return nil, err
	}
	out := toSectionResponse(s)
	return &out, nil
}

func (uc *FormUseCase) loadDraftSection(ctx context.Context, id string) (*entity.FormSection, error) {
	s, err := uc.templates.GetSection(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := uc.loadDraft(ctx, s.TemplateID); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSection modificación de sección.
func (uc *FormUseCase) UpdateSection(ctx context.Context, id string, in dto.SectionRequest) (*dto.SectionResponse, error) {
	s, err := uc.loadDraftSection(ctx, id)
	if err != nil {
		return nil, err
	}
	s.SectionName = strings.TrimSpace(in.SectionName)
	s.Description = strings.TrimSpace(in.Description)
	s.DisplayOrder = in.DisplayOrder
	s.Weight = weightOrOne(in.Weight)
	s.UpdatedAt = uc.now()
	if err := uc.templates.UpdateSection(ctx, s); err != nil {
		return nil, err
	}
	out := toSectionResponse(s)
	return &out, nil
}

// DeleteSection elimina una sección vacía.
func (uc *FormUseCase) DeleteSection(ctx context.Context, id string) error {
	if _, err := uc.loadDraftSection(ctx, id); err != nil {
		return err
	}
	n, err := uc.templates.CountSectionItems(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasDependents
	}
	return uc.templates.DeleteSection(ctx, id)
}

// ── Ítems ─────────────────────────────────────────────────────────────────────

// CreateItem agrega un ítem; ItemCode único dentro de la plantilla.
func (uc *FormUseCase) CreateItem(ctx context.Context, templateID string, in dto.ItemRequest) (*dto.ItemResponse, error) {
	if _, err := uc.loadDraft(ctx, templateID); err != nil {
		return nil, err
	}
	now := uc.now()
	it := &entity.FormItem{
		TemplateID: templateID,
		IsActive:   true,
		CreatedAt:  now,
	}
	fillItem(it, in)
	if err := uc.validateItem(ctx, it); err != nil {
		return nil, err
	}
	it.UpdatedAt = now
	if err := uc.templates.CreateItem(ctx, it); err != nil {
		return nil, err
	}
	out := toItemResponse(it, nil, nil)
	return &out, nil
}

func (uc *FormUseCase) loadDraftItem(ctx context.Context, id string) (*entity.FormItem, error) {
	it, err := uc.templates.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := uc.loadDraft(ctx, it.TemplateID); err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateItem modificación de ítem.
func (uc *FormUseCase) UpdateItem(ctx context.Context, id string, in dto.ItemRequest) (*dto.ItemResponse, error) {
	it, err := uc.loadDraftItem(ctx, id)
	if err != nil {
		return nil, err
	}
	fillItem(it, in)
	if err := uc.validateItem(ctx, it); err != nil {
		return nil, err
	}
	it.UpdatedAt = uc.now()
	if err := uc.templates.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	out := toItemResponse(it, nil, nil)
	return &out, nil
}

// DeleteItem elimina un ítem de una plantilla en borrador.
func (uc *FormUseCase) DeleteItem(ctx context.Context, id string) error {
	if _, err := uc.loadDraftItem(ctx, id); err != nil {
		return err
	}
	return uc.templates.DeleteItem(ctx, id)
}

func fillItem(it *entity.FormItem, in dto.ItemRequest) {
	it.SectionID = in.SectionID
	it.ItemCode = normalizeCode(in.ItemCode)
	it.ItemName = strings.TrimSpace(in.ItemName)
	it.Description = strings.TrimSpace(in.Description)
	it.DataType = in.DataType
	it.IsRequired = in.IsRequired
	it.DisplayOrder = in.DisplayOrder
	it.Weight = weightOrOne(in.Weight)
	it.Placeholder = strings.TrimSpace(in.Placeholder)
	it.DefaultValue = strings.TrimSpace(in.DefaultValue)
}

func (uc *FormUseCase) validateItem(ctx context.Context, it *entity.FormItem) error {
	var errs domain.ValidationErrors
	if !entity.ValidItemDataType(it.DataType) {
		errs.Add("data_type", "tipo de dato no soportado: "+it.DataType)
	}
	s, err := uc.templates.GetSection(ctx, it.SectionID)
	if err != nil {
		return err
	}
	if s == nil || s.TemplateID != it.TemplateID {
		errs.Add("section_id", "la sección no pertenece a la plantilla")
	}
	byCode, err := uc.templates.GetItemByCode(ctx, it.TemplateID, it.ItemCode)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != it.ID {
		errs.Add("item_code", "ya existe un ítem con ese código en la plantilla")
	}
	return errs.OrNil()
}

// ReplaceOptions reemplaza las opciones de un ítem de selección.
func (uc *FormUseCase) ReplaceOptions(ctx context.Context, itemID string, in dto.ReplaceOptionsRequest) ([]dto.OptionResponse, error) {
	it, err := uc.loadDraftItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !entity.IsOptionType(it.DataType) {
		return nil, domain.Invalid("options", "el tipo %s no admite opciones", it.DataType)
	}
	seen := make(map[string]struct{}, len(in.Options))
	opts := make([]*entity.FormItemOption, 0, len(in.Options))
	for i, o := range in.Options {
		value := strings.TrimSpace(o.OptionValue)
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			return nil, domain.Invalid("options", "valor repetido en la posición %d: %s", i, value)
		}
		seen[key] = struct{}{}
		opts = append(opts, &entity.FormItemOption{
			ItemID:       itemID,
			OptionValue:  value,
			OptionLabel:  strings.TrimSpace(o.OptionLabel),
			DisplayOrder: o.DisplayOrder,
			ScoreValue:   o.ScoreValue,
			ScoreWeight:  o.ScoreWeight,
			IsDefault:    o.IsDefault,
			IsActive:     true,
		})
	}
	if err := uc.templates.ReplaceOptions(ctx, itemID, opts); err != nil {
		return nil, err
	}
	return toOptionResponses(opts), nil
}

// ReplaceValidations reemplaza las reglas de validación de un ítem.
func (uc *FormUseCase) ReplaceValidations(ctx context.Context, itemID string, in dto.ReplaceValidationsRequest) ([]dto.ValidationResponse, error) {
	if _, err := uc.loadDraftItem(ctx, itemID); err != nil {
		return nil, err
	}
	rules := make([]*entity.FormItemValidation, 0, len(in.Validations))
	for i, v := range in.Validations {
		rule := &entity.FormItemValidation{
			ItemID:         itemID,
			ValidationType: v.ValidationType,
			MinValue:       v.MinValue,
			MaxValue:       v.MaxValue,
			MinLength:      v.MinLength,
			MaxLength:      v.MaxLength,
			Pattern:        v.Pattern,
			ErrorMessage:   strings.TrimSpace(v.ErrorMessage),
			DisplayOrder:   i,
		}
		if err := forms.ValidateRule(rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := uc.templates.ReplaceValidations(ctx, itemID, rules); err != nil {
		return nil, err
	}
	return toValidationResponses(rules), nil
}

// ── Ciclo de vida ─────────────────────────────────────────────────────────────

// PublishCheck revisión previa a publicar: errores bloquean, advertencias no.
func (uc *FormUseCase) PublishCheck(ctx context.Context, id string) (*dto.PublishCheckResponse, error) {
	st, err := uc.templates.GetStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return publishCheck(st), nil
}

func publishCheck(st *entity.TemplateStructure) *dto.PublishCheckResponse {
	out := &dto.PublishCheckResponse{Errors: []string{}, Warnings: []string{}}
	withItems := 0
	for _, s := range st.Sections {
		if !s.IsActive {
			continue
		}
		out.SectionCount++
		items := st.ItemsOfSection(s.ID)
		out.ItemCount += len(items)
		if len(items) == 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("la sección %q no tiene campos", s.SectionName))
			continue
		}
		withItems++
		for _, it := range items {
			if entity.IsOptionType(it.DataType) && len(st.Options[it.ID]) == 0 {
				out.Errors = append(out.Errors, fmt.Sprintf("el campo %s no tiene opciones", it.ItemCode))
			}
		}
	}
	if out.SectionCount == 0 {
		out.Errors = append(out.Errors, "se requiere al menos una sección")
	} else if withItems == 0 {
		out.Errors = append(out.Errors, "se requiere al menos un campo")
	}
	if st.Template.CategoryID == nil {
		out.Warnings = append(out.Warnings, "la plantilla no tiene categoría")
	}
	out.CanPublish = len(out.Errors) == 0
	return out
}

// Publish publica un borrador. Las versiones publicadas anteriores del mismo código pasan a Deprecated.
func (uc *FormUseCase) Publish(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	t, err := uc.loadTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsDraft() {
		return nil, domain.ErrInvalidTransition
	}
	st, err := uc.templates.GetStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if check := publishCheck(st); !check.CanPublish {
		var errs domain.ValidationErrors
		for _, msg := range check.Errors {
			errs.Add("structure", msg)
		}
		return nil, errs
	}
	now := uc.now()
	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		versions, err := r.Templates.ListVersions(ctx, t.TemplateCode)
		if err != nil {
			return err
		}
		for _, v := range versions {
			if v.ID != t.ID && v.PublishStatus == entity.PublishPublished {
				v.PublishStatus = entity.PublishDeprecated
				v.UpdatedAt = now
				if err := r.Templates.Update(ctx, v); err != nil {
					return err
				}
			}
		}
		t.PublishStatus = entity.PublishPublished
		t.PublishedAt = &now
		t.UpdatedAt = now
		return r.Templates.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	out := toTemplateResponse(t)
	return &out, nil
}

// Archive Published → Archived.
func (uc *FormUseCase) Archive(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	return uc.transition(ctx, id, entity.PublishArchived, entity.PublishPublished)
}

// Deprecate Published o Archived → Deprecated.
func (uc *FormUseCase) Deprecate(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	return uc.transition(ctx, id, entity.PublishDeprecated, entity.PublishPublished, entity.PublishArchived)
}

func (uc *FormUseCase) transition(ctx context.Context, id, to string, from ...string) (*dto.TemplateResponse, error) {
	t, err := uc.loadTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, f := range from {
		if t.PublishStatus == f {
			allowed = true
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, t.PublishStatus, to)
	}
	t.PublishStatus = to
	t.UpdatedAt = uc.now()
	if err := uc.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	out := toTemplateResponse(t)
	return &out, nil
}

// CreateVersion copia una plantilla publicada en un borrador con Version+1 y el mismo código.
func (uc *FormUseCase) CreateVersion(ctx context.Context, actorID, id string) (*dto.TemplateResponse, error) {
	st, err := uc.templates.GetStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	src := st.Template
	if src.PublishStatus != entity.PublishPublished {
		return nil, fmt.Errorf("%w: solo se versionan plantillas publicadas", domain.ErrInvalidTransition)
	}
	latest, err := uc.templates.GetByCode(ctx, src.TemplateCode)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.ID != src.ID && latest.IsDraft() {
		return nil, domain.Invalid("template_code", "ya existe un borrador de la versión %d", latest.Version)
	}

	now := uc.now()
	next := *src
	next.ID = ""
	next.Version = src.Version + 1
	if latest != nil && latest.Version >= next.Version {
		next.Version = latest.Version + 1
	}
	next.PublishStatus = entity.PublishDraft
	next.PublishedAt = nil
	next.CreatedBy = actorID
	next.CreatedAt = now
	next.UpdatedAt = now

	sections := append([]*entity.FormSection(nil), st.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].DisplayOrder < sections[j].DisplayOrder })

	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		if err := r.Templates.Create(ctx, &next); err != nil {
			return err
		}
		for _, s := range sections {
			ns := *s
			ns.ID, ns.TemplateID, ns.CreatedAt, ns.UpdatedAt = "", next.ID, now, now
			if err := r.Templates.CreateSection(ctx, &ns); err != nil {
				return err
			}
			for _, it := range st.ItemsOfSection(s.ID) {
				ni := *it
				ni.ID, ni.TemplateID, ni.SectionID, ni.CreatedAt, ni.UpdatedAt = "", next.ID, ns.ID, now, now
				if err := r.Templates.CreateItem(ctx, &ni); err != nil {
					return err
				}
				if err := copyItemRules(ctx, r.Templates, st, it.ID, ni.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := toTemplateResponse(&next)
	return &out, nil
}

func copyItemRules(ctx context.Context, repo repository.FormTemplateRepository, st *entity.TemplateStructure, fromID, toID string) error {
	if src := st.Options[fromID]; len(src) > 0 {
		opts := make([]*entity.FormItemOption, 0, len(src))
		for _, o := range src {
			n := *o
			n.ID, n.ItemID = "", toID
			opts = append(opts, &n)
		}
		if err := repo.ReplaceOptions(ctx, toID, opts); err != nil {
			return err
		}
	}
	if src := st.Validations[fromID]; len(src) > 0 {
		rules := make([]*entity.FormItemValidation, 0, len(src))
		for _, v := range src {
			n := *v
			n.ID, n.ItemID = "", toID
			rules = append(rules, &n)
		}
		if err := repo.ReplaceValidations(ctx, toID, rules); err != nil {
			return err
		}
	}
	return nil
}

// ── Mapeo a DTO ───────────────────────────────────────────────────────────────

func toCategoryResponse(c *entity.FormCategory, templates int) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:            c.ID,
		CategoryName:  c.CategoryName,
		Description:   c.Description,
		DisplayOrder:  c.DisplayOrder,
		IsActive:      c.IsActive,
		TemplateCount: templates,
		CreatedAt:     c.CreatedAt,
	}
}

func toTemplateResponse(t *entity.FormTemplate) dto.TemplateResponse {
	return dto.TemplateResponse{
		ID:               t.ID,
		CategoryID:       t.CategoryID,
		TemplateName:     t.TemplateName,
		TemplateCode:     t.TemplateCode,
		Description:      t.Description,
		TemplateType:     t.TemplateType,
		Version:          t.Version,
		PublishStatus:    t.PublishStatus,
		RequiresApproval: t.RequiresApproval,
		IsActive:         t.IsActive,
		PublishedAt:      t.PublishedAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func toSectionResponse(s *entity.FormSection) dto.SectionResponse {
	return dto.SectionResponse{
		ID:           s.ID,
		SectionName:  s.SectionName,
		Description:  s.Description,
		DisplayOrder: s.DisplayOrder,
		Weight:       s.Weight,
		Items:        []dto.ItemResponse{},
	}
}

func toItemResponse(it *entity.FormItem, opts []*entity.FormItemOption, rules []*entity.FormItemValidation) dto.ItemResponse {
	return dto.ItemResponse{
		ID:           it.ID,
		SectionID:    it.SectionID,
		ItemCode:     it.ItemCode,
		ItemName:     it.ItemName,
		Description:  it.Description,
		DataType:     it.DataType,
		IsRequired:   it.IsRequired,
		DisplayOrder: it.DisplayOrder,
		Weight:       it.Weight,
		Placeholder:  it.Placeholder,
		DefaultValue: it.DefaultValue,
		Options:      toOptionResponses(opts),
		Validations:  toValidationResponses(rules),
	}
}

func toOptionResponses(opts []*entity.FormItemOption) []dto.OptionResponse {
	if len(opts) == 0 {
		return nil
	}
	out := make([]dto.OptionResponse, 0, len(opts))
	for _, o := range opts {
		out = append(out, dto.OptionResponse{
			ID:           o.ID,
			OptionValue:  o.OptionValue,
			OptionLabel:  o.OptionLabel,
			DisplayOrder: o.DisplayOrder,
			ScoreValue:   o.ScoreValue,
			ScoreWeight:  o.ScoreWeight,
			IsDefault:    o.IsDefault,
		})
	}
	return out
}

func toValidationResponses(rules []*entity.FormItemValidation) []dto.ValidationResponse {
	if len(rules) == 0 {
		return nil
	}
	out := make([]dto.ValidationResponse, 0, len(rules))
	for _, v := range rules {
		out = append(out, dto.ValidationResponse{
			ID:             v.ID,
			ValidationType: v.ValidationType,
			MinValue:       v.MinValue,
			MaxValue:       v.MaxValue,
			MinLength:      v.MinLength,
			MaxLength:      v.MaxLength,
			Pattern:        v.Pattern,
			ErrorMessage:   v.ErrorMessage,
		})
	}
	return out
}

func toStructureResponse(st *entity.TemplateStructure) *dto.TemplateStructureResponse {
	out := &dto.TemplateStructureResponse{TemplateResponse: toTemplateResponse(st.Template), Sections: []dto.SectionResponse{}}
	sections := append([]*entity.FormSection(nil), st.Sections...)
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].DisplayOrder < sections[j].DisplayOrder })
	for _, s := range sections {
		sr := toSectionResponse(s)
		items := st.ItemsOfSection(s.ID)
		sort.SliceStable(items, func(i, j int) bool { return items[i].DisplayOrder < items[j].DisplayOrder })
		for _, it := range items {
			sr.Items = append(sr.Items, toItemResponse(it, st.Options[it.ID], st.Validations[it.ID]))
		}
		out.Sections = append(out.Sections, sr)
	}
	return out
}
