package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// OptionTemplateUseCase catálogos de opciones reutilizables entre plantillas.
type OptionTemplateUseCase struct {
	options   repository.OptionTemplateRepository
	templates repository.FormTemplateRepository
	tx        ports.TxRunner
	now       func() time.Time
}

// NewOptionTemplateUseCase construye el caso de uso de catálogos de opciones.
func NewOptionTemplateUseCase(options repository.OptionTemplateRepository, templates repository.FormTemplateRepository, tx ports.TxRunner) *OptionTemplateUseCase {
	return &OptionTemplateUseCase{options: options, templates: templates, tx: tx, now: time.Now}
}

// List catálogos paginados, sin opciones.
func (uc *OptionTemplateUseCase) List(ctx context.Context, in dto.OptionTemplateListRequest) (dto.ListResponse[dto.OptionTemplateResponse], error) {
	in.DefaultPage()
	items, total, err := uc.options.List(ctx, repository.OptionTemplateFilter{
		Search:     in.Search,
		Category:   in.Category,
		FieldType:  in.FieldType,
		OnlyActive: in.OnlyActive,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return dto.ListResponse[dto.OptionTemplateResponse]{}, err
	}
	out := make([]dto.OptionTemplateResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toOptionTemplateResponse(t, false))
	}
	return dto.NewList(out, in.PageRequest, total), nil
}

func (uc *OptionTemplateUseCase) load(ctx context.Context, id string) (*entity.OptionTemplate, error) {
	t, err := uc.options.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// Get catálogo con sus opciones.
func (uc *OptionTemplateUseCase) Get(ctx context.Context, id string) (*dto.OptionTemplateResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toOptionTemplateResponse(t, true)
	return &out, nil
}

// GetByCode catálogo por código, sin distinguir mayúsculas.
func (uc *OptionTemplateUseCase) GetByCode(ctx context.Context, code string) (*dto.OptionTemplateResponse, error) {
	t, err := uc.options.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	full, err := uc.load(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	out := toOptionTemplateResponse(full, true)
	return &out, nil
}

// Categories categorías en uso.
func (uc *OptionTemplateUseCase) Categories(ctx context.Context) ([]string, error) {
	return uc.options.Categories(ctx)
}

// Create alta de catálogo con sus opciones en una transacción.
func (uc *OptionTemplateUseCase) Create(ctx context.Context, actorID string, in dto.OptionTemplateRequest) (*dto.OptionTemplateResponse, error) {
	code := normalizeCode(in.TemplateCode)
	existing, err := uc.options.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe un catálogo con código %s", domain.ErrDuplicate, code)
	}
	items, err := optionTemplateItems(in.Items)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	t := &entity.OptionTemplate{
		TemplateCode: code,
		IsActive:     true,
		CreatedBy:    actorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	fillOptionTemplate(t, in)
	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		if err := r.Options.Create(ctx, t); err != nil {
			return err
		}
		return r.Options.ReplaceItems(ctx, t.ID, items)
	})
	if err != nil {
		return nil, err
	}
	t.Items = items
	out := toOptionTemplateResponse(t, true)
	return &out, nil
}

// Update modifica datos y opciones. Los catálogos del sistema no se editan.
func (uc *OptionTemplateUseCase) Update(ctx context.Context, id string, in dto.OptionTemplateRequest) (*dto.OptionTemplateResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.IsSystemTemplate {
		return nil, fmt.Errorf("%w: los catálogos del sistema no se modifican", domain.ErrForbidden)
	}
	code := normalizeCode(in.TemplateCode)
	if code != t.TemplateCode {
		other, err := uc.options.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != t.ID {
			return nil, fmt.Errorf("%w: ya existe un catálogo con código %s", domain.ErrDuplicate, code)
		}
	}
	items, err := optionTemplateItems(in.Items)
	if err != nil {
		return nil, err
	}
	t.TemplateCode = code
	fillOptionTemplate(t, in)
	t.UpdatedAt = uc.now()
	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		if err := r.Options.Update(ctx, t); err != nil {
			return err
		}
		return r.Options.ReplaceItems(ctx, t.ID, items)
	})
	if err != nil {
		return nil, err
	}
	t.Items = items
	out := toOptionTemplateResponse(t, true)
	return &out, nil
}

// Delete baja de un catálogo que no sea del sistema.
func (uc *OptionTemplateUseCase) Delete(ctx context.Context, id string) error {
	t, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if t.IsSystemTemplate {
		return fmt.Errorf("%w: los catálogos del sistema no se eliminan", domain.ErrForbidden)
	}
	return uc.options.Delete(ctx, id)
}

// Apply copia las opciones del catálogo a un ítem de selección de una plantilla en borrador
// y suma un uso al catálogo.
func (uc *OptionTemplateUseCase) Apply(ctx context.Context, id string, in dto.ApplyOptionTemplateRequest) ([]dto.OptionResponse, error) {
	src, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !src.IsActive {
		return nil, domain.Invalid("id", "el catálogo está inactivo")
	}
	it, err := uc.templates.GetItem(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, domain.ErrNotFound
	}
	t, err := uc.templates.GetByID(ctx, it.TemplateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if !t.IsDraft() {
		return nil, domain.ErrTemplateNotDraft
	}
	if !entity.IsOptionType(it.DataType) {
		return nil, domain.Invalid("item_id", "el tipo %s no admite opciones", it.DataType)
	}
	if types := splitFieldTypes(src.ApplicableFieldTypes); len(types) > 0 && !slices.Contains(types, it.DataType) {
		return nil, domain.Invalid("item_id", "el catálogo no aplica al tipo %s", it.DataType)
	}
	opts := make([]*entity.FormItemOption, 0, len(src.Items))
	for _, o := range src.Items {
		opts = append(opts, &entity.FormItemOption{
			ItemID:       it.ID,
			OptionValue:  o.OptionValue,
			OptionLabel:  o.OptionLabel,
			DisplayOrder: o.DisplayOrder,
			ScoreValue:   o.ScoreValue,
			ScoreWeight:  o.ScoreWeight,
			IsDefault:    o.IsDefault,
			IsActive:     true,
		})
	}
	err = uc.tx.Run(ctx, func(r ports.Repos) error {
		if err := r.Templates.ReplaceOptions(ctx, it.ID, opts); err != nil {
			return err
		}
		return r.Options.IncrementUsage(ctx, src.ID)
	})
	if err != nil {
		return nil, err
	}
	return toOptionResponses(opts), nil
}

func fillOptionTemplate(t *entity.OptionTemplate, in dto.OptionTemplateRequest) {
	t.TemplateName = strings.TrimSpace(in.TemplateName)
	t.Category = strings.TrimSpace(in.Category)
	t.SubCategory = strings.TrimSpace(in.SubCategory)
	t.Description = strings.TrimSpace(in.Description)
	t.DisplayOrder = in.DisplayOrder
	t.ApplicableFieldTypes = strings.Join(splitFieldTypes(in.ApplicableFieldTypes), ",")
	t.RecommendedFor = strings.TrimSpace(in.RecommendedFor)
	t.HasScoring = in.HasScoring
	t.ScoringType = strings.TrimSpace(in.ScoringType)
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
}

// optionTemplateItems valores únicos sin distinguir mayúsculas; a lo sumo una opción por defecto.
func optionTemplateItems(in []dto.OptionTemplateItemInput) ([]*entity.OptionTemplateItem, error) {
	errs := &domain.ValidationErrors{}
	seen := make(map[string]struct{}, len(in))
	defaults := 0
	out := make([]*entity.OptionTemplateItem, 0, len(in))
	for i, o := range in {
		value := strings.TrimSpace(o.OptionValue)
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			errs.Add("items", fmt.Sprintf("valor repetido en la posición %d: %s", i, value))
		}
		seen[key] = struct{}{}
		if o.IsDefault {
			defaults++
		}
		out = append(out, &entity.OptionTemplateItem{
			OptionValue:  value,
			OptionLabel:  strings.TrimSpace(o.OptionLabel),
			DisplayOrder: o.DisplayOrder,
			ScoreValue:   o.ScoreValue,
			ScoreWeight:  o.ScoreWeight,
			IconClass:    strings.TrimSpace(o.IconClass),
			ColorHint:    strings.TrimSpace(o.ColorHint),
			IsDefault:    o.IsDefault,
		})
	}
	if defaults > 1 {
		errs.Add("items", "solo una opción puede ser la predeterminada")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func splitFieldTypes(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func toOptionTemplateResponse(t *entity.OptionTemplate, withItems bool) dto.OptionTemplateResponse {
	out := dto.OptionTemplateResponse{
		ID:                   t.ID,
		TemplateName:         t.TemplateName,
		TemplateCode:         t.TemplateCode,
		Category:             t.Category,
		SubCategory:          t.SubCategory,
		Description:          t.Description,
		UsageCount:           t.UsageCount,
		DisplayOrder:         t.DisplayOrder,
		ApplicableFieldTypes: splitFieldTypes(t.ApplicableFieldTypes),
		RecommendedFor:       t.RecommendedFor,
		HasScoring:           t.HasScoring,
		ScoringType:          t.ScoringType,
		IsSystemTemplate:     t.IsSystemTemplate,
		IsActive:             t.IsActive,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
	if withItems {
		out.Items = make([]dto.OptionTemplateItemResponse, 0, len(t.Items))
		for _, o := range t.Items {
			out.Items = append(out.Items, dto.OptionTemplateItemResponse{
				ID:           o.ID,
				OptionValue:  o.OptionValue,
				OptionLabel:  o.OptionLabel,
				DisplayOrder: o.DisplayOrder,
				ScoreValue:   o.ScoreValue,
				ScoreWeight:  o.ScoreWeight,
				IconClass:    o.IconClass,
				ColorHint:    o.ColorHint,
				IsDefault:    o.IsDefault,
			})
		}
	}
	return out
}
