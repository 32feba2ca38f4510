package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var (
	_ repository.FormCategoryRepository = (*FormCategoryRepo)(nil)
	_ repository.FormTemplateRepository = (*FormTemplateRepo)(nil)
)

// ── Categorías ────────────────────────────────────────────────────────────────

// FormCategoryRepo persistencia de categorías de formularios.
type FormCategoryRepo struct {
	q Querier
}

// NewFormCategoryRepository construye el adaptador de categorías.
func NewFormCategoryRepository(q Querier) *FormCategoryRepo {
	return &FormCategoryRepo{q: q}
}

func selectCategories() sq.SelectBuilder {
	return builder().
		Select("id", "category_name", "description", "display_order", "is_active", "created_at", "updated_at").
		From("form_categories")
}

func scanCategory(s scanner) (*entity.FormCategory, error) {
	var c entity.FormCategory
	if err := s.Scan(&c.ID, &c.CategoryName, &c.Description, &c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *FormCategoryRepo) Create(ctx context.Context, c *entity.FormCategory) error {
	ensureID(&c.ID)
	stamp(&c.CreatedAt, &c.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_categories (id, category_name, description, display_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.CategoryName, c.Description, c.DisplayOrder, c.IsActive, c.CreatedAt, c.UpdatedAt)
	return wrapErr("insert form category", err)
}

func (r *FormCategoryRepo) Update(ctx context.Context, c *entity.FormCategory) error {
	stamp(&c.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_categories SET category_name = $2, description = $3, display_order = $4, is_active = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, c.CategoryName, c.Description, c.DisplayOrder, c.IsActive, c.UpdatedAt)
	return mustAffect(tag, wrapErr("update form category", err))
}

func (r *FormCategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM form_categories WHERE id = $1`, id)
	return wrapErr("delete form category", err)
}

func (r *FormCategoryRepo) GetByID(ctx context.Context, id string) (*entity.FormCategory, error) {
	return selectOne(ctx, r.q, "get form category", selectCategories().Where(sq.Eq{"id": id}), scanCategory)
}

func (r *FormCategoryRepo) List(ctx context.Context, p repository.ListParams) ([]*entity.FormCategory, int, error) {
	where := sq.And{}
	if p.OnlyActive {
		where = append(where, sq.Eq{"is_active": true})
	}
	if strings.TrimSpace(p.Search) != "" {
		where = append(where, ilike(p.Search, "category_name"))
	}
	total, err := count(ctx, r.q, "count form categories", builder().Select("COUNT(*)").From("form_categories").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(selectCategories().Where(where).OrderBy("display_order", "category_name"), p.Limit, p.Offset)
	cats, err := selectAll(ctx, r.q, "list form categories", b, scanCategory)
	return cats, total, err
}

func (r *FormCategoryRepo) CountTemplates(ctx context.Context, categoryID string) (int, error) {
	return count(ctx, r.q, "count category templates", builder().Select("COUNT(*)").From("form_templates").Where(sq.Eq{"category_id": categoryID}))
}

// ── Plantillas ────────────────────────────────────────────────────────────────

// FormTemplateRepo persistencia de plantillas y su estructura.
type FormTemplateRepo struct {
	q Querier
}

// NewFormTemplateRepository construye el adaptador de plantillas.
func NewFormTemplateRepository(q Querier) *FormTemplateRepo {
	return &FormTemplateRepo{q: q}
}

func selectTemplates() sq.SelectBuilder {
	return builder().
		Select("id", "category_id", "template_name", "template_code", "description", "template_type", "version",
			"publish_status", "requires_approval", "is_active", "created_by", "published_at", "created_at", "updated_at").
		From("form_templates")
}

func scanTemplate(s scanner) (*entity.FormTemplate, error) {
	var t entity.FormTemplate
	err := s.Scan(&t.ID, &t.CategoryID, &t.TemplateName, &t.TemplateCode, &t.Description, &t.TemplateType, &t.Version,
		&t.PublishStatus, &t.RequiresApproval, &t.IsActive, &t.CreatedBy, &t.PublishedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *FormTemplateRepo) Create(ctx context.Context, t *entity.FormTemplate) error {
	ensureID(&t.ID)
	stamp(&t.CreatedAt, &t.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_templates (id, category_id, template_name, template_code, description, template_type, version,
			publish_status, requires_approval, is_active, created_by, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.CategoryID, t.TemplateName, t.TemplateCode, t.Description, t.TemplateType, t.Version,
		t.PublishStatus, t.RequiresApproval, t.IsActive, t.CreatedBy, t.PublishedAt, t.CreatedAt, t.UpdatedAt)
	return wrapErr("insert form template", err)
}

func (r *FormTemplateRepo) Update(ctx context.Context, t *entity.FormTemplate) error {
	stamp(&t.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_templates SET category_id = $2, template_name = $3, description = $4, template_type = $5,
			publish_status = $6, requires_approval = $7, is_active = $8, published_at = $9, updated_at = $10
		WHERE id = $1`,
		t.ID, t.CategoryID, t.TemplateName, t.Description, t.TemplateType,
		t.PublishStatus, t.RequiresApproval, t.IsActive, t.PublishedAt, t.UpdatedAt)
	return mustAffect(tag, wrapErr("update form template", err))
}

func (r *FormTemplateRepo) GetByID(ctx context.Context, id string) (*entity.FormTemplate, error) {
	return selectOne(ctx, r.q, "get form template", selectTemplates().Where(sq.Eq{"id": id}), scanTemplate)
}

func (r *FormTemplateRepo) GetByCode(ctx context.Context, code string) (*entity.FormTemplate, error) {
	b := selectTemplates().Where(sq.Eq{"template_code": code}).OrderBy("version DESC").Limit(1)
	return selectOne(ctx, r.q, "get form template by code", b, scanTemplate)
}

func (r *FormTemplateRepo) ListVersions(ctx context.Context, code string) ([]*entity.FormTemplate, error) {
	b := selectTemplates().Where(sq.Eq{"template_code": code}).OrderBy("version DESC")
	return selectAll(ctx, r.q, "list form template versions", b, scanTemplate)
}

func (r *FormTemplateRepo) List(ctx context.Context, f repository.TemplateFilter) ([]*entity.FormTemplate, int, error) {
	where := sq.And{}
	if f.CategoryID != "" {
		where = append(where, sq.Eq{"category_id": f.CategoryID})
	}
	if f.PublishStatus != "" {
		where = append(where, sq.Eq{"publish_status": f.PublishStatus})
	}
	if f.OnlyActive {
		where = append(where, sq.Eq{"is_active": true})
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, ilike(f.Search, "template_name", "template_code"))
	}
	total, err := count(ctx, r.q, "count form templates", builder().Select("COUNT(*)").From("form_templates").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(selectTemplates().Where(where).OrderBy("template_code", "version DESC"), f.Limit, f.Offset)
	items, err := selectAll(ctx, r.q, "list form templates", b, scanTemplate)
	return items, total, err
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func selectSections() sq.SelectBuilder {
	return builder().
		Select("id", "template_id", "section_name", "description", "display_order", "weight", "is_active", "created_at", "updated_at").
		From("form_sections")
}

func scanSection(s scanner) (*entity.FormSection, error) {
	var x entity.FormSection
	err := s.Scan(&x.ID, &x.TemplateID, &x.SectionName, &x.Description, &x.DisplayOrder, &x.Weight, &x.IsActive, &x.CreatedAt, &x.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (r *FormTemplateRepo) CreateSection(ctx context.Context, s *entity.FormSection) error {
	ensureID(&s.ID)
	stamp(&s.CreatedAt, &s.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_sections (id, template_id, section_name, description, display_order, weight, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.TemplateID, s.SectionName, s.Description, s.DisplayOrder, s.Weight, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return wrapErr("insert form section", err)
}

func (r *FormTemplateRepo) UpdateSection(ctx context.Context, s *entity.FormSection) error {
	stamp(&s.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_sections SET section_name = $2, description = $3, display_order = $4, weight = $5, is_active = $6, updated_at = $7
		WHERE id = $1`,
		s.ID, s.SectionName, s.Description, s.DisplayOrder, s.Weight, s.IsActive, s.UpdatedAt)
	return mustAffect(tag, wrapErr("update form section", err))
}

func (r *FormTemplateRepo) DeleteSection(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM form_sections WHERE id = $1`, id)
	return wrapErr("delete form section", err)
}

func (r *FormTemplateRepo) GetSection(ctx context.Context, id string) (*entity.FormSection, error) {
	return selectOne(ctx, r.q, "get form section", selectSections().Where(sq.Eq{"id": id}), scanSection)
}

func (r *FormTemplateRepo) CountSectionItems(ctx context.Context, sectionID string) (int, error) {
	return count(ctx, r.q, "count section items", builder().Select("COUNT(*)").From("form_items").Where(sq.Eq{"section_id": sectionID}))
}

// ── Ítems ─────────────────────────────────────────────────────────────────────

func selectItems() sq.SelectBuilder {
	return builder().
		Select("i.id", "i.template_id", "i.section_id", "i.item_code", "i.item_name", "i.description", "i.data_type",
			"i.is_required", "i.display_order", "i.weight", "i.placeholder", "i.default_value", "i.is_active",
			"i.created_at", "i.updated_at", "s.section_name").
		From("form_items i").
		Join("form_sections s ON s.id = i.section_id")
}

func scanItem(s scanner) (*entity.FormItem, error) {
	var it entity.FormItem
	err := s.Scan(&it.ID, &it.TemplateID, &it.SectionID, &it.ItemCode, &it.ItemName, &it.Description, &it.DataType,
		&it.IsRequired, &it.DisplayOrder, &it.Weight, &it.Placeholder, &it.DefaultValue, &it.IsActive,
		&it.CreatedAt, &it.UpdatedAt, &it.SectionName)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *FormTemplateRepo) CreateItem(ctx context.Context, it *entity.FormItem) error {
	ensureID(&it.ID)
	stamp(&it.CreatedAt, &it.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_items (id, template_id, section_id, item_code, item_name, description, data_type, is_required,
			display_order, weight, placeholder, default_value, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		it.ID, it.TemplateID, it.SectionID, it.ItemCode, it.ItemName, it.Description, it.DataType, it.IsRequired,
		it.DisplayOrder, it.Weight, it.Placeholder, it.DefaultValue, it.IsActive, it.CreatedAt, it.UpdatedAt)
	return wrapErr("insert form item", err)
}

func (r *FormTemplateRepo) UpdateItem(ctx context.Context, it *entity.FormItem) error {
	stamp(&it.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_items SET section_id = $2, item_code = $3, item_name = $4, description = $5, data_type = $6,
			is_required = $7, display_order = $8, weight = $9, placeholder = $10, default_value = $11,
			is_active = $12, updated_at = $13
		WHERE id = $1`,
		it.ID, it.SectionID, it.ItemCode, it.ItemName, it.Description, it.DataType,
		it.IsRequired, it.DisplayOrder, it.Weight, it.Placeholder, it.DefaultValue,
		it.IsActive, it.UpdatedAt)
	return mustAffect(tag, wrapErr("update form item", err))
}

// DeleteItem opciones y validaciones caen en cascada.
func (r *FormTemplateRepo) DeleteItem(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM form_items WHERE id = $1`, id)
	return wrapErr("delete form item", err)
}

func (r *FormTemplateRepo) GetItem(ctx context.Context, id string) (*entity.FormItem, error) {
	return selectOne(ctx, r.q, "get form item", selectItems().Where(sq.Eq{"i.id": id}), scanItem)
}

func (r *FormTemplateRepo) GetItemByCode(ctx context.Context, templateID, code string) (*entity.FormItem, error) {
	b := selectItems().Where(sq.Eq{"i.template_id": templateID, "i.item_code": code})
	return selectOne(ctx, r.q, "get form item by code", b, scanItem)
}

func (r *FormTemplateRepo) ListItems(ctx context.Context, templateID string) ([]*entity.FormItem, error) {
	b := selectItems().
		Where(sq.Eq{"i.template_id": templateID, "i.is_active": true}).
		OrderBy("s.display_order", "i.display_order", "i.item_code")
	return selectAll(ctx, r.q, "list form items", b, scanItem)
}

// ── Opciones y validaciones ───────────────────────────────────────────────────

func (r *FormTemplateRepo) ReplaceOptions(ctx context.Context, itemID string, opts []*entity.FormItemOption) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM form_item_options WHERE item_id = $1`, itemID); err != nil {
		return wrapErr("clear item options", err)
	}
	if len(opts) == 0 {
		return nil
	}
	ins := builder().Insert("form_item_options").
		Columns("id", "item_id", "option_value", "option_label", "display_order", "score_value", "score_weight", "is_default", "is_active")
	for _, o := range opts {
		ensureID(&o.ID)
		o.ItemID = itemID
		ins = ins.Values(o.ID, itemID, o.OptionValue, o.OptionLabel, o.DisplayOrder, o.ScoreValue, o.ScoreWeight, o.IsDefault, o.IsActive)
	}
	_, err := exec(ctx, r.q, "insert item options", ins)
	return err
}

func (r *FormTemplateRepo) ReplaceValidations(ctx context.Context, itemID string, rules []*entity.FormItemValidation) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM form_item_validations WHERE item_id = $1`, itemID); err != nil {
		return wrapErr("clear item validations", err)
	}
	if len(rules) == 0 {
		return nil
	}
	ins := builder().Insert("form_item_validations").
		Columns("id", "item_id", "validation_type", "min_value", "max_value", "min_length", "max_length", "pattern", "error_message", "display_order")
	for _, v := range rules {
		ensureID(&v.ID)
		v.ItemID = itemID
		ins = ins.Values(v.ID, itemID, v.ValidationType, v.MinValue, v.MaxValue, v.MinLength, v.MaxLength, v.Pattern, v.ErrorMessage, v.DisplayOrder)
	}
	_, err := exec(ctx, r.q, "insert item validations", ins)
	return err
}

// GetStructure nil si la plantilla no existe.
func (r *FormTemplateRepo) GetStructure(ctx context.Context, templateID string) (*entity.TemplateStructure, error) {
	t, err := r.GetByID(ctx, templateID)
	if err != nil || t == nil {
		return nil, err
	}
	st := &entity.TemplateStructure{
		Template:    t,
		Options:     map[string][]*entity.FormItemOption{},
		Validations: map[string][]*entity.FormItemValidation{},
	}
	st.Sections, err = selectAll(ctx, r.q, "load sections",
		selectSections().Where(sq.Eq{"template_id": templateID, "is_active": true}).OrderBy("display_order"), scanSection)
	if err != nil {
		return nil, err
	}
	if st.Items, err = r.ListItems(ctx, templateID); err != nil {
		return nil, err
	}
	if len(st.Items) == 0 {
		return st, nil
	}
	ids := make([]string, len(st.Items))
	for i, it := range st.Items {
		ids[i] = it.ID
	}

	opts, err := selectAll(ctx, r.q, "load item options",
		builder().
			Select("id", "item_id", "option_value", "option_label", "display_order", "score_value", "score_weight", "is_default", "is_active").
			From("form_item_options").
			Where(sq.Eq{"item_id": ids, "is_active": true}).
			OrderBy("display_order", "option_label"),
		func(s scanner) (*entity.FormItemOption, error) {
			var o entity.FormItemOption
			err := s.Scan(&o.ID, &o.ItemID, &o.OptionValue, &o.OptionLabel, &o.DisplayOrder, &o.ScoreValue, &o.ScoreWeight, &o.IsDefault, &o.IsActive)
			return &o, err
		})
	if err != nil {
		return nil, err
	}
	for _, o := range opts {
		st.Options[o.ItemID] = append(st.Options[o.ItemID], o)
	}

	rules, err := selectAll(ctx, r.q, "load item validations",
		builder().
			Select("id", "item_id", "validation_type", "min_value", "max_value", "min_length", "max_length", "pattern", "error_message", "display_order").
			From("form_item_validations").
			Where(sq.Eq{"item_id": ids}).
			OrderBy("display_order"),
		func(s scanner) (*entity.FormItemValidation, error) {
			var v entity.FormItemValidation
			err := s.Scan(&v.ID, &v.ItemID, &v.ValidationType, &v.MinValue, &v.MaxValue, &v.MinLength, &v.MaxLength, &v.Pattern, &v.ErrorMessage, &v.DisplayOrder)
			return &v, err
		})
	if err != nil {
		return nil, err
	}
	for _, v := range rules {
		st.Validations[v.ItemID] = append(st.Validations[v.ItemID], v)
	}
	return st, nil
}
