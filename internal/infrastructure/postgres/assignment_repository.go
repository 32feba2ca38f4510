package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var (
	_ repository.FormAssignmentRepository = (*FormAssignmentRepo)(nil)
	_ repository.SubmissionRuleRepository = (*SubmissionRuleRepo)(nil)
	_ repository.OptionTemplateRepository = (*OptionTemplateRepo)(nil)
)

// ── Asignaciones ──────────────────────────────────────────────────────────────

// FormAssignmentRepo persistencia de asignaciones de plantillas.
type FormAssignmentRepo struct {
	q Querier
}

// NewFormAssignmentRepository construye el adaptador de asignaciones.
func NewFormAssignmentRepository(q Querier) *FormAssignmentRepo {
	return &FormAssignmentRepo{q: q}
}

func selectAssignments() sq.SelectBuilder {
	return builder().
		Select("fa.id", "fa.template_id", "fa.assignment_type", "fa.tenant_type", "fa.tenant_group_id", "fa.tenant_id",
			"fa.role_id", "fa.department_id", "fa.user_id", "fa.effective_from", "fa.effective_until", "fa.allow_anonymous",
			"fa.status", "fa.assigned_by", "fa.assigned_at", "fa.cancelled_by", "fa.cancelled_at", "fa.cancel_reason",
			"fa.notes", "fa.created_at", "fa.updated_at", "ft.template_name").
		From("form_assignments fa").
		Join("form_templates ft ON ft.id = fa.template_id")
}

func scanAssignment(s scanner) (*entity.FormAssignment, error) {
	var a entity.FormAssignment
	err := s.Scan(&a.ID, &a.TemplateID, &a.AssignmentType, &a.TenantType, &a.TenantGroupID, &a.TenantID,
		&a.RoleID, &a.DepartmentID, &a.UserID, &a.EffectiveFrom, &a.EffectiveUntil, &a.AllowAnonymous,
		&a.Status, &a.AssignedBy, &a.AssignedAt, &a.CancelledBy, &a.CancelledAt, &a.CancelReason,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt, &a.TemplateName)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *FormAssignmentRepo) Create(ctx context.Context, a *entity.FormAssignment) error {
	ensureID(&a.ID)
	stamp(&a.AssignedAt, &a.CreatedAt, &a.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_assignments (id, template_id, assignment_type, tenant_type, tenant_group_id, tenant_id, role_id,
			department_id, user_id, effective_from, effective_until, allow_anonymous, status, assigned_by, assigned_at,
			notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		a.ID, a.TemplateID, a.AssignmentType, a.TenantType, a.TenantGroupID, a.TenantID, a.RoleID,
		a.DepartmentID, a.UserID, a.EffectiveFrom, a.EffectiveUntil, a.AllowAnonymous, a.Status, a.AssignedBy, a.AssignedAt,
		a.Notes, a.CreatedAt, a.UpdatedAt)
	return wrapErr("insert form assignment", err)
}

// Update el destino de una asignación no cambia; se editan período, estado y notas.
func (r *FormAssignmentRepo) Update(ctx context.Context, a *entity.FormAssignment) error {
	stamp(&a.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_assignments SET effective_from = $2, effective_until = $3, allow_anonymous = $4, status = $5,
			cancelled_by = $6, cancelled_at = $7, cancel_reason = $8, notes = $9, updated_at = $10
		WHERE id = $1`,
		a.ID, a.EffectiveFrom, a.EffectiveUntil, a.AllowAnonymous, a.Status,
		a.CancelledBy, a.CancelledAt, a.CancelReason, a.Notes, a.UpdatedAt)
	return mustAffect(tag, wrapErr("update form assignment", err))
}

func (r *FormAssignmentRepo) GetByID(ctx context.Context, id string) (*entity.FormAssignment, error) {
	return selectOne(ctx, r.q, "get form assignment", selectAssignments().Where(sq.Eq{"fa.id": id}), scanAssignment)
}

func effectiveAt(at time.Time) sq.Sqlizer {
	return sq.And{
		sq.Eq{"fa.status": entity.AssignmentActive},
		sq.LtOrEq{"fa.effective_from": at},
		sq.Or{sq.Eq{"fa.effective_until": nil}, sq.GtOrEq{"fa.effective_until": at}},
	}
}

func (r *FormAssignmentRepo) List(ctx context.Context, f repository.AssignmentFilter) ([]*entity.FormAssignment, int, error) {
	where := sq.And{}
	if f.TemplateID != "" {
		where = append(where, sq.Eq{"fa.template_id": f.TemplateID})
	}
	if f.AssignmentType != "" {
		where = append(where, sq.Eq{"fa.assignment_type": f.AssignmentType})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"fa.status": f.Status})
	}
	if f.EffectiveAt != nil {
		where = append(where, effectiveAt(*f.EffectiveAt))
	}
	if f.ExpiredAt != nil {
		where = append(where, sq.Lt{"fa.effective_until": *f.ExpiredAt})
	}
	total, err := count(ctx, r.q, "count form assignments", builder().Select("COUNT(*)").From("form_assignments fa").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(selectAssignments().Where(where).OrderBy("fa.assigned_at DESC"), f.Limit, f.Offset)
	items, err := selectAll(ctx, r.q, "list form assignments", b, scanAssignment)
	return items, total, err
}

func (r *FormAssignmentRepo) ListByTemplate(ctx context.Context, templateID string) ([]*entity.FormAssignment, error) {
	b := selectAssignments().Where(sq.Eq{"fa.template_id": templateID}).OrderBy("fa.assigned_at")
	return selectAll(ctx, r.q, "list template assignments", b, scanAssignment)
}

func (r *FormAssignmentRepo) ListEffective(ctx context.Context, at time.Time) ([]*entity.FormAssignment, error) {
	b := selectAssignments().
		Where(effectiveAt(at)).
		Where(sq.Eq{"ft.publish_status": entity.PublishPublished, "ft.is_active": true}).
		OrderBy("ft.template_name", "fa.assigned_at")
	return selectAll(ctx, r.q, "list effective assignments", b, scanAssignment)
}

func (r *FormAssignmentRepo) RevokeExpired(ctx context.Context, at time.Time, reason string) (int, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE form_assignments SET status = $1, cancelled_at = $2, cancel_reason = $3, updated_at = $2
		WHERE status = $4 AND effective_until IS NOT NULL AND effective_until < $2`,
		entity.AssignmentRevoked, at, reason, entity.AssignmentActive)
	if err != nil {
		return 0, wrapErr("revoke expired assignments", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *FormAssignmentRepo) Counts(ctx context.Context, templateID string, at time.Time) (*repository.AssignmentCounts, error) {
	where := sq.And{}
	if templateID != "" {
		where = append(where, sq.Eq{"fa.template_id": templateID})
	}
	row, err := queryRow(ctx, r.q, builder().
		Select("COUNT(*)",
			"COUNT(*) FILTER (WHERE fa.status = 'Active')",
			"COUNT(*) FILTER (WHERE fa.status = 'Suspended')",
			"COUNT(*) FILTER (WHERE fa.status = 'Revoked')").
		Column(sq.Expr("COUNT(*) FILTER (WHERE fa.effective_until IS NOT NULL AND fa.effective_until < ?)", at)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE fa.status = 'Active' AND fa.effective_from <= ? AND (fa.effective_until IS NULL OR fa.effective_until >= ?))", at, at)).
		Column("COUNT(*) FILTER (WHERE fa.allow_anonymous)").
		From("form_assignments fa").Where(where))
	if err != nil {
		return nil, fmt.Errorf("assignment counts: build: %w", err)
	}
	c := &repository.AssignmentCounts{ByType: map[string]int{}}
	if err := row.Scan(&c.Total, &c.Active, &c.Suspended, &c.Revoked, &c.Expired, &c.Effective, &c.Anonymous); err != nil {
		return nil, fmt.Errorf("assignment counts: %w", err)
	}

	sql, args, err := builder().Select("fa.assignment_type", "COUNT(*)").From("form_assignments fa").
		Where(where).GroupBy("fa.assignment_type").ToSql()
	if err != nil {
		return nil, fmt.Errorf("assignment counts by type: build: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("assignment counts by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("assignment counts by type: scan: %w", err)
		}
		c.ByType[kind] = n
	}
	return c, rows.Err()
}

// ── Reglas de envío ───────────────────────────────────────────────────────────

// SubmissionRuleRepo persistencia de fechas límite de plantillas.
type SubmissionRuleRepo struct {
	q Querier
}

// NewSubmissionRuleRepository construye el adaptador de reglas de envío.
func NewSubmissionRuleRepository(q Querier) *SubmissionRuleRepo {
	return &SubmissionRuleRepo{q: q}
}

func selectRules() sq.SelectBuilder {
	return builder().
		Select("id", "template_id", "rule_name", "description", "frequency", "due_day", "due_month", "due_time",
			"specific_due_date", "grace_period_days", "allow_late_submission", "reminder_days_before", "status",
			"created_by", "created_at", "updated_at").
		From("form_submission_rules")
}

func scanRule(s scanner) (*entity.SubmissionRule, error) {
	var x entity.SubmissionRule
	err := s.Scan(&x.ID, &x.TemplateID, &x.RuleName, &x.Description, &x.Frequency, &x.DueDay, &x.DueMonth, &x.DueTime,
		&x.SpecificDueDate, &x.GracePeriodDays, &x.AllowLateSubmission, &x.ReminderDaysBefore, &x.Status,
		&x.CreatedBy, &x.CreatedAt, &x.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (r *SubmissionRuleRepo) Create(ctx context.Context, x *entity.SubmissionRule) error {
	ensureID(&x.ID)
	stamp(&x.CreatedAt, &x.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_submission_rules (id, template_id, rule_name, description, frequency, due_day, due_month, due_time,
			specific_due_date, grace_period_days, allow_late_submission, reminder_days_before, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		x.ID, x.TemplateID, x.RuleName, x.Description, x.Frequency, x.DueDay, x.DueMonth, x.DueTime,
		x.SpecificDueDate, x.GracePeriodDays, x.AllowLateSubmission, x.ReminderDaysBefore, x.Status, x.CreatedBy, x.CreatedAt, x.UpdatedAt)
	return wrapErr("insert submission rule", err)
}

func (r *SubmissionRuleRepo) Update(ctx context.Context, x *entity.SubmissionRule) error {
	stamp(&x.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_submission_rules SET rule_name = $2, description = $3, frequency = $4, due_day = $5, due_month = $6,
			due_time = $7, specific_due_date = $8, grace_period_days = $9, allow_late_submission = $10,
			reminder_days_before = $11, status = $12, updated_at = $13
		WHERE id = $1`,
		x.ID, x.RuleName, x.Description, x.Frequency, x.DueDay, x.DueMonth,
		x.DueTime, x.SpecificDueDate, x.GracePeriodDays, x.AllowLateSubmission,
		x.ReminderDaysBefore, x.Status, x.UpdatedAt)
	return mustAffect(tag, wrapErr("update submission rule", err))
}

func (r *SubmissionRuleRepo) Delete(ctx context.Context, id string) error {
	return mustAffect(exec(ctx, r.q, "delete submission rule", builder().Delete("form_submission_rules").Where(sq.Eq{"id": id})))
}

func (r *SubmissionRuleRepo) GetByID(ctx context.Context, id string) (*entity.SubmissionRule, error) {
	return selectOne(ctx, r.q, "get submission rule", selectRules().Where(sq.Eq{"id": id}), scanRule)
}

func (r *SubmissionRuleRepo) ListByTemplate(ctx context.Context, templateID string) ([]*entity.SubmissionRule, error) {
	b := selectRules().Where(sq.Eq{"template_id": templateID}).OrderBy("rule_name")
	return selectAll(ctx, r.q, "list submission rules", b, scanRule)
}

func (r *SubmissionRuleRepo) ListActive(ctx context.Context) ([]*entity.SubmissionRule, error) {
	b := selectRules().Where(sq.Eq{"status": entity.RuleActive}).OrderBy("template_id", "created_at")
	return selectAll(ctx, r.q, "list active submission rules", b, scanRule)
}

// ── Catálogos de opciones ─────────────────────────────────────────────────────

// OptionTemplateRepo persistencia de catálogos reutilizables de opciones.
type OptionTemplateRepo struct {
	q Querier
}

// NewOptionTemplateRepository construye el adaptador de catálogos de opciones.
func NewOptionTemplateRepository(q Querier) *OptionTemplateRepo {
	return &OptionTemplateRepo{q: q}
}

func selectOptionTemplates() sq.SelectBuilder {
	return builder().
		Select("id", "template_name", "template_code", "category", "sub_category", "description", "usage_count",
			"display_order", "applicable_field_types", "recommended_for", "has_scoring", "scoring_type",
			"is_system_template", "tenant_id", "is_active", "created_by", "created_at", "updated_at").
		From("option_templates")
}

func scanOptionTemplate(s scanner) (*entity.OptionTemplate, error) {
	var t entity.OptionTemplate
	err := s.Scan(&t.ID, &t.TemplateName, &t.TemplateCode, &t.Category, &t.SubCategory, &t.Description, &t.UsageCount,
		&t.DisplayOrder, &t.ApplicableFieldTypes, &t.RecommendedFor, &t.HasScoring, &t.ScoringType,
		&t.IsSystemTemplate, &t.TenantID, &t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanOptionTemplateItem(s scanner) (*entity.OptionTemplateItem, error) {
	var it entity.OptionTemplateItem
	err := s.Scan(&it.ID, &it.TemplateID, &it.OptionValue, &it.OptionLabel, &it.DisplayOrder,
		&it.ScoreValue, &it.ScoreWeight, &it.IconClass, &it.ColorHint, &it.IsDefault)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *OptionTemplateRepo) Create(ctx context.Context, t *entity.OptionTemplate) error {
	ensureID(&t.ID)
	stamp(&t.CreatedAt, &t.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO option_templates (id, template_name, template_code, category, sub_category, description, usage_count,
			display_order, applicable_field_types, recommended_for, has_scoring, scoring_type, is_system_template,
			tenant_id, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		t.ID, t.TemplateName, t.TemplateCode, t.Category, t.SubCategory, t.Description, t.UsageCount,
		t.DisplayOrder, t.ApplicableFieldTypes, t.RecommendedFor, t.HasScoring, t.ScoringType, t.IsSystemTemplate,
		t.TenantID, t.IsActive, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return wrapErr("insert option template", err)
}

func (r *OptionTemplateRepo) Update(ctx context.Context, t *entity.OptionTemplate) error {
	stamp(&t.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE option_templates SET template_name = $2, category = $3, sub_category = $4, description = $5,
			display_order = $6, applicable_field_types = $7, recommended_for = $8, has_scoring = $9, scoring_type = $10,
			is_active = $11, updated_at = $12
		WHERE id = $1`,
		t.ID, t.TemplateName, t.Category, t.SubCategory, t.Description,
		t.DisplayOrder, t.ApplicableFieldTypes, t.RecommendedFor, t.HasScoring, t.ScoringType,
		t.IsActive, t.UpdatedAt)
	return mustAffect(tag, wrapErr("update option template", err))
}

// Delete las opciones caen en cascada.
func (r *OptionTemplateRepo) Delete(ctx context.Context, id string) error {
	return mustAffect(exec(ctx, r.q, "delete option template", builder().Delete("option_templates").Where(sq.Eq{"id": id})))
}

func (r *OptionTemplateRepo) withItems(ctx context.Context, t *entity.OptionTemplate, err error) (*entity.OptionTemplate, error) {
	if t == nil || err != nil {
		return t, err
	}
	b := builder().
		Select("id", "template_id", "option_value", "option_label", "display_order", "score_value", "score_weight",
			"icon_class", "color_hint", "is_default").
		From("option_template_items").
		Where(sq.Eq{"template_id": t.ID}).
		OrderBy("display_order", "option_label")
	t.Items, err = selectAll(ctx, r.q, "list option template items", b, scanOptionTemplateItem)
	return t, err
}

func (r *OptionTemplateRepo) GetByID(ctx context.Context, id string) (*entity.OptionTemplate, error) {
	t, err := selectOne(ctx, r.q, "get option template", selectOptionTemplates().Where(sq.Eq{"id": id}), scanOptionTemplate)
	return r.withItems(ctx, t, err)
}

func (r *OptionTemplateRepo) GetByCode(ctx context.Context, code string) (*entity.OptionTemplate, error) {
	b := selectOptionTemplates().Where("lower(template_code) = lower(?)", code)
	t, err := selectOne(ctx, r.q, "get option template by code", b, scanOptionTemplate)
	return r.withItems(ctx, t, err)
}

func (r *OptionTemplateRepo) List(ctx context.Context, f repository.OptionTemplateFilter) ([]*entity.OptionTemplate, int, error) {
	where := sq.And{}
	if f.OnlyActive {
		where = append(where, sq.Eq{"is_active": true})
	}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if f.FieldType != "" {
		where = append(where, sq.Expr("? = ANY(string_to_array(replace(applicable_field_types, ' ', ''), ','))", f.FieldType))
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, ilike(f.Search, "template_name", "template_code", "description"))
	}
	total, err := count(ctx, r.q, "count option templates", builder().Select("COUNT(*)").From("option_templates").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(selectOptionTemplates().Where(where).OrderBy("category", "display_order", "template_name"), f.Limit, f.Offset)
	items, err := selectAll(ctx, r.q, "list option templates", b, scanOptionTemplate)
	return items, total, err
}

func (r *OptionTemplateRepo) Categories(ctx context.Context) ([]string, error) {
	return selectStrings(ctx, r.q, "list option template categories",
		`SELECT DISTINCT category FROM option_templates WHERE is_active AND category <> '' ORDER BY category`)
}

func (r *OptionTemplateRepo) ReplaceItems(ctx context.Context, templateID string, items []*entity.OptionTemplateItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM option_template_items WHERE template_id = $1`, templateID); err != nil {
		return wrapErr("delete option template items", err)
	}
	for _, it := range items {
		ensureID(&it.ID)
		it.TemplateID = templateID
		_, err := r.q.Exec(ctx, `
			INSERT INTO option_template_items (id, template_id, option_value, option_label, display_order, score_value,
				score_weight, icon_class, color_hint, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, it.TemplateID, it.OptionValue, it.OptionLabel, it.DisplayOrder, it.ScoreValue,
			it.ScoreWeight, it.IconClass, it.ColorHint, it.IsDefault)
		if err != nil {
			return wrapErr("insert option template item", err)
		}
	}
	return nil
}

func (r *OptionTemplateRepo) IncrementUsage(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE option_templates SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1`, id)
	return mustAffect(tag, wrapErr("increment option template usage", err))
}
