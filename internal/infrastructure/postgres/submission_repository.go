package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

var _ repository.SubmissionRepository = (*SubmissionRepo)(nil)

// SubmissionRepo persistencia de envíos y respuestas.
type SubmissionRepo struct {
	q Querier
}

// NewSubmissionRepository construye el adaptador de envíos.
func NewSubmissionRepository(q Querier) *SubmissionRepo {
	return &SubmissionRepo{q: q}
}

func selectSubmissions() sq.SelectBuilder {
	return builder().
		Select("fs.id", "fs.template_id", "fs.tenant_id", "fs.reporting_year", "fs.reporting_month", "fs.status",
			"fs.submitted_by", "fs.submitted_at", "fs.reviewed_by", "fs.reviewed_at", "fs.review_comments", "fs.is_late",
			"fs.created_by", "fs.created_at", "fs.updated_at", "ft.template_name", "COALESCE(t.tenant_name, '')").
		From("form_submissions fs").
		Join("form_templates ft ON ft.id = fs.template_id").
		LeftJoin("tenants t ON t.id = fs.tenant_id")
}

func scanSubmission(s scanner) (*entity.FormSubmission, error) {
	var x entity.FormSubmission
	err := s.Scan(&x.ID, &x.TemplateID, &x.TenantID, &x.ReportingYear, &x.ReportingMonth, &x.Status,
		&x.SubmittedBy, &x.SubmittedAt, &x.ReviewedBy, &x.ReviewedAt, &x.ReviewComments, &x.IsLate,
		&x.CreatedBy, &x.CreatedAt, &x.UpdatedAt, &x.TemplateName, &x.TenantName)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

// Create ErrDuplicate si ya existe un envío para (plantilla, tenant, año, mes).
func (r *SubmissionRepo) Create(ctx context.Context, s *entity.FormSubmission) error {
	ensureID(&s.ID)
	stamp(&s.CreatedAt, &s.UpdatedAt)
	_, err := r.q.Exec(ctx, `
		INSERT INTO form_submissions (id, template_id, tenant_id, reporting_year, reporting_month, status, submitted_by,
			submitted_at, reviewed_by, reviewed_at, review_comments, is_late, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ID, s.TemplateID, s.TenantID, s.ReportingYear, s.ReportingMonth, s.Status, s.SubmittedBy,
		s.SubmittedAt, s.ReviewedBy, s.ReviewedAt, s.ReviewComments, s.IsLate, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	return wrapErr("insert submission", err)
}

func (r *SubmissionRepo) Update(ctx context.Context, s *entity.FormSubmission) error {
	stamp(&s.UpdatedAt)
	tag, err := r.q.Exec(ctx, `
		UPDATE form_submissions SET reporting_year = $2, reporting_month = $3, status = $4, submitted_by = $5,
			submitted_at = $6, reviewed_by = $7, reviewed_at = $8, review_comments = $9, is_late = $10, updated_at = $11
		WHERE id = $1`,
		s.ID, s.ReportingYear, s.ReportingMonth, s.Status, s.SubmittedBy,
		s.SubmittedAt, s.ReviewedBy, s.ReviewedAt, s.ReviewComments, s.IsLate, s.UpdatedAt)
	return mustAffect(tag, wrapErr("update submission", err))
}

// Delete respuestas y logs de población caen en cascada.
func (r *SubmissionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM form_submissions WHERE id = $1`, id)
	return wrapErr("delete submission", err)
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*entity.FormSubmission, error) {
	return selectOne(ctx, r.q, "get submission", selectSubmissions().Where(sq.Eq{"fs.id": id}), scanSubmission)
}

func (r *SubmissionRepo) GetByPeriod(ctx context.Context, templateID, tenantID string, year, month int) (*entity.FormSubmission, error) {
	b := selectSubmissions().Where(sq.Eq{
		"fs.template_id":     templateID,
		"fs.tenant_id":       tenantID,
		"fs.reporting_year":  year,
		"fs.reporting_month": month,
	})
	return selectOne(ctx, r.q, "get submission by period", b, scanSubmission)
}

func submissionWhere(f repository.SubmissionFilter) sq.And {
	where := sq.And{}
	if f.TemplateID != "" {
		where = append(where, sq.Eq{"fs.template_id": f.TemplateID})
	}
	if f.TenantIDs != nil {
		where = append(where, inIDs("fs.tenant_id", f.TenantIDs))
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"fs.status": f.Status})
	}
	if f.ReportingYear != 0 {
		where = append(where, sq.Eq{"fs.reporting_year": f.ReportingYear})
	}
	if f.ReportingMonth != 0 {
		where = append(where, sq.Eq{"fs.reporting_month": f.ReportingMonth})
	}
	if f.SubmittedFrom != nil {
		where = append(where, sq.GtOrEq{"fs.submitted_at": *f.SubmittedFrom})
	}
	if f.SubmittedTo != nil {
		where = append(where, sq.LtOrEq{"fs.submitted_at": *f.SubmittedTo})
	}
	return where
}

func (r *SubmissionRepo) List(ctx context.Context, f repository.SubmissionFilter) ([]*entity.FormSubmission, int, error) {
	where := submissionWhere(f)
	total, err := count(ctx, r.q, "count submissions", builder().Select("COUNT(*)").From("form_submissions fs").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := page(selectSubmissions().Where(where).OrderBy("fs.created_at DESC"), f.Limit, f.Offset)
	subs, err := selectAll(ctx, r.q, "list submissions", b, scanSubmission)
	return subs, total, err
}

// ── Respuestas ────────────────────────────────────────────────────────────────

func (r *SubmissionRepo) ListResponses(ctx context.Context, submissionID string) ([]*entity.FormResponse, error) {
	b := builder().
		Select("id", "submission_id", "item_id", "text_value", "numeric_value", "date_value", "boolean_value",
			"selected_option_id", "selected_score_value", "selected_score_weight", "weighted_score", "created_at", "updated_at").
		From("form_responses").
		Where(sq.Eq{"submission_id": submissionID}).
		OrderBy("item_id")
	return selectAll(ctx, r.q, "list responses", b, func(s scanner) (*entity.FormResponse, error) {
		var x entity.FormResponse
		err := s.Scan(&x.ID, &x.SubmissionID, &x.ItemID, &x.TextValue, &x.NumericValue, &x.DateValue, &x.BooleanValue,
			&x.SelectedOptionID, &x.SelectedScoreValue, &x.SelectedScoreWeight, &x.WeightedScore, &x.CreatedAt, &x.UpdatedAt)
		return &x, err
	})
}

// UpsertResponse conserva ID y created_at de la respuesta existente.
func (r *SubmissionRepo) UpsertResponse(ctx context.Context, x *entity.FormResponse) error {
	ensureID(&x.ID)
	stamp(&x.CreatedAt, &x.UpdatedAt)
	row := r.q.QueryRow(ctx, `
		INSERT INTO form_responses (id, submission_id, item_id, text_value, numeric_value, date_value, boolean_value,
			selected_option_id, selected_score_value, selected_score_weight, weighted_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (submission_id, item_id) DO UPDATE SET
			text_value = EXCLUDED.text_value,
			numeric_value = EXCLUDED.numeric_value,
			date_value = EXCLUDED.date_value,
			boolean_value = EXCLUDED.boolean_value,
			selected_option_id = EXCLUDED.selected_option_id,
			selected_score_value = EXCLUDED.selected_score_value,
			selected_score_weight = EXCLUDED.selected_score_weight,
			weighted_score = EXCLUDED.weighted_score,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		x.ID, x.SubmissionID, x.ItemID, x.TextValue, x.NumericValue, x.DateValue, x.BooleanValue,
		x.SelectedOptionID, x.SelectedScoreValue, x.SelectedScoreWeight, x.WeightedScore, x.CreatedAt, x.UpdatedAt)
	if err := row.Scan(&x.ID, &x.CreatedAt); err != nil {
		return wrapErr("upsert response", err)
	}
	return nil
}

// ItemStats agrega las respuestas de envíos Submitted o Approved; ítems sin respuestas quedan con conteo 0.
func (r *SubmissionRepo) ItemStats(ctx context.Context, templateID string, tenantIDs []string) ([]repository.ItemStatResult, error) {
	join := `(form_responses fr JOIN form_submissions fs ON fs.id = fr.submission_id
		AND fs.status IN ('Submitted', 'Approved') AND fs.template_id = ?`
	args := []any{templateID}
	if tenantIDs != nil {
		join += ` AND fs.tenant_id = ANY(?::uuid[])`
		args = append(args, tenantIDs)
	}
	join += `) ON fr.item_id = i.id`

	b := builder().
		Select("i.id", "i.item_code", "i.item_name", "s.section_name", "i.data_type",
			"COUNT(fr.id)", "AVG(fr.numeric_value)", "MIN(fr.numeric_value)", "MAX(fr.numeric_value)").
		From("form_items i").
		Join("form_sections s ON s.id = i.section_id").
		LeftJoin(join, args...).
		Where(sq.Eq{"i.template_id": templateID, "i.is_active": true}).
		GroupBy("i.id", "i.item_code", "i.item_name", "s.section_name", "i.data_type", "s.display_order", "i.display_order").
		OrderBy("s.display_order", "i.display_order", "i.item_code")

	stats, err := selectAll(ctx, r.q, "item stats", b, func(s scanner) (*repository.ItemStatResult, error) {
		var x repository.ItemStatResult
		err := s.Scan(&x.ItemID, &x.ItemCode, &x.ItemName, &x.SectionName, &x.DataType,
			&x.ResponseCount, &x.Average, &x.Minimum, &x.Maximum)
		return &x, err
	})
	return deref(stats), err
}
