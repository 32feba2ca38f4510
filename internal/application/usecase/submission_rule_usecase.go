package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/forms"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// SubmissionRuleUseCase fechas límite de envío por plantilla.
type SubmissionRuleUseCase struct {
	rules     repository.SubmissionRuleRepository
	templates repository.FormTemplateRepository
	now       func() time.Time
}

// NewSubmissionRuleUseCase construye el caso de uso de reglas de envío.
func NewSubmissionRuleUseCase(rules repository.SubmissionRuleRepository, templates repository.FormTemplateRepository) *SubmissionRuleUseCase {
	return &SubmissionRuleUseCase{rules: rules, templates: templates, now: time.Now}
}

// activeRule primera regla activa de la plantilla por nombre; nil si no hay.
func activeRule(ctx context.Context, rules repository.SubmissionRuleRepository, templateID string) (*entity.SubmissionRule, error) {
	all, err := rules.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if r.Status == entity.RuleActive {
			return r, nil
		}
	}
	return nil, nil
}

// ListByTemplate reglas de una plantilla con su próxima fecha límite.
func (uc *SubmissionRuleUseCase) ListByTemplate(ctx context.Context, templateID string) ([]dto.SubmissionRuleResponse, error) {
	rules, err := uc.rules.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := make([]dto.SubmissionRuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRuleResponse(r, now))
	}
	return out, nil
}

func (uc *SubmissionRuleUseCase) load(ctx context.Context, id string) (*entity.SubmissionRule, error) {
	r, err := uc.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// Get regla con su próxima fecha límite.
func (uc *SubmissionRuleUseCase) Get(ctx context.Context, id string) (*dto.SubmissionRuleResponse, error) {
	r, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toRuleResponse(r, uc.now())
	return &out, nil
}

// Create alta de regla sobre una plantilla existente y no archivada.
func (uc *SubmissionRuleUseCase) Create(ctx context.Context, actorID, templateID string, in dto.SubmissionRuleRequest) (*dto.SubmissionRuleResponse, error) {
	t, err := uc.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if t.PublishStatus == entity.PublishArchived {
		return nil, fmt.Errorf("%w: la plantilla está archivada", domain.ErrInvalidTransition)
	}
	now := uc.now()
	r := &entity.SubmissionRule{
		TemplateID:          t.ID,
		AllowLateSubmission: true,
		Status:              entity.RuleActive,
		CreatedBy:           actorID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	applyRule(r, in)
	if err := forms.ValidateSubmissionRule(r); err != nil {
		return nil, err
	}
	if err := uc.rules.Create(ctx, r); err != nil {
		return nil, err
	}
	out := toRuleResponse(r, now)
	return &out, nil
}

// Update modificación de una regla.
func (uc *SubmissionRuleUseCase) Update(ctx context.Context, id string, in dto.SubmissionRuleRequest) (*dto.SubmissionRuleResponse, error) {
	r, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyRule(r, in)
	if err := forms.ValidateSubmissionRule(r); err != nil {
		return nil, err
	}
	now := uc.now()
	r.UpdatedAt = now
	if err := uc.rules.Update(ctx, r); err != nil {
		return nil, err
	}
	out := toRuleResponse(r, now)
	return &out, nil
}

func applyRule(r *entity.SubmissionRule, in dto.SubmissionRuleRequest) {
	r.RuleName = strings.TrimSpace(in.RuleName)
	r.Description = strings.TrimSpace(in.Description)
	r.Frequency = in.Frequency
	r.DueDay = in.DueDay
	r.DueMonth = in.DueMonth
	r.DueTime = in.DueTime
	r.SpecificDueDate = in.SpecificDueDate
	r.GracePeriodDays = in.GracePeriodDays
	if in.AllowLateSubmission != nil {
		r.AllowLateSubmission = *in.AllowLateSubmission
	}
	r.ReminderDaysBefore = strings.ReplaceAll(in.ReminderDaysBefore, " ", "")
	if in.Status != "" {
		r.Status = in.Status
	}
}

// Delete baja de una regla.
func (uc *SubmissionRuleUseCase) Delete(ctx context.Context, id string) error {
	return uc.rules.Delete(ctx, id)
}

// Timing evalúa un envío de la plantilla para el período y momento dados.
func (uc *SubmissionRuleUseCase) Timing(ctx context.Context, templateID string, in dto.TimingRequest) (*dto.TimingResponse, error) {
	at := uc.now()
	if in.At != nil {
		at = *in.At
	}
	t, err := uc.evaluate(ctx, templateID, in.ReportingYear, in.ReportingMonth, at)
	if err != nil {
		return nil, err
	}
	return &dto.TimingResponse{
		CanSubmit:      t.CanSubmit,
		IsLate:         t.IsLate,
		WithinGrace:    t.WithinGrace,
		DueDate:        t.DueDate,
		GracePeriodEnd: t.GracePeriodEnd,
		Message:        t.Message,
	}, nil
}

func (uc *SubmissionRuleUseCase) evaluate(ctx context.Context, templateID string, year, month int, at time.Time) (forms.Timing, error) {
	rule, err := activeRule(ctx, uc.rules, templateID)
	if err != nil {
		return forms.Timing{}, err
	}
	return forms.EvaluateTiming(rule, year, month, at), nil
}

// CheckTiming ErrSubmissionClosed si la fecha límite y la gracia pasaron y la regla no admite tardíos.
// Devuelve si el envío es tardío.
func (uc *SubmissionRuleUseCase) CheckTiming(ctx context.Context, s *entity.FormSubmission, at time.Time) (bool, error) {
	t, err := uc.evaluate(ctx, s.TemplateID, s.ReportingYear, s.ReportingMonth, at)
	if err != nil {
		return false, err
	}
	if !t.CanSubmit {
		return true, fmt.Errorf("%w: %s", domain.ErrSubmissionClosed, t.Message)
	}
	return t.IsLate, nil
}

// Reminders reglas activas con recordatorio para la fecha dada.
func (uc *SubmissionRuleUseCase) Reminders(ctx context.Context, forDate time.Time) ([]dto.SubmissionRuleResponse, error) {
	rules, err := uc.rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := []dto.SubmissionRuleResponse{}
	for _, r := range rules {
		if forms.NeedsReminder(r, forDate) {
			out = append(out, toRuleResponse(r, forDate))
		}
	}
	return out, nil
}

func toRuleResponse(r *entity.SubmissionRule, now time.Time) dto.SubmissionRuleResponse {
	days, _ := forms.ParseReminderDays(r.ReminderDaysBefore)
	return dto.SubmissionRuleResponse{
		ID:                  r.ID,
		TemplateID:          r.TemplateID,
		RuleName:            r.RuleName,
		Description:         r.Description,
		Frequency:           r.Frequency,
		DueDay:              r.DueDay,
		DueMonth:            r.DueMonth,
		DueTime:             r.DueTime,
		SpecificDueDate:     r.SpecificDueDate,
		NextDueDate:         forms.NextDueDate(r, now.UTC()),
		GracePeriodDays:     r.GracePeriodDays,
		AllowLateSubmission: r.AllowLateSubmission,
		ReminderDaysBefore:  r.ReminderDaysBefore,
		ReminderDays:        days,
		Status:              r.Status,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}
