package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/forms"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/jhoicas/form-reporting-api/internal/domain/scoring"
	"github.com/rs/zerolog/log"
)

// SubmissionUseCase ciclo de vida de envíos: borrador, respuestas, adjuntos, envío y revisión.
type SubmissionUseCase struct {
	submissions repository.SubmissionRepository
	templates   repository.FormTemplateRepository
	scope       TenantScope
	storage     ports.ObjectStorage
	populator   MetricPopulator
	tx          ports.TxRunner
	assignments AssignmentGate
	timing      SubmissionTiming
	now         func() time.Time
}

// NewSubmissionUseCase construye el caso de uso de envíos.
func NewSubmissionUseCase(
	submissions repository.SubmissionRepository,
	templates repository.FormTemplateRepository,
	scope TenantScope,
	storage ports.ObjectStorage,
	populator MetricPopulator,
	tx ports.TxRunner,
	assignments AssignmentGate,
	timing SubmissionTiming,
) *SubmissionUseCase {
	return &SubmissionUseCase{
		submissions: submissions,
		templates:   templates,
		scope:       scope,
		storage:     storage,
		populator:   populator,
		tx:          tx,
		assignments: assignments,
		timing:      timing,
		now:         time.Now,
	}
}

// List envíos de los tenants visibles, más recientes primero.
func (uc *SubmissionUseCase) List(ctx context.Context, c *access.Claims, in dto.SubmissionListRequest) (dto.ListResponse[dto.SubmissionResponse], error) {
	in.DefaultPage()
	allowed, err := uc.scope.Restriction(ctx, c)
	if err != nil {
		return dto.ListResponse[dto.SubmissionResponse]{}, err
	}
	tenantIDs, ok := restrict(allowed, in.TenantID)
	if !ok {
		return dto.ListResponse[dto.SubmissionResponse]{}, domain.ErrForbidden
	}
	items, total, err := uc.submissions.List(ctx, repository.SubmissionFilter{
		TemplateID:     in.TemplateID,
		TenantIDs:      tenantIDs,
		Status:         in.Status,
		ReportingYear:  in.ReportingYear,
		ReportingMonth: in.ReportingMonth,
		SubmittedFrom:  in.SubmittedFrom,
		SubmittedTo:    in.SubmittedTo,
		Limit:          in.Limit,
		Offset:         in.Offset,
	})
	if err != nil {
		return dto.ListResponse[dto.SubmissionResponse]{}, err
	}
	out := make([]dto.SubmissionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toSubmissionResponse(s))
	}
	return dto.NewList(out, in.PageRequest, total), nil
}

// load envío accesible para el solicitante.
func (uc *SubmissionUseCase) load(ctx context.Context, c *access.Claims, id string) (*entity.FormSubmission, error) {
	s, err := uc.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if s.TenantID != nil {
		ok, err := uc.scope.CanAccessTenant(ctx, c, *s.TenantID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrForbidden
		}
	} else if !c.HasGlobalScope() {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

func (uc *SubmissionUseCase) structure(ctx context.Context, templateID string) (*entity.TemplateStructure, error) {
	st, err := uc.templates.GetStructure(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

// Get envío con respuestas legibles y puntaje general.
func (uc *SubmissionUseCase) Get(ctx context.Context, c *access.Claims, id string) (*dto.SubmissionDetailResponse, error) {
	s, err := uc.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	st, err := uc.structure(ctx, s.TemplateID)
	if err != nil {
		return nil, err
	}
	responses, err := uc.submissions.ListResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string]*entity.FormResponse, len(responses))
	for _, r := range responses {
		byItem[r.ItemID] = r
	}
	out := &dto.SubmissionDetailResponse{SubmissionResponse: toSubmissionResponse(s), Answers: []dto.AnswerResponse{}}
	for _, it := range st.Items {
		r, ok := byItem[it.ID]
		if !ok {
			continue
		}
		out.Answers = append(out.Answers, dto.AnswerResponse{
			ItemID:           it.ID,
			ItemCode:         it.ItemCode,
			ItemName:         it.ItemName,
			DataType:         it.DataType,
			DisplayValue:     forms.DisplayValue(r),
			NumericValue:     r.NumericValue,
			BooleanValue:     r.BooleanValue,
			DateValue:        r.DateValue,
			SelectedOptionID: r.SelectedOptionID,
			WeightedScore:    r.WeightedScore,
		})
	}
	out.OverallScore = scoring.Overall(st, responses)
	return out, nil
}

// Create abre un borrador. Solo plantillas publicadas y activas; uno por (plantilla, tenant, período).
func (uc *SubmissionUseCase) Create(ctx context.Context, c *access.Claims, in dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error) {
	if err := forms.Period(in.ReportingYear, in.ReportingMonth); err != nil {
		return nil, err
	}
	t, err := uc.templates.GetByID(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.Invalid("template_id", "plantilla inexistente")
	}
	if t.PublishStatus != entity.PublishPublished || !t.IsActive {
		return nil, domain.Invalid("template_id", "la plantilla no está publicada")
	}
	ok, err := uc.scope.CanAccessTenant(ctx, c, in.TenantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	if err := uc.assignments.CheckSubmission(ctx, c, t.ID, in.TenantID); err != nil {
		return nil, err
	}
	existing, err := uc.submissions.GetByPeriod(ctx, in.TemplateID, in.TenantID, in.ReportingYear, in.ReportingMonth)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe un envío para %s", domain.ErrDuplicate, forms.PeriodLabel(in.ReportingYear, in.ReportingMonth))
	}
	now := uc.now()
	tenantID := in.TenantID
	s := &entity.FormSubmission{
		TemplateID:     t.ID,
		TenantID:       &tenantID,
		ReportingYear:  in.ReportingYear,
		ReportingMonth: in.ReportingMonth,
		Status:         entity.SubmissionDraft,
		CreatedBy:      c.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		TemplateName:   t.TemplateName,
	}
	if err := uc.submissions.Create(ctx, s); err != nil {
		return nil, err
	}
	out := toSubmissionResponse(s)
	return &out, nil
}

func (uc *SubmissionUseCase) loadEditable(ctx context.Context, c *access.Claims, id string) (*entity.FormSubmission, error) {
	s, err := uc.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if !s.IsEditable() {
		return nil, fmt.Errorf("%w: el envío está en estado %s", domain.ErrInvalidTransition, s.Status)
	}
	return s, nil
}

// SaveResponses convierte y guarda respuestas en una transacción. Un valor inválido no guarda ninguna.
func (uc *SubmissionUseCase) SaveResponses(ctx context.Context, c *access.Claims, id string, in dto.SaveResponsesRequest) error {
	s, err := uc.loadEditable(ctx, c, id)
	if err != nil {
		return err
	}
	st, err := uc.structure(ctx, s.TemplateID)
	if err != nil {
		return err
	}
	now := uc.now()
	var errs domain.ValidationErrors
	responses := make([]*entity.FormResponse, 0, len(in.Responses))
	for _, ri := range in.Responses {
		item := st.ItemByID(ri.ItemID)
		if item == nil || !item.IsActive {
			errs.Add(ri.ItemID, "el ítem no pertenece a la plantilla")
			continue
		}
		if entity.IsFileType(item.DataType) {
			errs.Add(item.ItemCode, "los archivos se suben por separado")
			continue
		}
		resp := &entity.FormResponse{SubmissionID: s.ID, ItemID: item.ID, CreatedAt: now, UpdatedAt: now}
		err := forms.Apply(item, st.Options[item.ID], forms.Input{
			ItemID:       ri.ItemID,
			Value:        ri.Value,
			NumericValue: ri.NumericValue,
			BooleanValue: ri.BooleanValue,
			DateValue:    ri.DateValue,
			OptionID:     ri.OptionID,
			OptionIDs:    ri.OptionIDs,
		}, resp)
		var verrs domain.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			errs = append(errs, verrs...)
			continue
		case err != nil:
			return err
		}
		responses = append(responses, resp)
	}
	if err := errs.OrNil(); err != nil {
		return err
	}
	return uc.tx.Run(ctx, func(r ports.Repos) error {
		for _, resp := range responses {
			if err := r.Submissions.UpsertResponse(ctx, resp); err != nil {
				return err
			}
		}
		s.UpdatedAt = now
		return r.Submissions.Update(ctx, s)
	})
}

// UploadFile guarda un adjunto para un ítem de archivo/imagen/firma y registra su clave como respuesta.
func (uc *SubmissionUseCase) UploadFile(ctx context.Context, c *access.Claims, id, itemID, filename, contentType string, data []byte) (*dto.FileResponse, error) {
	s, err := uc.loadEditable(ctx, c, id)
	if err != nil {
		return nil, err
	}
	st, err := uc.structure(ctx, s.TemplateID)
	if err != nil {
		return nil, err
	}
	item := st.ItemByID(itemID)
	if item == nil || !entity.IsFileType(item.DataType) {
		return nil, domain.Invalid("item_id", "el ítem no admite archivos")
	}
	if len(data) == 0 {
		return nil, domain.Invalid("file", "archivo vacío")
	}
	key := FileKey(s.ID, item.ID, filename)
	if err := uc.storage.Put(ctx, key, contentType, data); err != nil {
		return nil, err
	}

	previous := uc.fileKey(ctx, s.ID, item.ID)
	now := uc.now()
	resp := &entity.FormResponse{SubmissionID: s.ID, ItemID: item.ID, TextValue: &key, CreatedAt: now, UpdatedAt: now}
	if err := uc.submissions.UpsertResponse(ctx, resp); err != nil {
		return nil, err
	}
	if previous != "" && previous != key {
		if err := uc.storage.Remove(ctx, previous); err != nil {
			log.Warn().Err(err).Str("key", previous).Msg("storage: no se pudo borrar el adjunto anterior")
		}
	}
	return &dto.FileResponse{ItemID: item.ID, Key: key, Size: len(data)}, nil
}

// DownloadFile contenido del adjunto de un ítem.
func (uc *SubmissionUseCase) DownloadFile(ctx context.Context, c *access.Claims, id, itemID string) ([]byte, string, string, error) {
	s, err := uc.load(ctx, c, id)
	if err != nil {
		return nil, "", "", err
	}
	key := uc.fileKey(ctx, s.ID, itemID)
	if key == "" {
		return nil, "", "", domain.ErrNotFound
	}
	data, contentType, err := uc.storage.Get(ctx, key)
	if err != nil {
		return nil, "", "", err
	}
	return data, contentType, path.Base(key), nil
}

func (uc *SubmissionUseCase) fileKey(ctx context.Context, submissionID, itemID string) string {
	responses, err := uc.submissions.ListResponses(ctx, submissionID)
	if err != nil {
		return ""
	}
	for _, r := range responses {
		if r.ItemID == itemID && r.TextValue != nil {
			return *r.TextValue
		}
	}
	return ""
}

// FileKey submissions/{envío}/{ítem}/{uuid}-{nombre}.
func FileKey(submissionID, itemID, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return fmt.Sprintf("submissions/%s/%s/%s-%s", submissionID, itemID, uuid.NewString(), name)
}

// Submit valida el envío completo. Pasa a InApproval si la plantilla requiere aprobación, si no a Submitted.
func (uc *SubmissionUseCase) Submit(ctx context.Context, c *access.Claims, id string) (*dto.SubmissionResponse, error) {
	s, err := uc.loadEditable(ctx, c, id)
	if err != nil {
		return nil, err
	}
	st, err := uc.structure(ctx, s.TemplateID)
	if err != nil {
		return nil, err
	}
	responses, err := uc.submissions.ListResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := forms.ValidateSubmission(st, responses); err != nil {
		return nil, err
	}
	now := uc.now()
	late, err := uc.timing.CheckTiming(ctx, s, now)
	if err != nil {
		return nil, err
	}
	s.IsLate = late
	s.Status = entity.SubmissionSubmitted
	if st.Template.RequiresApproval {
		s.Status = entity.SubmissionInApproval
	}
	by := c.UserID
	s.SubmittedBy = &by
	s.SubmittedAt = &now
	s.ReviewedBy, s.ReviewedAt, s.ReviewComments = nil, nil, ""
	s.UpdatedAt = now
	if err := uc.submissions.Update(ctx, s); err != nil {
		return nil, err
	}
	uc.populate(ctx, s)
	out := toSubmissionResponse(s)
	return &out, nil
}

// Review aprueba o rechaza un envío en aprobación. El rechazo requiere comentarios.
func (uc *SubmissionUseCase) Review(ctx context.Context, c *access.Claims, id string, in dto.ReviewRequest) (*dto.SubmissionResponse, error) {
	s, err := uc.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if s.Status != entity.SubmissionInApproval {
		return nil, fmt.Errorf("%w: solo se revisan envíos en aprobación", domain.ErrInvalidTransition)
	}
	comments := strings.TrimSpace(in.Comments)
	if !in.Approve && comments == "" {
		return nil, domain.Invalid("comments", "el rechazo requiere comentarios")
	}
	now := uc.now()
	s.Status = entity.SubmissionRejected
	if in.Approve {
		s.Status = entity.SubmissionApproved
	}
	by := c.UserID
	s.ReviewedBy = &by
	s.ReviewedAt = &now
	s.ReviewComments = comments
	s.UpdatedAt = now
	if err := uc.submissions.Update(ctx, s); err != nil {
		return nil, err
	}
	uc.populate(ctx, s)
	out := toSubmissionResponse(s)
	return &out, nil
}

// populate dispara la población de métricas en estados finales. Los fallos solo se registran.
func (uc *SubmissionUseCase) populate(ctx context.Context, s *entity.FormSubmission) {
	if !s.IsFinal() || uc.populator == nil {
		return
	}
	if err := uc.populator.PopulateSubmission(ctx, s.ID); err != nil {
		log.Error().Err(err).Str("submission_id", s.ID).Msg("población de métricas fallida")
	}
}

// Delete elimina un borrador y sus adjuntos.
func (uc *SubmissionUseCase) Delete(ctx context.Context, c *access.Claims, id string) error {
	s, err := uc.load(ctx, c, id)
	if err != nil {
		return err
	}
	if s.Status != entity.SubmissionDraft {
		return fmt.Errorf("%w: solo se eliminan borradores", domain.ErrInvalidTransition)
	}
	responses, err := uc.submissions.ListResponses(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.submissions.Delete(ctx, id); err != nil {
		return err
	}
	prefix := "submissions/" + id + "/"
	for _, r := range responses {
		if r.TextValue != nil && strings.HasPrefix(*r.TextValue, prefix) {
			if err := uc.storage.Remove(ctx, *r.TextValue); err != nil {
				log.Warn().Err(err).Str("key", *r.TextValue).Msg("storage: adjunto huérfano")
			}
		}
	}
	return nil
}

// Breakdown desglose de puntajes por sección y campo.
func (uc *SubmissionUseCase) Breakdown(ctx context.Context, c *access.Claims, id string) (*dto.ScoreBreakdownResponse, error) {
	s, err := uc.load(ctx, c, id)
	if err != nil {
		return nil, err
	}
	st, err := uc.structure(ctx, s.TemplateID)
	if err != nil {
		return nil, err
	}
	responses, err := uc.submissions.ListResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	b := scoring.Calculate(st, responses)
	out := &dto.ScoreBreakdownResponse{
		SubmissionID: s.ID,
		OverallScore: b.OverallScore,
		Sections:     make([]dto.SectionScoreResponse, 0, len(b.Sections)),
		Fields:       make([]dto.FieldScoreResponse, 0, len(b.Fields)),
	}
	for _, sec := range b.Sections {
		out.Sections = append(out.Sections, dto.SectionScoreResponse{SectionID: sec.SectionID, SectionName: sec.SectionName, Score: sec.Score, Weight: sec.Weight})
	}
	for _, f := range b.Fields {
		out.Fields = append(out.Fields, dto.FieldScoreResponse{ItemID: f.ItemID, ItemName: f.ItemName, SectionName: f.SectionName, Score: f.Score, Weight: f.Weight})
	}
	return out, nil
}

// FieldPerformance estadísticas por campo de una plantilla sobre los tenants visibles.
func (uc *SubmissionUseCase) FieldPerformance(ctx context.Context, c *access.Claims, templateID string) ([]dto.FieldPerformanceResponse, error) {
	allowed, err := uc.scope.Restriction(ctx, c)
	if err != nil {
		return nil, err
	}
	stats, err := uc.submissions.ItemStats(ctx, templateID, allowed)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FieldPerformanceResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, dto.FieldPerformanceResponse{
			ItemID:        s.ItemID,
			ItemCode:      s.ItemCode,
			ItemName:      s.ItemName,
			SectionName:   s.SectionName,
			DataType:      s.DataType,
			ResponseCount: s.ResponseCount,
			Average:       s.Average,
			Minimum:       s.Minimum,
			Maximum:       s.Maximum,
		})
	}
	return out, nil
}

func toSubmissionResponse(s *entity.FormSubmission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		ID:             s.ID,
		TemplateID:     s.TemplateID,
		TemplateName:   s.TemplateName,
		TenantID:       s.TenantID,
		TenantName:     s.TenantName,
		ReportingYear:  s.ReportingYear,
		ReportingMonth: s.ReportingMonth,
		Period:         forms.PeriodLabel(s.ReportingYear, s.ReportingMonth),
		Status:         s.Status,
		SubmittedBy:    s.SubmittedBy,
		SubmittedAt:    s.SubmittedAt,
		ReviewedBy:     s.ReviewedBy,
		ReviewedAt:     s.ReviewedAt,
		ReviewComments: s.ReviewComments,
		IsLate:         s.IsLate,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
