package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/forms"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/rs/zerolog/log"
)

// expiredReason motivo registrado al revocar asignaciones vencidas.
const expiredReason = "vigencia terminada"

// AssignmentUseCase asignación de plantillas a tenants, roles, departamentos o usuarios.
type AssignmentUseCase struct {
	assignments repository.FormAssignmentRepository
	templates   repository.FormTemplateRepository
	tenants     repository.TenantRepository
	groups      repository.TenantGroupRepository
	roles       repository.RoleRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	submissions repository.SubmissionRepository
	rules       repository.SubmissionRuleRepository
	now         func() time.Time
}

// NewAssignmentUseCase construye el caso de uso de asignaciones.
func NewAssignmentUseCase(
	assignments repository.FormAssignmentRepository,
	templates repository.FormTemplateRepository,
	tenants repository.TenantRepository,
	groups repository.TenantGroupRepository,
	roles repository.RoleRepository,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
	submissions repository.SubmissionRepository,
	rules repository.SubmissionRuleRepository,
) *AssignmentUseCase {
	return &AssignmentUseCase{
		assignments: assignments,
		templates:   templates,
		tenants:     tenants,
		groups:      groups,
		roles:       roles,
		users:       users,
		departments: departments,
		submissions: submissions,
		rules:       rules,
		now:         time.Now,
	}
}

// List asignaciones filtradas, más recientes primero.
func (uc *AssignmentUseCase) List(ctx context.Context, in dto.AssignmentListRequest) (dto.ListResponse[dto.AssignmentResponse], error) {
	in.DefaultPage()
	f := repository.AssignmentFilter{
		TemplateID:     in.TemplateID,
		AssignmentType: in.AssignmentType,
		Status:         in.Status,
		Limit:          in.Limit,
		Offset:         in.Offset,
	}
	now := uc.now()
	if in.EffectiveOnly {
		f.EffectiveAt = &now
	}
	if in.ExpiredOnly {
		f.ExpiredAt = &now
	}
	items, total, err := uc.assignments.List(ctx, f)
	if err != nil {
		return dto.ListResponse[dto.AssignmentResponse]{}, err
	}
	out := make([]dto.AssignmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, uc.toResponse(a, now))
	}
	return dto.NewList(out, in.PageRequest, total), nil
}

func (uc *AssignmentUseCase) load(ctx context.Context, id string) (*entity.FormAssignment, error) {
	a, err := uc.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// Get asignación con cantidad de destinatarios y avance de envíos del mes en curso.
func (uc *AssignmentUseCase) Get(ctx context.Context, id string) (*dto.AssignmentDetailResponse, error) {
	a, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	targets, err := uc.targets(ctx, a)
	if err != nil {
		return nil, err
	}
	tenantIDs, err := uc.targetTenantIDs(ctx, a, targets)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	completed := 0
	if len(tenantIDs) > 0 {
		subs, _, err := uc.submissions.List(ctx, repository.SubmissionFilter{
			TemplateID:     a.TemplateID,
			TenantIDs:      tenantIDs,
			ReportingYear:  now.Year(),
			ReportingMonth: int(now.Month()),
		})
		if err != nil {
			return nil, err
		}
		for _, s := range subs {
			if isCompleted(s) {
				completed++
			}
		}
	}
	return &dto.AssignmentDetailResponse{
		AssignmentResponse:   uc.toResponse(a, now),
		TargetCount:          len(targets),
		CompletedSubmissions: completed,
		PendingSubmissions:   max(len(tenantIDs)-completed, 0),
	}, nil
}

func isCompleted(s *entity.FormSubmission) bool {
	return s.Status != entity.SubmissionDraft && s.Status != entity.SubmissionRejected
}

// Create alta de asignación sobre una plantilla no archivada.
func (uc *AssignmentUseCase) Create(ctx context.Context, actorID string, in dto.AssignmentRequest) (*dto.AssignmentResponse, error) {
	t, err := uc.templates.GetByID(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.Invalid("template_id", "plantilla inexistente")
	}
	if t.PublishStatus == entity.PublishArchived {
		return nil, domain.Invalid("template_id", "la plantilla está archivada")
	}
	now := uc.now()
	a := &entity.FormAssignment{
		TemplateID:     t.ID,
		AssignmentType: in.AssignmentType,
		EffectiveFrom:  now,
		EffectiveUntil: in.EffectiveUntil,
		AllowAnonymous: in.AllowAnonymous,
		Status:         entity.AssignmentActive,
		AssignedBy:     actorID,
		AssignedAt:     now,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
		TemplateName:   t.TemplateName,
	}
	if in.EffectiveFrom != nil {
		a.EffectiveFrom = *in.EffectiveFrom
	}
	if err := validPeriod(a.EffectiveFrom, a.EffectiveUntil); err != nil {
		return nil, err
	}
	if err := uc.setTarget(ctx, a, in); err != nil {
		return nil, err
	}
	if err := uc.assignments.Create(ctx, a); err != nil {
		return nil, err
	}
	out := uc.toResponse(a, now)
	return &out, nil
}

func validPeriod(from time.Time, until *time.Time) error {
	if until != nil && until.Before(from) {
		return domain.Invalid("effective_until", "debe ser posterior al inicio de vigencia")
	}
	return nil
}

// setTarget copia y verifica el destino que exige el tipo de asignación.
func (uc *AssignmentUseCase) setTarget(ctx context.Context, a *entity.FormAssignment, in dto.AssignmentRequest) error {
	required := func(field string, v *string) (string, error) {
		if v == nil || strings.TrimSpace(*v) == "" {
			return "", domain.Invalid(field, "obligatorio para asignaciones %s", a.AssignmentType)
		}
		return strings.TrimSpace(*v), nil
	}
	missing := func(field string) error { return domain.Invalid(field, "no existe") }

	switch a.AssignmentType {
	case entity.AssignAll:
		return nil
	case entity.AssignTenantType:
		v, err := required("tenant_type", in.TenantType)
		if err != nil {
			return err
		}
		if !entity.ValidTenantType(v) {
			return domain.Invalid("tenant_type", "tipo de tenant inválido")
		}
		a.TenantType = &v
	case entity.AssignTenantGroup:
		v, err := required("tenant_group_id", in.TenantGroupID)
		if err != nil {
			return err
		}
		g, err := uc.groups.GetByID(ctx, v)
		if err != nil {
			return err
		}
		if g == nil {
			return missing("tenant_group_id")
		}
		a.TenantGroupID = &v
	case entity.AssignSpecificTenant:
		v, err := required("tenant_id", in.TenantID)
		if err != nil {
			return err
		}
		t, err := uc.tenants.GetByID(ctx, v)
		if err != nil {
			return err
		}
		if t == nil {
			return missing("tenant_id")
		}
		a.TenantID = &v
	case entity.AssignRole:
		v, err := required("role_id", in.RoleID)
		if err != nil {
			return err
		}
		r, err := uc.roles.GetByID(ctx, v)
		if err != nil {
			return err
		}
		if r == nil {
			return missing("role_id")
		}
		a.RoleID = &v
	case entity.AssignDepartment:
		v, err := required("department_id", in.DepartmentID)
		if err != nil {
			return err
		}
		d, err := uc.departments.GetByID(ctx, v)
		if err != nil {
			return err
		}
		if d == nil {
			return missing("department_id")
		}
		a.DepartmentID = &v
	case entity.AssignSpecificUser:
		v, err := required("user_id", in.UserID)
		if err != nil {
			return err
		}
		u, err := uc.users.GetByID(ctx, v)
		if err != nil {
			return err
		}
		if u == nil {
			return missing("user_id")
		}
		a.UserID = &v
	default:
		return domain.Invalid("assignment_type", "tipo no soportado")
	}
	return nil
}

// Update cambia período, anonimato, estado y notas. El destino es inmutable.
func (uc *AssignmentUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error) {
	a, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validPeriod(in.EffectiveFrom, in.EffectiveUntil); err != nil {
		return nil, err
	}
	now := uc.now()
	a.EffectiveFrom = in.EffectiveFrom
	a.EffectiveUntil = in.EffectiveUntil
	a.AllowAnonymous = in.AllowAnonymous
	a.Notes = strings.TrimSpace(in.Notes)
	if in.Status != a.Status {
		switch in.Status {
		case entity.AssignmentRevoked:
			uc.markCancelled(a, actorID, "revocada al editar", now)
		case entity.AssignmentActive:
			a.CancelledBy, a.CancelledAt, a.CancelReason = nil, nil, ""
		}
		a.Status = in.Status
	}
	a.UpdatedAt = now
	if err := uc.assignments.Update(ctx, a); err != nil {
		return nil, err
	}
	out := uc.toResponse(a, now)
	return &out, nil
}

func (uc *AssignmentUseCase) markCancelled(a *entity.FormAssignment, actorID, reason string, now time.Time) {
	by := actorID
	a.Status = entity.AssignmentRevoked
	a.CancelledBy = &by
	a.CancelledAt = &now
	a.CancelReason = reason
}

// Cancel revoca una asignación con motivo.
func (uc *AssignmentUseCase) Cancel(ctx context.Context, actorID, id, reason string) (*dto.AssignmentResponse, error) {
	a, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.cancel(ctx, a, actorID, reason); err != nil {
		return nil, err
	}
	out := uc.toResponse(a, uc.now())
	return &out, nil
}

func (uc *AssignmentUseCase) cancel(ctx context.Context, a *entity.FormAssignment, actorID, reason string) error {
	if a.Status == entity.AssignmentRevoked {
		return fmt.Errorf("%w: la asignación ya está revocada", domain.ErrInvalidTransition)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Invalid("reason", "el motivo es obligatorio")
	}
	now := uc.now()
	uc.markCancelled(a, actorID, reason, now)
	a.UpdatedAt = now
	return uc.assignments.Update(ctx, a)
}

// Extend mueve el fin de vigencia. Una asignación revocada vuelve a activa si la nueva fecha es futura.
func (uc *AssignmentUseCase) Extend(ctx context.Context, id string, until time.Time) (*dto.AssignmentResponse, error) {
	a, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.extend(ctx, a, until); err != nil {
		return nil, err
	}
	out := uc.toResponse(a, uc.now())
	return &out, nil
}

func (uc *AssignmentUseCase) extend(ctx context.Context, a *entity.FormAssignment, until time.Time) error {
	if err := validPeriod(a.EffectiveFrom, &until); err != nil {
		return err
	}
	now := uc.now()
	a.EffectiveUntil = &until
	if a.Status == entity.AssignmentRevoked && until.After(now) {
		a.Status = entity.AssignmentActive
		a.CancelledBy, a.CancelledAt, a.CancelReason = nil, nil, ""
	}
	a.UpdatedAt = now
	return uc.assignments.Update(ctx, a)
}

// Suspend pausa una asignación activa y deja el motivo en las notas.
func (uc *AssignmentUseCase) Suspend(ctx context.Context, id, reason string) (*dto.AssignmentResponse, error) {
	a, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != entity.AssignmentActive {
		return nil, fmt.Errorf("%w: solo se suspenden asignaciones activas", domain.ErrInvalidTransition)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalid("reason", "el motivo es obligatorio")
	}
	now := uc.now()
	a.Status = entity.AssignmentSuspended
	a.Notes = strings.TrimSpace(a.Notes + "\n[Suspendida: " + reason + "]")
	a.UpdatedAt = now
	if err := uc.assignments.Update(ctx, a); err != nil {
		return nil, err
	}
	out := uc.toResponse(a, now)
	return &out, nil
}

// Reactivate vuelve a activa una asignación suspendida o revocada que no haya vencido.
func (uc *AssignmentUseCase) Reactivate(ctx context.Context, id string) (*dto.AssignmentResponse, error) {
	a, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if a.Status == entity.AssignmentActive {
		return nil, fmt.Errorf("%w: la asignación ya está activa", domain.ErrInvalidTransition)
	}
	if a.IsExpired(now) {
		return nil, fmt.Errorf("%w: la vigencia terminó, extiéndala antes de reactivar", domain.ErrInvalidTransition)
	}
	a.Status = entity.AssignmentActive
	a.CancelledBy, a.CancelledAt, a.CancelReason = nil, nil, ""
	a.UpdatedAt = now
	if err := uc.assignments.Update(ctx, a); err != nil {
		return nil, err
	}
	out := uc.toResponse(a, now)
	return &out, nil
}

// BulkExtend extiende cada asignación; los fallos individuales no detienen el resto.
func (uc *AssignmentUseCase) BulkExtend(ctx context.Context, in dto.BulkExtendRequest) dto.BulkResultResponse {
	return uc.bulk(ctx, in.IDs, func(a *entity.FormAssignment) error { return uc.extend(ctx, a, in.EffectiveUntil) })
}

// BulkCancel revoca cada asignación con el mismo motivo.
func (uc *AssignmentUseCase) BulkCancel(ctx context.Context, actorID string, in dto.BulkCancelRequest) dto.BulkResultResponse {
	return uc.bulk(ctx, in.IDs, func(a *entity.FormAssignment) error { return uc.cancel(ctx, a, actorID, in.Reason) })
}

func (uc *AssignmentUseCase) bulk(ctx context.Context, ids []string, fn func(*entity.FormAssignment) error) dto.BulkResultResponse {
	out := dto.BulkResultResponse{}
	for _, id := range ids {
		a, err := uc.load(ctx, id)
		if err == nil {
			err = fn(a)
		}
		if err != nil {
			if out.Failed == nil {
				out.Failed = map[string]string{}
			}
			out.Failed[id] = err.Error()
			continue
		}
		out.Updated++
	}
	return out
}

// ExpireOverdue revoca las asignaciones activas cuya vigencia terminó.
func (uc *AssignmentUseCase) ExpireOverdue(ctx context.Context) (int, error) {
	n, err := uc.assignments.RevokeExpired(ctx, uc.now(), expiredReason)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("asignaciones vencidas revocadas")
	}
	return n, nil
}

// Statistics agregados de asignaciones, de una plantilla o de todas.
func (uc *AssignmentUseCase) Statistics(ctx context.Context, templateID string) (*dto.AssignmentStatsResponse, error) {
	c, err := uc.assignments.Counts(ctx, templateID, uc.now())
	if err != nil {
		return nil, err
	}
	return &dto.AssignmentStatsResponse{
		Total:     c.Total,
		Active:    c.Active,
		Suspended: c.Suspended,
		Revoked:   c.Revoked,
		Expired:   c.Expired,
		Effective: c.Effective,
		Anonymous: c.Anonymous,
		ByType:    c.ByType,
	}, nil
}

// Targets tenants o usuarios que alcanza una asignación.
func (uc *AssignmentUseCase) Targets(ctx context.Context, id string) ([]dto.AssignmentTargetResponse, error) {
	a, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.targets(ctx, a)
}

func (uc *AssignmentUseCase) targets(ctx context.Context, a *entity.FormAssignment) ([]dto.AssignmentTargetResponse, error) {
	var (
		tenants []*entity.Tenant
		users   []*entity.User
		err     error
	)
	switch a.AssignmentType {
	case entity.AssignAll:
		tenants, _, err = uc.tenants.List(ctx, repository.TenantFilter{OnlyActive: true})
	case entity.AssignTenantType:
		tenants, _, err = uc.tenants.List(ctx, repository.TenantFilter{TenantType: str(a.TenantType), OnlyActive: true})
	case entity.AssignTenantGroup:
		tenants, err = uc.groups.ListMembers(ctx, str(a.TenantGroupID))
	case entity.AssignSpecificTenant:
		var t *entity.Tenant
		if t, err = uc.tenants.GetByID(ctx, str(a.TenantID)); t != nil {
			tenants = append(tenants, t)
		}
	case entity.AssignRole:
		var ids []string
		if ids, err = uc.roles.ListUserIDs(ctx, str(a.RoleID)); err == nil {
			users, err = uc.usersByID(ctx, ids)
		}
	case entity.AssignDepartment:
		users, _, err = uc.users.List(ctx, repository.UserFilter{DepartmentID: str(a.DepartmentID), OnlyActive: true})
	case entity.AssignSpecificUser:
		users, err = uc.usersByID(ctx, []string{str(a.UserID)})
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.AssignmentTargetResponse, 0, len(tenants)+len(users))
	for _, t := range tenants {
		out = append(out, dto.AssignmentTargetResponse{Kind: "Tenant", ID: t.ID, Code: t.TenantCode, Name: t.TenantName})
	}
	for _, u := range users {
		out = append(out, dto.AssignmentTargetResponse{Kind: "User", ID: u.ID, Code: u.UserName, Name: strings.TrimSpace(u.FirstName + " " + u.LastName)})
	}
	return out, nil
}

func (uc *AssignmentUseCase) usersByID(ctx context.Context, ids []string) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		u, err := uc.users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

// targetTenantIDs tenants que deben enviar: los destinos directos o los tenants de los usuarios destino.
func (uc *AssignmentUseCase) targetTenantIDs(ctx context.Context, a *entity.FormAssignment, targets []dto.AssignmentTargetResponse) ([]string, error) {
	var ids []string
	for _, t := range targets {
		id := t.ID
		if t.Kind == "User" {
			u, err := uc.users.GetByID(ctx, t.ID)
			if err != nil {
				return nil, err
			}
			if u == nil {
				continue
			}
			id = u.TenantID
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// requester identidad contra la que se resuelven las asignaciones.
type requester struct {
	userID       string
	tenantID     string
	departmentID string
	roleIDs      []string
}

func (uc *AssignmentUseCase) requesterOf(ctx context.Context, c *access.Claims, tenantID string) (*requester, error) {
	roles, err := uc.users.ListRoles(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	r := &requester{userID: c.UserID, tenantID: tenantID, departmentID: c.DepartmentID}
	for _, role := range roles {
		if role.IsActive {
			r.roleIDs = append(r.roleIDs, role.ID)
		}
	}
	return r, nil
}

func (uc *AssignmentUseCase) matches(ctx context.Context, a *entity.FormAssignment, r *requester) (bool, error) {
	switch a.AssignmentType {
	case entity.AssignAll:
		return true, nil
	case entity.AssignTenantType:
		t, err := uc.tenants.GetByID(ctx, r.tenantID)
		if err != nil || t == nil {
			return false, err
		}
		return t.TenantType == str(a.TenantType), nil
	case entity.AssignTenantGroup:
		members, err := uc.groups.ListMembers(ctx, str(a.TenantGroupID))
		if err != nil {
			return false, err
		}
		return slices.ContainsFunc(members, func(t *entity.Tenant) bool { return t.ID == r.tenantID }), nil
	case entity.AssignSpecificTenant:
		return str(a.TenantID) == r.tenantID, nil
	case entity.AssignRole:
		return slices.Contains(r.roleIDs, str(a.RoleID)), nil
	case entity.AssignDepartment:
		return r.departmentID != "" && str(a.DepartmentID) == r.departmentID, nil
	case entity.AssignSpecificUser:
		return str(a.UserID) == r.userID, nil
	}
	return false, nil
}

// CheckSubmission una plantilla sin asignaciones está abierta a todos. Con asignaciones,
// el solicitante o el tenant del envío debe coincidir con alguna vigente.
func (uc *AssignmentUseCase) CheckSubmission(ctx context.Context, c *access.Claims, templateID, tenantID string) error {
	all, err := uc.assignments.ListByTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}
	r, err := uc.requesterOf(ctx, c, tenantID)
	if err != nil {
		return err
	}
	now := uc.now()
	for _, a := range all {
		if !a.IsEffective(now) {
			continue
		}
		ok, err := uc.matches(ctx, a, r)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: la plantilla no está asignada a este usuario o tenant", domain.ErrForbidden)
}

// Mine plantillas asignadas al usuario con el estado de su envío en el período (por defecto el mes actual).
func (uc *AssignmentUseCase) Mine(ctx context.Context, c *access.Claims, in dto.MyAssignmentsRequest) ([]dto.MyAssignmentResponse, error) {
	now := uc.now()
	year, month := in.ReportingYear, in.ReportingMonth
	if year == 0 || month == 0 {
		year, month = now.Year(), int(now.Month())
	}
	effective, err := uc.assignments.ListEffective(ctx, now)
	if err != nil {
		return nil, err
	}
	r, err := uc.requesterOf(ctx, c, c.TenantID)
	if err != nil {
		return nil, err
	}
	out := []dto.MyAssignmentResponse{}
	seen := map[string]bool{}
	for _, a := range effective {
		if seen[a.TemplateID] {
			continue
		}
		ok, err := uc.matches(ctx, a, r)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		seen[a.TemplateID] = true
		item := dto.MyAssignmentResponse{
			AssignmentID:   a.ID,
			TemplateID:     a.TemplateID,
			TemplateName:   a.TemplateName,
			EffectiveUntil: a.EffectiveUntil,
			Status:         "Pending",
		}
		if c.TenantID != "" {
			s, err := uc.submissions.GetByPeriod(ctx, a.TemplateID, c.TenantID, year, month)
			if err != nil {
				return nil, err
			}
			if s != nil {
				id := s.ID
				item.SubmissionID = &id
				item.Status = s.Status
			}
		}
		if in.PendingOnly && item.SubmissionID != nil && item.Status != entity.SubmissionDraft && item.Status != entity.SubmissionRejected {
			continue
		}
		rule, err := activeRule(ctx, uc.rules, a.TemplateID)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			item.DueDate = forms.PeriodDueDate(rule, year, month)
		}
		out = append(out, item)
	}
	return out, nil
}

func (uc *AssignmentUseCase) toResponse(a *entity.FormAssignment, now time.Time) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:             a.ID,
		TemplateID:     a.TemplateID,
		TemplateName:   a.TemplateName,
		AssignmentType: a.AssignmentType,
		Target:         targetLabel(a),
		TenantType:     a.TenantType,
		TenantGroupID:  a.TenantGroupID,
		TenantID:       a.TenantID,
		RoleID:         a.RoleID,
		DepartmentID:   a.DepartmentID,
		UserID:         a.UserID,
		EffectiveFrom:  a.EffectiveFrom,
		EffectiveUntil: a.EffectiveUntil,
		AllowAnonymous: a.AllowAnonymous,
		Status:         a.Status,
		IsEffective:    a.IsEffective(now),
		IsExpired:      a.IsExpired(now),
		AssignedBy:     a.AssignedBy,
		AssignedAt:     a.AssignedAt,
		CancelledBy:    a.CancelledBy,
		CancelledAt:    a.CancelledAt,
		CancelReason:   a.CancelReason,
		Notes:          a.Notes,
	}
}

func targetLabel(a *entity.FormAssignment) string {
	switch a.AssignmentType {
	case entity.AssignAll:
		return "Todos"
	case entity.AssignTenantType:
		return "Tipo de tenant: " + str(a.TenantType)
	case entity.AssignTenantGroup:
		return "Grupo: " + str(a.TenantGroupID)
	case entity.AssignSpecificTenant:
		return "Tenant: " + str(a.TenantID)
	case entity.AssignRole:
		return "Rol: " + str(a.RoleID)
	case entity.AssignDepartment:
		return "Departamento: " + str(a.DepartmentID)
	case entity.AssignSpecificUser:
		return "Usuario: " + str(a.UserID)
	}
	return a.AssignmentType
}
