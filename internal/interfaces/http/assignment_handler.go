package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// AssignmentHandler asignación de plantillas a tenants, roles, departamentos o usuarios.
type AssignmentHandler struct {
	uc *usecase.AssignmentUseCase
}

// NewAssignmentHandler construye el handler.
func NewAssignmentHandler(uc *usecase.AssignmentUseCase) *AssignmentHandler {
	return &AssignmentHandler{uc: uc}
}

// List godoc
// @Summary      Listar asignaciones
// @Tags         assignments
// @Security     Bearer
// @Produce      json
// @Param        template_id      query  string  false  "Plantilla"
// @Param        assignment_type  query  string  false  "All, TenantType, TenantGroup, SpecificTenant, Role, Department o SpecificUser"
// @Param        status           query  string  false  "Active, Suspended o Revoked"
// @Param        effective_only   query  bool    false  "Solo vigentes"
// @Param        expired_only     query  bool    false  "Solo vencidas"
// @Param        limit            query  int     false  "Límite"  default(20)
// @Param        offset           query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.AssignmentResponse]
// @Router       /api/form-assignments [get]
func (h *AssignmentHandler) List(c *fiber.Ctx) error {
	var in dto.AssignmentListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Asignación con destinatarios y avance del mes
// @Tags         assignments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.AssignmentDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/form-assignments/{id} [get]
func (h *AssignmentHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Asignar plantilla
// @Description  El destino depende del tipo: tenant_type, tenant_group_id, tenant_id, role_id, department_id o user_id.
// @Tags         assignments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AssignmentRequest  true  "Asignación"
// @Success      201   {object}  dto.AssignmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/form-assignments [post]
func (h *AssignmentHandler) Create(c *fiber.Ctx) error {
	var in dto.AssignmentRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *AssignmentHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateAssignmentRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Revocar asignación
// @Tags         assignments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la asignación"
// @Param        body  body  dto.ReasonRequest  true  "Motivo"
// @Success      200   {object}  dto.AssignmentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/form-assignments/{id}/cancel [post]
func (h *AssignmentHandler) Cancel(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReasonRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Cancel(c.UserContext(), GetUserID(c), id, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *AssignmentHandler) Suspend(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReasonRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Suspend(c.UserContext(), id, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *AssignmentHandler) Reactivate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Reactivate(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Extend godoc
// @Summary      Extender vigencia
// @Description  Una asignación revocada vuelve a activa si la nueva fecha es futura.
// @Tags         assignments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la asignación"
// @Param        body  body  dto.ExtendAssignmentRequest  true  "Nuevo fin de vigencia"
// @Success      200   {object}  dto.AssignmentResponse
// @Router       /api/form-assignments/{id}/extend [post]
func (h *AssignmentHandler) Extend(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ExtendAssignmentRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Extend(c.UserContext(), id, in.EffectiveUntil)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *AssignmentHandler) BulkExtend(c *fiber.Ctx) error {
	var in dto.BulkExtendRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	return c.JSON(h.uc.BulkExtend(c.UserContext(), in))
}

func (h *AssignmentHandler) BulkCancel(c *fiber.Ctx) error {
	var in dto.BulkCancelRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	return c.JSON(h.uc.BulkCancel(c.UserContext(), GetUserID(c), in))
}

// Statistics godoc
// @Summary      Agregados de asignaciones
// @Tags         assignments
// @Security     Bearer
// @Produce      json
// @Param        template_id  query  string  false  "Plantilla; vacío para todas"
// @Success      200  {object}  dto.AssignmentStatsResponse
// @Router       /api/form-assignments/statistics [get]
func (h *AssignmentHandler) Statistics(c *fiber.Ctx) error {
	out, err := h.uc.Statistics(c.UserContext(), c.Query("template_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *AssignmentHandler) Targets(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Targets(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Mine godoc
// @Summary      Plantillas asignadas al usuario
// @Description  Con el estado de su envío en el período, por defecto el mes actual.
// @Tags         assignments
// @Security     Bearer
// @Produce      json
// @Param        reporting_year   query  int   false  "Año del período"
// @Param        reporting_month  query  int   false  "Mes del período"
// @Param        pending_only     query  bool  false  "Solo pendientes"
// @Success      200  {array}  dto.MyAssignmentResponse
// @Router       /api/form-assignments/mine [get]
func (h *AssignmentHandler) Mine(c *fiber.Ctx) error {
	var in dto.MyAssignmentsRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Mine(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
