package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// UserHandler administración de usuarios dentro del alcance del solicitante.
type UserHandler struct {
	uc *usecase.UserUseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// List godoc
// @Summary      Listar usuarios
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        tenant_id      query  string  false  "Tenant"
// @Param        department_id  query  string  false  "Departamento"
// @Param        only_active    query  bool    false  "Solo activos"
// @Param        search         query  string  false  "Usuario, email o nombre"
// @Param        limit          query  int     false  "Límite"  default(20)
// @Param        offset         query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.UserResponse]
// @Router       /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var in dto.UserListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Lookup godoc
// @Summary      Buscar usuarios accesibles (selector)
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        search  query  string  false  "Texto"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Success      200  {array}  dto.UserSummary
// @Router       /api/users/lookup [get]
func (h *UserHandler) Lookup(c *fiber.Ctx) error {
	out, err := h.uc.Lookup(c.UserContext(), GetClaims(c), c.Query("search"), c.QueryInt("limit", 20))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener usuario
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  dto.UserResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear usuario
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "Datos del usuario"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar usuario
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del usuario"
// @Param        body  body  dto.UpdateUserRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.UserResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateUserRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Activate godoc
// @Summary      Activar usuario
// @Tags         users
// @Security     Bearer
// @Param        id  path  string  true  "ID del usuario"
// @Success      204
// @Router       /api/users/{id}/activate [post]
func (h *UserHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// Deactivate godoc
// @Summary      Desactivar usuario
// @Tags         users
// @Security     Bearer
// @Param        id  path  string  true  "ID del usuario"
// @Success      204
// @Router       /api/users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c *fiber.Ctx, active bool) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetActive(c.UserContext(), GetClaims(c), id, active); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResetPassword godoc
// @Summary      Restablecer contraseña
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del usuario"
// @Param        body  body  dto.ResetPasswordRequest  true  "Nueva contraseña"
// @Success      204
// @Router       /api/users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ResetPasswordRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.ResetPassword(c.UserContext(), GetClaims(c), id, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Unlock godoc
// @Summary      Desbloquear cuenta
// @Tags         users
// @Security     Bearer
// @Param        id  path  string  true  "ID del usuario"
// @Success      204
// @Router       /api/users/{id}/unlock [post]
func (h *UserHandler) Unlock(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Unlock(c.UserContext(), GetClaims(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignRoles godoc
// @Summary      Reemplazar roles del usuario
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del usuario"
// @Param        body  body  dto.AssignRolesRequest  true  "IDs de rol"
// @Success      204
// @Router       /api/users/{id}/roles [put]
func (h *UserHandler) AssignRoles(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.AssignRolesRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.AssignRoles(c.UserContext(), GetClaims(c), id, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTenantAccess godoc
// @Summary      Accesos explícitos a tenants
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {array}  dto.TenantAccessResponse
// @Router       /api/users/{id}/tenant-access [get]
func (h *UserHandler) ListTenantAccess(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListTenantAccess(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GrantTenantAccess godoc
// @Summary      Otorgar acceso a un tenant
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del usuario"
// @Param        body  body  dto.GrantTenantAccessRequest  true  "Tenant y nivel"
// @Success      204
// @Router       /api/users/{id}/tenant-access [post]
func (h *UserHandler) GrantTenantAccess(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.GrantTenantAccessRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.GrantTenantAccess(c.UserContext(), GetClaims(c), id, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RevokeTenantAccess godoc
// @Summary      Revocar acceso a un tenant
// @Tags         users
// @Security     Bearer
// @Param        id        path  string  true  "ID del usuario"
// @Param        tenantId  path  string  true  "ID del tenant"
// @Success      204
// @Router       /api/users/{id}/tenant-access/{tenantId} [delete]
func (h *UserHandler) RevokeTenantAccess(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.RevokeTenantAccess(c.UserContext(), GetClaims(c), id, tenantID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
