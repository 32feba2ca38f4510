package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// RoleHandler roles, permisos y catálogo de módulos.
type RoleHandler struct {
	uc *usecase.RoleUseCase
}

func NewRoleHandler(uc *usecase.RoleUseCase) *RoleHandler {
	return &RoleHandler{uc: uc}
}

// List godoc
// @Summary      Listar roles
// @Tags         roles
// @Security     Bearer
// @Produce      json
// @Param        search  query  string  false  "Nombre"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.RoleResponse]
// @Router       /api/roles [get]
func (h *RoleHandler) List(c *fiber.Ctx) error {
	var in dto.PageRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener rol con permisos
// @Tags         roles
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del rol"
// @Success      200  {object}  dto.RoleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear rol
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRoleRequest  true  "Datos del rol"
// @Success      201   {object}  dto.RoleResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/roles [post]
func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRoleRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar rol
// @Description  Los roles de sistema no admiten cambios.
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del rol"
// @Param        body  body  dto.UpdateRoleRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.RoleResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/roles/{id} [put]
func (h *RoleHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateRoleRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar rol
// @Tags         roles
// @Security     Bearer
// @Param        id  path  string  true  "ID del rol"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPermissions godoc
// @Summary      Reemplazar permisos del rol
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del rol"
// @Param        body  body  dto.SetPermissionsRequest  true  "Códigos de permiso"
// @Success      204
// @Router       /api/roles/{id}/permissions [put]
func (h *RoleHandler) SetPermissions(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SetPermissionsRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetPermissions(c.UserContext(), id, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignUsers godoc
// @Summary      Asignar el rol a usuarios
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del rol"
// @Param        body  body  dto.AssignUsersRequest  true  "IDs de usuario"
// @Success      204
// @Router       /api/roles/{id}/users [post]
func (h *RoleHandler) AssignUsers(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.AssignUsersRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.AssignUsers(c.UserContext(), GetUserID(c), id, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListModules godoc
// @Summary      Módulos y sus permisos
// @Tags         roles
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ModuleResponse
// @Router       /api/roles/modules [get]
func (h *RoleHandler) ListModules(c *fiber.Ctx) error {
	out, err := h.uc.ListModules(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListScopeLevels godoc
// @Summary      Niveles de alcance
// @Tags         roles
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ScopeLevelResponse
// @Router       /api/roles/scope-levels [get]
func (h *RoleHandler) ListScopeLevels(c *fiber.Ctx) error {
	out, err := h.uc.ListScopeLevels(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
