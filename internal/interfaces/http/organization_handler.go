package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// OrganizationHandler regiones, tenants, departamentos y grupos de tenants.
type OrganizationHandler struct {
	regions     *usecase.RegionUseCase
	tenants     *usecase.TenantUseCase
	departments *usecase.DepartmentUseCase
	groups      *usecase.TenantGroupUseCase
}

// NewOrganizationHandler construye el handler.
func NewOrganizationHandler(regions *usecase.RegionUseCase, tenants *usecase.TenantUseCase, departments *usecase.DepartmentUseCase, groups *usecase.TenantGroupUseCase) *OrganizationHandler {
	return &OrganizationHandler{regions: regions, tenants: tenants, departments: departments, groups: groups}
}

// ── Regiones ──────────────────────────────────────────────────────────────────

// ListRegions godoc
// @Summary      Listar regiones
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Param        search  query  string  false  "Código o nombre"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.RegionResponse]
// @Router       /api/regions [get]
func (h *OrganizationHandler) ListRegions(c *fiber.Ctx) error {
	var in dto.PageRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.regions.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetRegion godoc
// @Summary      Obtener región
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la región"
// @Success      200  {object}  dto.RegionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/regions/{id} [get]
func (h *OrganizationHandler) GetRegion(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.regions.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateRegion godoc
// @Summary      Crear región
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegionRequest  true  "Datos de la región"
// @Success      201   {object}  dto.RegionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/regions [post]
func (h *OrganizationHandler) CreateRegion(c *fiber.Ctx) error {
	var in dto.RegionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.regions.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateRegion godoc
// @Summary      Actualizar región
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la región"
// @Param        body  body  dto.RegionRequest  true  "Datos de la región"
// @Success      200   {object}  dto.RegionResponse
// @Router       /api/regions/{id} [put]
func (h *OrganizationHandler) UpdateRegion(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.RegionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.regions.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteRegion godoc
// @Summary      Eliminar región
// @Description  Falla con 409 si la región tiene tenants.
// @Tags         organization
// @Security     Bearer
// @Param        id  path  string  true  "ID de la región"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/regions/{id} [delete]
func (h *OrganizationHandler) DeleteRegion(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.regions.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Tenants ───────────────────────────────────────────────────────────────────

// ListTenants godoc
// @Summary      Listar tenants visibles
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Param        region_id    query  string  false  "Región"
// @Param        tenant_type  query  string  false  "HeadOffice, Factory o Subsidiary"
// @Param        only_active  query  bool    false  "Solo activos"
// @Param        search       query  string  false  "Código o nombre"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.TenantResponse]
// @Router       /api/tenants [get]
func (h *OrganizationHandler) ListTenants(c *fiber.Ctx) error {
	var in dto.TenantListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.tenants.List(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetTenant godoc
// @Summary      Obtener tenant
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {object}  dto.TenantResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenants/{id} [get]
func (h *OrganizationHandler) GetTenant(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.tenants.GetByID(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateTenant godoc
// @Summary      Crear tenant
// @Description  Solo puede existir una casa matriz activa; una casa matriz no tiene padre.
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTenantRequest  true  "Datos del tenant"
// @Success      201   {object}  dto.TenantResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/tenants [post]
func (h *OrganizationHandler) CreateTenant(c *fiber.Ctx) error {
	var in dto.CreateTenantRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.tenants.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateTenant godoc
// @Summary      Actualizar tenant
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del tenant"
// @Param        body  body  dto.UpdateTenantRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.TenantResponse
// @Router       /api/tenants/{id} [put]
func (h *OrganizationHandler) UpdateTenant(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateTenantRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.tenants.Update(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteTenant godoc
// @Summary      Eliminar tenant
// @Tags         organization
// @Security     Bearer
// @Param        id  path  string  true  "ID del tenant"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/tenants/{id} [delete]
func (h *OrganizationHandler) DeleteTenant(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.tenants.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Departamentos ─────────────────────────────────────────────────────────────

// ListDepartments godoc
// @Summary      Departamentos de un tenant
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {array}  dto.DepartmentResponse
// @Router       /api/tenants/{id}/departments [get]
func (h *OrganizationHandler) ListDepartments(c *fiber.Ctx) error {
	tenantID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.departments.ListByTenant(c.UserContext(), GetClaims(c), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DepartmentTree godoc
// @Summary      Árbol de departamentos de un tenant
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {array}  dto.DepartmentNode
// @Router       /api/tenants/{id}/departments/tree [get]
func (h *OrganizationHandler) DepartmentTree(c *fiber.Ctx) error {
	tenantID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.departments.Tree(c.UserContext(), GetClaims(c), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetDepartment godoc
// @Summary      Obtener departamento
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del departamento"
// @Success      200  {object}  dto.DepartmentResponse
// @Router       /api/departments/{id} [get]
func (h *OrganizationHandler) GetDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.departments.GetByID(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateDepartment godoc
// @Summary      Crear departamento
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DepartmentRequest  true  "Datos del departamento"
// @Success      201   {object}  dto.DepartmentResponse
// @Router       /api/departments [post]
func (h *OrganizationHandler) CreateDepartment(c *fiber.Ctx) error {
	var in dto.DepartmentRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.departments.Create(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateDepartment godoc
// @Summary      Actualizar departamento
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del departamento"
// @Param        body  body  dto.DepartmentRequest  true  "Datos del departamento"
// @Success      200   {object}  dto.DepartmentResponse
// @Router       /api/departments/{id} [put]
func (h *OrganizationHandler) UpdateDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.DepartmentRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.departments.Update(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteDepartment godoc
// @Summary      Eliminar departamento
// @Tags         organization
// @Security     Bearer
// @Param        id  path  string  true  "ID del departamento"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/departments/{id} [delete]
func (h *OrganizationHandler) DeleteDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.departments.Delete(c.UserContext(), GetClaims(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Grupos de tenants ─────────────────────────────────────────────────────────

// ListGroups godoc
// @Summary      Listar grupos de tenants
// @Tags         organization
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.TenantGroupResponse]
// @Router       /api/tenant-groups [get]
func (h *OrganizationHandler) ListGroups(c *fiber.Ctx) error {
	var in dto.PageRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.groups.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *OrganizationHandler) GetGroup(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.groups.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateGroup godoc
// @Summary      Crear grupo de tenants
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TenantGroupRequest  true  "Datos del grupo"
// @Success      201   {object}  dto.TenantGroupResponse
// @Router       /api/tenant-groups [post]
func (h *OrganizationHandler) CreateGroup(c *fiber.Ctx) error {
	var in dto.TenantGroupRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.groups.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *OrganizationHandler) UpdateGroup(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.TenantGroupRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.groups.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *OrganizationHandler) DeleteGroup(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.groups.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddGroupMembers godoc
// @Summary      Agregar tenants al grupo
// @Tags         organization
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del grupo"
// @Param        body  body  dto.GroupMembersRequest  true  "IDs de tenant"
// @Success      204
// @Router       /api/tenant-groups/{id}/members [post]
func (h *OrganizationHandler) AddGroupMembers(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.GroupMembersRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.groups.AddMembers(c.UserContext(), GetUserID(c), id, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrganizationHandler) RemoveGroupMember(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.groups.RemoveMember(c.UserContext(), id, tenantID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
