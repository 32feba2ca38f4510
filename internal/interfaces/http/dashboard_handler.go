package http

import (
	"github.com/gofiber/fiber/v2"
	appanalytics "github.com/jhoicas/form-reporting-api/internal/application/analytics"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
)

// DashboardHandler maneja los endpoints del módulo de Dashboard.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// List devuelve los tableros registrados.
// GET /api/dashboards
func (h *DashboardHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.uc.List())
}

// Get godoc
// @Summary      Tablero con sus widgets resueltos
// @Description  Cada widget se resuelve con su proveedor; un widget fallido lleva error sin romper el tablero.
// @Description  tenant_id restringe a un tenant visible; from y to acotan por fecha de creación (to inclusive).
// @Tags         dashboards
// @Security     Bearer
// @Produce      json
// @Param        key           path   string  true   "Clave del tablero"
// @Param        context_type  query  string  false  "None, FormTemplate, Tenant o Region"
// @Param        context_id    query  string  false  "ID del contexto"
// @Param        tenant_id     query  string  false  "Tenant"
// @Param        from          query  string  false  "YYYY-MM-DD"
// @Param        to            query  string  false  "YYYY-MM-DD"
// @Param        status        query  string  false  "Estado de envío"
// @Success      200  {object}  dto.DashboardResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dashboards/{key} [get]
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	key, err := pathID(c, "key")
	if err != nil {
		return writeError(c, err)
	}
	var f dto.DashboardFilter
	if err := bindQuery(c, &f); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), GetClaims(c), key, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Widget godoc
// @Summary      Un widget suelto
// @Tags         dashboards
// @Security     Bearer
// @Produce      json
// @Param        key  path  string  true  "Clave del widget"
// @Success      200  {object}  dto.WidgetResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dashboards/widgets/{key} [get]
func (h *DashboardHandler) Widget(c *fiber.Ctx) error {
	key, err := pathID(c, "key")
	if err != nil {
		return writeError(c, err)
	}
	var f dto.DashboardFilter
	if err := bindQuery(c, &f); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Widget(c.UserContext(), GetClaims(c), key, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ContextOptions opciones del selector de contexto (FormTemplate, Tenant o Region).
// GET /api/dashboards/context-options/:type
func (h *DashboardHandler) ContextOptions(c *fiber.Ctx) error {
	contextType, err := pathID(c, "type")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ContextOptions(c.UserContext(), GetClaims(c), contextType)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
