package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// MetricHandler catálogo de métricas, mapeos y valores por tenant.
type MetricHandler struct {
	uc *usecase.MetricUseCase
}

// NewMetricHandler construye el handler.
func NewMetricHandler(uc *usecase.MetricUseCase) *MetricHandler {
	return &MetricHandler{uc: uc}
}

// ── Definiciones ──────────────────────────────────────────────────────────────

// ListMetrics godoc
// @Summary      Listar métricas
// @Tags         metrics
// @Security     Bearer
// @Produce      json
// @Param        category     query  string  false  "Categoría"
// @Param        data_type    query  string  false  "Tipo de dato"
// @Param        only_kpi     query  bool    false  "Solo KPI"
// @Param        only_active  query  bool    false  "Solo activas"
// @Param        search       query  string  false  "Código o nombre"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.MetricResponse]
// @Router       /api/metrics [get]
func (h *MetricHandler) ListMetrics(c *fiber.Ctx) error {
	var in dto.MetricListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListMetrics(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *MetricHandler) GetMetric(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetMetric(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateMetric godoc
// @Summary      Crear métrica
// @Description  Calculated exige fórmula; TargetBased exige valor esperado.
// @Tags         metrics
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MetricRequest  true  "Definición"
// @Success      201   {object}  dto.MetricResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/metrics [post]
func (h *MetricHandler) CreateMetric(c *fiber.Ctx) error {
	var in dto.MetricRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateMetric(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *MetricHandler) UpdateMetric(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.MetricRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateMetric(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeactivateMetric godoc
// @Summary      Desactivar métrica
// @Tags         metrics
// @Security     Bearer
// @Param        id  path  string  true  "ID de la métrica"
// @Success      204
// @Router       /api/metrics/{id} [delete]
func (h *MetricHandler) DeactivateMetric(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeactivateMetric(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SuggestThresholds godoc
// @Summary      Umbrales sugeridos por tipo y agregación
// @Tags         metrics
// @Security     Bearer
// @Produce      json
// @Param        data_type    query  string  true   "Tipo de dato"
// @Param        aggregation  query  string  false  "Agregación"
// @Success      200  {object}  dto.ThresholdSuggestionResponse
// @Router       /api/metrics/threshold-suggestions [get]
func (h *MetricHandler) SuggestThresholds(c *fiber.Ctx) error {
	return c.JSON(h.uc.SuggestThresholds(c.Query("data_type"), c.Query("aggregation")))
}

// ── Mapeos ────────────────────────────────────────────────────────────────────

// Configure godoc
// @Summary      Configuración de métricas de una plantilla
// @Description  Ítems con sus mapeos, más mapeos de sección y de plantilla.
// @Tags         metrics
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {object}  dto.ConfigureResponse
// @Router       /api/form-templates/{id}/metrics [get]
func (h *MetricHandler) Configure(c *fiber.Ctx) error {
	templateID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Configure(c.UserContext(), templateID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UnmappedFields godoc
// @Summary      Ítems sin mapeo activo
// @Tags         metrics
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {array}  dto.UnmappedFieldResponse
// @Router       /api/form-templates/{id}/unmapped-fields [get]
func (h *MetricHandler) UnmappedFields(c *fiber.Ctx) error {
	templateID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UnmappedFields(c.UserContext(), templateID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateItemMapping godoc
// @Summary      Mapear ítem a métrica
// @Tags         metrics
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ItemMappingRequest  true  "Mapeo"
// @Success      201   {object}  dto.ItemMappingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/metric-mappings/items [post]
func (h *MetricHandler) CreateItemMapping(c *fiber.Ctx) error {
	var in dto.ItemMappingRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateItemMapping(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *MetricHandler) UpdateItemMapping(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ItemMappingRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateItemMapping(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *MetricHandler) DeleteItemMapping(c *fiber.Ctx) error {
	return h.deleteByID(c, h.uc.DeleteItemMapping)
}

// TestMapping godoc
// @Summary      Probar un mapeo con un valor de muestra
// @Tags         metrics
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del mapeo"
// @Param        body  body  dto.TestMappingRequest  true  "Valor de muestra"
// @Success      200   {object}  dto.TestMappingResponse
// @Router       /api/metric-mappings/items/{id}/test [post]
func (h *MetricHandler) TestMapping(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.TestMappingRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.TestMapping(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateSectionMapping godoc
// @Summary      Mapeo de rollup por sección
// @Tags         metrics
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RollupMappingRequest  true  "Mapeo"
// @Success      201   {object}  dto.RollupMappingResponse
// @Router       /api/metric-mappings/sections [post]
func (h *MetricHandler) CreateSectionMapping(c *fiber.Ctx) error {
	return h.createRollup(c, h.uc.CreateSectionMapping)
}

func (h *MetricHandler) UpdateSectionMapping(c *fiber.Ctx) error {
	return h.updateRollup(c, h.uc.UpdateSectionMapping)
}

func (h *MetricHandler) DeleteSectionMapping(c *fiber.Ctx) error {
	return h.deleteByID(c, h.uc.DeleteSectionMapping)
}

// CreateTemplateMapping godoc
// @Summary      Mapeo de rollup por plantilla
// @Tags         metrics
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RollupMappingRequest  true  "Mapeo"
// @Success      201   {object}  dto.RollupMappingResponse
// @Router       /api/metric-mappings/templates [post]
func (h *MetricHandler) CreateTemplateMapping(c *fiber.Ctx) error {
	return h.createRollup(c, h.uc.CreateTemplateMapping)
}

func (h *MetricHandler) UpdateTemplateMapping(c *fiber.Ctx) error {
	return h.updateRollup(c, h.uc.UpdateTemplateMapping)
}

func (h *MetricHandler) DeleteTemplateMapping(c *fiber.Ctx) error {
	return h.deleteByID(c, h.uc.DeleteTemplateMapping)
}

func (h *MetricHandler) createRollup(c *fiber.Ctx, fn func(context.Context, dto.RollupMappingRequest) (*dto.RollupMappingResponse, error)) error {
	var in dto.RollupMappingRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := fn(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *MetricHandler) updateRollup(c *fiber.Ctx, fn func(context.Context, string, dto.RollupMappingRequest) (*dto.RollupMappingResponse, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.RollupMappingRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := fn(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *MetricHandler) deleteByID(c *fiber.Ctx, fn func(context.Context, string) error) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := fn(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Valores ───────────────────────────────────────────────────────────────────

// TenantMetrics godoc
// @Summary      Valores de métricas por tenant y período
// @Tags         metrics
// @Security     Bearer
// @Produce      json
// @Param        tenant_id  query  string  false  "Tenant"
// @Param        metric_id  query  string  false  "Métrica"
// @Param        from       query  string  false  "YYYY-MM-DD"
// @Param        to         query  string  false  "YYYY-MM-DD"
// @Param        limit      query  int     false  "Límite"
// @Success      200  {array}  dto.TenantMetricResponse
// @Router       /api/tenant-metrics [get]
func (h *MetricHandler) TenantMetrics(c *fiber.Ctx) error {
	var in dto.TenantMetricListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.TenantMetrics(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PopulationLogs godoc
// @Summary      Bitácora de población de un envío
// @Tags         metrics
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del envío"
// @Success      200  {array}  dto.PopulationLogResponse
// @Router       /api/submissions/{id}/population-logs [get]
func (h *MetricHandler) PopulationLogs(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.PopulationLogs(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Recalculate godoc
// @Summary      Repoblar métricas de un envío
// @Tags         metrics
// @Security     Bearer
// @Param        id  path  string  true  "ID del envío"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/submissions/{id}/recalculate [post]
func (h *MetricHandler) Recalculate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Recalculate(c.UserContext(), GetClaims(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
