package http

import (
	"github.com/gofiber/fiber/v2"
	appanalytics "github.com/jhoicas/form-reporting-api/internal/application/analytics"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
)

// AnalyticsHandler maneja los snapshots de desempeño por tenant y región.
type AnalyticsHandler struct {
	snapshots *appanalytics.SnapshotService
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(snapshots *appanalytics.SnapshotService) *AnalyticsHandler {
	return &AnalyticsHandler{snapshots: snapshots}
}

// Generate godoc
// @Summary      Generar snapshots
// @Description  Foto diaria o mensual de cada tenant activo; con regional=true además consolida el mes por región.
// @Description  Regenerar la misma fecha reemplaza la foto e incrementa data_version.
// @Tags         analytics
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GenerateSnapshotsRequest  false  "Fecha, tipo y consolidado regional"
// @Success      200  {object}  dto.SnapshotRunResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/snapshots/generate [post]
func (h *AnalyticsHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateSnapshotsRequest
	if err := bindOptionalBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.snapshots.Generate(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TenantSnapshots godoc
// @Summary      Historial de snapshots de un tenant
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del tenant"
// @Param        from  query  string  false  "YYYY-MM-DD. Default: hace 12 meses."
// @Param        to    query  string  false  "YYYY-MM-DD. Default: hoy."
// @Success      200  {array}  dto.TenantSnapshotResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/snapshots/tenants/{id} [get]
func (h *AnalyticsHandler) TenantSnapshots(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SnapshotRangeRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.snapshots.TenantSnapshots(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RegionalSnapshots godoc
// @Summary      Consolidados mensuales de una región
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID de la región"
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200  {array}  dto.RegionalSnapshotResponse
// @Router       /api/snapshots/regions/{id} [get]
func (h *AnalyticsHandler) RegionalSnapshots(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SnapshotRangeRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.snapshots.RegionalSnapshots(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
