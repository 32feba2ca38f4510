package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// ReportHandler definiciones de reporte, ejecución, exportación, programación y accesos.
type ReportHandler struct {
	uc *usecase.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// List godoc
// @Summary      Listar reportes visibles
// @Description  Propios, públicos o compartidos con el usuario.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        category     query  string  false  "Categoría"
// @Param        template_id  query  string  false  "Plantilla"
// @Param        search       query  string  false  "Nombre"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.ReportResponse]
// @Router       /api/reports [get]
func (h *ReportHandler) List(c *fiber.Ctx) error {
	var in dto.ReportListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SystemFields godoc
// @Summary      Campos de sistema disponibles para reportes
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/reports/system-fields [get]
func (h *ReportHandler) SystemFields(c *fiber.Ctx) error {
	return c.JSON(h.uc.SystemFields())
}

// Get godoc
// @Summary      Definición completa del reporte
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del reporte"
// @Success      200  {object}  dto.ReportResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/{id} [get]
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear reporte
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReportRequest  true  "Definición: campos, filtros, agrupaciones y ordenamientos"
// @Success      201   {object}  dto.ReportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reports [post]
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var in dto.ReportRequest
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
// @Summary      Reemplazar la definición del reporte
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del reporte"
// @Param        body  body  dto.ReportRequest  true  "Definición"
// @Success      200   {object}  dto.ReportResponse
// @Router       /api/reports/{id} [put]
func (h *ReportHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReportRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar reporte
// @Tags         reports
// @Security     Bearer
// @Param        id  path  string  true  "ID del reporte"
// @Success      204
// @Router       /api/reports/{id} [delete]
func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), GetClaims(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Run godoc
// @Summary      Ejecutar reporte
// @Description  Los parámetros se indexan por ID de filtro parametrizado.
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true   "ID del reporte"
// @Param        body  body  dto.RunReportRequest  false  "Parámetros"
// @Success      200   {object}  dto.RunReportResponse
// @Router       /api/reports/{id}/run [post]
func (h *ReportHandler) Run(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.RunReportRequest
	if err := bindOptionalBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Run(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Export godoc
// @Summary      Exportar reporte a archivo
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      octet-stream
// @Param        id      path   string  true  "ID del reporte"
// @Param        format  query  string  false  "CSV, Excel o PDF"
// @Param        body    body   dto.ExportReportRequest  false  "Formato y parámetros"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/{id}/export [post]
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ExportReportRequest
	in.Format = c.Query("format")
	if err := bindOptionalBody(c, &in); err != nil {
		return writeError(c, err)
	}
	file, err := h.uc.Export(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, file.FileName, file.ContentType, file.Data)
}

// Executions godoc
// @Summary      Historial de ejecuciones
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del reporte"
// @Param        limit  query  int     false  "Límite"  default(50)
// @Success      200  {array}  dto.ExecutionLogResponse
// @Router       /api/reports/{id}/executions [get]
func (h *ReportHandler) Executions(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Executions(c.UserContext(), GetClaims(c), id, c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ── Programación ──────────────────────────────────────────────────────────────

// Schedules godoc
// @Summary      Programaciones del reporte
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del reporte"
// @Success      200  {array}  dto.ScheduleResponse
// @Router       /api/reports/{id}/schedules [get]
func (h *ReportHandler) Schedules(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Schedules(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateSchedule godoc
// @Summary      Programar reporte
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del reporte"
// @Param        body  body  dto.ScheduleRequest  true  "Frecuencia, hora, zona y formato"
// @Success      201   {object}  dto.ScheduleResponse
// @Router       /api/reports/{id}/schedules [post]
func (h *ReportHandler) CreateSchedule(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ScheduleRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateSchedule(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *ReportHandler) UpdateSchedule(c *fiber.Ctx) error {
	id, err := pathID(c, "scheduleId")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ScheduleRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateSchedule(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ReportHandler) DeleteSchedule(c *fiber.Ctx) error {
	id, err := pathID(c, "scheduleId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteSchedule(c.UserContext(), GetClaims(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Accesos ───────────────────────────────────────────────────────────────────

// AccessList godoc
// @Summary      Accesos compartidos del reporte
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del reporte"
// @Success      200  {array}  dto.ReportAccessResponse
// @Router       /api/reports/{id}/access [get]
func (h *ReportHandler) AccessList(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AccessList(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GrantAccess godoc
// @Summary      Compartir reporte con usuario o rol
// @Tags         reports
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del reporte"
// @Param        body  body  dto.ReportAccessRequest  true  "Usuario o rol y nivel"
// @Success      201   {object}  dto.ReportAccessResponse
// @Router       /api/reports/{id}/access [post]
func (h *ReportHandler) GrantAccess(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReportAccessRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GrantAccess(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *ReportHandler) RevokeAccess(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	accessID, err := pathID(c, "accessId")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.RevokeAccess(c.UserContext(), GetClaims(c), id, accessID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
