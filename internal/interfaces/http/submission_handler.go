package http

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
)

// SubmissionHandler diligenciamiento, adjuntos y revisión de envíos.
type SubmissionHandler struct {
	uc *usecase.SubmissionUseCase
}

// NewSubmissionHandler construye el handler.
func NewSubmissionHandler(uc *usecase.SubmissionUseCase) *SubmissionHandler {
	return &SubmissionHandler{uc: uc}
}

// List godoc
// @Summary      Listar envíos visibles
// @Tags         submissions
// @Security     Bearer
// @Produce      json
// @Param        template_id      query  string  false  "Plantilla"
// @Param        tenant_id        query  string  false  "Tenant"
// @Param        status           query  string  false  "Draft, Submitted, InApproval, Approved o Rejected"
// @Param        reporting_year   query  int     false  "Año del período"
// @Param        reporting_month  query  int     false  "Mes del período"
// @Param        submitted_from   query  string  false  "YYYY-MM-DD"
// @Param        submitted_to     query  string  false  "YYYY-MM-DD"
// @Param        limit            query  int     false  "Límite"  default(20)
// @Param        offset           query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.SubmissionResponse]
// @Router       /api/submissions [get]
func (h *SubmissionHandler) List(c *fiber.Ctx) error {
	var in dto.SubmissionListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Envío con respuestas
// @Tags         submissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del envío"
// @Success      200  {object}  dto.SubmissionDetailResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/submissions/{id} [get]
func (h *SubmissionHandler) Get(c *fiber.Ctx) error {
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
// @Summary      Crear envío en borrador
// @Description  Un envío por plantilla, tenant y período.
// @Tags         submissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSubmissionRequest  true  "Plantilla, tenant y período"
// @Success      201   {object}  dto.SubmissionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/submissions [post]
func (h *SubmissionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSubmissionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetClaims(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// SaveResponses godoc
// @Summary      Guardar respuestas
// @Description  Upsert por ítem; solo en Draft o Rejected.
// @Tags         submissions
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID del envío"
// @Param        body  body  dto.SaveResponsesRequest  true  "Respuestas"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/submissions/{id}/responses [put]
func (h *SubmissionHandler) SaveResponses(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SaveResponsesRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SaveResponses(c.UserContext(), GetClaims(c), id, in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadFile godoc
// @Summary      Subir adjunto de un ítem
// @Tags         submissions
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id      path      string  true  "ID del envío"
// @Param        itemId  path      string  true  "ID del ítem"
// @Param        file    formData  file    true  "Archivo"
// @Success      201  {object}  dto.FileResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/submissions/{id}/files/{itemId} [post]
func (h *SubmissionHandler) UploadFile(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return writeError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, domain.Invalid("file", "es obligatorio"))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, fmt.Errorf("%w: %v", errInvalidBody, err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, fmt.Errorf("%w: %v", errInvalidBody, err))
	}
	out, err := h.uc.UploadFile(c.UserContext(), GetClaims(c), id, itemID, fh.Filename, fh.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// DownloadFile godoc
// @Summary      Descargar adjunto de un ítem
// @Tags         submissions
// @Security     Bearer
// @Produce      octet-stream
// @Param        id      path  string  true  "ID del envío"
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/submissions/{id}/files/{itemId} [get]
func (h *SubmissionHandler) DownloadFile(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return writeError(c, err)
	}
	data, contentType, name, err := h.uc.DownloadFile(c.UserContext(), GetClaims(c), id, itemID)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, name, contentType, data)
}

// sendFile responde con el archivo como adjunto.
func sendFile(c *fiber.Ctx, name, contentType string, data []byte) error {
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Attachment(name)
	return c.Send(data)
}

// Submit godoc
// @Summary      Enviar
// @Description  Valida obligatorios y reglas. Pasa a InApproval si la plantilla requiere aprobación; si no, a Submitted.
// @Tags         submissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del envío"
// @Success      200  {object}  dto.SubmissionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/submissions/{id}/submit [post]
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Submit(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Review godoc
// @Summary      Aprobar o rechazar
// @Tags         submissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del envío"
// @Param        body  body  dto.ReviewRequest  true  "Decisión y comentarios"
// @Success      200   {object}  dto.SubmissionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/submissions/{id}/review [post]
func (h *SubmissionHandler) Review(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReviewRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Review(c.UserContext(), GetClaims(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar borrador
// @Tags         submissions
// @Security     Bearer
// @Param        id  path  string  true  "ID del envío"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), GetClaims(c), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Breakdown godoc
// @Summary      Desglose de puntaje por ítem
// @Tags         submissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del envío"
// @Success      200  {object}  dto.ScoreBreakdownResponse
// @Router       /api/submissions/{id}/breakdown [get]
func (h *SubmissionHandler) Breakdown(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Breakdown(c.UserContext(), GetClaims(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// FieldPerformance godoc
// @Summary      Desempeño por ítem de una plantilla
// @Tags         submissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {array}  dto.FieldPerformanceResponse
// @Router       /api/form-templates/{id}/field-performance [get]
func (h *SubmissionHandler) FieldPerformance(c *fiber.Ctx) error {
	templateID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.FieldPerformance(c.UserContext(), GetClaims(c), templateID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
