package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// SubmissionRuleHandler fechas límite de envío por plantilla.
type SubmissionRuleHandler struct {
	uc *usecase.SubmissionRuleUseCase
}

// NewSubmissionRuleHandler construye el handler.
func NewSubmissionRuleHandler(uc *usecase.SubmissionRuleUseCase) *SubmissionRuleHandler {
	return &SubmissionRuleHandler{uc: uc}
}

// ListByTemplate godoc
// @Summary      Reglas de envío de una plantilla
// @Tags         submission-rules
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {array}  dto.SubmissionRuleResponse
// @Router       /api/form-templates/{id}/submission-rules [get]
func (h *SubmissionRuleHandler) ListByTemplate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListByTemplate(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear regla de envío
// @Tags         submission-rules
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la plantilla"
// @Param        body  body  dto.SubmissionRuleRequest  true  "Regla"
// @Success      201   {object}  dto.SubmissionRuleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/form-templates/{id}/submission-rules [post]
func (h *SubmissionRuleHandler) Create(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SubmissionRuleRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Timing godoc
// @Summary      Evaluar plazo de envío
// @Description  Si un envío del período hecho en at (por defecto ahora) llega a tiempo, en gracia o fuera de plazo.
// @Tags         submission-rules
// @Security     Bearer
// @Produce      json
// @Param        id               path   string  true   "ID de la plantilla"
// @Param        reporting_year   query  int     true   "Año del período"
// @Param        reporting_month  query  int     true   "Mes del período"
// @Param        at               query  string  false  "Momento del envío (RFC 3339)"
// @Success      200  {object}  dto.TimingResponse
// @Router       /api/form-templates/{id}/submission-timing [get]
func (h *SubmissionRuleHandler) Timing(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.TimingRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Timing(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *SubmissionRuleHandler) Get(c *fiber.Ctx) error {
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

func (h *SubmissionRuleHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SubmissionRuleRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *SubmissionRuleHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reminders godoc
// @Summary      Reglas con recordatorio para una fecha
// @Tags         submission-rules
// @Security     Bearer
// @Produce      json
// @Param        date  query  string  false  "Fecha (YYYY-MM-DD); por defecto hoy"
// @Success      200  {array}  dto.SubmissionRuleResponse
// @Router       /api/submission-rules/reminders [get]
func (h *SubmissionRuleHandler) Reminders(c *fiber.Ctx) error {
	var in dto.ReminderRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}
	out, err := h.uc.Reminders(c.UserContext(), date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
