package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// OptionTemplateHandler catálogos de opciones reutilizables.
type OptionTemplateHandler struct {
	uc *usecase.OptionTemplateUseCase
}

// NewOptionTemplateHandler construye el handler.
func NewOptionTemplateHandler(uc *usecase.OptionTemplateUseCase) *OptionTemplateHandler {
	return &OptionTemplateHandler{uc: uc}
}

// List godoc
// @Summary      Listar catálogos de opciones
// @Tags         option-templates
// @Security     Bearer
// @Produce      json
// @Param        category     query  string  false  "Categoría"
// @Param        field_type   query  string  false  "Tipo de campo al que aplica"
// @Param        only_active  query  bool    false  "Solo activos"
// @Param        search       query  string  false  "Código, nombre o descripción"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.OptionTemplateResponse]
// @Router       /api/option-templates [get]
func (h *OptionTemplateHandler) List(c *fiber.Ctx) error {
	var in dto.OptionTemplateListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *OptionTemplateHandler) Categories(c *fiber.Ctx) error {
	out, err := h.uc.Categories(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *OptionTemplateHandler) Get(c *fiber.Ctx) error {
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

func (h *OptionTemplateHandler) GetByCode(c *fiber.Ctx) error {
	out, err := h.uc.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear catálogo de opciones
// @Tags         option-templates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OptionTemplateRequest  true  "Catálogo con sus opciones"
// @Success      201   {object}  dto.OptionTemplateResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/option-templates [post]
func (h *OptionTemplateHandler) Create(c *fiber.Ctx) error {
	var in dto.OptionTemplateRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *OptionTemplateHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.OptionTemplateRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *OptionTemplateHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Apply godoc
// @Summary      Aplicar catálogo a un ítem
// @Description  Reemplaza las opciones de un ítem de selección de una plantilla en borrador.
// @Tags         option-templates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID del catálogo"
// @Param        body  body  dto.ApplyOptionTemplateRequest  true  "Ítem destino"
// @Success      200   {array}   dto.OptionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/option-templates/{id}/apply [post]
func (h *OptionTemplateHandler) Apply(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ApplyOptionTemplateRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Apply(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
