package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
)

// FormHandler diseño de plantillas: categorías, secciones, ítems y ciclo de publicación.
type FormHandler struct {
	uc *usecase.FormUseCase
}

// NewFormHandler construye el handler.
func NewFormHandler(uc *usecase.FormUseCase) *FormHandler {
	return &FormHandler{uc: uc}
}

// ── Categorías ────────────────────────────────────────────────────────────────

// ListCategories godoc
// @Summary      Listar categorías de formulario
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.CategoryResponse]
// @Router       /api/form-categories [get]
func (h *FormHandler) ListCategories(c *fiber.Ctx) error {
	var in dto.PageRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListCategories(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateCategory godoc
// @Summary      Crear categoría
// @Tags         forms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryRequest  true  "Datos de la categoría"
// @Success      201   {object}  dto.CategoryResponse
// @Router       /api/form-categories [post]
func (h *FormHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateCategory(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *FormHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CategoryRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateCategory(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *FormHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteCategory(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Plantillas ────────────────────────────────────────────────────────────────

// ListTemplates godoc
// @Summary      Listar plantillas
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Param        category_id     query  string  false  "Categoría"
// @Param        publish_status  query  string  false  "Draft, Published, Archived o Deprecated"
// @Param        only_active     query  bool    false  "Solo activas"
// @Param        search          query  string  false  "Código o nombre"
// @Param        limit           query  int     false  "Límite"  default(20)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ListResponse[dto.TemplateResponse]
// @Router       /api/form-templates [get]
func (h *FormHandler) ListTemplates(c *fiber.Ctx) error {
	var in dto.TemplateListRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListTemplates(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetTemplate godoc
// @Summary      Estructura completa de la plantilla
// @Description  Secciones e ítems ordenados, con opciones y validaciones.
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {object}  dto.TemplateStructureResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/form-templates/{id} [get]
func (h *FormHandler) GetTemplate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetTemplate(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateTemplate godoc
// @Summary      Crear plantilla en borrador
// @Tags         forms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TemplateRequest  true  "Datos de la plantilla"
// @Success      201   {object}  dto.TemplateResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/form-templates [post]
func (h *FormHandler) CreateTemplate(c *fiber.Ctx) error {
	var in dto.TemplateRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateTemplate(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateTemplate godoc
// @Summary      Actualizar plantilla
// @Description  Solo plantillas en borrador.
// @Tags         forms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la plantilla"
// @Param        body  body  dto.TemplateRequest  true  "Datos de la plantilla"
// @Success      200   {object}  dto.TemplateResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/form-templates/{id} [put]
func (h *FormHandler) UpdateTemplate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.TemplateRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateTemplate(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PublishCheck godoc
// @Summary      Verificar si la plantilla puede publicarse
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {object}  dto.PublishCheckResponse
// @Router       /api/form-templates/{id}/publish-check [get]
func (h *FormHandler) PublishCheck(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.PublishCheck(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Publish godoc
// @Summary      Publicar plantilla
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {object}  dto.TemplateResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/form-templates/{id}/publish [post]
func (h *FormHandler) Publish(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Publish)
}

// Archive godoc
// @Summary      Archivar plantilla
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {object}  dto.TemplateResponse
// @Router       /api/form-templates/{id}/archive [post]
func (h *FormHandler) Archive(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Archive)
}

// Deprecate godoc
// @Summary      Marcar plantilla como obsoleta
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla"
// @Success      200  {object}  dto.TemplateResponse
// @Router       /api/form-templates/{id}/deprecate [post]
func (h *FormHandler) Deprecate(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Deprecate)
}

func (h *FormHandler) transition(c *fiber.Ctx, fn func(ctx context.Context, id string) (*dto.TemplateResponse, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := fn(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateVersion godoc
// @Summary      Nueva versión en borrador
// @Description  Copia secciones, ítems, opciones y validaciones con versión siguiente.
// @Tags         forms
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la plantilla origen"
// @Success      201  {object}  dto.TemplateResponse
// @Router       /api/form-templates/{id}/versions [post]
func (h *FormHandler) CreateVersion(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateVersion(c.UserContext(), GetUserID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ── Secciones e ítems ─────────────────────────────────────────────────────────

// CreateSection godoc
// @Summary      Agregar sección
// @Tags         forms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la plantilla"
// @Param        body  body  dto.SectionRequest  true  "Datos de la sección"
// @Success      201   {object}  dto.SectionResponse
// @Router       /api/form-templates/{id}/sections [post]
func (h *FormHandler) CreateSection(c *fiber.Ctx) error {
	templateID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SectionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateSection(c.UserContext(), templateID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *FormHandler) UpdateSection(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SectionRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateSection(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *FormHandler) DeleteSection(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteSection(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateItem godoc
// @Summary      Agregar ítem
// @Tags         forms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la plantilla"
// @Param        body  body  dto.ItemRequest  true  "Datos del ítem"
// @Success      201   {object}  dto.ItemResponse
// @Router       /api/form-templates/{id}/items [post]
func (h *FormHandler) CreateItem(c *fiber.Ctx) error {
	templateID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ItemRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateItem(c.UserContext(), templateID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *FormHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ItemRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateItem(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *FormHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteItem(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReplaceOptions godoc
// @Summary      Reemplazar opciones del ítem
// @Tags         forms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ítem"
// @Param        body  body  dto.ReplaceOptionsRequest  true  "Opciones"
// @Success      200   {array}  dto.OptionResponse
// @Router       /api/form-items/{id}/options [put]
func (h *FormHandler) ReplaceOptions(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReplaceOptionsRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ReplaceOptions(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReplaceValidations godoc
// @Summary      Reemplazar validaciones del ítem
// @Tags         forms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ítem"
// @Param        body  body  dto.ReplaceValidationsRequest  true  "Reglas"
// @Success      200   {array}  dto.ValidationResponse
// @Router       /api/form-items/{id}/validations [put]
func (h *FormHandler) ReplaceValidations(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReplaceValidationsRequest
	if err := bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ReplaceValidations(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
