package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Categorías ────────────────────────────────────────────────────────────────

// CategoryRequest alta o modificación de categoría de formularios.
type CategoryRequest struct {
	CategoryName string `json:"category_name" validate:"required,max=100"`
	Description  string `json:"description" validate:"omitempty,max=500"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
	IsActive     *bool  `json:"is_active"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID            string    `json:"id"`
	CategoryName  string    `json:"category_name"`
	Description   string    `json:"description,omitempty"`
	DisplayOrder  int       `json:"display_order"`
	IsActive      bool      `json:"is_active"`
	TemplateCount int       `json:"template_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ── Plantillas ────────────────────────────────────────────────────────────────

// TemplateRequest alta o modificación de los datos generales de una plantilla.
type TemplateRequest struct {
	CategoryID       *string `json:"category_id" validate:"omitempty,uuid"`
	TemplateName     string  `json:"template_name" validate:"required,max=200"`
	TemplateCode     string  `json:"template_code" validate:"required,max=50"`
	Description      string  `json:"description" validate:"omitempty,max=1000"`
	TemplateType     string  `json:"template_type" validate:"required,oneof=Daily Weekly Monthly Quarterly Annual"`
	RequiresApproval bool    `json:"requires_approval"`
	IsActive         *bool   `json:"is_active"`
}

// TemplateListRequest filtros del listado de plantillas.
type TemplateListRequest struct {
	PageRequest
	CategoryID    string `query:"category_id" validate:"omitempty,uuid"`
	PublishStatus string `query:"publish_status" validate:"omitempty,oneof=Draft Published Archived Deprecated"`
	OnlyActive    bool   `query:"only_active"`
}

// TemplateResponse salida de una plantilla sin estructura.
type TemplateResponse struct {
	ID               string     `json:"id"`
	CategoryID       *string    `json:"category_id,omitempty"`
	TemplateName     string     `json:"template_name"`
	TemplateCode     string     `json:"template_code"`
	Description      string     `json:"description,omitempty"`
	TemplateType     string     `json:"template_type"`
	Version          int        `json:"version"`
	PublishStatus    string     `json:"publish_status"`
	RequiresApproval bool       `json:"requires_approval"`
	IsActive         bool       `json:"is_active"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TemplateStructureResponse plantilla con secciones, ítems, opciones y validaciones.
type TemplateStructureResponse struct {
	TemplateResponse
	Sections []SectionResponse `json:"sections"`
}

// ── Secciones e ítems ─────────────────────────────────────────────────────────

// SectionRequest alta o modificación de sección. Weight por defecto 1.
type SectionRequest struct {
	SectionName  string           `json:"section_name" validate:"required,max=200"`
	Description  string           `json:"description" validate:"omitempty,max=1000"`
	DisplayOrder int              `json:"display_order" validate:"min=0"`
	Weight       *decimal.Decimal `json:"weight"`
}

// SectionResponse sección con sus ítems.
type SectionResponse struct {
	ID           string          `json:"id"`
	SectionName  string          `json:"section_name"`
	Description  string          `json:"description,omitempty"`
	DisplayOrder int             `json:"display_order"`
	Weight       decimal.Decimal `json:"weight"`
	Items        []ItemResponse  `json:"items"`
}

// ItemRequest alta o modificación de ítem. Weight por defecto 1.
type ItemRequest struct {
	SectionID    string           `json:"section_id" validate:"required,uuid"`
	ItemCode     string           `json:"item_code" validate:"required,max=50"`
	ItemName     string           `json:"item_name" validate:"required,max=200"`
	Description  string           `json:"description" validate:"omitempty,max=1000"`
	DataType     string           `json:"data_type" validate:"required"`
	IsRequired   bool             `json:"is_required"`
	DisplayOrder int              `json:"display_order" validate:"min=0"`
	Weight       *decimal.Decimal `json:"weight"`
	Placeholder  string           `json:"placeholder" validate:"omitempty,max=200"`
	DefaultValue string           `json:"default_value" validate:"omitempty,max=500"`
}

// ItemResponse ítem con opciones y validaciones.
type ItemResponse struct {
	ID           string               `json:"id"`
	SectionID    string               `json:"section_id"`
	ItemCode     string               `json:"item_code"`
	ItemName     string               `json:"item_name"`
	Description  string               `json:"description,omitempty"`
	DataType     string               `json:"data_type"`
	IsRequired   bool                 `json:"is_required"`
	DisplayOrder int                  `json:"display_order"`
	Weight       decimal.Decimal      `json:"weight"`
	Placeholder  string               `json:"placeholder,omitempty"`
	DefaultValue string               `json:"default_value,omitempty"`
	Options      []OptionResponse     `json:"options,omitempty"`
	Validations  []ValidationResponse `json:"validations,omitempty"`
}

// OptionInput opción de un ítem de selección.
type OptionInput struct {
	OptionValue  string           `json:"option_value" validate:"required,max=200"`
	OptionLabel  string           `json:"option_label" validate:"required,max=200"`
	DisplayOrder int              `json:"display_order"`
	ScoreValue   *decimal.Decimal `json:"score_value"`
	ScoreWeight  *decimal.Decimal `json:"score_weight"`
	IsDefault    bool             `json:"is_default"`
}

// ReplaceOptionsRequest reemplaza el catálogo de opciones del ítem.
type ReplaceOptionsRequest struct {
	Options []OptionInput `json:"options" validate:"dive"`
}

// OptionResponse salida de una opción.
type OptionResponse struct {
	ID           string           `json:"id"`
	OptionValue  string           `json:"option_value"`
	OptionLabel  string           `json:"option_label"`
	DisplayOrder int              `json:"display_order"`
	ScoreValue   *decimal.Decimal `json:"score_value,omitempty"`
	ScoreWeight  *decimal.Decimal `json:"score_weight,omitempty"`
	IsDefault    bool             `json:"is_default"`
}

// ValidationInput regla de validación de un ítem.
type ValidationInput struct {
	ValidationType string           `json:"validation_type" validate:"required,oneof=Required Range MinLength MaxLength Pattern Email"`
	MinValue       *decimal.Decimal `json:"min_value"`
	MaxValue       *decimal.Decimal `json:"max_value"`
	MinLength      *int             `json:"min_length" validate:"omitempty,min=0"`
	MaxLength      *int             `json:"max_length" validate:"omitempty,min=1"`
	Pattern        string           `json:"pattern" validate:"omitempty,max=500"`
	ErrorMessage   string           `json:"error_message" validate:"omitempty,max=500"`
}

// ReplaceValidationsRequest reemplaza las reglas del ítem.
type ReplaceValidationsRequest struct {
	Validations []ValidationInput `json:"validations" validate:"dive"`
}

// ValidationResponse salida de una regla.
type ValidationResponse struct {
	ID             string           `json:"id"`
	ValidationType string           `json:"validation_type"`
	MinValue       *decimal.Decimal `json:"min_value,omitempty"`
	MaxValue       *decimal.Decimal `json:"max_value,omitempty"`
	MinLength      *int             `json:"min_length,omitempty"`
	MaxLength      *int             `json:"max_length,omitempty"`
	Pattern        string           `json:"pattern,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
}

// PublishCheckResponse resultado de la revisión previa a publicar.
type PublishCheckResponse struct {
	CanPublish   bool     `json:"can_publish"`
	SectionCount int      `json:"section_count"`
	ItemCount    int      `json:"item_count"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
}
