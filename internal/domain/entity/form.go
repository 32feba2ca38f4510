package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frecuencia de una plantilla.
const (
	TemplateDaily     = "Daily"
	TemplateWeekly    = "Weekly"
	TemplateMonthly   = "Monthly"
	TemplateQuarterly = "Quarterly"
	TemplateAnnual    = "Annual"
)

// Estado de publicación de una plantilla.
const (
	PublishDraft      = "Draft"
	PublishPublished  = "Published"
	PublishArchived   = "Archived"
	PublishDeprecated = "Deprecated"
)

// Tipos de dato de un ítem de formulario.
const (
	DataTypeText        = "Text"
	DataTypeTextArea    = "TextArea"
	DataTypeNumber      = "Number"
	DataTypeDecimal     = "Decimal"
	DataTypeCurrency    = "Currency"
	DataTypePercentage  = "Percentage"
	DataTypeRating      = "Rating"
	DataTypeSlider      = "Slider"
	DataTypeBoolean     = "Boolean"
	DataTypeDate        = "Date"
	DataTypeDateTime    = "DateTime"
	DataTypeTime        = "Time"
	DataTypeDropdown    = "Dropdown"
	DataTypeRadio       = "Radio"
	DataTypeCheckbox    = "Checkbox"
	DataTypeMultiSelect = "MultiSelect"
	DataTypeFileUpload  = "FileUpload"
	DataTypeImage       = "Image"
	DataTypeSignature   = "Signature"
	DataTypeEmail       = "Email"
	DataTypePhone       = "Phone"
	DataTypeURL         = "Url"
)

var itemDataTypes = map[string]struct{}{
	DataTypeText: {}, DataTypeTextArea: {}, DataTypeNumber: {}, DataTypeDecimal: {},
	DataTypeCurrency: {}, DataTypePercentage: {}, DataTypeRating: {}, DataTypeSlider: {},
	DataTypeBoolean: {}, DataTypeDate: {}, DataTypeDateTime: {}, DataTypeTime: {},
	DataTypeDropdown: {}, DataTypeRadio: {}, DataTypeCheckbox: {}, DataTypeMultiSelect: {},
	DataTypeFileUpload: {}, DataTypeImage: {}, DataTypeSignature: {}, DataTypeEmail: {},
	DataTypePhone: {}, DataTypeURL: {},
}

// ValidItemDataType indica si el tipo de dato es soportado.
func ValidItemDataType(dt string) bool {
	_, ok := itemDataTypes[dt]
	return ok
}

// IsOptionType tipos cuya respuesta es una opción del catálogo del ítem.
func IsOptionType(dt string) bool {
	switch dt {
	case DataTypeDropdown, DataTypeRadio, DataTypeCheckbox, DataTypeMultiSelect, DataTypeRating:
		return true
	}
	return false
}

// IsFileType tipos cuya respuesta es un archivo en almacenamiento de objetos.
func IsFileType(dt string) bool {
	switch dt {
	case DataTypeFileUpload, DataTypeImage, DataTypeSignature:
		return true
	}
	return false
}

// FormCategory agrupa plantillas.
type FormCategory struct {
	ID           string
	CategoryName string
	Description  string
	DisplayOrder int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FormTemplate plantilla de formulario versionada.
type FormTemplate struct {
	ID               string
	CategoryID       *string
	TemplateName     string
	TemplateCode     string
	Description      string
	TemplateType     string
	Version          int
	PublishStatus    string
	RequiresApproval bool
	IsActive         bool
	CreatedBy        string
	PublishedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsDraft la estructura solo se edita en borrador.
func (t *FormTemplate) IsDraft() bool { return t.PublishStatus == PublishDraft }

// FormSection sección ponderada de una plantilla.
type FormSection struct {
	ID           string
	TemplateID   string
	SectionName  string
	Description  string
	DisplayOrder int
	Weight       decimal.Decimal // por defecto 1
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FormItem campo de una sección.
type FormItem struct {
	ID           string
	TemplateID   string
	SectionID    string
	ItemCode     string
	ItemName     string
	Description  string
	DataType     string
	IsRequired   bool
	DisplayOrder int
	Weight       decimal.Decimal // por defecto 1
	Placeholder  string
	DefaultValue string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Solo lectura: nombre de la sección (JOIN).
	SectionName string
}

// FormItemOption opción de selección con puntaje opcional.
type FormItemOption struct {
	ID           string
	ItemID       string
	OptionValue  string
	OptionLabel  string
	DisplayOrder int
	ScoreValue   *decimal.Decimal
	ScoreWeight  *decimal.Decimal
	IsDefault    bool
	IsActive     bool
}

// Tipos de regla de validación.
const (
	ValidationRequired  = "Required"
	ValidationRange     = "Range"
	ValidationMinLength = "MinLength"
	ValidationMaxLength = "MaxLength"
	ValidationPattern   = "Pattern"
	ValidationEmail     = "Email"
)

// FormItemValidation regla adicional sobre la respuesta de un ítem.
type FormItemValidation struct {
	ID             string
	ItemID         string
	ValidationType string
	MinValue       *decimal.Decimal
	MaxValue       *decimal.Decimal
	MinLength      *int
	MaxLength      *int
	Pattern        string
	ErrorMessage   string
	DisplayOrder   int
}

// TemplateStructure plantilla con secciones, ítems, opciones y validaciones cargadas.
type TemplateStructure struct {
	Template    *FormTemplate
	Sections    []*FormSection
	Items       []*FormItem
	Options     map[string][]*FormItemOption     // por ItemID
	Validations map[string][]*FormItemValidation // por ItemID
}

// ItemByID busca un ítem de la estructura.
func (s *TemplateStructure) ItemByID(id string) *FormItem {
	for _, it := range s.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// ItemsOfSection ítems activos de una sección en orden de visualización.
func (s *TemplateStructure) ItemsOfSection(sectionID string) []*FormItem {
	var out []*FormItem
	for _, it := range s.Items {
		if it.SectionID == sectionID && it.IsActive {
			out = append(out, it)
		}
	}
	return out
}
