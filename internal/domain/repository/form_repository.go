package repository

import (
	"context"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// FormCategoryRepository persistencia de categorías de formularios.
type FormCategoryRepository interface {
	Create(ctx context.Context, c *entity.FormCategory) error
	Update(ctx context.Context, c *entity.FormCategory) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.FormCategory, error)
	List(ctx context.Context, p ListParams) ([]*entity.FormCategory, int, error)
	CountTemplates(ctx context.Context, categoryID string) (int, error)
}

// TemplateFilter criterios de listado de plantillas.
type TemplateFilter struct {
	CategoryID    string
	PublishStatus string
	Search        string
	OnlyActive    bool
	Limit         int
	Offset        int
}

// FormTemplateRepository persistencia de plantillas y su estructura (secciones, ítems, opciones, validaciones).
type FormTemplateRepository interface {
	Create(ctx context.Context, t *entity.FormTemplate) error
	Update(ctx context.Context, t *entity.FormTemplate) error
	GetByID(ctx context.Context, id string) (*entity.FormTemplate, error)
	// GetByCode última versión con ese código.
	GetByCode(ctx context.Context, code string) (*entity.FormTemplate, error)
	// ListVersions todas las versiones de un código, de la más nueva a la más vieja.
	ListVersions(ctx context.Context, code string) ([]*entity.FormTemplate, error)
	List(ctx context.Context, f TemplateFilter) ([]*entity.FormTemplate, int, error)

	CreateSection(ctx context.Context, s *entity.FormSection) error
	UpdateSection(ctx context.Context, s *entity.FormSection) error
	DeleteSection(ctx context.Context, id string) error
	GetSection(ctx context.Context, id string) (*entity.FormSection, error)
	CountSectionItems(ctx context.Context, sectionID string) (int, error)

	CreateItem(ctx context.Context, it *entity.FormItem) error
	UpdateItem(ctx context.Context, it *entity.FormItem) error
	DeleteItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (*entity.FormItem, error)
	GetItemByCode(ctx context.Context, templateID, code string) (*entity.FormItem, error)
	// ListItems ítems activos con nombre de sección, ordenados por sección e ítem.
	ListItems(ctx context.Context, templateID string) ([]*entity.FormItem, error)

	ReplaceOptions(ctx context.Context, itemID string, opts []*entity.FormItemOption) error
	ReplaceValidations(ctx context.Context, itemID string, rules []*entity.FormItemValidation) error

	// GetStructure carga plantilla, secciones, ítems, opciones y validaciones activos.
	GetStructure(ctx context.Context, templateID string) (*entity.TemplateStructure, error)
}
