package ports

import "github.com/jhoicas/form-reporting-api/internal/domain/entity"

// ReportExporter convierte un resultado de reporte a un formato de archivo.
type ReportExporter interface {
	// Format CSV, Excel o PDF.
	Format() string
	ContentType() string
	Extension() string
	Export(def *entity.ReportDefinition, result *entity.ReportResult) ([]byte, error)
}
