package ports

import "context"

// ObjectStorage almacenamiento de archivos (adjuntos de envíos y salidas de reportes).
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	// Get devuelve el contenido y su content-type; domain.ErrNotFound si la clave no existe.
	Get(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}
