package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
)

var _ ports.ObjectStorage = Disabled{}

// Disabled se usa sin STORAGE_ENDPOINT: adjuntos y salidas programadas devuelven ErrUnavailable.
type Disabled struct{}

func (Disabled) Put(context.Context, string, string, []byte) error {
	return fmt.Errorf("%w: almacenamiento de objetos no configurado", domain.ErrUnavailable)
}

func (Disabled) Get(context.Context, string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("%w: almacenamiento de objetos no configurado", domain.ErrUnavailable)
}

func (Disabled) Remove(context.Context, string) error { return nil }
