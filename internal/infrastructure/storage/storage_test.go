package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapErr_NoSuchKeyEsNotFound(t *testing.T) {
	err := mapErr("a/b.pdf", minio.ErrorResponse{Code: "NoSuchKey", Message: "no existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = mapErr("a/b.pdf", errors.New("timeout"))
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestDisabled_DevuelveUnavailable(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, Disabled{}.Put(ctx, "k", "text/plain", []byte("x")), domain.ErrUnavailable)
	_, _, err := Disabled{}.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.NoError(t, Disabled{}.Remove(ctx, "k"))
}
