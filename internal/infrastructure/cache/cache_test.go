package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportCache_CodificacionConservaTipos(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	in := &entity.ReportResult{
		Columns: []entity.ReportColumn{{Key: "c0", Label: "Tenant"}, {Key: "c1", Label: "Horas"}, {Key: "c2", Label: "Enviado"}},
		Rows: [][]any{
			{"Sede Norte", decimal.RequireFromString("12.50"), at},
			{"Sede Sur", nil, nil},
		},
		Truncated: true,
	}
	raw, err := encodeResult(in)
	require.NoError(t, err)

	out, err := decodeResult(raw)
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	assert.True(t, out.Truncated)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "Sede Norte", out.Rows[0][0])
	d, ok := out.Rows[0][1].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, at.Equal(out.Rows[0][2].(time.Time)))
	assert.Nil(t, out.Rows[1][1])
	assert.Nil(t, out.Rows[1][2])
}

func TestReportCache_EnterosSeGuardanComoDecimal(t *testing.T) {
	raw, err := encodeResult(&entity.ReportResult{Rows: [][]any{{2025}}})
	require.NoError(t, err)
	out, err := decodeResult(raw)
	require.NoError(t, err)
	d, ok := out.Rows[0][0].(decimal.Decimal)
	require.True(t, ok)
	assert.Equal(t, int64(2025), d.IntPart())
}

func TestMemoryBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewMemoryBlacklist()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Add(ctx, "vigente", now.Add(time.Hour)))
	require.NoError(t, b.Add(ctx, "vencido", now.Add(-time.Minute)))

	ok, err := b.Contains(ctx, "vigente")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = b.Contains(ctx, "vencido")
	assert.False(t, ok)

	now = now.Add(2 * time.Hour)
	ok, _ = b.Contains(ctx, "vigente")
	assert.False(t, ok)
}

func TestTokenBlacklist_ClaveNoExponeElToken(t *testing.T) {
	b := NewTokenBlacklist(nil, "secreto")
	k := b.key("eyJhbGciOi.token.firma")
	assert.NotContains(t, k, "eyJhbGciOi")
	assert.Equal(t, k, b.key("eyJhbGciOi.token.firma"))
	assert.NotEqual(t, k, NewTokenBlacklist(nil, "otro").key("eyJhbGciOi.token.firma"))
}

func TestNopCaches(t *testing.T) {
	ctx := context.Background()
	c, err := NopClaimsCache{}.Get(ctx, "u1")
	assert.NoError(t, err)
	assert.Nil(t, c)
	r, err := NopReportCache{}.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, r)
}
