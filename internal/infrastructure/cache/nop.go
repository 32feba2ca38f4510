package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

var (
	_ ports.ClaimsCache    = NopClaimsCache{}
	_ ports.ReportCache    = NopReportCache{}
	_ ports.TokenBlacklist = (*MemoryBlacklist)(nil)
)

// NopClaimsCache siempre falla el lookup: los claims se recalculan en cada request.
type NopClaimsCache struct{}

func (NopClaimsCache) Get(context.Context, string) (*access.Claims, error) { return nil, nil }
func (NopClaimsCache) Set(context.Context, *access.Claims) error           { return nil }
func (NopClaimsCache) Invalidate(context.Context, ...string) error         { return nil }

// NopReportCache no guarda resultados.
type NopReportCache struct{}

func (NopReportCache) Get(context.Context, string) (*entity.ReportResult, error) { return nil, nil }
func (NopReportCache) Set(context.Context, string, *entity.ReportResult) error   { return nil }
func (NopReportCache) InvalidateReport(context.Context, string) error            { return nil }

// MemoryBlacklist lista negra en proceso para instancias sin Redis.
type MemoryBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{tokens: map[string]time.Time{}, now: time.Now}
}

func (b *MemoryBlacklist) Add(_ context.Context, token string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for t, exp := range b.tokens {
		if !exp.After(now) {
			delete(b.tokens, t)
		}
	}
	if expiresAt.After(now) {
		b.tokens[token] = expiresAt
	}
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.tokens[token]
	return ok && exp.After(b.now()), nil
}
