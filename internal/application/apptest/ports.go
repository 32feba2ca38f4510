package apptest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// ClaimsCache cache de claims en memoria.
type ClaimsCache struct {
	mu          sync.Mutex
	Items       map[string]*access.Claims
	Invalidated []string
}

// NewClaimsCache cache vacío.
func NewClaimsCache() *ClaimsCache { return &ClaimsCache{Items: map[string]*access.Claims{}} }

func (c *ClaimsCache) Get(_ context.Context, userID string) (*access.Claims, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Items[userID], nil
}

func (c *ClaimsCache) Set(_ context.Context, claims *access.Claims) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Items[claims.UserID] = claims
	return nil
}

func (c *ClaimsCache) Invalidate(_ context.Context, userIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.Items, id)
		c.Invalidated = append(c.Invalidated, id)
	}
	return nil
}

// ReportCache cache de resultados en memoria.
type ReportCache struct {
	mu    sync.Mutex
	Items map[string]*entity.ReportResult
	Hits  int
}

// NewReportCache cache vacío.
func NewReportCache() *ReportCache { return &ReportCache{Items: map[string]*entity.ReportResult{}} }

func (c *ReportCache) Get(_ context.Context, key string) (*entity.ReportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.Items[key]
	if ok {
		c.Hits++
	}
	return r, nil
}

func (c *ReportCache) Set(_ context.Context, key string, r *entity.ReportResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Items[key] = r
	return nil
}

func (c *ReportCache) InvalidateReport(_ context.Context, reportID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.Items {
		if strings.Contains(k, reportID) {
			delete(c.Items, k)
		}
	}
	return nil
}

// Blacklist lista negra de tokens en memoria.
type Blacklist struct {
	mu    sync.Mutex
	Items map[string]time.Time
}

// NewBlacklist lista vacía.
func NewBlacklist() *Blacklist { return &Blacklist{Items: map[string]time.Time{}} }

func (b *Blacklist) Add(_ context.Context, token string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Items[token] = expiresAt
	return nil
}

func (b *Blacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.Items[token]
	return ok, nil
}

// Object archivo guardado en Storage.
type Object struct {
	ContentType string
	Data        []byte
}

// Storage almacenamiento de objetos en memoria.
type Storage struct {
	mu      sync.Mutex
	Objects map[string]Object
}

// NewStorage almacenamiento vacío.
func NewStorage() *Storage { return &Storage{Objects: map[string]Object{}} }

func (s *Storage) Put(_ context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = Object{ContentType: contentType, Data: data}
	return nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Objects[key]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return o.Data, o.ContentType, nil
}

func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

// Populator registra los envíos cuya población de métricas se pidió.
type Populator struct {
	mu  sync.Mutex
	IDs []string
	Err error
}

func (p *Populator) PopulateSubmission(_ context.Context, submissionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IDs = append(p.IDs, submissionID)
	return p.Err
}
