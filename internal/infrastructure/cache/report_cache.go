package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/reporting"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var _ ports.ReportCache = (*ReportCache)(nil)

// ReportCache resultados bajo las claves de reporting.CacheKey.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// cell conserva el tipo de la celda a través de JSON: decimales y fechas no sobreviven como any.
type cell struct {
	Num  *decimal.Decimal `json:"n,omitempty"`
	Time *time.Time       `json:"t,omitempty"`
	Val  any              `json:"v,omitempty"`
}

type cachedResult struct {
	Columns   []entity.ReportColumn `json:"columns"`
	Rows      [][]cell              `json:"rows"`
	Truncated bool                  `json:"truncated"`
}

func encodeResult(r *entity.ReportResult) ([]byte, error) {
	out := cachedResult{Columns: r.Columns, Rows: make([][]cell, len(r.Rows)), Truncated: r.Truncated}
	for i, row := range r.Rows {
		cells := make([]cell, len(row))
		for j, v := range row {
			if d, ok := reporting.Decimal(v); ok {
				cells[j].Num = &d
				continue
			}
			if t, ok := v.(time.Time); ok {
				cells[j].Time = &t
				continue
			}
			cells[j].Val = v
		}
		out.Rows[i] = cells
	}
	return json.Marshal(out)
}

func decodeResult(raw []byte) (*entity.ReportResult, error) {
	var in cachedResult
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := &entity.ReportResult{Columns: in.Columns, Rows: make([][]any, len(in.Rows)), Truncated: in.Truncated}
	for i, cells := range in.Rows {
		row := make([]any, len(cells))
		for j, c := range cells {
			switch {
			case c.Num != nil:
				row[j] = *c.Num
			case c.Time != nil:
				row[j] = *c.Time
			default:
				row[j] = c.Val
			}
		}
		out.Rows[i] = row
	}
	return out, nil
}

func (c *ReportCache) Get(ctx context.Context, key string) (*entity.ReportResult, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report cache get: %w", err)
	}
	res, err := decodeResult(raw)
	if err != nil {
		return nil, fmt.Errorf("report cache decode: %w", err)
	}
	return res, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, result *entity.ReportResult) error {
	raw, err := encodeResult(result)
	if err != nil {
		return fmt.Errorf("report cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("report cache set: %w", err)
	}
	return nil
}

// InvalidateReport recorre con SCAN las claves del prefijo del reporte.
func (c *ReportCache) InvalidateReport(ctx context.Context, reportID string) error {
	iter := c.client.Scan(ctx, 0, reporting.CacheKeyPrefix(reportID)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("report cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("report cache invalidate: %w", err)
	}
	return nil
}
