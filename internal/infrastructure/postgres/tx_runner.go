package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// NewRepos arma el juego de repositorios sobre q (pool o tx).
func NewRepos(q Querier) ports.Repos {
	return ports.Repos{
		Users:         NewUserRepository(q),
		Roles:         NewRoleRepository(q),
		Regions:       NewRegionRepository(q),
		Tenants:       NewTenantRepository(q),
		Departments:   NewDepartmentRepository(q),
		Groups:        NewTenantGroupRepository(q),
		Templates:     NewFormTemplateRepository(q),
		Submissions:   NewSubmissionRepository(q),
		Mappings:      NewMetricMappingRepository(q),
		TenantMetrics: NewTenantMetricRepository(q),
		Reports:       NewReportRepository(q),
		Options:       NewOptionTemplateRepository(q),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ports.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
