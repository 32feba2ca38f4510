package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/form-reporting-api/internal/domain"
)

// Querier lo comparten *pgxpool.Pool y pgx.Tx: los repositorios funcionan dentro o fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// builder squirrel con placeholders $n.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation 23503: la fila es referenciada o referencia algo inexistente.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// wrapErr traduce errores de PostgreSQL a errores de dominio.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notFound (nil, nil) para ErrNoRows, error envuelto en otro caso.
func notFound[T any](op string, v *T, err error) (*T, error) {
	if err == nil {
		return v, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// exec ejecuta una sentencia squirrel.
func exec(ctx context.Context, q Querier, op string, b sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("%s: build: %w", op, err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	return tag, wrapErr(op, err)
}

// mustAffect domain.ErrNotFound si la sentencia no tocó filas.
func mustAffect(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// queryRow arma y ejecuta una consulta de una fila.
func queryRow(ctx context.Context, q Querier, b sq.Sqlizer) (pgx.Row, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return q.QueryRow(ctx, sql, args...), nil
}

// scanner lo cumplen pgx.Row y pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// selectAll ejecuta la consulta y escanea cada fila con scan.
func selectAll[T any](ctx context.Context, q Querier, op string, b sq.Sqlizer, scan func(scanner) (*T, error)) ([]*T, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// selectOne primera fila o (nil, nil).
func selectOne[T any](ctx context.Context, q Querier, op string, b sq.Sqlizer, scan func(scanner) (*T, error)) (*T, error) {
	row, err := queryRow(ctx, q, b)
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}
	v, err := scan(row)
	return notFound(op, v, err)
}

// count SELECT COUNT(*) sobre la consulta dada.
func count(ctx context.Context, q Querier, op string, b sq.SelectBuilder) (int, error) {
	row, err := queryRow(ctx, q, b)
	if err != nil {
		return 0, fmt.Errorf("%s: build: %w", op, err)
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// page aplica LIMIT/OFFSET si limit > 0.
func page(b sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}

// inIDs filtro "col IN ids"; ids vacío (no nil) no coincide con nada.
func inIDs(col string, ids []string) sq.Sqlizer {
	if len(ids) == 0 {
		return sq.Expr("FALSE")
	}
	return sq.Eq{col: ids}
}

// ilike búsqueda sin distinguir mayúsculas sobre varias columnas.
func ilike(search string, cols ...string) sq.Or {
	pattern := "%" + escapeLike(strings.TrimSpace(search)) + "%"
	or := make(sq.Or, 0, len(cols))
	for _, c := range cols {
		or = append(or, sq.ILike{c: pattern})
	}
	return or
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// nullString "" → NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// str NULL → "".
func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ensureID asigna un UUID si el ID viene vacío.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// stamp completa con la hora actual las marcas de tiempo en cero.
func stamp(ts ...*time.Time) {
	now := time.Now().UTC()
	for _, t := range ts {
		if t.IsZero() {
			*t = now
		}
	}
}

// selectStrings consulta de una sola columna de texto.
func selectStrings(ctx context.Context, q Querier, op, query string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func deref[T any](in []*T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}
