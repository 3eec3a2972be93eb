package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/config"
	"github.com/TemirB/bankid-sign/internal/domain"
)

type Repo struct {
	pool   *pgxpool.Pool
	tables config.Tables
}

func New(pool *pgxpool.Pool, t config.Tables) *Repo { return &Repo{pool: pool, tables: t} }

// Connect opens a pool with queries traced to logger and pings it.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   newZapTracer(logger),
		LogLevel: tracelog.LogLevelInfo,
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (r *Repo) qt() string { return fmt.Sprintf(`"%s"."%s"`, r.tables.Schema, r.tables.Signs) }

func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, r.tables.Schema))
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
		  id         BIGSERIAL PRIMARY KEY,
		  order_ref  TEXT NOT NULL UNIQUE,
		  status     TEXT NOT NULL,
		  hint_code  TEXT NOT NULL DEFAULT '',
		  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, r.qt()))
	return err
}

func (r *Repo) List(ctx context.Context) ([]domain.Sign, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, order_ref, status, hint_code, created_at
		FROM %s ORDER BY created_at DESC, id DESC
	`, r.qt()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signs := make([]domain.Sign, 0)
	for rows.Next() {
		var s domain.Sign
		if err := rows.Scan(&s.ID, &s.OrderRef, &s.Status, &s.HintCode, &s.CreatedAt); err != nil {
			return nil, err
		}
		signs = append(signs, s)
	}
	return signs, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (*domain.Sign, error) {
	var s domain.Sign
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, order_ref, status, hint_code, created_at
		FROM %s WHERE id=$1
	`, r.qt()), id).Scan(&s.ID, &s.OrderRef, &s.Status, &s.HintCode, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create stores s, replacing any record for the same order reference.
func (r *Repo) Create(ctx context.Context, s *domain.Sign) error {
	return r.Upsert(ctx, s)
}

func (r *Repo) Upsert(ctx context.Context, s *domain.Sign) error {
	return r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (order_ref, status, hint_code)
		VALUES ($1,$2,$3)
		ON CONFLICT (order_ref) DO UPDATE SET
		  status=EXCLUDED.status,
		  hint_code=EXCLUDED.hint_code
		RETURNING id, created_at
	`, r.qt()), s.OrderRef, s.Status, s.HintCode).Scan(&s.ID, &s.CreatedAt)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, r.qt()), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByOrderRef is idempotent: deleting a missing order is not an error.
func (r *Repo) DeleteByOrderRef(ctx context.Context, orderRef string) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE order_ref=$1`, r.qt()), orderRef)
	return err
}

func (r *Repo) RecentIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, r.qt()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
