package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patths/gametime-bonus/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) AccountExists(ctx context.Context, auth string) (bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT 1 FROM lk WHERE auth = $1`, auth)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PostgresRepository) CreditBalance(ctx context.Context, auth string, amount int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lk SET cash = cash + $1 WHERE auth = $2`,
		amount, auth)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) RecordGrant(ctx context.Context, input repository.RecordGrantInput) (*repository.GrantRecord, error) {
	rec := repository.GrantRecord{
		ID:        uuid.NewString(),
		Auth:      input.Auth,
		Amount:    input.Amount,
		GrantedAt: input.GrantedAt,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bonus_grants (id, auth, amount, granted_at)
		 VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.Auth, rec.Amount, rec.GrantedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
