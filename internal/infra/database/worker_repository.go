package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

type WorkerRepository struct {
	DB *sql.DB
}

func NewWorkerRepository(db *sql.DB) *WorkerRepository {
	return &WorkerRepository{DB: db}
}

func (r *WorkerRepository) DeleteByPhone(ctx context.Context, phone string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM workers WHERE lead_phone = $1`, phone)
	if err != nil {
		return 0, fmt.Errorf("erro ao cancelar workers: %w", err)
	}
	return res.RowsAffected()
}

func (r *WorkerRepository) DeleteByFunnelAndPhone(ctx context.Context, funnelID, phone string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM workers WHERE lead_phone = $1 AND fid = $2`, phone, funnelID)
	if err != nil {
		return 0, fmt.Errorf("erro ao cancelar workers: %w", err)
	}
	return res.RowsAffected()
}

func (r *WorkerRepository) CountByPhone(ctx context.Context, phone string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM workers WHERE lead_phone = $1`, phone).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("erro ao contar workers: %w", err)
	}
	return n, nil
}

// ClaimDue locks up to limit due workers, hands each to fn and deletes the
// ones fn accepted. Rows locked by another relay are skipped. The deletes of
// accepted workers are committed even when fn fails midway.
func (r *WorkerRepository) ClaimDue(ctx context.Context, now time.Time, limit int, fn func(*entity.Worker) error) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("erro ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, uid, fid, lead, shoot, perform_at, created_at
		FROM workers
		WHERE perform_at <= $1
		ORDER BY perform_at, id
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return 0, fmt.Errorf("erro ao buscar workers vencidos: %w", err)
	}
	due, err := scanWorkers(rows)
	if err != nil {
		return 0, err
	}

	claimed := 0
	var fnErr error
	for _, w := range due {
		if fnErr = fn(w); fnErr != nil {
			break
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM workers WHERE id = $1`, w.ID); err != nil {
			return 0, fmt.Errorf("erro ao remover worker %s: %w", w.ID, err)
		}
		claimed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("erro ao confirmar workers: %w", err)
	}
	return claimed, fnErr
}

func scanWorkers(rows *sql.Rows) ([]*entity.Worker, error) {
	defer rows.Close()

	var out []*entity.Worker
	for rows.Next() {
		var (
			w           entity.Worker
			lead, shoot []byte
		)
		if err := rows.Scan(&w.ID, &w.UID, &w.FID, &lead, &shoot, &w.PerformAt, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("erro ao ler worker: %w", err)
		}
		if err := json.Unmarshal(lead, &w.Lead); err != nil {
			return nil, fmt.Errorf("lead inválido no worker %s: %w", w.ID, err)
		}
		if err := json.Unmarshal(shoot, &w.Shoot); err != nil {
			return nil, fmt.Errorf("shoot inválido no worker %s: %w", w.ID, err)
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
