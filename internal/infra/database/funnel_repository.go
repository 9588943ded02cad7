package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

type FunnelRepository struct {
	DB *sql.DB
}

func NewFunnelRepository(db *sql.DB) *FunnelRepository {
	return &FunnelRepository{DB: db}
}

const funnelColumns = `id, uid, name, gateway, events, status, shoots, leads, revenue, reaches, recovers, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFunnel(row rowScanner) (*entity.Funnel, error) {
	var (
		f       entity.Funnel
		events  pq.StringArray
		leads   pq.StringArray
		shoots  []byte
		revenue decimal.Decimal
	)
	err := row.Scan(
		&f.ID,
		&f.UID,
		&f.Name,
		&f.Gateway,
		&events,
		&f.Status,
		&shoots,
		&leads,
		&revenue,
		&f.Reaches,
		&f.Recovers,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(shoots, &f.Shoots); err != nil {
		return nil, fmt.Errorf("shoots inválidos no funil %s: %w", f.ID, err)
	}
	f.ActivatingEvents = make([]entity.Event, len(events))
	for i, e := range events {
		f.ActivatingEvents[i] = entity.Event(e)
	}
	f.Leads = []string(leads)
	f.Revenue = revenue
	return &f, nil
}

func (r *FunnelRepository) FindByID(ctx context.Context, id string) (*entity.Funnel, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+funnelColumns+` FROM funnels WHERE id = $1`, id)
	f, err := scanFunnel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrFunnelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar funil: %w", err)
	}
	return f, nil
}

// ListByUser returns the user's funnels, oldest first.
func (r *FunnelRepository) ListByUser(ctx context.Context, uid string) ([]*entity.Funnel, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+funnelColumns+` FROM funnels WHERE uid = $1 ORDER BY created_at, id`, uid)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar funis: %w", err)
	}
	defer rows.Close()

	funnels := []*entity.Funnel{}
	for rows.Next() {
		f, err := scanFunnel(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler funil: %w", err)
		}
		funnels = append(funnels, f)
	}
	return funnels, rows.Err()
}

// Enroll guards the add-to-set with the WHERE clause, so two concurrent
// deliveries for the same phone cannot both enroll it.
func (r *FunnelRepository) Enroll(ctx context.Context, funnelID, phone string, workers []*entity.Worker) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("erro ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE funnels
		SET leads = array_append(leads, $2), reaches = reaches + 1
		WHERE id = $1 AND status = 'active' AND NOT ($2 = ANY(leads))
	`, funnelID, phone)
	if err != nil {
		return false, fmt.Errorf("erro ao inscrever lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if err := insertWorkers(ctx, tx, workers); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("erro ao confirmar inscrição: %w", err)
	}
	return true, nil
}

func (r *FunnelRepository) Settle(ctx context.Context, s entity.Settlement) (entity.SettleResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return entity.SettleResult{}, fmt.Errorf("erro ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE funnels
		SET leads = array_remove(leads, $2), revenue = revenue + $3, recovers = recovers + 1
		WHERE id = $1 AND $2 = ANY(leads)
	`, s.FunnelID, s.Phone, s.Revenue)
	if err != nil {
		return entity.SettleResult{}, fmt.Errorf("erro ao liquidar lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return entity.SettleResult{}, err
	}
	if n == 0 {
		return entity.SettleResult{}, nil
	}

	cancelled, err := cancelWorkers(ctx, tx, s.FunnelID, s.Phone, s.Scope)
	if err != nil {
		return entity.SettleResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return entity.SettleResult{}, fmt.Errorf("erro ao confirmar liquidação: %w", err)
	}
	return entity.SettleResult{Settled: true, WorkersCancelled: cancelled}, nil
}

// RemoveLead takes phone out of the in-flight set and cancels its workers in
// the same transaction.
func (r *FunnelRepository) RemoveLead(ctx context.Context, funnelID, phone string, scope entity.CancelScope) (bool, int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("erro ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE funnels
		SET leads = array_remove(leads, $2)
		WHERE id = $1 AND $2 = ANY(leads)
	`, funnelID, phone)
	if err != nil {
		return false, 0, fmt.Errorf("erro ao remover lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	if n == 0 {
		return false, 0, nil
	}

	cancelled, err := cancelWorkers(ctx, tx, funnelID, phone, scope)
	if err != nil {
		return false, 0, err
	}
	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("erro ao confirmar remoção: %w", err)
	}
	return true, cancelled, nil
}

func cancelWorkers(ctx context.Context, tx *sql.Tx, funnelID, phone string, scope entity.CancelScope) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if scope == entity.CancelByFunnel {
		res, err = tx.ExecContext(ctx, `DELETE FROM workers WHERE lead_phone = $1 AND fid = $2`, phone, funnelID)
	} else {
		res, err = tx.ExecContext(ctx, `DELETE FROM workers WHERE lead_phone = $1`, phone)
	}
	if err != nil {
		return 0, fmt.Errorf("erro ao cancelar workers: %w", err)
	}
	return res.RowsAffected()
}

// Create stores a new funnel with whatever counters f carries.
func (r *FunnelRepository) Create(ctx context.Context, f *entity.Funnel) error {
	shoots, err := json.Marshal(f.Shoots)
	if err != nil {
		return err
	}
	events := make([]string, len(f.ActivatingEvents))
	for i, e := range f.ActivatingEvents {
		events[i] = string(e)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO funnels (id, uid, name, gateway, events, status, shoots, leads, revenue, reaches, recovers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		f.ID,
		f.UID,
		f.Name,
		string(f.Gateway),
		pq.Array(events),
		string(f.Status),
		string(shoots),
		pq.Array(append([]string{}, f.Leads...)),
		f.Revenue,
		f.Reaches,
		f.Recovers,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("erro ao criar funil: %w", err)
	}
	return nil
}

// Update replaces the funnel's configuration. Leads, revenue and counters
// belong to the webhook flow and are never touched here.
func (r *FunnelRepository) Update(ctx context.Context, f *entity.Funnel) error {
	shoots, err := json.Marshal(f.Shoots)
	if err != nil {
		return err
	}
	events := make([]string, len(f.ActivatingEvents))
	for i, e := range f.ActivatingEvents {
		events[i] = string(e)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE funnels
		SET name = $3, gateway = $4, events = $5, status = $6, shoots = $7
		WHERE id = $1 AND uid = $2
	`, f.ID, f.UID, f.Name, string(f.Gateway), pq.Array(events), string(f.Status), string(shoots))
	if err != nil {
		return fmt.Errorf("erro ao atualizar funil: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrFunnelNotFound
	}
	return nil
}

// Delete removes the funnel and its pending workers in one transaction and
// reports how many workers were cancelled.
func (r *FunnelRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM workers WHERE fid = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("erro ao cancelar workers do funil: %w", err)
	}
	cancelled, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM funnels WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("erro ao remover funil: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, entity.ErrFunnelNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("erro ao confirmar remoção do funil: %w", err)
	}
	return cancelled, nil
}

const workerColumns = 8

// insertWorkers writes the batch as a single multi-row INSERT.
func insertWorkers(ctx context.Context, tx *sql.Tx, workers []*entity.Worker) error {
	if len(workers) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO workers (id, uid, fid, lead_phone, lead, shoot, perform_at, created_at) VALUES `)
	args := make([]any, 0, len(workers)*workerColumns)
	for i, w := range workers {
		lead, err := json.Marshal(w.Lead)
		if err != nil {
			return err
		}
		shoot, err := json.Marshal(w.Shoot)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * workerColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		// lib/pq envia []byte como bytea; jsonb precisa de texto
		args = append(args, w.ID, w.UID, w.FID, w.Lead.Phone, string(lead), string(shoot), w.PerformAt, w.CreatedAt)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("erro ao agendar workers: %w", err)
	}
	return nil
}
