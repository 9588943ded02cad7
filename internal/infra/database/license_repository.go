package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-funnels/internal/entity"
)

const uniqueViolation = "23505"

type LicenseRepository struct {
	DB *sql.DB
}

func NewLicenseRepository(db *sql.DB) *LicenseRepository {
	return &LicenseRepository{DB: db}
}

func (r *LicenseRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM licenses WHERE lower(email) = lower($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("erro ao verificar licença: %w", err)
	}
	return exists, nil
}

func (r *LicenseRepository) Create(ctx context.Context, l *entity.License) error {
	query := `
		INSERT INTO licenses (id, name, email, phone, plan, licensed_until, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		l.ID,
		nullString(l.Name),
		l.Email,
		nullString(l.Phone),
		l.Plan,
		l.LicensedUntil,
		l.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return entity.ErrLicenseAlreadyExists
		}
		return fmt.Errorf("erro ao criar licença: %w", err)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
