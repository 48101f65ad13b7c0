package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

func (s *Storage) CreateIdentity(ctx context.Context, ident *model.Identity) error {
	defer metrics.TrackDBOperation("create_identity")()

	if ident.ID == uuid.Nil {
		ident.ID = uuid.New()
	}
	ident.Email = strings.ToLower(strings.TrimSpace(ident.Email))

	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO identities (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		ident.ID, ident.Email, ident.PasswordHash,
	).Scan(&ident.CreatedAt)
	if err != nil {
		return fmt.Errorf("create identity: %w", mapError(err))
	}
	return nil
}

func (s *Storage) IdentityByEmail(ctx context.Context, email string) (*model.Identity, error) {
	defer metrics.TrackDBOperation("identity_by_email")()

	var ident model.Identity
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM identities WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &ident, nil
}

func (s *Storage) IdentityByID(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	defer metrics.TrackDBOperation("identity_by_id")()

	var ident model.Identity
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM identities WHERE id = $1`, id,
	).Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &ident, nil
}

// DeleteIdentity removes an identity together with its profile. Only
// compensation for a failed signup uses it; other profile removal is a
// deactivation.
func (s *Storage) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	defer metrics.TrackDBOperation("delete_identity")()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete identity profile: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if err := rowsAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}
