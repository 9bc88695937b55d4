package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"stackmon/internal/errors"
)

// CredentialRepository handles database operations for credentials
type CredentialRepository struct {
	db *DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Upsert inserts or replaces the credential of c.Provider. Validation state is reset.
func (r *CredentialRepository) Upsert(ctx context.Context, c *Credential) error {
	query := `
		INSERT INTO credentials (provider, api_key, key_hash, masked_key, is_test_key, is_valid, last_validated)
		VALUES (:provider, :api_key, :key_hash, :masked_key, :is_test_key, 0, NULL)
		ON CONFLICT(provider) DO UPDATE SET
			api_key = excluded.api_key,
			key_hash = excluded.key_hash,
			masked_key = excluded.masked_key,
			is_test_key = excluded.is_test_key,
			is_valid = 0,
			last_validated = NULL
	`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return errors.DatabaseQueryError("upsert credential", err)
	}
	return nil
}

// Get returns the credential of provider, or nil when none is stored
func (r *CredentialRepository) Get(ctx context.Context, provider string) (*Credential, error) {
	var c Credential
	err := r.db.GetContext(ctx, &c, `SELECT * FROM credentials WHERE provider = ?`, provider)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseQueryError("get credential", err)
	}
	return &c, nil
}

// List returns every stored credential ordered by provider
func (r *CredentialRepository) List(ctx context.Context) ([]*Credential, error) {
	var creds []*Credential
	if err := r.db.SelectContext(ctx, &creds, `SELECT * FROM credentials ORDER BY provider ASC`); err != nil {
		return nil, errors.DatabaseQueryError("list credentials", err)
	}
	return creds, nil
}

// Delete removes the credential of provider and reports whether one existed
func (r *CredentialRepository) Delete(ctx context.Context, provider string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE provider = ?`, provider)
	if err != nil {
		return false, errors.DatabaseQueryError("delete credential", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.DatabaseQueryError("delete credential", err)
	}
	return n > 0, nil
}

// MarkValidated records the outcome of a validation
func (r *CredentialRepository) MarkValidated(ctx context.Context, provider string, valid bool, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET is_valid = ?, last_validated = ? WHERE provider = ?`,
		valid, at.UTC(), provider)
	if err != nil {
		return errors.DatabaseQueryError("mark credential validated", err)
	}
	return nil
}
