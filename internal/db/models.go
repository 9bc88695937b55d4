package db

import (
	"database/sql"
	"time"
)

// Credential is a stored provider API key
type Credential struct {
	Provider      string       `db:"provider"`
	APIKey        string       `db:"api_key"`
	KeyHash       string       `db:"key_hash"`
	MaskedKey     string       `db:"masked_key"`
	IsTestKey     bool         `db:"is_test_key"`
	IsValid       bool         `db:"is_valid"`
	LastValidated sql.NullTime `db:"last_validated"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}
