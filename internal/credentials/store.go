// Package credentials manages provider API keys: stored in SQLite, overridable
// from the environment, and injected into services that ask for them.
package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"stackmon/internal/cache"
	"stackmon/internal/constants"
	"stackmon/internal/db"
	"stackmon/internal/errors"
	"stackmon/internal/logger"
	"stackmon/internal/validation"
)

// Providers is the closed set of supported providers
var Providers = []string{"openai", "anthropic", "huggingface", "cohere", "mistral", "gemini"}

var testKeyPatterns = []string{"sk-test", "test-", "demo-", "sample-", "fake-", "mock-"}

// Source says where a key was found
type Source string

const (
	SourceNone   Source = ""
	SourceEnv    Source = "env"
	SourceStored Source = "stored"
)

// KeyInfo describes a provider key without exposing it
type KeyInfo struct {
	Provider        string     `json:"provider"`
	Configured      bool       `json:"configured"`
	Source          Source     `json:"source,omitempty"`
	KeyHash         string     `json:"key_hash,omitempty"`
	MaskedKey       string     `json:"masked_key,omitempty"`
	IsTestKey       bool       `json:"is_test_key"`
	IsValid         bool       `json:"is_valid"`
	LastValidated   *time.Time `json:"last_validated,omitempty"`
	ValidationError string     `json:"validation_error,omitempty"`
}

// Store is the credential manager
type Store struct {
	repo   *db.CredentialRepository
	valid  *cache.Cache[string, bool]
	getenv func(string) string
	now    func() time.Time
}

// NewStore creates a store backed by repo
func NewStore(repo *db.CredentialRepository) *Store {
	return &Store{
		repo:   repo,
		valid:  cache.NewCache[string, bool](constants.CredentialValidationTTL, len(Providers)),
		getenv: os.Getenv,
		now:    time.Now,
	}
}

// Close stops the validation cache
func (s *Store) Close() {
	s.valid.Close()
}

// EnvVar returns the environment variable holding provider's key
func EnvVar(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// HashKey returns the hex sha256 of key
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MaskKey hides all but the last few characters of key
func MaskKey(key string) string {
	visible := constants.CredentialMaskVisible
	if len(key) <= visible {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-visible) + key[len(key)-visible:]
}

// IsTestKey reports whether key looks like a placeholder
func IsTestKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range testKeyPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func checkProvider(provider string) error {
	if err := validation.Provider(provider); err != nil {
		return err
	}
	if !slices.Contains(Providers, provider) {
		return errors.UnknownProvider(provider)
	}
	return nil
}

// Set stores key for provider, replacing any previous one
func (s *Store) Set(ctx context.Context, provider, key string) (*KeyInfo, error) {
	if err := checkProvider(provider); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if err := validation.NonEmptyString("api_key", key); err != nil {
		return nil, err
	}

	cred := &db.Credential{
		Provider:  provider,
		APIKey:    key,
		KeyHash:   HashKey(key),
		MaskedKey: MaskKey(key),
		IsTestKey: IsTestKey(key),
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	s.valid.Delete(provider)

	logger.WithFields(logger.Fields{
		"provider":    provider,
		"masked_key":  cred.MaskedKey,
		"is_test_key": cred.IsTestKey,
	}).Info("API key stored")

	return s.Info(ctx, provider)
}

// Get returns the key of provider. The environment wins over the store.
func (s *Store) Get(ctx context.Context, provider string) (string, Source, error) {
	if err := checkProvider(provider); err != nil {
		return "", SourceNone, err
	}
	if key := strings.TrimSpace(s.getenv(EnvVar(provider))); key != "" {
		return key, SourceEnv, nil
	}

	cred, err := s.repo.Get(ctx, provider)
	if err != nil {
		return "", SourceNone, err
	}
	if cred == nil {
		return "", SourceNone, nil
	}
	return cred.APIKey, SourceStored, nil
}

// Remove deletes the stored key of provider. Keys set in the environment are not affected.
func (s *Store) Remove(ctx context.Context, provider string) error {
	if err := checkProvider(provider); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, provider)
	if err != nil {
		return err
	}
	s.valid.Delete(provider)
	if !deleted {
		return errors.CredentialNotFound(provider)
	}

	logger.WithField("provider", provider).Info("API key removed")
	return nil
}

// IsConfigured reports whether provider has a key from any source
func (s *Store) IsConfigured(ctx context.Context, provider string) (bool, error) {
	key, _, err := s.Get(ctx, provider)
	if err != nil {
		return false, err
	}
	return key != "", nil
}

// IsValid reports whether provider has a usable key. Results are cached for an hour.
func (s *Store) IsValid(ctx context.Context, provider string) (bool, error) {
	if valid, ok := s.valid.Get(provider); ok {
		return valid, nil
	}

	key, source, err := s.Get(ctx, provider)
	if err != nil {
		return false, err
	}
	// placeholder keys such as "sk-test-..." are stored and reported, but never
	// count toward the credential prerequisite
	valid := key != "" && !IsTestKey(key)

	if source == SourceStored {
		if err := s.repo.MarkValidated(ctx, provider, valid, s.now()); err != nil {
			logger.WithError(err).WithField("provider", provider).Warn("Failed to record validation")
		}
	}
	s.valid.Set(provider, valid)
	return valid, nil
}

// Info describes the key of provider
func (s *Store) Info(ctx context.Context, provider string) (*KeyInfo, error) {
	key, source, err := s.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	info := &KeyInfo{Provider: provider, Source: source}
	if key == "" {
		info.ValidationError = "API key not configured"
		return info, nil
	}

	info.Configured = true
	info.KeyHash = HashKey(key)
	info.MaskedKey = MaskKey(key)
	info.IsTestKey = IsTestKey(key)

	if info.IsValid, err = s.IsValid(ctx, provider); err != nil {
		return nil, err
	}
	if info.IsTestKey {
		info.ValidationError = "test or placeholder key"
	}

	if source == SourceStored {
		cred, err := s.repo.Get(ctx, provider)
		if err != nil {
			return nil, err
		}
		if cred != nil && cred.LastValidated.Valid {
			t := cred.LastValidated.Time
			info.LastValidated = &t
		}
	}
	return info, nil
}

// List describes every provider in declaration order
func (s *Store) List(ctx context.Context) ([]*KeyInfo, error) {
	infos := make([]*KeyInfo, 0, len(Providers))
	for _, p := range Providers {
		info, err := s.Info(ctx, p)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Environment returns KEY=VALUE pairs for every configured provider
func (s *Store) Environment(ctx context.Context) []string {
	var env []string
	for _, p := range Providers {
		key, _, err := s.Get(ctx, p)
		if err != nil {
			logger.WithError(err).WithField("provider", p).Warn("Failed to read API key")
			continue
		}
		if key != "" {
			env = append(env, fmt.Sprintf("%s=%s", EnvVar(p), key))
		}
	}
	return env
}
