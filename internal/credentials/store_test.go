package credentials

import (
	"context"
	"testing"

	"stackmon/internal/db"
	"stackmon/internal/errors"
	"stackmon/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, env map[string]string) *Store {
	t.Helper()
	s := NewStore(db.NewCredentialRepository(testutil.SetupTestDB(t)))
	s.getenv = func(k string) string { return env[k] }
	t.Cleanup(s.Close)
	return s
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "****", MaskKey("abcd"))
	assert.Equal(t, "*****6789", MaskKey("sk-ab6789"))
}

func TestIsTestKey(t *testing.T) {
	for _, k := range []string{"sk-test-123", "TEST-abc", "demo-key", "my-sample-key", "fake-1", "mock-x"} {
		assert.True(t, IsTestKey(k), k)
	}
	assert.False(t, IsTestKey("sk-live-9f8e7d"))
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "OPENAI_API_KEY", EnvVar("openai"))
	assert.Equal(t, "HUGGINGFACE_API_KEY", EnvVar("huggingface"))
}

func TestStore_SetGetRemove(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	info, err := s.Set(ctx, "openai", "  sk-live-abcdef  ")
	require.NoError(t, err)
	assert.True(t, info.Configured)
	assert.Equal(t, SourceStored, info.Source)
	assert.Equal(t, "**********cdef", info.MaskedKey)
	assert.Equal(t, HashKey("sk-live-abcdef"), info.KeyHash)
	assert.True(t, info.IsValid)
	require.NotNil(t, info.LastValidated)

	key, source, err := s.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-live-abcdef", key)
	assert.Equal(t, SourceStored, source)

	require.NoError(t, s.Remove(ctx, "openai"))
	ok, err := s.IsConfigured(ctx, "openai")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Remove(ctx, "openai")
	assert.True(t, errors.HasCode(err, errors.ErrCredentialNotFound))
}

func TestStore_RejectsBadInput(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.Set(ctx, "acme", "key")
	assert.True(t, errors.HasCode(err, errors.ErrUnknownProvider))

	_, err = s.Set(ctx, "openai", "   ")
	assert.True(t, errors.HasCode(err, errors.ErrValidationFailed))
}

func TestStore_EnvironmentWins(t *testing.T) {
	s := newTestStore(t, map[string]string{"GEMINI_API_KEY": "env-key-1234"})
	ctx := context.Background()

	_, err := s.Set(ctx, "gemini", "stored-key-5678")
	require.NoError(t, err)

	key, source, err := s.Get(ctx, "gemini")
	require.NoError(t, err)
	assert.Equal(t, "env-key-1234", key)
	assert.Equal(t, SourceEnv, source)
}

func TestStore_IsValid(t *testing.T) {
	s := newTestStore(t, map[string]string{"MISTRAL_API_KEY": "sk-test-000"})
	ctx := context.Background()

	valid, err := s.IsValid(ctx, "mistral")
	require.NoError(t, err)
	assert.False(t, valid, "test keys are not usable")

	valid, err = s.IsValid(ctx, "anthropic")
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = s.Set(ctx, "anthropic", "sk-ant-real-key")
	require.NoError(t, err)
	valid, err = s.IsValid(ctx, "anthropic")
	require.NoError(t, err)
	assert.True(t, valid, "Set invalidates the cached verdict")
}

func TestStore_ListAndEnvironment(t *testing.T) {
	s := newTestStore(t, map[string]string{"COHERE_API_KEY": "co-live-1"})
	ctx := context.Background()

	_, err := s.Set(ctx, "openai", "sk-live-1")
	require.NoError(t, err)

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, len(Providers))
	assert.Equal(t, "openai", infos[0].Provider)
	assert.True(t, infos[0].Configured)
	assert.False(t, infos[1].Configured)
	assert.Equal(t, "API key not configured", infos[1].ValidationError)

	assert.Equal(t, []string{"OPENAI_API_KEY=sk-live-1", "COHERE_API_KEY=co-live-1"}, s.Environment(ctx))
}
