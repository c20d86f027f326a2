package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailBeforeLogin(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Email()
	require.ErrorIs(t, err, ErrNoIdentity)
}

func TestSetEmailSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetEmail("a@b.com"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	email, err := reopened.Email()
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
}

func TestClear(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.SetEmail("a@b.com"))
	require.NoError(t, store.Clear())
	_, err = store.Email()
	require.ErrorIs(t, err, ErrNoIdentity)

	// Clearing an already-empty store is fine.
	require.NoError(t, store.Clear())
}
