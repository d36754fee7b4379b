package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = old })
	return ts
}

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nope", "session.toml"))
	require.NoError(t, err)

	assert.Equal(t, Session{}, s.Session())
	assert.ErrorIs(t, s.RequireSignedIn(), ErrNotSignedIn)
}

func TestSignIn_PersistsAcrossOpen(t *testing.T) {
	ts := fixedNow(t)
	path := filepath.Join(t.TempDir(), ".markpdf", "session.toml")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SignIn("http://api", "alice", "acc", "ref"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "alice")

	again, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, Session{
		ServerURL:    "http://api",
		Username:     "alice",
		AccessToken:  "acc",
		RefreshToken: "ref",
		UpdatedAt:    ts,
	}, again.Session())
	assert.NoError(t, again.RequireSignedIn())
}

func TestSetTokens_KeepsIdentity(t *testing.T) {
	fixedNow(t)
	path := filepath.Join(t.TempDir(), "session.toml")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SignIn("http://api", "bob", "a1", "r1"))
	require.NoError(t, s.SetTokens("a2", "r2"))

	again, err := Open(path)
	require.NoError(t, err)
	access, refresh := again.Tokens()
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r2", refresh)
	assert.Equal(t, "bob", again.Session().Username)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Clear(), "clearing an absent file is fine")

	require.NoError(t, s.SignIn("http://api", "carol", "a", "r"))
	require.NoError(t, s.Clear())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, Session{}, s.Session())
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte("username = ["), 0o600))

	_, err := Open(path)
	require.Error(t, err)
}
