package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	require.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	require.Equal(t, slog.LevelError, parseLogLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	require.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestEnsureDBDir(t *testing.T) {
	require.NoError(t, ensureDBDir(":memory:"))
	require.NoError(t, ensureDBDir("supervisor.db"))

	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, ensureDBDir(filepath.Join(dir, "supervisor.db")))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLogFileWriter_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "supervisor.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	w.max, w.keep = 64, 32

	for i := 0; i < 10; i++ {
		_, err := w.Write([]byte(strings.Repeat("a", 15) + "\n"))
		require.NoError(t, err)
	}
	_, err = w.Write([]byte("last line\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.LessOrEqual(t, len(data), 64)
	require.True(t, strings.HasSuffix(string(data), "last line\n"))
}

type keyStore struct {
	token, userID string
	err           error
}

func (s *keyStore) Create(_ context.Context, token, userID, _ string) error {
	s.token, s.userID = token, userID
	return s.err
}

func TestCreateAPIKey(t *testing.T) {
	store := &keyStore{}
	token, err := createAPIKey(context.Background(), store, "alice")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, "sup_"))
	require.Equal(t, token, store.token)
	require.Equal(t, "alice", store.userID)

	_, err = createAPIKey(context.Background(), &keyStore{err: errors.New("locked")}, "bob")
	require.Error(t, err)
}
