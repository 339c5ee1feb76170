package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/roster-api/internal/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{
		Driver:         config.DriverSQLite,
		URI:            ":memory:",
		ConnectRetries: 1,
	}}

	s, err := Open(context.Background(), cfg, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{Driver: "postgres"}}
	_, err := Open(context.Background(), cfg, discard)
	require.ErrorContains(t, err, "unknown storage driver")
}

func TestOpen_GivesUpAfterRetries(t *testing.T) {
	// the parent directory does not exist, so every attempt fails
	bad := filepath.Join(t.TempDir(), "missing", "roster.db")
	cfg := &config.Config{Storage: config.Storage{
		Driver:         config.DriverSQLite,
		URI:            bad,
		ConnectRetries: 3,
		ConnectBackoff: time.Millisecond,
	}}

	_, err := Open(context.Background(), cfg, discard)
	require.ErrorContains(t, err, "giving up after 3 attempts")
}

func TestOpen_StopsOnCancel(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "roster.db")
	cfg := &config.Config{Storage: config.Storage{
		Driver:         config.DriverSQLite,
		URI:            bad,
		ConnectRetries: 10,
		ConnectBackoff: time.Hour,
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Open(ctx, cfg, discard)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpen_ZeroRetriesStillTriesOnce(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "roster.db")
	cfg := &config.Config{Storage: config.Storage{
		Driver: config.DriverSQLite,
		URI:    bad,
	}}

	_, err := Open(context.Background(), cfg, discard)
	require.ErrorContains(t, err, "giving up after 1 attempts")
}
