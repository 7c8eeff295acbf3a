package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/poiesic/grievance"
	"github.com/poiesic/grievance/config"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
	"github.com/poiesic/grievance/storage/badger"
	"github.com/poiesic/grievance/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = core.FolderKey("complaint_20240101_000000_abcd1234")

// setup points the CLI at a fresh badger directory and a mock analytics store.
func setup(t *testing.T) (string, *mock.MockAnalyticsStore) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "blobs")
	t.Setenv("BLOB_BACKEND", "badger")
	t.Setenv("BADGER_PATH", dir)
	t.Setenv("ANALYTICS_BACKEND", "postgres")
	t.Setenv("ANALYTICS_TABLE", "complaints")
	t.Setenv("PUBLIC_URL_BASE", "https://cdn.example.com")
	t.Setenv("WORKERS", "1")
	t.Setenv("EXTRACTOR", "keyword")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SENTRY_DSN", "")

	analytics := mock.NewMockAnalyticsStore(core.Columns...)
	prevSystem := newSystem
	newSystem = func(ctx context.Context, cfg *config.Config, opts ...grievance.SystemOption) (*grievance.System, error) {
		return grievance.NewSystem(ctx, cfg, append(opts, grievance.WithAnalyticsStore(analytics))...)
	}
	prevLogger := slog.Default()
	t.Cleanup(func() {
		newSystem = prevSystem
		slog.SetDefault(prevLogger)
	})
	return dir, analytics
}

func seed(t *testing.T, dir string) {
	t.Helper()
	blobs, err := badger.OpenBlobStore(dir)
	require.NoError(t, err)
	defer blobs.Close()

	ctx := context.Background()
	for name, content := range map[string]string{
		folder.MetadataFile: `{"user":"alice","timestamp":"2024-01-01T00:00:00","status":"pending"}`,
		folder.LocationFile: `{"latitude":12.9,"longitude":77.6}`,
		folder.TextFile:     "Garbage piling up near Market Road, dangerous",
	} {
		require.NoError(t, blobs.Write(ctx, testKey.Artifact(name), []byte(content), "text/plain"))
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	base := []string{"grievance", "--env-file", filepath.Join(t.TempDir(), "missing.env")}
	err := newApp(&out).Run(append(base, args...))
	return out.String(), err
}

func TestInvalidLogLevel(t *testing.T) {
	setup(t)

	_, err := run(t, "--log-level", "loud", "reset-markers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestProcessCommand(t *testing.T) {
	dir, analytics := setup(t)
	seed(t, dir)

	out, err := run(t, "process", "--report-interval", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed:         1")

	rows := analytics.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, testKey.String(), rows[0][core.ColComplaintID])
	assert.Equal(t, "alice", rows[0][core.ColUserID])

	out, err = run(t, "process", "--report-interval", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Discovered:        0")
	assert.Len(t, analytics.Rows(), 1, "marked folders are not published again")
}

func TestProcessCommand_InvalidWorkers(t *testing.T) {
	setup(t)

	_, err := run(t, "process", "--workers", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKERS")
}

func TestResetMarkersCommand(t *testing.T) {
	dir, analytics := setup(t)
	seed(t, dir)

	_, err := run(t, "process", "--report-interval", "0")
	require.NoError(t, err)

	out, err := run(t, "reset-markers")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 markers")

	_, err = run(t, "process", "--report-interval", "0")
	require.NoError(t, err)
	assert.Len(t, analytics.Rows(), 2)
}

func TestCreateTableCommand(t *testing.T) {
	_, analytics := setup(t)

	out, err := run(t, "create-table", "--recreate")
	require.NoError(t, err)
	assert.Contains(t, out, "Table complaints ready")
	assert.Equal(t, map[string]int{"complaints": 1}, analytics.CreatedTables())
}

func TestAnalyzeCommand(t *testing.T) {
	dir, _ := setup(t)
	seed(t, dir)

	out, err := run(t, "analyze")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzed: 1")

	out, err = run(t, "analyze")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipped:  1")

	out, err = run(t, "analyze", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzed: 1")

	_, err = run(t, "analyze", "--extractor", "magic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXTRACTOR")
}
