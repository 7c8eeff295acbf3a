package grievance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/grievance/ai/keyword"
	"github.com/poiesic/grievance/ai/openai"
	"github.com/poiesic/grievance/config"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
	"github.com/poiesic/grievance/ingestion"
	"github.com/poiesic/grievance/storage"
	"github.com/poiesic/grievance/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = core.FolderKey("complaint_20240101_000000_abcd1234")

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BlobBackend:      config.BlobBadger,
		BadgerPath:       filepath.Join(t.TempDir(), "blobs"),
		AnalyticsBackend: config.AnalyticsPostgres,
		AnalyticsTable:   "complaints",
		PublicURLBase:    "https://cdn.example.com",
		Workers:          2,
		ClaimTTL:         time.Minute,
		RetryAttempts:    2,
		RetryDelay:       time.Millisecond,
		Extractor:        config.ExtractorKeyword,
		LLMHost:          "http://localhost:11434/v1",
		LLMModel:         "qwen2.5:3b",
	}
}

func put(t *testing.T, blobs storage.BlobStore, name, content string) {
	t.Helper()
	require.NoError(t, blobs.Write(context.Background(), testKey.Artifact(name), []byte(content), "text/plain"))
}

func TestNewSystem(t *testing.T) {
	t.Run("opens configured blob store", func(t *testing.T) {
		analytics := mock.NewMockAnalyticsStore(core.Columns...)
		sys, err := NewSystem(context.Background(), testConfig(t), WithAnalyticsStore(analytics))
		require.NoError(t, err)
		defer sys.Close()

		assert.NotNil(t, sys.BlobStore())
		assert.IsType(t, &storage.RetryingBlobStore{}, sys.BlobStore())
		assert.Same(t, analytics, sys.AnalyticsStore())
		assert.Equal(t, "complaints", sys.Writer().TableID())
	})

	t.Run("error with invalid badger path", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.BadgerPath = filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(cfg.BadgerPath, []byte("test"), 0644))

		sys, err := NewSystem(context.Background(), cfg, WithAnalyticsStore(mock.NewMockAnalyticsStore()))
		assert.Error(t, err)
		assert.Nil(t, sys)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewSystem(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestSystem_CloseLeavesInjectedStoresOpen(t *testing.T) {
	analytics := mock.NewMockAnalyticsStore()
	sys, err := NewSystem(context.Background(), testConfig(t), WithAnalyticsStore(analytics))
	require.NoError(t, err)

	require.NoError(t, sys.Close())
	assert.False(t, analytics.IsClosed())
	assert.NoError(t, sys.Close(), "second close is a no-op")
}

func TestSystem_ProcessAndAnalyze(t *testing.T) {
	ctx := context.Background()
	analytics := mock.NewMockAnalyticsStore(core.Columns...)
	sys, err := NewSystem(ctx, testConfig(t), WithAnalyticsStore(analytics))
	require.NoError(t, err)
	defer sys.Close()

	put(t, sys.BlobStore(), folder.MetadataFile, `{"user":"alice","timestamp":"2024-01-01T00:00:00","status":"pending"}`)
	put(t, sys.BlobStore(), folder.LocationFile, `{"latitude":12.9,"longitude":77.6}`)
	put(t, sys.BlobStore(), folder.TextFile, "Huge pothole near Main Street, urgent")

	analyzer, err := sys.NewAnalyzer()
	require.NoError(t, err)
	analyzed, err := analyzer.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, analyzed.Analyzed)

	orch, err := sys.NewOrchestrator()
	require.NoError(t, err)
	defer orch.Release()

	summary, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	rows := analytics.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, testKey.String(), rows[0][core.ColComplaintID])
	assert.Equal(t, "pothole", rows[0][core.ColIssueType])
	assert.Equal(t, "https://cdn.example.com/"+testKey.String()+"/photo.jpg", rows[0][core.ColImageURL])
}

func TestSystem_NewOrchestratorOverrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkipWithdrawn = true
	cfg.ClaimFolders = true
	sys, err := NewSystem(context.Background(), cfg, WithAnalyticsStore(mock.NewMockAnalyticsStore()))
	require.NoError(t, err)
	defer sys.Close()

	orch, err := sys.NewOrchestrator(ingestion.WithWorkers(1))
	require.NoError(t, err)
	orch.Release()

	_, err = sys.NewOrchestrator(ingestion.WithClock(nil))
	assert.Error(t, err)
}

func TestSystem_NewExtractor(t *testing.T) {
	cfg := testConfig(t)
	sys, err := NewSystem(context.Background(), cfg, WithAnalyticsStore(mock.NewMockAnalyticsStore()))
	require.NoError(t, err)
	defer sys.Close()

	ex, err := sys.NewExtractor()
	require.NoError(t, err)
	assert.IsType(t, &keyword.Extractor{}, ex)

	cfg.Extractor = config.ExtractorLLM
	ex, err = sys.NewExtractor()
	require.NoError(t, err)
	assert.IsType(t, &openai.FeatureExtractor{}, ex)

	cfg.Extractor = "magic"
	_, err = sys.NewExtractor()
	assert.Error(t, err)
}

type insertOnly struct{ storage.AnalyticsStore }

func TestSystem_CreateTable(t *testing.T) {
	analytics := mock.NewMockAnalyticsStore()
	sys, err := NewSystem(context.Background(), testConfig(t), WithAnalyticsStore(analytics))
	require.NoError(t, err)
	defer sys.Close()

	require.NoError(t, sys.CreateTable(context.Background(), true))
	assert.Equal(t, map[string]int{"complaints": 1}, analytics.CreatedTables())

	other, err := NewSystem(context.Background(), testConfig(t), WithAnalyticsStore(insertOnly{analytics}))
	require.NoError(t, err)
	defer other.Close()
	assert.ErrorIs(t, other.CreateTable(context.Background(), false), ErrTableManagementUnsupported)
}
