package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/poiesic/grievance/ai/keyword"
	"github.com/poiesic/grievance/ai/mock"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
	storagemock "github.com/poiesic/grievance/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalyzer(t *testing.T) {
	_, err := NewAnalyzer(nil, mock.NewMockFeatureExtractor())
	assert.ErrorIs(t, err, ErrBlobStoreRequired)

	_, err = NewAnalyzer(newBlobStore(t), nil)
	assert.ErrorIs(t, err, ErrExtractorRequired)
}

func TestAnalyze_BackfillsMissingExtracts(t *testing.T) {
	blobs := newBlobStore(t)
	extractor := mock.NewMockFeatureExtractor()
	a, err := NewAnalyzer(blobs, extractor)
	require.NoError(t, err)

	fresh := core.FolderKey("complaint_20240102_000000_bbbbbbbb")
	putComplaint(t, blobs, fresh, "bob", "Garbage everywhere, it is dangerous")
	putAlice(t, blobs)
	putArtifact(t, blobs, "complaint_20240103_000000_cccccccc", folder.MetadataFile, `{"user":"carol"}`)

	summary, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AnalyzeSummary{Analyzed: 1, Skipped: 1}, summary)
	assert.Equal(t, []string{"Garbage everywhere, it is dangerous"}, extractor.Texts())

	raw, err := blobs.Read(context.Background(), fresh.Artifact(folder.ExtractFile))
	require.NoError(t, err)
	var extract core.Extract
	require.NoError(t, json.Unmarshal(raw, &extract))
	assert.Equal(t, []string{"garbage"}, extract.IssueType)
	assert.Equal(t, []string{"dangerous"}, extract.Urgency)
	assert.Contains(t, string(raw), "\n  \"Issue Type\"", "extract is indented")
}

func TestAnalyze_Force(t *testing.T) {
	blobs := newBlobStore(t)
	extractor := mock.NewMockFeatureExtractor()
	a, err := NewAnalyzer(blobs, extractor, WithForce(true))
	require.NoError(t, err)
	putAlice(t, blobs)

	summary, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Analyzed)
	assert.Equal(t, 1, extractor.CallCount())
}

func TestAnalyze_ContinuesPastFailures(t *testing.T) {
	blobs := newBlobStore(t)
	extractor := mock.NewMockFeatureExtractor().
		WithExtractFeaturesFunc(func(ctx context.Context, text string) (*core.Extract, error) {
			if text == "bad" {
				return nil, errors.New("model unavailable")
			}
			return &core.Extract{IssueType: []string{"pothole"}}, nil
		})
	a, err := NewAnalyzer(blobs, extractor)
	require.NoError(t, err)
	putComplaint(t, blobs, "complaint_20240102_000000_bbbbbbbb", "bob", "bad")
	putComplaint(t, blobs, "complaint_20240103_000000_cccccccc", "carol", "good")

	summary, err := a.Analyze(context.Background())
	assert.Error(t, err)
	assert.Equal(t, AnalyzeSummary{Analyzed: 1, Failed: 1}, summary)
	assert.True(t, exists(t, blobs, core.FolderKey("complaint_20240103_000000_cccccccc").Artifact(folder.ExtractFile)))
}

func TestAnalyzeThenProcess(t *testing.T) {
	blobs := newBlobStore(t)
	key := core.FolderKey("complaint_20240102_000000_bbbbbbbb")
	putComplaint(t, blobs, key, "bob", "Street light not working near Lake View Road since Monday")

	a, err := NewAnalyzer(blobs, keyword.New())
	require.NoError(t, err)
	_, err = a.Analyze(context.Background())
	require.NoError(t, err)

	analytics := storagemock.NewMockAnalyticsStore(core.Columns...)
	o := newTestOrchestrator(t, blobs, analytics)
	outcome, err := o.ProcessFolder(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, outcome)

	row := analytics.Rows()[0]
	assert.Equal(t, "Electricity Department", row[core.ColDepartment])
	assert.Equal(t, "Medium", row[core.ColPriority])
	assert.Equal(t, "Lake View Road", row[core.ColLocationText])
}
