package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/poiesic/grievance/ai"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
	"github.com/poiesic/grievance/storage"
)

// Analyzer writes complaint_extract.json for complaint folders that have
// text but no analysis yet.
type Analyzer struct {
	blobs     storage.BlobStore
	extractor ai.FeatureExtractor
	force     bool
	logger    *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger sets the analyzer's logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithForce re-analyzes folders that already carry an extract.
func WithForce(force bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.force = force
	}
}

// AnalyzeSummary counts the folders handled by Analyze.
type AnalyzeSummary struct {
	Analyzed int
	Skipped  int
	Failed   int
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(blobs storage.BlobStore, extractor ai.FeatureExtractor, opts ...AnalyzerOption) (*Analyzer, error) {
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	a := &Analyzer{
		blobs:     blobs,
		extractor: extractor,
		logger:    slog.Default().With("component", "analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze processes every complaint folder carrying complaint.txt.
// Per-folder failures are logged and counted; the returned error joins them.
func (a *Analyzer) Analyze(ctx context.Context) (AnalyzeSummary, error) {
	var summary AnalyzeSummary

	keys, err := a.blobs.List(ctx, core.FolderPrefix)
	if err != nil {
		return summary, fmt.Errorf("listing complaint folders: %w", err)
	}

	hasText := make(map[core.FolderKey]bool)
	hasExtract := make(map[core.FolderKey]bool)
	for _, k := range keys {
		key, ok := core.FolderOf(k)
		if !ok {
			continue
		}
		switch k {
		case key.Artifact(folder.TextFile):
			hasText[key] = true
		case key.Artifact(folder.ExtractFile):
			hasExtract[key] = true
		}
	}

	var errs []error
	for _, key := range slices.Sorted(maps.Keys(hasText)) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if hasExtract[key] && !a.force {
			summary.Skipped++
			continue
		}
		if err := a.AnalyzeFolder(ctx, key); err != nil {
			a.logger.Error("failed to analyze folder", "folder", key.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			summary.Failed++
			continue
		}
		summary.Analyzed++
	}

	a.logger.Info("analysis complete",
		"analyzed", summary.Analyzed,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, errors.Join(errs...)
}

// AnalyzeFolder extracts features from one folder's complaint.txt and
// writes them next to it.
func (a *Analyzer) AnalyzeFolder(ctx context.Context, key core.FolderKey) error {
	text, err := a.blobs.Read(ctx, key.Artifact(folder.TextFile))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", core.ErrMissingArtifact, folder.TextFile)
	}
	if err != nil {
		return err
	}

	extract, err := a.extractor.ExtractFeatures(ctx, string(text))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(extract, "", "  ")
	if err != nil {
		return err
	}
	if err := a.blobs.Write(ctx, key.Artifact(folder.ExtractFile), data, "application/json"); err != nil {
		return err
	}
	a.logger.Debug("extract written", "folder", key.String(), "issues", extract.IssueType)
	return nil
}
