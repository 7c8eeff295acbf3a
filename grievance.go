// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package grievance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/grievance/ai"
	"github.com/poiesic/grievance/ai/keyword"
	"github.com/poiesic/grievance/ai/openai"
	"github.com/poiesic/grievance/config"
	"github.com/poiesic/grievance/ingestion"
	"github.com/poiesic/grievance/storage"
	"github.com/poiesic/grievance/storage/badger"
	"github.com/poiesic/grievance/storage/bigquery"
	"github.com/poiesic/grievance/storage/gcs"
	"github.com/poiesic/grievance/storage/postgres"
	"github.com/poiesic/grievance/writer"
	"google.golang.org/api/option"
)

// ErrTableManagementUnsupported is returned by CreateTable when the analytical
// store cannot create tables.
var ErrTableManagementUnsupported = errors.New("analytics store does not support table creation")

// System wires the blob store, analytical store and row writer described by a
// Config, and owns the stores it opened.
type System struct {
	cfg       *config.Config
	blobs     storage.BlobStore
	analytics storage.AnalyticsStore
	writer    *writer.Writer
	owned     []func() error
	logger    *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	blobs     storage.BlobStore
	analytics storage.AnalyticsStore
	logger    *slog.Logger
}

// WithBlobStore uses blobs instead of opening the configured backend.
// The caller keeps ownership.
func WithBlobStore(blobs storage.BlobStore) SystemOption {
	return func(o *systemOptions) {
		o.blobs = blobs
	}
}

// WithAnalyticsStore uses store instead of opening the configured backend.
// The caller keeps ownership.
func WithAnalyticsStore(store storage.AnalyticsStore) SystemOption {
	return func(o *systemOptions) {
		o.analytics = store
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) SystemOption {
	return func(o *systemOptions) {
		o.logger = logger
	}
}

func NewSystem(ctx context.Context, cfg *config.Config, opts ...SystemOption) (*System, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	options := &systemOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	s := &System{cfg: cfg, logger: options.logger}

	s.blobs = options.blobs
	if s.blobs == nil {
		blobs, err := openBlobStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.blobs = storage.NewRetryingBlobStore(blobs, cfg.RetryAttempts, cfg.RetryDelay)
		s.owned = append(s.owned, s.blobs.Close)
	}

	s.analytics = options.analytics
	if s.analytics == nil {
		analytics, err := openAnalyticsStore(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.analytics = analytics
		s.owned = append(s.owned, analytics.Close)
	}

	w, err := writer.New(s.analytics, cfg.AnalyticsTable, writer.WithLogger(s.logger))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.writer = w
	return s, nil
}

func openBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobBadger:
		blobs, err := badger.OpenBlobStore(cfg.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("opening badger blob store at %s: %w", cfg.BadgerPath, err)
		}
		return blobs, nil
	case config.BlobGCS:
		blobs, err := gcs.Open(ctx, cfg.GCSBucket, clientOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("opening gcs bucket %s: %w", cfg.GCSBucket, err)
		}
		return blobs, nil
	}
	return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
}

func openAnalyticsStore(ctx context.Context, cfg *config.Config) (storage.AnalyticsStore, error) {
	switch cfg.AnalyticsBackend {
	case config.AnalyticsBigQuery:
		store, err := bigquery.Open(ctx, cfg.GCPProject, clientOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("opening bigquery project %s: %w", cfg.GCPProject, err)
		}
		return store, nil
	case config.AnalyticsPostgres:
		store, err := postgres.Open(cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("opening postgres database %s: %w", cfg.DB.Name, err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown analytics backend %q", cfg.AnalyticsBackend)
}

func clientOptions(cfg *config.Config) []option.ClientOption {
	if cfg.GCPCredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.GCPCredentialsFile)}
}

func (s *System) Close() error {
	var errs []error
	for i := len(s.owned) - 1; i >= 0; i-- {
		if err := s.owned[i](); err != nil {
			s.logger.Error("error closing store", "err", err)
			errs = append(errs, err)
		}
	}
	s.owned = nil
	return errors.Join(errs...)
}

func (s *System) BlobStore() storage.BlobStore {
	return s.blobs
}

func (s *System) AnalyticsStore() storage.AnalyticsStore {
	return s.analytics
}

func (s *System) Writer() *writer.Writer {
	return s.writer
}

// NewOrchestrator builds an orchestrator from the configured worker count,
// photo URL base, withdrawn policy and claim settings. opts are applied
// after those and may override them.
func (s *System) NewOrchestrator(opts ...ingestion.Option) (*ingestion.Orchestrator, error) {
	base := []ingestion.Option{
		ingestion.WithLogger(s.logger.With("component", "ingestion")),
		ingestion.WithWorkers(s.cfg.Workers),
		ingestion.WithPublicURLBase(s.cfg.PhotoURLBase()),
	}
	if s.cfg.SkipWithdrawn {
		base = append(base, ingestion.WithWithdrawnPolicy(ingestion.SkipWithdrawn))
	}
	if s.cfg.ClaimFolders {
		base = append(base, ingestion.WithClaims(s.cfg.ClaimTTL))
	}
	return ingestion.NewOrchestrator(s.blobs, s.writer, append(base, opts...)...)
}

// NewAnalyzer builds a text analyzer backed by the configured extractor.
func (s *System) NewAnalyzer(opts ...ingestion.AnalyzerOption) (*ingestion.Analyzer, error) {
	extractor, err := s.NewExtractor()
	if err != nil {
		return nil, err
	}
	base := []ingestion.AnalyzerOption{ingestion.WithAnalyzerLogger(s.logger.With("component", "analyzer"))}
	return ingestion.NewAnalyzer(s.blobs, extractor, append(base, opts...)...)
}

// NewExtractor returns the keyword or LLM feature extractor named by the config.
func (s *System) NewExtractor() (ai.FeatureExtractor, error) {
	switch s.cfg.Extractor {
	case config.ExtractorKeyword:
		return keyword.New(), nil
	case config.ExtractorLLM:
		aiOpts := []ai.ConfigOption{
			ai.WithHost(s.cfg.LLMHost),
			ai.WithModel(s.cfg.LLMModel),
			ai.WithMaxAttempts(s.cfg.RetryAttempts),
		}
		if s.cfg.LLMToken != "" {
			aiOpts = append(aiOpts, ai.WithToken(s.cfg.LLMToken))
		}
		return openai.NewFeatureExtractor(ai.NewConfig(aiOpts...))
	}
	return nil, fmt.Errorf("unknown extractor %q", s.cfg.Extractor)
}

// CreateTable creates the configured analytical table.
func (s *System) CreateTable(ctx context.Context, recreate bool) error {
	tm, ok := s.analytics.(storage.TableManager)
	if !ok {
		return ErrTableManagementUnsupported
	}
	return tm.CreateTable(ctx, s.cfg.AnalyticsTable, recreate)
}
