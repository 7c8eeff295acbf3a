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


// Package writer publishes candidate rows to an analytical table whose
// schema may lag behind the pipeline.
//
// Before each insert the writer reads the live column set and drops every
// candidate key the table does not carry, so older table layouts keep
// accepting rows. When the schema cannot be read it assumes a minimal
// fallback column set.
package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/storage"
)

// ErrAnalyticsStoreRequired is returned when no analytics store is provided.
var ErrAnalyticsStoreRequired = errors.New("analytics store required")

// Writer inserts rows into one table of an analytics store.
type Writer struct {
	store    storage.AnalyticsStore
	tableID  string
	fallback []string
	logger   *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// WithFallbackColumns overrides the column set assumed when the schema
// lookup fails.
func WithFallbackColumns(columns ...string) Option {
	return func(w *Writer) error {
		if len(columns) == 0 {
			return errors.New("fallback columns must not be empty")
		}
		w.fallback = slices.Clone(columns)
		return nil
	}
}

// Result describes a completed insert.
type Result struct {
	Row      core.Row // the projected row that was inserted
	Dropped  []string // candidate keys absent from the table, sorted
	Fallback bool     // the fallback column set was used
}

// New creates a writer for tableID.
func New(store storage.AnalyticsStore, tableID string, opts ...Option) (*Writer, error) {
	if store == nil {
		return nil, ErrAnalyticsStoreRequired
	}
	if tableID == "" {
		return nil, storage.ErrInvalidTableID
	}
	w := &Writer{
		store:    store,
		tableID:  tableID,
		fallback: slices.Clone(core.FallbackColumns),
		logger:   slog.Default().With("component", "writer"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// TableID returns the destination table.
func (w *Writer) TableID() string {
	return w.tableID
}

// Columns returns the live column names of the table. On lookup failure it
// logs the error and returns the fallback set with ok false.
func (w *Writer) Columns(ctx context.Context) (columns []string, ok bool) {
	columns, err := w.store.Columns(ctx, w.tableID)
	if err != nil {
		w.logger.Error("schema lookup failed, using fallback columns",
			"table", w.tableID,
			"error", fmt.Errorf("%w: %w", core.ErrSchemaLookup, err),
			"fallback", w.fallback)
		return slices.Clone(w.fallback), false
	}
	return columns, true
}

// Project keeps the keys of row that appear in columns. The returned row
// shares values with the input. Dropped keys are sorted.
func Project(row core.Row, columns []string) (filtered core.Row, dropped []string) {
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	filtered = make(core.Row, len(row))
	for _, k := range row.Keys() {
		if _, ok := allowed[k]; ok {
			filtered[k] = row[k]
		} else {
			dropped = append(dropped, k)
		}
	}
	return filtered, dropped
}

// Write projects row onto the live schema and inserts it. Insert failures
// wrap core.ErrInsertFailure.
func (w *Writer) Write(ctx context.Context, row core.Row) (Result, error) {
	columns, ok := w.Columns(ctx)
	filtered, dropped := Project(row, columns)
	if len(dropped) > 0 {
		w.logger.Warn("dropping columns not in table schema", "table", w.tableID, "columns", dropped)
	}

	if err := w.store.InsertRow(ctx, w.tableID, filtered); err != nil {
		return Result{}, fmt.Errorf("%w: table %s: %w", core.ErrInsertFailure, w.tableID, err)
	}
	return Result{Row: filtered, Dropped: dropped, Fallback: !ok}, nil
}
