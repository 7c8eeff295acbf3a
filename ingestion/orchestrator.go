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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
	"github.com/poiesic/grievance/storage"
	"github.com/poiesic/grievance/writer"
)

// Orchestrator publishes unprocessed complaint folders.
type Orchestrator struct {
	blobs         storage.BlobStore
	writer        *writer.Writer
	loader        *folder.Loader
	pool          *ants.Pool
	workers       int
	publicURLBase string
	now           func() time.Time
	withdrawn     WithdrawnPolicy
	claimTTL      time.Duration
	progressOut   io.Writer
	progressEvery int
	logger        *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithWorkers sets how many folders are processed concurrently.
// Default is 1, which processes folders strictly in sequence.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			n = 1
		}
		o.workers = n
		return nil
	}
}

// WithPublicURLBase sets the URL prefix of published photo links,
// for example https://storage.googleapis.com/<bucket>.
func WithPublicURLBase(base string) Option {
	return func(o *Orchestrator) error {
		o.publicURLBase = base
		return nil
	}
}

// WithClock sets the processing clock.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithWithdrawnPolicy sets how withdrawn complaints are handled.
// Default is PublishWithdrawn.
func WithWithdrawnPolicy(policy WithdrawnPolicy) Option {
	return func(o *Orchestrator) error {
		o.withdrawn = policy
		return nil
	}
}

// WithClaims guards each folder with a claim object created atomically
// before the insert. Claims older than ttl are treated as abandoned.
func WithClaims(ttl time.Duration) Option {
	return func(o *Orchestrator) error {
		if ttl <= 0 {
			return fmt.Errorf("claim ttl must be positive, got %s", ttl)
		}
		o.claimTTL = ttl
		return nil
	}
}

// WithProgress reports run progress to w every interval folders.
func WithProgress(w io.Writer, interval int) Option {
	return func(o *Orchestrator) error {
		o.progressOut = w
		o.progressEvery = interval
		return nil
	}
}

// NewOrchestrator creates an orchestrator reading from blobs and writing through w.
func NewOrchestrator(blobs storage.BlobStore, w *writer.Writer, opts ...Option) (*Orchestrator, error) {
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if w == nil {
		return nil, ErrWriterRequired
	}

	o := &Orchestrator{
		blobs:   blobs,
		writer:  w,
		workers: 1,
		now:     time.Now,
		logger:  slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	o.loader = folder.NewLoader(blobs,
		folder.WithLogger(o.logger),
		folder.WithClock(o.now))

	if o.workers > 1 {
		pool, err := ants.NewPool(o.workers)
		if err != nil {
			return nil, err
		}
		o.pool = pool
	}
	return o, nil
}

// Release releases the worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// Discover returns the complaint folders that carry no marker, sorted by key.
func (o *Orchestrator) Discover(ctx context.Context) ([]core.FolderKey, error) {
	keys, err := o.blobs.List(ctx, core.FolderPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing complaint folders: %w", err)
	}

	seen := make(map[core.FolderKey]bool)
	for _, k := range keys {
		if key, ok := core.FolderOf(k); ok {
			seen[key] = seen[key] || k == key.Artifact(folder.MarkerFile)
		}
	}

	var pending []core.FolderKey
	for key, marked := range seen {
		if !marked {
			pending = append(pending, key)
		}
	}
	slices.Sort(pending)
	return pending, nil
}

// ProcessFolder publishes one folder.
// The error is non-nil for OutcomeMissingArtifact and OutcomeFailed.
func (o *Orchestrator) ProcessFolder(ctx context.Context, key core.FolderKey) (Outcome, error) {
	logger := o.logger.With("folder", key.String())

	done, err := o.markerExists(ctx, key)
	if err != nil {
		return OutcomeFailed, err
	}
	if done {
		logger.Debug("folder already processed")
		return OutcomeAlreadyProcessed, nil
	}

	f, err := o.loader.Load(ctx, key)
	if errors.Is(err, core.ErrMissingArtifact) {
		return OutcomeMissingArtifact, err
	}
	if err != nil {
		return OutcomeFailed, err
	}

	if f.Metadata.IsWithdrawn() {
		if o.withdrawn == SkipWithdrawn {
			logger.Info("skipping withdrawn complaint", "withdrawn_at", f.Metadata.WithdrawnAt)
			return OutcomeWithdrawnSkipped, nil
		}
		logger.Warn("publishing withdrawn complaint", "withdrawn_at", f.Metadata.WithdrawnAt)
	}

	if o.claimTTL > 0 {
		claimed, err := o.claim(ctx, key)
		if err != nil {
			return OutcomeFailed, err
		}
		if !claimed {
			logger.Info("folder claimed by another run")
			return OutcomeClaimed, nil
		}
		defer o.releaseClaim(key, logger)

		// The claim holder before us may have finished.
		if done, err := o.markerExists(ctx, key); err != nil {
			return OutcomeFailed, err
		} else if done {
			return OutcomeAlreadyProcessed, nil
		}
	}

	now := o.now()
	rec := buildRecord(f, o.publicURLBase, now)
	res, err := o.writer.Write(ctx, rec.Row())
	if err != nil {
		return OutcomeFailed, err
	}

	if err := o.writeMarker(ctx, key, now, logger); err != nil {
		// The row is in; the next run will publish a duplicate.
		return OutcomeFailed, fmt.Errorf("row inserted but marker not written: %w", err)
	}

	logger.Info("complaint published",
		"department", rec.Department,
		"priority", rec.Priority,
		"label", rec.Label,
		"dropped_columns", len(res.Dropped))
	return OutcomeProcessed, nil
}

// Run processes every discovered folder and returns the outcome counts.
// Only a discovery failure or cancellation ends a run early.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary

	keys, err := o.Discover(ctx)
	if err != nil {
		return summary, err
	}
	summary.Discovered = len(keys)
	o.logger.Info("discovered unprocessed folders", "count", len(keys))

	var progress *ProgressTracker
	if o.progressOut != nil {
		progress = NewProgressTracker(o.progressOut, len(keys), o.progressEvery)
		progress.Start()
	}

	var mu sync.Mutex
	handle := func(key core.FolderKey) {
		outcome := o.processSafely(ctx, key)
		mu.Lock()
		summary.record(outcome)
		mu.Unlock()
		if progress != nil {
			progress.Advance(outcome)
		}
	}

	var wg sync.WaitGroup
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		if o.pool == nil {
			handle(key)
			continue
		}
		wg.Add(1)
		if err := o.pool.Submit(func() {
			defer wg.Done()
			handle(key)
		}); err != nil {
			wg.Done()
			o.logger.Warn("worker pool rejected folder, processing inline", "folder", key.String(), "error", err)
			handle(key)
		}
	}
	wg.Wait()

	if progress != nil {
		progress.Finish()
	}
	summary.Elapsed = time.Since(start)

	o.logger.Info("run complete",
		"discovered", summary.Discovered,
		"processed", summary.Processed,
		"already_processed", summary.AlreadyProcessed,
		"missing_artifacts", summary.MissingArtifacts,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"elapsed", summary.Elapsed)

	return summary, ctx.Err()
}

// processSafely processes one folder and logs its failure. A panic is
// recovered and counted as a failure.
func (o *Orchestrator) processSafely(ctx context.Context, key core.FolderKey) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while processing folder", "folder", key.String(), "panic", r)
			outcome = OutcomeFailed
		}
	}()

	outcome, err := o.ProcessFolder(ctx, key)
	switch {
	case err == nil:
	case outcome == OutcomeMissingArtifact:
		o.logger.Warn("folder incomplete, will retry", "folder", key.String(), "error", err)
	default:
		o.logger.Error("failed to process folder", "folder", key.String(), "error", err)
	}
	return outcome
}

// ResetMarkers deletes the processed marker of every complaint folder and
// returns how many were removed.
func (o *Orchestrator) ResetMarkers(ctx context.Context) (int, error) {
	keys, err := o.blobs.List(ctx, core.FolderPrefix)
	if err != nil {
		return 0, fmt.Errorf("listing complaint folders: %w", err)
	}

	var errs []error
	removed := 0
	for _, k := range keys {
		key, ok := core.FolderOf(k)
		if !ok || k != key.Artifact(folder.MarkerFile) {
			continue
		}
		if err := o.blobs.Delete(ctx, k); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		removed++
		o.logger.Debug("marker removed", "folder", key.String())
	}
	o.logger.Info("markers reset", "removed", removed)
	return removed, errors.Join(errs...)
}

func (o *Orchestrator) markerExists(ctx context.Context, key core.FolderKey) (bool, error) {
	done, err := o.blobs.Exists(ctx, key.Artifact(folder.MarkerFile))
	if err != nil {
		return false, fmt.Errorf("checking marker: %w", err)
	}
	return done, nil
}

func (o *Orchestrator) writeMarker(ctx context.Context, key core.FolderKey, at time.Time, logger *slog.Logger) error {
	marker := key.Artifact(folder.MarkerFile)
	payload := []byte(core.FormatTimestamp(at))
	if o.claimTTL == 0 {
		return o.blobs.Write(ctx, marker, payload, "text/plain")
	}
	created, err := o.blobs.CreateIfAbsent(ctx, marker, payload, "text/plain")
	if err != nil {
		return err
	}
	if !created {
		logger.Warn("marker already existed after insert; folder was published twice")
	}
	return nil
}

// claim creates the folder's claim object. A claim older than the TTL is
// replaced once.
func (o *Orchestrator) claim(ctx context.Context, key core.FolderKey) (bool, error) {
	name := key.Artifact(folder.ClaimFile)
	payload := []byte(core.FormatTimestamp(o.now()))

	created, err := o.blobs.CreateIfAbsent(ctx, name, payload, "text/plain")
	if err != nil || created {
		return created, err
	}

	raw, err := o.blobs.Read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		// Released between our attempt and the read.
		return o.blobs.CreateIfAbsent(ctx, name, payload, "text/plain")
	}
	if err != nil {
		return false, err
	}
	claimedAt, err := time.Parse(core.TimestampLayout, string(raw))
	if err == nil && o.now().Sub(claimedAt) < o.claimTTL {
		return false, nil
	}

	o.logger.Warn("replacing stale claim", "folder", key.String(), "claimed_at", string(raw))
	if err := o.blobs.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	return o.blobs.CreateIfAbsent(ctx, name, payload, "text/plain")
}

// releaseClaim runs after the folder's context may have been cancelled.
func (o *Orchestrator) releaseClaim(key core.FolderKey, logger *slog.Logger) {
	err := o.blobs.Delete(context.Background(), key.Artifact(folder.ClaimFile))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("failed to release claim", "error", err)
	}
}
