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


// Package folder reconstructs complaint folders from the blob store.
package folder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/storage"
)

// Loader reads the artifacts of a complaint folder into a core.Folder.
type Loader struct {
	blobs  storage.BlobStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithClock sets the clock used when a folder carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates a loader over blobs.
func NewLoader(blobs storage.BlobStore, opts ...Option) *Loader {
	l := &Loader{
		blobs:  blobs,
		logger: slog.Default().With("component", "folder"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads a complaint folder.
//
// A missing required artifact returns an error wrapping core.ErrMissingArtifact;
// a required artifact that cannot be decoded wraps core.ErrMalformedArtifact.
// Optional artifacts that are absent or malformed fall back to their defaults.
func (l *Loader) Load(ctx context.Context, key core.FolderKey) (*core.Folder, error) {
	logger := l.logger.With("folder", key.String())

	// Presence first, so a folder that is still being uploaded reports every gap at once.
	var missing []string
	for _, name := range RequiredArtifacts {
		ok, err := l.blobs.Exists(ctx, key.Artifact(name))
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingArtifact, strings.Join(missing, ", "))
	}

	f := &core.Folder{Key: key}

	raw, err := l.readRequired(ctx, key, MetadataFile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &f.Metadata); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedArtifact, MetadataFile, err)
	}

	raw, err = l.readRequired(ctx, key, LocationFile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &f.Location); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedArtifact, LocationFile, err)
	}
	if err := core.ValidateLocation(&f.Location); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedArtifact, LocationFile, err)
	}
	f.LocationRaw = compact(raw)

	raw, err = l.readRequired(ctx, key, TextFile)
	if err != nil {
		return nil, err
	}
	f.Text = string(raw)

	if raw, ok, err := l.readOptional(ctx, key, MetaFile); err != nil {
		return nil, err
	} else if ok {
		var meta core.Meta
		if err := json.Unmarshal(raw, &meta); err != nil {
			logger.Warn("malformed optional artifact", "artifact", MetaFile, "error", err)
		} else {
			f.Meta = &meta
		}
	}

	if raw, ok, err := l.readOptional(ctx, key, ExtractFile); err != nil {
		return nil, err
	} else if ok {
		var extract core.Extract
		if err := json.Unmarshal(raw, &extract); err != nil {
			logger.Warn("malformed optional artifact", "artifact", ExtractFile, "error", err)
		} else {
			f.Extract = &extract
			f.ExtractRaw = compact(raw)
		}
	}

	if raw, ok, err := l.readOptional(ctx, key, LabelFile); err != nil {
		return nil, err
	} else if ok {
		// Structural problems are handled by the classifier, which degrades
		// to the "Error" label instead of dropping the artifact.
		f.Label = json.RawMessage(bytes.TrimSpace(raw))
	}

	if raw, ok, err := l.readOptional(ctx, key, StatusHistoryFile); err != nil {
		return nil, err
	} else if ok {
		var history []core.StatusEntry
		if err := json.Unmarshal(raw, &history); err != nil {
			logger.Warn("malformed optional artifact", "artifact", StatusHistoryFile, "error", err)
		} else {
			f.History = history
			if n := len(history); n > 0 {
				logger.Debug("status history loaded", "entries", n, "last_status", history[n-1].Status)
			}
		}
	}

	f.SubmittedAt = l.submittedAt(f)
	return f, nil
}

// submittedAt prefers the upload trigger's timestamp over the submitter's.
func (l *Loader) submittedAt(f *core.Folder) string {
	if f.Meta != nil && f.Meta.Timestamp != "" {
		return f.Meta.Timestamp
	}
	if f.Metadata.Timestamp != "" {
		return f.Metadata.Timestamp
	}
	return core.FormatTimestamp(l.now())
}

func (l *Loader) readRequired(ctx context.Context, key core.FolderKey, name string) ([]byte, error) {
	raw, err := l.blobs.Read(ctx, key.Artifact(name))
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between the presence check and the read.
		return nil, fmt.Errorf("%w: %s", core.ErrMissingArtifact, name)
	}
	return raw, err
}

func (l *Loader) readOptional(ctx context.Context, key core.FolderKey, name string) ([]byte, bool, error) {
	raw, err := l.blobs.Read(ctx, key.Artifact(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func compact(raw []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return json.RawMessage(bytes.TrimSpace(raw))
	}
	return json.RawMessage(buf.Bytes())
}
