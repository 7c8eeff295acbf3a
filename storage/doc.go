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


// Package storage provides the storage abstraction layer for the grievance pipeline.
//
// This package defines the adapter contracts that decouple the pipeline from
// the services it talks to. It allows different backends (BadgerDB, Google
// Cloud Storage, BigQuery, PostgreSQL) to be used interchangeably and to be
// replaced with fakes in tests.
//
// # Architecture
//
//   - BlobStore: named byte objects grouped under folder keys (complaint artifacts, markers)
//   - AnalyticsStore: append-only row sink with a discoverable column schema
//   - TableManager: creation of the analytical complaint table
//
// Implementation packages:
//
//   - storage/badger: embedded blob store for local runs and tests
//   - storage/gcs: Google Cloud Storage blob store
//   - storage/bigquery: BigQuery analytics store
//   - storage/postgres: PostgreSQL analytics store
//   - storage/mock: test doubles
//
// # Usage
//
// Open an embedded blob store:
//
//	blobs, err := badger.OpenBlobStore("/path/to/blobs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer blobs.Close()
//
// Use in tests with in-memory storage:
//
//	blobs, err := badger.NewMemoryBlobStore()
//
// # Retries
//
// The pipeline imposes no retry policy of its own. Wrap a BlobStore with
// NewRetryingBlobStore to retry transient failures with exponential backoff.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Context Support
//
// All adapter methods accept context.Context for cancellation and timeout
// support. Timeouts are whatever the caller's context or the underlying client imposes.
package storage
