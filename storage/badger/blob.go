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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/grievance/storage"
)

// BlobStore implements storage.BlobStore for BadgerDB.
// Each blob is stored as a storage.Envelope under its namespaced key.
type BlobStore struct {
	backend *Backend
	// owned is set when the store opened the backend itself and must close it.
	owned bool
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a BlobStore on an open backend.
// The caller keeps ownership of the backend.
func NewBlobStore(backend *Backend) *BlobStore {
	return &BlobStore{backend: backend}
}

// OpenBlobStore opens a backend at filePath and returns a store that owns it.
func OpenBlobStore(filePath string) (storage.BlobStore, error) {
	backend, err := OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}
	return &BlobStore{backend: backend, owned: true}, nil
}

// Exists reports whether a blob exists.
func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	exists := false
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeBlobKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// Read returns the content of a blob.
func (s *BlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	var envelope *storage.Envelope
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			envelope, unmarshalErr = storage.UnmarshalEnvelope(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Write creates or replaces a blob.
func (s *BlobStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeBlobKey(key), encode(data, contentType)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CreateIfAbsent creates a blob only if the key is unused.
// Badger's optimistic concurrency control rejects the commit of a transaction
// that read the key while another transaction wrote it; that loser reports
// the blob as already existing.
func (s *BlobStore) CreateIfAbsent(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	created := false
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		dbKey := makeBlobKey(key)
		_, err := tx.Get(dbKey)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(dbKey, encode(data, contentType)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			if errors.Is(err, badger.ErrConflict) {
				return nil
			}
			return err
		}
		created = true
		return nil
	}, true)
	return created, err
}

// Delete removes a blob.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		dbKey := makeBlobKey(key)
		if _, err := tx.Get(dbKey); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(dbKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// List returns the keys of all blobs whose key begins with prefix, in key order.
func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeBlobKey(prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, blobKeyFromDB(iter.Item().KeyCopy(nil)))
		}
		return nil
	}, false)
	return keys, err
}

// Close closes the backend if the store owns it.
func (s *BlobStore) Close() error {
	if s.owned {
		return s.backend.Close()
	}
	return nil
}

func encode(data []byte, contentType string) []byte {
	return storage.MarshalEnvelope(&storage.Envelope{
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
		Data:        data,
	})
}
