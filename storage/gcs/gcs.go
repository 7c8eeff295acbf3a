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


// Package gcs implements storage.BlobStore on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcstorage "cloud.google.com/go/storage"
	"github.com/poiesic/grievance/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BlobStore stores blobs as objects of a single bucket.
type BlobStore struct {
	client *gcstorage.Client
	bucket *gcstorage.BucketHandle
	name   string
}

var _ storage.BlobStore = (*BlobStore)(nil)

// Open connects to bucket. Without options the client uses application
// default credentials.
func Open(ctx context.Context, bucket string, opts ...option.ClientOption) (*BlobStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket name is required")
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating client: %w", err)
	}
	return &BlobStore{client: client, bucket: client.Bucket(bucket), name: bucket}, nil
}

// Bucket returns the bucket name.
func (s *BlobStore) Bucket() string {
	return s.name
}

func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.Object(key).Attrs(ctx)
	if errors.Is(err, gcstorage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *BlobStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	return write(ctx, s.bucket.Object(key), data, contentType)
}

// CreateIfAbsent writes with a does-not-exist precondition. A 412 response
// means another writer created the object first.
func (s *BlobStore) CreateIfAbsent(ctx context.Context, key string, data []byte, contentType string) (bool, error) {
	obj := s.bucket.Object(key).If(gcstorage.Conditions{DoesNotExist: true})
	err := write(ctx, obj, data, contentType)
	if isPreconditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return mapError(s.bucket.Object(key).Delete(ctx))
}

func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	query := &gcstorage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}

	var keys []string
	it := s.bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs: listing %q: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (s *BlobStore) Close() error {
	return s.client.Close()
}

func write(ctx context.Context, obj *gcstorage.ObjectHandle, data []byte, contentType string) error {
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// mapError translates not-found responses into storage.ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	return err
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
