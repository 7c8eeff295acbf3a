package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
	"github.com/poiesic/grievance/storage"
	"github.com/poiesic/grievance/storage/badger"
	"github.com/poiesic/grievance/storage/mock"
	"github.com/poiesic/grievance/writer"
	"github.com/stretchr/testify/require"
)

const (
	aliceKey  = core.FolderKey("complaint_20240101_000000_abcd1234")
	testTable = "Grievance.extract"
	testURL   = "https://storage.googleapis.com/grievance-bucket"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newBlobStore(t *testing.T) storage.BlobStore {
	t.Helper()
	store, err := badger.NewMemoryBlobStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func putArtifact(t *testing.T, store storage.BlobStore, key core.FolderKey, name, content string) {
	t.Helper()
	require.NoError(t, store.Write(context.Background(), key.Artifact(name), []byte(content), "application/json"))
}

// putComplaint writes the three required artifacts of a pending complaint.
func putComplaint(t *testing.T, store storage.BlobStore, key core.FolderKey, user, text string) {
	t.Helper()
	putArtifact(t, store, key, folder.MetadataFile, `{"user":"`+user+`","timestamp":"2024-01-01T00:00:00","status":"pending"}`)
	putArtifact(t, store, key, folder.LocationFile, `{"latitude":12.9,"longitude":77.6}`)
	putArtifact(t, store, key, folder.TextFile, text)
}

// putAlice writes the reference pothole complaint.
func putAlice(t *testing.T, store storage.BlobStore) {
	t.Helper()
	putComplaint(t, store, aliceKey, "alice", "Pothole near Main St, urgent")
	putArtifact(t, store, aliceKey, folder.ExtractFile,
		`{"Issue Type":["pothole"],"Urgency":["urgent"],"Location":["Main St"],"Date":[],"Person":[]}`)
}

func exists(t *testing.T, store storage.BlobStore, key string) bool {
	t.Helper()
	ok, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func newTestOrchestrator(t *testing.T, blobs storage.BlobStore, analytics *mock.MockAnalyticsStore, opts ...Option) *Orchestrator {
	t.Helper()
	w, err := writer.New(analytics, testTable)
	require.NoError(t, err)

	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithPublicURLBase(testURL),
	}, opts...)
	o, err := NewOrchestrator(blobs, w, opts...)
	require.NoError(t, err)
	t.Cleanup(o.Release)
	return o
}
