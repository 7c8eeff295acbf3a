package core

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFolderKey(t *testing.T) {
	created := time.Date(2024, 3, 15, 9, 41, 7, 0, time.UTC)

	key := NewFolderKey(created)

	assert.True(t, strings.HasPrefix(key.String(), "complaint_20240315_094107_"))
	parsed, ts, err := ParseFolderKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
	assert.Equal(t, created, ts)

	assert.NotEqual(t, key, NewFolderKey(created), "keys created in the same second must differ")
}

func TestParseFolderKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid", "complaint_20240101_000000_abcd1234", nil},
		{"missing suffix", "complaint_20240101_000000", ErrInvalidFolderKey},
		{"uppercase hex", "complaint_20240101_000000_ABCD1234", ErrInvalidFolderKey},
		{"wrong prefix", "report_20240101_000000_abcd1234", ErrInvalidFolderKey},
		{"impossible date", "complaint_20241340_000000_abcd1234", ErrInvalidFolderKey},
		{"empty", "", ErrInvalidFolderKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFolderKey(tt.key)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestFolderOf(t *testing.T) {
	tests := []struct {
		blobKey string
		want    FolderKey
		ok      bool
	}{
		{"complaint_20240101_000000_abcd1234/metadata.json", "complaint_20240101_000000_abcd1234", true},
		{"complaint_x/nested/photo.jpg", "complaint_x", true},
		{"complaint_20240101_000000_abcd1234", "", false},
		{"users/alice.json", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.blobKey, func(t *testing.T) {
			got, ok := FolderOf(tt.blobKey)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFolderKey_Artifact(t *testing.T) {
	key := FolderKey("complaint_20240101_000000_abcd1234")
	assert.Equal(t, "complaint_20240101_000000_abcd1234/metadata.json", key.Artifact("metadata.json"))
}

func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name    string
		loc     *Location
		wantErr bool
	}{
		{"valid", &Location{Latitude: 12.9, Longitude: 77.6}, false},
		{"origin", &Location{}, false},
		{"nil", nil, true},
		{"latitude too large", &Location{Latitude: 91}, true},
		{"longitude too small", &Location{Longitude: -181}, true},
		{"NaN latitude", &Location{Latitude: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocation(tt.loc)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
