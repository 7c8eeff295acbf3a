package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalEnvelope(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name     string
		envelope *Envelope
	}{
		{
			name:     "json artifact",
			envelope: &Envelope{ContentType: "application/json", CreatedAt: now, Data: []byte(`{"latitude":12.9}`)},
		},
		{
			name:     "marker without content type",
			envelope: &Envelope{CreatedAt: now, Data: []byte("2024-01-01T00:00:00Z")},
		},
		{
			name:     "binary photo",
			envelope: &Envelope{ContentType: "image/jpeg", CreatedAt: now, Data: []byte{0xff, 0xd8, 0x00, 0xff, 0xd9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalEnvelope(MarshalEnvelope(tt.envelope))
			require.NoError(t, err)
			assert.Equal(t, tt.envelope.ContentType, decoded.ContentType)
			assert.True(t, tt.envelope.CreatedAt.Equal(decoded.CreatedAt))
			assert.Equal(t, tt.envelope.Data, decoded.Data)
		})
	}
}

func TestUnmarshalEnvelope_Invalid(t *testing.T) {
	_, err := UnmarshalEnvelope([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
