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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Envelope is the stored form of a blob in key/value backends that have no
// native object metadata.
type Envelope struct {
	ContentType string
	CreatedAt   time.Time
	Data        []byte
}

// MarshalEnvelope serializes an Envelope to bytes.
// CreatedAt is stored with microsecond precision.
func MarshalEnvelope(e *Envelope) []byte {
	created := e.CreatedAt.UnixMicro()
	size := ord.String.Size(e.ContentType) + varint.Int64.Size(created) + ord.ByteSlice.Size(e.Data)
	buf := make([]byte, size)
	n := ord.String.Marshal(e.ContentType, buf)
	n += varint.Int64.Marshal(created, buf[n:])
	ord.ByteSlice.Marshal(e.Data, buf[n:])
	return buf
}

// UnmarshalEnvelope deserializes an Envelope from bytes.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	contentType, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: content type: %w", ErrSerializationFailed, err)
	}
	created, n1, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: created at: %w", ErrSerializationFailed, err)
	}
	n += n1
	payload, _, err := ord.ByteSlice.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: data: %w", ErrSerializationFailed, err)
	}
	return &Envelope{
		ContentType: contentType,
		CreatedAt:   time.UnixMicro(created).UTC(),
		Data:        payload,
	}, nil
}
