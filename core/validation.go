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


package core

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FolderPrefix is the name prefix shared by every complaint folder.
const FolderPrefix = "complaint_"

const folderTimeLayout = "20060102_150405"

var folderKeyPattern = regexp.MustCompile(`^complaint_(\d{8}_\d{6})_([0-9a-f]{8})$`)

// FolderKey identifies one complaint folder in the blob store.
type FolderKey string

func (k FolderKey) String() string {
	return string(k)
}

// Artifact returns the blob key of a named artifact inside the folder.
func (k FolderKey) Artifact(name string) string {
	return string(k) + "/" + name
}

// NewFolderKey builds a folder key of the form complaint_<YYYYMMDD_HHMMSS>_<8-hex>.
// The random suffix keeps keys unique when several complaints share a second.
func NewFolderKey(t time.Time) FolderKey {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return FolderKey(FolderPrefix + t.UTC().Format(folderTimeLayout) + "_" + suffix)
}

// ParseFolderKey validates the strict folder key form and returns the creation
// time encoded in it. The time is advisory; ordering must come from metadata.
func ParseFolderKey(s string) (FolderKey, time.Time, error) {
	m := folderKeyPattern.FindStringSubmatch(s)
	if m == nil {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFolderKey, s)
	}
	created, err := time.ParseInLocation(folderTimeLayout, m[1], time.UTC)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidFolderKey, s, err)
	}
	return FolderKey(s), created, nil
}

// FolderOf returns the complaint folder that contains a blob key.
// Keys outside a complaint folder return false.
func FolderOf(blobKey string) (FolderKey, bool) {
	folder, _, found := strings.Cut(blobKey, "/")
	if !found || !strings.HasPrefix(folder, FolderPrefix) {
		return "", false
	}
	return FolderKey(folder), true
}

// ValidateLocation checks that coordinates are finite and within range.
func ValidateLocation(loc *Location) error {
	if loc == nil {
		return fmt.Errorf("%w: location is nil", ErrInvalidLocation)
	}
	if math.IsNaN(loc.Latitude) || loc.Latitude < -90 || loc.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidLocation, loc.Latitude)
	}
	if math.IsNaN(loc.Longitude) || loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidLocation, loc.Longitude)
	}
	return nil
}
