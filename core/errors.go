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

import "errors"

// Pipeline error taxonomy.
var (
	// ErrMissingArtifact indicates a required folder artifact does not exist.
	// The folder is skipped and stays eligible for the next run.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrMalformedArtifact indicates an artifact could not be parsed or has the wrong shape.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrInsertFailure indicates the analytical store rejected a row.
	ErrInsertFailure = errors.New("insert failure")

	// ErrSchemaLookup indicates the destination table schema could not be read.
	ErrSchemaLookup = errors.New("schema lookup failure")

	// ErrInvalidFolderKey indicates a folder key does not match complaint_<YYYYMMDD_HHMMSS>_<8-hex>.
	ErrInvalidFolderKey = errors.New("invalid folder key")

	// ErrInvalidLocation indicates coordinates outside the valid latitude/longitude range.
	ErrInvalidLocation = errors.New("invalid location")
)
