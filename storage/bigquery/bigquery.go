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


// Package bigquery implements storage.AnalyticsStore and storage.TableManager
// on Google BigQuery using streaming inserts.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Store streams complaint rows into BigQuery tables.
// Table IDs are "dataset.table" or "project.dataset.table".
type Store struct {
	client *bigquery.Client
}

var (
	_ storage.AnalyticsStore = (*Store)(nil)
	_ storage.TableManager   = (*Store)(nil)
)

// Open creates a client for projectID.
func Open(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: creating client: %w", err)
	}
	return &Store{client: client}, nil
}

// Columns returns the top-level field names of the table schema.
func (s *Store) Columns(ctx context.Context, tableID string) ([]string, error) {
	table, err := s.table(tableID)
	if err != nil {
		return nil, err
	}
	md, err := table.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(md.Schema))
	for _, field := range md.Schema {
		columns = append(columns, field.Name)
	}
	return columns, nil
}

// InsertRow streams a single row. Row-level insertion errors are joined.
func (s *Store) InsertRow(ctx context.Context, tableID string, row core.Row) error {
	table, err := s.table(tableID)
	if err != nil {
		return err
	}
	err = table.Inserter().Put(ctx, rowSaver{row: row})
	var multi bigquery.PutMultiError
	if errors.As(err, &multi) {
		return joinRowErrors(multi)
	}
	return err
}

// CreateTable creates the complaint table. With recreate set an existing
// table is deleted first; a missing table is not an error.
func (s *Store) CreateTable(ctx context.Context, tableID string, recreate bool) error {
	table, err := s.table(tableID)
	if err != nil {
		return err
	}
	if recreate {
		if err := table.Delete(ctx); err != nil && !isNotFound(err) {
			return fmt.Errorf("bigquery: deleting %s: %w", tableID, err)
		}
	}
	md := &bigquery.TableMetadata{
		Description: "Classified grievance complaints",
		Schema:      ComplaintSchema(),
	}
	if err := table.Create(ctx, md); err != nil {
		return fmt.Errorf("bigquery: creating %s: %w", tableID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) table(tableID string) (*bigquery.Table, error) {
	project, dataset, table, err := parseTableID(tableID)
	if err != nil {
		return nil, err
	}
	if project == "" {
		return s.client.Dataset(dataset).Table(table), nil
	}
	return s.client.DatasetInProject(project, dataset).Table(table), nil
}

func parseTableID(tableID string) (project, dataset, table string, err error) {
	parts := strings.Split(tableID, ".")
	for _, p := range parts {
		if p == "" {
			return "", "", "", fmt.Errorf("%w: %q", storage.ErrInvalidTableID, tableID)
		}
	}
	switch len(parts) {
	case 2:
		return "", parts[0], parts[1], nil
	case 3:
		return parts[0], parts[1], parts[2], nil
	}
	return "", "", "", fmt.Errorf("%w: %q", storage.ErrInvalidTableID, tableID)
}

// rowSaver supplies a deterministic insert ID so BigQuery can drop a
// re-insert of the same complaint on a best-effort basis.
type rowSaver struct {
	row core.Row
}

func (r rowSaver) Save() (map[string]bigquery.Value, string, error) {
	values := make(map[string]bigquery.Value, len(r.row))
	for k, v := range r.row {
		values[k] = v
	}
	return values, insertID(r.row), nil
}

func insertID(row core.Row) string {
	id, ok := row[core.ColComplaintID].(string)
	if !ok || id == "" {
		// Empty insert ID disables dedup for this row.
		return ""
	}
	return strconv.FormatUint(uint64(core.IDFromContent(id)), 16)
}

func joinRowErrors(multi bigquery.PutMultiError) error {
	errs := make([]error, 0, len(multi))
	for _, rowErr := range multi {
		for _, e := range rowErr.Errors {
			errs = append(errs, fmt.Errorf("row %d: %w", rowErr.RowIndex, e))
		}
	}
	if len(errs) == 0 {
		return multi
	}
	return errors.Join(errs...)
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// ComplaintSchema is the canonical schema of the complaint table.
func ComplaintSchema() bigquery.Schema {
	field := func(name string, typ bigquery.FieldType, desc string) *bigquery.FieldSchema {
		return &bigquery.FieldSchema{Name: name, Type: typ, Description: desc}
	}
	id := field(core.ColComplaintID, bigquery.StringFieldType, "Unique identifier for the complaint")
	id.Required = true

	return bigquery.Schema{
		id,
		field(core.ColUserID, bigquery.StringFieldType, "User who submitted the complaint"),
		field(core.ColDescription, bigquery.StringFieldType, "Text description of the complaint"),
		field(core.ColImageURL, bigquery.StringFieldType, "Public URL of the complaint photo"),
		field(core.ColImage, bigquery.StringFieldType, "Public URL of the complaint photo"),
		field(core.ColLatitude, bigquery.FloatFieldType, "Reported latitude"),
		field(core.ColLongitude, bigquery.FloatFieldType, "Reported longitude"),
		field(core.ColLocation, bigquery.StringFieldType, "Location data as JSON string"),
		field(core.ColLocationText, bigquery.StringFieldType, "Place names mentioned in the text"),
		field(core.ColStatus, bigquery.StringFieldType, "Current status of the complaint"),
		field(core.ColSubmittedAt, bigquery.TimestampFieldType, "Timestamp when the complaint was submitted"),
		field(core.ColIssueType, bigquery.StringFieldType, "Issue type extracted from text analysis"),
		field(core.ColExtract, bigquery.StringFieldType, "Issue type extracted from text analysis"),
		field(core.ColDepartment, bigquery.StringFieldType, "Department assigned to handle the complaint"),
		field(core.ColPriority, bigquery.StringFieldType, "Handling priority"),
		field(core.ColDatesMentioned, bigquery.StringFieldType, "Dates mentioned in the text"),
		field(core.ColImageDetections, bigquery.StringFieldType, "Image detections as JSON array"),
		field(core.ColTextAnalysis, bigquery.StringFieldType, "Text analysis as JSON object"),
		field(core.ColProcessedAt, bigquery.TimestampFieldType, "Timestamp when the pipeline published the row"),
		field(core.ColLabel, bigquery.StringFieldType, "Prediction label from image analysis"),
	}
}
