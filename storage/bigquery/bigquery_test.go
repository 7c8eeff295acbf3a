package bigquery

import (
	"errors"
	"net/http"
	"strconv"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestParseTableID(t *testing.T) {
	tests := []struct {
		id                      string
		project, dataset, table string
		wantErr                 bool
	}{
		{"Grievance.extract", "", "Grievance", "extract", false},
		{"my-project.Grievance.extract", "my-project", "Grievance", "extract", false},
		{"extract", "", "", "", true},
		{"a.b.c.d", "", "", "", true},
		{"Grievance.", "", "", "", true},
		{"", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			project, dataset, table, err := parseTableID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, storage.ErrInvalidTableID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.project, project)
			assert.Equal(t, tt.dataset, dataset)
			assert.Equal(t, tt.table, table)
		})
	}
}

func TestRowSaver(t *testing.T) {
	row := core.Row{core.ColComplaintID: "complaint_20240101_000000_abcd1234", core.ColLatitude: 12.9}

	values, id, err := rowSaver{row: row}.Save()
	require.NoError(t, err)
	assert.Equal(t, bigquery.Value("complaint_20240101_000000_abcd1234"), values[core.ColComplaintID])
	assert.Equal(t, bigquery.Value(12.9), values[core.ColLatitude])
	assert.Equal(t, strconv.FormatUint(uint64(core.IDFromContent("complaint_20240101_000000_abcd1234")), 16), id)

	_, again, _ := rowSaver{row: row}.Save()
	assert.Equal(t, id, again, "insert IDs must be stable across retries")

	_, none, _ := rowSaver{row: core.Row{core.ColStatus: "pending"}}.Save()
	assert.Empty(t, none)
}

func TestJoinRowErrors(t *testing.T) {
	multi := bigquery.PutMultiError{
		{RowIndex: 0, Errors: bigquery.MultiError{errors.New("no such field: priority"), errors.New("invalid timestamp")}},
	}

	err := joinRowErrors(multi)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such field: priority")
	assert.Contains(t, err.Error(), "invalid timestamp")
}

func TestComplaintSchema(t *testing.T) {
	schema := ComplaintSchema()

	names := make([]string, len(schema))
	types := make(map[string]bigquery.FieldType)
	for i, f := range schema {
		names[i] = f.Name
		types[f.Name] = f.Type
	}
	assert.Equal(t, core.Columns, names)
	assert.True(t, schema[0].Required)
	assert.Equal(t, bigquery.TimestampFieldType, types[core.ColSubmittedAt])
	assert.Equal(t, bigquery.FloatFieldType, types[core.ColLatitude])
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&googleapi.Error{Code: http.StatusNotFound}))
	assert.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isNotFound(errors.New("boom")))
}
