package mock

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/storage"
)

// MockAnalyticsStore is a test double for storage.AnalyticsStore and
// storage.TableManager.
type MockAnalyticsStore struct {
	// ColumnsFunc is called by Columns if set.
	// If nil, returns the columns given to NewMockAnalyticsStore.
	ColumnsFunc func(ctx context.Context, tableID string) ([]string, error)

	// InsertRowFunc is called by InsertRow if set.
	// The row is recorded only when it returns nil.
	InsertRowFunc func(ctx context.Context, tableID string, row core.Row) error

	mu           sync.Mutex
	columns      []string
	rows         []core.Row
	columnsCalls int
	insertCalls  int
	created      map[string]int
	closed       bool
}

var (
	_ storage.AnalyticsStore = (*MockAnalyticsStore)(nil)
	_ storage.TableManager   = (*MockAnalyticsStore)(nil)
)

// NewMockAnalyticsStore creates a store whose table has the given columns.
func NewMockAnalyticsStore(columns ...string) *MockAnalyticsStore {
	return &MockAnalyticsStore{
		columns: columns,
		created: make(map[string]int),
	}
}

// Columns returns the configured table columns.
func (m *MockAnalyticsStore) Columns(ctx context.Context, tableID string) ([]string, error) {
	m.mu.Lock()
	m.columnsCalls++
	fn := m.ColumnsFunc
	cols := slices.Clone(m.columns)
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, tableID)
	}
	return cols, nil
}

// InsertRow records row unless InsertRowFunc rejects it.
func (m *MockAnalyticsStore) InsertRow(ctx context.Context, tableID string, row core.Row) error {
	m.mu.Lock()
	m.insertCalls++
	fn := m.InsertRowFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, tableID, row); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.rows = append(m.rows, maps.Clone(row))
	m.mu.Unlock()
	return nil
}

// CreateTable counts table creations.
func (m *MockAnalyticsStore) CreateTable(ctx context.Context, tableID string, recreate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[tableID]++
	return nil
}

// Close marks the store closed.
func (m *MockAnalyticsStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Rows returns copies of all accepted rows in insertion order.
func (m *MockAnalyticsStore) Rows() []core.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Row, len(m.rows))
	for i, r := range m.rows {
		out[i] = maps.Clone(r)
	}
	return out
}

// ColumnsCalls returns the number of schema lookups.
func (m *MockAnalyticsStore) ColumnsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.columnsCalls
}

// InsertCalls returns the number of insert attempts, accepted or not.
func (m *MockAnalyticsStore) InsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCalls
}

// CreatedTables returns how many times each table was created.
func (m *MockAnalyticsStore) CreatedTables() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.created)
}

// IsClosed reports whether Close was called.
func (m *MockAnalyticsStore) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
