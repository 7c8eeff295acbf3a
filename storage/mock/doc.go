// Package mock provides test double implementations of storage interfaces.
//
// MockAnalyticsStore records every accepted row in memory and lets tests
// inject schema lookups and insert failures:
//
//	store := mock.NewMockAnalyticsStore("complaint_id", "user_id", "status")
//	store.InsertRowFunc = func(ctx context.Context, tableID string, row core.Row) error {
//	    return errors.New("quota exceeded")
//	}
//
// All methods are safe for concurrent use.
package mock
