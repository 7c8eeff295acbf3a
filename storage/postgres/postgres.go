// Package postgres implements storage.AnalyticsStore and storage.TableManager
// on PostgreSQL through gorm.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/storage"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// complaintRow is the canonical complaint table layout.
type complaintRow struct {
	ComplaintID     string         `gorm:"column:complaint_id;primaryKey;size:64"`
	UserID          string         `gorm:"column:user_id;size:100;index"`
	Description     string         `gorm:"column:description;type:text"`
	ImageURL        string         `gorm:"column:image_url;type:text"`
	Image           string         `gorm:"column:image;type:text"`
	Latitude        float64        `gorm:"column:latitude"`
	Longitude       float64        `gorm:"column:longitude"`
	Location        datatypes.JSON `gorm:"column:location;type:jsonb"`
	LocationText    string         `gorm:"column:location_text;type:text"`
	Status          string         `gorm:"column:status;size:20;index"`
	SubmittedAt     time.Time      `gorm:"column:submitted_at;index"`
	IssueType       string         `gorm:"column:issue_type;size:100"`
	Extract         string         `gorm:"column:extract;size:100"`
	Department      string         `gorm:"column:department;size:100;index"`
	Priority        string         `gorm:"column:priority;size:10"`
	DatesMentioned  string         `gorm:"column:dates_mentioned;type:text"`
	ImageDetections datatypes.JSON `gorm:"column:image_detections;type:jsonb;default:'[]'"`
	TextAnalysis    datatypes.JSON `gorm:"column:text_analysis;type:jsonb;default:'{}'"`
	ProcessedAt     time.Time      `gorm:"column:processed_at"`
	Label           string         `gorm:"column:label;size:100"`
}

// Store writes complaint rows to PostgreSQL tables.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

var (
	_ storage.AnalyticsStore = (*Store)(nil)
	_ storage.TableManager   = (*Store)(nil)
)

// Open connects to the database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	l := slog.Default().With("component", "postgres")
	l.Info("database connected")
	return &Store{db: db, logger: l}, nil
}

// Columns returns the column names of the table.
func (s *Store) Columns(ctx context.Context, tableID string) ([]string, error) {
	types, err := s.db.WithContext(ctx).Migrator().ColumnTypes(tableID)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("table %s has no columns", tableID)
	}
	columns := make([]string, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
	}
	return columns, nil
}

// InsertRow inserts a single row.
func (s *Store) InsertRow(ctx context.Context, tableID string, row core.Row) error {
	return s.db.WithContext(ctx).Table(tableID).Create(map[string]any(row)).Error
}

// CreateTable creates tableID with the complaint layout.
func (s *Store) CreateTable(ctx context.Context, tableID string, recreate bool) error {
	m := s.db.WithContext(ctx).Table(tableID).Migrator()
	if recreate {
		if err := m.DropTable(tableID); err != nil {
			return fmt.Errorf("dropping %s: %w", tableID, err)
		}
		s.logger.Info("table dropped", "table", tableID)
	}
	if err := m.CreateTable(&complaintRow{}); err != nil {
		return fmt.Errorf("creating %s: %w", tableID, err)
	}
	s.logger.Info("table created", "table", tableID)
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
