package db

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the download history database.
type Store struct {
	DB *gorm.DB
}

// InitDatabase opens the SQLite database at dbPath and migrates models.
func InitDatabase(dbPath string) (*Store, error) {
	// Configure GORM logger
	newLogger := gormlogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags), // Use standard log writer (os.Stderr)
		gormlogger.Config{
			SlowThreshold:             time.Second,     // Slow SQL threshold
			LogLevel:                  gormlogger.Warn, // Log level (Warn, Error, Info)
			IgnoreRecordNotFoundError: true,            // Ignore ErrRecordNotFound error
			ParameterizedQueries:      false,           // Log SQL queries with params
			Colorful:                  true,            // Enable color
		},
	)

	gdb, err := gorm.Open(gormlite.Open(dbPath), &gorm.Config{
		Logger: newLogger, // Use the configured logger
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// Auto-migrate the Download schema
	if err := gdb.AutoMigrate(&Download{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return &Store{DB: gdb}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordDownload stores one completed download.
func (s *Store) RecordDownload(d *Download) error {
	if err := s.DB.Create(d).Error; err != nil {
		return fmt.Errorf("failed to save download to database: %w", err)
	}
	return nil
}

// ListDownloads returns the newest records first. An empty slug matches
// every mod; a non-positive limit returns everything.
func (s *Store) ListDownloads(slug string, limit int) ([]Download, error) {
	q := s.DB.Order("created_at DESC").Order("id DESC")
	if slug != "" {
		q = q.Where("slug = ?", slug)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []Download
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query download history: %w", err)
	}
	return out, nil
}

// LatestPerPath returns the most recent record for each install path.
func (s *Store) LatestPerPath() ([]Download, error) {
	all, err := s.ListDownloads("", 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(all))
	var out []Download
	for _, d := range all {
		if seen[d.InstallPath] {
			continue
		}
		seen[d.InstallPath] = true
		out = append(out, d)
	}
	return out, nil
}
