package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/callguard/internal/errors"
	"github.com/tphakala/callguard/internal/logger"
)

// SQLiteStore implements Store on a SQLite file.
type SQLiteStore struct {
	DB   *gorm.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and migrates the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.Newf("sqlite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, dbError(fmt.Errorf("failed to create database directory: %w", err), "open")
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return nil, dbError(fmt.Errorf("failed to open SQLite database: %w", err), "open")
	}

	if err := db.AutoMigrate(&Analysis{}); err != nil {
		return nil, dbError(fmt.Errorf("failed to migrate schema: %w", err), "migrate")
	}

	GetLogger().Info("analysis history opened", logger.String("path", path))
	return &SQLiteStore{DB: db, path: path}, nil
}

// Save inserts a.
func (s *SQLiteStore) Save(ctx context.Context, a *Analysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(a).Error; err != nil {
		return dbError(err, "save")
	}
	return nil
}

// Get returns the analysis with id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Analysis, error) {
	var a Analysis
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, dbError(err, "get")
	}
	return &a, nil
}

// List returns the most recent analyses, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Analysis, error) {
	analyses := []Analysis{}
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&analyses).Error
	if err != nil {
		return nil, dbError(err, "list")
	}
	return analyses, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return dbError(err, "close")
	}
	return sqlDB.Close()
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		gormWriter{},
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// gormWriter forwards GORM messages to the module logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	GetLogger().Warn("gorm", logger.String("message", fmt.Sprintf(format, args...)))
}
