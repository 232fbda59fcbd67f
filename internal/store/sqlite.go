package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// property is one row of the properties table.
type property struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (property) TableName() string {
	return "properties"
}

// SQLiteStore is a PropertyStore backed by a SQLite database.
type SQLiteStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenSQLite opens or creates the database at path. An empty path uses an
// in-memory database.
func OpenSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&property{}); err != nil {
		return nil, fmt.Errorf("migrate properties: %w", err)
	}

	log = log.With().Str("component", "sqlitestore").Logger()
	log.Debug().Str("path", path).Msg("opened property database")
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) lookup(key string) (property, bool) {
	var p property
	err := s.db.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).Take(&p).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error().Err(err).Str("key", key).Msg("failed to read property")
		}
		return property{}, false
	}
	return p, true
}

func (s *SQLiteStore) Has(key string) bool {
	_, ok := s.lookup(key)
	return ok
}

func (s *SQLiteStore) Get(key string) string {
	p, _ := s.lookup(key)
	return p.Value
}

func (s *SQLiteStore) Set(key, value string) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&property{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
