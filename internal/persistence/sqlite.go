package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite opens the local dashboard store at dbPath, creating its
// directory, and migrates the key-value table.
func OpenSQLite(dbPath string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := database.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv store: %w", err)
	}
	return database, nil
}

type kvEntry struct {
	Key       string `gorm:"primaryKey;size:512"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQLiteKV is a key-value store on a local SQLite file.
type SQLiteKV struct {
	db *gorm.DB
}

func NewSQLiteKV(db *gorm.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	entry := kvEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&kvEntry{}).Error
}

// Keys lists keys matching pattern, where '*' matches any run of
// characters, '?' one character, and '\' escapes the next character.
func (s *SQLiteKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&kvEntry{}).
		Where(`key LIKE ? ESCAPE '\'`, globToLike(pattern)).
		Order("key").
		Pluck("key", &keys).Error
	return keys, err
}

func globToLike(pattern string) string {
	var (
		b       strings.Builder
		escaped bool
	)
	for _, r := range pattern {
		if escaped {
			escaped = false
			writeLikeLiteral(&b, r)
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			writeLikeLiteral(&b, r)
		}
	}
	if escaped {
		writeLikeLiteral(&b, '\\')
	}
	return b.String()
}

func writeLikeLiteral(b *strings.Builder, r rune) {
	switch r {
	case '%', '_', '\\':
		b.WriteByte('\\')
	}
	b.WriteRune(r)
}
