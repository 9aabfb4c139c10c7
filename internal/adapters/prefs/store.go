// Package prefs persists the locally remembered profile: the chosen
// username, the collection source and whether the tutorial was dismissed.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/pkg/logger"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "vinylo.sqlite3"

const profileID = 1

// profile is the single remembered row.
type profile struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:128"`
	Source       string `gorm:"size:16"`
	TutorialSeen bool
	UpdatedAt    time.Time
}

// Store is a sqlite-backed preference store. It is safe for concurrent use.
type Store struct {
	db  *gorm.DB
	sql *sql.DB
	log logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens or creates the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create dir: %w", ErrOpen, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	// sqlite has one writer; a single connection also keeps :memory: coherent.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&profile{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrOpen, err)
	}

	s := &Store{db: db, sql: sqlDB}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("prefs")
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Load returns the remembered preferences, or the zero Prefs when nothing
// was saved yet.
func (s *Store) Load(ctx context.Context) (model.Prefs, error) {
	if s == nil || s.db == nil {
		return model.Prefs{}, ErrClosed
	}
	var p profile
	err := s.db.WithContext(ctx).First(&p, profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Prefs{}, nil
	}
	if err != nil {
		return model.Prefs{}, fmt.Errorf("load prefs: %w", err)
	}
	return model.Prefs{Username: p.Username, Source: model.Source(p.Source), TutorialSeen: p.TutorialSeen}, nil
}

// SaveUser remembers the identity used for the next session.
func (s *Store) SaveUser(ctx context.Context, user model.UserContext) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return s.upsert(ctx, map[string]any{"username": user.Username, "source": string(user.Source)})
}

// MarkTutorialSeen records that the tutorial was dismissed.
func (s *Store) MarkTutorialSeen(ctx context.Context) error {
	return s.upsert(ctx, map[string]any{"tutorial_seen": true})
}

// Forget clears the remembered identity. The tutorial flag is kept.
func (s *Store) Forget(ctx context.Context) error {
	return s.upsert(ctx, map[string]any{"username": "", "source": ""})
}

func (s *Store) upsert(ctx context.Context, fields map[string]any) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := profile{ID: profileID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		if err := tx.Model(&profile{ID: profileID}).Updates(fields).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		s.log.Debug(ctx, "preferences saved", logger.Any("fields", fields))
		return nil
	})
}
