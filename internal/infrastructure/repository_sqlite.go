package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// SQLiteUserLinkRepository implements UserLinkRepository backed by a local
// SQLite database.
type SQLiteUserLinkRepository struct {
	db *gorm.DB
}

// NewSQLiteUserLinkRepository opens the database, creating the parent
// directory and migrating the schema.
func NewSQLiteUserLinkRepository(dbPath string) (*SQLiteUserLinkRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.UserLink{}, &domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteUserLinkRepository{db: db}, nil
}

// EnsureUser creates the requester row if missing and returns it.
func (r *SQLiteUserLinkRepository) EnsureUser(requesterID int64) (*domain.UserLink, error) {
	link := &domain.UserLink{RequesterID: requesterID}
	if err := r.db.FirstOrCreate(link, "requester_id = ?", requesterID).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure user %d: %w", requesterID, err)
	}
	return link, nil
}

func (r *SQLiteUserLinkRepository) FindByRequester(requesterID int64) (*domain.UserLink, error) {
	var link domain.UserLink
	err := r.db.First(&link, "requester_id = ?", requesterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SQLiteUserLinkRepository) FindByInstagram(instagramID string) (*domain.UserLink, error) {
	if instagramID == "" {
		return nil, nil
	}
	var link domain.UserLink
	err := r.db.First(&link, "instagram_id = ?", instagramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// UpsertLink sets the Instagram account for a requester. Last write wins:
// the same Instagram account moving to a new requester simply overwrites.
func (r *SQLiteUserLinkRepository) UpsertLink(requesterID int64, instagramID string) error {
	result := r.db.Model(&domain.UserLink{}).
		Where("requester_id = ?", requesterID).
		Update("instagram_id", instagramID)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert link for %d: %w", requesterID, result.Error)
	}
	if result.RowsAffected == 0 {
		link := &domain.UserLink{RequesterID: requesterID, InstagramID: instagramID}
		if err := r.db.Create(link).Error; err != nil {
			return fmt.Errorf("failed to create link for %d: %w", requesterID, err)
		}
	}
	return nil
}

func (r *SQLiteUserLinkRepository) AppendDownloadRecord(requesterID int64, url string, platform domain.Platform) error {
	record := &domain.DownloadRecord{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		URL:         url,
		Platform:    platform,
	}
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to append download record: %w", err)
	}
	return nil
}

func (r *SQLiteUserLinkRepository) RecentDownloads(limit int) ([]*domain.DownloadRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*domain.DownloadRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *SQLiteUserLinkRepository) Stats() (*domain.RelayStats, error) {
	stats := &domain.RelayStats{}
	if err := r.db.Model(&domain.UserLink{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.UserLink{}).Where("instagram_id <> ''").Count(&stats.Linked).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.DownloadRecord{}).Count(&stats.Downloads).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// Close releases the underlying connection.
func (r *SQLiteUserLinkRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
