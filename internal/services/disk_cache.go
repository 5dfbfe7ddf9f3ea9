package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stitts-dev/richard-sim/internal/models"
)

// DiskCache keeps provider responses in the application database so repeated runs
// do not refetch finished seasons
type DiskCache struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDiskCache(db *gorm.DB) *DiskCache {
	return &DiskCache{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (c *DiskCache) Get(ctx context.Context, key string, dest interface{}) error {
	var entry models.CachedResponse
	err := c.db.WithContext(ctx).Where(&models.CachedResponse{Key: key}).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if entry.IsExpired(c.now()) {
		c.db.WithContext(ctx).Delete(&entry)
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.Body, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// Set upserts key. A zero expiration keeps the entry until cleared.
func (c *DiskCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	entry := models.CachedResponse{
		Key:  key,
		Body: data,
	}
	if expiration > 0 {
		entry.ExpiresAt = c.now().Add(expiration)
	}

	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Clear deletes every entry whose key starts with prefix
func (c *DiskCache) Clear(ctx context.Context, prefix string) (int64, error) {
	result := c.db.WithContext(ctx).
		Where(clause.Like{Column: clause.Column{Name: "key"}, Value: prefix + "%"}).
		Delete(&models.CachedResponse{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteExpired removes entries past their expiry
func (c *DiskCache) DeleteExpired(ctx context.Context) (int64, error) {
	result := c.db.WithContext(ctx).
		Where("expires_at > ? AND expires_at < ?", time.Time{}, c.now()).
		Delete(&models.CachedResponse{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}
