package models

import (
	"time"

	"gorm.io/datatypes"
)

// CachedResponse is a provider response persisted by the disk cache
type CachedResponse struct {
	Key       string         `gorm:"primaryKey;size:255" json:"key"`
	Body      datatypes.JSON `gorm:"not null" json:"body"`
	ExpiresAt time.Time      `gorm:"index" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (CachedResponse) TableName() string {
	return "cached_responses"
}

// IsExpired reports whether the entry is past its expiry at the given time
func (c *CachedResponse) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
