package domain

import "time"

// UserLink is the persisted record for one requester: the optional Instagram
// account mapping plus bookkeeping. Download history hangs off it as
// DownloadRecord rows.
type UserLink struct {
	RequesterID int64  `json:"requester_id" gorm:"primaryKey;autoIncrement:false"`
	InstagramID string `json:"instagram_id,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// DownloadRecord is one past source URL for a requester.
type DownloadRecord struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	RequesterID int64     `json:"requester_id" gorm:"index;not null"`
	URL         string    `json:"url" gorm:"not null"`
	Platform    Platform  `json:"platform"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// UserLinkRepository persists user links and download history. The core
// treats it as a last-write-wins key-value store; no transactional
// guarantees are required.
type UserLinkRepository interface {
	// EnsureUser creates the requester record if it does not exist
	EnsureUser(requesterID int64) (*UserLink, error)

	// FindByRequester returns the link record, or nil when absent
	FindByRequester(requesterID int64) (*UserLink, error)

	// FindByInstagram returns the link record for an Instagram account id,
	// or nil when no requester has linked it
	FindByInstagram(instagramID string) (*UserLink, error)

	// UpsertLink sets the Instagram account for a requester (last write wins)
	UpsertLink(requesterID int64, instagramID string) error

	// AppendDownloadRecord appends a source URL to the requester's history
	AppendDownloadRecord(requesterID int64, url string, platform Platform) error

	// RecentDownloads lists the newest download records across all users
	RecentDownloads(limit int) ([]*DownloadRecord, error)

	// Stats returns aggregate counters
	Stats() (*RelayStats, error)
}

// RelayStats are the aggregate counters exposed over the HTTP API.
type RelayStats struct {
	Users     int64 `json:"users"`
	Linked    int64 `json:"linked"`
	Downloads int64 `json:"downloads"`
}
