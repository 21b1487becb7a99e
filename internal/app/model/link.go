package model

import "time"

// Link describes the core short-link entity stored in Postgres.
type Link struct {
	ShortCode           string     `db:"short_code" gorm:"primaryKey;size:32"`
	OriginalURL         string     `db:"original_url" gorm:"type:text;not null"`
	Title               string     `db:"title" gorm:"size:255"`
	IsCustomAlias       bool       `db:"is_custom_alias" gorm:"not null;default:false"`
	IsActive            bool       `db:"is_active" gorm:"not null;default:true"`
	IsPasswordProtected bool       `db:"is_password_protected" gorm:"not null;default:false"`
	PasswordHash        string     `db:"password_hash" gorm:"size:72"`
	ExpiresAt           *time.Time `db:"expires_at" gorm:"index"`
	IsOneTime           bool       `db:"is_one_time" gorm:"not null;default:false"`
	HasBeenUsed         bool       `db:"has_been_used" gorm:"not null;default:false"`
	ClickCount          int64      `db:"click_count" gorm:"not null;default:0"`
	CreatedAt           time.Time  `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time  `db:"updated_at" gorm:"autoUpdateTime"`
}

// Expired reports whether the link's expiry, if any, is in the past.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
