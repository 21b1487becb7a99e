package model

import "time"

// ClickEvent represents a recorded human click on a short link.
// Bot traffic never produces one.
type ClickEvent struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	LinkCode   string    `json:"link_code" gorm:"size:32;index;not null"`
	UserAgent  string    `json:"user_agent" gorm:"type:text"`
	Browser    string    `json:"browser" gorm:"size:64"`
	OS         string    `json:"os" gorm:"size:64"`
	DeviceType string    `json:"device_type" gorm:"size:16"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-logger"
	ClickConsumerGroup  = "click-loggers"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
