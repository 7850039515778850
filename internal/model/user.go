package model

import "time"

// User stores Telegram user metadata and activity timestamps.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	Username   string
	CreatedAt  time.Time `gorm:"index"`
	LastActive time.Time `gorm:"index"`
}
