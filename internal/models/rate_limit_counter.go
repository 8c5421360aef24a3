package models

import "time"

// RateLimitCounter counts actions of one user inside a fixed window.
type RateLimitCounter struct {
	Action      string    `gorm:"type:varchar(50);primarykey" json:"action"`
	UserID      uint64    `gorm:"primarykey" json:"user_id"`
	WindowStart time.Time `gorm:"primarykey" json:"window_start"`
	Count       int       `gorm:"not null;default:0" json:"count"`
}
