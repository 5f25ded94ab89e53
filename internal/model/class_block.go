package model

import "time"

// Day patterns for recurring class blocks.
const (
	PatternMWF    = "MWF"
	PatternTT     = "TT"
	PatternDaily  = "Daily"
	PatternCustom = "Custom"
)

// ClassBlock is a weekly-recurring reservation window on a room. Blocks are
// never edited in place; admins delete and recreate them.
type ClassBlock struct {
	ID         int64  `gorm:"primaryKey"`
	RoomID     int64  `gorm:"index;not null"`
	ClassName  string `gorm:"size:128;not null"`
	DayPattern string `gorm:"size:16;not null"`
	// CustomDays holds comma-separated weekday names. Populated iff
	// DayPattern is Custom.
	CustomDays string    `gorm:"size:128"`
	StartTime  string    `gorm:"size:8;not null"` // HH:MM:SS, local to the reference timezone
	EndTime    string    `gorm:"size:8;not null"`
	CreatedAt  time.Time `gorm:"not null"`

	// Associations
	Room Room `gorm:"constraint:OnDelete:CASCADE"`
}
