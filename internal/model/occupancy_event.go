package model

import "time"

// Occupancy event sources.
const (
	SourceStudent = "student"
	SourceAdmin   = "admin"
)

// OccupancyEvent is one signed adjustment to a room's headcount (cold table,
// append-only). Events are never deleted or amended; corrections are new
// compensating events.
type OccupancyEvent struct {
	ID         int64  `gorm:"autoIncrement;primaryKey"`
	RoomID     int64  `gorm:"index;not null"`
	DeltaCount int    `gorm:"not null"`
	Source     string `gorm:"size:16;not null"`
	// EventKey is an optional caller-supplied idempotency key. NULL when the
	// caller did not ask for retry safety; unique otherwise.
	EventKey   *string   `gorm:"size:128;uniqueIndex"`
	RecordedAt time.Time `gorm:"not null;index"`
}
