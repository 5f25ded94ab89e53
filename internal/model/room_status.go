package model

import "time"

// Room status labels. Status is derived from the class schedule alone; it says
// nothing about how many people are inside.
const (
	StatusFree    = "free"
	StatusInClass = "in-class"
)

// RoomStatus holds the live occupancy count and derived status for a room
// (hot row, one per room). The count is only ever moved by accepted
// occupancy events, so replaying the event log reproduces it.
type RoomStatus struct {
	RoomID           int64     `gorm:"primaryKey"`
	CurrentOccupancy int       `gorm:"not null"`
	Status           string    `gorm:"size:16;not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}
