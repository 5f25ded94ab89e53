package model

import "time"

// Building represents a campus building that contains rooms.
type Building struct {
	Code      string    `gorm:"primaryKey;size:16"`
	Name      string    `gorm:"size:128;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Rooms []Room `gorm:"foreignKey:BuildingCode;references:Code"`
}
