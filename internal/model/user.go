package model

import "time"

// User is an account that can report occupancy events. Who may report what is
// asserted by the caller; the ledger only cares about the source tag.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"size:128;not null"`
	Email        string    `gorm:"size:256;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
