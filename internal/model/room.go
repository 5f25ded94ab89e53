package model

import "time"

// Room represents a bookable room. Capacity is fixed at creation; live
// headcount lives in RoomStatus.
type Room struct {
	ID           int64  `gorm:"primaryKey"`
	BuildingCode string `gorm:"size:16;not null;uniqueIndex:uniq_room_per_building"`
	Name         string `gorm:"size:64;not null;uniqueIndex:uniq_room_per_building"`
	Capacity     int    `gorm:"not null"`
	Floor        int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Associations
	Building Building `gorm:"foreignKey:BuildingCode;references:Code;constraint:OnDelete:CASCADE"`
}
