package store

import "time"

// RoomView is the full caller-facing picture of a room: catalog fields, live
// occupancy, derived status, and the active class when one is in session.
type RoomView struct {
	RoomID           int64      `json:"room_id"`
	RoomName         string     `json:"room_name"`
	Building         string     `json:"building"`
	Capacity         int        `json:"capacity"`
	CurrentOccupancy int        `json:"current_occupancy"`
	AvailableSeats   int        `json:"available_seats"`
	Status           string     `json:"status"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ClassName        string     `json:"class_name,omitempty"`
	ClassEndsAt      *time.Time `json:"class_ends_at,omitempty"`
}

// Availability partitions rooms for the listing endpoint. A room with an
// active class is inProgress regardless of headcount; free requires at least
// one open seat. Fully booked rooms without a class appear in neither list.
type Availability struct {
	InProgress []RoomView `json:"inProgress"`
	Free       []RoomView `json:"free"`
}

// ClassView is a schedule entry joined with its room for listing.
type ClassView struct {
	ID           int64  `json:"id"`
	RoomID       int64  `json:"room_id"`
	RoomName     string `json:"room_name"`
	BuildingCode string `json:"building_code"`
	ClassName    string `json:"class_name"`
	DayPattern   string `json:"day_pattern"`
	CustomDays   string `json:"custom_days,omitempty"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}
