package db

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"room-status-backend/internal/model"
	"room-status-backend/internal/parse"
)

// Library floor catalog. Small study rooms seat 20, the large ones 40.
var libraryFloors = map[string][]string{
	"2": {"201", "202", "203", "204", "205", "206", "207", "208", "209", "210", "211", "212"},
	"3": {"301", "302", "303", "304", "305", "306", "307", "308", "309", "310", "311", "312", "314"},
	"4": {"401", "402", "403", "404", "405", "406", "407", "408", "409", "410", "411"},
	"5": {"501A", "501B", "502", "503", "504", "505", "506", "507", "508", "509", "509U"},
	"6": {"601", "602", "603", "604", "605", "606", "607", "608", "609", "611"},
}

var largeRooms = map[string]bool{
	"212": true,
	"301": true, "303": true, "306": true, "309": true, "312": true, "314": true,
	"401": true, "403": true, "406": true, "409": true,
	"502": true, "505": true, "506": true, "508": true, "509": true,
	"604": true, "608": true, "611": true,
}

const (
	smallCapacity = 20
	largeCapacity = 40
)

// Seed populates the building and room catalog on first startup. It is a
// no-op when rooms already exist, so restarting is safe.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Room{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count rooms: %w", err)
	}
	if count > 0 {
		return nil
	}

	building := model.Building{Code: "LIB", Name: "Main Library"}
	if err := db.Create(&building).Error; err != nil {
		return fmt.Errorf("failed to seed building: %w", err)
	}

	var seeded int
	for _, names := range libraryFloors {
		for _, name := range names {
			parsed, err := parse.ParseRoomNumber(name)
			if err != nil {
				log.Printf("Skipping unparsable room number %q: %v", name, err)
				continue
			}

			capacity := smallCapacity
			if largeRooms[name] {
				capacity = largeCapacity
			}

			room := model.Room{
				BuildingCode: building.Code,
				Name:         name,
				Capacity:     capacity,
				Floor:        parsed.Floor,
			}
			if err := db.Create(&room).Error; err != nil {
				return fmt.Errorf("failed to seed room %q: %w", name, err)
			}

			status := model.RoomStatus{
				RoomID:           room.ID,
				CurrentOccupancy: 0,
				Status:           model.StatusFree,
				UpdatedAt:        room.CreatedAt,
			}
			if err := db.Create(&status).Error; err != nil {
				return fmt.Errorf("failed to seed status for room %q: %w", name, err)
			}
			seeded++
		}
	}

	log.Printf("Seeded %d library rooms", seeded)
	return nil
}
