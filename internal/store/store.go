package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"room-status-backend/internal/model"
)

// Sentinel errors surfaced to the ledger so it never has to import gorm.
var (
	// ErrNotFound means a referenced room or block does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOccupancyOutOfRange means the conditional occupancy update matched
	// no row: the delta would push the count outside [0, capacity], or a
	// concurrent writer moved the count between read and write.
	ErrOccupancyOutOfRange = errors.New("occupancy out of range")
)

// Store defines the interface for all database operations the ledger and the
// API consume. Implementations must make ApplyEvent atomic per room.
type Store interface {
	DB() *gorm.DB

	GetRoom(ctx context.Context, roomID int64) (model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	ListBuildings(ctx context.Context) ([]model.Building, error)

	BlocksForRoom(ctx context.Context, roomID int64) ([]model.ClassBlock, error)
	BlocksByRoom(ctx context.Context) (map[int64][]model.ClassBlock, error)
	CreateBlock(ctx context.Context, block *model.ClassBlock) error
	DeleteBlock(ctx context.Context, blockID int64) error
	ListBlocks(ctx context.Context) ([]ClassView, error)

	RoomState(ctx context.Context, roomID int64, now time.Time) (model.RoomStatus, error)
	ApplyEvent(ctx context.Context, ev model.OccupancyEvent, capacity int, status string) (model.RoomStatus, error)
	EventByKey(ctx context.Context, key string) (*model.OccupancyEvent, error)
	SetStatus(ctx context.Context, roomID int64, status string, now time.Time) (prev string, changed bool, err error)
	StatusesByRoom(ctx context.Context) (map[int64]model.RoomStatus, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetRoom(ctx context.Context, roomID int64) (model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Preload("Building").First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Room{}, ErrNotFound
	}
	if err != nil {
		return model.Room{}, fmt.Errorf("failed to fetch room %d: %w", roomID, err)
	}
	return room, nil
}

func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Preload("Building").Order("building_code, name").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *gormStore) ListBuildings(ctx context.Context) ([]model.Building, error) {
	var buildings []model.Building
	if err := s.db.WithContext(ctx).Order("code").Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return buildings, nil
}

func (s *gormStore) BlocksForRoom(ctx context.Context, roomID int64) ([]model.ClassBlock, error) {
	var blocks []model.ClassBlock
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch class blocks for room %d: %w", roomID, err)
	}
	return blocks, nil
}

func (s *gormStore) BlocksByRoom(ctx context.Context) (map[int64][]model.ClassBlock, error) {
	var blocks []model.ClassBlock
	if err := s.db.WithContext(ctx).Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch class blocks: %w", err)
	}
	byRoom := make(map[int64][]model.ClassBlock, len(blocks))
	for _, b := range blocks {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}
	return byRoom, nil
}

func (s *gormStore) CreateBlock(ctx context.Context, block *model.ClassBlock) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", block.RoomID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check room %d: %w", block.RoomID, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	if err := s.db.WithContext(ctx).Create(block).Error; err != nil {
		return fmt.Errorf("failed to create class block: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteBlock(ctx context.Context, blockID int64) error {
	res := s.db.WithContext(ctx).Delete(&model.ClassBlock{}, blockID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete class block %d: %w", blockID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) ListBlocks(ctx context.Context) ([]ClassView, error) {
	var views []ClassView
	err := s.db.WithContext(ctx).
		Model(&model.ClassBlock{}).
		Select("class_blocks.id, class_blocks.room_id, class_blocks.class_name, class_blocks.day_pattern, " +
			"class_blocks.custom_days, class_blocks.start_time, class_blocks.end_time, " +
			"rooms.name AS room_name, rooms.building_code AS building_code").
		Joins("JOIN rooms ON rooms.id = class_blocks.room_id").
		Order("class_blocks.id").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list class blocks: %w", err)
	}
	return views, nil
}

// RoomState returns the room's status row, creating a zeroed one if the room
// has never been written to. Status rows are upserted, never required to
// pre-exist.
func (s *gormStore) RoomState(ctx context.Context, roomID int64, now time.Time) (model.RoomStatus, error) {
	st := model.RoomStatus{RoomID: roomID}
	err := s.db.WithContext(ctx).
		Where(model.RoomStatus{RoomID: roomID}).
		Attrs(model.RoomStatus{CurrentOccupancy: 0, Status: model.StatusFree, UpdatedAt: now}).
		FirstOrCreate(&st).Error
	if err != nil {
		return model.RoomStatus{}, fmt.Errorf("failed to fetch status for room %d: %w", roomID, err)
	}
	return st, nil
}

// ApplyEvent moves the room's occupancy by the event's delta and appends the
// event, in one transaction. The count read, the bounds check, and the write
// collapse into a single conditional UPDATE, so two concurrent events on the
// same room can never both pass the capacity check on a stale read. Returns
// ErrOccupancyOutOfRange when the guarded update matched no row.
func (s *gormStore) ApplyEvent(ctx context.Context, ev model.OccupancyEvent, capacity int, status string) (model.RoomStatus, error) {
	var st model.RoomStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.RoomStatus{}).
			Where("room_id = ? AND current_occupancy + ? >= 0 AND current_occupancy + ? <= ?",
				ev.RoomID, ev.DeltaCount, ev.DeltaCount, capacity).
			Updates(map[string]any{
				"current_occupancy": gorm.Expr("current_occupancy + ?", ev.DeltaCount),
				"status":            status,
				"updated_at":        ev.RecordedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update occupancy for room %d: %w", ev.RoomID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrOccupancyOutOfRange
		}

		if err := tx.Create(&ev).Error; err != nil {
			return fmt.Errorf("failed to append occupancy event for room %d: %w", ev.RoomID, err)
		}

		if err := tx.First(&st, "room_id = ?", ev.RoomID).Error; err != nil {
			return fmt.Errorf("failed to read back status for room %d: %w", ev.RoomID, err)
		}
		return nil
	})
	if err != nil {
		return model.RoomStatus{}, err
	}
	return st, nil
}

func (s *gormStore) EventByKey(ctx context.Context, key string) (*model.OccupancyEvent, error) {
	var ev model.OccupancyEvent
	err := s.db.WithContext(ctx).Where("event_key = ?", key).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up event key %q: %w", key, err)
	}
	return &ev, nil
}

// SetStatus upserts the derived status label without touching the occupancy
// count. It reports the previous label and whether anything was written.
func (s *gormStore) SetStatus(ctx context.Context, roomID int64, status string, now time.Time) (string, bool, error) {
	var prev string
	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st model.RoomStatus
		err := tx.First(&st, "room_id = ?", roomID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			st = model.RoomStatus{RoomID: roomID, CurrentOccupancy: 0, Status: status, UpdatedAt: now}
			if err := tx.Create(&st).Error; err != nil {
				return fmt.Errorf("failed to create status row for room %d: %w", roomID, err)
			}
			changed = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read status for room %d: %w", roomID, err)
		}

		prev = st.Status
		if st.Status == status {
			return nil
		}
		if err := tx.Model(&model.RoomStatus{}).
			Where("room_id = ?", roomID).
			Updates(map[string]any{"status": status, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to update status for room %d: %w", roomID, err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return prev, changed, nil
}

func (s *gormStore) StatusesByRoom(ctx context.Context) (map[int64]model.RoomStatus, error) {
	var statuses []model.RoomStatus
	if err := s.db.WithContext(ctx).Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch room statuses: %w", err)
	}
	byRoom := make(map[int64]model.RoomStatus, len(statuses))
	for _, st := range statuses {
		byRoom[st.RoomID] = st
	}
	return byRoom, nil
}
