package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"room-status-backend/internal/db"
	"room-status-backend/internal/model"
)

// newTestStore opens a fresh in-memory SQLite database, migrates it, and
// seeds one building with one room of the given capacity.
func newTestStore(t *testing.T, dsn string, capacity int) (Store, *gorm.DB) {
	t.Helper()

	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.Migrate(testDB))

	require.NoError(t, testDB.Create(&model.Building{Code: "LIB", Name: "Library"}).Error)
	require.NoError(t, testDB.Create(&model.Room{
		ID:           1,
		BuildingCode: "LIB",
		Name:         "201",
		Capacity:     capacity,
		Floor:        2,
	}).Error)

	return NewGormStore(testDB), testDB
}

func TestGormStore_ApplyEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	s, testDB := newTestStore(t, "file:store_apply?mode=memory&cache=shared", 10)

	// The status row must exist before events can be applied against it.
	st, err := s.RoomState(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 0, st.CurrentOccupancy)
	assert.Equal(t, model.StatusFree, st.Status)

	t.Run("Applies delta and appends event", func(t *testing.T) {
		st, err := s.ApplyEvent(ctx, model.OccupancyEvent{
			RoomID:     1,
			DeltaCount: 4,
			Source:     model.SourceStudent,
			RecordedAt: now,
		}, 10, model.StatusFree)
		require.NoError(t, err)
		assert.Equal(t, 4, st.CurrentOccupancy)

		var eventCount int64
		testDB.Model(&model.OccupancyEvent{}).Where("room_id = ?", 1).Count(&eventCount)
		assert.Equal(t, int64(1), eventCount)
	})

	t.Run("Rejects delta below zero without writing", func(t *testing.T) {
		_, err := s.ApplyEvent(ctx, model.OccupancyEvent{
			RoomID:     1,
			DeltaCount: -5,
			Source:     model.SourceStudent,
			RecordedAt: now,
		}, 10, model.StatusFree)
		assert.ErrorIs(t, err, ErrOccupancyOutOfRange)

		// Neither the count nor the event log moved.
		st, err := s.RoomState(ctx, 1, now)
		require.NoError(t, err)
		assert.Equal(t, 4, st.CurrentOccupancy)

		var eventCount int64
		testDB.Model(&model.OccupancyEvent{}).Where("room_id = ?", 1).Count(&eventCount)
		assert.Equal(t, int64(1), eventCount)
	})

	t.Run("Rejects delta above capacity", func(t *testing.T) {
		_, err := s.ApplyEvent(ctx, model.OccupancyEvent{
			RoomID:     1,
			DeltaCount: 7,
			Source:     model.SourceAdmin,
			RecordedAt: now,
		}, 10, model.StatusFree)
		assert.ErrorIs(t, err, ErrOccupancyOutOfRange)
	})

	t.Run("Accepts delta landing exactly on capacity", func(t *testing.T) {
		st, err := s.ApplyEvent(ctx, model.OccupancyEvent{
			RoomID:     1,
			DeltaCount: 6,
			Source:     model.SourceAdmin,
			RecordedAt: now,
		}, 10, model.StatusFree)
		require.NoError(t, err)
		assert.Equal(t, 10, st.CurrentOccupancy)
	})

	t.Run("Replaying the event log reproduces the count", func(t *testing.T) {
		var events []model.OccupancyEvent
		require.NoError(t, testDB.Order("id").Find(&events).Error)

		sum := 0
		for _, ev := range events {
			sum += ev.DeltaCount
		}

		st, err := s.RoomState(ctx, 1, now)
		require.NoError(t, err)
		assert.Equal(t, st.CurrentOccupancy, sum)
	})
}

func TestGormStore_EventByKey(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

	s, _ := newTestStore(t, "file:store_eventkey?mode=memory&cache=shared", 10)

	_, err := s.RoomState(ctx, 1, now)
	require.NoError(t, err)

	found, err := s.EventByKey(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, found)

	key := "ev-abc-123"
	_, err = s.ApplyEvent(ctx, model.OccupancyEvent{
		RoomID:     1,
		DeltaCount: 2,
		Source:     model.SourceStudent,
		EventKey:   &key,
		RecordedAt: now,
	}, 10, model.StatusFree)
	require.NoError(t, err)

	found, err = s.EventByKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.RoomID)
	assert.Equal(t, 2, found.DeltaCount)
}

func TestGormStore_SetStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s, _ := newTestStore(t, "file:store_setstatus?mode=memory&cache=shared", 10)

	t.Run("Creates missing status row", func(t *testing.T) {
		_, changed, err := s.SetStatus(ctx, 1, model.StatusInClass, now)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("Same label writes nothing", func(t *testing.T) {
		prev, changed, err := s.SetStatus(ctx, 1, model.StatusInClass, now)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, model.StatusInClass, prev)
	})

	t.Run("Label flip preserves occupancy", func(t *testing.T) {
		st, err := s.ApplyEvent(ctx, model.OccupancyEvent{
			RoomID:     1,
			DeltaCount: 3,
			Source:     model.SourceAdmin,
			RecordedAt: now,
		}, 10, model.StatusInClass)
		require.NoError(t, err)
		assert.Equal(t, 3, st.CurrentOccupancy)

		prev, changed, err := s.SetStatus(ctx, 1, model.StatusFree, now.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, model.StatusInClass, prev)

		st, err = s.RoomState(ctx, 1, now)
		require.NoError(t, err)
		assert.Equal(t, 3, st.CurrentOccupancy)
		assert.Equal(t, model.StatusFree, st.Status)
	})
}

func TestGormStore_Blocks(t *testing.T) {
	ctx := context.Background()

	s, testDB := newTestStore(t, "file:store_blocks?mode=memory&cache=shared", 10)
	require.NoError(t, testDB.Create(&model.Room{
		ID: 2, BuildingCode: "LIB", Name: "202", Capacity: 20, Floor: 2,
	}).Error)

	t.Run("CreateBlock rejects unknown room", func(t *testing.T) {
		err := s.CreateBlock(ctx, &model.ClassBlock{
			RoomID:     999,
			ClassName:  "Algorithms",
			DayPattern: model.PatternMWF,
			StartTime:  "09:00:00",
			EndTime:    "10:30:00",
		})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("BlocksByRoom groups by room", func(t *testing.T) {
		require.NoError(t, s.CreateBlock(ctx, &model.ClassBlock{
			RoomID: 1, ClassName: "Algorithms", DayPattern: model.PatternMWF,
			StartTime: "09:00:00", EndTime: "10:30:00",
		}))
		require.NoError(t, s.CreateBlock(ctx, &model.ClassBlock{
			RoomID: 1, ClassName: "Compilers", DayPattern: model.PatternTT,
			StartTime: "13:00:00", EndTime: "14:30:00",
		}))
		require.NoError(t, s.CreateBlock(ctx, &model.ClassBlock{
			RoomID: 2, ClassName: "Databases", DayPattern: model.PatternDaily,
			StartTime: "08:00:00", EndTime: "09:00:00",
		}))

		byRoom, err := s.BlocksByRoom(ctx)
		require.NoError(t, err)
		assert.Len(t, byRoom[1], 2)
		assert.Len(t, byRoom[2], 1)
	})

	t.Run("ListBlocks joins room metadata", func(t *testing.T) {
		views, err := s.ListBlocks(ctx)
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Equal(t, "201", views[0].RoomName)
		assert.Equal(t, "LIB", views[0].BuildingCode)
	})

	t.Run("DeleteBlock removes and reports missing", func(t *testing.T) {
		views, err := s.ListBlocks(ctx)
		require.NoError(t, err)

		require.NoError(t, s.DeleteBlock(ctx, views[0].ID))
		assert.True(t, errors.Is(s.DeleteBlock(ctx, views[0].ID), ErrNotFound))
	})
}
