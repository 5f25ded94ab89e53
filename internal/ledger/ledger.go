package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"room-status-backend/config"
	"room-status-backend/internal/model"
	"room-status-backend/internal/notification"
	"room-status-backend/internal/schedule"
	"room-status-backend/internal/store"
)

// MaxStudentDelta caps a single student-reported delta. This is an
// anti-abuse bound, not a capacity fact; admins are exempt.
const MaxStudentDelta = 15

// applyAttempts bounds retries when the conditional occupancy update loses a
// race against a concurrent writer on the same room.
const applyAttempts = 3

// EventRequest is the caller-facing shape for recording an occupancy event.
// Delta is a pointer so a missing field is distinguishable from zero; both
// are rejected.
type EventRequest struct {
	RoomID   int64
	Delta    *int
	Source   string
	EventKey string
}

// Service is the occupancy ledger. It validates and applies occupancy
// events, derives room status from the class schedule, and runs the
// background status refresh. It is stateless apart from the store.
type Service struct {
	cfg        *config.Config
	store      store.Store
	eval       *schedule.Evaluator
	workerPool *notification.WorkerPool
	now        func() time.Time
}

// NewService creates and initializes the ledger service. The worker pool may
// be nil when push notifications are not configured.
func NewService(cfg *config.Config, st store.Store, pool *notification.WorkerPool) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	return &Service{
		cfg:        cfg,
		store:      st,
		eval:       schedule.NewEvaluator(loc),
		workerPool: pool,
		now:        time.Now,
	}, nil
}

// Evaluator exposes the schedule evaluator for handlers that need it.
func (s *Service) Evaluator() *schedule.Evaluator {
	return s.eval
}

// RecordEvent validates and applies one occupancy event, then returns the
// room's refreshed view. Validation fails fast and leaves no partial state:
// shape first, then the student policy cap, then the schedule conflict, then
// capacity — each later check costs more than the one before it.
func (s *Service) RecordEvent(ctx context.Context, req EventRequest) (store.RoomView, error) {
	if req.Delta == nil || *req.Delta == 0 {
		return store.RoomView{}, invalidInput("delta_count must be a nonzero integer")
	}
	delta := *req.Delta

	if req.Source != model.SourceStudent && req.Source != model.SourceAdmin {
		return store.RoomView{}, invalidInput(`source must be "student" or "admin"`)
	}

	if req.Source == model.SourceStudent && (delta > MaxStudentDelta || delta < -MaxStudentDelta) {
		return store.RoomView{}, limitExceeded(fmt.Sprintf("student deltas are limited to ±%d per event", MaxStudentDelta))
	}

	now := s.now()

	blocks, err := s.store.BlocksForRoom(ctx, req.RoomID)
	if err != nil {
		return store.RoomView{}, storeUnavailable("failed to load class schedule", err)
	}
	eval := s.eval.Evaluate(blocks, now)

	// Admin events bypass the conflict check: admins correct state during
	// and around class time.
	if req.Source == model.SourceStudent && eval.InProgress {
		return store.RoomView{}, conflict("room unavailable while class is in session")
	}

	room, err := s.store.GetRoom(ctx, req.RoomID)
	if errors.Is(err, store.ErrNotFound) {
		return store.RoomView{}, notFound(fmt.Sprintf("room %d does not exist", req.RoomID))
	}
	if err != nil {
		return store.RoomView{}, storeUnavailable("failed to load room", err)
	}

	if req.EventKey != "" {
		prior, err := s.store.EventByKey(ctx, req.EventKey)
		if err != nil {
			return store.RoomView{}, storeUnavailable("failed to check event key", err)
		}
		if prior != nil {
			if prior.RoomID != req.RoomID {
				return store.RoomView{}, invalidInput("event_key was already used for a different room")
			}
			// Already applied; a retried request must not double-count.
			st, err := s.store.RoomState(ctx, req.RoomID, now)
			if err != nil {
				return store.RoomView{}, storeUnavailable("failed to load room status", err)
			}
			return s.buildView(room, st, eval), nil
		}
	}

	status := statusLabel(eval)
	ev := model.OccupancyEvent{
		RoomID:     req.RoomID,
		DeltaCount: delta,
		Source:     req.Source,
		RecordedAt: now,
	}
	if req.EventKey != "" {
		key := req.EventKey
		ev.EventKey = &key
	}

	for attempt := 0; attempt < applyAttempts; attempt++ {
		st, err := s.store.RoomState(ctx, req.RoomID, now)
		if err != nil {
			return store.RoomView{}, storeUnavailable("failed to load room status", err)
		}

		newOccupancy := st.CurrentOccupancy + delta
		if newOccupancy < 0 {
			return store.RoomView{}, invalidInput(fmt.Sprintf("occupancy cannot drop below zero (currently %d)", st.CurrentOccupancy))
		}
		if newOccupancy > room.Capacity {
			return store.RoomView{}, limitExceeded(fmt.Sprintf("room capacity is %d (currently %d occupied)", room.Capacity, st.CurrentOccupancy))
		}

		applied, err := s.store.ApplyEvent(ctx, ev, room.Capacity, status)
		if errors.Is(err, store.ErrOccupancyOutOfRange) {
			// A concurrent writer moved the count between our read and the
			// guarded update. Re-read and re-classify.
			continue
		}
		if err != nil {
			return store.RoomView{}, storeUnavailable("failed to apply occupancy event", err)
		}
		return s.buildView(room, applied, eval), nil
	}

	return store.RoomView{}, storeUnavailable("room is under concurrent update contention", nil)
}

// RoomView returns the current view of a single room without mutating
// anything.
func (s *Service) RoomView(ctx context.Context, roomID int64) (store.RoomView, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return store.RoomView{}, notFound(fmt.Sprintf("room %d does not exist", roomID))
	}
	if err != nil {
		return store.RoomView{}, storeUnavailable("failed to load room", err)
	}

	now := s.now()
	blocks, err := s.store.BlocksForRoom(ctx, roomID)
	if err != nil {
		return store.RoomView{}, storeUnavailable("failed to load class schedule", err)
	}
	st, err := s.store.RoomState(ctx, roomID, now)
	if err != nil {
		return store.RoomView{}, storeUnavailable("failed to load room status", err)
	}

	return s.buildView(room, st, s.eval.Evaluate(blocks, now)), nil
}

// RefreshAllStatuses re-derives the status label for every room and persists
// the ones that changed. It never touches occupancy counts, so running it
// twice in a row yields the same labels. Returns the number of rooms updated
// and the ids of rooms that flipped from in-class to free.
func (s *Service) RefreshAllStatuses(ctx context.Context) (int, []int64, error) {
	now := s.now()

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return 0, nil, storeUnavailable("failed to list rooms", err)
	}
	blocksByRoom, err := s.store.BlocksByRoom(ctx)
	if err != nil {
		return 0, nil, storeUnavailable("failed to load class schedules", err)
	}

	updated := 0
	var freed []int64
	for _, room := range rooms {
		label := statusLabel(s.eval.Evaluate(blocksByRoom[room.ID], now))
		prev, changed, err := s.store.SetStatus(ctx, room.ID, label, now)
		if err != nil {
			return updated, freed, storeUnavailable(fmt.Sprintf("failed to refresh status for room %d", room.ID), err)
		}
		if changed {
			updated++
		}
		if prev == model.StatusInClass && label == model.StatusFree {
			freed = append(freed, room.ID)
		}
	}
	return updated, freed, nil
}

// ListAvailability partitions all rooms into in-progress and free. The
// partition is evaluated live against the schedule, so it never lags the
// stored labels.
func (s *Service) ListAvailability(ctx context.Context) (store.Availability, error) {
	now := s.now()

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return store.Availability{}, storeUnavailable("failed to list rooms", err)
	}
	blocksByRoom, err := s.store.BlocksByRoom(ctx)
	if err != nil {
		return store.Availability{}, storeUnavailable("failed to load class schedules", err)
	}
	statuses, err := s.store.StatusesByRoom(ctx)
	if err != nil {
		return store.Availability{}, storeUnavailable("failed to load room statuses", err)
	}

	out := store.Availability{InProgress: []store.RoomView{}, Free: []store.RoomView{}}
	for _, room := range rooms {
		st, ok := statuses[room.ID]
		if !ok {
			st = model.RoomStatus{RoomID: room.ID, Status: model.StatusFree, UpdatedAt: now}
		}
		eval := s.eval.Evaluate(blocksByRoom[room.ID], now)

		view := s.buildView(room, st, eval)
		switch {
		case eval.InProgress:
			out.InProgress = append(out.InProgress, view)
		case view.AvailableSeats > 0:
			out.Free = append(out.Free, view)
			// A fully booked room with no class lands in neither list.
		}
	}
	return out, nil
}

// CreateBlock validates and stores a new recurring class block. Overlapping
// blocks on the same room are rejected rather than tie-broken later.
func (s *Service) CreateBlock(ctx context.Context, block *model.ClassBlock) error {
	if block.ClassName == "" {
		return invalidInput("class_name is required")
	}

	switch block.DayPattern {
	case model.PatternMWF, model.PatternTT, model.PatternDaily:
		if block.CustomDays != "" {
			return invalidInput("custom_days is only valid with the Custom day pattern")
		}
	case model.PatternCustom:
		if block.CustomDays == "" {
			return invalidInput("custom_days is required with the Custom day pattern")
		}
	default:
		return invalidInput(fmt.Sprintf("unknown day_pattern %q", block.DayPattern))
	}

	if err := schedule.ValidateTimeOfDay(block.StartTime); err != nil {
		return invalidInput("start_time must be a HH:MM:SS clock time")
	}
	if err := schedule.ValidateTimeOfDay(block.EndTime); err != nil {
		return invalidInput("end_time must be a HH:MM:SS clock time")
	}
	if schedule.CompareTimesOfDay(block.StartTime, block.EndTime) >= 0 {
		return invalidInput("start_time must be before end_time")
	}

	existing, err := s.store.BlocksForRoom(ctx, block.RoomID)
	if err != nil {
		return storeUnavailable("failed to load class schedule", err)
	}
	for i := range existing {
		if blocksOverlap(block, &existing[i]) {
			return conflict(fmt.Sprintf("overlaps existing class %q", existing[i].ClassName))
		}
	}

	err = s.store.CreateBlock(ctx, block)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(fmt.Sprintf("room %d does not exist", block.RoomID))
	}
	if err != nil {
		return storeUnavailable("failed to create class block", err)
	}
	return nil
}

// DeleteBlock removes a class block by id.
func (s *Service) DeleteBlock(ctx context.Context, blockID int64) error {
	err := s.store.DeleteBlock(ctx, blockID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(fmt.Sprintf("class block %d does not exist", blockID))
	}
	if err != nil {
		return storeUnavailable("failed to delete class block", err)
	}
	return nil
}

// Run starts the notification workers and, when enabled, the periodic status
// refresh loop. Blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if s.workerPool != nil {
		s.workerPool.Start(ctx)
	}

	if !s.cfg.Schedule.RefreshEnabled {
		log.Println("Status refresh loop is disabled. Not starting.")
		return
	}
	log.Println("Starting status refresh loop...")

	s.RefreshOnce(ctx)

	timer := time.NewTimer(s.cfg.Schedule.RefreshInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Status refresh loop shutting down.")
			return
		case <-timer.C:
			s.RefreshOnce(ctx)
			timer.Reset(s.cfg.Schedule.RefreshInterval)
		}
	}
}

// Refresh runs one refresh cycle and dispatches notifications for rooms
// that just became free. Returns the number of rooms whose status changed.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	updated, freed, err := s.RefreshAllStatuses(ctx)
	if err != nil {
		return updated, err
	}

	if s.workerPool != nil && len(freed) > 0 {
		log.Printf("Dispatching notifications for %d rooms", len(freed))
		for _, roomID := range freed {
			s.workerPool.Dispatch(roomID)
		}
	}
	return updated, nil
}

// RefreshOnce performs a single refresh cycle, logging instead of returning
// errors; used by the background loop.
func (s *Service) RefreshOnce(ctx context.Context) {
	updated, err := s.Refresh(ctx)
	if err != nil {
		log.Printf("Error refreshing room statuses: %v", err)
		return
	}
	if updated > 0 {
		log.Printf("Refreshed status for %d rooms", updated)
	}
}

func (s *Service) buildView(room model.Room, st model.RoomStatus, eval schedule.Evaluation) store.RoomView {
	view := store.RoomView{
		RoomID:           room.ID,
		RoomName:         room.Name,
		Building:         room.BuildingCode,
		Capacity:         room.Capacity,
		CurrentOccupancy: st.CurrentOccupancy,
		AvailableSeats:   room.Capacity - st.CurrentOccupancy,
		Status:           statusLabel(eval),
		UpdatedAt:        st.UpdatedAt,
	}
	if eval.InProgress {
		view.ClassName = eval.Block.ClassName
		endsAt := eval.EndsAt
		view.ClassEndsAt = &endsAt
	}
	return view
}

func statusLabel(eval schedule.Evaluation) string {
	if eval.InProgress {
		return model.StatusInClass
	}
	return model.StatusFree
}

// blocksOverlap reports whether two blocks share a weekday and intersect in
// time. Window ends are inclusive, so back-to-back blocks sharing a boundary
// minute also collide.
func blocksOverlap(a, b *model.ClassBlock) bool {
	daysA := schedule.WeekdaySet(a)
	shared := false
	for wd := range schedule.WeekdaySet(b) {
		if daysA[wd] {
			shared = true
			break
		}
	}
	if !shared {
		return false
	}

	return schedule.CompareTimesOfDay(a.StartTime, b.EndTime) <= 0 &&
		schedule.CompareTimesOfDay(b.StartTime, a.EndTime) <= 0
}
