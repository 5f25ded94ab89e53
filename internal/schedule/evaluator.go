package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"room-status-backend/internal/model"
)

// Evaluation is the outcome of checking a room's blocks against an instant.
type Evaluation struct {
	InProgress bool
	Block      *model.ClassBlock
	EndsAt     time.Time
}

// Evaluator decides whether a recurring class block covers a given instant.
// It is stateless apart from the reference location and safe for concurrent
// use; it is called on every occupancy event and once per room per refresh.
type Evaluator struct {
	loc *time.Location
}

// NewEvaluator creates an evaluator pinned to the given reference location.
// Every instant it sees is converted into this location before any calendar
// decision is made, so callers may pass times in any zone.
func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{loc: loc}
}

// Location returns the evaluator's reference location.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// Evaluate reports whether any of the given blocks covers now. When several
// blocks cover the same instant the one with the earliest start time is
// reported; block creation rejects overlaps, so this only matters for rows
// that predate the rule.
func (e *Evaluator) Evaluate(blocks []model.ClassBlock, now time.Time) Evaluation {
	local := now.In(e.loc)

	var active *model.ClassBlock
	activeStart := 0
	for i := range blocks {
		b := &blocks[i]
		covers, start, err := e.covers(b, local)
		if err != nil || !covers {
			continue
		}
		if active == nil || start < activeStart {
			active = b
			activeStart = start
		}
	}

	if active == nil {
		return Evaluation{}
	}

	endSec, _ := secondsOfDay(active.EndTime)
	return Evaluation{
		InProgress: true,
		Block:      active,
		EndsAt:     atSecondOfDay(local, endSec),
	}
}

// covers reports whether the block is active at the (already localized)
// instant, and the block's start as seconds-of-day for tie-breaking.
func (e *Evaluator) covers(b *model.ClassBlock, local time.Time) (bool, int, error) {
	if !matchesDay(b, local.Weekday()) {
		return false, 0, nil
	}

	start, err := secondsOfDay(b.StartTime)
	if err != nil {
		return false, 0, err
	}
	end, err := secondsOfDay(b.EndTime)
	if err != nil {
		return false, 0, err
	}

	// Both window ends are inclusive.
	nowSec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return start <= nowSec && nowSec <= end, start, nil
}

func matchesDay(b *model.ClassBlock, wd time.Weekday) bool {
	switch b.DayPattern {
	case model.PatternDaily:
		return true
	case model.PatternMWF:
		return wd == time.Monday || wd == time.Wednesday || wd == time.Friday
	case model.PatternTT:
		return wd == time.Tuesday || wd == time.Thursday
	case model.PatternCustom:
		for _, day := range strings.Split(b.CustomDays, ",") {
			if strings.EqualFold(strings.TrimSpace(day), wd.String()) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// secondsOfDay parses a HH:MM or HH:MM:SS clock string.
func secondsOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day: %q", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}
	return h*3600 + m*60 + sec, nil
}

// ValidateTimeOfDay checks a clock string without evaluating it.
func ValidateTimeOfDay(s string) error {
	_, err := secondsOfDay(s)
	return err
}

// CompareTimesOfDay orders two clock strings. Both must already be validated.
func CompareTimesOfDay(a, b string) int {
	as, _ := secondsOfDay(a)
	bs, _ := secondsOfDay(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// WeekdaySet expands a block's day pattern into the set of weekdays it is
// active on. Used by block creation to detect overlapping schedules.
func WeekdaySet(b *model.ClassBlock) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if matchesDay(b, wd) {
			days[wd] = true
		}
	}
	return days
}

// NormalizeCustomDays canonicalizes a list of weekday names into the stored
// comma-separated form. Names must match full weekday names, case-insensitive.
func NormalizeCustomDays(days []string) (string, error) {
	if len(days) == 0 {
		return "", fmt.Errorf("custom_days must not be empty")
	}

	seen := make(map[time.Weekday]bool)
	var out []string
	for _, raw := range days {
		matched := false
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if strings.EqualFold(strings.TrimSpace(raw), wd.String()) {
				if !seen[wd] {
					seen[wd] = true
					out = append(out, wd.String())
				}
				matched = true
				break
			}
		}
		if !matched {
			return "", fmt.Errorf("invalid weekday name: %q", raw)
		}
	}
	return strings.Join(out, ","), nil
}

func atSecondOfDay(local time.Time, sec int) time.Time {
	y, mo, d := local.Date()
	return time.Date(y, mo, d, 0, 0, sec, 0, local.Location())
}
