package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var roomRe = regexp.MustCompile(`^(\d+)(\d{2})([A-Za-z]?)$`)

// ParsedRoom holds the structured data parsed from a room number.
type ParsedRoom struct {
	Floor int
	Seq   int
	Wing  string
}

// ParseRoomNumber extracts floor, sequence, and wing suffix from a room
// number like "212", "501A" or "509U". The last two digits are the sequence
// on the floor; anything before them is the floor number.
func ParseRoomNumber(raw string) (ParsedRoom, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))

	m := roomRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room number: %q", raw)
	}

	floor, err := strconv.Atoi(m[1])
	if err != nil || floor == 0 {
		return ParsedRoom{}, fmt.Errorf("unable to parse floor from room number: %q", raw)
	}

	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse sequence from room number: %q", raw)
	}

	return ParsedRoom{Floor: floor, Seq: seq, Wing: m[3]}, nil
}
