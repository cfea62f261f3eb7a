// Package schedule maps batches of posts onto named time-of-day slots.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSlots is the publication grid used when config does not override it.
var DefaultSlots = []string{"09:00", "12:00", "15:00", "18:00", "21:00"}

// Slot is a parsed "HH:MM" time of day.
type Slot struct {
	Hour   int
	Minute int
}

// ParseSlot parses a single "HH:MM" value.
func ParseSlot(value string) (Slot, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return Slot{}, fmt.Errorf("slot %q: want HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return Slot{}, fmt.Errorf("slot %q: %w", value, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return Slot{}, fmt.Errorf("slot %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Slot{}, fmt.Errorf("slot %q: out of range", value)
	}
	return Slot{Hour: hour, Minute: minute}, nil
}

// ParseSlots parses an ordered slot list, rejecting empty input.
func ParseSlots(values []string) ([]Slot, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no slots configured")
	}
	slots := make([]Slot, 0, len(values))
	for _, v := range values {
		slot, err := ParseSlot(v)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// At resolves the slot to a concrete timestamp on the given day.
func (s Slot) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
}

// Assign maps count posts onto the slot grid positionally, starting from
// "today" relative to now. A slot that already passed rolls to the next day;
// when posts outnumber slots the assignment keeps cycling through the grid on
// subsequent days, so no post is dropped and none is ever placed in the past.
func Assign(count int, slots []Slot, now time.Time) []time.Time {
	if count <= 0 || len(slots) == 0 {
		return nil
	}

	assigned := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		slot := slots[i%len(slots)]
		cycle := i / len(slots)

		// Each slot has its own base day: today, or tomorrow when the slot
		// time already passed. Later cycles add whole days on top, so two
		// posts can never share a timestamp.
		at := slot.At(now)
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		assigned = append(assigned, at.AddDate(0, 0, cycle))
	}
	return assigned
}
