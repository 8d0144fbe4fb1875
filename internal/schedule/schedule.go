// Package schedule computes the bookable time points of a working day.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidClock = errors.New("time must be in HH:MM format")

// Slot is one bookable time of day. Only Time24 is used for comparisons.
type Slot struct {
	Time24 string `json:"time24" example:"03:00"`
	Time12 string `json:"time12" example:"3:00 AM"`
}

// Config describes the shop's operating window. MaxSlots caps the number of
// generated slots independently of CloseHour; zero disables the cap.
type Config struct {
	OpenHour        int
	CloseHour       int
	IntervalMinutes int
	MaxSlots        int
}

func DefaultConfig() Config {
	return Config{
		OpenHour:        2,
		CloseHour:       14,
		IntervalMinutes: 45,
		MaxSlots:        15,
	}
}

// Generate returns slots starting at startHour:00, stepping by intervalMinutes
// and stopping strictly before endHour:00 or once maxSlots have been produced.
func Generate(startHour, endHour, intervalMinutes, maxSlots int) []Slot {
	if intervalMinutes <= 0 || endHour <= startHour {
		return []Slot{}
	}

	slots := make([]Slot, 0, (endHour-startHour)*60/intervalMinutes+1)
	end := endHour * 60
	for m := startHour * 60; m < end; m += intervalMinutes {
		if maxSlots > 0 && len(slots) >= maxSlots {
			break
		}
		slots = append(slots, fromMinutes(m))
	}
	return slots
}

func (c Config) Slots() []Slot {
	return Generate(c.OpenHour, c.CloseHour, c.IntervalMinutes, c.MaxSlots)
}

// Within reports whether clock falls in [OpenHour:00, CloseHour:00).
func (c Config) Within(clock string) (bool, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return false, err
	}
	return m >= c.OpenHour*60 && m < c.CloseHour*60, nil
}

// WindowLabel renders the operating window for user-facing messages,
// e.g. "2:00 AM to 2:00 PM".
func (c Config) WindowLabel() string {
	return fmt.Sprintf("%s to %s", to12(c.OpenHour*60), to12(c.CloseHour*60))
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(clock string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return 0, ErrInvalidClock
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, ErrInvalidClock
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidClock
	}
	return hour*60 + minute, nil
}

// Normalize rewrites a valid clock value in zero-padded 24-hour form ("3:00" -> "03:00").
func Normalize(clock string) (string, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return to24(m), nil
}

func fromMinutes(m int) Slot {
	return Slot{Time24: to24(m), Time12: to12(m)}
}

func to24(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func to12(m int) string {
	hour, minute := (m/60)%24, m%60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}
