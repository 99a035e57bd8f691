package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	SlotMinutes = 30
	dayStart    = 9 * 60
	dayEnd      = 18*60 + 30
)

var (
	ErrInvalidDate  = errors.New("invalid date format")
	ErrInvalidTime  = errors.New("invalid time format")
	ErrInvalidMonth = errors.New("invalid month")
)

// Lunch break: no booking starts at these times.
var excludedSlots = map[string]bool{
	"12:30": true,
	"13:00": true,
	"13:30": true,
}

var timeSlots = buildSlots()

func buildSlots() []string {
	slots := make([]string, 0, 20)
	for cursor := dayStart; cursor <= dayEnd; cursor += SlotMinutes {
		clock := MinutesToClock(cursor)
		if excludedSlots[clock] {
			continue
		}
		slots = append(slots, clock)
	}
	return slots
}

// TimeSlots returns a copy of the bookable start times of a day.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

func IsSlot(clock string) bool {
	for _, s := range timeSlots {
		if s == clock {
			return true
		}
	}
	return false
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if _, err := time.Parse(ClockLayout, timeStr); err != nil {
		return time.Time{}, ErrInvalidTime
	}
	if _, err := ParseDate(dateStr, loc); err != nil {
		return time.Time{}, err
	}
	parsed, err := time.ParseInLocation(DateLayout+" "+ClockLayout, dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return parsed, nil
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse(ClockLayout, timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatDate renders the calendar date of t in t's own location. It never
// converts to UTC, so local midnight keeps its day.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// WeekStart returns local midnight of the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	back := weekday - 1
	if weekday == 0 {
		back = 6
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -back)
}

func WeekDates(t time.Time) [7]time.Time {
	var days [7]time.Time
	start := WeekStart(t)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// WeekRange returns the first and last date strings (inclusive) of t's week.
func WeekRange(t time.Time) (string, string) {
	days := WeekDates(t)
	return FormatDate(days[0]), FormatDate(days[6])
}

// MonthRange returns the first day of the month and the first day of the
// next month, the latter exclusive.
func MonthRange(year, month int) (string, string, error) {
	if month < 1 || month > 12 || year < 1 {
		return "", "", ErrInvalidMonth
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return FormatDate(first), FormatDate(first.AddDate(0, 1, 0)), nil
}

// InMonth reports whether a YYYY-MM-DD date string falls in year/month.
func InMonth(dateStr string, year, month int) bool {
	d, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return false
	}
	return d.Year() == year && int(d.Month()) == month
}

func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	n := now.In(loc)
	startToday := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return date.Before(startToday), nil
}

func IsSlotPast(dateStr, timeStr string, loc *time.Location, now time.Time) (bool, error) {
	slot, err := ParseDateTime(dateStr, timeStr, loc)
	if err != nil {
		return false, err
	}
	return !slot.After(now.In(loc)), nil
}

func FilterReserved(slots []string, reserved map[string]bool) []string {
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		if !reserved[s] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func FilterPastSlots(dateStr string, slots []string, loc *time.Location, now time.Time) ([]string, error) {
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		past, err := IsSlotPast(dateStr, s, loc, now)
		if err != nil {
			return nil, err
		}
		if !past {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}
