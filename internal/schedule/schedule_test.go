package schedule

import (
	"testing"
	"time"
)

func mustLoadLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestTimeSlots(t *testing.T) {
	slots := TimeSlots()
	if len(slots) != 17 {
		t.Fatalf("expected 17 slots, got %d: %v", len(slots), slots)
	}
	if slots[0] != "09:00" || slots[len(slots)-1] != "18:30" {
		t.Fatalf("unexpected boundary slots: %v", slots)
	}
	for _, excluded := range []string{"12:30", "13:00", "13:30"} {
		if IsSlot(excluded) {
			t.Fatalf("slot %s must be excluded", excluded)
		}
	}
	for _, included := range []string{"09:30", "12:00", "14:00", "18:00"} {
		if !IsSlot(included) {
			t.Fatalf("slot %s must be included", included)
		}
	}
	slots[0] = "00:00"
	if TimeSlots()[0] != "09:00" {
		t.Fatalf("TimeSlots must return a copy")
	}
}

func TestWeekDatesStartsOnMonday(t *testing.T) {
	loc := mustLoadLoc(t, "Europe/Paris")
	// 2025-03-09 is a Sunday, 2025-03-03 a Monday.
	refs := []time.Time{
		time.Date(2025, 3, 3, 0, 0, 0, 0, loc),
		time.Date(2025, 3, 5, 15, 30, 0, 0, loc),
		time.Date(2025, 3, 9, 23, 59, 0, 0, loc),
	}
	for _, ref := range refs {
		days := WeekDates(ref)
		if days[0].Weekday() != time.Monday {
			t.Fatalf("week of %v starts on %v", ref, days[0].Weekday())
		}
		if FormatDate(days[0]) != "2025-03-03" || FormatDate(days[6]) != "2025-03-09" {
			t.Fatalf("unexpected week for %v: %s..%s", ref, FormatDate(days[0]), FormatDate(days[6]))
		}
		for i := 1; i < len(days); i++ {
			if days[i].Sub(days[i-1]) < 23*time.Hour {
				t.Fatalf("dates are not consecutive: %v", days)
			}
		}
	}
}

func TestWeekDatesAcrossDST(t *testing.T) {
	loc := mustLoadLoc(t, "Europe/Paris")
	// Clocks move forward on 2025-03-30.
	days := WeekDates(time.Date(2025, 3, 30, 12, 0, 0, 0, loc))
	want := []string{"2025-03-24", "2025-03-25", "2025-03-26", "2025-03-27", "2025-03-28", "2025-03-29", "2025-03-30"}
	for i, d := range days {
		if FormatDate(d) != want[i] {
			t.Fatalf("day %d: got %s, want %s", i, FormatDate(d), want[i])
		}
	}
}

func TestFormatDateKeepsLocalDay(t *testing.T) {
	for _, name := range []string{"Pacific/Auckland", "America/Los_Angeles", "Europe/Paris"} {
		loc := mustLoadLoc(t, name)
		midnight := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)
		if got := FormatDate(midnight); got != "2025-03-01" {
			t.Fatalf("%s: FormatDate = %s", name, got)
		}
		parsed, err := ParseDate(FormatDate(midnight), loc)
		if err != nil || !parsed.Equal(midnight) {
			t.Fatalf("%s: round trip failed: %v %v", name, parsed, err)
		}
	}
}

func TestMonthRange(t *testing.T) {
	from, to, err := MonthRange(2025, 12)
	if err != nil {
		t.Fatalf("MonthRange error: %v", err)
	}
	if from != "2025-12-01" || to != "2026-01-01" {
		t.Fatalf("unexpected range %s..%s", from, to)
	}
	if _, _, err := MonthRange(2025, 13); err != ErrInvalidMonth {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestInMonth(t *testing.T) {
	if !InMonth("2025-03-31", 2025, 3) {
		t.Fatalf("expected 2025-03-31 in March")
	}
	if InMonth("2025-04-01", 2025, 3) || InMonth("2024-03-15", 2025, 3) || InMonth("bad", 2025, 3) {
		t.Fatalf("unexpected month match")
	}
}

func TestIsDatePast(t *testing.T) {
	loc := mustLoadLoc(t, "Europe/Paris")
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsDatePast("2026-02-03", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected date to be past")
	}

	past, err = IsDatePast("2026-02-04", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if past {
		t.Fatalf("expected date to be not past")
	}
}

func TestIsSlotPast(t *testing.T) {
	loc := mustLoadLoc(t, "Europe/Paris")
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsSlotPast("2026-02-04", "09:00", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if !past {
		t.Fatalf("expected slot to be past")
	}
	past, err = IsSlotPast("2026-02-04", "10:30", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if past {
		t.Fatalf("expected slot to be future")
	}
}

func TestFilterReserved(t *testing.T) {
	slots := []string{"09:00", "09:30", "10:00"}
	filtered := FilterReserved(slots, map[string]bool{"09:30": true})
	if len(filtered) != 2 || filtered[1] != "10:00" {
		t.Fatalf("unexpected slots: %v", filtered)
	}
}

func TestFilterPastSlots(t *testing.T) {
	loc := mustLoadLoc(t, "Europe/Paris")
	now := time.Date(2026, 2, 4, 17, 45, 0, 0, loc)
	slots, err := FilterPastSlots("2026-02-04", TimeSlots(), loc, now)
	if err != nil {
		t.Fatalf("FilterPastSlots error: %v", err)
	}
	if len(slots) != 2 || slots[0] != "18:00" {
		t.Fatalf("unexpected remaining slots: %v", slots)
	}
}
