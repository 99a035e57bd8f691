package schedule

import "time"

// Entry is the minimal view of a booking needed to place it on the grid.
type Entry struct {
	ID   string
	Date string
	Time string
}

type Cell struct {
	Time     string `json:"time"`
	Occupied bool   `json:"occupied"`
	EntryID  string `json:"entryId,omitempty"`
}

type Day struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Cells   []Cell `json:"cells"`
}

type Week struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Slots []string `json:"slots"`
	Days  []Day    `json:"days"`
}

var weekdayLabels = map[time.Weekday]string{
	time.Monday:    "lundi",
	time.Tuesday:   "mardi",
	time.Wednesday: "mercredi",
	time.Thursday:  "jeudi",
	time.Friday:    "vendredi",
	time.Saturday:  "samedi",
	time.Sunday:    "dimanche",
}

// BuildWeekGrid lays entries out on the Monday-based week containing ref.
// A cell is occupied when an entry matches its date and time exactly; when
// two entries share a cell the first one wins.
func BuildWeekGrid(ref time.Time, entries []Entry) Week {
	index := make(map[string]string, len(entries))
	for _, e := range entries {
		key := e.Date + " " + e.Time
		if _, taken := index[key]; !taken {
			index[key] = e.ID
		}
	}

	days := WeekDates(ref)
	week := Week{
		Start: FormatDate(days[0]),
		End:   FormatDate(days[6]),
		Slots: TimeSlots(),
		Days:  make([]Day, 0, len(days)),
	}
	for _, d := range days {
		date := FormatDate(d)
		day := Day{
			Date:    date,
			Weekday: weekdayLabels[d.Weekday()],
			Cells:   make([]Cell, 0, len(timeSlots)),
		}
		for _, slot := range timeSlots {
			id, ok := index[date+" "+slot]
			day.Cells = append(day.Cells, Cell{Time: slot, Occupied: ok, EntryID: id})
		}
		week.Days = append(week.Days, day)
	}
	return week
}

// FindEntry returns the entry occupying date/time, if any.
func FindEntry(entries []Entry, date, clock string) (Entry, bool) {
	for _, e := range entries {
		if e.Date == date && e.Time == clock {
			return e, true
		}
	}
	return Entry{}, false
}

// FreeSlots returns, per date of the week, the slots not taken by entries.
func (w Week) FreeSlots() map[string][]string {
	out := make(map[string][]string, len(w.Days))
	for _, d := range w.Days {
		free := make([]string, 0, len(d.Cells))
		for _, c := range d.Cells {
			if !c.Occupied {
				free = append(free, c.Time)
			}
		}
		out[d.Date] = free
	}
	return out
}
