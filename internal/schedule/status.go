package schedule

import "errors"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid status")

var allStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Transitions lists the statuses an admin may move a reservation to.
// Every status is reachable from every other one.
func Transitions(current Status) []Status {
	out := make([]Status, 0, len(allStatuses)-1)
	for _, st := range allStatuses {
		if st != current {
			out = append(out, st)
		}
	}
	return out
}

// Blocking reports whether a reservation in this status holds its slot.
func (s Status) Blocking() bool {
	return s != StatusCancelled
}
