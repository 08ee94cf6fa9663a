package models

// Status is the lifecycle state of a booking or request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusArchived   Status = "ARCHIVED"
)

func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusArchived}
}

func StatusValues() []string {
	statuses := Statuses()
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return values
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusArchived},
	StatusInProgress: {StatusCompleted, StatusArchived, StatusPending},
	StatusCompleted:  {StatusArchived},
	StatusArchived:   {StatusPending},
}

// CanTransition reports whether a booking may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
