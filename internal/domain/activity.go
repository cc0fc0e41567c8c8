package domain

import "time"

// Activity is a scheduled calendar entry.
type Activity struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Date        time.Time      `json:"date"`
	StartTime   string         `json:"startTime"` // "HH:MM"
	EndTime     string         `json:"endTime"`   // "HH:MM"
	Status      ActivityStatus `json:"status"`
	Description string         `json:"description,omitempty"`
	Color       string         `json:"color,omitempty"`
}

// ActivityStatus is the lifecycle state of an activity.
type ActivityStatus string

const (
	ActivityPending    ActivityStatus = "pending"
	ActivityInProgress ActivityStatus = "in-progress"
	ActivityCompleted  ActivityStatus = "completed"
	ActivityCancelled  ActivityStatus = "cancelled"
)

// Valid reports whether s is a known activity status.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityPending, ActivityInProgress, ActivityCompleted, ActivityCancelled:
		return true
	}
	return false
}
