package usecases

import (
	"time"

	"leaderdesk/internal/domain"
)

// ActivityLister and TaskLister are the read-only store slices the
// dashboard aggregates over.
type ActivityLister interface {
	List() []domain.Activity
}

type TaskLister interface {
	List() []domain.Task
}

type TipCounter interface {
	Len() int
}

// DashboardSummary is the home-screen aggregate.
type DashboardSummary struct {
	ActivitiesToday int               `json:"activitiesToday"`
	UpcomingToday   []domain.Activity `json:"upcomingToday"`
	TasksPending    int               `json:"tasksPending"`
	TasksInProgress int               `json:"tasksInProgress"`
	TasksCompleted  int               `json:"tasksCompleted"`
	TipsGenerated   int               `json:"tipsGenerated"`
}

// Dashboard computes summary counters over the local stores.
type Dashboard struct {
	activities ActivityLister
	tasks      TaskLister
	tips       TipCounter
	now        func() time.Time
}

func NewDashboard(activities ActivityLister, tasks TaskLister, tips TipCounter) *Dashboard {
	return &Dashboard{activities: activities, tasks: tasks, tips: tips, now: time.Now}
}

func (d *Dashboard) Summary() DashboardSummary {
	s := DashboardSummary{TipsGenerated: d.tips.Len()}

	y, m, day := d.now().Date()
	for _, a := range d.activities.List() {
		ay, am, ad := a.Date.Date()
		if ay == y && am == m && ad == day {
			s.ActivitiesToday++
			if a.Status != domain.ActivityCompleted {
				s.UpcomingToday = append(s.UpcomingToday, a)
			}
		}
	}

	for _, t := range d.tasks.List() {
		switch t.Status {
		case domain.TaskPending:
			s.TasksPending++
		case domain.TaskInProgress:
			s.TasksInProgress++
		case domain.TaskCompleted:
			s.TasksCompleted++
		}
	}
	return s
}
