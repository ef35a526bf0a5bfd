package models

import "time"

type BacklogStatus string

const (
	BacklogReported     BacklogStatus = "reported"
	BacklogTriaged      BacklogStatus = "triaged"
	BacklogInProgress   BacklogStatus = "in_progress"
	BacklogReadyForTest BacklogStatus = "ready_for_test"
	BacklogResolved     BacklogStatus = "resolved"
	BacklogWontFix      BacklogStatus = "wont_fix"
)

type BacklogType string

const (
	BacklogBug     BacklogType = "bug"
	BacklogFeature BacklogType = "feature"
)

func ValidBacklogType(t BacklogType) bool {
	return t == BacklogBug || t == BacklogFeature
}

type BacklogPriority string

const (
	PriorityLow      BacklogPriority = "low"
	PriorityMedium   BacklogPriority = "medium"
	PriorityHigh     BacklogPriority = "high"
	PriorityCritical BacklogPriority = "critical"
)

func ValidBacklogPriority(p BacklogPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type BacklogItem struct {
	ID          int             `json:"id"`
	UserID      string          `json:"user_id"`
	Username    string          `json:"username,omitempty"`
	Type        BacklogType     `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Priority    BacklogPriority `json:"priority"`
	Status      BacklogStatus   `json:"status"`
	AdminNote   string          `json:"admin_note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// backlogTransitions is the adjacency map of the backlog workflow. Items
// move forward through triage and test, and can step back one stage or be
// parked in wont_fix.
var backlogTransitions = map[BacklogStatus][]BacklogStatus{
	BacklogReported:     {BacklogTriaged, BacklogWontFix},
	BacklogTriaged:      {BacklogInProgress, BacklogWontFix},
	BacklogInProgress:   {BacklogReadyForTest, BacklogTriaged},
	BacklogReadyForTest: {BacklogResolved, BacklogInProgress},
	BacklogResolved:     {BacklogTriaged},
	BacklogWontFix:      {BacklogReported},
}

// AllowedBacklogTargets returns the statuses reachable from current.
// The returned slice is shared and must not be mutated.
func AllowedBacklogTargets(current BacklogStatus) []BacklogStatus {
	return backlogTransitions[current]
}

// ValidBacklogTransition reports whether moving from current to target is
// allowed by the backlog workflow.
func ValidBacklogTransition(current, target BacklogStatus) bool {
	for _, s := range backlogTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

func ValidBacklogStatus(s BacklogStatus) bool {
	_, ok := backlogTransitions[s]
	return ok
}

type BacklogStats struct {
	Total    int                   `json:"total"`
	ByStatus map[BacklogStatus]int `json:"by_status"`
	ByType   map[BacklogType]int   `json:"by_type"`
}
