package domain

import (
	"errors"
	"strings"
	"time"
)

// UpdateStatus enumerates the progress state reported in an update.
type UpdateStatus string

const (
	StatusToDo       UpdateStatus = "to-do"
	StatusInProgress UpdateStatus = "in-progress"
	StatusCompleted  UpdateStatus = "completed"
	StatusBlocked    UpdateStatus = "blocked"
	StatusReopen     UpdateStatus = "reopen"
)

// AllStatuses lists every status in display order.
var AllStatuses = []UpdateStatus{StatusToDo, StatusInProgress, StatusCompleted, StatusBlocked, StatusReopen}

// Valid reports whether the status is known.
func (s UpdateStatus) Valid() bool {
	for _, candidate := range AllStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Priority enumerates update urgency.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether the priority is known.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// BlockerType classifies an impediment attached to an update.
type BlockerType string

const (
	BlockerRisk       BlockerType = "Risk"
	BlockerIssue      BlockerType = "Issue"
	BlockerDependency BlockerType = "Dependency"
	BlockerBlocker    BlockerType = "Blocker"
)

// Valid reports whether the blocker type is known.
func (b BlockerType) Valid() bool {
	switch b {
	case BlockerRisk, BlockerIssue, BlockerDependency, BlockerBlocker:
		return true
	}
	return false
}

// Update is one daily status report submitted by one employee.
type Update struct {
	ID                     string
	EmployeeEmail          string
	EmployeeName           string
	TeamID                 *string
	TeamName               string
	CreatedAt              time.Time
	TasksCompleted         string
	StoryPoints            *int
	Priority               Priority
	Status                 UpdateStatus
	StartDate              *time.Time
	EndDate                *time.Time
	BlockerType            *BlockerType
	BlockerDescription     *string
	ExpectedResolutionDate *time.Time
	AdditionalNotes        *string
}

var (
	ErrTasksRequired              = errors.New("tasks_completed is required")
	ErrInvalidStatus              = errors.New("invalid status")
	ErrInvalidPriority            = errors.New("invalid priority")
	ErrInvalidBlockerType         = errors.New("invalid blocker_type")
	ErrBlockerDescriptionRequired = errors.New("blocker_description is required when blocker_type is set")
	ErrBlockerFieldsWithoutType   = errors.New("blocker_description and expected_resolution_date require blocker_type")
	ErrInvalidDateRange           = errors.New("end_date must not be before start_date")
)

// HasBlocker reports whether a blocker type is attached.
func (u *Update) HasBlocker() bool {
	return u.BlockerType != nil && *u.BlockerType != ""
}

// TeamIDValue returns the team id or an empty string.
func (u *Update) TeamIDValue() string {
	if u.TeamID == nil {
		return ""
	}
	return *u.TeamID
}

// Normalize applies defaults and keeps the blocker fields a dependent pair:
// without a blocker type the description and resolution date are cleared.
func (u *Update) Normalize() {
	u.TasksCompleted = strings.TrimSpace(u.TasksCompleted)
	if u.Priority == "" {
		u.Priority = PriorityMedium
	}
	if u.BlockerType != nil && *u.BlockerType == "" {
		u.BlockerType = nil
	}
	if u.BlockerDescription != nil {
		trimmed := strings.TrimSpace(*u.BlockerDescription)
		if trimmed == "" {
			u.BlockerDescription = nil
		} else {
			u.BlockerDescription = &trimmed
		}
	}
	if !u.HasBlocker() {
		u.BlockerDescription = nil
		u.ExpectedResolutionDate = nil
	}
	if u.AdditionalNotes != nil && strings.TrimSpace(*u.AdditionalNotes) == "" {
		u.AdditionalNotes = nil
	}
}

// Validate checks required fields, enums and the blocker dependent-field pair.
func (u *Update) Validate() error {
	if strings.TrimSpace(u.TasksCompleted) == "" {
		return ErrTasksRequired
	}
	if !u.Status.Valid() {
		return ErrInvalidStatus
	}
	if !u.Priority.Valid() {
		return ErrInvalidPriority
	}
	if u.HasBlocker() {
		if !u.BlockerType.Valid() {
			return ErrInvalidBlockerType
		}
		if u.BlockerDescription == nil || strings.TrimSpace(*u.BlockerDescription) == "" {
			return ErrBlockerDescriptionRequired
		}
	} else if u.BlockerDescription != nil || u.ExpectedResolutionDate != nil {
		return ErrBlockerFieldsWithoutType
	}
	if u.StartDate != nil && u.EndDate != nil && u.EndDate.Before(*u.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}
