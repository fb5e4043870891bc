package events

import (
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUpdateCreated   EventType = "update_created"
	EventUpdateEdited    EventType = "update_edited"
	EventTeamCreated     EventType = "team_created"
	EventTeamMemberAdded EventType = "team_member_added"
	EventUserRegistered  EventType = "user_registered"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

// ActorOf builds an Actor from an account.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Email: user.Email, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// UpdateCreatedPayload payload.
type UpdateCreatedPayload struct {
	EmployeeEmail string              `json:"employee_email"`
	TeamID        *string             `json:"team_id,omitempty"`
	Status        domain.UpdateStatus `json:"status"`
	BlockerType   *domain.BlockerType `json:"blocker_type,omitempty"`
}

// UpdateEditedPayload payload.
type UpdateEditedPayload struct {
	EmployeeEmail string              `json:"employee_email"`
	OldStatus     domain.UpdateStatus `json:"old_status"`
	NewStatus     domain.UpdateStatus `json:"new_status"`
	BlockerAdded  bool                `json:"blocker_added"`
}

// TeamCreatedPayload payload.
type TeamCreatedPayload struct {
	TeamName     string `json:"team_name"`
	ManagerEmail string `json:"manager_email"`
}

// TeamMemberAddedPayload payload.
type TeamMemberAddedPayload struct {
	TeamID        string `json:"team_id"`
	EmployeeEmail string `json:"employee_email"`
}
