package domain

import "time"

// Team groups employees under a manager.
type Team struct {
	ID           string
	TeamName     string
	ManagerEmail string
	ManagerName  string
	CreatedAt    time.Time
}

// TeamMember links an employee to a team. Unique on (TeamID, EmployeeEmail).
type TeamMember struct {
	ID            string
	TeamID        string
	EmployeeEmail string
	EmployeeName  string
	ManagerEmail  string
	CreatedAt     time.Time
}
