package domain

// CanEdit reports whether actor may edit the update. Managers and admins may
// always edit; an owner may edit only while the update is to-do or
// in-progress. Every edit affordance and the edit endpoint consult this.
func CanEdit(actor *User, update *Update) bool {
	if actor == nil || update == nil {
		return false
	}
	switch actor.Role {
	case RoleAdmin, RoleManager:
		return true
	}
	if !SameEmail(actor.Email, update.EmployeeEmail) {
		return false
	}
	return update.Status == StatusToDo || update.Status == StatusInProgress
}

// IsOwner reports whether actor submitted the update.
func IsOwner(actor *User, update *Update) bool {
	if actor == nil || update == nil {
		return false
	}
	return SameEmail(actor.Email, update.EmployeeEmail)
}
