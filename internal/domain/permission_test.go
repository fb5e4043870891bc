package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanEdit(t *testing.T) {
	owner := &User{Email: "dev@example.com", Role: RoleUser}
	stranger := &User{Email: "other@example.com", Role: RoleUser}
	manager := &User{Email: "lead@example.com", Role: RoleManager}
	admin := &User{Email: "root@example.com", Role: RoleAdmin}

	editableByOwner := map[UpdateStatus]bool{
		StatusToDo:       true,
		StatusInProgress: true,
		StatusCompleted:  false,
		StatusBlocked:    false,
		StatusReopen:     false,
	}

	for _, status := range AllStatuses {
		update := &Update{EmployeeEmail: "Dev@Example.com ", Status: status}
		t.Run(string(status), func(t *testing.T) {
			assert.Equal(t, editableByOwner[status], CanEdit(owner, update))
			assert.False(t, CanEdit(stranger, update))
			assert.True(t, CanEdit(manager, update))
			assert.True(t, CanEdit(admin, update))
		})
	}
}

func TestCanEditNilArguments(t *testing.T) {
	assert.False(t, CanEdit(nil, &Update{Status: StatusToDo}))
	assert.False(t, CanEdit(&User{Role: RoleAdmin}, nil))
}

func TestSameEmailRejectsEmpty(t *testing.T) {
	assert.False(t, SameEmail("", ""))
	assert.True(t, SameEmail(" A@b.io", "a@B.io"))
}
