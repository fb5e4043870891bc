package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/daily-status/internal/domain"
)

func TestListAndDetailAgreeOnEditPermission(t *testing.T) {
	owner := "owner@x.io"
	viewers := []*domain.User{
		nil,
		{Email: owner, Role: domain.RoleUser},
		{Email: "OWNER@x.io ", Role: domain.RoleUser},
		{Email: "other@x.io", Role: domain.RoleUser},
		{Email: "lead@x.io", Role: domain.RoleManager},
		{Email: "root@x.io", Role: domain.RoleAdmin},
	}

	var updates []domain.Update
	for i, status := range domain.AllStatuses {
		updates = append(updates, update(fmt.Sprintf("u%d", i), owner, status, time.Now()))
	}

	for _, viewer := range viewers {
		rows := ListRows(viewer, updates)
		require.Len(t, rows, len(updates))
		for i, row := range rows {
			detail := DetailOf(viewer, updates[i])
			assert.Equal(t, row.CanEdit, detail.CanEdit, "viewer %v status %s", viewer, updates[i].Status)
			assert.Equal(t, row.IsOwner, detail.IsOwner)
			assert.Equal(t, domain.CanEdit(viewer, &updates[i]), row.CanEdit)
		}
	}
}

func TestDetailShowsBlockerOnlyWithType(t *testing.T) {
	plain := update("a", "a@x.io", domain.StatusToDo, time.Now())
	blocked := withBlocker(plain, domain.BlockerDependency)

	assert.False(t, DetailOf(nil, plain).ShowBlocker)
	assert.True(t, DetailOf(nil, blocked).ShowBlocker)
}
