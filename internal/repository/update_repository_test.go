package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateListQuery(t *testing.T) {
	email := " Dev@X.io "
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7).Add(-time.Nanosecond)

	query, args := buildUpdateListQuery(UpdateFilter{
		EmployeeEmail: &email,
		TeamIDs:       []string{"t1", "t2"},
		CreatedFrom:   &from,
		CreatedTo:     &to,
		Limit:         100,
	})

	assert.Contains(t, query, "lower(u.employee_email)=$1")
	assert.Contains(t, query, "u.team_id::text IN ($2,$3)")
	assert.Contains(t, query, "u.created_at >= $4")
	assert.Contains(t, query, "u.created_at <= $5")
	assert.Contains(t, query, "ORDER BY u.created_at DESC LIMIT $6")
	assert.NotContains(t, query, "OFFSET")
	require.Len(t, args, 6)
	assert.Equal(t, "dev@x.io", args[0])
	assert.Equal(t, from, args[3])
	assert.Equal(t, 100, args[5])
}

func TestBuildUpdateListQueryUnfiltered(t *testing.T) {
	query, args := buildUpdateListQuery(UpdateFilter{})
	assert.Contains(t, query, "WHERE 1=1 ORDER BY u.created_at DESC")
	assert.Empty(t, args)
}
