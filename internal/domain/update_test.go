package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func blockerPtr(b BlockerType) *BlockerType { return &b }

func TestNormalizeClearsDependentBlockerFields(t *testing.T) {
	resolution := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	update := &Update{
		TasksCompleted:         "  shipped login  ",
		Status:                 StatusInProgress,
		BlockerDescription:     strPtr("waiting on infra"),
		ExpectedResolutionDate: &resolution,
	}
	update.Normalize()

	assert.Equal(t, "shipped login", update.TasksCompleted)
	assert.Equal(t, PriorityMedium, update.Priority)
	assert.Nil(t, update.BlockerDescription)
	assert.Nil(t, update.ExpectedResolutionDate)
	require.NoError(t, update.Validate())
}

func TestNormalizeKeepsBlockerPair(t *testing.T) {
	update := &Update{
		TasksCompleted:     "api work",
		Status:             StatusBlocked,
		BlockerType:        blockerPtr(BlockerDependency),
		BlockerDescription: strPtr(" vendor sdk "),
	}
	update.Normalize()

	require.NotNil(t, update.BlockerDescription)
	assert.Equal(t, "vendor sdk", *update.BlockerDescription)
	require.NoError(t, update.Validate())
}

func TestValidate(t *testing.T) {
	start := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	tests := []struct {
		name   string
		update Update
		want   error
	}{
		{name: "missing tasks", update: Update{Status: StatusToDo, Priority: PriorityLow}, want: ErrTasksRequired},
		{name: "bad status", update: Update{TasksCompleted: "x", Status: "done", Priority: PriorityLow}, want: ErrInvalidStatus},
		{name: "bad priority", update: Update{TasksCompleted: "x", Status: StatusToDo, Priority: "Urgent"}, want: ErrInvalidPriority},
		{
			name:   "blocker without description",
			update: Update{TasksCompleted: "x", Status: StatusBlocked, Priority: PriorityHigh, BlockerType: blockerPtr(BlockerIssue)},
			want:   ErrBlockerDescriptionRequired,
		},
		{
			name:   "unknown blocker type",
			update: Update{TasksCompleted: "x", Status: StatusBlocked, Priority: PriorityHigh, BlockerType: blockerPtr("Incident"), BlockerDescription: strPtr("x")},
			want:   ErrInvalidBlockerType,
		},
		{
			name:   "description without blocker type",
			update: Update{TasksCompleted: "x", Status: StatusToDo, Priority: PriorityLow, BlockerDescription: strPtr("orphan")},
			want:   ErrBlockerFieldsWithoutType,
		},
		{
			name:   "end before start",
			update: Update{TasksCompleted: "x", Status: StatusToDo, Priority: PriorityLow, StartDate: &start, EndDate: &before},
			want:   ErrInvalidDateRange,
		},
		{name: "valid", update: Update{TasksCompleted: "x", Status: StatusReopen, Priority: PriorityLow}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.ErrorIs(t, testCase.update.Validate(), testCase.want)
		})
	}
}
