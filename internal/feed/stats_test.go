package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/daily-status/internal/domain"
)

func TestAggregate(t *testing.T) {
	now := time.Now()
	updates := []domain.Update{
		update("a", "a@x.io", domain.StatusCompleted, now),
		update("b", "a@x.io", domain.StatusCompleted, now),
		update("c", "a@x.io", domain.StatusInProgress, now),
		withBlocker(update("d", "a@x.io", domain.StatusBlocked, now), domain.BlockerBlocker),
		withBlocker(update("e", "a@x.io", domain.StatusCompleted, now), domain.BlockerRisk),
		update("f", "a@x.io", domain.StatusReopen, now),
		update("g", "a@x.io", domain.StatusToDo, now),
	}

	assert.Equal(t, Stats{Total: 7, Completed: 3, InProgress: 1, Blocked: 1, Blockers: 2}, Aggregate(updates))
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Aggregate(nil))
}
