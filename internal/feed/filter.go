package feed

import (
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
)

// Tab names a predicate selecting a subset of updates for display.
type Tab string

const (
	TabAll        Tab = "all"
	TabRecent     Tab = "recent"
	TabBlockers   Tab = "blockers"
	TabCompleted  Tab = "completed"
	TabInProgress Tab = "in-progress"
	TabBlocked    Tab = "blocked"
)

// RecentWindow is how far back the recent tab reaches.
const RecentWindow = 7 * 24 * time.Hour

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabAll, TabRecent, TabBlockers, TabCompleted, TabInProgress, TabBlocked}

// ParseTab maps a name to a Tab; unknown names map to TabAll.
func ParseTab(name string) Tab {
	for _, tab := range Tabs {
		if string(tab) == name {
			return tab
		}
	}
	return TabAll
}

// Criteria drives Filter. Now anchors the recent tab and Location decides
// which calendar day a created_at instant belongs to.
type Criteria struct {
	Range    DateRange
	TeamID   string
	Tab      Tab
	Now      time.Time
	Location *time.Location
}

// Filter returns the updates matching every predicate of c, in input order.
// The predicates are independent, so Filter is idempotent. The input slice is
// never modified.
func Filter(updates []domain.Update, c Criteria) []domain.Update {
	result := make([]domain.Update, 0, len(updates))
	for i := range updates {
		if matches(&updates[i], c) {
			result = append(result, updates[i])
		}
	}
	return result
}

func matches(u *domain.Update, c Criteria) bool {
	if !c.Range.Contains(u.CreatedAt, c.Location) {
		return false
	}
	if c.TeamID != "" && u.TeamIDValue() != c.TeamID {
		return false
	}
	return matchesTab(u, c)
}

func matchesTab(u *domain.Update, c Criteria) bool {
	switch c.Tab {
	case TabRecent:
		return !u.CreatedAt.Before(c.Now.Add(-RecentWindow))
	case TabBlockers:
		return u.HasBlocker()
	case TabCompleted:
		return u.Status == domain.StatusCompleted
	case TabInProgress:
		return u.Status == domain.StatusInProgress
	case TabBlocked:
		return u.Status == domain.StatusBlocked
	default:
		return true
	}
}
