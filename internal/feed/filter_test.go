package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/daily-status/internal/domain"
)

func TestFilterDateRangeBoundaries(t *testing.T) {
	loc := time.UTC
	r, err := ParseDateRange("2024-03-01", "2024-03-07")
	require.NoError(t, err)
	from, to := r.Bounds(loc)

	updates := []domain.Update{
		update("before", "a@x.io", domain.StatusToDo, from.Add(-time.Millisecond)),
		update("first", "a@x.io", domain.StatusToDo, from),
		update("last", "a@x.io", domain.StatusToDo, to),
		update("after", "a@x.io", domain.StatusToDo, to.Add(time.Millisecond)),
	}

	got := Filter(updates, Criteria{Range: r, Tab: TabAll, Location: loc})
	assert.Equal(t, []string{"first", "last"}, ids(got))
}

func TestFilterUsesCalendarDateInLocation(t *testing.T) {
	east := time.FixedZone("UTC+3", 3*3600)
	r, err := ParseDateRange("2024-03-02", "2024-03-02")
	require.NoError(t, err)

	// 22:30 UTC on the 1st is already the 2nd at UTC+3.
	late := update("late", "a@x.io", domain.StatusToDo, time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC))

	assert.Len(t, Filter([]domain.Update{late}, Criteria{Range: r, Location: east}), 1)
	assert.Empty(t, Filter([]domain.Update{late}, Criteria{Range: r, Location: time.UTC}))
}

func TestFilterTabs(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	updates := []domain.Update{
		update("done", "a@x.io", domain.StatusCompleted, now.Add(-time.Hour)),
		update("doing", "a@x.io", domain.StatusInProgress, now.Add(-2*time.Hour)),
		update("stuck", "a@x.io", domain.StatusBlocked, now.Add(-10*24*time.Hour)),
		withBlocker(update("risky", "a@x.io", domain.StatusToDo, now.Add(-3*time.Hour)), domain.BlockerRisk),
		update("edge", "a@x.io", domain.StatusReopen, now.Add(-RecentWindow)),
	}

	cases := []struct {
		tab  Tab
		want []string
	}{
		{TabAll, []string{"done", "doing", "stuck", "risky", "edge"}},
		{TabRecent, []string{"done", "doing", "risky", "edge"}},
		{TabBlockers, []string{"risky"}},
		{TabCompleted, []string{"done"}},
		{TabInProgress, []string{"doing"}},
		{TabBlocked, []string{"stuck"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.tab), func(t *testing.T) {
			got := Filter(updates, Criteria{Tab: tc.tab, Now: now, Location: time.UTC})
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestFilterTeam(t *testing.T) {
	now := time.Now()
	updates := []domain.Update{
		withTeam(update("t1", "a@x.io", domain.StatusToDo, now), "team-1"),
		withTeam(update("t2", "b@x.io", domain.StatusToDo, now), "team-2"),
		update("none", "c@x.io", domain.StatusToDo, now),
	}

	got := Filter(updates, Criteria{TeamID: "team-2", Location: time.UTC})
	assert.Equal(t, []string{"t2"}, ids(got))
	assert.Len(t, Filter(updates, Criteria{Location: time.UTC}), 3)
}

func TestFilterIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	updates := []domain.Update{
		update("a", "a@x.io", domain.StatusCompleted, now),
		withBlocker(update("b", "a@x.io", domain.StatusBlocked, now.Add(-time.Hour)), domain.BlockerIssue),
		update("c", "a@x.io", domain.StatusBlocked, now.AddDate(0, 0, -30)),
	}
	original := append([]domain.Update(nil), updates...)
	c := Criteria{Range: LastNDays(now, 7, time.UTC), Tab: TabBlocked, Now: now, Location: time.UTC}

	once := Filter(updates, c)
	twice := Filter(once, c)

	assert.Equal(t, once, twice)
	assert.Equal(t, original, updates)
}

func TestFilterEmptyRangeYieldsEmptyStats(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	updates := []domain.Update{update("a", "a@x.io", domain.StatusCompleted, now)}
	r, err := ParseDateRange("2023-01-01", "2023-01-31")
	require.NoError(t, err)

	got := Filter(updates, Criteria{Range: r, Location: time.UTC})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, Stats{}, Aggregate(got))
}

func TestParseTab(t *testing.T) {
	assert.Equal(t, TabBlockers, ParseTab("blockers"))
	assert.Equal(t, TabAll, ParseTab("nonsense"))
}

func TestParseDateRangeRejectsInvertedRange(t *testing.T) {
	_, err := ParseDateRange("2024-03-07", "2024-03-01")
	assert.Error(t, err)

	_, err = ParseDateRange("03/01/2024", "2024-03-01")
	assert.Error(t, err)
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2024, 3, 20, 1, 0, 0, 0, time.UTC)
	r := LastNDays(now, 7, time.UTC)
	assert.Equal(t, "2024-03-14..2024-03-20", r.String())
}

func ids(updates []domain.Update) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.ID)
	}
	return out
}
