package feed

import "github.com/spec-kit/daily-status/internal/domain"

// Stats summarizes an update set. Blockers counts updates with a blocker type
// and is independent of the status counts.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Blocked    int `json:"blocked"`
	Blockers   int `json:"blockers"`
}

// Aggregate counts updates in a single pass.
func Aggregate(updates []domain.Update) Stats {
	var s Stats
	for i := range updates {
		s.Total++
		switch updates[i].Status {
		case domain.StatusCompleted:
			s.Completed++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusBlocked:
			s.Blocked++
		}
		if updates[i].HasBlocker() {
			s.Blockers++
		}
	}
	return s
}
