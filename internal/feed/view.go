package feed

import "github.com/spec-kit/daily-status/internal/domain"

// Row is one line of the list view.
type Row struct {
	Update  domain.Update
	CanEdit bool
	IsOwner bool
}

// Detail is the expanded view of a single update.
type Detail struct {
	Update      domain.Update
	CanEdit     bool
	IsOwner     bool
	ShowBlocker bool
}

// ListRows builds list rows for viewer. Edit affordances come from
// domain.CanEdit, the same rule DetailOf uses.
func ListRows(viewer *domain.User, updates []domain.Update) []Row {
	rows := make([]Row, 0, len(updates))
	for i := range updates {
		rows = append(rows, Row{
			Update:  updates[i],
			CanEdit: domain.CanEdit(viewer, &updates[i]),
			IsOwner: domain.IsOwner(viewer, &updates[i]),
		})
	}
	return rows
}

// DetailOf builds the expanded view of update for viewer. Blocker fields are
// shown only as a pair with their blocker type.
func DetailOf(viewer *domain.User, update domain.Update) Detail {
	return Detail{
		Update:      update,
		CanEdit:     domain.CanEdit(viewer, &update),
		IsOwner:     domain.IsOwner(viewer, &update),
		ShowBlocker: update.HasBlocker(),
	}
}
