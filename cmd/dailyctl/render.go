package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/feed"
)

const taskPreviewLen = 48

func renderView(out io.Writer, view feed.ViewState, loc *time.Location) {
	header := fmt.Sprintf("Updates %s  tab=%s", view.Selection.Range, view.Selection.Tab)
	if view.Selection.TeamID != "" {
		header += "  team=" + view.Selection.TeamID
	}
	if view.User != nil {
		header += fmt.Sprintf("  as %s (%s)", view.User.Email, view.User.Role)
	}
	if view.FromCache {
		header += "  (cached)"
	}
	fmt.Fprintln(out, header)

	s := view.Stats
	fmt.Fprintf(out, "Total %d  Completed %d  In progress %d  Blocked %d  Blockers %d\n",
		s.Total, s.Completed, s.InProgress, s.Blocked, s.Blockers)

	if view.Failure != nil {
		fmt.Fprintln(out, view.Failure.Message())
	}
	if len(view.Rows) == 0 {
		if view.LoadedOnce {
			fmt.Fprintln(out, "No updates match the current filter.")
		}
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tEMPLOYEE\tTEAM\tSTATUS\tPRIORITY\tBLOCKER\tTASKS\tEDIT")
	for _, row := range view.Rows {
		u := row.Update
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID,
			u.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			u.EmployeeEmail,
			dash(u.TeamName),
			u.Status,
			u.Priority,
			blockerLabel(u),
			truncate(oneLine(u.TasksCompleted), taskPreviewLen),
			yesNo(row.CanEdit),
		)
	}
	_ = tw.Flush()
}

func renderDetail(out io.Writer, d feed.Detail, loc *time.Location) {
	u := d.Update
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	field := func(name, value string) { fmt.Fprintf(tw, "%s\t%s\n", name, value) }

	field("ID", u.ID)
	field("Employee", strings.TrimSpace(u.EmployeeName+" <"+u.EmployeeEmail+">"))
	field("Team", dash(u.TeamName))
	field("Created", u.CreatedAt.In(loc).Format(time.DateTime))
	field("Status", string(u.Status))
	field("Priority", string(u.Priority))
	if u.StoryPoints != nil {
		field("Story points", fmt.Sprint(*u.StoryPoints))
	}
	field("Start", dateOf(u.StartDate))
	field("End", dateOf(u.EndDate))
	field("Tasks", oneLine(u.TasksCompleted))
	if d.ShowBlocker {
		field("Blocker", string(*u.BlockerType))
		field("Blocker detail", deref(u.BlockerDescription))
		field("Resolution by", dateOf(u.ExpectedResolutionDate))
	}
	if u.AdditionalNotes != nil {
		field("Notes", oneLine(*u.AdditionalNotes))
	}
	field("Editable", yesNo(d.CanEdit))
	_ = tw.Flush()
}

func blockerLabel(u domain.Update) string {
	if !u.HasBlocker() {
		return "-"
	}
	return string(*u.BlockerType)
}

func dateOf(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return dash(*s)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
