package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/internal/repository/repotest"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

type updateFixture struct {
	svc        *UpdateService
	updates    *repotest.Updates
	teams      *repotest.Teams
	dispatcher *recordingDispatcher
}

// newUpdateFixture seeds two teams: "team-1" managed by lead with dev as a
// member, and "team-2" managed by otherLead with peer as a member.
func newUpdateFixture(t *testing.T) *updateFixture {
	t.Helper()
	ctx := context.Background()
	teams := &repotest.Teams{}
	require.NoError(t, teams.Create(ctx, &domain.Team{TeamName: "Core", ManagerEmail: lead.Email}))
	require.NoError(t, teams.Create(ctx, &domain.Team{TeamName: "Edge", ManagerEmail: otherLead.Email}))
	require.NoError(t, teams.AddMember(ctx, &domain.TeamMember{TeamID: "team-1", EmployeeEmail: dev.Email, ManagerEmail: lead.Email}))
	require.NoError(t, teams.AddMember(ctx, &domain.TeamMember{TeamID: "team-2", EmployeeEmail: peer.Email, ManagerEmail: otherLead.Email}))

	updates := &repotest.Updates{Teams: teams, Now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	dispatcher := &recordingDispatcher{}
	svc := NewUpdateService(UpdateDependencies{
		UpdateRepo: updates,
		TeamRepo:   teams,
		Dispatcher: dispatcher,
	})
	return &updateFixture{svc: svc, updates: updates, teams: teams, dispatcher: dispatcher}
}

func (f *updateFixture) create(t *testing.T, actor *domain.User, status domain.UpdateStatus) *domain.Update {
	t.Helper()
	update, err := f.svc.Create(context.Background(), actor, CreateUpdateInput{
		TasksCompleted: "work for " + actor.Email,
		Status:         status,
	})
	require.NoError(t, err)
	return update
}

func TestCreateDefaultsTeamAndOwner(t *testing.T) {
	f := newUpdateFixture(t)

	update, err := f.svc.Create(context.Background(), dev, CreateUpdateInput{
		TasksCompleted: "  wired the login form ",
	})
	require.NoError(t, err)

	assert.Equal(t, "dev@corp.io", update.EmployeeEmail)
	assert.Equal(t, "Dev", update.EmployeeName)
	require.NotNil(t, update.TeamID)
	assert.Equal(t, "team-1", *update.TeamID)
	assert.Equal(t, "Core", update.TeamName)
	assert.Equal(t, domain.StatusToDo, update.Status)
	assert.Equal(t, domain.PriorityMedium, update.Priority)
	assert.Equal(t, "wired the login form", update.TasksCompleted)
	assert.Equal(t, []events.EventType{events.EventUpdateCreated}, f.dispatcher.types())
}

func TestCreateValidation(t *testing.T) {
	f := newUpdateFixture(t)

	cases := []struct {
		name  string
		in    CreateUpdateInput
		field string
	}{
		{name: "blank tasks", in: CreateUpdateInput{TasksCompleted: "   "}, field: "tasks_completed"},
		{name: "unknown status", in: CreateUpdateInput{TasksCompleted: "x", Status: "done"}, field: "status"},
		{
			name:  "blocker without description",
			in:    CreateUpdateInput{TasksCompleted: "x", BlockerType: ptr(domain.BlockerRisk)},
			field: "blocker_description",
		},
		{
			name: "end before start",
			in: CreateUpdateInput{
				TasksCompleted: "x",
				StartDate:      ptr(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)),
				EndDate:        ptr(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)),
			},
			field: "end_date",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), dev, tc.in)
			derr := apperrors.ToDomainError(err)
			require.NotNil(t, derr)
			assert.Equal(t, "VALIDATION_FAILED", derr.Code)
			assert.Equal(t, tc.field, derr.Details["field"])
		})
	}
	assert.Empty(t, f.dispatcher.types())
}

func TestListScopesByRole(t *testing.T) {
	f := newUpdateFixture(t)
	mine := f.create(t, dev, domain.StatusToDo)
	theirs := f.create(t, peer, domain.StatusToDo)
	ctx := context.Background()

	got, err := f.svc.List(ctx, dev, ListUpdatesInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID}, updateIDs(got))

	_, err = f.svc.List(ctx, dev, ListUpdatesInput{EmployeeEmail: peer.Email})
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	got, err = f.svc.List(ctx, lead, ListUpdatesInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID}, updateIDs(got))

	got, err = f.svc.List(ctx, lead, ListUpdatesInput{TeamID: "team-2"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.List(ctx, admin, ListUpdatesInput{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mine.ID, theirs.ID}, updateIDs(got))

	got, err = f.svc.List(ctx, admin, ListUpdatesInput{EmployeeEmail: "PEER@corp.io"})
	require.NoError(t, err)
	assert.Equal(t, []string{theirs.ID}, updateIDs(got))
}

func TestListManagerWithoutTeams(t *testing.T) {
	f := newUpdateFixture(t)
	f.create(t, dev, domain.StatusToDo)

	newLead := &domain.User{Email: "fresh@corp.io", Role: domain.RoleManager}
	got, err := f.svc.List(context.Background(), newLead, ListUpdatesInput{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetHidesInvisibleUpdates(t *testing.T) {
	f := newUpdateFixture(t)
	theirs := f.create(t, peer, domain.StatusToDo)

	_, err := f.svc.Get(context.Background(), dev, theirs.ID)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	_, err = f.svc.Get(context.Background(), lead, theirs.ID)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	got, err := f.svc.Get(context.Background(), otherLead, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, theirs.ID, got.ID)
}

func TestEditPermissions(t *testing.T) {
	f := newUpdateFixture(t)
	ctx := context.Background()
	open := f.create(t, dev, domain.StatusInProgress)
	done := f.create(t, dev, domain.StatusCompleted)

	edited, err := f.svc.Edit(ctx, dev, open.ID, EditUpdateInput{TasksCompleted: ptr("finished the form")})
	require.NoError(t, err)
	assert.Equal(t, "finished the form", edited.TasksCompleted)
	assert.Equal(t, open.CreatedAt, edited.CreatedAt)
	assert.Equal(t, open.EmployeeEmail, edited.EmployeeEmail)

	_, err = f.svc.Edit(ctx, dev, done.ID, EditUpdateInput{TasksCompleted: ptr("sneaky")})
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	stored, err := f.updates.GetByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.TasksCompleted, stored.TasksCompleted)

	reopened, err := f.svc.Edit(ctx, lead, done.ID, EditUpdateInput{Status: ptr(domain.StatusReopen)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReopen, reopened.Status)

	_, err = f.svc.Edit(ctx, peer, open.ID, EditUpdateInput{TasksCompleted: ptr("not mine")})
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestEditBlockerLifecycle(t *testing.T) {
	f := newUpdateFixture(t)
	ctx := context.Background()
	update := f.create(t, dev, domain.StatusInProgress)

	blocked, err := f.svc.Edit(ctx, dev, update.ID, EditUpdateInput{
		Status:             ptr(domain.StatusInProgress),
		BlockerType:        ptr(domain.BlockerDependency),
		BlockerDescription: ptr("waiting on vendor"),
	})
	require.NoError(t, err)
	require.True(t, blocked.HasBlocker())

	last := f.dispatcher.published[len(f.dispatcher.published)-1]
	payload, ok := last.Payload.(events.UpdateEditedPayload)
	require.True(t, ok)
	assert.True(t, payload.BlockerAdded)

	cleared, err := f.svc.Edit(ctx, dev, update.ID, EditUpdateInput{BlockerType: ptr(domain.BlockerType(""))})
	require.NoError(t, err)
	assert.False(t, cleared.HasBlocker())
	assert.Nil(t, cleared.BlockerDescription)
}

func updateIDs(updates []domain.Update) []string {
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.ID)
	}
	return ids
}
