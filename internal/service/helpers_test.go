package service

import (
	"context"
	"sync"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/events"
)

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, event := range d.published {
		out = append(out, event.Type)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

var (
	admin     = &domain.User{ID: "u-admin", Email: "root@corp.io", Name: "Root", Role: domain.RoleAdmin}
	lead      = &domain.User{ID: "u-lead", Email: "lead@corp.io", Name: "Lead", Role: domain.RoleManager}
	otherLead = &domain.User{ID: "u-lead2", Email: "other-lead@corp.io", Name: "Other", Role: domain.RoleManager}
	dev       = &domain.User{ID: "u-dev", Email: "dev@corp.io", Name: "Dev", Role: domain.RoleUser}
	peer      = &domain.User{ID: "u-peer", Email: "peer@corp.io", Name: "Peer", Role: domain.RoleUser}
)
