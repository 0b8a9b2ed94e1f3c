package services

import (
	"sync"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []alerting.AlertEvent
	refuse bool
}

func (d *fakeDispatcher) Dispatch(event alerting.AlertEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.refuse {
		return false
	}
	d.events = append(d.events, event)

	return true
}

func (d *fakeDispatcher) dispatched() []alerting.AlertEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]alerting.AlertEvent{}, d.events...)
}

func int64Ptr(v int64) *int64 {
	return &v
}
