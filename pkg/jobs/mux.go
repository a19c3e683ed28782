package jobs

import (
	"context"
	"fmt"
	"sync"
)

// Handler runs one job. A returned error schedules a retry.
type Handler func(context.Context, Job) error

// Mux routes jobs to the handler registered for their Type.
type Mux struct {
	mu     sync.RWMutex
	routes map[string]Handler
}

func NewMux() *Mux {
	return &Mux{routes: map[string]Handler{}}
}

// Handle binds h to jobType. A later call for the same type wins.
func (m *Mux) Handle(jobType string, h Handler) {
	m.mu.Lock()
	m.routes[jobType] = h
	m.mu.Unlock()
}

// Dispatch is a Handler that forwards to the route for job.Type.
func (m *Mux) Dispatch(ctx context.Context, job Job) error {
	m.mu.RLock()
	h := m.routes[job.Type]
	m.mu.RUnlock()
	if h == nil {
		return fmt.Errorf("jobs: no route for %q", job.Type)
	}
	return h(ctx, job)
}
