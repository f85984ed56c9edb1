// Package store holds the in-memory task list for one mounted view and
// serializes its mutations against the hosted database.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jayphen/gleis/internal/logging"
	"github.com/jayphen/gleis/internal/notion"
	"github.com/jayphen/gleis/internal/task"
)

// ErrBusy is returned when a mutation is requested while another is in
// flight. The caller drops the request; there is no queueing.
var ErrBusy = errors.New("a mutation is already in flight")

// Backend is the slice of the database client the store uses.
type Backend interface {
	QueryTasks(ctx context.Context, q notion.Query) ([]task.Task, error)
	CreateTask(ctx context.Context, name, date string) (string, error)
	UpdateTask(ctx context.Context, id string, u notion.TaskUpdate) error
	CompleteTask(ctx context.Context, id string) error
}

// Store owns the authoritative task snapshot for one view. A re-fetch
// always fully replaces the snapshot; there is no incremental merge.
// At most one mutation is in flight at a time, gated process-wide
// rather than per record.
type Store struct {
	backend Backend
	query   func() notion.Query
	log     *logging.Logger

	mu         sync.Mutex
	tasks      []task.Task
	processing string // id of the in-flight mutation, "" when idle
}

// New creates a store bound to one view query. The query func is
// evaluated on every fetch, so a now-relative window moves with the
// clock instead of freezing at construction time.
func New(backend Backend, query func() notion.Query) *Store {
	return &Store{
		backend: backend,
		query:   query,
		log:     logging.WithComponent("store"),
	}
}

// Tasks returns a copy of the current snapshot.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Query returns the view query as of now.
func (s *Store) Query() notion.Query { return s.query() }

// Refresh re-runs the view query and replaces the snapshot. A failed
// fetch leaves the previous snapshot in place.
func (s *Store) Refresh(ctx context.Context) error {
	tasks, err := s.backend.QueryTasks(ctx, s.query())
	if err != nil {
		s.log.WithError(err).Error("refresh failed")
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	return nil
}

// Create adds a task with the backend's default state and tags, then
// re-fetches and returns the new record id. There is no optimistic
// insert; consistency favors the re-query over local prediction.
func (s *Store) Create(ctx context.Context, name, date string) (string, error) {
	if !s.begin("new") {
		return "", ErrBusy
	}
	defer s.end()

	id, err := s.backend.CreateTask(ctx, name, date)
	if err != nil {
		return "", err
	}
	return id, s.Refresh(ctx)
}

// Update applies a partial update to one task, then re-fetches.
func (s *Store) Update(ctx context.Context, id string, u notion.TaskUpdate) error {
	if !s.begin(id) {
		return ErrBusy
	}
	defer s.end()

	if err := s.backend.UpdateTask(ctx, id, u); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Complete marks one task done and removes it from the snapshot
// immediately rather than waiting for the next fetch. This is the one
// optimistic mutation: the completing view only shows incomplete tasks,
// and immediate removal avoids flashing the finished item. Completing
// an id that is no longer present is harmless.
func (s *Store) Complete(ctx context.Context, id string) error {
	if !s.begin(id) {
		return ErrBusy
	}
	defer s.end()

	if err := s.backend.CompleteTask(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()
	return nil
}

// Processing returns the id of the in-flight mutation, or "" when idle.
func (s *Store) Processing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// begin claims the mutation gate; it reports false when another
// mutation is already in flight.
func (s *Store) begin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing != "" {
		return false
	}
	s.processing = id
	return true
}

// end releases the gate. It always runs, success or failure, so a
// failed mutation leaves the snapshot untouched but never wedges the
// store.
func (s *Store) end() {
	s.mu.Lock()
	s.processing = ""
	s.mu.Unlock()
}

// Poll re-fetches on a fixed interval until the context is canceled.
// Fetch errors are logged and the loop keeps going; views tolerate a
// stale snapshot until the next tick.
func (s *Store) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}
