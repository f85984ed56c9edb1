package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jayphen/gleis/internal/datewindow"
	"github.com/jayphen/gleis/internal/notion"
	"github.com/jayphen/gleis/internal/task"
)

// fakeBackend serves a mutable task set and can be made to fail or to
// block until released.
type fakeBackend struct {
	mu        sync.Mutex
	tasks     []task.Task
	queries   []notion.Query
	queryErr  error
	mutateErr error
	block     chan struct{} // non-nil: mutations wait until closed

	creates   int
	completes []string
	updates   []string
}

func (f *fakeBackend) QueryTasks(ctx context.Context, q notion.Query) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := make([]task.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeBackend) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeBackend) CreateTask(ctx context.Context, name, date string) (string, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return "", f.mutateErr
	}
	f.creates++
	return "created-id", nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, id string, u notion.TaskUpdate) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.updates = append(f.updates, id)
	return nil
}

func (f *fakeBackend) CompleteTask(ctx context.Context, id string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.completes = append(f.completes, id)
	return nil
}

func emptyQuery() notion.Query { return notion.Query{} }

func taskSet(ids ...string) []task.Task {
	out := make([]task.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, task.Task{ID: id, Name: "task " + id})
	}
	return out
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a", "b")}
	s := New(backend, emptyQuery)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if got := len(s.Tasks()); got != 2 {
		t.Fatalf("got %d tasks, want 2", got)
	}

	// A re-fetch fully replaces the set, no merge.
	backend.mu.Lock()
	backend.tasks = taskSet("c")
	backend.mu.Unlock()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "c" {
		t.Errorf("snapshot = %v, want just c", tasks)
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a")}
	s := New(backend, emptyQuery)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}

	backend.mu.Lock()
	backend.queryErr = errors.New("boom")
	backend.mu.Unlock()

	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() should have failed")
	}
	if got := len(s.Tasks()); got != 1 {
		t.Errorf("snapshot lost on failed refresh: %d tasks", got)
	}
}

func TestCreateRefetches(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a")}
	s := New(backend, emptyQuery)

	id, err := s.Create(context.Background(), "Buy milk", "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if id != "created-id" {
		t.Errorf("id = %q, want created-id", id)
	}
	if backend.creates != 1 {
		t.Errorf("creates = %d, want 1", backend.creates)
	}
	// Snapshot came from the re-fetch.
	if got := len(s.Tasks()); got != 1 {
		t.Errorf("got %d tasks, want 1", got)
	}
	if s.Processing() != "" {
		t.Errorf("processing = %q, want idle", s.Processing())
	}
}

func TestCompleteRemovesOptimistically(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a", "b")}
	s := New(backend, emptyQuery)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.Complete(context.Background(), "a"); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}

	// Removed locally without a re-fetch; the backend still reports both.
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "b" {
		t.Errorf("snapshot = %v, want just b", tasks)
	}
}

func TestCompleteTwiceIsHarmless(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a")}
	s := New(backend, emptyQuery)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.Complete(context.Background(), "a"); err != nil {
		t.Fatalf("first Complete() failed: %v", err)
	}
	if err := s.Complete(context.Background(), "a"); err != nil {
		t.Fatalf("second Complete() failed: %v", err)
	}

	if got := len(s.Tasks()); got != 0 {
		t.Errorf("got %d tasks, want 0", got)
	}
	if s.Processing() != "" {
		t.Errorf("processing = %q, want idle after double complete", s.Processing())
	}
}

func TestMutationGateRejectsSecond(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a"), block: make(chan struct{})}
	s := New(backend, emptyQuery)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.Update(context.Background(), "a", notion.TaskUpdate{})
	}()

	// Wait until the first mutation holds the gate.
	for s.Processing() == "" {
		time.Sleep(time.Millisecond)
	}

	if err := s.Complete(context.Background(), "a"); !errors.Is(err, ErrBusy) {
		t.Errorf("second mutation error = %v, want ErrBusy", err)
	}

	close(backend.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first mutation failed: %v", err)
	}
	if s.Processing() != "" {
		t.Errorf("processing = %q, want idle", s.Processing())
	}
}

func TestFailedMutationLeavesStateAndClearsGate(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a"), mutateErr: errors.New("upstream down")}
	s := New(backend, emptyQuery)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.Complete(context.Background(), "a"); err == nil {
		t.Fatal("Complete() should have failed")
	}

	// No optimistic removal on failure, and the gate is clear again.
	if got := len(s.Tasks()); got != 1 {
		t.Errorf("got %d tasks, want 1", got)
	}
	if s.Processing() != "" {
		t.Errorf("processing = %q, want idle", s.Processing())
	}

	// The store accepts the next mutation.
	backend.mu.Lock()
	backend.mutateErr = nil
	backend.mu.Unlock()
	if err := s.Update(context.Background(), "a", notion.TaskUpdate{}); err != nil {
		t.Errorf("mutation after failure failed: %v", err)
	}
}

func TestRefreshEvaluatesQueryPerFetch(t *testing.T) {
	backend := &fakeBackend{tasks: taskSet("a")}

	// A rolling window bound to a moving clock.
	now := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	s := New(backend, func() notion.Query {
		return notion.Query{Window: datewindow.Rolling(now)}
	})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Six weeks later the board must have moved with the clock.
	now = now.AddDate(0, 0, 42)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	first := backend.queries[0].Window
	second := backend.queries[1].Window
	if first.StartDate() != "2023-12-01" || first.EndDate() != "2024-01-14" {
		t.Errorf("first window = [%s, %s]", first.StartDate(), first.EndDate())
	}
	if second.StartDate() != "2024-01-01" || second.EndDate() != "2024-02-25" {
		t.Errorf("second window = [%s, %s], want [2024-01-01, 2024-02-25]",
			second.StartDate(), second.EndDate())
	}
}
