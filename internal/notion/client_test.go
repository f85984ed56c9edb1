package notion

import (
	"context"
	"fmt"
	"testing"

	"github.com/jomei/notionapi"

	"github.com/jayphen/gleis/internal/datewindow"
)

// fakeDatabase serves canned query pages and records requests.
type fakeDatabase struct {
	pages    [][]notionapi.Page
	requests []*notionapi.DatabaseQueryRequest
	err      error
}

func (f *fakeDatabase) Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	call := len(f.requests)
	f.requests = append(f.requests, req)
	if call >= len(f.pages) {
		return &notionapi.DatabaseQueryResponse{}, nil
	}
	return &notionapi.DatabaseQueryResponse{
		Results:    f.pages[call],
		HasMore:    call < len(f.pages)-1,
		NextCursor: notionapi.Cursor(fmt.Sprintf("cursor-%d", call+1)),
	}, nil
}

// fakePages records mutations.
type fakePages struct {
	created []*notionapi.PageCreateRequest
	updated []struct {
		id  notionapi.PageID
		req *notionapi.PageUpdateRequest
	}
	err error
}

func (f *fakePages) Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	return &notionapi.Page{ID: "new-id"}, nil
}

func (f *fakePages) Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, struct {
		id  notionapi.PageID
		req *notionapi.PageUpdateRequest
	}{id, req})
	return &notionapi.Page{ID: notionapi.ObjectID(id)}, nil
}

func testClient(db *fakeDatabase, pages *fakePages) *Client {
	return &Client{
		db:    db,
		pages: pages,
		dbID:  "db",
		cfg:   testConfig(),
	}
}

func makePages(n int, prefix string) []notionapi.Page {
	out := make([]notionapi.Page, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fullPage(fmt.Sprintf("%s-%d", prefix, i), notionapi.Properties{
			"Name": titleProp(fmt.Sprintf("task %s-%d", prefix, i)),
		}))
	}
	return out
}

func TestQueryTasksAccumulatesAllPages(t *testing.T) {
	db := &fakeDatabase{pages: [][]notionapi.Page{
		makePages(100, "a"),
		makePages(100, "b"),
		makePages(37, "c"),
	}}
	c := testClient(db, &fakePages{})

	tasks, err := c.QueryTasks(context.Background(), Query{
		Window: datewindow.FiscalYear(2024),
	})
	if err != nil {
		t.Fatalf("QueryTasks() failed: %v", err)
	}

	if len(tasks) != 237 {
		t.Fatalf("got %d tasks, want 237", len(tasks))
	}

	// No duplicates.
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if seen[task.ID] {
			t.Fatalf("duplicate task id %s", task.ID)
		}
		seen[task.ID] = true
	}

	// Three calls, following the cursor.
	if len(db.requests) != 3 {
		t.Fatalf("made %d query calls, want 3", len(db.requests))
	}
	if db.requests[0].StartCursor != "" {
		t.Errorf("first call cursor = %q, want empty", db.requests[0].StartCursor)
	}
	if db.requests[1].StartCursor != "cursor-1" || db.requests[2].StartCursor != "cursor-2" {
		t.Errorf("cursors not followed: %q, %q",
			db.requests[1].StartCursor, db.requests[2].StartCursor)
	}
	for _, req := range db.requests {
		if req.PageSize != 100 {
			t.Errorf("page size = %d, want 100", req.PageSize)
		}
	}
}

func TestQueryTasksSortsAscendingByDate(t *testing.T) {
	db := &fakeDatabase{pages: [][]notionapi.Page{nil}}
	c := testClient(db, &fakePages{})

	if _, err := c.QueryTasks(context.Background(), Query{Window: datewindow.FiscalYear(2024)}); err != nil {
		t.Fatalf("QueryTasks() failed: %v", err)
	}

	sorts := db.requests[0].Sorts
	if len(sorts) != 1 {
		t.Fatalf("got %d sorts, want 1", len(sorts))
	}
	if sorts[0].Property != "Date" || sorts[0].Direction != notionapi.SortOrderASC {
		t.Errorf("sort = %s %s, want Date ascending", sorts[0].Property, sorts[0].Direction)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	pages := &fakePages{}
	c := testClient(&fakeDatabase{}, pages)

	id, err := c.CreateTask(context.Background(), "", "")
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	if id != "new-id" {
		t.Errorf("id = %q, want new-id", id)
	}

	req := pages.created[0]
	if req.Parent.DatabaseID != "db" {
		t.Errorf("parent database = %q, want db", req.Parent.DatabaseID)
	}

	title := req.Properties["Name"].(notionapi.TitleProperty)
	if got := title.Title[0].Text.Content; got != "新規タスク" {
		t.Errorf("default name = %q, want 新規タスク", got)
	}

	state := req.Properties["State"].(notionapi.StatusProperty)
	if state.Status.Name != "INBOX" {
		t.Errorf("default state = %q, want INBOX", state.Status.Name)
	}

	cat := req.Properties["Cat"].(notionapi.MultiSelectProperty)
	if cat.MultiSelect[0].Name != "Work" {
		t.Errorf("default cat = %q, want Work", cat.MultiSelect[0].Name)
	}
	sub := req.Properties["SubCat"].(notionapi.MultiSelectProperty)
	if sub.MultiSelect[0].Name != "Task" {
		t.Errorf("default sub cat = %q, want Task", sub.MultiSelect[0].Name)
	}

	// No date given, none sent.
	if _, ok := req.Properties["Date"]; ok {
		t.Error("date property sent for an unscheduled task")
	}
}

func TestCreateTaskWithDate(t *testing.T) {
	pages := &fakePages{}
	c := testClient(&fakeDatabase{}, pages)

	if _, err := c.CreateTask(context.Background(), "Buy milk", "2024-06-12"); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}

	req := pages.created[0]
	date := req.Properties["Date"].(notionapi.DateProperty)
	if date.Date == nil || date.Date.Start == nil {
		t.Fatal("date start not set")
	}

	if _, err := c.CreateTask(context.Background(), "x", "not-a-date"); err == nil {
		t.Error("CreateTask() with a bad date should fail")
	}
}

func TestUpdateTaskPartialFields(t *testing.T) {
	pages := &fakePages{}
	c := testClient(&fakeDatabase{}, pages)

	name := "renamed"
	if err := c.UpdateTask(context.Background(), "id-1", TaskUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateTask() failed: %v", err)
	}

	req := pages.updated[0].req
	if len(req.Properties) != 1 {
		t.Fatalf("sent %d properties, want 1", len(req.Properties))
	}
	title := req.Properties["Name"].(notionapi.TitleProperty)
	if title.Title[0].Text.Content != "renamed" {
		t.Errorf("name = %q, want renamed", title.Title[0].Text.Content)
	}
}

func TestUpdateTaskClearsDate(t *testing.T) {
	for _, sentinel := range []string{"", "null"} {
		pages := &fakePages{}
		c := testClient(&fakeDatabase{}, pages)

		if err := c.UpdateTask(context.Background(), "id-1", TaskUpdate{Date: &sentinel}); err != nil {
			t.Fatalf("UpdateTask(%q) failed: %v", sentinel, err)
		}

		date := pages.updated[0].req.Properties["Date"].(notionapi.DateProperty)
		if date.Date != nil {
			t.Errorf("sentinel %q did not clear the date", sentinel)
		}
	}
}

func TestUpdateTaskNoFieldsIsNoop(t *testing.T) {
	pages := &fakePages{}
	c := testClient(&fakeDatabase{}, pages)

	if err := c.UpdateTask(context.Background(), "id-1", TaskUpdate{}); err != nil {
		t.Fatalf("UpdateTask() failed: %v", err)
	}
	if len(pages.updated) != 0 {
		t.Error("empty update must not call the service")
	}
}

func TestCompleteTaskSetsDoneState(t *testing.T) {
	pages := &fakePages{}
	c := testClient(&fakeDatabase{}, pages)

	if err := c.CompleteTask(context.Background(), "id-1"); err != nil {
		t.Fatalf("CompleteTask() failed: %v", err)
	}

	upd := pages.updated[0]
	if upd.id != "id-1" {
		t.Errorf("updated id = %q, want id-1", upd.id)
	}
	state := upd.req.Properties["State"].(notionapi.StatusProperty)
	if state.Status.Name != "Done" {
		t.Errorf("state = %q, want Done", state.Status.Name)
	}
}

func TestDeleteTaskArchives(t *testing.T) {
	pages := &fakePages{}
	c := testClient(&fakeDatabase{}, pages)

	if err := c.DeleteTask(context.Background(), "id-1"); err != nil {
		t.Fatalf("DeleteTask() failed: %v", err)
	}
	if !pages.updated[0].req.Archived {
		t.Error("delete must archive the page")
	}
}

func TestNewRequiresConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	if _, err := New(cfg); err == nil {
		t.Error("New() without api key should fail")
	}

	cfg = testConfig()
	cfg.DatabaseID = ""
	if _, err := New(cfg); err == nil {
		t.Error("New() without database id should fail")
	}
}

func TestStateMutationAsSelect(t *testing.T) {
	pages := &fakePages{}
	c := testClient(&fakeDatabase{}, pages)
	c.cfg.StateIsSelect = true

	if err := c.CompleteTask(context.Background(), "id-1"); err != nil {
		t.Fatalf("CompleteTask() failed: %v", err)
	}
	state := pages.updated[0].req.Properties["State"].(notionapi.SelectProperty)
	if state.Select.Name != "Done" {
		t.Errorf("state = %q, want Done", state.Select.Name)
	}
}
