// Package notion wraps the hosted task database behind a small typed
// surface: windowed queries that accumulate every page of results and
// normalize them into canonical tasks, plus the create/update/complete
// /delete mutations the dashboard issues.
package notion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/jayphen/gleis/internal/config"
	"github.com/jayphen/gleis/internal/datewindow"
)

var (
	// ErrNotConfigured is returned when the API key or database ID is missing.
	ErrNotConfigured = errors.New("notion is not configured")

	// ErrUpstream wraps failures reported by the Notion API.
	ErrUpstream = errors.New("notion request failed")
)

// queryPageSize is the page size requested per query call. The service
// caps pages at 100 results; callers must follow cursors regardless.
const queryPageSize = 100

// Query describes one view's fetch intent. Exactly one mode applies:
// fiscal-year project mode when FiscalYear is set, otherwise a flat
// date-window query. CatTag, when non-empty, constrains either mode.
type Query struct {
	Window     datewindow.Window
	FiscalYear int
	CatTag     string
}

// FiscalMode reports whether the query uses the project-tracker filter.
func (q Query) FiscalMode() bool { return q.FiscalYear != 0 }

// Signature returns a stable key identifying the query, used for
// snapshot caching.
func (q Query) Signature() string {
	if q.FiscalMode() {
		return fmt.Sprintf("fy:%d:tag:%s", q.FiscalYear, q.CatTag)
	}
	return fmt.Sprintf("win:%s:%s:tag:%s", q.Window.StartDate(), q.Window.EndDate(), q.CatTag)
}

// TaskUpdate carries the fields of a partial update. Nil pointers mean
// "leave unchanged". An empty or "null" Date string clears the date.
type TaskUpdate struct {
	Name   *string
	Date   *string
	Status *string
}

// databaseAPI and pageAPI are the slices of the notionapi client the
// wrapper uses; tests substitute fakes.
type databaseAPI interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type pageAPI interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// Client talks to one Notion task database.
type Client struct {
	db    databaseAPI
	pages pageAPI
	dbID  notionapi.DatabaseID
	cfg   config.NotionConfig
}

// New creates a client from the Notion section of the configuration.
func New(cfg config.NotionConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key not set", ErrNotConfigured)
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("%w: database id not set", ErrNotConfigured)
	}

	api := notionapi.NewClient(notionapi.Token(cfg.APIKey))
	return &Client{
		db:    api.Database,
		pages: api.Page,
		dbID:  notionapi.DatabaseID(cfg.DatabaseID),
		cfg:   cfg,
	}, nil
}

// props is shorthand for the configured property-name map.
func (c *Client) props() config.PropertyNames { return c.cfg.Properties }
