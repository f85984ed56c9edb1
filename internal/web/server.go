// Package web exposes the dashboard's HTTP surface: scoped task
// queries, the mutation endpoints, persisted UI preferences, and the
// basic-auth gate in front of them.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jayphen/gleis/internal/cache"
	"github.com/jayphen/gleis/internal/config"
	"github.com/jayphen/gleis/internal/datewindow"
	"github.com/jayphen/gleis/internal/logging"
	"github.com/jayphen/gleis/internal/notion"
	"github.com/jayphen/gleis/internal/store"
	"github.com/jayphen/gleis/internal/task"
)

// Backend is the database surface the server consumes.
type Backend interface {
	store.Backend
	DeleteTask(ctx context.Context, id string) error
}

// Server handles the dashboard HTTP routes.
type Server struct {
	cfg     *config.Config
	backend Backend
	board   *store.Store
	cache   *cache.Cache // nil when no Redis is configured
	log     *logging.Logger
	now     func() time.Time

	// settings fallback when no cache is configured
	settingsMu sync.Mutex
	settings   map[string]string
}

// NewServer wires the server. board is the store behind the unscoped
// default view; cache may be nil.
func NewServer(cfg *config.Config, backend Backend, board *store.Store, c *cache.Cache) *Server {
	return &Server{
		cfg:      cfg,
		backend:  backend,
		board:    board,
		cache:    c,
		log:      logging.WithComponent("web"),
		now:      time.Now,
		settings: make(map[string]string),
	}
}

// Handler returns the routed handler with logging and auth applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /tasks", s.handleTasks)
	mux.HandleFunc("GET /tasks/week", s.handleWeek)
	mux.HandleFunc("POST /tasks/create", s.handleCreate)
	mux.HandleFunc("POST /tasks/update", s.handleUpdate)
	mux.HandleFunc("POST /tasks/complete", s.handleComplete)
	mux.HandleFunc("POST /tasks/delete", s.handleDelete)
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("POST /settings", s.handlePutSettings)
	return s.withRequestLog(s.withBasicAuth(mux))
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
		s.log.WithError(err).Error(msg)
	}
	writeJSON(w, status, resp)
}

// handleHealthz reports configuration and cache health. It is the one
// ungated route.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	redisState := "off"
	if s.cache != nil {
		redisState = "ok"
		if err := s.cache.Ping(r.Context()); err != nil {
			redisState = "error"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"redis":  redisState,
	})
}

// handleTasks serves the scoped task queries. With no parameters it
// returns the board store's snapshot of the rolling default window;
// date, month, and fiscalYear parameters each select their own window,
// and catTag constrains any mode.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	catTag := params.Get("catTag")

	var q notion.Query
	switch {
	case params.Get("fiscalYear") != "":
		fy, err := strconv.Atoi(params.Get("fiscalYear"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid fiscalYear", err)
			return
		}
		q = notion.Query{FiscalYear: fy, CatTag: catTag}

	case params.Get("month") != "":
		win, err := datewindow.MonthOf(params.Get("month"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid month", err)
			return
		}
		q = notion.Query{Window: win, CatTag: catTag}

	case params.Get("date") != "":
		win, err := datewindow.Day(params.Get("date"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
		q = notion.Query{Window: win, CatTag: catTag}

	default:
		// The board view is served from its polled store.
		tasks := s.board.Tasks()
		if len(tasks) == 0 {
			if err := s.board.Refresh(r.Context()); err != nil {
				s.writeError(w, http.StatusInternalServerError, "failed to fetch tasks", err)
				return
			}
			tasks = s.board.Tasks()
		}
		s.snapshot(r.Context(), s.board.Query(), tasks)
		writeJSON(w, http.StatusOK, tasks)
		return
	}

	tasks, err := s.backend.QueryTasks(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch tasks", err)
		return
	}
	s.snapshot(r.Context(), q, tasks)
	writeJSON(w, http.StatusOK, tasks)
}

// handleWeek serves the current Monday-start week.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	q := notion.Query{
		Window: datewindow.CurrentWeek(s.now()),
		CatTag: r.URL.Query().Get("catTag"),
	}
	tasks, err := s.backend.QueryTasks(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch tasks", err)
		return
	}
	s.snapshot(r.Context(), q, tasks)
	writeJSON(w, http.StatusOK, tasks)
}

// snapshot mirrors a successful query result into the cache, best-effort.
func (s *Server) snapshot(ctx context.Context, q notion.Query, tasks []task.Task) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutView(ctx, q.Signature(), tasks); err != nil {
		s.log.WithError(err).Warn("snapshot write failed")
	}
}

type createRequest struct {
	Name string  `json:"name"`
	Date *string `json:"date"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	date := ""
	if req.Date != nil {
		date = *req.Date
	}

	id, err := s.board.Create(r.Context(), req.Name, date)
	if err != nil {
		s.mutationError(w, err, "failed to create task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

type updateRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Date   *string `json:"date"`
	Status *string `json:"status"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	u := notion.TaskUpdate{Name: req.Name, Date: req.Date, Status: req.Status}
	if err := s.board.Update(r.Context(), req.ID, u); err != nil {
		s.mutationError(w, err, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task updated successfully"})
}

type idRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := s.board.Complete(r.Context(), req.ID); err != nil {
		s.mutationError(w, err, "failed to complete task")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task completed successfully"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := s.backend.DeleteTask(r.Context(), req.ID); err != nil {
		s.mutationError(w, err, "failed to delete task")
		return
	}
	_ = s.board.Refresh(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

// mutationError maps store/backend failures onto the response contract:
// a busy gate is a conflict, anything else is an upstream failure.
func (s *Server) mutationError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrBusy) {
		s.writeError(w, http.StatusConflict, "another mutation is in progress", nil)
		return
	}
	s.writeError(w, http.StatusInternalServerError, msg, err)
}

// handleGetSettings returns the persisted UI preferences.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		settings, err := s.cache.Settings(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to load settings", err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
		return
	}

	s.settingsMu.Lock()
	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	s.settingsMu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// handlePutSettings merges the posted preferences into the persisted set.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if s.cache != nil {
		for k, v := range in {
			if err := s.cache.PutSetting(r.Context(), k, v); err != nil {
				s.writeError(w, http.StatusInternalServerError, "failed to save settings", err)
				return
			}
		}
	} else {
		s.settingsMu.Lock()
		for k, v := range in {
			s.settings[k] = v
		}
		s.settingsMu.Unlock()
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Settings saved"})
}
