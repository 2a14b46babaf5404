package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/activity"
	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/question"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// GET /api/workspace
func (s *server) WorkspaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.load(r.Context())
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "load workspace")
			return
		}
		if ws.Questions == nil {
			ws.Questions = []question.Question{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"workspace":   ws,
			"total_marks": question.TotalMarks(ws.Questions),
		})
	}
}

// POST /api/workspace/reorder  {"ids": [...]}
// The whole new order is applied in one update.
func (s *server) ReorderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, "bad json")
			return
		}
		ws, err := s.update(r.Context(), func(w *workspace.Workspace) error {
			qs, err := question.Reorder(w.Questions, req.IDs)
			if err != nil {
				return err
			}
			w.Questions = qs
			return nil
		})
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ids": question.IDs(ws.Questions)})
	}
}

// POST /api/render  {"text": "..."}
func (s *server) RenderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, "bad json")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"html": string(s.html(req.Text))})
	}
}

// GET /api/activity?limit=20
func (s *server) ActivityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
			limit = n
		}
		evs, err := s.Activity.Recent(r.Context(), auth.SessionFromContext(r.Context()), limit)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "load activity")
			return
		}
		if evs == nil {
			evs = []activity.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": evs})
	}
}

// record appends to the session's activity log. Failures are logged only.
func (s *server) record(ctx context.Context, typ, key string, data any) {
	e := activity.Event{Session: auth.SessionFromContext(ctx), Type: typ, Key: key}
	if data != nil {
		e.Data = activity.Data(data)
	}
	if err := s.Activity.Append(ctx, e); err != nil {
		s.Log.Warn("append activity", zap.String("type", typ), zap.Error(err))
	}
}
