package http

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-worksheets/internal/activity"
	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/export"
)

// POST /export  format=pdf|txt|html answers=1 filename=...
func (s *server) ExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		m := formMode(r)
		f, err := export.ParseFormat(r.FormValue("format"))
		if err != nil {
			s.fail(w, r, m, err, "Unsupported export format")
			return
		}
		ws, err := s.load(ctx)
		if err != nil {
			http.Error(w, "load workspace", http.StatusInternalServerError)
			return
		}
		if len(ws.Questions) == 0 {
			s.fail(w, r, m, errors.New("empty workspace"), "Nothing to export yet, generate some questions first")
			return
		}

		release, err := s.Guard.Acquire(auth.SessionFromContext(ctx), "export")
		if err != nil {
			http.Error(w, "Export already in progress", http.StatusConflict)
			return
		}
		defer release()

		a, err := s.Exporter.Export(ctx, ws.Topic, ws.Questions, export.Options{
			Format:         f,
			IncludeAnswers: formBool(r, "answers"),
			Filename:       r.FormValue("filename"),
		})
		if err != nil {
			s.fail(w, r, m, err, fmt.Sprintf("Failed to export %s", f))
			return
		}
		s.record(ctx, activity.TypeExport, string(f), map[string]any{
			"filename": a.Filename,
			"answers":  formBool(r, "answers"),
		})
		w.Header().Set("Content-Type", a.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
		w.Header().Set("Content-Length", strconv.Itoa(len(a.Body)))
		_, _ = w.Write(a.Body)
	}
}

// GET /transcript
func (s *server) TranscriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.load(r.Context())
		if err != nil {
			http.Error(w, "load workspace", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(s.Exporter.Transcript(ws.Questions)))
	}
}
