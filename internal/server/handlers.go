package server

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/worklog/internal/dates"
	"github.com/thebtf/worklog/internal/format"
	"github.com/thebtf/worklog/internal/snapshot"
	"github.com/thebtf/worklog/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ready"
	code := http.StatusOK
	if !s.ready.Load() {
		status = "starting"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// thresholdParam reads ?threshold=, falling back to the server default.
func (s *Server) thresholdParam(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return s.threshold, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, errors.New("threshold must be a number between 0 and 1")
	}
	return v, nil
}

func periodParam(r *http.Request) (dates.Period, error) {
	return dates.ParsePeriod(chi.URLParam(r, "period"))
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	keys, err := s.snapshots.ListKeys(period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period": period, "keys": keys})
}

// loadSnapshot loads the requested snapshot and recomputes its smart summary.
func (s *Server) loadSnapshot(w http.ResponseWriter, r *http.Request) (models.WorkSummary, bool) {
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.WorkSummary{}, false
	}
	threshold, err := s.thresholdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.WorkSummary{}, false
	}

	key := chi.URLParam(r, "key")
	summary, err := s.snapshots.Load(period, key)
	if errors.Is(err, snapshot.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snapshot not found: "+key)
		return models.WorkSummary{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return models.WorkSummary{}, false
	}

	smart := s.analyzer.BuildSmartSummary(summary.Items, threshold)
	summary.Smart = &smart
	return summary, true
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	body, err := s.renderer.Render(summary, format.JSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

var pageTemplate = template.Must(template.New("snapshot").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; color: #222; }
code { background: #f4f4f4; padding: 0 .25rem; }
hr { border: 0; border-top: 1px solid #ddd; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

func (s *Server) handleSnapshotHTML(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}
	md, err := s.renderer.Render(summary, format.Markdown)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var body bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &body); err != nil {
		http.Error(w, "render markdown: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var page bytes.Buffer
	err = pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: format.Title(summary.DateRange) + " - " + dates.Label(summary.DateRange),
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page.Bytes())
}

func (s *Server) handleHistoryAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}
	threshold, err := s.thresholdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.history.AllItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	smart := s.analyzer.BuildSmartSummary(items, threshold)
	writeJSON(w, http.StatusOK, map[string]any{
		"itemCount":    len(items),
		"threshold":    threshold,
		"smartSummary": smart,
	})
}
