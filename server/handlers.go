package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gaurav-prasanna/codecapsule/core"
	"github.com/gaurav-prasanna/codecapsule/core/output"
	"github.com/gaurav-prasanna/codecapsule/core/render"
	"github.com/gaurav-prasanna/codecapsule/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
	maxListOffset    = 10000
)

// handleCreateStream runs the capsule pipeline for ?url= and streams
// progress to the client as server-sent events. Each progress event is
// sent as `event: progress`; the run ends with exactly one
// `completed` or `failed` event, after which the stream closes.
func (s *Server) handleCreateStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, string(core.ErrUnauthorized), "Unauthorized")
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, string(core.ErrInvalidURL), "Invalid URL")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	terminal := false
	emit := func(ev core.ProgressEvent) {
		name := "progress"
		switch ev.Step {
		case core.StepCompleted:
			name, terminal = "completed", true
		case core.StepFailed:
			name, terminal = "failed", true
		}
		writeSSE(w, name, ev)
		flusher.Flush()
	}

	result := s.runner.Run(r.Context(), rawURL, userID, emit)

	// Precondition failures return before any event is emitted; the
	// stream still owes the client a terminal event.
	if !terminal {
		ev := core.ProgressEvent{Step: core.StepFailed, Message: "Capsule creation failed"}
		if result.Err != nil {
			ev.Error = result.Err.Message
		}
		writeSSE(w, "failed", ev)
		flusher.Flush()
	}
}

// progressRequest is the body for POST /api/capsule/progress.
type progressRequest struct {
	CapsuleID       string   `json:"capsule_id"`
	LastPageRead    *int     `json:"last_page_read,omitempty"`
	OverallProgress *float64 `json:"overall_progress,omitempty"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, string(core.ErrUnauthorized), "Unauthorized")
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CapsuleID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "capsule_id is required")
		return
	}

	upd := store.ProgressUpdate{
		LastPageRead:    req.LastPageRead,
		OverallProgress: req.OverallProgress,
	}
	if err := s.store.UpsertProgress(r.Context(), userID, req.CapsuleID, upd); err != nil {
		s.log.Error("progress upsert failed", "capsule_id", req.CapsuleID, "error", err)
		writeError(w, http.StatusInternalServerError, string(core.ErrPersistence), "Failed to save progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// bookmarkRequest is the body for POST /api/capsule/bookmark.
type bookmarkRequest struct {
	CapsuleID  string `json:"capsule_id"`
	Bookmarked bool   `json:"bookmarked"`
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, string(core.ErrUnauthorized), "Unauthorized")
		return
	}

	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CapsuleID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "capsule_id is required")
		return
	}

	upd := store.ProgressUpdate{Bookmarked: &req.Bookmarked}
	if err := s.store.UpsertProgress(r.Context(), userID, req.CapsuleID, upd); err != nil {
		s.log.Error("bookmark update failed", "capsule_id", req.CapsuleID, "error", err)
		writeError(w, http.StatusInternalServerError, string(core.ErrPersistence), "Failed to save bookmark")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "bookmarked": req.Bookmarked})
}

// handleListCapsules serves the public feed. Signed-in users can
// narrow it with ?view=mine|bookmarked|continue; anonymous listings
// are read through the cache.
func (s *Server) handleListCapsules(w http.ResponseWriter, r *http.Request) {
	limit := clamp(queryInt(r, "limit", defaultListLimit), 1, maxListLimit)
	offset := clamp(queryInt(r, "offset", 0), 0, maxListOffset)
	userID, authed := s.userID(r)

	view := r.URL.Query().Get("view")
	if view != "" && !authed {
		writeError(w, http.StatusUnauthorized, string(core.ErrUnauthorized), "Unauthorized")
		return
	}

	var (
		items []store.CapsuleWithProgress
		err   error
	)
	switch view {
	case "":
		if authed {
			items, err = s.store.ListPublicWithProgress(r.Context(), userID, limit, offset)
			break
		}
		key := fmt.Sprintf("capsules:list:%d:%d", limit, offset)
		if s.cache != nil {
			if cached, hit := s.cache.Get(key); hit {
				items = cached.([]store.CapsuleWithProgress)
				break
			}
		}
		items, err = s.store.ListPublic(r.Context(), limit, offset)
		if err == nil && s.cache != nil {
			s.cache.Set(key, items)
		}
	case "mine":
		items, err = s.store.ListByUser(r.Context(), userID)
	case "bookmarked":
		items, err = s.store.ListBookmarked(r.Context(), userID, limit, offset)
	case "continue":
		var pick *store.CapsuleWithProgress
		pick, err = s.store.ContinueLearning(r.Context(), userID)
		switch {
		case err == nil:
			items = []store.CapsuleWithProgress{*pick}
		case errors.Is(err, store.ErrNotFound):
			// Nothing in progress yet is an empty result, not a failure.
			err = nil
		}
	default:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown view")
		return
	}

	if err != nil {
		s.log.Error("capsule listing failed", "view", view, "error", err)
		writeError(w, http.StatusInternalServerError, string(core.ErrPersistence), "Failed to list capsules")
		return
	}
	if items == nil {
		items = []store.CapsuleWithProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"capsules": items})
}

func (s *Server) handleGetCapsule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if userID, authed := s.userID(r); authed {
		c, err := s.store.GetCapsuleWithProgress(r.Context(), id, userID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
		return
	}

	c, err := s.store.GetCapsule(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// pageResponse is a single capsule page for the reader.
type pageResponse struct {
	CapsuleID  string `json:"capsule_id"`
	Title      string `json:"title"`
	Page       int    `json:"page"`
	PageTitle  string `json:"page_title"`
	Body       string `json:"body"`
	TotalPages int    `json:"total_pages"`
}

// handleGetPage serves one page of a capsule. With ?format=html the
// page body is rendered to HTML instead of returned as Markdown.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid page number")
		return
	}

	c, err := s.store.GetCapsule(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if n > len(c.Content.Pages) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "page not found")
		return
	}
	page := c.Content.Pages[n-1]

	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(page.Body), &buf); err != nil {
			s.log.Error("page render failed", "capsule_id", id, "page", n, "error", err)
			writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "Failed to render page")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{
		CapsuleID:  c.ID,
		Title:      c.Title,
		Page:       page.Page,
		PageTitle:  page.PageTitle,
		Body:       page.Body,
		TotalPages: c.TotalPages,
	})
}

// handleExport downloads a capsule as md, json, or pdf.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var renderer render.Renderer
	switch format := r.URL.Query().Get("format"); format {
	case "", "md":
		renderer = render.NewMarkdownRenderer()
	case "json":
		renderer = render.NewJSONRenderer()
	case "pdf":
		renderer = render.NewPDFRenderer()
	default:
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown export format")
		return
	}

	c, err := s.store.GetCapsule(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	data, err := renderer.Render(c)
	if err != nil {
		s.log.Error("export render failed", "capsule_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "Failed to export capsule")
		return
	}

	ext := renderer.Extension()
	w.Header().Set("Content-Type", contentTypeFor(ext))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.Filename(c.Title)+ext))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Capsule not found")
		return
	}
	s.log.Error("storage read failed", "error", err)
	writeError(w, http.StatusInternalServerError, string(core.ErrPersistence), "Storage error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func writeSSE(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
