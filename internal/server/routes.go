package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/recallkb/recall/internal/engine"
	"github.com/recallkb/recall/internal/store"
)

// validate checks request payloads at the boundary; nothing partially
// validated reaches the engine.
var validate = validator.New()

type linkPayload struct {
	Label string `json:"label" validate:"required"`
	URL   string `json:"url" validate:"required,url"`
}

type createNoteRequest struct {
	Title    string        `json:"title" validate:"required"`
	Content  string        `json:"content" validate:"required"`
	Insights []string      `json:"insights"`
	Tags     []string      `json:"tags"`
	Links    []linkPayload `json:"links" validate:"omitempty,dive"`
}

type updateNoteRequest struct {
	Title    *string        `json:"title" validate:"omitempty,min=1"`
	Content  *string        `json:"content" validate:"omitempty,min=1"`
	Insights *[]string      `json:"insights"`
	Tags     *[]string      `json:"tags"`
	Links    *[]linkPayload `json:"links" validate:"omitempty,dive"`
}

type queryRequest struct {
	Question string `json:"question" validate:"required"`
}

// decodeValid decodes JSON into v and validates it. Returns false after
// writing the 400 response when the payload is unusable.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	return true
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.engine.ListNotes(r.Context(), limitParam(r))
	if err != nil {
		s.fail(w, "list notes", err)
		return
	}

	out := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		out = append(out, renderNote(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": out})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !decodeValid(w, r, &req) {
		return
	}

	note, err := s.engine.CreateNote(r.Context(), engine.CreateNoteInput{
		Title:    req.Title,
		Content:  req.Content,
		Insights: req.Insights,
		Tags:     req.Tags,
		Links:    toLinks(req.Links),
	})
	if err != nil {
		s.fail(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"note": renderNote(*note)})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.engine.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": renderNote(*note)})
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if !decodeValid(w, r, &req) {
		return
	}

	in := engine.UpdateNoteInput{
		Title:    req.Title,
		Content:  req.Content,
		Insights: req.Insights,
		Tags:     req.Tags,
	}
	if req.Links != nil {
		links := toLinks(*req.Links)
		in.Links = &links
	}

	note, err := s.engine.UpdateNote(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": renderNote(*note)})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "delete note", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handlePublicNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.engine.ListNotes(r.Context(), limitParam(r))
	if err != nil {
		s.fail(w, "list public notes", err)
		return
	}

	out := make([]publicNoteJSON, 0, len(notes))
	for _, n := range notes {
		out = append(out, renderPublicNote(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": out})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	result, err := s.engine.Answer(r.Context(), req.Question)
	if err != nil {
		s.fail(w, "answer query", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	if s.cronSecret != "" && r.Header.Get("x-cron-secret") != s.cronSecret {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	report, err := s.engine.RunDecay(r.Context())
	if err != nil {
		s.fail(w, "decay run", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// fail maps engine/store errors onto the HTTP taxonomy.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}

func toLinks(payload []linkPayload) []store.Link {
	links := make([]store.Link, 0, len(payload))
	for _, l := range payload {
		links = append(links, store.Link{Label: l.Label, URL: l.URL})
	}
	return links
}
