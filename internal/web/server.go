// Package web exposes the orchestrator over a small JSON HTTP API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ButterFlowQ/DesignGen/internal/document"
	"github.com/ButterFlowQ/DesignGen/internal/llm"
	"github.com/ButterFlowQ/DesignGen/internal/orchestrator"
)

// Server routes HTTP requests to the orchestrator.
type Server struct {
	orch *orchestrator.Orchestrator
	mux  *http.ServeMux
}

// NewServer builds the server and its routes.
func NewServer(orch *orchestrator.Orchestrator) *Server {
	s := &Server{orch: orch, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /documents", s.handleCreateDocument)
	s.mux.HandleFunc("GET /documents", s.handleListDocuments)
	s.mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	s.mux.HandleFunc("GET /documents/{id}/versions", s.handleListVersions)
	s.mux.HandleFunc("GET /documents/{id}/messages", s.handleListMessages)
	s.mux.HandleFunc("POST /documents/{id}/revert", s.handleRevert)
	s.mux.HandleFunc("POST /documents/{id}/chat", s.handleChat)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type documentJSON struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	SchemaName    string `json:"schema_name"`
	LatestVersion int    `json:"latest_version"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type versionJSON struct {
	Version      int                        `json:"version"`
	Elements     map[string]json.RawMessage `json:"elements"`
	HTMLElements map[string]json.RawMessage `json:"html_elements,omitempty"`
	IsActive     bool                       `json:"is_active"`
	CreatedAt    string                     `json:"created_at"`
}

type messageJSON struct {
	ID            int64  `json:"id"`
	FromAgentType string `json:"from_agent_type"`
	Message       string `json:"message"`
	CreatedAt     string `json:"created_at"`
}

func toDocumentJSON(d document.Document) documentJSON {
	return documentJSON{
		ID: d.ID, Title: d.Title, SchemaName: d.SchemaName,
		LatestVersion: d.LatestVersion, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func toVersionJSON(v document.Version) versionJSON {
	return versionJSON{
		Version: v.Version, Elements: v.Elements, HTMLElements: v.HTMLElements,
		IsActive: v.IsActive, CreatedAt: v.CreatedAt,
	}
}

func toMessageJSON(m document.Message) messageJSON {
	return messageJSON{ID: m.ID, FromAgentType: m.FromAgentType, Message: m.Message, CreatedAt: m.CreatedAt}
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	doc, version, err := s.orch.CreateDocument(r.Context(), req.Title)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"document": toDocumentJSON(doc),
		"version":  toVersionJSON(version),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.orch.ListDocuments(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	out := make([]documentJSON, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentJSON(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, active, err := s.orch.GetDocument(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document": toDocumentJSON(doc),
		"version":  toVersionJSON(active),
	})
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	versions, err := s.orch.ListVersions(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	out := make([]versionJSON, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionJSON(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": out})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	messages, err := s.orch.ListMessages(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	out := make([]messageJSON, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Version int `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Version < 1 {
		writeError(w, http.StatusBadRequest, "version is required")
		return
	}
	version, err := s.orch.Revert(r.Context(), id, req.Version)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": toVersionJSON(version)})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
		Target  string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	res, err := s.orch.HandleTurn(r.Context(), id, req.Target, req.Message)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_message":  toMessageJSON(res.UserMessage),
		"agent_message": toMessageJSON(res.AgentMessage),
		"version":       toVersionJSON(res.Version),
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var routingErr *orchestrator.RoutingError
	var contractErr *llm.ContractError
	switch {
	case errors.Is(err, document.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, document.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &routingErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &contractErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
