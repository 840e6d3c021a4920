package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"buildhooks/internal/build"
	"buildhooks/internal/logging"
	"buildhooks/internal/subscribers"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.store != nil {
		resp.SettingsFile = s.store.Path()
		resp.Projects = len(s.store.Projects())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	ids := s.store.Projects()
	resp := ProjectsResponse{Projects: make([]WebhooksResponse, 0, len(ids))}
	for _, id := range ids {
		resp.Projects = append(resp.Projects, WebhooksResponse{ProjectID: id, URLs: s.store.URLsFor(id)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	writeJSON(w, http.StatusOK, WebhooksResponse{ProjectID: projectID, URLs: s.store.URLsFor(projectID)})
}

func (s *Server) handleAddWebhook(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	var req AddWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := s.store.Add(projectID, req.URL); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, WebhooksResponse{ProjectID: projectID, URLs: s.store.URLsFor(strings.TrimSpace(projectID))})
}

func (s *Server) handleRemoveWebhook(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := s.store.Remove(projectID, r.URL.Query().Get("url")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBuildFinished(w http.ResponseWriter, r *http.Request) {
	var facts build.Facts
	if err := decodeJSON(r, &facts); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(facts.ProjectID) == "" || strings.TrimSpace(facts.FullName) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "projectId and fullName are required"})
		return
	}
	// A disconnecting caller must not cancel deliveries already underway.
	report := s.notifier.Notify(context.WithoutCancel(r.Context()), facts)
	writeJSON(w, http.StatusAccepted, report)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, subscribers.ErrInvalidArgument) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	logging.ErrorWithContext(s.logger, "settings update failed", "settings_write_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check settings directory permissions and free space"))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "settings update failed"})
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", logging.Error(err))
	}
}
