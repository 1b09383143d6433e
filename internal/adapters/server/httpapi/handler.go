// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/evanschultz/gantry/internal/adapters/server/common"
	"github.com/evanschultz/gantry/internal/grid"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// filterParamPrefix marks query parameters that carry column filters.
const filterParamPrefix = "filter."

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	service common.Service
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter.
func NewHandler(service common.Service) *Handler {
	return &Handler{service: service}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "api service is not configured",
		})
		return
	}

	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 1 && parts[0] == "projects":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListProjects(w, r)
	case len(parts) == 3 && parts[0] == "projects" && parts[2] == "archive":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleArchiveProject(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "projects":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		switch parts[2] {
		case "tasks":
			h.handleListTasks(w, r, parts[1])
		case "issues":
			h.handleListIssues(w, r, parts[1])
		case "timeline":
			h.handleTimeline(w, r, parts[1])
		default:
			writeNotFound(w)
		}
	case len(parts) == 2 && parts[1] == "bulk_update" && (parts[0] == "tasks" || parts[0] == "issues"):
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleBulkUpdate(w, r, parts[0])
	case len(parts) == 2 && parts[0] == "tasks":
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w, http.MethodDelete)
			return
		}
		h.handleDeleteTask(w, r, parts[1])
	case len(parts) == 2 && parts[0] == "layouts":
		switch r.Method {
		case http.MethodGet:
			h.handleGetLayout(w, r, parts[1])
		case http.MethodPut:
			h.handleSaveLayout(w, r, parts[1])
		case http.MethodDelete:
			h.handleResetLayout(w, r, parts[1])
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	default:
		writeNotFound(w)
	}
}

// handleListProjects serves GET `/projects`.
func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	includeArchived, err := parseOptionalBool(query.Get("include_archived"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	projects, err := h.service.ListProjects(r.Context(), common.ListProjectsRequest{
		IncludeArchived: includeArchived,
		MemberID:        strings.TrimSpace(query.Get("member_id")),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
	})
}

// handleArchiveProject serves POST `/projects/{id}/archive`.
func (h *Handler) handleArchiveProject(w http.ResponseWriter, r *http.Request, projectID string) {
	project, err := h.service.ArchiveProject(r.Context(), projectID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

// handleListTasks serves GET `/projects/{id}/tasks`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request, projectID string) {
	tasks, err := h.service.ListTasks(r.Context(), common.ListRecordsRequest{
		ProjectID: projectID,
		Filters:   filtersFromQuery(r.URL.Query()),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
	})
}

// handleListIssues serves GET `/projects/{id}/issues`.
func (h *Handler) handleListIssues(w http.ResponseWriter, r *http.Request, projectID string) {
	issues, err := h.service.ListIssues(r.Context(), common.ListRecordsRequest{
		ProjectID: projectID,
		Filters:   filtersFromQuery(r.URL.Query()),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issues": issues,
	})
}

// handleTimeline serves GET `/projects/{id}/timeline`.
func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request, projectID string) {
	var zoom float64
	if raw := strings.TrimSpace(r.URL.Query().Get("zoom")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: fmt.Sprintf("zoom %q must be a positive number", raw),
				Hint:    "zoom is in pixels per day",
			})
			return
		}
		zoom = parsed
	}
	chart, err := h.service.Timeline(r.Context(), common.TimelineRequest{
		ProjectID:    projectID,
		PixelsPerDay: zoom,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// handleBulkUpdate serves POST `/tasks/bulk_update` and `/issues/bulk_update`.
func (h *Handler) handleBulkUpdate(w http.ResponseWriter, r *http.Request, resource string) {
	var req common.BulkUpdateRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if resource == "issues" {
		issues, err := h.service.BulkUpdateIssues(r.Context(), req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
		return
	}
	tasks, err := h.service.BulkUpdateTasks(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleDeleteTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetLayout serves GET `/layouts/{grid}`.
func (h *Handler) handleGetLayout(w http.ResponseWriter, r *http.Request, gridID string) {
	layout, err := h.service.GetLayout(r.Context(), gridID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

// handleSaveLayout serves PUT `/layouts/{grid}`.
func (h *Handler) handleSaveLayout(w http.ResponseWriter, r *http.Request, gridID string) {
	var layout grid.Layout
	if err := decodeJSONBody(r.Context(), w, r, &layout); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if err := h.service.SaveLayout(r.Context(), gridID, layout); err != nil {
		writeErrorFrom(w, err)
		return
	}
	saved, err := h.service.GetLayout(r.Context(), gridID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleResetLayout serves DELETE `/layouts/{grid}`.
func (h *Handler) handleResetLayout(w http.ResponseWriter, r *http.Request, gridID string) {
	if err := h.service.ResetLayout(r.Context(), gridID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// filtersFromQuery collects `filter.<key>=<value>` parameters. Repeated keys keep the last value.
func filtersFromQuery(query url.Values) grid.FilterMap {
	out := grid.FilterMap{}
	for name, values := range query {
		key, ok := strings.CutPrefix(name, filterParamPrefix)
		if !ok || key == "" || len(values) == 0 {
			continue
		}
		out[key] = values[len(values)-1]
	}
	return out
}

// parseOptionalBool parses one optional boolean query value.
func parseOptionalBool(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse bool %q: %w", raw, common.ErrInvalidRequest)
	}
	return v, nil
}

// splitPath canonicalizes one request path into its non-empty segments.
func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil
		}
	}
	return parts
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeNotFound writes the structured unknown-endpoint response.
func writeNotFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, APIError{
		Code:    "not_found",
		Message: "endpoint not found",
	})
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
