// Package api exposes HTTP handlers for itinerary activities.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/auth"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires the activity endpoints under /activity.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/activity", func(r chi.Router) {
		r.Post("/add/{destinationID}", h.addActivity)
		r.Get("/get_all/{destinationID}", h.listActivities)
		r.Get("/get/{activityID}", h.getActivity)
		r.Post("/edit/{activityID}", h.editActivity)
		r.Post("/edit_notes/{activityID}", h.editNotes)
		r.Post("/edit_link/{activityID}", h.editLink)
		r.Post("/reorder/{destinationID}", h.reorderActivities)
		r.Delete("/delete/{activityID}", h.deleteActivity)
	})
}

// Healthz reports a simple OK status for container health checks.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) addActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryWrite)
	if !ok {
		return
	}
	destinationID, ok := pathID(w, r, "destinationID")
	if !ok {
		return
	}

	var req AddActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, err := h.service.AddActivity(r.Context(), claims.Subject, domain.AddActivityInput{
		DestinationID: destinationID,
		Title:         req.Title,
		FreeText:      req.FreeText,
		WebLink:       req.WebLink,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityView(*activity))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryRead)
	if !ok {
		return
	}
	destinationID, ok := pathID(w, r, "destinationID")
	if !ok {
		return
	}

	activities, err := h.service.ListActivities(r.Context(), claims.Subject, destinationID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(activities))
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryRead)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}

	activity, err := h.service.GetActivity(r.Context(), claims.Subject, activityID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) editActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryWrite)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}

	var req EditTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, err := h.service.EditActivity(r.Context(), claims.Subject, activityID, *req.Title)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) editNotes(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryWrite)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}

	var req EditNotesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, err := h.service.EditNotes(r.Context(), claims.Subject, activityID, *req.FreeText)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) editLink(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryWrite)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}

	var req EditLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, err := h.service.EditLink(r.Context(), claims.Subject, activityID, *req.WebLink)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) reorderActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryWrite)
	if !ok {
		return
	}
	destinationID, ok := pathID(w, r, "destinationID")
	if !ok {
		return
	}

	var req ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activities, err := h.service.ReorderActivities(r.Context(), claims.Subject, destinationID, req.NewOrder)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(activities))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeItineraryWrite)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}

	if err := h.service.DeleteActivity(r.Context(), claims.Subject, activityID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "activity deleted"})
}

// requireScope checks the caller's claims. The write scope also grants read access.
func requireScope(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if claims.HasScope(scope) || (scope == auth.ScopeItineraryRead && claims.HasScope(auth.ScopeItineraryWrite)) {
		return claims, true
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
	return nil, false
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "validation_failed", validation.Error())
	case errors.Is(err, domain.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, "invalid_order", err.Error())
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity not found")
	case errors.Is(err, domain.ErrDestinationNotFound):
		writeError(w, http.StatusNotFound, "not_found", "destination not found")
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}

// AddActivityRequest is the payload for POST /activity/add/{destination_id}.
type AddActivityRequest struct {
	Title    string `json:"title"`
	FreeText string `json:"free_text"`
	WebLink  string `json:"web_link"`
}

// Validate ensures request correctness.
func (r AddActivityRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// EditTitleRequest is the payload for POST /activity/edit/{id}.
type EditTitleRequest struct {
	Title *string `json:"title"`
}

// Validate ensures request correctness.
func (r EditTitleRequest) Validate() error {
	if r.Title == nil || strings.TrimSpace(*r.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// EditNotesRequest is the payload for POST /activity/edit_notes/{id}. An empty string clears the notes.
type EditNotesRequest struct {
	FreeText *string `json:"free_text"`
}

// Validate ensures request correctness.
func (r EditNotesRequest) Validate() error {
	if r.FreeText == nil {
		return errors.New("free_text is required")
	}
	return nil
}

// EditLinkRequest is the payload for POST /activity/edit_link/{id}. An empty string clears the link.
type EditLinkRequest struct {
	WebLink *string `json:"web_link"`
}

// Validate ensures request correctness.
func (r EditLinkRequest) Validate() error {
	if r.WebLink == nil {
		return errors.New("web_link is required")
	}
	return nil
}

// ReorderRequest is the payload for POST /activity/reorder/{destination_id}.
type ReorderRequest struct {
	NewOrder []int64 `json:"new_order"`
}

// Validate ensures request correctness.
func (r ReorderRequest) Validate() error {
	if r.NewOrder == nil {
		return errors.New("new_order is required")
	}
	return nil
}
