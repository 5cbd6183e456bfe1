package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ID            int64     `json:"id"`
	DestinationID int64     `json:"destination_id"`
	Title         string    `json:"title"`
	FreeText      string    `json:"free_text"`
	WebLink       string    `json:"web_link"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListActivitiesResponse lists the activities of a destination ordered by position.
type ListActivitiesResponse struct {
	Activities []ActivityView `json:"activities"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ID:            a.ID,
		DestinationID: a.DestinationID,
		Title:         a.Title,
		FreeText:      a.FreeText,
		WebLink:       a.WebLink,
		Position:      a.Position,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toListResponse(activities []domain.Activity) ListActivitiesResponse {
	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a))
	}
	return ListActivitiesResponse{Activities: items}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
