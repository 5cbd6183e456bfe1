package domain

import "time"

// Activity is a single itinerary entry belonging to a destination.
type Activity struct {
	ID            int64     `json:"id"`
	DestinationID int64     `json:"destination_id"`
	Title         string    `json:"title"`
	FreeText      string    `json:"free_text"`
	WebLink       string    `json:"web_link"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Destination groups the activities of one stop of a trip. Destinations are
// managed elsewhere; this service only reads them to scope activities.
type Destination struct {
	ID      int64
	OwnerID string
	Name    string
}

// ActivityField names an editable activity attribute.
type ActivityField string

const (
	FieldTitle    ActivityField = "title"
	FieldFreeText ActivityField = "free_text"
	FieldWebLink  ActivityField = "web_link"
)

// ActivityUpdate changes exactly one field of an activity.
type ActivityUpdate struct {
	Field     ActivityField
	Value     string
	UpdatedAt time.Time
}

// Apply returns a copy of the activity with the update applied.
func (u ActivityUpdate) Apply(activity Activity) Activity {
	switch u.Field {
	case FieldTitle:
		activity.Title = u.Value
	case FieldFreeText:
		activity.FreeText = u.Value
	case FieldWebLink:
		activity.WebLink = u.Value
	}
	activity.UpdatedAt = u.UpdatedAt
	return activity
}
