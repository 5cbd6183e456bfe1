package memory

import (
	"context"
	"time"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
)

var demoActivities = []domain.Activity{
	{Title: "Eiffel Tower", WebLink: "https://www.toureiffel.paris"},
	{Title: "Louvre Museum", FreeText: "Book tickets online, closed on Tuesdays"},
	{Title: "Notre-Dame Cathedral"},
	{Title: "Montmartre", FreeText: "Sacré-Cœur at sunset"},
	{Title: "Seine River Cruise"},
	{Title: "Musée d'Orsay"},
}

// SeedDemo adds a Paris destination with six activities for ownerID.
func SeedDemo(ctx context.Context, s *Store, ownerID string) (domain.Destination, error) {
	dest := s.AddDestination(ownerID, "Paris")
	now := time.Now().UTC()
	for _, a := range demoActivities {
		a.DestinationID = dest.ID
		a.CreatedAt = now
		a.UpdatedAt = now
		if _, err := s.AddActivity(ctx, ownerID, a); err != nil {
			return domain.Destination{}, err
		}
	}
	return dest, nil
}
