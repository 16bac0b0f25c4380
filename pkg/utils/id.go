package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// NewDashboardID returns a random v4 identifier for a saved dashboard
func NewDashboardID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating dashboard id: %w", err)
	}
	return id.String(), nil
}

// IsDashboardID reports whether id has the shape produced by NewDashboardID.
func IsDashboardID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.Version() == 4
}
