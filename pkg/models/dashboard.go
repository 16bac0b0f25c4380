package models

import (
	"time"

	"github.com/teknatem/mpbackoffice/pkg/pivot"
)

// SavedDashboard is a named dashboard configuration persisted by the back office
type SavedDashboard struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	DataSource  string                `json:"data_source"`
	Config      pivot.DashboardConfig `json:"config"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// SaveDashboardRequest is the payload for creating or replacing a saved dashboard
type SaveDashboardRequest struct {
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	Config      pivot.DashboardConfig `json:"config"`
}
