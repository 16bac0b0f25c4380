package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/models"
	"github.com/teknatem/mpbackoffice/pkg/utils"
)

// ==================== Saved Dashboard Methods ====================

// SaveConfig validates and stores a new dashboard configuration
func (s *DashboardService) SaveConfig(ctx context.Context, req *models.SaveDashboardRequest) (*models.SavedDashboard, error) {
	if err := s.checkSaveRequest(req); err != nil {
		return nil, err
	}

	id, err := utils.NewDashboardID()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate dashboard id", err)
	}

	now := s.now().UTC().Truncate(timestampPrecision)
	d := &models.SavedDashboard{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		DataSource:  req.Config.DataSource,
		Config:      req.Config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	s.log.WithField("dashboard_id", d.ID).Info("dashboard saved")
	return d, nil
}

// GetConfig returns a saved dashboard
func (s *DashboardService) GetConfig(ctx context.Context, id string) (*models.SavedDashboard, error) {
	return s.load(ctx, id)
}

// ListConfigs returns saved dashboards, optionally for one data source
func (s *DashboardService) ListConfigs(ctx context.Context, dataSource string) ([]*models.SavedDashboard, error) {
	return s.store.List(ctx, dataSource)
}

// UpdateConfig replaces the name, description and configuration of a saved dashboard
func (s *DashboardService) UpdateConfig(ctx context.Context, id string, req *models.SaveDashboardRequest) (*models.SavedDashboard, error) {
	if err := s.checkSaveRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Description = req.Description
	existing.DataSource = req.Config.DataSource
	existing.Config = req.Config
	existing.UpdatedAt = s.now().UTC().Truncate(timestampPrecision)

	if err := s.store.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteConfig removes a saved dashboard
func (s *DashboardService) DeleteConfig(ctx context.Context, id string) error {
	if !utils.IsDashboardID(id) {
		return apperrors.NewNotFoundError("Dashboard", id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("dashboard_id", id).Info("dashboard deleted")
	return nil
}

// ExecuteSaved runs a saved dashboard's configuration
func (s *DashboardService) ExecuteSaved(ctx context.Context, id string) (*ExecuteResponse, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.Execute(ctx, &d.Config)
	if err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", id, err)
	}
	return resp, nil
}

// load skips the store for ids that could never have been issued
func (s *DashboardService) load(ctx context.Context, id string) (*models.SavedDashboard, error) {
	if !utils.IsDashboardID(id) {
		return nil, apperrors.NewNotFoundError("Dashboard", id)
	}
	return s.store.Get(ctx, id)
}

// checkSaveRequest rejects a request whose configuration would not build.
// Saved dashboards are always runnable at the time they are stored.
func (s *DashboardService) checkSaveRequest(req *models.SaveDashboardRequest) error {
	if req == nil {
		return apperrors.NewValidationError("", "request body is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name", "dashboard name is required")
	}
	_, err := s.prepare(&req.Config)
	return err
}
