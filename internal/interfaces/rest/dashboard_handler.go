package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teknatem/mpbackoffice/internal/application/services"
	"github.com/teknatem/mpbackoffice/pkg/constants"
	"github.com/teknatem/mpbackoffice/pkg/models"
	"github.com/teknatem/mpbackoffice/pkg/pivot"
)

type DashboardHandler struct {
	svc *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// RegisterRoutes mounts the dashboard API on group
func (h *DashboardHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/sources", h.ListDataSources)
	group.GET("/sources/:id", h.GetDataSource)
	group.POST("/execute", h.Execute)
	group.POST("/sql", h.GenerateSQL)

	group.GET("/configs", h.ListConfigs)
	group.POST("/configs", h.SaveConfig)
	group.GET("/configs/:id", h.GetConfig)
	group.PUT("/configs/:id", h.UpdateConfig)
	group.DELETE("/configs/:id", h.DeleteConfig)
	group.POST("/configs/:id/execute", h.ExecuteSaved)
}

// ListDataSources handles GET /api/dashboards/sources
func (h *DashboardHandler) ListDataSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{constants.ResponseDataSources: h.svc.ListDataSources()})
}

// GetDataSource handles GET /api/dashboards/sources/:id
func (h *DashboardHandler) GetDataSource(c *gin.Context) {
	HandleGetEnvelope(c, constants.ResponseDataSource, func() (interface{}, error) {
		return h.svc.GetDataSource(c.Param("id"))
	})
}

// Execute handles POST /api/dashboards/execute
func (h *DashboardHandler) Execute(c *gin.Context) {
	var cfg pivot.DashboardConfig
	if !BindJSON(c, &cfg) {
		return
	}
	HandleResult(c, func() (interface{}, error) {
		return h.svc.Execute(c.Request.Context(), &cfg)
	})
}

// GenerateSQL handles POST /api/dashboards/sql
func (h *DashboardHandler) GenerateSQL(c *gin.Context) {
	var cfg pivot.DashboardConfig
	if !BindJSON(c, &cfg) {
		return
	}
	HandleResult(c, func() (interface{}, error) {
		return h.svc.GenerateSQLPreview(&cfg)
	})
}

// ListConfigs handles GET /api/dashboards/configs?data_source=
func (h *DashboardHandler) ListConfigs(c *gin.Context) {
	HandleGetEnvelope(c, constants.ResponseItems, func() (interface{}, error) {
		return h.svc.ListConfigs(c.Request.Context(), c.Query(constants.ParamDataSource))
	})
}

// SaveConfig handles POST /api/dashboards/configs
func (h *DashboardHandler) SaveConfig(c *gin.Context) {
	var req models.SaveDashboardRequest
	if !BindJSON(c, &req) {
		return
	}
	saved, err := h.svc.SaveConfig(c.Request.Context(), &req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage:      "Dashboard saved successfully",
		constants.ResponseDashboard: saved,
	})
}

// GetConfig handles GET /api/dashboards/configs/:id
func (h *DashboardHandler) GetConfig(c *gin.Context) {
	HandleGetEnvelope(c, constants.ResponseDashboard, func() (interface{}, error) {
		return h.svc.GetConfig(c.Request.Context(), c.Param("id"))
	})
}

// UpdateConfig handles PUT /api/dashboards/configs/:id
func (h *DashboardHandler) UpdateConfig(c *gin.Context) {
	var req models.SaveDashboardRequest
	if !BindJSON(c, &req) {
		return
	}
	updated, err := h.svc.UpdateConfig(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage:      "Dashboard updated successfully",
		constants.ResponseDashboard: updated,
	})
}

// DeleteConfig handles DELETE /api/dashboards/configs/:id
func (h *DashboardHandler) DeleteConfig(c *gin.Context) {
	HandleDeleteEnvelope(c, "Dashboard deleted successfully", func() error {
		return h.svc.DeleteConfig(c.Request.Context(), c.Param("id"))
	})
}

// ExecuteSaved handles POST /api/dashboards/configs/:id/execute
func (h *DashboardHandler) ExecuteSaved(c *gin.Context) {
	HandleResult(c, func() (interface{}, error) {
		return h.svc.ExecuteSaved(c.Request.Context(), c.Param("id"))
	})
}
