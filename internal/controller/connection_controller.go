package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/scheduler"
	"dataviz-sync/internal/security"
	"dataviz-sync/internal/service"
	"dataviz-sync/internal/utils"
)

type ConnectionController struct {
	connections service.ConnectionService
	syncs       service.SyncService
	schedules   service.ScheduleService
	validator   *validator.Validate

	// replaceOnAdhoc is the default replacement policy for manually
	// triggered syncs; ?replace= overrides it per request
	replaceOnAdhoc bool
}

type Response struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	Message       string      `json:"message,omitempty"`
	CorrelationID string      `json:"correlationId"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewConnectionController(
	connections service.ConnectionService,
	syncs service.SyncService,
	schedules service.ScheduleService,
	replaceOnAdhoc bool,
) *ConnectionController {
	return &ConnectionController{
		connections:    connections,
		syncs:          syncs,
		schedules:      schedules,
		validator:      validator.New(),
		replaceOnAdhoc: replaceOnAdhoc,
	}
}

// CreateConnection godoc
// @Summary Register a new data source connection
// @Description Registers a connection to an external database engine
// @Tags connections
// @Accept json
// @Produce json
// @Param request body service.CreateConnectionRequest true "Create connection request"
// @Success 201 {object} Response{data=model.Connection}
// @Failure 400 {object} Response
// @Router /api/v1/connections [post]
func (cc *ConnectionController) CreateConnection(c *gin.Context) {
	var req service.CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := utils.NewValidationError("Invalid request body", err.Error())
		cc.sendError(c, utils.GetErrorStatus(appErr), appErr.Code, appErr.Message)
		return
	}

	if err := cc.validator.Struct(&req); err != nil {
		appErr := utils.NewValidationError("Validation failed", err.Error())
		cc.sendError(c, utils.GetErrorStatus(appErr), appErr.Code, appErr.Message)
		return
	}

	conn, err := cc.connections.CreateConnection(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedEngine) {
			cc.sendError(c, http.StatusBadRequest, utils.ErrCodeUnsupportedEngine, err.Error())
			return
		}
		cc.sendError(c, http.StatusInternalServerError, utils.ErrCodeInternalError, "Failed to create connection")
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success:       true,
		Data:          conn,
		CorrelationID: cc.getCorrelationID(c),
	})
}

// GetConnection godoc
// @Summary Get a connection by ID
// @Tags connections
// @Produce json
// @Param id path string true "Connection UUID"
// @Success 200 {object} Response{data=model.Connection}
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id} [get]
func (cc *ConnectionController) GetConnection(c *gin.Context) {
	conn, err := cc.connections.GetConnection(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.sendLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Data:          conn,
		CorrelationID: cc.getCorrelationID(c),
	})
}

// ListConnections godoc
// @Summary List registered connections
// @Tags connections
// @Produce json
// @Param org_id query string false "Restrict the list to one org (ignored when the caller is authenticated)"
// @Param limit query int false "Maximum number of items to return (default: 50, max: 200)"
// @Param offset query int false "Number of items to skip (default: 0)"
// @Success 200 {object} Response{data=service.ListConnectionsResponse}
// @Router /api/v1/connections [get]
func (cc *ConnectionController) ListConnections(c *gin.Context) {
	req := &service.ListConnectionsRequest{}

	// An authenticated caller is pinned to the token's org; the query
	// parameter only applies when auth is off
	if orgID, ok := security.GetOrgID(c); ok && orgID != "" {
		req.OrgID = orgID
	} else if orgID := c.Query("org_id"); orgID != "" {
		req.OrgID = orgID
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			req.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			req.Offset = offset
		}
	}

	if err := cc.validator.Struct(req); err != nil {
		cc.sendError(c, http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error())
		return
	}

	response, err := cc.connections.ListConnections(c.Request.Context(), req)
	if err != nil {
		cc.sendError(c, http.StatusInternalServerError, utils.ErrCodeInternalError, "Failed to list connections")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Data:          response,
		CorrelationID: cc.getCorrelationID(c),
	})
}

// DeleteConnection godoc
// @Summary Delete a connection
// @Description Removes the connection, its stored credential, and any live sync trigger
// @Tags connections
// @Produce json
// @Param id path string true "Connection UUID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id} [delete]
func (cc *ConnectionController) DeleteConnection(c *gin.Context) {
	if err := cc.connections.DeleteConnection(c.Request.Context(), c.Param("id")); err != nil {
		cc.sendLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Message:       "Connection deleted successfully",
		CorrelationID: cc.getCorrelationID(c),
	})
}

// TestConnection godoc
// @Summary Test connectivity to a connection's source engine
// @Description Probes the engine and records the outcome on the connection.
// @Description Engine failures are reported in the payload, not the HTTP status.
// @Tags connections
// @Produce json
// @Param id path string true "Connection UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id}/test [post]
func (cc *ConnectionController) TestConnection(c *gin.Context) {
	message, err := cc.syncs.TestConnection(c.Request.Context(), c.Param("id"))
	if err != nil {
		if cc.isLookupError(err) {
			cc.sendLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message})
}

// ListTables godoc
// @Summary List tables visible on a connection's source engine
// @Tags connections
// @Produce json
// @Param id path string true "Connection UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id}/tables [get]
func (cc *ConnectionController) ListTables(c *gin.Context) {
	tables, err := cc.syncs.ListTables(c.Request.Context(), c.Param("id"))
	if err != nil {
		if cc.isLookupError(err) {
			cc.sendLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error(), "tables": []string{}})
		return
	}

	if tables == nil {
		tables = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables, "count": len(tables)})
}

// SyncConnection godoc
// @Summary Run a sync pass for a connection
// @Description Materializes datasets from the source. ?table restricts the pass
// @Description to one table, ?replace overrides the replacement policy.
// @Tags connections
// @Produce json
// @Param id path string true "Connection UUID"
// @Param table query string false "Sync only this table"
// @Param replace query bool false "Drop the connection's prior datasets first"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id}/sync [post]
func (cc *ConnectionController) SyncConnection(c *gin.Context) {
	replace := cc.replaceOnAdhoc
	if replaceStr := c.Query("replace"); replaceStr != "" {
		if parsed, err := strconv.ParseBool(replaceStr); err == nil {
			replace = parsed
		}
	}

	result, err := cc.syncs.SyncConnection(c.Request.Context(), c.Param("id"), c.Query("table"), replace)
	if err != nil {
		if cc.isLookupError(err) {
			cc.sendLookupError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           result.Status,
		"datasets_created": result.DatasetsCreated,
		"datasets":         result.Datasets,
	})
}

// SetSchedule godoc
// @Summary Install or replace the recurring sync schedule for a connection
// @Tags schedules
// @Accept json
// @Produce json
// @Param id path string true "Connection UUID"
// @Param request body service.ScheduleRequest true "Schedule definition"
// @Success 200 {object} service.ScheduleStatus
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id}/schedule [post]
func (cc *ConnectionController) SetSchedule(c *gin.Context) {
	var req service.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := utils.NewValidationError("Invalid request body", err.Error())
		cc.sendError(c, utils.GetErrorStatus(appErr), appErr.Code, appErr.Message)
		return
	}

	status, err := cc.schedules.SetSchedule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if cc.isLookupError(err) {
			cc.sendLookupError(c, err)
			return
		}
		var cfgErr *scheduler.ConfigError
		if errors.As(err, &cfgErr) {
			cc.sendError(c, http.StatusBadRequest, utils.ErrCodeScheduleConfig, cfgErr.Message)
			return
		}
		cc.sendError(c, http.StatusInternalServerError, utils.ErrCodeInternalError, "Failed to set schedule")
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetSchedule godoc
// @Summary Get the schedule for a connection
// @Tags schedules
// @Produce json
// @Param id path string true "Connection UUID"
// @Success 200 {object} service.ScheduleStatus
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id}/schedule [get]
func (cc *ConnectionController) GetSchedule(c *gin.Context) {
	status, err := cc.schedules.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.sendLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// RemoveSchedule godoc
// @Summary Remove the schedule for a connection
// @Tags schedules
// @Produce json
// @Param id path string true "Connection UUID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} Response
// @Router /api/v1/connections/{id}/schedule [delete]
func (cc *ConnectionController) RemoveSchedule(c *gin.Context) {
	if err := cc.schedules.RemoveSchedule(c.Request.Context(), c.Param("id")); err != nil {
		cc.sendLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// Helper methods

func (cc *ConnectionController) isLookupError(err error) bool {
	return errors.Is(err, repository.ErrConnectionNotFound) || errors.Is(err, repository.ErrInvalidUUID)
}

func (cc *ConnectionController) sendLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrConnectionNotFound):
		cc.sendError(c, http.StatusNotFound, utils.ErrCodeConnectionNotFound, "Connection not found")
	case errors.Is(err, repository.ErrInvalidUUID):
		cc.sendError(c, http.StatusBadRequest, utils.ErrCodeInvalidUUID, "Invalid connection ID format")
	default:
		cc.sendError(c, http.StatusInternalServerError, utils.ErrCodeInternalError, "Failed to load connection")
	}
}

func (cc *ConnectionController) sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
		CorrelationID: cc.getCorrelationID(c),
	})
}

func (cc *ConnectionController) getCorrelationID(c *gin.Context) string {
	if correlationID, exists := c.Get("correlation_id"); exists {
		if id, ok := correlationID.(string); ok {
			return id
		}
	}
	return ""
}
