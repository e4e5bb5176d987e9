package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/service"
	"dataviz-sync/internal/utils"
)

type DatasetController struct {
	datasets  service.DatasetService
	validator *validator.Validate
}

func NewDatasetController(datasets service.DatasetService) *DatasetController {
	return &DatasetController{
		datasets:  datasets,
		validator: validator.New(),
	}
}

// ListDatasets godoc
// @Summary List materialized datasets
// @Tags datasets
// @Produce json
// @Param source_id query string false "Filter by source connection UUID"
// @Param limit query int false "Maximum number of items to return (default: 50, max: 200)"
// @Param offset query int false "Number of items to skip (default: 0)"
// @Success 200 {object} Response{data=service.ListDatasetsResponse}
// @Router /api/v1/datasets [get]
func (dc *DatasetController) ListDatasets(c *gin.Context) {
	req := &service.ListDatasetsRequest{
		SourceID: c.Query("source_id"),
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

	if err := dc.validator.Struct(req); err != nil {
		dc.sendError(c, http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error())
		return
	}

	response, err := dc.datasets.ListDatasets(c.Request.Context(), req)
	if err != nil {
		dc.sendError(c, http.StatusInternalServerError, utils.ErrCodeInternalError, "Failed to list datasets")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Data:          response,
		CorrelationID: dc.getCorrelationID(c),
	})
}

// GetDataset godoc
// @Summary Get a dataset by ID
// @Tags datasets
// @Produce json
// @Param id path string true "Dataset UUID"
// @Success 200 {object} Response{data=model.Dataset}
// @Failure 404 {object} Response
// @Router /api/v1/datasets/{id} [get]
func (dc *DatasetController) GetDataset(c *gin.Context) {
	dataset, err := dc.datasets.GetDataset(c.Request.Context(), c.Param("id"))
	if err != nil {
		dc.sendLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Data:          dataset,
		CorrelationID: dc.getCorrelationID(c),
	})
}

// GetDatasetRows godoc
// @Summary Get a page of materialized rows for a dataset
// @Tags datasets
// @Produce json
// @Param id path string true "Dataset UUID"
// @Param limit query int false "Maximum number of rows to return (default: 100, max: 1000)"
// @Param offset query int false "Number of rows to skip (default: 0)"
// @Success 200 {object} Response{data=service.DatasetRowsResponse}
// @Failure 404 {object} Response
// @Router /api/v1/datasets/{id}/data [get]
func (dc *DatasetController) GetDatasetRows(c *gin.Context) {
	limit := 0
	offset := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsed
		}
	}

	response, err := dc.datasets.GetDatasetRows(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		dc.sendLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Data:          response,
		CorrelationID: dc.getCorrelationID(c),
	})
}

// Helper methods

func (dc *DatasetController) sendLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrDatasetNotFound):
		dc.sendError(c, http.StatusNotFound, utils.ErrCodeDatasetNotFound, "Dataset not found")
	case errors.Is(err, repository.ErrInvalidUUID):
		dc.sendError(c, http.StatusBadRequest, utils.ErrCodeInvalidUUID, "Invalid dataset ID format")
	default:
		dc.sendError(c, http.StatusInternalServerError, utils.ErrCodeInternalError, "Failed to load dataset")
	}
}

func (dc *DatasetController) sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
		CorrelationID: dc.getCorrelationID(c),
	})
}

func (dc *DatasetController) getCorrelationID(c *gin.Context) string {
	if correlationID, exists := c.Get("correlation_id"); exists {
		if id, ok := correlationID.(string); ok {
			return id
		}
	}
	return ""
}
