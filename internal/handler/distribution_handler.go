package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/response"
	"github.com/stemsi/exstem-distributor/internal/service"
	"github.com/stemsi/exstem-distributor/internal/validator"
)

// DistributionHandler hands exams out to a subject's students and reports on
// the resulting batches.
type DistributionHandler struct {
	distributionService *service.DistributionService
	log                 zerolog.Logger
}

func NewDistributionHandler(distributionService *service.DistributionService, log zerolog.Logger) *DistributionHandler {
	return &DistributionHandler{
		distributionService: distributionService,
		log:                 log.With().Str("component", "distribution_handler").Logger(),
	}
}

// Distribute godoc
// POST /api/v1/teacher/subjects/:id/distributions
func (h *DistributionHandler) Distribute(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req model.DistributeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.distributionService.Distribute(c.Request.Context(), middleware.CurrentEmail(c), id, req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// Summary godoc
// GET /api/v1/teacher/subjects/:id/distributions
func (h *DistributionHandler) Summary(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	batches, err := h.distributionService.Summary(c.Request.Context(), middleware.CurrentEmail(c), id)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"distributions": batches})
}

// DeleteBatch godoc
// DELETE /api/v1/teacher/subjects/:id/distributions
func (h *DistributionHandler) DeleteBatch(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req model.DeleteBatchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	deleted, err := h.distributionService.DeleteBatch(c.Request.Context(), middleware.CurrentEmail(c), id, req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

// Tracker godoc
// GET /api/v1/teacher/subjects/:id/distributions/students
func (h *DistributionHandler) Tracker(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var filter model.TrackerFilter
	if fields := validator.BindQuery(c, &filter); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.distributionService.Tracker(c.Request.Context(), middleware.CurrentEmail(c), id, filter)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}
