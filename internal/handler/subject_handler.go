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

type SubjectHandler struct {
	subjectService *service.SubjectService
	log            zerolog.Logger
}

func NewSubjectHandler(subjectService *service.SubjectService, log zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		subjectService: subjectService,
		log:            log.With().Str("component", "subject_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/teacher/subjects
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.subjectService.List(c.Request.Context(), middleware.CurrentEmail(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// Create godoc
// POST /api/v1/teacher/subjects
func (h *SubjectHandler) Create(c *gin.Context) {
	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.subjectService.Create(c.Request.Context(), middleware.CurrentEmail(c), req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subject": sub})
}

// ListStudents godoc
// GET /api/v1/teacher/subjects/:id/students
func (h *SubjectHandler) ListStudents(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	students, err := h.subjectService.ListEnrolled(c.Request.Context(), middleware.CurrentEmail(c), id)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// Enroll godoc
// POST /api/v1/teacher/subjects/:id/students
func (h *SubjectHandler) Enroll(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req model.EnrollStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.subjectService.Enroll(c.Request.Context(), middleware.CurrentEmail(c), id, req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// Classroom godoc
// GET /api/v1/teacher/subjects/:id/classroom
func (h *SubjectHandler) Classroom(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	overview, err := h.subjectService.Classroom(c.Request.Context(), middleware.CurrentEmail(c), id)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, overview)
}
