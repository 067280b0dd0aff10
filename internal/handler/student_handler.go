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

// StudentHandler handles student-facing endpoints.
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// Dashboard godoc
// GET /api/v1/student/dashboard
func (h *StudentHandler) Dashboard(c *gin.Context) {
	dash, err := h.studentService.Dashboard(c.Request.Context(), middleware.CurrentEmail(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, dash)
}

// ListSubmissions godoc
// GET /api/v1/student/submissions
func (h *StudentHandler) ListSubmissions(c *gin.Context) {
	subs, err := h.studentService.List(c.Request.Context(), middleware.CurrentEmail(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	response.Success(c, http.StatusOK, gin.H{"submissions": subs})
}

// ExamView godoc
// GET /api/v1/student/submissions/:id
// Returns the frozen question snapshot without answers.
func (h *StudentHandler) ExamView(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	view, err := h.studentService.ExamView(c.Request.Context(), middleware.CurrentEmail(c), id)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SubmitAnswers godoc
// POST /api/v1/student/submissions/:id/answers
// Queues the answers; they are persisted asynchronously by the worker.
func (h *StudentHandler) SubmitAnswers(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.studentService.SubmitAnswers(c.Request.Context(), middleware.CurrentEmail(c), id, req); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"submission_id": id, "status": "queued"})
}
