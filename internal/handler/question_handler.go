package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/response"
	"github.com/stemsi/exstem-distributor/internal/service"
	"github.com/stemsi/exstem-distributor/internal/validator"
)

// QuestionHandler handles question management on a stored paper.
type QuestionHandler struct {
	paperService *service.PaperService
	log          zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(paperService *service.PaperService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		paperService: paperService,
		log:          log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/teacher/papers/:exam_id/questions
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	view, err := h.paperService.ManageView(c.Request.Context(), middleware.CurrentEmail(c), examIDParam(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// AddQuestion godoc
// POST /api/v1/teacher/papers/:exam_id/questions
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.paperService.AddQuestion(c.Request.Context(), middleware.CurrentEmail(c), examIDParam(c), req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// EditQuestion godoc
// PUT /api/v1/teacher/papers/:exam_id/questions/:index
func (h *QuestionHandler) EditQuestion(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}

	var req model.EditQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.paperService.EditQuestion(c.Request.Context(), middleware.CurrentEmail(c), examIDParam(c), index, req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// DeleteQuestion godoc
// DELETE /api/v1/teacher/papers/:exam_id/questions/:index
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}

	view, err := h.paperService.DeleteQuestion(c.Request.Context(), middleware.CurrentEmail(c), examIDParam(c), index)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// questionIndex parses the 0-based :index parameter. Range checks against
// the paper happen in the service.
func questionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestionIndex)
		return 0, false
	}
	return index, true
}
