package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/ingest"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/response"
	"github.com/stemsi/exstem-distributor/internal/service"
	"github.com/stemsi/exstem-distributor/internal/validator"
)

var errFileTooLarge = errors.New("uploaded file exceeds the size limit")

// PaperHandler serves exam paper upload and maintenance.
type PaperHandler struct {
	paperService   *service.PaperService
	maxUploadBytes int64
	log            zerolog.Logger
}

func NewPaperHandler(paperService *service.PaperService, maxUploadBytes int64, log zerolog.Logger) *PaperHandler {
	return &PaperHandler{
		paperService:   paperService,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "paper_handler").Logger(),
	}
}

// readUpload loads one multipart file fully into memory.
func (h *PaperHandler) readUpload(c *gin.Context, field string) (*ingest.Document, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return h.readFile(file, header)
}

func (h *PaperHandler) readFile(file multipart.File, header *multipart.FileHeader) (*ingest.Document, error) {
	if header.Size > h.maxUploadBytes {
		return nil, errFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, errFileTooLarge
	}
	return &ingest.Document{Filename: header.Filename, Data: data}, nil
}

// Upload godoc
// POST /api/v1/teacher/papers
// Extracts questions from exam_file, merges answer_key_file when present and
// stores the paper.
func (h *PaperHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.maxUploadBytes+1<<20)

	var form model.UploadPaperRequest
	if fields := validator.BindForm(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.readUpload(c, "exam_file")
	switch {
	case errors.Is(err, errFileTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	case err != nil || len(exam.Data) == 0:
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	key, err := h.readUpload(c, "answer_key_file")
	switch {
	case errors.Is(err, errFileTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	case err != nil:
		key = nil
	}

	paper, err := h.paperService.Upload(c.Request.Context(), service.UploadInput{
		TeacherEmail: middleware.CurrentEmail(c),
		Form:         form,
		Exam:         *exam,
		AnswerKey:    key,
	})
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"exam_id":        paper.ExamID,
		"exam_name":      paper.ExamName,
		"question_count": len(paper.Questions),
		"answer_count":   len(paper.AnswerKey),
	})
}

// List godoc
// GET /api/v1/teacher/papers?search=&page=&per_page=
func (h *PaperHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	papers, pagination, err := h.paperService.List(c.Request.Context(), middleware.CurrentEmail(c), c.Query("search"), page, perPage)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"papers": papers}, pagination)
}

// Detail godoc
// GET /api/v1/teacher/papers/:exam_id?question_search=
func (h *PaperHandler) Detail(c *gin.Context) {
	detail, err := h.paperService.Detail(c.Request.Context(), middleware.CurrentEmail(c), examIDParam(c), c.Query("question_search"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": detail})
}

// Delete godoc
// DELETE /api/v1/teacher/papers/:exam_id
func (h *PaperHandler) Delete(c *gin.Context) {
	if err := h.paperService.Delete(c.Request.Context(), middleware.CurrentEmail(c), examIDParam(c)); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "paper deleted successfully"})
}

// Repair godoc
// POST /api/v1/teacher/papers/:exam_id/repair
func (h *PaperHandler) Repair(c *gin.Context) {
	n, err := h.paperService.Repair(c.Request.Context(), middleware.CurrentEmail(c), examIDParam(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"repaired": n})
}

func examIDParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("exam_id"))
}
