package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/distribution"
	"github.com/stemsi/exstem-distributor/internal/ingest"
	"github.com/stemsi/exstem-distributor/internal/response"
	"github.com/stemsi/exstem-distributor/internal/service"
)

type errorMapping struct {
	target error
	status int
	code   response.ErrCode
	// detail exposes err.Error() in the message.
	detail bool
}

// errorMappings is checked in order with errors.Is.
var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound, false},
	{service.ErrNotOwner, http.StatusForbidden, response.ErrNotOwner, false},
	{service.ErrPaperBusy, http.StatusConflict, response.ErrPaperBusy, false},
	{service.ErrInvalidQuestionIndex, http.StatusBadRequest, response.ErrInvalidQuestionIndex, false},
	{service.ErrPaperSubjectMismatch, http.StatusBadRequest, response.ErrPaperSubjectMismatch, false},
	{service.ErrBatchNotFound, http.StatusNotFound, response.ErrBatchNotFound, false},
	{service.ErrAlreadyEnrolled, http.StatusConflict, response.ErrConflict, false},
	{service.ErrAlreadySubmitted, http.StatusConflict, response.ErrSubmissionNotEditable, false},
	{distribution.ErrMixNotHundred, http.StatusBadRequest, response.ErrDifficultyMixInvalid, false},
	{distribution.ErrInvalidQuestionCount, http.StatusBadRequest, response.ErrQuestionCountInvalid, false},
	{distribution.ErrNoStudents, http.StatusBadRequest, response.ErrNoStudentsSelected, false},
	{distribution.ErrEmptyPool, http.StatusBadRequest, response.ErrNoQuestions, false},
	{distribution.ErrNoValidStudents, http.StatusBadRequest, response.ErrNoValidStudents, false},
	{ingest.ErrUnreadableDocument, http.StatusUnprocessableEntity, response.ErrDocumentUnreadable, true},
	{ingest.ErrNoQuestionsExtracted, http.StatusUnprocessableEntity, response.ErrNoQuestionsExtracted, false},
}

// failWith writes the response for a service error. Unmapped errors are
// logged and reported as internal.
func failWith(c *gin.Context, log zerolog.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.detail {
			response.FailWithDetail(c, m.status, m.code, err.Error())
		} else {
			response.Fail(c, m.status, m.code)
		}
		return
	}

	log.Error().Err(err).
		Str("request_id", response.RequestID(c)).
		Str("path", c.FullPath()).
		Msg("Request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// int64Param parses a positive numeric path parameter.
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
