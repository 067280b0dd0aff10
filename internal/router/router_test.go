package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/handler"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/repository"
	"github.com/stemsi/exstem-distributor/internal/service"
	"github.com/stemsi/exstem-distributor/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	teacherEmail = "teacher@school.test"
	studentEmail = "ana@school.test"
)

const examCSV = "No,Text,A,B,C,D,Answer,Level\n" +
	"1,Capital of Japan?,Tokyo,Osaka,Kyoto,Nara,A,hard\n" +
	"2,Largest ocean?,Pacific,Atlantic,Indian,Arctic,A,easy\n" +
	"3,Fastest land animal?,Cheetah,Lion,Horse,Hare,C,medium\n" +
	"4,Red planet?,Venus,Mars,Jupiter,Saturn,B,easy\n"

type queue struct {
	mu     sync.Mutex
	queued []model.AnswerSubmission
}

func (q *queue) Enqueue(_ context.Context, a model.AnswerSubmission) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queued = append(q.queued, a)
	return nil
}

type server struct {
	engine  *gin.Engine
	auth    *service.AuthService
	answers *queue
}

func newServer(t *testing.T, requestsPerMinute int) *server {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{
		GinMode:          gin.TestMode,
		JWTSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		MaxUploadBytes:   1 << 20,
		DefaultTimeLimit: 60,
	}
	log := zerolog.Nop()
	store := repository.NewMemoryStore()
	answers := &queue{}

	auth := service.NewAuthService(cfg)
	papers := service.NewPaperService(store.Papers, service.NewLocalArchive(t.TempDir()), service.NewLocalLocker(), log)
	subjects := service.NewSubjectService(store.Subjects, store.Papers, store.Submissions, log)
	dist := service.NewDistributionService(store.Subjects, store.Papers, store.Submissions, cfg.DefaultTimeLimit, log)
	students := service.NewStudentService(store.Submissions, answers, log)

	handlers := &Handlers{
		Auth:         handler.NewAuthHandler(),
		Paper:        handler.NewPaperHandler(papers, cfg.MaxUploadBytes, log),
		Question:     handler.NewQuestionHandler(papers, log),
		Subject:      handler.NewSubjectHandler(subjects, log),
		Distribution: handler.NewDistributionHandler(dist, log),
		Student:      handler.NewStudentHandler(students, log),
		Tracker:      handler.NewTrackerWSHandler(nil, subjects, dist, log, nil),
		System:       handler.NewSystemHandler(nil, nil, log),
	}

	limiter := middleware.NewRateLimiter(requestsPerMinute, time.Minute)
	return &server{
		engine:  SetupRouter(auth, handlers, limiter, cfg),
		auth:    auth,
		answers: answers,
	}
}

func (s *server) token(t *testing.T, email string, role service.Role) string {
	t.Helper()
	tok, err := s.auth.IssueToken(email, role)
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *server) upload(t *testing.T, token string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("quiz_name", "Geography"))
	require.NoError(t, w.WriteField("subject", "Science"))
	require.NoError(t, w.WriteField("activity_type", "Quiz"))
	part, err := w.CreateFormFile("exam_file", "geo.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(examCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teacher/papers", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return s.serve(t, req)
}

func (s *server) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestHealth(t *testing.T) {
	s := newServer(t, 0)
	code, env := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestAuthGuards(t *testing.T) {
	s := newServer(t, 0)
	studentTok := s.token(t, studentEmail, service.RoleStudent)
	teacherTok := s.token(t, teacherEmail, service.RoleTeacher)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		code   string
	}{
		{"missing token", "/api/v1/teacher/subjects", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"garbage token", "/api/v1/teacher/subjects", "nope", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"student on teacher route", "/api/v1/teacher/subjects", studentTok, http.StatusForbidden, "TEACHER_ACCESS_ONLY"},
		{"teacher on student route", "/api/v1/student/dashboard", teacherTok, http.StatusForbidden, "STUDENT_ACCESS_ONLY"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodGet, tc.path, tc.token, nil)
			assert.Equal(t, tc.status, code)
			assert.Equal(t, tc.code, errCode(env))
		})
	}
}

func TestMe(t *testing.T) {
	s := newServer(t, 0)
	code, env := s.do(t, http.MethodGet, "/api/v1/auth/me", s.token(t, "Ana@School.test", service.RoleStudent), nil)
	require.Equal(t, http.StatusOK, code)

	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, studentEmail, me.Email)
	assert.Equal(t, "student", me.Role)
}

func TestTeacherAndStudentFlow(t *testing.T) {
	s := newServer(t, 0)
	teacher := s.token(t, teacherEmail, service.RoleTeacher)
	student := s.token(t, studentEmail, service.RoleStudent)

	code, env := s.do(t, http.MethodPost, "/api/v1/teacher/subjects", teacher, map[string]string{"name": "Science"})
	require.Equal(t, http.StatusCreated, code, errCode(env))
	var created struct {
		Subject model.Subject `json:"subject"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	subjectPath := fmt.Sprintf("/api/v1/teacher/subjects/%d", created.Subject.ID)

	code, env = s.do(t, http.MethodPost, subjectPath+"/students", teacher,
		map[string]string{"student_name": "Ana", "student_email": studentEmail})
	require.Equal(t, http.StatusCreated, code, errCode(env))

	code, env = s.do(t, http.MethodPost, subjectPath+"/students", teacher,
		map[string]string{"student_name": "Ana", "student_email": "ANA@school.test"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", errCode(env))

	code, env = s.upload(t, teacher)
	require.Equal(t, http.StatusCreated, code, errCode(env))
	var uploaded struct {
		ExamID        string `json:"exam_id"`
		QuestionCount int    `json:"question_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	assert.Equal(t, 4, uploaded.QuestionCount)
	paperPath := "/api/v1/teacher/papers/" + uploaded.ExamID

	t.Run("question management", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, paperPath+"/questions", teacher, map[string]string{
			"question_text": "Explain photosynthesis.",
			"question_type": "OPEN_ENDED",
			"difficulty":    "hard",
		})
		require.Equal(t, http.StatusCreated, code, errCode(env))

		code, env = s.do(t, http.MethodPut, paperPath+"/questions/99", teacher, map[string]string{
			"question_text": "x", "difficulty": "easy",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "INVALID_QUESTION_INDEX", errCode(env))

		code, env = s.do(t, http.MethodDelete, paperPath+"/questions/abc", teacher, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "INVALID_QUESTION_INDEX", errCode(env))

		code, env = s.do(t, http.MethodDelete, paperPath+"/questions/4", teacher, nil)
		require.Equal(t, http.StatusOK, code, errCode(env))
	})

	t.Run("other teacher cannot see the paper", func(t *testing.T) {
		code, env := s.do(t, http.MethodGet, paperPath, s.token(t, "other@school.test", service.RoleTeacher), nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "NOT_OWNER", errCode(env))
	})

	t.Run("distribution validation", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, subjectPath+"/distributions", teacher, map[string]any{
			"exam_id": uploaded.ExamID, "question_count": 2,
			"easy_percent": 50, "medium_percent": 40,
			"students": []string{studentEmail},
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "DIFFICULTY_MIX_INVALID", errCode(env))
	})

	code, env = s.do(t, http.MethodPost, subjectPath+"/distributions", teacher, map[string]any{
		"exam_id": uploaded.ExamID, "question_count": 2,
		"easy_percent": 50, "medium_percent": 50,
		"deadline": "2026-11-01T08:00",
		"students": []string{studentEmail},
	})
	require.Equal(t, http.StatusCreated, code, errCode(env))

	code, env = s.do(t, http.MethodGet, subjectPath+"/distributions", teacher, nil)
	require.Equal(t, http.StatusOK, code)
	var summary struct {
		Distributions []model.DistributionSummary `json:"distributions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	require.Len(t, summary.Distributions, 1)
	assert.Equal(t, 1, summary.Distributions[0].NotSubmittedCount)
	assert.Equal(t, "Nov 01, 2026 08:00", summary.Distributions[0].Deadline)

	code, env = s.do(t, http.MethodGet, "/api/v1/student/submissions", student, nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Submissions []model.Submission `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Submissions, 1)
	subPath := fmt.Sprintf("/api/v1/student/submissions/%d", list.Submissions[0].ID)

	code, env = s.do(t, http.MethodGet, subPath, student, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), `"answer":`)
	var view model.StudentExamView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Questions, 2)

	answers := make([]map[string]any, 0, len(view.Questions))
	for _, q := range view.Questions {
		answers = append(answers, map[string]any{"number": q.Number, "answer": q.Choices[0]})
	}
	code, env = s.do(t, http.MethodPost, subPath+"/answers", student, map[string]any{"answers": answers})
	require.Equal(t, http.StatusAccepted, code, errCode(env))
	require.Len(t, s.answers.queued, 1)
	assert.Equal(t, studentEmail, s.answers.queued[0].StudentEmail)

	code, env = s.do(t, http.MethodGet, subPath, s.token(t, "bob@school.test", service.RoleStudent), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_OWNER", errCode(env))

	code, env = s.do(t, http.MethodDelete, subjectPath+"/distributions", teacher, map[string]any{
		"exam_name": "Geography", "activity_type": "Quiz", "time_limit": 60, "deadline": "2026-11-01T08:00",
	})
	require.Equal(t, http.StatusOK, code, errCode(env))
	assert.JSONEq(t, `{"deleted":1}`, string(env.Data))
}

func TestUploadRateLimited(t *testing.T) {
	s := newServer(t, 1)
	teacher := s.token(t, teacherEmail, service.RoleTeacher)

	code, _ := s.upload(t, teacher)
	require.Equal(t, http.StatusCreated, code)

	code, env := s.upload(t, teacher)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errCode(env))
}

func TestUnknownRoute(t *testing.T) {
	s := newServer(t, 0)
	code, env := s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", errCode(env))
}
