package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

var examID = uuid.MustParse("0b7a3f52-5d1e-4d7c-9c51-2f0e8c3a6b10")

// schoolRefs is a one-classroom school: student 1 takes subject 5 in classroom 3.
type schoolRefs struct{}

func (schoolRefs) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	if id != examID {
		return nil, repository.ErrNotFound
	}
	return &model.Exam{ID: examID, Title: "UAS", Term: 2, AcademicYear: "2026/2027"}, nil
}

func (schoolRefs) GetStudent(_ context.Context, id int) (*model.Student, error) {
	if id != 1 {
		return nil, repository.ErrNotFound
	}
	return &model.Student{ID: 1, Name: "Budi", AdmissionNo: "S-001", ClassroomID: 3}, nil
}

func (schoolRefs) GetClassroom(_ context.Context, id int) (*model.Classroom, error) {
	if id != 3 {
		return nil, repository.ErrNotFound
	}
	return &model.Classroom{ID: 3, Name: "XI IPA 2", SubjectIDs: []int{5}}, nil
}

func (schoolRefs) GetSubject(_ context.Context, id int) (*model.Subject, error) {
	if id != 5 {
		return nil, repository.ErrNotFound
	}
	return &model.Subject{ID: 5, Code: "BIO", Name: "Biologi"}, nil
}

func (schoolRefs) ClassroomHasSubject(_ context.Context, classroomID, subjectID int) (bool, error) {
	return classroomID == 3 && subjectID == 5, nil
}

func (schoolRefs) IsTeacherAssigned(context.Context, int, int, int) (bool, error) {
	return true, nil
}

// tokens maps bearer tokens straight to claims.
type tokens map[string]*service.Claims

func (t tokens) ValidateToken(tokenStr string) (*service.Claims, error) {
	if c, ok := t[tokenStr]; ok {
		return c, nil
	}
	return nil, errors.New("unknown token")
}

func (t tokens) IsRevoked(context.Context, string) (bool, error) { return false, nil }

var testTokens = tokens{
	"teacher": {UserID: 11, Role: model.RoleTeacher},
	"other":   {UserID: 12, Role: model.RoleTeacher},
	"head":    {UserID: 21, Role: model.RoleHeadTeacher},
	"parent":  {UserID: 31, Role: model.RoleParent, StudentIDs: []int{1}},
}

func newResultServer(t *testing.T) *gin.Engine {
	t.Helper()
	gate := rbac.NewGate(rbac.DefaultPolicy())
	svc := service.NewResultService(&config.Config{}, gate, repository.NewMemoryResultRepository(),
		schoolRefs{}, nil, nil, zerolog.Nop())
	h := NewResultHandler(svc)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	api := r.Group("/api/v1", middleware.RequireJWT(testTokens))
	api.POST("/results", middleware.RequirePermission(gate, model.PermissionResultsCreate), h.Create)
	api.GET("/results/pending", middleware.RequirePermission(gate, model.PermissionResultsReview), h.ListPending)
	api.GET("/results/:id", h.Get)
	api.PUT("/results/:id", h.Update)
	api.POST("/results/:id/submit", h.Submit)
	api.POST("/results/:id/approve", middleware.RequirePermission(gate, model.PermissionResultsApprove), h.Approve)
	api.POST("/results/:id/reject", h.Reject)
	api.POST("/results/:id/publish", h.Publish)
	api.POST("/results/:id/resubmit", h.Resubmit)
	api.GET("/students/:id/results", h.ListForStudent)
	return r
}

type envelope struct {
	Data       json.RawMessage      `json:"data"`
	Error      *response.ErrorBody  `json:"error"`
	Pagination *response.Pagination `json:"pagination"`
}

func call(t *testing.T, r http.Handler, method, path, token string, body interface{}) (int, envelope) {
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
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func resultOf(t *testing.T, env envelope) model.ExamResult {
	t.Helper()
	var data struct {
		Result model.ExamResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Result
}

func newResultBody(score float64) gin.H {
	return gin.H{
		"student_id":   1,
		"exam_id":      examID.String(),
		"subject_id":   5,
		"classroom_id": 3,
		"score":        score,
		"max_marks":    100,
	}
}

func TestResultLifecycleOverHTTP(t *testing.T) {
	r := newResultServer(t)

	code, env := call(t, r, http.MethodPost, "/api/v1/results", "teacher", newResultBody(85))
	require.Equal(t, http.StatusCreated, code)
	created := resultOf(t, env)
	assert.Equal(t, model.ResultStatusSubmitted, created.Status)
	assert.Equal(t, "A", created.Grade)

	path := "/api/v1/results/" + created.ID.String()

	code, env = call(t, r, http.MethodPost, path+"/approve", "teacher", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, response.ErrPermissionDenied, env.Error.Code)

	code, _ = call(t, r, http.MethodPost, path+"/approve", "head", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, r, http.MethodPost, path+"/approve", "head", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrInvalidTransition, env.Error.Code)

	code, env = call(t, r, http.MethodPost, path+"/publish", "head", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.ResultStatusPublished, resultOf(t, env).Status)

	code, env = call(t, r, http.MethodPut, path, "teacher", gin.H{"score": 90, "max_marks": 100})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrTerminalState, env.Error.Code)

	code, env = call(t, r, http.MethodGet, "/api/v1/students/1/results", "parent", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Results []model.ExamResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Results, 1)
}

func TestCreateResultErrors(t *testing.T) {
	r := newResultServer(t)

	code, env := call(t, r, http.MethodPost, "/api/v1/results", "teacher", gin.H{"student_id": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "exam_id")

	code, env = call(t, r, http.MethodPost, "/api/v1/results", "teacher", newResultBody(120))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)

	tooLarge := newResultBody(50)
	tooLarge["max_marks"] = 1000000
	code, env = call(t, r, http.MethodPost, "/api/v1/results", "teacher", tooLarge)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "max_marks")

	tooPrecise := newResultBody(50)
	tooPrecise["score"] = 85.555
	code, env = call(t, r, http.MethodPost, "/api/v1/results", "teacher", tooPrecise)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)

	body := newResultBody(50)
	body["student_id"] = 99
	code, env = call(t, r, http.MethodPost, "/api/v1/results", "teacher", body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.ErrNotFound, env.Error.Code)

	code, _ = call(t, r, http.MethodPost, "/api/v1/results", "teacher", newResultBody(50))
	require.Equal(t, http.StatusCreated, code)
	code, env = call(t, r, http.MethodPost, "/api/v1/results", "other", newResultBody(55))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrConflict, env.Error.Code)

	code, env = call(t, r, http.MethodPost, "/api/v1/results", "parent", newResultBody(55))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodPost, "/api/v1/results", "", newResultBody(55))
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRejectAndResubmitOverHTTP(t *testing.T) {
	r := newResultServer(t)

	_, env := call(t, r, http.MethodPost, "/api/v1/results", "teacher", newResultBody(40))
	path := "/api/v1/results/" + resultOf(t, env).ID.String()

	code, env := call(t, r, http.MethodPost, path+"/reject", "head", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error.Fields, "reason")

	code, env = call(t, r, http.MethodPost, path+"/reject", "head", gin.H{"reason": "Nilai tertukar"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Nilai tertukar", resultOf(t, env).RejectionReason)

	code, _ = call(t, r, http.MethodPost, path+"/resubmit", "other", gin.H{"score": 45, "max_marks": 100})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, r, http.MethodPost, path+"/resubmit", "teacher", gin.H{"score": 45, "max_marks": 100})
	require.Equal(t, http.StatusOK, code)
	resubmitted := resultOf(t, env)
	assert.Equal(t, model.ResultStatusSubmitted, resubmitted.Status)
	assert.Len(t, resubmitted.History, 3)
}

func TestPendingQueueOverHTTP(t *testing.T) {
	r := newResultServer(t)
	_, _ = call(t, r, http.MethodPost, "/api/v1/results", "teacher", newResultBody(70))

	code, env := call(t, r, http.MethodGet, "/api/v1/results/pending?classroom_id=3&per_page=5", "head", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalItems)
	assert.Equal(t, 5, env.Pagination.PerPage)

	code, _ = call(t, r, http.MethodGet, "/api/v1/results/pending", "teacher", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, r, http.MethodGet, "/api/v1/results/pending?exam_id=nope", "head", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrInvalidID, env.Error.Code)

	code, env = call(t, r, http.MethodGet, "/api/v1/results/pending?status=archived", "head", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
}

func TestResultIDValidation(t *testing.T) {
	r := newResultServer(t)

	code, env := call(t, r, http.MethodGet, "/api/v1/results/123", "head", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrInvalidID, env.Error.Code)

	code, _ = call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/results/%s", uuid.New()), "head", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFailWithErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		want response.ErrCode
	}{
		{fmt.Errorf("x: %w", service.ErrForbidden), http.StatusForbidden, response.ErrForbidden},
		{fmt.Errorf("x: %w", service.ErrNotFound), http.StatusNotFound, response.ErrNotFound},
		{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{fmt.Errorf("x: %w", service.ErrTerminalState), http.StatusConflict, response.ErrTerminalState},
		{fmt.Errorf("x: %w", service.ErrInvalidTransition), http.StatusConflict, response.ErrInvalidTransition},
		{fmt.Errorf("x: %w", service.ErrConflict), http.StatusConflict, response.ErrConflict},
		{repository.ErrDuplicate, http.StatusConflict, response.ErrConflict},
		{repository.ErrInUse, http.StatusConflict, response.ErrDependencyExists},
		{fmt.Errorf("x: %w", service.ErrInvalidInput), http.StatusBadRequest, response.ErrValidation},
		{fmt.Errorf("x: %w", repository.ErrOutOfRange), http.StatusBadRequest, response.ErrValidation},
		{errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		failWithError(c, tt.err)

		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
		assert.Equal(t, tt.want, env.Error.Code, tt.err.Error())
	}
}
