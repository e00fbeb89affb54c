package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

type statusQuery struct {
	Status model.ResultStatus `json:"status" binding:"required,result_status"`
}

func bindBody(dst interface{}, body string) map[string]string {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestRoleRule(t *testing.T) {
	var req model.CreateUserRequest
	fields := bindBody(&req, `{"email":"guru@sekolah.id","name":"Guru","password":"rahasia1","role":"janitor"}`)
	assert.Contains(t, fields, "role")
	assert.Contains(t, fields["role"], "head-teacher")

	req = model.CreateUserRequest{}
	assert.Nil(t, bindBody(&req, `{"email":"guru@sekolah.id","name":"Guru","password":"rahasia1","role":"head-teacher"}`))
	assert.Equal(t, model.RoleHeadTeacher, req.Role)
}

func TestResultStatusRule(t *testing.T) {
	var q statusQuery
	assert.Contains(t, bindBody(&q, `{"status":"archived"}`), "status")
	assert.Nil(t, bindBody(&q, `{"status":"submitted"}`))
}

func TestTranslateErrorsNonValidation(t *testing.T) {
	var q statusQuery
	fields := bindBody(&q, `{"status":`)
	assert.Contains(t, fields, "detail")
}
