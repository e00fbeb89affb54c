package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 5).TotalPages)
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		FailWithDetail(c, http.StatusConflict, ErrInvalidTransition, "status berubah")
	})

	cases := []struct {
		name   string
		header string
		reused bool
	}{
		{"missing", "", false},
		{"reused", "edge-7f3a.01", true},
		{"rejects control characters", "abc\tdef", false},
		{"rejects long ids", strings.Repeat("a", 65), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("X-Request-ID", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			got := w.Header().Get("X-Request-ID")
			assert.Equal(t, got, body.Metadata.RequestID)
			if tc.reused {
				assert.Equal(t, tc.header, got)
			} else {
				assert.NotEqual(t, tc.header, got)
				assert.NotEmpty(t, got)
			}
			require.NotNil(t, body.Error)
			assert.Equal(t, ErrInvalidTransition, body.Error.Code)
			assert.Equal(t, "status berubah", body.Error.Detail)
		})
	}
}
