package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// ErrorBody carries the error code, its localized message and, for
// validation failures, the offending fields. Detail explains a rejected
// workflow write (e.g. "score exceeds max marks").
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Detail  string            `json:"detail,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives the page count from the total.
func NewPagination(page, perPage, total int) *Pagination {
	p := &Pagination{Page: page, PerPage: perPage, TotalItems: total}
	if perPage > 0 {
		p.TotalPages = (total + perPage - 1) / perPage
	}
	return p
}

// Metadata ties a response to its request for support tickets.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ─── Success ────────────────────────────────────────────────────────

// Success writes data with the given status.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, envelope(c, data, nil, nil))
}

// SuccessWithPagination writes one page of a list.
func SuccessWithPagination(c *gin.Context, statusCode int, data interface{}, pagination *Pagination) {
	c.JSON(statusCode, envelope(c, data, nil, pagination))
}

// ─── Failure ────────────────────────────────────────────────────────

// Fail writes an error with the code's default message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, envelope(c, nil, newErrorBody(code), nil))
}

// FailWithFields writes a validation error with per-field messages.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	body := newErrorBody(code)
	body.Fields = fields
	c.JSON(statusCode, envelope(c, nil, body, nil))
}

// FailWithDetail writes an error with an extra human-readable reason.
func FailWithDetail(c *gin.Context, statusCode int, code ErrCode, detail string) {
	body := newErrorBody(code)
	body.Detail = detail
	c.JSON(statusCode, envelope(c, nil, body, nil))
}

// AbortFail stops the middleware chain with an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, envelope(c, nil, newErrorBody(code), nil))
}

func newErrorBody(code ErrCode) *ErrorBody {
	return &ErrorBody{Code: code, Message: GetMessage(code)}
}

func envelope(c *gin.Context, data interface{}, errBody *ErrorBody, pagination *Pagination) Response {
	return Response{
		Data:       data,
		Error:      errBody,
		Pagination: pagination,
		Metadata: Metadata{
			RequestID: RequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
