package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// ExamHandler handles exam sittings that results are recorded against.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/exams
// Lists exams newest first with pagination.
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, perPage := pageQuery(c)

	exams, pagination, err := h.examService.List(c.Request.Context(), page, perPage)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam := &model.Exam{
		Title:        req.Title,
		Term:         req.Term,
		AcademicYear: req.AcademicYear,
		StartsOn:     req.StartsOn,
		CreatedBy:    middleware.GetActor(c).UserID,
	}
	if err := h.examService.Create(c.Request.Context(), exam); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}
