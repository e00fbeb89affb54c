package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// StudentHandler handles student records.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// ListStudents godoc
// GET /api/v1/students
// Lists students with pagination, optionally filtered by classroom_id.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	page, perPage := pageQuery(c)

	classroomID, ok := optionalIntQuery(c, "classroom_id")
	if !ok {
		return
	}

	students, pagination, err := h.studentService.ListStudents(c.Request.Context(), classroomID, page, perPage)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// GetStudent godoc
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// CreateStudent godoc
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student := studentFromRequest(0, req)
	if err := h.studentService.Create(c.Request.Context(), student); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// UpdateStudent godoc
// PUT /api/v1/students/:id
// Moving a student to another classroom leaves existing results untouched.
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.studentService.Update(c.Request.Context(), studentFromRequest(id, req)); err != nil {
		failWithError(c, err)
		return
	}

	updated, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": updated})
}

// DeleteStudent godoc
// DELETE /api/v1/students/:id
// Fails while results reference the student.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

func studentFromRequest(id int, req model.CreateStudentRequest) *model.Student {
	return &model.Student{
		ID:          id,
		AdmissionNo: req.AdmissionNo,
		Name:        req.Name,
		Gender:      req.Gender,
		Email:       req.Email,
		ClassroomID: req.ClassroomID,
	}
}
