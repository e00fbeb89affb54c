package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// ClassroomHandler handles classroom management and teacher assignments.
type ClassroomHandler struct {
	classroomService *service.ClassroomService
}

// NewClassroomHandler creates a new ClassroomHandler.
func NewClassroomHandler(classroomService *service.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classroomService: classroomService}
}

// ListClassrooms godoc
// GET /api/v1/classrooms
// Lists all classrooms without pagination.
func (h *ClassroomHandler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.classroomService.List(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classrooms": classrooms})
}

// GetClassroom godoc
// GET /api/v1/classrooms/:id
func (h *ClassroomHandler) GetClassroom(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	classroom, err := h.classroomService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classroom": classroom})
}

// CreateClassroom godoc
// POST /api/v1/classrooms
func (h *ClassroomHandler) CreateClassroom(c *gin.Context) {
	var req model.CreateClassroomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	classroom := &model.Classroom{
		Name:         req.Name,
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
		SubjectIDs:   req.SubjectIDs,
	}
	if err := h.classroomService.Create(c.Request.Context(), classroom); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"classroom": classroom})
}

// UpdateClassroom godoc
// PUT /api/v1/classrooms/:id
// Replaces the classroom's fields and subject list.
func (h *ClassroomHandler) UpdateClassroom(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateClassroomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	classroom := &model.Classroom{
		ID:           id,
		Name:         req.Name,
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
		SubjectIDs:   req.SubjectIDs,
	}
	if err := h.classroomService.Update(c.Request.Context(), classroom); err != nil {
		failWithError(c, err)
		return
	}

	// Fetch updated to get current updated_at timestamp
	updated, err := h.classroomService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classroom": updated})
}

// DeleteClassroom godoc
// DELETE /api/v1/classrooms/:id
// Fails while students or results still reference the classroom.
func (h *ClassroomHandler) DeleteClassroom(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.classroomService.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "classroom deleted successfully"})
}

// ListAssignments godoc
// GET /api/v1/classrooms/:id/teachers
func (h *ClassroomHandler) ListAssignments(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	assignments, err := h.classroomService.ListAssignments(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignments": assignments})
}

// AssignTeacher godoc
// POST /api/v1/classrooms/:id/teachers
func (h *ClassroomHandler) AssignTeacher(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.AssignTeacherRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignment := model.TeacherAssignment{TeacherID: req.TeacherID, ClassroomID: id, SubjectID: req.SubjectID}
	if err := h.classroomService.AssignTeacher(c.Request.Context(), assignment); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assignment": assignment})
}

// UnassignTeacher godoc
// DELETE /api/v1/classrooms/:id/teachers/:teacher_id/subjects/:subject_id
func (h *ClassroomHandler) UnassignTeacher(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	teacherID, ok := intParam(c, "teacher_id")
	if !ok {
		return
	}
	subjectID, ok := intParam(c, "subject_id")
	if !ok {
		return
	}

	assignment := model.TeacherAssignment{TeacherID: teacherID, ClassroomID: id, SubjectID: subjectID}
	if err := h.classroomService.UnassignTeacher(c.Request.Context(), assignment); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "assignment removed"})
}
