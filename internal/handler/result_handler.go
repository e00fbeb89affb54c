package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// ResultHandler exposes the exam result lifecycle.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// Create godoc
// POST /api/v1/results
// Enters marks for a student. Starts as submitted unless save_as_draft is set.
func (h *ResultHandler) Create(c *gin.Context) {
	var req model.CreateResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.resultService.Create(c.Request.Context(), middleware.GetActor(c), service.CreateResultInput{
		StudentID:   req.StudentID,
		ExamID:      uuid.MustParse(req.ExamID),
		SubjectID:   req.SubjectID,
		ClassroomID: req.ClassroomID,
		Score:       *req.Score,
		MaxMarks:    req.MaxMarks,
		Remarks:     req.Remarks,
		SaveAsDraft: req.SaveAsDraft,
	})
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"result": result})
}

// Get godoc
// GET /api/v1/results/:id
func (h *ResultHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.resultService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Update godoc
// PUT /api/v1/results/:id
// Replaces the marks of a draft or submitted result.
func (h *ResultHandler) Update(c *gin.Context) {
	h.withMarks(c, h.resultService.Update)
}

// Resubmit godoc
// POST /api/v1/results/:id/resubmit
// Corrects a rejected result and sends it back for review.
func (h *ResultHandler) Resubmit(c *gin.Context) {
	h.withMarks(c, h.resultService.Resubmit)
}

// Submit godoc
// POST /api/v1/results/:id/submit
func (h *ResultHandler) Submit(c *gin.Context) {
	h.transition(c, h.resultService.Submit)
}

// Approve godoc
// POST /api/v1/results/:id/approve
func (h *ResultHandler) Approve(c *gin.Context) {
	h.transition(c, h.resultService.Approve)
}

// Publish godoc
// POST /api/v1/results/:id/publish
func (h *ResultHandler) Publish(c *gin.Context) {
	h.transition(c, h.resultService.Publish)
}

// Reject godoc
// POST /api/v1/results/:id/reject
// Sends a submitted result back to its creator. A reason is required.
func (h *ResultHandler) Reject(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.RejectResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.resultService.Reject(c.Request.Context(), middleware.GetActor(c), id, req.Reason)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListPending godoc
// GET /api/v1/results/pending
// Lists the review queue oldest first. Filters: status, exam_id, classroom_id, subject_id.
func (h *ResultHandler) ListPending(c *gin.Context) {
	page, perPage := pageQuery(c)
	filter := service.PendingFilter{Page: page, PerPage: perPage}

	if raw := c.Query("status"); raw != "" {
		status := model.ResultStatus(raw)
		filter.Status = &status
	}
	var ok bool
	if filter.ExamID, ok = optionalUUIDQuery(c, "exam_id"); !ok {
		return
	}
	if filter.ClassroomID, ok = optionalIntQuery(c, "classroom_id"); !ok {
		return
	}
	if filter.SubjectID, ok = optionalIntQuery(c, "subject_id"); !ok {
		return
	}

	results, pagination, err := h.resultService.GetPending(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// ListForStudent godoc
// GET /api/v1/students/:id/results
// Lists a student's published results, optionally for one exam_id.
func (h *ResultHandler) ListForStudent(c *gin.Context) {
	studentID, ok := intParam(c, "id")
	if !ok {
		return
	}
	examID, ok := optionalUUIDQuery(c, "exam_id")
	if !ok {
		return
	}

	results, err := h.resultService.ListPublishedForStudent(c.Request.Context(), middleware.GetActor(c), studentID, examID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ─── Internal ───────────────────────────────────────────────────────

type transitionFunc func(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ExamResult, error)

type marksFunc func(ctx context.Context, actor model.Actor, id uuid.UUID, in service.MarksInput) (*model.ExamResult, error)

func (h *ResultHandler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

func (h *ResultHandler) withMarks(c *gin.Context, fn marksFunc) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := fn(c.Request.Context(), middleware.GetActor(c), id, service.MarksInput{
		Score:    *req.Score,
		MaxMarks: req.MaxMarks,
		Remarks:  req.Remarks,
	})
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
