package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
)

// ReportHandler serves report cards built from published results.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetReportCard godoc
// GET /api/v1/students/:id/report-card?exam_id=
func (h *ReportHandler) GetReportCard(c *gin.Context) {
	card, ok := h.build(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report_card": card})
}

// DownloadReportCard godoc
// GET /api/v1/students/:id/report-card.pdf?exam_id=
func (h *ReportHandler) DownloadReportCard(c *gin.Context) {
	card, ok := h.build(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := service.RenderReportCardPDF(card, &buf); err != nil {
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	filename := fmt.Sprintf("rapor-%s-%s.pdf", card.Student.AdmissionNo, card.Exam.ID.String()[:8])
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *ReportHandler) build(c *gin.Context) (*service.ReportCard, bool) {
	studentID, ok := intParam(c, "id")
	if !ok {
		return nil, false
	}
	examID, err := uuid.Parse(c.Query("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	card, err := h.reportService.BuildReportCard(c.Request.Context(), middleware.GetActor(c), studentID, examID)
	if err != nil {
		failWithError(c, err)
		return nil, false
	}
	return card, true
}
