package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/stemsi/schoolhub-backend/internal/grading"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// SettingLookup reads display settings with a fallback.
type SettingLookup interface {
	GetOrDefault(ctx context.Context, key, fallback string) string
}

// ReportRow is one subject line of a report card.
type ReportRow struct {
	SubjectCode string  `json:"subject_code"`
	SubjectName string  `json:"subject_name"`
	Score       float64 `json:"score"`
	MaxMarks    float64 `json:"max_marks"`
	Percentage  float64 `json:"percentage"`
	Grade       string  `json:"grade"`
	Remarks     string  `json:"remarks"`
}

// ReportCard is a student's published results for one exam.
type ReportCard struct {
	SchoolName   string        `json:"school_name"`
	Footer       string        `json:"footer"`
	Student      model.Student `json:"student"`
	Exam         model.Exam    `json:"exam"`
	Rows         []ReportRow   `json:"rows"`
	Average      float64       `json:"average"`
	OverallGrade string        `json:"overall_grade"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// ReportService builds report cards from published results only.
type ReportService struct {
	results  *ResultService
	refs     ResultReferences
	settings SettingLookup
	now      func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(results *ResultService, refs ResultReferences, settings SettingLookup) *ReportService {
	return &ReportService{
		results:  results,
		refs:     refs,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BuildReportCard gathers the published results of a student for an exam.
// Read access is checked by the result service.
func (s *ReportService) BuildReportCard(ctx context.Context, actor model.Actor, studentID int, examID uuid.UUID) (*ReportCard, error) {
	results, err := s.results.ListPublishedForStudent(ctx, actor, studentID, &examID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("report card: no published results for student %d: %w", studentID, ErrNotFound)
	}

	student, err := s.refs.GetStudent(ctx, studentID)
	if err != nil {
		return nil, referenceError("student", err)
	}
	exam, err := s.refs.GetExam(ctx, examID)
	if err != nil {
		return nil, referenceError("exam", err)
	}

	card := &ReportCard{
		SchoolName:  s.settings.GetOrDefault(ctx, model.SettingSchoolName, "SchoolHub"),
		Footer:      s.settings.GetOrDefault(ctx, model.SettingReportFooter, ""),
		Student:     *student,
		Exam:        *exam,
		Rows:        make([]ReportRow, 0, len(results)),
		GeneratedAt: s.now(),
	}

	var total float64
	for _, r := range results {
		subject, err := s.refs.GetSubject(ctx, r.SubjectID)
		if err != nil {
			return nil, referenceError("subject", err)
		}
		card.Rows = append(card.Rows, ReportRow{
			SubjectCode: subject.Code,
			SubjectName: subject.Name,
			Score:       r.Score,
			MaxMarks:    r.MaxMarks,
			Percentage:  r.Percentage,
			Grade:       r.Grade,
			Remarks:     r.Remarks,
		})
		total += r.Percentage
	}
	sortReportRows(card.Rows)

	card.Average = grading.Round2(total / float64(len(results)))
	card.OverallGrade = grading.LetterGrade(card.Average)
	return card, nil
}

func sortReportRows(rows []ReportRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].SubjectName < rows[j].SubjectName })
}

// RenderReportCardPDF writes the card as an A4 PDF.
func RenderReportCardPDF(card *ReportCard, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 8, tr(card.SchoolName))
	pdf.Ln(10)
	pdf.SetDrawColor(40, 145, 108)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "LAPORAN HASIL UJIAN")
	pdf.Ln(12)

	// Student
	info := [][2]string{
		{"Nama", card.Student.Name},
		{"No. Induk", card.Student.AdmissionNo},
		{"Kelas", card.Student.ClassroomName},
		{"Ujian", card.Exam.Title},
		{"Tahun Ajaran", fmt.Sprintf("%s / Semester %d", card.Exam.AcademicYear, card.Exam.Term)},
	}
	for _, kv := range info {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(40, 6, kv[0]+":")
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, tr(kv[1]))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// Results table
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(40, 145, 108)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(20, 8, "KODE", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 8, "MATA PELAJARAN", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "NILAI", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "%", "1", 0, "C", true, 0, "")
	pdf.CellFormat(15, 8, "PREDIKAT", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "CATATAN", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(245, 245, 245)
	for i, row := range card.Rows {
		fill := i%2 == 0
		pdf.CellFormat(20, 7, tr(row.SubjectCode), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(60, 7, tr(row.SubjectName), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f / %.2f", row.Score, row.MaxMarks), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%.2f", row.Percentage), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(15, 7, row.Grade, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(25, 7, tr(truncate(row.Remarks, 14)), "1", 1, "L", fill, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 8, "RATA-RATA", "1", 0, "R", false, 0, "")
	pdf.CellFormat(20, 8, fmt.Sprintf("%.2f", card.Average), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, card.OverallGrade, "1", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, "Dicetak pada "+card.GeneratedAt.Format("02-01-2006 15:04")+" UTC")
	pdf.Ln(5)
	if card.Footer != "" {
		pdf.MultiCell(0, 5, tr(card.Footer), "", "L", false)
	}

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
