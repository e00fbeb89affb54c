package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/metrics"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/repository"
)

var (
	testExamID = uuid.MustParse("6f1f7c2e-8a57-4a55-9f57-0c5d1c3b9a01")

	adminActor   = model.Actor{UserID: 1, Role: model.RoleAdmin}
	teacher      = model.Actor{UserID: 11, Role: model.RoleTeacher}
	otherTeacher = model.Actor{UserID: 12, Role: model.RoleTeacher}
	headTeacher  = model.Actor{UserID: 21, Role: model.RoleHeadTeacher}
	accounts     = model.Actor{UserID: 41, Role: model.RoleAccounts}
	parentOfOne  = model.Actor{UserID: 31, Role: model.RoleParent, StudentIDs: []int{1}}
)

const (
	classA      = 10
	classB      = 20
	subjMath    = 100
	subjPhysics = 101
	subjHistory = 200
	studentA    = 1
	studentB    = 2
	studentC    = 3
)

// fakeRefs is an in-memory school: classroom A teaches math and physics,
// classroom B teaches history.
type fakeRefs struct {
	exams       map[uuid.UUID]*model.Exam
	students    map[int]*model.Student
	classrooms  map[int]*model.Classroom
	subjects    map[int]*model.Subject
	assignments map[model.TeacherAssignment]bool
}

func newFakeRefs() *fakeRefs {
	return &fakeRefs{
		exams: map[uuid.UUID]*model.Exam{
			testExamID: {ID: testExamID, Title: "UTS Ganjil", Term: 1, AcademicYear: "2026/2027"},
		},
		students: map[int]*model.Student{
			studentA: {ID: studentA, Name: "Budi", AdmissionNo: "S-001", ClassroomID: classA, ClassroomName: "X IPA 1"},
			studentB: {ID: studentB, Name: "Sari", AdmissionNo: "S-002", ClassroomID: classB, ClassroomName: "X IPS 1"},
			studentC: {ID: studentC, Name: "Andi", AdmissionNo: "S-003", ClassroomID: classA, ClassroomName: "X IPA 1"},
		},
		classrooms: map[int]*model.Classroom{
			classA: {ID: classA, Name: "X IPA 1", SubjectIDs: []int{subjMath, subjPhysics}},
			classB: {ID: classB, Name: "X IPS 1", SubjectIDs: []int{subjHistory}},
		},
		subjects: map[int]*model.Subject{
			subjMath:    {ID: subjMath, Code: "MTK", Name: "Matematika"},
			subjPhysics: {ID: subjPhysics, Code: "FIS", Name: "Fisika"},
			subjHistory: {ID: subjHistory, Code: "SEJ", Name: "Sejarah"},
		},
		assignments: map[model.TeacherAssignment]bool{
			{TeacherID: teacher.UserID, ClassroomID: classA, SubjectID: subjMath}: true,
		},
	}
}

func (f *fakeRefs) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	if e, ok := f.exams[id]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRefs) GetStudent(_ context.Context, id int) (*model.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRefs) GetClassroom(_ context.Context, id int) (*model.Classroom, error) {
	if c, ok := f.classrooms[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRefs) GetSubject(_ context.Context, id int) (*model.Subject, error) {
	if s, ok := f.subjects[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRefs) ClassroomHasSubject(_ context.Context, classroomID, subjectID int) (bool, error) {
	c, ok := f.classrooms[classroomID]
	if !ok {
		return false, nil
	}
	for _, id := range c.SubjectIDs {
		if id == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRefs) IsTeacherAssigned(_ context.Context, teacherID, classroomID, subjectID int) (bool, error) {
	return f.assignments[model.TeacherAssignment{TeacherID: teacherID, ClassroomID: classroomID, SubjectID: subjectID}], nil
}

// recordingNotifier keeps every event it is told about.
type recordingNotifier struct {
	mu     sync.Mutex
	events []model.ResultEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event model.ResultEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) actions() []model.ResultAction {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.ResultAction, len(n.events))
	for i, e := range n.events {
		out[i] = e.Action
	}
	return out
}

// stepClock returns a clock that advances one minute per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

type resultFixture struct {
	svc      *ResultService
	repo     *repository.MemoryResultRepository
	refs     *fakeRefs
	notifier *recordingNotifier
	cfg      *config.Config
}

func newResultFixture() *resultFixture {
	f := &resultFixture{
		repo:     repository.NewMemoryResultRepository(),
		refs:     newFakeRefs(),
		notifier: &recordingNotifier{},
		cfg:      &config.Config{},
	}
	f.svc = NewResultService(
		f.cfg,
		rbac.NewGate(rbac.DefaultPolicy()),
		f.repo,
		f.refs,
		f.notifier,
		metrics.New("test"),
		zerolog.Nop(),
	)
	f.svc.now = stepClock()
	return f
}

func createInput(student, subject, classroom int, score float64) CreateResultInput {
	return CreateResultInput{
		StudentID:   student,
		ExamID:      testExamID,
		SubjectID:   subject,
		ClassroomID: classroom,
		Score:       score,
		MaxMarks:    100,
	}
}

type fakeSettings map[string]string

func (f fakeSettings) GetOrDefault(_ context.Context, key, fallback string) string {
	if v, ok := f[key]; ok && v != "" {
		return v
	}
	return fallback
}
