package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/mailer"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContacts struct {
	contacts []model.Contact
	err      error
	calls    int
}

func (f *fakeContacts) ContactsForStudent(_ context.Context, _ int) ([]model.Contact, error) {
	f.calls++
	return f.contacts, f.err
}

type fakeDetails struct{}

func (fakeDetails) GetResult(_ context.Context, id uuid.UUID) (*model.ExamResult, error) {
	return &model.ExamResult{ID: id, Score: 42, MaxMarks: 50, Percentage: 84, Grade: "A"}, nil
}

func (fakeDetails) GetStudent(_ context.Context, id int) (*model.Student, error) {
	return &model.Student{ID: id, Name: "Budi"}, nil
}

func (fakeDetails) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	return &model.Exam{ID: id, Title: "UTS"}, nil
}

func (fakeDetails) GetSubject(_ context.Context, id int) (*model.Subject, error) {
	return &model.Subject{ID: id, Name: "Fisika"}, nil
}

func (fakeDetails) SchoolName(context.Context) string { return "SMA Harapan" }

// recordingSender fails for every address listed in failFor.
type recordingSender struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []mailer.Message
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[msg.To[0].Address] {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newTestWorker(contacts ContactLister, sender mailer.Sender) *NotificationWorker {
	return NewNotificationWorker(nil, contacts, fakeDetails{}, sender, nil, 3, zerolog.Nop())
}

func publishedJob() notify.Job {
	return notify.Job{Event: model.ResultEvent{
		ResultID:  uuid.New(),
		StudentID: 7,
		ExamID:    uuid.New(),
		SubjectID: 2,
		Action:    model.ResultActionPublish,
		To:        model.ResultStatusPublished,
	}}
}

func TestHandleDeliversToEveryContact(t *testing.T) {
	contacts := &fakeContacts{contacts: []model.Contact{
		{Name: "Budi", Email: "budi@example.com", Role: model.RoleStudent},
		{Name: "Ibu Sari", Email: "sari@example.com", Role: model.RoleParent},
	}}
	sender := &recordingSender{}

	retry := newTestWorker(contacts, sender).handle(context.Background(), publishedJob())

	assert.Nil(t, retry)
	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[1].TextContent, "Halo Ibu Sari")
	assert.Contains(t, sender.sent[1].TextContent, "Fisika")
}

func TestHandleRetriesOnlyFailedContacts(t *testing.T) {
	contacts := &fakeContacts{contacts: []model.Contact{
		{Name: "Budi", Email: "budi@example.com"},
		{Name: "Ibu Sari", Email: "sari@example.com"},
	}}
	sender := &recordingSender{failFor: map[string]bool{"sari@example.com": true}}
	w := newTestWorker(contacts, sender)

	retry := w.handle(context.Background(), publishedJob())
	require.NotNil(t, retry)
	assert.Equal(t, 1, retry.Attempt)
	require.Len(t, retry.Recipients, 1)
	assert.Equal(t, "sari@example.com", retry.Recipients[0].Email)

	// Second attempt uses the carried recipients without a new lookup.
	sender.failFor = nil
	assert.Nil(t, w.handle(context.Background(), *retry))
	assert.Equal(t, 1, contacts.calls)
	assert.Len(t, sender.sent, 2)
}

func TestHandleContactLookupFailureRetries(t *testing.T) {
	contacts := &fakeContacts{err: errors.New("db down")}
	retry := newTestWorker(contacts, &recordingSender{}).handle(context.Background(), publishedJob())

	require.NotNil(t, retry)
	assert.Equal(t, 1, retry.Attempt)
	assert.Empty(t, retry.Recipients)
}

func TestHandleNoContactsIsDone(t *testing.T) {
	sender := &recordingSender{}
	retry := newTestWorker(&fakeContacts{}, sender).handle(context.Background(), publishedJob())

	assert.Nil(t, retry)
	assert.Empty(t, sender.sent)
}
