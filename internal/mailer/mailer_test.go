package mailer

import (
	"context"
	"net/mail"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultPublished(t *testing.T) {
	msg, err := ResultPublished(mail.Address{Name: "Ibu Sari", Address: "sari@example.com"}, ResultPublishedData{
		RecipientName: "Ibu Sari",
		StudentName:   "Budi",
		ExamTitle:     "UTS Ganjil",
		SubjectName:   "Matematika",
		Score:         85,
		MaxMarks:      100,
		Percentage:    85,
		Grade:         "A",
		Remarks:       "Pertahankan",
		SchoolName:    "SMA Harapan",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nilai Matematika - UTS Ganjil", msg.Subject)
	require.Len(t, msg.To, 1)
	assert.Equal(t, "sari@example.com", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "85.00 / 100.00 (85.00%)")
	assert.Contains(t, msg.TextContent, "Predikat    : A")
	assert.Contains(t, msg.TextContent, "Pertahankan")
	assert.Contains(t, msg.HTMLContent, "<strong>Budi</strong>")
}

func TestResultPublishedEscapesHTML(t *testing.T) {
	msg, err := ResultPublished(mail.Address{Address: "x@example.com"}, ResultPublishedData{
		StudentName: "<script>",
		SubjectName: "IPA",
		ExamTitle:   "UAS",
		MaxMarks:    100,
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTMLContent, "<script>")
	assert.NotContains(t, msg.TextContent, "Catatan")
}

func TestSendGridPrepare(t *testing.T) {
	s := NewSendGridSender("key", "SchoolHub", "Tata Usaha", "tu@example.com")
	m := s.prepare(Message{
		To:          []mail.Address{{Name: "A", Address: "a@example.com"}},
		Subject:     "Nilai",
		TextContent: "isi",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[SchoolHub] Nilai", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "a@example.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "tu@example.com", m.From.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}

func TestNewFallsBackToLogSender(t *testing.T) {
	cfg := &config.Config{MailDriver: config.MailDriverSendGrid}
	s := New(cfg, zerolog.Nop())
	_, ok := s.(*LogSender)
	assert.True(t, ok)

	assert.NoError(t, s.Send(context.Background(), Message{Subject: "x"}))
}
