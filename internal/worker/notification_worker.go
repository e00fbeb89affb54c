package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/mailer"
	"github.com/stemsi/schoolhub-backend/internal/metrics"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/notify"
)

const (
	NotifyPollTimeout = 1 * time.Second
	NotifySendTimeout = 15 * time.Second
)

// ContactLister finds who hears about a student's results.
type ContactLister interface {
	ContactsForStudent(ctx context.Context, studentID int) ([]model.Contact, error)
}

// NotificationDetails loads what the email body needs.
type NotificationDetails interface {
	GetResult(ctx context.Context, id uuid.UUID) (*model.ExamResult, error)
	GetStudent(ctx context.Context, id int) (*model.Student, error)
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	GetSubject(ctx context.Context, id int) (*model.Subject, error)
	SchoolName(ctx context.Context) string
}

// NotificationWorker drains the result notification queue and emails the
// student and linked parents about published results.
type NotificationWorker struct {
	rdb         *redis.Client
	contacts    ContactLister
	details     NotificationDetails
	sender      mailer.Sender
	metrics     *metrics.Metrics
	maxAttempts int
	log         zerolog.Logger
}

func NewNotificationWorker(
	rdb *redis.Client,
	contacts ContactLister,
	details NotificationDetails,
	sender mailer.Sender,
	m *metrics.Metrics,
	maxAttempts int,
	log zerolog.Logger,
) *NotificationWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &NotificationWorker{
		rdb:         rdb,
		contacts:    contacts,
		details:     details,
		sender:      sender,
		metrics:     m,
		maxAttempts: maxAttempts,
		log:         log.With().Str("component", "notification_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotificationWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("NotificationWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, NotifyPollTimeout, config.WorkerKey.ResultNotificationQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			job, err := notify.DecodeJob(item[1])
			if err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			sendCtx, cancel := context.WithTimeout(context.Background(), NotifySendTimeout)
			retry := w.handle(sendCtx, job)
			cancel()

			if retry != nil {
				w.requeue(context.Background(), *retry)
			}
		}
	}
}

// ----------------------------------------------------------------
// Delivery
// ----------------------------------------------------------------

// handle delivers job and returns the job to retry, or nil when nothing is left.
func (w *NotificationWorker) handle(ctx context.Context, job notify.Job) *notify.Job {
	log := w.log.With().
		Str("result_id", job.Event.ResultID.String()).
		Int("attempt", job.Attempt+1).
		Logger()

	recipients := job.Recipients
	if len(recipients) == 0 {
		contacts, err := w.contacts.ContactsForStudent(ctx, job.Event.StudentID)
		if err != nil {
			log.Warn().Err(err).Msg("contact lookup failed")
			return w.nextAttempt(job, nil)
		}
		if len(contacts) == 0 {
			log.Info().Msg("student has no contacts, skipping")
			return nil
		}
		recipients = contacts
	}

	data, err := w.loadData(ctx, job.Event)
	if err != nil {
		log.Warn().Err(err).Msg("loading notification details failed")
		return w.nextAttempt(job, recipients)
	}

	var failed []model.Contact
	for _, contact := range recipients {
		data.RecipientName = contact.Name
		msg, err := mailer.ResultPublished(contact.Address(), data)
		if err != nil {
			// Rendering failures are permanent.
			log.Error().Err(err).Str("email", contact.Email).Msg("rendering notification failed")
			w.metrics.ObserveNotification(metrics.OutcomeRejected)
			continue
		}
		if err := w.sender.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Str("email", contact.Email).Msg("sending notification failed")
			w.metrics.ObserveNotification(metrics.OutcomeRejected)
			failed = append(failed, contact)
			continue
		}
		w.metrics.ObserveNotification(metrics.OutcomeApplied)
	}

	if len(failed) == 0 {
		log.Info().Int("recipients", len(recipients)).Msg("notification delivered")
		return nil
	}
	return w.nextAttempt(job, failed)
}

func (w *NotificationWorker) loadData(ctx context.Context, event model.ResultEvent) (mailer.ResultPublishedData, error) {
	result, err := w.details.GetResult(ctx, event.ResultID)
	if err != nil {
		return mailer.ResultPublishedData{}, fmt.Errorf("result: %w", err)
	}
	student, err := w.details.GetStudent(ctx, event.StudentID)
	if err != nil {
		return mailer.ResultPublishedData{}, fmt.Errorf("student: %w", err)
	}
	exam, err := w.details.GetExam(ctx, event.ExamID)
	if err != nil {
		return mailer.ResultPublishedData{}, fmt.Errorf("exam: %w", err)
	}
	subject, err := w.details.GetSubject(ctx, event.SubjectID)
	if err != nil {
		return mailer.ResultPublishedData{}, fmt.Errorf("subject: %w", err)
	}

	return mailer.ResultPublishedData{
		StudentName: student.Name,
		ExamTitle:   exam.Title,
		SubjectName: subject.Name,
		Score:       result.Score,
		MaxMarks:    result.MaxMarks,
		Percentage:  result.Percentage,
		Grade:       result.Grade,
		Remarks:     result.Remarks,
		SchoolName:  w.details.SchoolName(ctx),
	}, nil
}

// nextAttempt bumps the attempt counter. recipients narrows the retry to
// the contacts still owed an email; nil means look them up again.
func (w *NotificationWorker) nextAttempt(job notify.Job, recipients []model.Contact) *notify.Job {
	next := notify.Job{
		Event:      job.Event,
		Attempt:    job.Attempt + 1,
		Recipients: recipients,
	}
	return &next
}

// ----------------------------------------------------------------
// Requeue or dead-letter
// ----------------------------------------------------------------

func (w *NotificationWorker) requeue(ctx context.Context, job notify.Job) {
	raw, err := notify.EncodeJob(job)
	if err != nil {
		w.log.Error().Err(err).Msg("encode retry job")
		return
	}

	queue := config.WorkerKey.ResultNotificationQueue
	if job.Attempt >= w.maxAttempts {
		queue = config.WorkerKey.ResultNotificationDeadQueue
		w.log.Error().
			Str("result_id", job.Event.ResultID.String()).
			Int("attempts", job.Attempt).
			Msg("notification gave up, moved to dead queue")
	}

	if err := w.rdb.RPush(ctx, queue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("queue", queue).Msg("requeue failed")
	}
}
