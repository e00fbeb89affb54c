// Package notify fans result transitions out over Redis: every event goes to
// the live feed channel and publications are queued for email delivery.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// Job is one queued email notification about a published result.
type Job struct {
	Event   model.ResultEvent `json:"event"`
	Attempt int               `json:"attempt"`
	// Recipients is empty on the first attempt; retries carry only the
	// contacts that have not been reached yet.
	Recipients []model.Contact `json:"recipients,omitempty"`
}

// EncodeJob serializes a job for the worker queue.
func EncodeJob(job Job) ([]byte, error) {
	return json.Marshal(job)
}

// DecodeJob parses a queued job.
func DecodeJob(raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("decode notification job: %w", err)
	}
	return job, nil
}

// NeedsEmail reports whether the event should reach students and parents.
func NeedsEmail(event model.ResultEvent) bool {
	return event.Action == model.ResultActionPublish && event.To == model.ResultStatusPublished
}

// RedisNotifier implements the result service's transition notifier.
type RedisNotifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisNotifier creates a new RedisNotifier.
func NewRedisNotifier(rdb *redis.Client, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
		log: log.With().Str("component", "result_notifier").Logger(),
	}
}

// Notify publishes the event and, for publications, enqueues an email job.
func (n *RedisNotifier) Notify(ctx context.Context, event model.ResultEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode result event: %w", err)
	}
	if err := n.rdb.Publish(ctx, config.CacheKey.ResultEventsChannel(), raw).Err(); err != nil {
		return fmt.Errorf("publish result event: %w", err)
	}

	if !NeedsEmail(event) {
		return nil
	}

	job, err := EncodeJob(Job{Event: event})
	if err != nil {
		return err
	}
	if err := n.rdb.RPush(ctx, config.WorkerKey.ResultNotificationQueue, job).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	n.log.Debug().Str("result_id", event.ResultID.String()).Msg("notification queued")
	return nil
}

// Subscribe streams result events until ctx is done or the returned close
// function is called. Malformed messages are skipped.
func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan model.ResultEvent, func() error) {
	sub := n.rdb.Subscribe(ctx, config.CacheKey.ResultEventsChannel())
	out := make(chan model.ResultEvent, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event model.ResultEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.log.Warn().Err(err).Msg("skipping malformed result event")
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, sub.Close
}
