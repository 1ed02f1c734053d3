package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	// DefaultConcurrency is the number of workers per job family
	DefaultConcurrency = 5
	// DefaultMaxAttempts bounds retries; a job that fails this many times is dropped
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the fixed backoff between attempts
	DefaultRetryDelay = 5 * time.Second
	// DefaultPromoteEvery is how often due delayed jobs are moved back onto the list
	DefaultPromoteEvery = time.Second

	queueKeyPrefix   = "queue:"
	processingSuffix = ":processing"
	delayedSuffix    = ":delayed"
	popTimeout       = 2 * time.Second
)

// Job is the envelope pushed onto a queue. The payload is BSON extended JSON
// so credential records survive the trip with every field intact, including
// ones the public JSON encoding hides.
type Job struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// DecodePayload reconstructs the enqueued value into dest.
func (j Job) DecodePayload(dest interface{}) error {
	return bson.UnmarshalExtJSON(j.Payload, false, dest)
}

// Handler processes one job. Returning an error triggers a retry; delivery is
// at-least-once, so handlers must tolerate replayed payloads.
type Handler func(ctx context.Context, job Job) error

// Queue is a durable Redis-backed job queue with a fixed-size worker pool per
// job family. Every state a job can be in lives in Redis: waiting on the main
// list, in flight on a per-queue processing list, or parked in a delayed zset
// scored by the time its retry is due. A process that dies at any point leaves
// the job in one of those three keys, where the next Process call finds it.
type Queue struct {
	client *redis.Client
	name   string
	key    string
	// processingKey holds jobs between pop and ack so a crash mid-handler
	// cannot lose them.
	processingKey string
	// delayedKey is a zset of failed jobs waiting out their retry delay.
	delayedKey string

	// Tunable before Process is called; tests shrink the intervals.
	Concurrency  int
	MaxAttempts  int
	RetryDelay   time.Duration
	PromoteEvery time.Duration
}

func NewQueue(client *redis.Client, name string) *Queue {
	return &Queue{
		client:        client,
		name:          name,
		key:           queueKeyPrefix + name,
		processingKey: queueKeyPrefix + name + processingSuffix,
		delayedKey:    queueKeyPrefix + name + delayedSuffix,
		Concurrency:   DefaultConcurrency,
		MaxAttempts:   DefaultMaxAttempts,
		RetryDelay:    DefaultRetryDelay,
		PromoteEvery:  DefaultPromoteEvery,
	}
}

// Enqueue admits a job and returns once it is durably queued in Redis.
func (q *Queue) Enqueue(ctx context.Context, jobName string, payload interface{}) error {
	data, err := bson.MarshalExtJSON(payload, false, false)
	if err != nil {
		return err
	}

	job := Job{
		ID:      uuid.NewString(),
		Name:    jobName,
		Payload: data,
	}

	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return q.client.LPush(ctx, q.key, encoded).Err()
}

// Process starts the worker pool. Any jobs a previous pool left in flight are
// requeued first, then workers and the delayed-job promoter run until ctx is
// cancelled.
func (q *Queue) Process(ctx context.Context, handler Handler) {
	q.recoverInFlight(ctx)
	go q.promote(ctx)
	for i := 0; i < q.Concurrency; i++ {
		go q.worker(ctx, handler)
	}
}

// recoverInFlight moves jobs stranded on the processing list by a crashed or
// stopped pool back onto the main list. Handlers are replay-safe, so a job
// that had actually completed before the crash-only ack was lost is harmless.
func (q *Queue) recoverInFlight(ctx context.Context) {
	recovered := 0
	for {
		err := q.client.RPopLPush(ctx, q.processingKey, q.key).Err()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("queue %s: in-flight recovery stopped: %v", q.name, err)
			}
			break
		}
		recovered++
	}
	if recovered > 0 {
		log.Printf("queue %s: requeued %d in-flight job(s) from a previous run", q.name, recovered)
	}
}

// promote moves delayed jobs whose retry time has come back onto the main
// list. Push-then-remove ordering means a crash in between re-delivers the
// job instead of losing it.
func (q *Queue) promote(ctx context.Context) {
	ticker := time.NewTicker(q.PromoteEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		due, err := q.client.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
			Min: "-inf",
			Max: strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).Result()
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("queue %s: reading delayed jobs failed: %v", q.name, err)
			}
			continue
		}

		for _, raw := range due {
			pipe := q.client.TxPipeline()
			pipe.RPush(ctx, q.key, raw)
			pipe.ZRem(ctx, q.delayedKey, raw)
			if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("queue %s: promoting delayed job failed: %v", q.name, err)
			}
		}
	}
}

func (q *Queue) worker(ctx context.Context, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Pop and park on the processing list in one step, so the job is
		// never outside Redis while a handler holds it.
		raw, err := q.client.BRPopLPush(ctx, q.key, q.processingKey, popTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("queue %s: pop failed: %v", q.name, err)
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			log.Printf("queue %s: dropping undecodable job: %v", q.name, err)
			q.ack(raw)
			continue
		}

		if err := handler(ctx, job); err != nil {
			q.retry(job, raw, err)
			continue
		}
		q.ack(raw)
	}
}

// ack removes a finished job from the processing list. Runs on a background
// context: an ack must not be skipped just because shutdown began.
func (q *Queue) ack(raw string) {
	if err := q.client.LRem(context.Background(), q.processingKey, 1, raw).Err(); err != nil {
		log.Printf("queue %s: ack failed: %v", q.name, err)
	}
}

// retry parks a failed job in the delayed zset, due RetryDelay from now, then
// acks the in-flight copy. The park and the ack ride one transaction on a
// background context so a shutdown mid-retry cannot drop the job; jobs at the
// attempt bound are logged and acked without rescheduling.
func (q *Queue) retry(job Job, raw string, cause error) {
	job.Attempts++
	if job.Attempts >= q.MaxAttempts {
		log.Printf("queue %s: job %s (%s) failed after %d attempts, giving up: %v",
			q.name, job.ID, job.Name, job.Attempts, cause)
		q.ack(raw)
		return
	}

	log.Printf("queue %s: job %s (%s) failed attempt %d/%d, retrying: %v",
		q.name, job.ID, job.Name, job.Attempts, q.MaxAttempts, cause)

	encoded, err := json.Marshal(job)
	if err != nil {
		log.Printf("queue %s: job %s re-encode failed, leaving in flight: %v", q.name, job.ID, err)
		return
	}

	ctx := context.Background()
	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, q.delayedKey, redis.Z{
		Score:  float64(time.Now().Add(q.RetryDelay).UnixMilli()),
		Member: string(encoded),
	})
	pipe.LRem(ctx, q.processingKey, 1, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		// The job is still on the processing list; recovery requeues it.
		log.Printf("queue %s: job %s reschedule failed, leaving in flight: %v", q.name, job.ID, err)
	}
}
