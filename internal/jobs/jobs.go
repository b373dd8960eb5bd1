package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ghlsync/internal/db"
	"ghlsync/internal/events"
	"ghlsync/internal/logging"
	"ghlsync/internal/metrics"
	"ghlsync/internal/syncer"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskSync is the task type carrying one (submission, feed) pair.
const TaskSync = "ghl:sync"

// syncPayload is kept to the two identifiers on purpose: the submission,
// form, and feed are always refetched at execution time.
type syncPayload struct {
	SubmissionID int64 `json:"submissionId"`
	FeedID       int64 `json:"feedId"`
}

// syncTaskID gives each (submission, feed) pair a deterministic task ID,
// so a second schedule before the first run is rejected as a duplicate.
func syncTaskID(submissionID, feedID int64) string {
	return fmt.Sprintf("%s:%d:%d", TaskSync, submissionID, feedID)
}

type JobServer struct {
	server *asynq.Server
	client *asynq.Client
	db     *db.Pool
	engine *syncer.Engine
	bus    *events.Bus
	sink   *logging.Sink
	log    *zap.Logger
}

func NewJobServer(redisAddr string, dbPool *db.Pool, engine *syncer.Engine, bus *events.Bus, sink *logging.Sink, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server: server,
		client: client,
		db:     dbPool,
		engine: engine,
		bus:    bus,
		sink:   sink,
		log:    log,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSync, js.handleSync)
	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
	js.client.Close()
}

// handleSync is the job entry point. It refetches submission, form, and
// feed from their systems of record rather than trusting anything
// captured at schedule time, aborts quietly when any of them is missing
// or the feed is inactive, then delegates to the sync engine. Errors are
// never surfaced to asynq: a failed attempt stays unsynced for manual
// re-trigger rather than being retried.
func (js *JobServer) handleSync(ctx context.Context, t *asynq.Task) error {
	var payload syncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		js.log.Error("Invalid sync task payload", zap.Error(err))
		return nil
	}

	js.sink.Info("Background sync start",
		zap.Int64("submission_id", payload.SubmissionID),
		zap.Int64("feed_id", payload.FeedID))

	sub, err := js.db.GetSubmissionByID(ctx, payload.SubmissionID)
	if err != nil {
		js.log.Error("Failed to fetch submission", zap.Int64("submission_id", payload.SubmissionID), zap.Error(err))
		return nil
	}

	form, err := js.db.GetFormByID(ctx, sub.FormID)
	if err != nil {
		js.log.Error("Failed to fetch form", zap.Int64("form_id", sub.FormID), zap.Error(err))
		return nil
	}

	feed, err := js.db.GetFeedByID(ctx, payload.FeedID)
	if err != nil {
		js.log.Error("Feed not found, it may have been deleted", zap.Int64("feed_id", payload.FeedID), zap.Error(err))
		return nil
	}

	if !feed.IsActive {
		js.sink.Info("Feed is inactive, skipping background sync", zap.Int64("feed_id", feed.ID))
		return nil
	}

	result := js.engine.Execute(ctx, feed, sub, form)
	js.bus.SyncFinished(ctx, payload.SubmissionID, payload.FeedID, result)

	js.sink.Info("Background sync end",
		zap.Int64("submission_id", payload.SubmissionID),
		zap.Int64("feed_id", payload.FeedID),
		zap.String("status", string(result.Status)))
	return nil
}

// Schedule enqueues a one-shot sync job for a (submission, feed) pair.
// Returns false when a job for the same pair is already pending. The
// worker is blocked on the queue, so enqueuing is also the wake-up; no
// separate nudge is needed.
func Schedule(client *asynq.Client, submissionID, feedID int64) (bool, error) {
	payload, err := json.Marshal(syncPayload{SubmissionID: submissionID, FeedID: feedID})
	if err != nil {
		return false, err
	}

	task := asynq.NewTask(TaskSync, payload)
	_, err = client.Enqueue(task,
		asynq.TaskID(syncTaskID(submissionID, feedID)),
		asynq.MaxRetry(0),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			metrics.ScheduledTotal.WithLabelValues("duplicate").Inc()
			return false, nil
		}
		metrics.ScheduledTotal.WithLabelValues("error").Inc()
		return false, err
	}

	metrics.ScheduledTotal.WithLabelValues("enqueued").Inc()
	return true, nil
}
