package service

import (
	"context"
	"fmt"

	"ghlsync/internal/db"
	"ghlsync/internal/logging"
	"ghlsync/internal/mapper"
	"ghlsync/internal/model"

	"go.uber.org/zap"
)

// SubmissionService accepts submissions and runs the fast path for each
// active feed: duplicate check, email validation, then background
// dispatch. It never performs network calls; the slow work happens in
// the job worker.
type SubmissionService struct {
	queries   *db.Queries
	scheduler Scheduler
	sink      *logging.Sink
}

func NewSubmissionService(queries *db.Queries, scheduler Scheduler, sink *logging.Sink) *SubmissionService {
	return &SubmissionService{
		queries:   queries,
		scheduler: scheduler,
		sink:      sink,
	}
}

// Submit stores a submission and dispatches a sync for every active feed
// of the form. Dispatch problems are logged, never surfaced to the
// submitter: the triggering request always succeeds once the submission
// is stored.
func (s *SubmissionService) Submit(ctx context.Context, formID int64, values map[string]string) (*model.Submission, error) {
	form, err := s.queries.GetFormByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form: %w", err)
	}

	sub, err := s.queries.CreateSubmission(ctx, formID, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	feeds, err := s.queries.ListActiveFeedsByForm(ctx, formID)
	if err != nil {
		s.sink.Error("Failed to list feeds for form",
			zap.Int64("form_id", formID), zap.Error(err))
		return sub, nil
	}

	for _, feed := range feeds {
		s.ProcessFeed(ctx, feed, sub, form)
	}

	return sub, nil
}

// ProcessFeed is the synchronous trigger for one feed. It performs only
// the duplicate check, email validation, and scheduling, so the request
// path stays fast.
func (s *SubmissionService) ProcessFeed(ctx context.Context, feed *model.Feed, sub *model.Submission, form *model.Form) {
	fields := []zap.Field{
		zap.Int64("submission_id", sub.ID),
		zap.Int64("feed_id", feed.ID),
		zap.String("feed", feed.Name),
	}

	s.sink.Info("Feed processing start", fields...)

	// Cheap duplicate check before scheduling any work.
	if sub.Synced() {
		s.sink.Info("Submission already synced, skipping", fields...)
		return
	}

	// Fail fast on a missing or malformed email before dispatching.
	rawEmail := mapper.ResolveContactField(feed, sub, form, "email")
	if _, ok := mapper.ValidateEmail(rawEmail); !ok {
		s.sink.ValidationError("email", "Email is missing or invalid, aborting feed processing",
			append(fields, zap.String("raw_value", rawEmail))...)
		return
	}

	enqueued, err := s.scheduler.ScheduleSync(sub.ID, feed.ID)
	if err != nil {
		s.sink.Error("Failed to schedule background sync", append(fields, zap.Error(err))...)
		return
	}
	if !enqueued {
		s.sink.Info("Background sync already scheduled, skipping duplicate", fields...)
		return
	}

	s.sink.Info("Background sync dispatched", fields...)
}

// GetSubmission loads a submission with its metadata.
func (s *SubmissionService) GetSubmission(ctx context.Context, id int64) (*model.Submission, error) {
	return s.queries.GetSubmissionByID(ctx, id)
}

// ClearSyncMarker resets the idempotency marker so an operator can
// re-trigger a failed sync manually.
func (s *SubmissionService) ClearSyncMarker(ctx context.Context, id int64) error {
	return s.queries.SetSubmissionMeta(ctx, id, model.MetaSynced, "false")
}
