package service

import (
	"ghlsync/internal/jobs"

	"github.com/hibiken/asynq"
)

// Scheduler schedules background sync jobs
type Scheduler interface {
	// ScheduleSync enqueues a sync for a (submission, feed) pair.
	// Returns false when a job for the pair is already pending.
	ScheduleSync(submissionID, feedID int64) (bool, error)
}

// AsynqScheduler implements Scheduler using asynq
type AsynqScheduler struct {
	client *asynq.Client
}

func NewAsynqScheduler(client *asynq.Client) *AsynqScheduler {
	return &AsynqScheduler{client: client}
}

func (s *AsynqScheduler) ScheduleSync(submissionID, feedID int64) (bool, error) {
	return jobs.Schedule(s.client, submissionID, feedID)
}
