package events

import (
	"context"
	"encoding/json"
	"time"

	"ghlsync/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Channel is the pub/sub channel sync outcomes are broadcast on.
	Channel = "ghlsync.events"

	streamKey    = "ghlsync:events"
	streamMaxLen = 10000
)

// Bus broadcasts sync lifecycle events over Redis pub/sub and appends
// them to a capped stream so operators can inspect recent outcomes.
// Publishing is best effort; failures are logged, never propagated.
type Bus struct {
	rdb *redis.Client
	log *zap.Logger
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{rdb: rdb, log: log}
}

// SyncFinished publishes the outcome of one background sync.
func (b *Bus) SyncFinished(ctx context.Context, submissionID, feedID int64, result model.SyncResult) {
	b.publish(ctx, map[string]interface{}{
		"type":          "sync.finished",
		"submissionId":  submissionID,
		"feedId":        feedID,
		"status":        string(result.Status),
		"contactId":     result.ContactID,
		"opportunityId": result.OpportunityID,
		"errorKind":     result.ErrorKind,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (b *Bus) publish(ctx context.Context, event map[string]interface{}) {
	if b == nil || b.rdb == nil {
		return
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		b.log.Error("Failed to marshal event", zap.Error(err))
		return
	}

	if err := b.rdb.Publish(ctx, Channel, encoded).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.Error(err))
	}

	err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": encoded},
	}).Err()
	if err != nil {
		b.log.Error("Failed to append event to stream", zap.Error(err))
	}
}

// Recent returns up to count most recent events from the stream, newest
// first.
func (b *Bus) Recent(ctx context.Context, count int64) ([]map[string]interface{}, error) {
	entries, err := b.rdb.XRevRangeN(ctx, streamKey, "+", "-", count).Result()
	if err != nil {
		return nil, err
	}

	events := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		raw, ok := entry.Values["data"].(string)
		if !ok {
			continue
		}
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			b.log.Warn("Skipping malformed event", zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
