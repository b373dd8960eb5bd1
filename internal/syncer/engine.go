package syncer

import (
	"context"
	"fmt"

	"ghlsync/internal/ghl"
	"ghlsync/internal/logging"
	"ghlsync/internal/mapper"
	"ghlsync/internal/metrics"
	"ghlsync/internal/model"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ContactAPI is the slice of the GHL client the engine drives. Narrow on
// purpose so tests can count calls.
type ContactAPI interface {
	SearchContactByEmail(ctx context.Context, email string) (map[string]interface{}, error)
	CreateContact(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error)
	UpdateContact(ctx context.Context, contactID string, data map[string]interface{}) (map[string]interface{}, error)
	CreateOpportunity(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error)
}

// MetaStore persists submission metadata (idempotency marker, CRM IDs).
type MetaStore interface {
	SetSubmissionMeta(ctx context.Context, submissionID int64, key, value string) error
}

// Engine runs the contact/opportunity upsert protocol for one
// (submission, feed) pair. At most three API calls per execution, in the
// fixed order search → upsert → opportunity.
type Engine struct {
	api               ContactAPI
	store             MetaStore
	sink              *logging.Sink
	defaultLeadSource string
}

func NewEngine(api ContactAPI, store MetaStore, sink *logging.Sink, defaultLeadSource string) *Engine {
	return &Engine{
		api:               api,
		store:             store,
		sink:              sink,
		defaultLeadSource: defaultLeadSource,
	}
}

// Execute synchronizes one submission through one feed. The contract is
// best-effort opportunity, guaranteed contact sync: an opportunity
// failure is logged but never rolls back the contact write or blocks the
// synced marker.
func (e *Engine) Execute(ctx context.Context, feed *model.Feed, sub *model.Submission, form *model.Form) model.SyncResult {
	traceID := ulid.Make().String()
	log := func(fields ...zap.Field) []zap.Field {
		return append([]zap.Field{
			zap.String("trace_id", traceID),
			zap.Int64("submission_id", sub.ID),
			zap.Int64("feed_id", feed.ID),
		}, fields...)
	}

	e.sink.Info("Sync execute start", log(zap.String("feed", feed.Name))...)

	// Duplicate guard. Checked again here because another trigger may
	// have completed between scheduling and execution.
	if sub.Synced() {
		e.sink.Info("Submission already synced, skipping", log()...)
		return e.finish(model.SyncResult{Status: model.SyncStatusSkipped})
	}

	// Email resolution and validation, before any network call.
	rawEmail := mapper.ResolveContactField(feed, sub, form, "email")
	email, ok := mapper.ValidateEmail(rawEmail)
	if !ok {
		e.sink.ValidationError("email", "Email is missing or invalid, aborting sync",
			log(zap.String("raw_value", rawEmail))...)
		return e.finish(model.SyncResult{Status: model.SyncStatusFailed, ErrorKind: string(ghl.KindValidation)})
	}

	contactData := mapper.BuildContactData(feed, sub, form, e.defaultLeadSource)

	// Call 1 of 3: search by email. Not-found is an empty result, any
	// other failure is fatal to the attempt.
	searchResult, err := e.api.SearchContactByEmail(ctx, email)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues("search_contact", "error").Inc()
		e.sink.Failure("search_contact", "Failed to search for contact by email", err)
		return e.finish(model.SyncResult{Status: model.SyncStatusFailed, ErrorKind: string(ghl.KindOf(err))})
	}
	metrics.APICallsTotal.WithLabelValues("search_contact", "ok").Inc()

	// Call 2 of 3: create or update.
	existingID := ghl.ContactIDFromSearch(searchResult)

	var contactResult map[string]interface{}
	var op string
	if existingID != "" {
		op = "update_contact"
		e.sink.Info("Existing contact found, updating", log(zap.String("contact_id", existingID))...)
		contactResult, err = e.api.UpdateContact(ctx, existingID, contactData)
	} else {
		op = "create_contact"
		e.sink.Info("No existing contact found, creating", log()...)
		contactResult, err = e.api.CreateContact(ctx, contactData)
	}
	if err != nil {
		metrics.APICallsTotal.WithLabelValues(op, "error").Inc()
		e.sink.Failure(op, fmt.Sprintf("Contact upsert failed for submission #%d", sub.ID), err)
		return e.finish(model.SyncResult{Status: model.SyncStatusFailed, ErrorKind: string(ghl.KindOf(err))})
	}
	metrics.APICallsTotal.WithLabelValues(op, "ok").Inc()

	contactID := ghl.ContactIDFromResponse(contactResult)
	if contactID == "" {
		contactID = existingID
	}
	if contactID != "" {
		if err := e.store.SetSubmissionMeta(ctx, sub.ID, model.MetaContactID, contactID); err != nil {
			e.sink.Error("Failed to persist contact ID", log(zap.Error(err))...)
		}
	}
	e.sink.Info("Contact synced", log(zap.String("contact_id", contactID), zap.String("op", op))...)

	result := model.SyncResult{ContactID: contactID, Status: model.SyncStatusSuccess}

	// Call 3 of 3, conditional: opportunity. Non-fatal by policy.
	if feed.Meta.EnableOpportunity && contactID != "" {
		result.OpportunityID = e.createOpportunity(ctx, feed, sub, form, contactID, log)
	}

	// Mark synced as long as the contact upsert succeeded, regardless of
	// the opportunity outcome. The marker is monotonic.
	if err := e.store.SetSubmissionMeta(ctx, sub.ID, model.MetaSynced, "true"); err != nil {
		e.sink.Error("Failed to persist synced marker", log(zap.Error(err))...)
	}
	if sub.Meta == nil {
		sub.Meta = make(map[string]string)
	}
	sub.Meta[model.MetaSynced] = "true"

	e.sink.Info("Submission marked as synced", log()...)
	return e.finish(result)
}

// createOpportunity runs the optional third call. Returns the created
// opportunity ID, or "" when skipped or failed.
func (e *Engine) createOpportunity(ctx context.Context, feed *model.Feed, sub *model.Submission, form *model.Form, contactID string, log func(...zap.Field) []zap.Field) string {
	payload := mapper.BuildOpportunityData(feed, sub, form, contactID, e.defaultLeadSource)

	// Configuration may have changed between feed validation and async
	// execution, so pipeline and stage are re-checked here.
	if payload.PipelineID == "" || payload.PipelineStageID == "" {
		e.sink.Warn("Opportunity creation enabled but pipeline or stage is not configured, skipping opportunity", log()...)
		return ""
	}

	e.sink.Info("Creating opportunity", log(
		zap.String("pipeline_id", payload.PipelineID),
		zap.String("stage_id", payload.PipelineStageID))...)

	oppResult, err := e.api.CreateOpportunity(ctx, payload.ToMap())
	if err != nil {
		metrics.APICallsTotal.WithLabelValues("create_opportunity", "error").Inc()
		// Non-fatal: the contact is already synced.
		e.sink.Failure("create_opportunity", "Failed to create opportunity", err)
		return ""
	}
	metrics.APICallsTotal.WithLabelValues("create_opportunity", "ok").Inc()

	oppID := ghl.OpportunityIDFromResponse(oppResult)
	if oppID != "" {
		if err := e.store.SetSubmissionMeta(ctx, sub.ID, model.MetaOpportunityID, oppID); err != nil {
			e.sink.Error("Failed to persist opportunity ID", log(zap.Error(err))...)
		}
		e.sink.Info("Opportunity created", log(zap.String("opportunity_id", oppID))...)
	}
	return oppID
}

func (e *Engine) finish(result model.SyncResult) model.SyncResult {
	metrics.SyncsTotal.WithLabelValues(string(result.Status)).Inc()
	return result
}
