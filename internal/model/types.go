package model

import "time"

// SyncStatus represents the outcome of one sync attempt
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusSkipped SyncStatus = "skipped"
	SyncStatusFailed  SyncStatus = "failed"
)

// OpportunityStatus values accepted by the GHL API
type OpportunityStatus string

const (
	OpportunityStatusOpen      OpportunityStatus = "open"
	OpportunityStatusWon       OpportunityStatus = "won"
	OpportunityStatusLost      OpportunityStatus = "lost"
	OpportunityStatusAbandoned OpportunityStatus = "abandoned"
)

// Submission metadata keys written by the sync engine
const (
	MetaSynced        = "synced"
	MetaContactID     = "ghl_contact_id"
	MetaOpportunityID = "ghl_opportunity_id"
)

// FormField describes one field in a form schema
type FormField struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Form is the schema submissions are captured against
type Form struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Fields    []FormField `json:"fields"`
	CreatedAt time.Time   `json:"createdAt,omitempty"`
}

// Submission is an immutable record of form answers keyed by field ID.
// Meta carries the idempotency marker and CRM-assigned IDs.
type Submission struct {
	ID        int64             `json:"id"`
	FormID    int64             `json:"formId"`
	Values    map[string]string `json:"values"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"createdAt,omitempty"`
}

// Synced reports whether the idempotency marker is set.
func (s *Submission) Synced() bool {
	return s.Meta[MetaSynced] == "true"
}

// FeedMeta is the sync configuration stored on a feed.
//
// ContactFieldMap and CustomFieldMap values are either a form field
// reference ("field:<id>") or a literal template with merge tags.
type FeedMeta struct {
	ContactFieldMap     map[string]string `json:"contactFieldMap"`
	CustomFieldMap      map[string]string `json:"customFieldMap,omitempty"`
	ContactTags         string            `json:"contactTags,omitempty"`
	EnableOpportunity   bool              `json:"enableOpportunity,omitempty"`
	OpportunityPipeline string            `json:"opportunityPipeline,omitempty"`
	OpportunityStage    string            `json:"opportunityStage,omitempty"`
	OpportunityName     string            `json:"opportunityName,omitempty"`
	OpportunityValue    string            `json:"opportunityValue,omitempty"`
	OpportunityAssignTo string            `json:"opportunityAssignTo,omitempty"`
	OpportunityStatus   string            `json:"opportunityStatus,omitempty"`
}

// Feed describes one sync target for a form
type Feed struct {
	ID        int64     `json:"id"`
	FormID    int64     `json:"formId"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	Meta      FeedMeta  `json:"meta"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// OpportunityPayload is the opportunity create request body.
// locationId is injected by the API client, never set here.
type OpportunityPayload struct {
	ContactID       string   `json:"contactId"`
	PipelineID      string   `json:"pipelineId"`
	PipelineStageID string   `json:"pipelineStageId"`
	Name            string   `json:"name"`
	MonetaryValue   *float64 `json:"monetaryValue,omitempty"`
	AssignedTo      string   `json:"assignedTo,omitempty"`
	Status          string   `json:"status"`
	Source          string   `json:"source,omitempty"`
}

// ToMap converts the payload to the request body shape expected by the
// opportunities endpoint. Optional fields are omitted when unset.
func (p OpportunityPayload) ToMap() map[string]interface{} {
	data := map[string]interface{}{
		"contactId":       p.ContactID,
		"pipelineId":      p.PipelineID,
		"pipelineStageId": p.PipelineStageID,
		"name":            p.Name,
		"status":          p.Status,
	}
	if p.MonetaryValue != nil {
		data["monetaryValue"] = *p.MonetaryValue
	}
	if p.AssignedTo != "" {
		data["assignedTo"] = p.AssignedTo
	}
	if p.Source != "" {
		data["source"] = p.Source
	}
	return data
}

// SyncResult is the outcome of one sync engine execution
type SyncResult struct {
	ContactID     string     `json:"contactId,omitempty"`
	OpportunityID string     `json:"opportunityId,omitempty"`
	Status        SyncStatus `json:"status"`
	ErrorKind     string     `json:"errorKind,omitempty"`
}
