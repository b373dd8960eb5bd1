package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ghlsync/internal/db"
	"ghlsync/internal/mapper"
	"ghlsync/internal/model"

	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// feedMetaSchema constrains feed configuration documents at the API
// boundary. Opportunity pipeline/stage presence is checked separately
// because it is conditional on the toggle.
const feedMetaSchema = `{
	"type": "object",
	"properties": {
		"contactFieldMap": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "string"}
		},
		"customFieldMap": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"contactTags": {"type": "string"},
		"enableOpportunity": {"type": "boolean"},
		"opportunityPipeline": {"type": "string"},
		"opportunityStage": {"type": "string"},
		"opportunityName": {"type": "string"},
		"opportunityValue": {"type": "string"},
		"opportunityAssignTo": {"type": "string"},
		"opportunityStatus": {"type": "string", "enum": ["", "open", "won", "lost", "abandoned"]}
	},
	"required": ["contactFieldMap"]
}`

// ErrInvalidFeed marks feed configuration errors so the transport
// layer can distinguish them from storage failures.
var ErrInvalidFeed = errors.New("invalid feed configuration")

// FeedService manages sync feed configuration.
type FeedService struct {
	queries *db.Queries
	schema  *js.Schema
}

func NewFeedService(queries *db.Queries) (*FeedService, error) {
	compiler := js.NewCompiler()
	if err := compiler.AddResource("mem://feed-meta.json", strings.NewReader(feedMetaSchema)); err != nil {
		return nil, fmt.Errorf("failed to add feed schema resource: %w", err)
	}
	schema, err := compiler.Compile("mem://feed-meta.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile feed schema: %w", err)
	}
	return &FeedService{queries: queries, schema: schema}, nil
}

// ValidateMeta checks a feed document against the schema and the
// conditional rules: an email mapping is always required, and pipeline
// plus stage are required whenever opportunity creation is enabled.
func (s *FeedService) ValidateMeta(meta model.FeedMeta) error {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode feed meta: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("failed to decode feed meta: %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}

	if !hasEmailMapping(meta.ContactFieldMap) {
		return fmt.Errorf("%w: an email mapping is required", ErrInvalidFeed)
	}

	if meta.EnableOpportunity {
		if strings.TrimSpace(meta.OpportunityPipeline) == "" {
			return fmt.Errorf("%w: a pipeline is required when opportunity creation is enabled", ErrInvalidFeed)
		}
		if strings.TrimSpace(meta.OpportunityStage) == "" {
			return fmt.Errorf("%w: a stage is required when opportunity creation is enabled", ErrInvalidFeed)
		}
	}

	return nil
}

func hasEmailMapping(contactFieldMap map[string]string) bool {
	for key := range contactFieldMap {
		if mapper.APIKeyForContactField(key) == "email" {
			return true
		}
	}
	return false
}

func (s *FeedService) CreateFeed(ctx context.Context, formID int64, name string, meta model.FeedMeta) (*model.Feed, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: a feed name is required", ErrInvalidFeed)
	}
	if err := s.ValidateMeta(meta); err != nil {
		return nil, err
	}
	if _, err := s.queries.GetFormByID(ctx, formID); err != nil {
		return nil, fmt.Errorf("failed to fetch form: %w", err)
	}
	return s.queries.CreateFeed(ctx, formID, name, meta)
}

func (s *FeedService) UpdateFeed(ctx context.Context, id int64, name string, isActive bool, meta model.FeedMeta) (*model.Feed, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: a feed name is required", ErrInvalidFeed)
	}
	if err := s.ValidateMeta(meta); err != nil {
		return nil, err
	}
	return s.queries.UpdateFeed(ctx, id, name, isActive, meta)
}

func (s *FeedService) GetFeed(ctx context.Context, id int64) (*model.Feed, error) {
	return s.queries.GetFeedByID(ctx, id)
}

func (s *FeedService) ListFeeds(ctx context.Context, formID int64) ([]*model.Feed, error) {
	return s.queries.ListFeedsByForm(ctx, formID)
}
