package ghl

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// metadataTTL bounds how long pipelines, custom fields, users, and the
// contact schema are served from cache.
const metadataTTL = 5 * time.Minute

// MetadataCache caches the slow read-only metadata fetches, keyed by
// location ID and kind, with a fixed TTL and a manual refresh contract
// (Refresh drops everything for the location).
type MetadataCache struct {
	client *Client
	cache  *expirable.LRU[string, interface{}]
}

func NewMetadataCache(client *Client) *MetadataCache {
	return &MetadataCache{
		client: client,
		cache:  expirable.NewLRU[string, interface{}](32, nil, metadataTTL),
	}
}

func (m *MetadataCache) key(kind string) string {
	return m.client.LocationID() + ":" + kind
}

// Refresh invalidates all cached metadata for the location.
func (m *MetadataCache) Refresh() {
	for _, kind := range []string{"pipelines", "customFields", "users", "contactFields"} {
		m.cache.Remove(m.key(kind))
	}
}

// Pipelines returns the location's pipelines, cached.
func (m *MetadataCache) Pipelines(ctx context.Context) ([]Pipeline, error) {
	if cached, ok := m.cache.Get(m.key("pipelines")); ok {
		return cached.([]Pipeline), nil
	}
	pipelines, err := m.client.GetPipelines(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.Add(m.key("pipelines"), pipelines)
	return pipelines, nil
}

// PipelineStages returns the stages of one pipeline, served from the
// cached pipeline list when possible.
func (m *MetadataCache) PipelineStages(ctx context.Context, pipelineID string) ([]Stage, error) {
	pipelines, err := m.Pipelines(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pipelines {
		if p.ID == pipelineID {
			return p.Stages, nil
		}
	}
	return nil, &APIError{Kind: KindPipelineNotFound, Message: "pipeline " + pipelineID + " not found"}
}

// CustomFields returns the location's contact custom fields, cached.
func (m *MetadataCache) CustomFields(ctx context.Context) ([]CustomField, error) {
	if cached, ok := m.cache.Get(m.key("customFields")); ok {
		return cached.([]CustomField), nil
	}
	fields, err := m.client.GetCustomFields(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.Add(m.key("customFields"), fields)
	return fields, nil
}

// Users returns the location's users, cached.
func (m *MetadataCache) Users(ctx context.Context) ([]User, error) {
	if cached, ok := m.cache.Get(m.key("users")); ok {
		return cached.([]User), nil
	}
	users, err := m.client.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.Add(m.key("users"), users)
	return users, nil
}

// ContactFields returns the contact field map built from the contact
// object schema, falling back to the built-in default list when the
// fetch fails or yields nothing.
func (m *MetadataCache) ContactFields(ctx context.Context) []ContactField {
	if cached, ok := m.cache.Get(m.key("contactFields")); ok {
		return cached.([]ContactField)
	}
	fields, err := m.client.GetContactSchema(ctx)
	if err != nil || len(fields) == 0 {
		return DefaultContactFields()
	}
	m.cache.Add(m.key("contactFields"), fields)
	return fields
}
