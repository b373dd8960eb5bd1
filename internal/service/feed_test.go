package service

import (
	"testing"

	"ghlsync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMeta() model.FeedMeta {
	return model.FeedMeta{
		ContactFieldMap: map[string]string{
			"Email":      "field:3",
			"First Name": "field:1",
		},
	}
}

func TestValidateMeta_Valid(t *testing.T) {
	svc, err := NewFeedService(nil)
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateMeta(validMeta()))
}

func TestValidateMeta_RequiresContactMappings(t *testing.T) {
	svc, err := NewFeedService(nil)
	require.NoError(t, err)

	err = svc.ValidateMeta(model.FeedMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFeed)
}

func TestValidateMeta_RequiresEmailMapping(t *testing.T) {
	svc, err := NewFeedService(nil)
	require.NoError(t, err)

	meta := model.FeedMeta{
		ContactFieldMap: map[string]string{"First Name": "field:1"},
	}
	err = svc.ValidateMeta(meta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email mapping")
}

func TestValidateMeta_EmailMappingByLabelOrKey(t *testing.T) {
	svc, err := NewFeedService(nil)
	require.NoError(t, err)

	byLabel := model.FeedMeta{ContactFieldMap: map[string]string{"Email": "field:3"}}
	assert.NoError(t, svc.ValidateMeta(byLabel))

	byKey := model.FeedMeta{ContactFieldMap: map[string]string{"email": "field:3"}}
	assert.NoError(t, svc.ValidateMeta(byKey))
}

func TestValidateMeta_OpportunityRequiresPipelineAndStage(t *testing.T) {
	svc, err := NewFeedService(nil)
	require.NoError(t, err)

	meta := validMeta()
	meta.EnableOpportunity = true
	err = svc.ValidateMeta(meta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline")

	meta.OpportunityPipeline = "pipe-1"
	err = svc.ValidateMeta(meta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage")

	meta.OpportunityStage = "stage-1"
	assert.NoError(t, svc.ValidateMeta(meta))
}

func TestValidateMeta_RejectsUnknownStatus(t *testing.T) {
	svc, err := NewFeedService(nil)
	require.NoError(t, err)

	meta := validMeta()
	meta.OpportunityStatus = "pending"
	err = svc.ValidateMeta(meta)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFeed)
}

func TestValidateMeta_AcceptsKnownStatuses(t *testing.T) {
	svc, err := NewFeedService(nil)
	require.NoError(t, err)

	for _, status := range []string{"", "open", "won", "lost", "abandoned"} {
		meta := validMeta()
		meta.OpportunityStatus = status
		assert.NoError(t, svc.ValidateMeta(meta), "status %q", status)
	}
}
