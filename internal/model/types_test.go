package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionSynced(t *testing.T) {
	sub := &Submission{}
	assert.False(t, sub.Synced())

	sub.Meta = map[string]string{MetaSynced: "false"}
	assert.False(t, sub.Synced())

	sub.Meta[MetaSynced] = "true"
	assert.True(t, sub.Synced())
}

func TestOpportunityPayloadToMap(t *testing.T) {
	minimal := OpportunityPayload{
		ContactID:       "c-1",
		PipelineID:      "p-1",
		PipelineStageID: "s-1",
		Name:            "Deal",
		Status:          "open",
	}

	data := minimal.ToMap()
	assert.Equal(t, "c-1", data["contactId"])
	assert.Equal(t, "open", data["status"])
	_, hasValue := data["monetaryValue"]
	assert.False(t, hasValue)
	_, hasAssignee := data["assignedTo"]
	assert.False(t, hasAssignee)
	_, hasSource := data["source"]
	assert.False(t, hasSource)

	value := 99.5
	full := minimal
	full.MonetaryValue = &value
	full.AssignedTo = "u-1"
	full.Source = "Web Form"

	data = full.ToMap()
	assert.Equal(t, 99.5, data["monetaryValue"])
	assert.Equal(t, "u-1", data["assignedTo"])
	assert.Equal(t, "Web Form", data["source"])
}
