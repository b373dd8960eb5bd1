package logging

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedSink(debug bool) (*Sink, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewSink(zap.New(core), debug), logs
}

func TestRedactBody(t *testing.T) {
	body := map[string]interface{}{
		"email":   "ada@example.com",
		"api_key": "sk-123",
		"Token":   "t-456",
		"nested": map[string]interface{}{
			"password": "hunter2",
			"city":     "London",
		},
	}

	redacted := RedactBody(body)

	assert.Equal(t, "ada@example.com", redacted["email"])
	assert.Equal(t, "[redacted]", redacted["api_key"])
	assert.Equal(t, "[redacted]", redacted["Token"])
	nested := redacted["nested"].(map[string]interface{})
	assert.Equal(t, "[redacted]", nested["password"])
	assert.Equal(t, "London", nested["city"])

	// The input is never mutated.
	assert.Equal(t, "sk-123", body["api_key"])
	assert.Equal(t, "hunter2", body["nested"].(map[string]interface{})["password"])
}

func TestRedactURL(t *testing.T) {
	out := RedactURL("https://api.example.com/v1/contacts?apikey=sk-123&email=a%40b.co")
	assert.Contains(t, out, "apikey=%5Bredacted%5D")
	assert.Contains(t, out, "email=a%40b.co")

	// URLs without sensitive params pass through unchanged.
	clean := "https://api.example.com/v1/contacts?limit=1"
	assert.Equal(t, clean, RedactURL(clean))
}

func TestEncodeBodyTruncation(t *testing.T) {
	body := map[string]interface{}{
		"blob": strings.Repeat("x", 3000),
	}
	encoded := encodeBody(body)
	assert.LessOrEqual(t, len(encoded), maxBodyLength+len("…[truncated]"))
	assert.True(t, strings.HasSuffix(encoded, "…[truncated]"))
}

func TestSink_InfoGatedByDebug(t *testing.T) {
	sink, logs := observedSink(false)

	sink.Info("hidden")
	sink.Debug("hidden")
	sink.APIRequest("GET", "https://api.example.com/", nil)
	sink.APIResponse(200, nil, time.Millisecond)
	assert.Zero(t, logs.Len())

	sink.Warn("shown")
	sink.Error("shown too")
	assert.Equal(t, 2, logs.Len())
}

func TestSink_DebugModeLogsEverything(t *testing.T) {
	sink, logs := observedSink(true)

	sink.Info("info")
	sink.APIRequest("POST", "https://api.example.com/?token=abc", map[string]interface{}{"secret": "s"})
	sink.APIResponse(422, map[string]interface{}{"message": "nope"}, time.Millisecond)

	require.Equal(t, 3, logs.Len())

	reqEntry := logs.All()[1]
	fields := reqEntry.ContextMap()
	assert.Contains(t, fields["url"].(string), "token=%5Bredacted%5D")
	assert.Contains(t, fields["body"].(string), "[redacted]")
	assert.NotContains(t, fields["body"].(string), `"s"`)
}
