package logging

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// sensitiveKeys are redacted from logged bodies and query strings.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"api_key":       true,
	"apikey":        true,
	"password":      true,
	"secret":        true,
	"token":         true,
}

// maxBodyLength caps serialized bodies before truncation.
const maxBodyLength = 2000

// Sink is the structured log sink for all CRM traffic and sync processing.
// Info/debug output is gated behind debug mode; warnings and errors are
// always written. Bodies pass through redaction before they are logged.
type Sink struct {
	log   *zap.Logger
	debug bool
}

func NewSink(log *zap.Logger, debug bool) *Sink {
	return &Sink{log: log, debug: debug}
}

// DebugEnabled reports whether debug-gated output is written.
func (s *Sink) DebugEnabled() bool {
	return s.debug
}

func (s *Sink) Debug(msg string, fields ...zap.Field) {
	if s.debug {
		s.log.Debug(msg, fields...)
	}
}

// Info is debug-gated, matching the verbose-logging toggle contract.
func (s *Sink) Info(msg string, fields ...zap.Field) {
	if s.debug {
		s.log.Info(msg, fields...)
	}
}

func (s *Sink) Warn(msg string, fields ...zap.Field) {
	s.log.Warn(msg, fields...)
}

func (s *Sink) Error(msg string, fields ...zap.Field) {
	s.log.Error(msg, fields...)
}

// APIRequest logs an outgoing CRM request with a redacted body.
func (s *Sink) APIRequest(method, rawURL string, body map[string]interface{}) {
	if !s.debug {
		return
	}
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", RedactURL(rawURL)),
	}
	if len(body) > 0 {
		fields = append(fields, zap.String("body", encodeBody(RedactBody(body))))
	}
	s.log.Info("API request", fields...)
}

// APIResponse logs a CRM response with status, timing, and redacted body.
// Called for every response, before error classification, so a redacted
// trace exists even for failed calls.
func (s *Sink) APIResponse(status int, body map[string]interface{}, elapsed time.Duration) {
	if !s.debug {
		return
	}
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	}
	if len(body) > 0 {
		fields = append(fields, zap.String("body", encodeBody(RedactBody(body))))
	}
	s.log.Info("API response", fields...)
}

// Failure logs a failed operation at error level. Always written.
func (s *Sink) Failure(op, msg string, err error) {
	s.log.Error(msg, zap.String("op", op), zap.Error(err))
}

// ValidationError logs a pre-network validation failure with field context.
func (s *Sink) ValidationError(field, msg string, fields ...zap.Field) {
	all := append([]zap.Field{zap.String("field", field)}, fields...)
	s.log.Error(msg, all...)
}

// RedactBody returns a copy of body with sensitive keys replaced,
// recursing into nested maps.
func RedactBody(body map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(body))
	for k, v := range body {
		if sensitiveKeys[strings.ToLower(k)] {
			out[k] = "[redacted]"
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = RedactBody(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// RedactURL strips sensitive query parameter values from a URL.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for k := range q {
		if sensitiveKeys[strings.ToLower(k)] {
			q.Set(k, "[redacted]")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func encodeBody(body map[string]interface{}) string {
	b, err := json.Marshal(body)
	if err != nil {
		return "[unserializable]"
	}
	if len(b) > maxBodyLength {
		return string(b[:maxBodyLength]) + "…[truncated]"
	}
	return string(b)
}
