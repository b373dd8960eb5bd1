package ghl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ghlsync/internal/logging"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the LeadConnector API endpoint.
	DefaultBaseURL = "https://services.leadconnectorhq.com/"

	apiVersion     = "2021-07-28"
	requestTimeout = 15 * time.Second
)

// Client is a stateless-per-call wrapper around the GoHighLevel REST API.
// Every method returns either a decoded response or an *APIError; the
// location ID and auth headers are injected on every request.
type Client struct {
	baseURL    string
	apiKey     string
	locationID string
	http       *http.Client
	sink       *logging.Sink
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a client for the given credentials. The credentials
// may be absent; every call then fails with ErrNotConfigured, so the
// service can run before the CRM connection is set up.
func NewClient(apiKey, locationID string, sink *logging.Sink, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		locationID: locationID,
		http:       &http.Client{Timeout: requestTimeout},
		sink:       sink,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LocationID returns the configured location ID.
func (c *Client) LocationID() string {
	return c.locationID
}

// request performs one API call. For GET, args become query parameters;
// for POST/PUT, args are the JSON body. All responses go through the
// response classifier.
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, body map[string]interface{}) (map[string]interface{}, error) {
	if c.apiKey == "" || c.locationID == "" {
		return nil, ErrNotConfigured
	}

	reqURL := c.baseURL + strings.TrimPrefix(endpoint, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.sink.APIRequest(method, reqURL, body)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindHTTPError, Message: fmt.Sprintf("encode request body: %v", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &APIError{Kind: KindHTTPError, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Version", apiVersion)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		httpErr := &APIError{Kind: KindHTTPError, Message: fmt.Sprintf("HTTP request failed: %v", err)}
		c.sink.Failure("http_request", fmt.Sprintf("%s %s failed after %s", method, endpoint, elapsed), httpErr)
		return nil, httpErr
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, method, endpoint, elapsed)
}

// parseResponse classifies an HTTP response: 2xx is decoded (empty map
// when the body is not a JSON object), everything else becomes an
// APIError tagged with a stable kind and a message extracted from the body.
func (c *Client) parseResponse(resp *http.Response, method, endpoint string, elapsed time.Duration) (map[string]interface{}, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindHTTPError, Message: fmt.Sprintf("read response body: %v", err)}
	}

	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)

	c.sink.APIResponse(resp.StatusCode, decoded, elapsed)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decoded == nil {
			return map[string]interface{}{}, nil
		}
		return decoded, nil
	}

	apiErr := &APIError{
		Kind:    kindForStatus(resp.StatusCode),
		Message: extractErrorMessage(decoded, resp.StatusCode),
		Status:  resp.StatusCode,
	}
	c.sink.Failure("api_response",
		fmt.Sprintf("HTTP %d for %s %s (%s)", resp.StatusCode, method, endpoint, elapsed), apiErr)
	return nil, apiErr
}

// extractErrorMessage pulls a human message out of the response body.
// The API returns errors under message, error, or msg depending on the
// endpoint; the candidates are tried in that order.
func extractErrorMessage(body map[string]interface{}, status int) string {
	for _, key := range []string{"message", "error", "msg"} {
		switch v := body[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []interface{}:
			// Validation errors arrive as a list of messages.
			parts := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return fmt.Sprintf("GHL API returned HTTP %d", status)
}

// TestConnection verifies the API key and location ID with a minimal read
// (list a single contact).
func (c *Client) TestConnection(ctx context.Context) error {
	c.sink.Info("Testing API connection")

	_, err := c.request(ctx, http.MethodGet, "contacts/", url.Values{
		"locationId": {c.locationID},
		"limit":      {"1"},
	}, nil)
	if err != nil {
		return err
	}

	c.sink.Info("API connection test successful")
	return nil
}

// SearchContactByEmail looks up an existing contact via the duplicate
// search endpoint. A 404 means "no match" and returns an empty result,
// not an error.
func (c *Client) SearchContactByEmail(ctx context.Context, email string) (map[string]interface{}, error) {
	if email == "" {
		err := validationError("email", "email address is required for contact search")
		c.sink.ValidationError("email", "Email address is required for contact search.")
		return nil, err
	}

	c.sink.Info("Searching for contact by email")

	result, err := c.request(ctx, http.MethodGet, "contacts/search/duplicate", url.Values{
		"locationId": {c.locationID},
		"email":      {email},
	}, nil)
	if err != nil {
		if IsNotFound(err) {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	return result, nil
}

// CreateContact creates a contact; locationId is always injected.
func (c *Client) CreateContact(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	c.sink.Info("Creating contact")

	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["locationId"] = c.locationID

	return c.request(ctx, http.MethodPost, "contacts/", nil, payload)
}

// UpdateContact updates an existing contact. Fails fast with a validation
// error when contactID is empty, without making a request.
func (c *Client) UpdateContact(ctx context.Context, contactID string, data map[string]interface{}) (map[string]interface{}, error) {
	if contactID == "" {
		err := validationError("contact_id", "contact ID is required for update")
		c.sink.ValidationError("contact_id", "Contact ID is required for update.")
		return nil, err
	}

	c.sink.Info("Updating contact", zap.String("contact_id", contactID))

	return c.request(ctx, http.MethodPut, "contacts/"+url.PathEscape(contactID), nil, data)
}

// opportunityRequiredFields are validated locally before any network call.
var opportunityRequiredFields = []string{"pipelineId", "pipelineStageId", "contactId", "name"}

// CreateOpportunity creates an opportunity; required fields are checked
// locally and locationId is always injected.
func (c *Client) CreateOpportunity(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	for _, field := range opportunityRequiredFieldsMissing(data) {
		msg := fmt.Sprintf("required opportunity field %q is missing", field)
		c.sink.ValidationError(field, msg, zap.String("endpoint", "create_opportunity"))
		return nil, validationError(field, "required opportunity field is missing")
	}

	c.sink.Info("Creating opportunity",
		zap.Any("pipeline_id", data["pipelineId"]),
		zap.Any("stage_id", data["pipelineStageId"]))

	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["locationId"] = c.locationID

	return c.request(ctx, http.MethodPost, "opportunities/", nil, payload)
}

func opportunityRequiredFieldsMissing(data map[string]interface{}) []string {
	var missing []string
	for _, field := range opportunityRequiredFields {
		s, _ := data[field].(string)
		if s == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// GetPipelines fetches all pipelines (with stages) for the location.
func (c *Client) GetPipelines(ctx context.Context) ([]Pipeline, error) {
	c.sink.Info("Fetching pipelines")

	result, err := c.request(ctx, http.MethodGet, "opportunities/pipelines", url.Values{
		"locationId": {c.locationID},
	}, nil)
	if err != nil {
		return nil, err
	}
	return pipelinesFromResponse(result), nil
}

// GetPipelineStages fetches all pipelines and filters to the requested
// one, returning its stages. Fails with pipeline_not_found when no
// pipeline matches.
func (c *Client) GetPipelineStages(ctx context.Context, pipelineID string) ([]Stage, error) {
	pipelines, err := c.GetPipelines(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pipelines {
		if p.ID == pipelineID {
			return p.Stages, nil
		}
	}
	return nil, &APIError{
		Kind:    KindPipelineNotFound,
		Message: fmt.Sprintf("pipeline %q not found", pipelineID),
	}
}

// GetCustomFields fetches the location's contact custom fields.
func (c *Client) GetCustomFields(ctx context.Context) ([]CustomField, error) {
	c.sink.Info("Fetching location custom fields")

	result, err := c.request(ctx, http.MethodGet, "locations/"+url.PathEscape(c.locationID)+"/customFields", nil, nil)
	if err != nil {
		return nil, err
	}
	return customFieldsFromResponse(result), nil
}

// GetContactSchema fetches the contact object schema used to build the
// contact field map.
func (c *Client) GetContactSchema(ctx context.Context) ([]ContactField, error) {
	c.sink.Info("Fetching contact object schema")

	result, err := c.request(ctx, http.MethodGet, "objects/contact", url.Values{
		"locationId": {c.locationID},
	}, nil)
	if err != nil {
		return nil, err
	}
	return contactFieldsFromSchema(result), nil
}

// GetUsers fetches the location's users (for opportunity assignment).
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	c.sink.Info("Fetching location users")

	result, err := c.request(ctx, http.MethodGet, "users/", url.Values{
		"locationId": {c.locationID},
	}, nil)
	if err != nil {
		return nil, err
	}
	return usersFromResponse(result), nil
}
