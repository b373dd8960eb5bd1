package ghl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ghlsync/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sink := logging.NewSink(zap.NewNop(), false)
	return NewClient("test-key", "loc-1", sink, WithBaseURL(srv.URL+"/"))
}

func TestClient_NotConfigured(t *testing.T) {
	sink := logging.NewSink(zap.NewNop(), false)
	c := NewClient("", "", sink)

	_, err := c.SearchContactByEmail(context.Background(), "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, KindNotConfigured, KindOf(err))
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotAuth, gotVersion, gotContentType string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Version")
		gotContentType = r.Header.Get("Content-Type")
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})

	_, err := c.CreateContact(context.Background(), map[string]interface{}{"email": "ada@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "2021-07-28", gotVersion)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_ErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{401, KindUnauthorized},
		{400, KindBadRequest},
		{422, KindUnprocessable},
		{404, KindNotFound},
		{429, KindRateLimited},
		{500, KindAPIError},
		{503, KindAPIError},
	}

	for _, tc := range cases {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]interface{}{"message": "nope"})
		})

		err := c.TestConnection(context.Background())
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.kind, KindOf(err), "status %d", tc.status)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tc.status, apiErr.Status)
		assert.Equal(t, "nope", apiErr.Message)
	}
}

func TestClient_ErrorMessageExtraction(t *testing.T) {
	cases := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"message key", map[string]interface{}{"message": "bad token"}, "bad token"},
		{"error key", map[string]interface{}{"error": "denied"}, "denied"},
		{"msg key", map[string]interface{}{"msg": "nope"}, "nope"},
		{"message array", map[string]interface{}{"message": []interface{}{"a", "b"}}, "a; b"},
		{"no known key", map[string]interface{}{"detail": "x"}, "GHL API returned HTTP 500"},
		{"empty body", nil, "GHL API returned HTTP 500"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				if tc.body != nil {
					json.NewEncoder(w).Encode(tc.body)
				}
			})

			err := c.TestConnection(context.Background())
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestClient_TransportErrorIsHTTPError(t *testing.T) {
	sink := logging.NewSink(zap.NewNop(), false)
	c := NewClient("test-key", "loc-1", sink, WithBaseURL("http://127.0.0.1:1/"))

	err := c.TestConnection(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindHTTPError, KindOf(err))
}

func TestSearchContactByEmail_NotFoundIsEmptyResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "no duplicate"})
	})

	result, err := c.SearchContactByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestSearchContactByEmail_EmptyEmailFailsLocally(t *testing.T) {
	called := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.SearchContactByEmail(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.False(t, called)
}

func TestSearchContactByEmail_PassesQuery(t *testing.T) {
	var gotEmail, gotLocation string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("email")
		gotLocation = r.URL.Query().Get("locationId")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contact": map[string]interface{}{"id": "c-1"},
		})
	})

	result, err := c.SearchContactByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", gotEmail)
	assert.Equal(t, "loc-1", gotLocation)
	assert.Equal(t, "c-1", ContactIDFromSearch(result))
}

func TestCreateContact_InjectsLocationID(t *testing.T) {
	var gotBody map[string]interface{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contact": map[string]interface{}{"id": "c-new"},
		})
	})

	result, err := c.CreateContact(context.Background(), map[string]interface{}{"email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "loc-1", gotBody["locationId"])
	assert.Equal(t, "ada@example.com", gotBody["email"])
	assert.Equal(t, "c-new", ContactIDFromResponse(result))
}

func TestUpdateContact_EmptyIDFailsLocally(t *testing.T) {
	called := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.UpdateContact(context.Background(), "", map[string]interface{}{"email": "a@b.co"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.False(t, called)
}

func TestUpdateContact_UsesPut(t *testing.T) {
	var gotMethod, gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})

	_, err := c.UpdateContact(context.Background(), "c-7", map[string]interface{}{"city": "London"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/contacts/c-7", gotPath)
}

func TestCreateOpportunity_MissingFieldsFailLocally(t *testing.T) {
	called := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.CreateOpportunity(context.Background(), map[string]interface{}{
		"pipelineId": "pipe-1",
		"contactId":  "c-1",
		"name":       "Deal",
		// pipelineStageId missing
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.False(t, called)
}

func TestCreateOpportunity_InjectsLocationID(t *testing.T) {
	var gotBody map[string]interface{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"opportunity": map[string]interface{}{"id": "o-1"},
		})
	})

	result, err := c.CreateOpportunity(context.Background(), map[string]interface{}{
		"pipelineId":      "pipe-1",
		"pipelineStageId": "stage-1",
		"contactId":       "c-1",
		"name":            "Deal",
	})
	require.NoError(t, err)
	assert.Equal(t, "loc-1", gotBody["locationId"])
	assert.Equal(t, "o-1", OpportunityIDFromResponse(result))
}

func TestGetPipelineStages(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pipelines": []interface{}{
				map[string]interface{}{
					"id":   "pipe-1",
					"name": "Sales",
					"stages": []interface{}{
						map[string]interface{}{"id": "stage-1", "name": "New"},
						map[string]interface{}{"id": "stage-2", "name": "Won"},
					},
				},
			},
		})
	})

	stages, err := c.GetPipelineStages(context.Background(), "pipe-1")
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "New", stages[0].Name)

	_, err = c.GetPipelineStages(context.Background(), "pipe-404")
	require.Error(t, err)
	assert.Equal(t, KindPipelineNotFound, KindOf(err))
}
