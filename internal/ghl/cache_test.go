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

func TestMetadataCache_PipelinesCached(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pipelines": []interface{}{
				map[string]interface{}{"id": "p-1", "name": "Sales"},
			},
		})
	}))
	defer srv.Close()

	sink := logging.NewSink(zap.NewNop(), false)
	client := NewClient("test-key", "loc-1", sink, WithBaseURL(srv.URL+"/"))
	cache := NewMetadataCache(client)
	ctx := context.Background()

	first, err := cache.Pipelines(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := cache.Pipelines(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits)

	// Stage lookup reuses the cached pipeline list.
	_, err = cache.PipelineStages(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	cache.Refresh()
	_, err = cache.Pipelines(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestMetadataCache_ErrorsNotCached(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []interface{}{map[string]interface{}{"id": "u-1", "name": "Ada"}},
		})
	}))
	defer srv.Close()

	sink := logging.NewSink(zap.NewNop(), false)
	client := NewClient("test-key", "loc-1", sink, WithBaseURL(srv.URL+"/"))
	cache := NewMetadataCache(client)
	ctx := context.Background()

	_, err := cache.Users(ctx)
	require.Error(t, err)

	users, err := cache.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 2, hits)
}

func TestMetadataCache_ContactFieldsFallBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sink := logging.NewSink(zap.NewNop(), false)
	client := NewClient("test-key", "loc-1", sink, WithBaseURL(srv.URL+"/"))
	cache := NewMetadataCache(client)

	fields := cache.ContactFields(context.Background())
	assert.Equal(t, DefaultContactFields(), fields)
}
