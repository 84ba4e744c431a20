package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTriggerStartsMatchingJob(t *testing.T) {
	var ranJobID int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2.1/jobs/list":
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"jobs": []map[string]interface{}{
					{"job_id": 7, "settings": map[string]string{"name": "unrelated_job"}},
					{"job_id": 42, "settings": map[string]string{"name": "dlt_loan_quality_pipeline_prod"}},
				},
			})
		case "/api/2.1/jobs/run-now":
			var body map[string]int64
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			ranJobID = body["job_id"]
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Token: "secret", JobName: "dlt_loan_quality_pipeline"}, nil)
	triggered, err := client.Trigger(context.Background())
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.Equal(t, int64(42), ranJobID)
}

func TestClientTriggerJobNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jobs": []interface{}{}})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, JobName: "missing_job"}, nil)
	triggered, err := client.Trigger(context.Background())
	require.NoError(t, err)
	assert.False(t, triggered)
}

func TestClientTriggerListFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, JobName: "any"}, nil)
	triggered, err := client.Trigger(context.Background())
	require.Error(t, err)
	assert.False(t, triggered)
}

func TestClientTriggerRunNowFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2.1/jobs/list":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"jobs": []map[string]interface{}{
					{"job_id": 42, "settings": map[string]string{"name": "dlt_loan_quality_pipeline"}},
				},
			})
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, JobName: "dlt_loan_quality_pipeline"}, nil)
	triggered, err := client.Trigger(context.Background())
	require.Error(t, err)
	assert.False(t, triggered)
}
