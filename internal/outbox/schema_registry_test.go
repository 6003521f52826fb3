package outbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaRegistryReturnsLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/subjects/activity_events-value/versions/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":7,"version":3}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL+"/").EnsureSchema(context.Background(), "activity_events-value", activityLoggedSchema)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestSchemaRegistryRegistersMissingSubject(t *testing.T) {
	var registered map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.Error(w, `{"error_code":40401}`, http.StatusNotFound)
		case http.MethodPost:
			assert.Equal(t, "/subjects/journal_events-value/versions", r.URL.Path)
			assert.Equal(t, "application/vnd.schemaregistry.v1+json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
			_, _ = w.Write([]byte(`{"id":11}`))
		}
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "journal_events-value", journalSavedSchema)
	require.NoError(t, err)
	assert.Equal(t, 11, id)
	assert.Equal(t, "JSON", registered["schemaType"])
	assert.JSONEq(t, journalSavedSchema, registered["schema"])
}

func TestSchemaRegistrySurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "s", "{}")
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 500")
	assert.NotErrorIs(t, err, ErrSubjectNotFound)
}
