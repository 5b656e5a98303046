package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/store"
	"github.com/NomadCrew/customer-feedback-portal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

const openAPIDoc = `{
  "swagger": "2.0",
  "definitions": {
    "cloudlist": {
      "required": ["id"],
      "properties": {
        "id": {"type": "integer", "format": "bigint"},
        "Title": {"type": "string", "format": "text"},
        "Email": {"type": "string", "format": "text", "description": "Customer e-mail"},
        "Rating": {"type": "integer"}
      }
    },
    "other.table": {
      "properties": {"Comments": {"type": "string"}}
    }
  }
}`

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{URL: srv.URL, Key: "anon-key"})
	require.NoError(t, err)
	return s
}

func TestNewStore_RequiresCredentials(t *testing.T) {
	_, err := NewStore(Config{URL: "http://localhost"})
	assert.Error(t, err)
	_, err = NewStore(Config{Key: "key"})
	assert.Error(t, err)
}

func TestStore_Fields(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, openAPIDoc)
	})

	fields, err := s.Fields(context.Background(), "cloudlist")
	require.NoError(t, err)
	assert.Equal(t, []types.FieldDescriptor{
		{InternalName: "Email", Title: "Customer e-mail"},
		{InternalName: "Rating"},
		{InternalName: "Title"},
		{InternalName: "id"},
	}, fields)

	fields, err = s.Fields(context.Background(), "other.table")
	require.NoError(t, err)
	assert.Equal(t, []types.FieldDescriptor{{InternalName: "Comments"}}, fields)
}

func TestStore_FieldsUnknownTable(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, openAPIDoc)
	})

	_, err := s.Fields(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, store.IsSchemaFetchError(err))
	assert.Equal(t, store.KindNotFound, store.KindOf(err))
}

func TestStore_FieldsUnauthorized(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid API key"}`)
	})

	_, err := s.Fields(context.Background(), "cloudlist")
	var remoteErr *store.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, store.KindAuthorization, remoteErr.Kind)
	assert.Equal(t, "Invalid API key", remoteErr.Message)
}

func TestStore_AddItem(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/cloudlist", r.URL.Path)
		assert.Contains(t, r.Header.Get("Prefer"), "return=representation")

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Jane", body["Title"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":12,"Title":"Jane","Rating":5}]`)
	})

	created, err := s.AddItem(context.Background(), "cloudlist", types.Record{"Title": "Jane", "Rating": 5})
	require.NoError(t, err)
	assert.Equal(t, float64(12), created["id"])
	assert.Equal(t, "Jane", created["Title"])
}

func TestStore_AddItemErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    store.ErrorKind
		message string
	}{
		{"row level security", http.StatusForbidden, `{"code":"42501","message":"new row violates row-level security policy"}`, store.KindAuthorization, "new row violates row-level security policy"},
		{"missing table", http.StatusNotFound, `{"code":"42P01","message":"relation \"public.cloudlist\" does not exist"}`, store.KindNotFound, `relation "public.cloudlist" does not exist`},
		{"bad value", http.StatusBadRequest, `{"code":"22P02","message":"invalid input syntax for type integer"}`, store.KindRejected, "invalid input syntax for type integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := s.AddItem(context.Background(), "cloudlist", types.Record{"Title": "Jane"})
			require.Error(t, err)
			assert.True(t, store.IsCreateError(err))

			var remoteErr *store.RemoteError
			require.True(t, errors.As(err, &remoteErr))
			assert.Equal(t, tt.kind, remoteErr.Kind)
			assert.Equal(t, tt.message, remoteErr.Message)
		})
	}
}

func TestKindForCode(t *testing.T) {
	assert.Equal(t, store.KindAuthorization, kindForCode("PGRST301"))
	assert.Equal(t, store.KindNotFound, kindForCode("PGRST205"))
	assert.Equal(t, store.KindRejected, kindForCode("23505"))
	assert.Equal(t, store.KindRejected, kindForCode(""))
}
