package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"assignment-notifier/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupElastic(t *testing.T, handler http.HandlerFunc) *ElasticMirror {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticMirror(client, "notification-audit")
}

func TestElasticMirror_Index(t *testing.T) {
	var gotPath, gotMethod string
	var gotDoc map[string]interface{}

	mirror := setupElastic(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	err := mirror.Index(context.Background(), &models.AuditRecord{
		ReferenceID: "ref-1",
		Channel:     models.ChannelMobile,
		Title:       "Assignment Accepted",
		Outcome:     models.OutcomeDelivered,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/notification-audit/_doc/ref-1", gotPath)
	assert.Equal(t, "ref-1", gotDoc["referenceId"])
	assert.Equal(t, "delivered", gotDoc["outcome"])
}

func TestElasticMirror_IndexError(t *testing.T) {
	mirror := setupElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := mirror.Index(context.Background(), &models.AuditRecord{ReferenceID: "ref-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestElasticMirror_Lookup(t *testing.T) {
	mirror := setupElastic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notification-audit/_doc/ref-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"_id":"ref-9","found":true,"_source":{"referenceId":"ref-9","channel":"web","webUsers":"U-1,U-2"}}`))
	})

	rec, err := mirror.Lookup(context.Background(), "ref-9")
	require.NoError(t, err)
	assert.Equal(t, "ref-9", rec.ReferenceID)
	assert.Equal(t, models.ChannelWeb, rec.Channel)
	assert.Equal(t, "U-1,U-2", rec.WebUsers)
}
