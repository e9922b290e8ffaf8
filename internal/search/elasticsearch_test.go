package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setrag/internal/config"
	"setrag/internal/models"
)

// fakeES answers the handful of endpoints the client uses
type fakeES struct {
	mu          sync.Mutex
	indexExists bool
	created     int
	docs        map[string]json.RawMessage
	lastSearch  map[string]any
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		if !f.indexExists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && len(parts) == 1:
		f.indexExists = true
		f.created++
		io.WriteString(w, `{"acknowledged":true}`)
	case r.Method == http.MethodPut && len(parts) == 3 && parts[1] == "_doc":
		body, _ := io.ReadAll(r.Body)
		f.docs[parts[2]] = body
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"result":"created"}`)
	case r.Method == http.MethodGet && len(parts) == 3 && parts[1] == "_doc":
		doc, ok := f.docs[parts[2]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"found":false}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"found": true, "_source": doc})
	case len(parts) == 2 && parts[1] == "_search":
		json.NewDecoder(r.Body).Decode(&f.lastSearch)
		var hits []map[string]any
		for _, doc := range f.docs {
			hits = append(hits, map[string]any{"_source": doc})
		}
		json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": hits}})
	default:
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"unexpected request"}`)
	}
}

func (f *fakeES) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok
}

func (f *fakeES) search() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSearch
}

func newTestClient(t *testing.T) (*ElasticsearchClient, *fakeES) {
	t.Helper()
	fake := &fakeES{docs: map[string]json.RawMessage{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewElasticsearchClient(config.ElasticsearchConfig{
		URL:     srv.URL,
		Index:   "bookings",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client, fake
}

func TestNewClientCreatesIndex(t *testing.T) {
	_, fake := newTestClient(t)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.True(t, fake.indexExists)
	assert.Equal(t, 1, fake.created)
}

func TestIndexAndGetBooking(t *testing.T) {
	client, fake := newTestClient(t)
	key := "key-1"
	doc := FromBooking(models.Booking{
		PNR:            "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		TripID:         3,
		SeatNo:         "4A",
		Amount:         decimal.NewFromInt(26250),
		Currency:       "XAF",
		Status:         models.BookingConfirmed,
		IdempotencyKey: &key,
	})

	require.NoError(t, client.IndexBooking(context.Background(), &doc))
	assert.True(t, fake.has("ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	assert.False(t, doc.CreatedAt.IsZero())

	got, err := client.GetByPNR(context.Background(), doc.PNR)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "4A", got.SeatNo)
	assert.Equal(t, "key-1", got.IdempotencyKey)
	assert.True(t, decimal.NewFromInt(26250).Equal(got.Amount))

	missing, err := client.GetByPNR(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReconciliationDocumentID(t *testing.T) {
	client, fake := newTestClient(t)
	doc := FromReconciliation(models.ReconciliationRequiredEvent{
		TripID: 7,
		SeatNo: "12A",
		Reason: models.ReasonPersistFailed,
		Error:  "db down",
	})

	require.NoError(t, client.IndexBooking(context.Background(), &doc))
	assert.True(t, fake.has("reconcile-7-12A"))
	assert.Equal(t, StatusReconciliationRequired, doc.Status)
}

func TestSearchByTrip(t *testing.T) {
	client, fake := newTestClient(t)
	doc := FromReconciliation(models.ReconciliationRequiredEvent{TripID: 7, SeatNo: "1A"})
	require.NoError(t, client.IndexBooking(context.Background(), &doc))

	docs, err := client.SearchByTrip(context.Background(), 7, StatusReconciliationRequired, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "1A", docs[0].SeatNo)

	last := fake.search()
	assert.EqualValues(t, 100, last["size"])
	filters := last["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	assert.Len(t, filters, 2)
}
