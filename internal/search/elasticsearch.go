package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shopspring/decimal"

	"setrag/internal/config"
	"setrag/internal/models"
)

// StatusReconciliationRequired marks a sold seat that has no booking row
const StatusReconciliationRequired = "RECONCILIATION_REQUIRED"

// BookingDocument is what operators search: confirmed bookings and sold
// seats waiting for reconciliation share one index.
type BookingDocument struct {
	PNR            string          `json:"pnr,omitempty"`
	TripID         int64           `json:"trip_id"`
	SeatNo         string          `json:"seat_no"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	Status         string          `json:"status"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	IndexedAt      time.Time       `json:"indexed_at"`
}

// DocumentID is the PNR, or trip and seat when there is no booking
func (d *BookingDocument) DocumentID() string {
	if d.PNR != "" {
		return d.PNR
	}
	return fmt.Sprintf("reconcile-%d-%s", d.TripID, d.SeatNo)
}

func FromBooking(b models.Booking) BookingDocument {
	doc := BookingDocument{
		PNR:       b.PNR,
		TripID:    b.TripID,
		SeatNo:    b.SeatNo,
		Amount:    b.Amount,
		Currency:  b.Currency,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
	if b.IdempotencyKey != nil {
		doc.IdempotencyKey = *b.IdempotencyKey
	}
	return doc
}

func FromReconciliation(e models.ReconciliationRequiredEvent) BookingDocument {
	return BookingDocument{
		TripID:         e.TripID,
		SeatNo:         e.SeatNo,
		Status:         StatusReconciliationRequired,
		IdempotencyKey: e.IdempotencyKey,
		Reason:         e.Reason,
		Error:          e.Error,
		CreatedAt:      e.Timestamp,
	}
}

// ElasticsearchClient keeps the bookings index
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
		Transport:     &http.Transport{ResponseHeaderTimeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

var indexMapping = map[string]any{
	"settings": map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"pnr":             map[string]any{"type": "keyword"},
			"trip_id":         map[string]any{"type": "long"},
			"seat_no":         map[string]any{"type": "keyword"},
			"amount":          map[string]any{"type": "scaled_float", "scaling_factor": 100},
			"currency":        map[string]any{"type": "keyword"},
			"status":          map[string]any{"type": "keyword"},
			"idempotency_key": map[string]any{"type": "keyword"},
			"reason":          map[string]any{"type": "keyword"},
			"error":           map[string]any{"type": "text"},
			"created_at":      map[string]any{"type": "date"},
			"indexed_at":      map[string]any{"type": "date"},
		},
	},
}

func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mappingJSON, err := json.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(mappingJSON),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	// another consumer may have won the race
	if createRes.IsError() && !strings.Contains(createRes.String(), "resource_already_exists_exception") {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// IndexBooking upserts doc under its DocumentID, so redelivered events are harmless.
func (c *ElasticsearchClient) IndexBooking(ctx context.Context, doc *BookingDocument) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.IndexedAt = time.Now().UTC()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: doc.DocumentID(),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index booking: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

// GetByPNR returns nil, nil when the PNR is not indexed
func (c *ElasticsearchClient) GetByPNR(ctx context.Context, pnr string) (*BookingDocument, error) {
	req := esapi.GetRequest{
		Index:      c.config.Index,
		DocumentID: pnr,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch error: %s", res.String())
	}

	var response struct {
		Source BookingDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response.Source, nil
}

// SearchByTrip lists a trip's documents by seat number. An empty status matches all.
func (c *ElasticsearchClient) SearchByTrip(ctx context.Context, tripID int64, status string, size int) ([]BookingDocument, error) {
	if size <= 0 {
		size = 100
	}

	searchJSON, err := json.Marshal(map[string]any{
		"query": tripQuery(tripID, status),
		"sort":  []map[string]any{{"seat_no": map[string]any{"order": "asc"}}},
		"size":  size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(searchJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source BookingDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	docs := make([]BookingDocument, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		docs[i] = hit.Source
	}
	return docs, nil
}

func tripQuery(tripID int64, status string) map[string]any {
	filters := []map[string]any{
		{"term": map[string]any{"trip_id": strconv.FormatInt(tripID, 10)}},
	}
	if status != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"status": status}})
	}
	return map[string]any{
		"bool": map[string]any{"filter": filters},
	}
}

func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	req := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}
	return nil
}
