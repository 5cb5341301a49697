package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"boxoffice/internal/models"
)

// Client maintains the event-catalog index. It is strictly a read-model:
// the engine never books against search results.
type Client struct {
	es    *elasticsearch.Client
	index string
}

type Config struct {
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{es: es, index: cfg.Index}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}
	return client, nil
}

const indexMapping = `{
	"mappings": {
		"properties": {
			"name":     {"type": "text"},
			"location": {"type": "text"},
			"date":     {"type": "date"}
		}
	}
}`

func (c *Client) ensureIndex(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{c.index}}
	res, err := existsReq.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  bytes.NewReader([]byte(indexMapping)),
	}
	createRes, err := createReq.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation failed: %s", createRes.String())
	}
	return nil
}

type eventDocument struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
}

// IndexEvent upserts one catalog document; cmd/sync-events feeds it from
// the relational store.
func (c *Client) IndexEvent(ctx context.Context, event models.Event) error {
	doc := eventDocument{
		ID:          event.ID,
		OrganizerID: event.OrganizerID,
		Name:        event.Name,
		Description: event.Description,
		Date:        event.Date,
		Location:    event.Location,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal event document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: event.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("failed to index event %s: %w", event.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing event %s failed: %s", event.ID, res.String())
	}
	return nil
}

// Search queries the catalog by free text and/or exact date.
func (c *Client) Search(ctx context.Context, query, date string, page, pageSize int) ([]models.Event, error) {
	var clauses []map[string]interface{}
	if query != "" {
		clauses = append(clauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "location", "description"},
			},
		})
	}
	if date != "" {
		clauses = append(clauses, map[string]interface{}{
			"range": map[string]interface{}{
				"date": map[string]interface{}{
					"gte": date,
					"lte": date,
					"format": "yyyy-MM-dd",
				},
			},
		})
	}

	esQuery := map[string]interface{}{
		"from": (page - 1) * pageSize,
		"size": pageSize,
		"sort": []map[string]interface{}{{"date": map[string]interface{}{"order": "asc"}}},
	}
	if len(clauses) > 0 {
		esQuery["query"] = map[string]interface{}{
			"bool": map[string]interface{}{"must": clauses},
		}
	}

	body, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}
	return decodeSearchResults(res.Body)
}

func decodeSearchResults(body io.Reader) ([]models.Event, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				Source eventDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	events := make([]models.Event, len(parsed.Hits.Hits))
	for i, hit := range parsed.Hits.Hits {
		events[i] = models.Event{
			ID:          hit.Source.ID,
			OrganizerID: hit.Source.OrganizerID,
			Name:        hit.Source.Name,
			Description: hit.Source.Description,
			Date:        hit.Source.Date,
			Location:    hit.Source.Location,
		}
	}
	return events, nil
}
