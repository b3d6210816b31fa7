package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"soc-platform/internal/event"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Store writes events into daily indices named <prefix>-YYYY-MM-DD and
// serves tenant-scoped reads across all of them.
type Store struct {
	client *opensearch.Client
	prefix string
	log    *slog.Logger
}

func NewStore(url, prefix string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}
	return &Store{client: client, prefix: prefix, log: log}, nil
}

// EnsureTemplate installs the index template so every daily index picks up
// the same mappings. Keyword fields back exact-term filters; message stays
// analyzed for free-text search.
func (s *Store) EnsureTemplate(ctx context.Context) error {
	template := map[string]any{
		"index_patterns": []string{s.prefix + "-*"},
		"template": map[string]any{
			"mappings": map[string]any{
				"properties": map[string]any{
					"timestamp": map[string]any{"type": "date"},
					"tenantId":  map[string]any{"type": "keyword"},
					"host":      map[string]any{"type": "keyword"},
					"service":   map[string]any{"type": "keyword"},
					"message":   map[string]any{"type": "text"},
					"severity":  map[string]any{"type": "keyword"},
					"source":    map[string]any{"type": "keyword"},
					"metadata":  map[string]any{"type": "object", "enabled": true},
				},
			},
		},
	}
	body, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("search: marshal template: %w", err)
	}

	req := opensearchapi.IndicesPutIndexTemplateRequest{
		Name: s.prefix + "-template",
		Body: bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("search: put index template: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("search: put index template: %s", resp.String())
	}
	return nil
}

// IndexEvent upserts the event into its partition, keyed by the event id.
// Replayed deliveries of the same event overwrite the existing document,
// so indexing stays idempotent under at-least-once consumption.
func (s *Store) IndexEvent(ctx context.Context, ev event.LogEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("search: marshal event %s: %w", ev.ID, err)
	}

	req := opensearchapi.IndexRequest{
		Index:      s.prefix + "-" + ev.PartitionDate(),
		DocumentID: ev.ID,
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("search: index event %s: %w", ev.ID, err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("search: index event %s: %s", ev.ID, resp.String())
	}
	return nil
}

// Search runs a tenant-scoped query across every partition and returns the
// raw engine response body.
func (s *Store) Search(ctx context.Context, tenantID string, p Params) (json.RawMessage, error) {
	body, err := json.Marshal(buildSearchBody(tenantID, p))
	if err != nil {
		return nil, fmt.Errorf("search: marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.prefix + "-*"},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("search: query: %s", resp.String())
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search: read response: %w", err)
	}
	return raw, nil
}

// ListPartitions returns the names of all daily indices under the prefix.
func (s *Store) ListPartitions(ctx context.Context) ([]string, error) {
	req := opensearchapi.CatIndicesRequest{
		Index:  []string{s.prefix + "-*"},
		Format: "json",
		H:      []string{"index"},
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search: list partitions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search: list partitions: %s", resp.String())
	}

	var rows []struct {
		Index string `json:"index"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("search: decode partition list: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if strings.HasPrefix(r.Index, s.prefix+"-") {
			names = append(names, r.Index)
		}
	}
	return names, nil
}

// DeletePartition removes one daily index. Deleting an already-absent
// partition is not an error.
func (s *Store) DeletePartition(ctx context.Context, name string) error {
	req := opensearchapi.IndicesDeleteRequest{Index: []string{name}}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("search: delete partition %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil
	}
	if resp.IsError() {
		return fmt.Errorf("search: delete partition %s: %s", name, resp.String())
	}
	return nil
}
