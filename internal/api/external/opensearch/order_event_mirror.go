package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ShopFulfillment/internal/api/domain/order"

	"github.com/opensearch-project/opensearch-go"
)

var _ order.EventMirror = (*OrderEventMirror)(nil)

// OrderEventMirror copies order audit events into a search index. Postgres
// stays the source of truth; the index is for support tooling.
type OrderEventMirror struct {
	client *opensearch.Client
	index  string
}

func NewOrderEventMirror(ctx context.Context, urls []string, index string) (*OrderEventMirror, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{MaxIdleConnsPerHost: 10},
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	m := &OrderEventMirror{client: client, index: index}
	if err := m.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *OrderEventMirror) ensureIndex(ctx context.Context) error {
	res, err := m.client.Indices.Exists([]string{m.index}, m.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"order_id":          map[string]any{"type": "keyword"},
				"kind":              map[string]any{"type": "keyword"},
				"provider_event_id": map[string]any{"type": "keyword"},
				"created_at":        map[string]any{"type": "date"},
				"data":              map[string]any{"type": "object", "enabled": true},
			},
		},
	}
	buf, _ := json.Marshal(body)

	cr, err := m.client.Indices.Create(
		m.index,
		m.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		m.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

type orderEventDoc struct {
	OrderID         string               `json:"order_id"`
	Kind            order.OrderEventKind `json:"kind"`
	ProviderEventID string               `json:"provider_event_id,omitempty"`
	Data            json.RawMessage      `json:"data,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// documentID is stable per event so a repeated mirror overwrites instead of duplicating.
func documentID(ev order.NewOrderEvent) string {
	return fmt.Sprintf("%s:%s:%s", ev.OrderID, ev.Kind, ev.ProviderEventID)
}

func (m *OrderEventMirror) MirrorOrderEvent(ctx context.Context, ev order.NewOrderEvent) error {
	payload, err := json.Marshal(orderEventDoc{
		OrderID:         ev.OrderID,
		Kind:            ev.Kind,
		ProviderEventID: ev.ProviderEventID,
		Data:            ev.Data,
		CreatedAt:       ev.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	res, err := m.client.Index(
		m.index,
		bytes.NewReader(payload),
		m.client.Index.WithDocumentID(documentID(ev)),
		m.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}
