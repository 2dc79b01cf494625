package opensearch

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

	"ShopFulfillment/internal/api/domain/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu       sync.Mutex
	indexed  bool
	requests []string
	docs     map[string][]byte
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead:
		if c.indexed {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && strings.Count(r.URL.Path, "/") == 1:
		c.indexed = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case strings.Contains(r.URL.Path, "/_doc/"):
		body, _ := io.ReadAll(r.Body)
		c.docs[r.URL.Path] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func TestOrderEventMirror(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("should create the index once and mirror events by stable id", func(t *testing.T) {
		// given
		cluster := &fakeCluster{docs: map[string][]byte{}}
		server := httptest.NewServer(cluster)
		defer server.Close()

		mirror, err := NewOrderEventMirror(ctx, []string{server.URL}, "order-events")
		require.NoError(t, err)

		event := order.NewOrderEvent{
			OrderID:         "order-1",
			Kind:            order.OrderEventPaymentSucceeded,
			ProviderEventID: "evt_1",
			Data:            json.RawMessage(`{"event_type":"checkout.session.completed"}`),
			CreatedAt:       time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		}

		// when
		require.NoError(t, mirror.MirrorOrderEvent(ctx, event))
		require.NoError(t, mirror.MirrorOrderEvent(ctx, event))

		// then
		assert.Equal(t, []string{"HEAD /order-events", "PUT /order-events"}, cluster.requests[:2])
		require.Len(t, cluster.docs, 1)
		for path, body := range cluster.docs {
			assert.Contains(t, path, "order-1:payment_succeeded:evt_1")
			var doc orderEventDoc
			require.NoError(t, json.Unmarshal(body, &doc))
			assert.Equal(t, "order-1", doc.OrderID)
			assert.Equal(t, order.OrderEventPaymentSucceeded, doc.Kind)
		}
	})

	t.Run("should require addresses", func(t *testing.T) {
		_, err := NewOrderEventMirror(ctx, nil, "order-events")

		assert.Error(t, err)
	})
}
