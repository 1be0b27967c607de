package usecase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/service/placeholder"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
)

func TestItemStore_LocalItemLifecycle(t *testing.T) {
	var mu sync.Mutex
	var requests []string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "title": "Foo", "body": "bar", "userId": 1},
		})
	})
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 101
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	const delay = 30 * time.Millisecond
	gw, err := placeholder.New(
		placeholder.WithBaseURL(server.URL),
		placeholder.WithLocalDelay(delay),
		placeholder.WithIDGenerator(model.NewLocalIDGenerator(0)),
	)
	gt.NoError(t, err).Required()

	store := usecase.NewItemStore(gw)
	ctx := context.Background()
	gt.NoError(t, store.Load(ctx)).Required()

	created, err := store.Add(ctx, "Local", "item")
	gt.NoError(t, err).Required()
	gt.Value(t, created.ID.Origin()).Equal(model.OriginLocal)

	gt.NoError(t, store.BeginEdit(created.ID)).Required()
	_, err = store.Update(ctx, "Local2", "item2")
	gt.NoError(t, err).Required()
	gt.Value(t, store.Get(created.ID).Title).Equal("Local2")

	start := time.Now()
	gt.NoError(t, store.Remove(ctx, created.ID)).Required()
	gt.Bool(t, time.Since(start) >= delay).True()
	gt.Value(t, store.Get(created.ID)).Nil()
	gt.Array(t, store.Snapshot().Items).Length(1)

	mu.Lock()
	defer mu.Unlock()
	gt.Array(t, requests).Length(2).Required()
	gt.Value(t, requests[0]).Equal("GET /posts")
	gt.Value(t, requests[1]).Equal("POST /posts")
}
