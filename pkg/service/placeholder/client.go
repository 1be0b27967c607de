// Package placeholder is the gateway to the public placeholder REST resource.
// The resource echoes writes without keeping them, so created items get ids
// from a local generator and later writes to those ids never leave the
// process.
package placeholder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/domain/interfaces"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
	"github.com/secmon-lab/itemdeck/pkg/utils/safe"
)

const (
	DefaultBaseURL    = "https://jsonplaceholder.typicode.com"
	DefaultPageSize   = 10
	DefaultLocalDelay = 200 * time.Millisecond
	DefaultTimeout    = 10 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	localDelay time.Duration
	ids        *model.LocalIDGenerator
}

var _ interfaces.ItemGateway = &Client{}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithLocalDelay sets how long writes to local ids pretend to take.
func WithLocalDelay(d time.Duration) Option {
	return func(c *Client) {
		c.localDelay = d
	}
}

func WithIDGenerator(g *model.LocalIDGenerator) Option {
	return func(c *Client) {
		c.ids = g
	}
}

func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		pageSize:   DefaultPageSize,
		localDelay: DefaultLocalDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		return nil, goerr.New("placeholder base URL is required")
	}
	if c.pageSize <= 0 {
		return nil, goerr.New("page size must be positive", goerr.V("page_size", c.pageSize))
	}
	if c.localDelay < 0 {
		return nil, goerr.New("local delay must not be negative", goerr.V("local_delay", c.localDelay))
	}
	if c.ids == nil {
		c.ids = model.NewLocalIDGenerator(time.Now().UnixMilli())
	}

	return c, nil
}

// List fetches the posts collection and keeps the first page of records
// with valid, unique remote ids.
func (c *Client) List(ctx context.Context) ([]*model.Item, error) {
	var posts []*post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, goerr.Wrap(err, "failed to list posts")
	}

	items := make([]*model.Item, 0, min(len(posts), c.pageSize))
	seen := make(map[model.ItemID]struct{}, c.pageSize)
	for _, p := range posts {
		if len(items) >= c.pageSize {
			break
		}
		if p == nil {
			continue
		}
		// Remote records must stay in the remote id range and be unique,
		// otherwise updates would skip the network or hit the wrong item.
		if p.ID <= 0 || p.ID.IsLocal() {
			logging.From(ctx).Warn("skipping post with id outside remote range", model.ItemIDKey, p.ID)
			continue
		}
		if _, ok := seen[p.ID]; ok {
			logging.From(ctx).Warn("skipping post with duplicate id", model.ItemIDKey, p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		items = append(items, p.toItem())
	}
	return items, nil
}

// Create posts the record and replaces the echoed id with a local one.
func (c *Client) Create(ctx context.Context, title, description string) (*model.Item, error) {
	var echoed post
	if err := c.do(ctx, http.MethodPost, "/posts", newPost(0, title, description), &echoed); err != nil {
		return nil, goerr.Wrap(err, "failed to create post", goerr.V(model.TitleKey, title))
	}

	item := echoed.toItem()
	item.ID = c.ids.Next()
	return item, nil
}

// Update sends a PUT for remote ids. Local ids only wait out the simulated
// latency and return the item as given.
func (c *Client) Update(ctx context.Context, item *model.Item) (*model.Item, error) {
	if item.ID.IsLocal() {
		logging.From(ctx).Debug("simulating update of local item", model.ItemIDKey, item.ID)
		if err := c.simulate(ctx); err != nil {
			return nil, goerr.Wrap(err, "simulated update interrupted", goerr.V(model.ItemIDKey, item.ID))
		}
		return item.Clone(), nil
	}

	var updated post
	path := fmt.Sprintf("/posts/%d", item.ID)
	if err := c.do(ctx, http.MethodPut, path, newPost(item.ID, item.Title, item.Description), &updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update post", goerr.V(model.ItemIDKey, item.ID))
	}
	return updated.toItem(), nil
}

// Delete sends a DELETE for remote ids and only simulates it for local ids.
func (c *Client) Delete(ctx context.Context, id model.ItemID) error {
	if id.IsLocal() {
		logging.From(ctx).Debug("simulating delete of local item", model.ItemIDKey, id)
		if err := c.simulate(ctx); err != nil {
			return goerr.Wrap(err, "simulated delete interrupted", goerr.V(model.ItemIDKey, id))
		}
		return nil
	}

	path := fmt.Sprintf("/posts/%d", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return goerr.Wrap(err, "failed to delete post", goerr.V(model.ItemIDKey, id))
	}
	return nil
}

func (c *Client) simulate(ctx context.Context) error {
	if c.localDelay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.localDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do performs one request. in is encoded as JSON when non-nil; the response
// body is decoded into out when out is non-nil. Any non-2xx status is an
// error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	url := c.baseURL + path

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return goerr.Wrap(err, "failed to encode request", goerr.V("url", url))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("method", method), goerr.V("url", url))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request failed", goerr.V("method", method), goerr.V("url", url))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return goerr.New("unexpected response status",
			goerr.V("method", method),
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(snippet)),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("method", method), goerr.V("url", url))
	}
	return nil
}
