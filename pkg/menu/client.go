// Package menu is the HTTP client for the upstream menu resource.
package menu

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultBaseURL is where the menu resource lives unless configured otherwise.
const DefaultBaseURL = "http://localhost:3001/api/menu"

const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ObserveFunc is called once per finished request. status is zero when the
// request failed before a response arrived.
type ObserveFunc func(op string, status int, elapsed time.Duration)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Transport http.RoundTripper
	Logger    resty.Logger
	UserAgent string
	Debug     bool
	Observe   ObserveFunc
}

// Client talks to a single menu REST resource. Every call is exactly one
// request: no retries, no client-side timeout and no caching.
type Client struct {
	http    *resty.Client
	observe ObserveFunc
}

// New creates a Client from opts.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// No cookie jar: resty.New would install one.
	hc := &http.Client{}
	if opts.Transport != nil {
		hc.Transport = opts.Transport
	}

	r := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("Accept", "application/json").
		SetDebug(opts.Debug)

	if opts.UserAgent != "" {
		r.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Logger != nil {
		r.SetLogger(opts.Logger)
	}

	observe := opts.Observe
	if observe == nil {
		observe = func(string, int, time.Duration) {}
	}

	return &Client{http: r, observe: observe}
}

// BaseURL returns the resource URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// List fetches the whole menu in server order.
func (c *Client) List(ctx context.Context) ([]Item, error) {
	resp, err := c.send(ctx, OpList, c.http.R(), http.MethodGet, "")
	if err != nil {
		return nil, err
	}

	items := []Item{}
	if err := decode(OpList, resp, &items); err != nil {
		return nil, err
	}
	if items == nil {
		// null decodes to a nil slice; it is still an empty menu.
		items = []Item{}
	}
	return items, nil
}

// Get fetches one item by id.
func (c *Client) Get(ctx context.Context, id ItemID) (Item, error) {
	resp, err := c.send(ctx, OpGet, c.http.R().SetPathParam("id", id.String()), http.MethodGet, "/{id}")
	if err != nil {
		return Item{}, err
	}

	var item Item
	if err := decode(OpGet, resp, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Create posts a new item as a multipart form together with the secret.
func (c *Client) Create(ctx context.Context, item NewItem, secret string) error {
	req := c.http.R().SetMultipartFormData(map[string]string{
		"title":       item.Title,
		"price":       item.Price.String(),
		"description": item.Description,
		"secret":      secret,
	})

	switch {
	case item.Image != nil:
		name := item.ImageName
		if name == "" {
			name = "image"
		}
		req.SetFileReader("img", filepath.Base(name), item.Image)
	case item.ImageURL != "":
		req.SetMultipartFormData(map[string]string{"img": item.ImageURL})
	}

	_, err := c.send(ctx, OpCreate, req, http.MethodPost, "")
	return err
}

// Update changes the price of an existing item.
func (c *Client) Update(ctx context.Context, id ItemID, u Update, secret string) error {
	req := c.http.R().
		SetPathParam("id", id.String()).
		SetBody(updateRequest{Price: number(u.Price), Secret: secret})

	_, err := c.send(ctx, OpUpdate, req, http.MethodPut, "/{id}")
	return err
}

// Delete removes an item. The secret travels in a JSON body.
func (c *Client) Delete(ctx context.Context, id ItemID, secret string) error {
	req := c.http.R().
		SetPathParam("id", id.String()).
		SetBody(deleteRequest{Secret: secret})

	_, err := c.send(ctx, OpDelete, req, http.MethodDelete, "/{id}")
	return err
}

func (c *Client) send(ctx context.Context, op string, req *resty.Request, method, path string) (*resty.Response, error) {
	start := time.Now()
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		return nil, transportError(op, fmt.Errorf("%s %s: %w", method, req.URL, err))
	}

	c.observe(op, resp.StatusCode(), time.Since(start))
	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		return resp, parseError(op, resp)
	}
	return resp, nil
}

// decode reads a JSON body regardless of the Content-Type the server chose.
func decode(op string, resp *resty.Response, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
