// Package woo talks to the WooCommerce-shaped commerce backend. Payloads
// are returned as raw JSON documents; all interpretation belongs to the
// orders normalizer.
package woo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	ordersPath  = "/wp-json/wc/v3/orders"
	perPage     = 100
	maxPages    = 50
	httpTimeout = 30 * time.Second
)

// Client wraps the commerce REST API.
type Client struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewClient constructs the commerce client.
func NewClient(baseURL, key, secret string, retry RetryPolicy) *Client {
	return &Client{
		baseURL: baseURL,
		key:     key,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		retry: retry,
	}
}

// ListOrders pages through the orders collection and returns the raw
// order documents.
func (c *Client) ListOrders(ctx context.Context) ([]map[string]any, error) {
	var all []map[string]any
	for page := 1; page <= maxPages; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
			"orderby":  {"date"},
			"order":    {"desc"},
		}
		var batch []map[string]any
		if err := c.getJSON(ctx, ordersPath, query, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return all, nil
}

// GetOrder fetches one order document by id.
func (c *Client) GetOrder(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	if err := c.getJSON(ctx, ordersPath+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return c.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.key, c.secret)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode >= 400 {
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return &StatusError{Code: resp.StatusCode, URL: path}
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("woo: decode %s: %w", path, err)
		}
		return nil
	})
}
