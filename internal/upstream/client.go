// Package upstream talks to the catalog and stock endpoints of the storefront API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"RocketShoes/internal/cart"
)

var (
	ErrNotFound    = errors.New("upstream resource not found")
	ErrBadStatus   = errors.New("upstream bad status")
	ErrUnavailable = errors.New("upstream unavailable")
	ErrBadBody     = errors.New("upstream bad body")
)

const (
	defaultTimeout = 3 * time.Second
	maxBodyBytes   = 1 << 20

	breakerFailures = 5
	breakerOpenFor  = 10 * time.Second
)

type Options struct {
	Timeout time.Duration
	Log     *zap.Logger
	// Transport defaults to http.DefaultTransport; it is always wrapped with
	// otelhttp so trace context reaches the API.
	Transport http.RoundTripper
}

// Client implements cart.Catalog and cart.Inventory over HTTP.
// Concurrent identical GETs share one request, and a run of API failures
// opens a breaker that fails calls fast with ErrUnavailable. Callers
// cancelling their own requests never count as failures.
type Client struct {
	BaseURL string
	Client  *http.Client

	log     *zap.Logger
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker[[]byte]
}

var (
	_ cart.Catalog   = (*Client)(nil)
	_ cart.Inventory = (*Client)(nil)
)

func NewClient(baseURL string, o Options) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}

	c := &Client{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   o.Timeout,
			Transport: otelhttp.NewTransport(o.Transport),
		},
		log: o.Log,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "upstream",
		Timeout: breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		// Only an unreachable or failing API counts against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

func (c *Client) GetProduct(ctx context.Context, id int) (cart.Product, error) {
	var p cart.Product
	if err := c.getJSON(ctx, "/products/"+strconv.Itoa(id), &p); err != nil {
		return cart.Product{}, err
	}
	return p, nil
}

func (c *Client) GetStock(ctx context.Context, id int) (cart.Stock, error) {
	var s cart.Stock
	if err := c.getJSON(ctx, "/stock/"+strconv.Itoa(id), &s); err != nil {
		return cart.Stock{}, err
	}
	return s, nil
}

// Ready probes the API's /readyz endpoint.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.get(ctx, "/readyz")
	return err
}

// getJSON runs the shared request detached from the caller's cancellation;
// the client timeout still bounds it. A caller that gives up returns early
// without failing the others.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(path, func() (any, error) {
		return c.breaker.Execute(func() ([]byte, error) {
			return c.get(shared, path)
		})
	})

	var (
		v   any
		err error
	)
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, path, context.Cause(ctx))
	case res := <-ch:
		v, err = res.Val, res.Err
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(v.([]byte), out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBadBody, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s: status=%d", ErrBadStatus, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return body, nil
}
