package strapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/foxzi/mailpanel/internal/metrics"
)

// DefaultPageSize is used when a caller asks for page size 0
const DefaultPageSize = 25

// maxPageSize is the page size used when walking a whole collection
const maxPageSize = 100

// Options configures a Client
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration // 0 disables the client-side timeout
	RateRPS float64       // 0 disables rate limiting
	Burst   int
	Breaker BreakerConfig
}

// Client is a content API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[any]
}

// NewClient creates a new content API client
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		breaker: newBreaker(opts.Breaker),
	}
	if opts.RateRPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateRPS), burst)
	}
	return c
}

type tokenKey struct{}

// ContextWithToken returns a context whose requests authenticate with token
// instead of the client's configured API token
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c *Client) tokenFor(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok && t != "" {
		return t
	}
	return c.token
}

// BreakerState reports the circuit breaker state for health output
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// request performs an HTTP request to the content API
func (c *Client) request(ctx context.Context, op, method, path string, body any, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, method, path, body, result)
	})
	metrics.ObserveContentAPI(op, outcome(err), time.Since(start))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("request aborted: %w", ctxErr)
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Message = errResp.Error.Message
		}
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	var resp AuthResponse
	req := &AuthRequest{Identifier: identifier, Password: password}
	if err := c.request(ctx, "login", http.MethodPost, "/api/auth/local", req, &resp); err != nil {
		return nil, err
	}
	if resp.BearerToken() == "" {
		return nil, errors.New("content API returned no token")
	}
	return &resp, nil
}

// Query describes a collection query
type Query struct {
	OwnerID  int64
	Page     int
	PageSize int
	Populate string
}

func (q Query) encode() string {
	params := url.Values{}
	if q.OwnerID > 0 {
		params.Set("filters[usuario][id][$eq]", strconv.FormatInt(q.OwnerID, 10))
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	params.Set("pagination[page]", strconv.Itoa(page))
	params.Set("pagination[pageSize]", strconv.Itoa(size))
	if q.Populate != "" {
		params.Set("populate", q.Populate)
	}
	return params.Encode()
}

// ListCampaigns returns one raw page of campaigns
func (c *Client) ListCampaigns(ctx context.Context, q Query) (*ListResponse, error) {
	var resp ListResponse
	if err := c.request(ctx, "list_campaigns", http.MethodGet, "/api/campaigns?"+q.encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAllCampaigns walks every page of the campaign collection
func (c *Client) ListAllCampaigns(ctx context.Context, q Query) ([]map[string]any, error) {
	q.PageSize = maxPageSize
	var all []map[string]any
	for page := 1; ; page++ {
		q.Page = page
		resp, err := c.ListCampaigns(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)

		p := resp.Meta.Pagination
		if len(resp.Data) == 0 || p.PageCount <= page {
			return all, nil
		}
	}
}

// GetCampaign returns a raw campaign by id
func (c *Client) GetCampaign(ctx context.Context, id int64, populate string) (map[string]any, error) {
	path := "/api/campaigns/" + strconv.FormatInt(id, 10)
	if populate != "" {
		path += "?" + url.Values{"populate": {populate}}.Encode()
	}
	var resp ItemResponse
	if err := c.request(ctx, "get_campaign", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateCampaign creates a campaign and returns the raw record
func (c *Client) CreateCampaign(ctx context.Context, data any) (map[string]any, error) {
	var resp ItemResponse
	if err := c.request(ctx, "create_campaign", http.MethodPost, "/api/campaigns", writeRequest{Data: data}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpdateCampaign updates a campaign and returns the raw record
func (c *Client) UpdateCampaign(ctx context.Context, id int64, data any) (map[string]any, error) {
	var resp ItemResponse
	path := "/api/campaigns/" + strconv.FormatInt(id, 10)
	if err := c.request(ctx, "update_campaign", http.MethodPut, path, writeRequest{Data: data}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DeleteCampaign deletes a campaign
func (c *Client) DeleteCampaign(ctx context.Context, id int64) error {
	return c.request(ctx, "delete_campaign", http.MethodDelete, "/api/campaigns/"+strconv.FormatInt(id, 10), nil, nil)
}

// ListUsers returns every raw user record
func (c *Client) ListUsers(ctx context.Context) ([]map[string]any, error) {
	var resp usersResponse
	if err := c.request(ctx, "list_users", http.MethodGet, "/api/users?populate=role", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr):
		return strconv.Itoa(apiErr.Status)
	case errors.Is(err, gobreaker.ErrOpenState):
		return "breaker_open"
	case isCallerAbort(err):
		return "canceled"
	default:
		return "error"
	}
}
