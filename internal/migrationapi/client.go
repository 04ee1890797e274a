// Package migrationapi is the HTTP client for the external migration API
// the migration controller drives. Every call goes through a circuit
// breaker so a flapping remote never turns into an unbounded retry storm.
package migrationapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// Client wraps a resty client pointed at base, authenticating every call
// with a bearer token and an org id header once setup has produced them.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	token   string
	orgID   string
}

// New builds a client against baseURL (e.g. "http://localhost:8000/api/v1").
func New(baseURL string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "migration-api",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		http:    resty.New().SetBaseURL(baseURL),
		breaker: cb,
	}
}

// SetAuth records the bearer token and org id every subsequent
// authenticated call carries.
func (c *Client) SetAuth(token, orgID string) {
	c.token = token
	c.orgID = orgID
}

func (c *Client) authed(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetHeader("Authorization", "Bearer "+c.token)
	}
	if c.orgID != "" {
		req.SetHeader("X-Org-Id", c.orgID)
	}
	return req
}

// do runs fn through the circuit breaker, classifying any 5xx response or
// transport error as a breaker failure; other 4xx responses are returned
// with a nil error for the caller to inspect. A 409 is treated as
// idempotent success at this layer too: the caller resolves the existing
// resource's identity via a follow-up GET.
func (c *Client) do(fn func() (*resty.Response, error)) (*resty.Response, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			return resp, fmt.Errorf("migration api: server error %d", resp.StatusCode())
		}
		return resp, nil
	})
	if resp, ok := res.(*resty.Response); ok {
		return resp, err
	}
	return nil, err
}

// IsConflict reports whether resp represents the idempotent-success 409
// case.
func IsConflict(resp *resty.Response) bool {
	return resp != nil && resp.StatusCode() == 409
}

// NewOrganization creates the org used for the whole setup sequence,
// authenticating with the fixed bearer secret the API requires for this
// one bootstrap call.
func (c *Client) NewOrganization(ctx context.Context, body interface{}) (*resty.Response, error) {
	return c.do(func() (*resty.Response, error) {
		return c.http.R().SetContext(ctx).
			SetHeader("Authorization", "Bearer neworgsecret").
			SetBody(body).
			Post("/new")
	})
}

// Login exchanges basic-auth credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*resty.Response, error) {
	return c.do(func() (*resty.Response, error) {
		return c.http.R().SetContext(ctx).
			SetBasicAuth(username, password).
			Post("/auth/login")
	})
}

func (c *Client) CreateEndpoint(ctx context.Context, body interface{}) (*resty.Response, error) {
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Post("/endpoints") })
}

func (c *Client) CreateInterlay(ctx context.Context, body interface{}) (*resty.Response, error) {
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Post("/interlays") })
}

func (c *Client) CreateMigration(ctx context.Context, body interface{}) (*resty.Response, error) {
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Post("/migrations") })
}

func (c *Client) AttachInterlay(ctx context.Context, migrationID, interlayID string, body interface{}) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s/interlay/%s", migrationID, interlayID)
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Post(path) })
}

func (c *Client) UpdateTraffic(ctx context.Context, migrationID string, body interface{}) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s/traffic", migrationID)
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Patch(path) })
}

func (c *Client) Migrate(ctx context.Context, migrationID string) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s/migrate", migrationID)
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).Post(path) })
}

func (c *Client) Complete(ctx context.Context, migrationID string, body interface{}) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s/complete", migrationID)
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Post(path) })
}

func (c *Client) Cancel(ctx context.Context, migrationID string, body interface{}) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s/cancel", migrationID)
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Post(path) })
}

func (c *Client) Rollback(ctx context.Context, migrationID, interlayID string, body interface{}) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s/interlay/%s/rollback", migrationID, interlayID)
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).SetBody(body).Post(path) })
}

func (c *Client) Refresh(ctx context.Context, migrationID string) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s/refresh", migrationID)
	return c.do(func() (*resty.Response, error) { return c.authed(ctx).Post(path) })
}

// Status fetches the verbose migration status used to drive the poller.
func (c *Client) Status(ctx context.Context, migrationID string) (*resty.Response, error) {
	path := fmt.Sprintf("/migrations/%s", migrationID)
	return c.do(func() (*resty.Response, error) {
		return c.authed(ctx).SetHeader("X-Eden-Verbose", "true").Get(path)
	})
}
