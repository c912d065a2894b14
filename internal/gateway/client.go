// Package gateway is the HTTP client for the storefront API. Every call runs
// under its own timeout. Failures on catalog endpoints are reported uniformly
// as ErrUnreachable; the auth endpoints also distinguish a reachable server
// that rejected the request.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xcar/internal/domain"
)

// ErrUnreachable means the API could not be used: network error, timeout or
// an unexpected status.
var ErrUnreachable = errors.New("gateway unreachable")

// RejectedError is a 4xx answer from the auth endpoints.
type RejectedError struct {
	Status  int
	Message string
	Code    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Timeouts bounds each class of call.
type Timeouts struct {
	Catalog time.Duration
	Mutate  time.Duration
	Delete  time.Duration
	Auth    time.Duration
}

// DefaultTimeouts are the storefront's reference timeouts.
var DefaultTimeouts = Timeouts{
	Catalog: 3 * time.Second,
	Mutate:  3 * time.Second,
	Delete:  2 * time.Second,
	Auth:    3 * time.Second,
}

// Observer is told the outcome of every call.
type Observer interface {
	Observe(err error)
}

// Client calls the storefront API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeouts   Timeouts
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver reports call outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New constructs a gateway client. Zero timeouts take the defaults.
func New(baseURL string, timeouts Timeouts, opts ...Option) *Client {
	if timeouts.Catalog <= 0 {
		timeouts.Catalog = DefaultTimeouts.Catalog
	}
	if timeouts.Mutate <= 0 {
		timeouts.Mutate = DefaultTimeouts.Mutate
	}
	if timeouts.Delete <= 0 {
		timeouts.Delete = DefaultTimeouts.Delete
	}
	if timeouts.Auth <= 0 {
		timeouts.Auth = DefaultTimeouts.Auth
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeouts:   timeouts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCars fetches the full catalog.
func (c *Client) ListCars(ctx context.Context) ([]domain.Car, error) {
	var remote []remoteCar
	err := c.call(ctx, callSpec{
		op: "list cars", method: http.MethodGet, path: "/api/cars",
		timeout: c.timeouts.Catalog, out: &remote,
	})
	if err != nil {
		return nil, err
	}
	cars := make([]domain.Car, 0, len(remote))
	for _, rc := range remote {
		cars = append(cars, rc.toDomain())
	}
	return cars, nil
}

// CreateCar posts a new car and returns it with the server-assigned id.
func (c *Client) CreateCar(ctx context.Context, token string, in domain.CarInput) (domain.Car, error) {
	var created remoteCar
	err := c.call(ctx, callSpec{
		op: "create car", method: http.MethodPost, path: "/api/cars", token: token,
		timeout: c.timeouts.Mutate, payload: in, out: &created,
	})
	if err != nil {
		return domain.Car{}, err
	}
	return created.toDomain(), nil
}

// UpdateCar applies a partial update.
func (c *Client) UpdateCar(ctx context.Context, token, id string, patch domain.CarPatch) (domain.Car, error) {
	var updated remoteCar
	err := c.call(ctx, callSpec{
		op: "update car", method: http.MethodPut, path: "/api/cars/" + url.PathEscape(id), token: token,
		timeout: c.timeouts.Mutate, payload: patch, out: &updated,
	})
	if err != nil {
		return domain.Car{}, err
	}
	return updated.toDomain(), nil
}

// DeleteCar removes a car.
func (c *Client) DeleteCar(ctx context.Context, token, id string) error {
	return c.call(ctx, callSpec{
		op: "delete car", method: http.MethodDelete, path: "/api/cars/" + url.PathEscape(id), token: token,
		timeout: c.timeouts.Delete,
	})
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	var session domain.Session
	err := c.call(ctx, callSpec{
		op: "login", method: http.MethodPost, path: "/api/auth/login",
		timeout: c.timeouts.Auth, payload: payload, out: &session, auth: true,
	})
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Register creates an account and reports whether the server made it an
// admin.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (bool, error) {
	var resp struct {
		Message string `json:"message"`
		IsAdmin bool   `json:"isAdmin"`
	}
	err := c.call(ctx, callSpec{
		op: "register", method: http.MethodPost, path: "/api/auth/register",
		timeout: c.timeouts.Auth, payload: reg, out: &resp, auth: true,
	})
	if err != nil {
		return false, err
	}
	return resp.IsAdmin, nil
}

type callSpec struct {
	op      string
	method  string
	path    string
	token   string
	timeout time.Duration
	payload any
	out     any
	// auth endpoints surface 4xx as RejectedError instead of ErrUnreachable.
	auth bool
}

func (c *Client) call(ctx context.Context, spec callSpec) error {
	err := c.doJSON(ctx, spec)
	if c.observer != nil {
		c.observer.Observe(err)
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, spec callSpec) error {
	ctx, cancel := context.WithTimeout(ctx, spec.timeout)
	defer cancel()

	var body io.Reader
	if spec.payload != nil {
		data, err := json.Marshal(spec.payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", spec.op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, spec.method, c.baseURL+spec.path, body)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, spec.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if spec.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if spec.token != "" {
		req.Header.Set("Authorization", "Bearer "+spec.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, spec.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if spec.auth && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return decodeRejection(resp)
		}
		return fmt.Errorf("%w: %s: status %d", ErrUnreachable, spec.op, resp.StatusCode)
	}
	if spec.out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(spec.out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", ErrUnreachable, spec.op, err)
	}
	return nil
}

// decodeRejection reads either a top-level message or the structured error
// body the API returns.
func decodeRejection(resp *http.Response) error {
	var errResp struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)

	rejected := &RejectedError{Status: resp.StatusCode, Message: errResp.Message}
	if len(errResp.Error) > 0 {
		var detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(errResp.Error, &detail) == nil {
			rejected.Code = detail.Code
			if rejected.Message == "" {
				rejected.Message = detail.Message
			}
		} else {
			var text string
			if json.Unmarshal(errResp.Error, &text) == nil && rejected.Message == "" {
				rejected.Message = text
			}
		}
	}
	if rejected.Message == "" {
		rejected.Message = resp.Status
	}
	return rejected
}
