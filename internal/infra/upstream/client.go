// Package upstream fetches raw per-service measurements from the external
// status API.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

var (
	// ErrUnavailable is returned when the upstream could not be reached, timed
	// out, or answered with a non-2xx status.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrMalformed is returned when the upstream answered but the body does
	// not have the expected shape.
	ErrMalformed = errors.New("malformed upstream payload")
)

const maxBodyBytes = 8 << 20

// Response describes the HTTP exchange with the upstream, available even when
// Fetch fails.
type Response struct {
	StatusCode int // 0 when no response was received
	Latency    time.Duration
}

// Client fetches the upstream status payload.
type Client struct {
	url    string
	token  string
	client *http.Client
}

// NewClient creates an upstream client. The per-request deadline comes from
// the context passed to Fetch.
func NewClient(url, token string) *Client {
	return &Client{
		url:    url,
		token:  token,
		client: &http.Client{},
	}
}

// Fetch retrieves and decodes the upstream payload.
func (c *Client) Fetch(ctx context.Context) (*Payload, Response, error) {
	var res Response

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, res, fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		return nil, res, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, res, fmt.Errorf("%w: upstream API error: %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	res.Latency = time.Since(start)
	if err != nil {
		return nil, res, fmt.Errorf("%w: failed to read body: %v", ErrUnavailable, err)
	}

	payload, err := Decode(body)
	if err != nil {
		return nil, res, err
	}
	return payload, res, nil
}

// Decode parses and validates an upstream payload.
func Decode(body []byte) (*Payload, error) {
	var raw struct {
		Regions *[]Region `json:"regions"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Regions == nil {
		return nil, fmt.Errorf("%w: missing regions", ErrMalformed)
	}

	payload := &Payload{Regions: *raw.Regions}
	for i, r := range payload.Regions {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: region %d has no id", ErrMalformed, i)
		}
		for j, s := range r.Services {
			if s.ID == "" {
				return nil, fmt.Errorf("%w: service %d in region %s has no id", ErrMalformed, j, r.ID)
			}
		}
	}
	return payload, nil
}
