// Package pdl is a client for the People Data Labs company enrichment API.
package pdl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.peopledatalabs.com/v5"

// ErrNotFound is returned when PDL has no record for the requested website.
var ErrNotFound = eris.New("pdl: company not found")

// Client enriches companies by website domain.
type Client interface {
	EnrichCompany(ctx context.Context, website string) (*Company, error)
}

// Company is the subset of the PDL company schema used for enrichment.
type Company struct {
	Name          string    `json:"name"`
	DisplayName   string    `json:"display_name"`
	Website       string    `json:"website"`
	Industry      string    `json:"industry"`
	EmployeeCount int       `json:"employee_count"`
	Size          string    `json:"size"`
	Founded       int       `json:"founded"`
	Summary       string    `json:"summary"`
	LogoURL       string    `json:"logo_url"`
	Location      *Location `json:"location"`
	LinkedInURL   string    `json:"linkedin_url"`
	TwitterURL    string    `json:"twitter_url"`
	FacebookURL   string    `json:"facebook_url"`
	Likelihood    int       `json:"likelihood"`
}

// Location is the headquarters location.
type Location struct {
	Name     string `json:"name"`
	Locality string `json:"locality"`
	Region   string `json:"region"`
	Country  string `json:"country"`
}

// StatusError is returned for non-200, non-404 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pdl: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the upstream status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a requests-per-second ceiling. A non-positive rps
// leaves the client unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a People Data Labs client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) EnrichCompany(ctx context.Context, website string) (*Company, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pdl: rate limit wait")
	}

	q := url.Values{}
	q.Set("website", website)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/company/enrich?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(ErrNotFound, "website %s", website)
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Company
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "pdl: unmarshal response")
	}
	return &out, nil
}
