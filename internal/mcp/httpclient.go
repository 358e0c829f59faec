package mcp

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

	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/models"
)

// HTTPClient implements DataSource by calling the Madcow REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the working copy lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-200 reply from the server. A NOT_FOUND code matches
// models.ErrNotFound.
type APIError struct {
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == models.ErrNotFound && e.Code == "NOT_FOUND"
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Path: path, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			apiErr.Message, apiErr.Code = e.Error, e.Code
		}
		return apiErr
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func weekParams(lifter string, week int) url.Values {
	v := url.Values{}
	v.Set("lifter", lifter)
	if week > 0 {
		v.Set("week", strconv.Itoa(week))
	}
	return v
}

func (c *HTTPClient) Plan(ctx context.Context, lifter string, week int) (*madcow.WeekPlan, error) {
	var plan madcow.WeekPlan
	if err := c.get(ctx, "/api/v1/plan", weekParams(lifter, week), &plan); err != nil {
		return nil, err
	}
	for di := range plan.Days {
		for ci, card := range plan.Days[di].Cards {
			if card.Error != "" {
				plan.Days[di].Cards[ci].Err = errors.New(card.Error)
			}
		}
	}
	return &plan, nil
}

func (c *HTTPClient) CurrentMax(ctx context.Context, lifter string, lift models.Lift, week int) (madcow.Projection, error) {
	params := weekParams(lifter, week)
	params.Set("lift", string(lift))

	var p madcow.Projection
	if err := c.get(ctx, "/api/v1/max", params, &p); err != nil {
		return madcow.Projection{}, err
	}
	return p, nil
}

func (c *HTTPClient) Plates(ctx context.Context, weight, bar float64) (madcow.PlateBreakdown, error) {
	params := url.Values{}
	params.Set("weight", strconv.FormatFloat(weight, 'f', -1, 64))
	if bar > 0 {
		params.Set("bar", strconv.FormatFloat(bar, 'f', -1, 64))
	}

	var b madcow.PlateBreakdown
	if err := c.get(ctx, "/api/v1/plates", params, &b); err != nil {
		return madcow.PlateBreakdown{}, err
	}
	return b, nil
}

func (c *HTTPClient) Records(ctx context.Context, lifter string) ([]models.LiftRecord, error) {
	var params url.Values
	if lifter != "" {
		params = url.Values{"lifter": {lifter}}
	}

	var recs []models.LiftRecord
	if err := c.get(ctx, "/api/v1/records", params, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) Lifters(ctx context.Context) ([]string, error) {
	var lifters []string
	if err := c.get(ctx, "/api/v1/lifters", nil, &lifters); err != nil {
		return nil, err
	}
	return lifters, nil
}

func (c *HTTPClient) Settings(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	if err := c.get(ctx, "/api/v1/settings", nil, &s); err != nil {
		return models.Settings{}, err
	}
	return s, nil
}
