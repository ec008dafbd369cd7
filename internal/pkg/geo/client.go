package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bonesy512/landhub/internal/pkg/config"
)

const defaultDistanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// RouteError reports a lookup the maps API rejected (bad origin, unknown
// destination). It maps to a client error, not a server failure.
type RouteError struct {
	Status string
}

func (e *RouteError) Error() string {
	return "route lookup failed: " + e.Status
}

// DistanceResult is the distilled distance-matrix response.
type DistanceResult struct {
	DistanceText  string `json:"distance_text"`
	DistanceValue int    `json:"distance_value"`
	DurationText  string `json:"duration_text"`
	DurationValue int    `json:"duration_value"`
}

// Client calls the Google Maps Distance Matrix API.
type Client struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	baseURL := strings.TrimSpace(cfg.GoogleMapsAPIURL)
	if baseURL == "" {
		baseURL = defaultDistanceMatrixURL
	}

	return &Client{
		APIKey:  strings.TrimSpace(cfg.GoogleMapsAPIKey),
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// DistanceToCity resolves distance and travel time from an origin
// coordinate pair to a destination city.
func (c *Client) DistanceToCity(ctx context.Context, origins, destination string) (*DistanceResult, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("maps api key is not configured")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid maps api url: %w", err)
	}
	q := u.Query()
	q.Set("origins", origins)
	q.Set("destinations", destination)
	q.Set("units", "imperial")
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("distance matrix request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	type rawElement struct {
		Status   string `json:"status"`
		Distance struct {
			Text  string `json:"text"`
			Value int    `json:"value"`
		} `json:"distance"`
		Duration struct {
			Text  string `json:"text"`
			Value int    `json:"value"`
		} `json:"duration"`
	}
	type rawResponse struct {
		Status string `json:"status"`
		Rows   []struct {
			Elements []rawElement `json:"elements"`
		} `json:"rows"`
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("distance matrix response decode: %w", err)
	}

	if raw.Status != "OK" {
		return nil, &RouteError{Status: raw.Status}
	}
	if len(raw.Rows) == 0 || len(raw.Rows[0].Elements) == 0 {
		return nil, &RouteError{Status: "NO_RESULTS"}
	}
	element := raw.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, &RouteError{Status: element.Status}
	}

	return &DistanceResult{
		DistanceText:  element.Distance.Text,
		DistanceValue: element.Distance.Value,
		DurationText:  element.Duration.Text,
		DurationValue: element.Duration.Value,
	}, nil
}
