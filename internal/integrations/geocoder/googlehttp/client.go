package googlehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"trackerd/internal/integrations/geocoder"

	"github.com/pkg/errors"
)

// Client talks to the Google Geocoding REST API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type geocodeResp struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

func (c *Client) Reverse(ctx context.Context, lat, lon float64) ([]geocoder.Result, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = "/maps/api/geocode/json"

	q := u.Query()
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lon))
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("google geocoding http %d", resp.StatusCode)
	}

	var r geocodeResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	switch r.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("google geocoding status=%s", r.Status)
	}

	out := make([]geocoder.Result, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, geocoder.Result{FormattedAddress: res.FormattedAddress})
	}
	return out, nil
}
