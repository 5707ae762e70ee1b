package nominatimhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trackerd/internal/integrations/geocoder"

	"github.com/pkg/errors"
)

// Client talks to a Nominatim-compatible reverse geocoding endpoint.
type Client struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
}

func New(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "trackerd"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type reverseResp struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (c *Client) Reverse(ctx context.Context, lat, lon float64) ([]geocoder.Result, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = "/reverse"

	q := u.Query()
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("nominatim http %d", resp.StatusCode)
	}

	var r reverseResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if r.Error != "" {
		// Nominatim reports "unable to geocode" for open-sea coordinates.
		return nil, nil
	}

	return []geocoder.Result{{FormattedAddress: r.DisplayName}}, nil
}
