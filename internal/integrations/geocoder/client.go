package geocoder

import "context"

type Result struct {
	FormattedAddress string
}

// Client resolves a coordinate into textual addresses, best match first.
// An empty result list without error is a valid "nothing found" answer.
type Client interface {
	Reverse(ctx context.Context, lat, lon float64) ([]Result, error)
}
