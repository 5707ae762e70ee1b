package fake

import (
	"context"
	"fmt"

	"trackerd/internal/integrations/geocoder"

	"github.com/pkg/errors"
)

// FakeClient is a local stand-in for a real geocoding provider. It returns a
// deterministic address built from the coordinate, or fails on demand.
type FakeClient struct {
	Fail bool
}

func New() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Reverse(ctx context.Context, lat, lon float64) ([]geocoder.Result, error) {
	if f.Fail {
		return nil, errors.New("fake geocoder unavailable")
	}
	return []geocoder.Result{
		{FormattedAddress: fmt.Sprintf("Fake Street near %.4f,%.4f", lat, lon)},
	}, nil
}
