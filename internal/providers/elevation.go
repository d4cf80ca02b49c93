package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
)

// ElevationProvider resolves coordinates to meters above sea level via an
// open-elevation style lookup endpoint.
type ElevationProvider struct {
	base   string
	client *client
}

func NewElevationProvider(baseURL string, opts Options, log *logrus.Logger) *ElevationProvider {
	return &ElevationProvider{
		base:   baseURL,
		client: newClient("elevation", opts, log),
	}
}

type elevationResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

func (e *ElevationProvider) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	q := url.Values{}
	q.Set("locations", fmt.Sprintf("%f,%f", lat, lon))

	var resp elevationResponse
	if err := e.client.getJSON(ctx, e.base, q, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("providers: no elevation result for %f,%f", lat, lon)
	}
	return resp.Results[0].Elevation, nil
}
