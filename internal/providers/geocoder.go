package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Geocoder resolves a free-text venue query to coordinates via a
// nominatim-style search endpoint.
type Geocoder struct {
	base   string
	client *client
}

func NewGeocoder(baseURL string, opts Options, log *logrus.Logger) *Geocoder {
	return &Geocoder{
		base:   baseURL,
		client: newClient("geocoder", opts, log),
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) Locate(ctx context.Context, query string) (lat, lon float64, err error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []nominatimResult
	if err := g.client.getJSON(ctx, g.base, q, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("providers: no geocoding result for %q", query)
	}
	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("providers: bad latitude for %q: %w", query, err)
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("providers: bad longitude for %q: %w", query, err)
	}
	return lat, lon, nil
}
