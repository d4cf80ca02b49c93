package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/prematch"
)

// WeatherClient fetches hourly temperature and precipitation from an
// open-meteo style API. Past days use the archive endpoint, future days the
// forecast one. It satisfies prematch.WeatherProvider.
type WeatherClient struct {
	forecastBase string
	archiveBase  string
	client       *client
}

func NewWeatherClient(forecastBase, archiveBase string, opts Options, log *logrus.Logger) *WeatherClient {
	return &WeatherClient{
		forecastBase: forecastBase,
		archiveBase:  archiveBase,
		client:       newClient("weather", opts, log),
	}
}

type openMeteoResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2M []float64 `json:"temperature_2m"`
		Precipitation []float64 `json:"precipitation"`
	} `json:"hourly"`
}

func (w *WeatherClient) Hourly(ctx context.Context, lat, lon float64, day time.Time) ([]prematch.HourlyWeather, error) {
	base := w.forecastBase
	if day.Before(time.Now().Truncate(24 * time.Hour)) {
		base = w.archiveBase
	}
	date := day.Format("2006-01-02")

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", lat))
	q.Set("longitude", fmt.Sprintf("%f", lon))
	q.Set("hourly", "temperature_2m,precipitation")
	q.Set("start_date", date)
	q.Set("end_date", date)
	q.Set("timezone", "UTC")

	var resp openMeteoResponse
	if err := w.client.getJSON(ctx, base, q, &resp); err != nil {
		return nil, err
	}

	n := len(resp.Hourly.Time)
	if len(resp.Hourly.Temperature2M) < n {
		n = len(resp.Hourly.Temperature2M)
	}
	if len(resp.Hourly.Precipitation) < n {
		n = len(resp.Hourly.Precipitation)
	}

	out := make([]prematch.HourlyWeather, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse("2006-01-02T15:04", resp.Hourly.Time[i])
		if err != nil {
			return nil, fmt.Errorf("providers: bad weather timestamp %q: %w", resp.Hourly.Time[i], err)
		}
		out = append(out, prematch.HourlyWeather{
			Time:            ts,
			TemperatureC:    resp.Hourly.Temperature2M[i],
			PrecipitationMM: resp.Hourly.Precipitation[i],
		})
	}
	return out, nil
}
