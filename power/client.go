// Package power fetches monthly solar irradiance climatologies from the NASA
// POWER point API. It is the only outbound dependency of the planner.
package power

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gridforge/microgrid-planner/sizing"
)

// DefaultBaseURL is the NASA POWER climatology point endpoint.
const DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal/climatology/point"

// ghiParameter is the all-sky surface shortwave downward irradiance series,
// kWh/m²/day in the RE community.
const ghiParameter = "ALLSKY_SFC_SW_DWN"

// TransportError indicates the climatology service could not be reached or
// returned an unusable response. Retrying may help.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "power: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DataError indicates the climatology payload arrived but was incomplete or
// malformed. The same request would fail again; callers should not retry.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "power: " + e.Reason
}

// Client talks to the NASA POWER API. The injected *http.Client carries the
// request timeout; the Client adds no retry policy of its own.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a climatology client. An empty baseURL selects the public
// NASA POWER endpoint.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: httpClient, baseURL: baseURL}
}

// payload mirrors the slice of the POWER response we consume. Month values
// are decoded as any so that a non-numeric entry surfaces as malformed data
// rather than a decode failure.
type payload struct {
	Properties struct {
		Parameter map[string]map[string]any `json:"parameter"`
	} `json:"properties"`
}

// MonthlyGHI retrieves the twelve-month GHI climatology for a point. All
// twelve calendar months must resolve to positive numeric values; anything
// less is a DataError, never a partially filled series.
func (c *Client) MonthlyGHI(ctx context.Context, lat, lon float64) (sizing.MonthlySeries, error) {
	url := fmt.Sprintf("%s?parameters=%s&community=RE&longitude=%.4f&latitude=%.4f&format=JSON",
		c.baseURL, ghiParameter, lon, lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return sizing.MonthlySeries{}, &TransportError{Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return sizing.MonthlySeries{}, &TransportError{Err: fmt.Errorf("request climatology: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return sizing.MonthlySeries{}, &TransportError{Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var body payload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return sizing.MonthlySeries{}, &TransportError{Err: fmt.Errorf("decode payload: %w", err)}
	}

	param, ok := body.Properties.Parameter[ghiParameter]
	if !ok || len(param) == 0 {
		return sizing.MonthlySeries{}, &DataError{Reason: "missing " + ghiParameter + " parameter"}
	}

	// The payload also carries an "ANN" annual mean; only the twelve
	// calendar months matter here.
	var series sizing.MonthlySeries
	for i, month := range sizing.Months {
		raw, ok := param[month]
		if !ok {
			return sizing.MonthlySeries{}, &DataError{Reason: "incomplete irradiance data: missing month " + month}
		}
		v, ok := raw.(float64)
		if !ok {
			return sizing.MonthlySeries{}, &DataError{Reason: fmt.Sprintf("malformed irradiance data: month %s is not numeric", month)}
		}
		series[i] = v
	}

	if err := series.Validate(); err != nil {
		return sizing.MonthlySeries{}, &DataError{Reason: "malformed irradiance data: " + err.Error()}
	}

	return series, nil
}
