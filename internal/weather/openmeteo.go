package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoClient queries the Open-Meteo forecast API.
type OpenMeteoClient struct {
	baseURL string
	client  *http.Client
}

// NewOpenMeteoClient creates a client for baseURL (e.g. https://api.open-meteo.com).
func NewOpenMeteoClient(baseURL string, timeout time.Duration) *OpenMeteoClient {
	return &OpenMeteoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type openMeteoResponse struct {
	Latitude  float64                    `json:"latitude"`
	Longitude float64                    `json:"longitude"`
	Hourly    map[string]json.RawMessage `json:"hourly"`
	Error     bool                       `json:"error"`
	Reason    string                     `json:"reason"`
}

// Fetch issues GET {base}/v1/forecast for the request.
func (c *OpenMeteoClient) Fetch(ctx context.Context, req Request) (*Hourly, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(req.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(req.Longitude, 'f', -1, 64))
	q.Set("hourly", strings.Join(req.Variables, ","))
	q.Set("start_date", req.StartDate.Format(time.DateOnly))
	q.Set("end_date", req.EndDate.Format(time.DateOnly))
	if req.Timezone != "" {
		q.Set("timezone", req.Timezone)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Op: "request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &ProviderError{Op: "request", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, providerError("status", "unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return decodeOpenMeteo(body, req.Variables)
}

func decodeOpenMeteo(body []byte, variables []string) (*Hourly, error) {
	var payload openMeteoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ProviderError{Op: "decode", Err: err}
	}
	if payload.Error {
		return nil, providerError("contract", "provider error: %s", payload.Reason)
	}
	if payload.Hourly == nil {
		return nil, providerError("contract", "response has no hourly field")
	}

	rawTimes, ok := payload.Hourly["time"]
	if !ok {
		return nil, providerError("contract", "hourly has no time column")
	}
	var stamps []string
	if err := json.Unmarshal(rawTimes, &stamps); err != nil {
		return nil, &ProviderError{Op: "decode", Err: fmt.Errorf("time column: %w", err)}
	}

	out := &Hourly{
		Times:  make([]time.Time, len(stamps)),
		Values: make(map[string][]float64, len(variables)),
	}
	for i, s := range stamps {
		t, err := time.Parse(openMeteoTimeLayout, s)
		if err != nil {
			return nil, &ProviderError{Op: "decode", Err: fmt.Errorf("time %q: %w", s, err)}
		}
		out.Times[i] = t
	}

	for _, name := range variables {
		raw, ok := payload.Hourly[name]
		if !ok {
			return nil, providerError("contract", "hourly has no %s column", name)
		}
		var column []*float64
		if err := json.Unmarshal(raw, &column); err != nil {
			return nil, &ProviderError{Op: "decode", Err: fmt.Errorf("%s column: %w", name, err)}
		}
		if len(column) != len(stamps) {
			return nil, providerError("contract", "%s has %d values for %d times", name, len(column), len(stamps))
		}
		values := make([]float64, len(column))
		for i, v := range column {
			if v == nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = *v
		}
		out.Values[name] = values
	}

	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
