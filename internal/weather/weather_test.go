package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
	"github.com/gridcast/gridcast/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

type fakeProvider struct {
	hourly *Hourly
	err    error
	calls  int
	last   Request
}

func (f *fakeProvider) Fetch(_ context.Context, req Request) (*Hourly, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.hourly, nil
}

func constantWeather(start time.Time, hours int, temp, rh float64) *Hourly {
	h := &Hourly{
		Times:  make([]time.Time, hours),
		Values: map[string][]float64{Temperature: make([]float64, hours), RelativeHumidity: make([]float64, hours)},
	}
	for i := 0; i < hours; i++ {
		h.Times[i] = start.Add(time.Duration(i) * time.Hour)
		h.Values[Temperature][i] = temp + float64(i)
		h.Values[RelativeHumidity][i] = rh
	}
	return h
}

func demandSeries(hours int) *hourly.Series {
	s := &hourly.Series{Times: make([]time.Time, hours), KWh: make([]float64, hours)}
	for i := range s.Times {
		s.Times[i] = day.Add(time.Duration(i) * time.Hour)
		s.KWh[i] = 1
	}
	return s
}

func TestOpenMeteoClientFetch(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"latitude":28.37,"longitude":79.43,"hourly":{
			"time":["2020-03-01T00:00","2020-03-01T01:00"],
			"temperature_2m":[14.2,null],
			"relative_humidity_2m":[80,78]}}`)
	}))
	defer server.Close()

	client := NewOpenMeteoClient(server.URL+"/", 5*time.Second)
	h, err := client.Fetch(context.Background(), Request{
		Latitude:  28.367,
		Longitude: 79.4305,
		StartDate: day,
		EndDate:   day.Add(24 * time.Hour),
		Variables: []string{Temperature, RelativeHumidity},
		Timezone:  "Asia/Kolkata",
	})
	require.NoError(t, err)

	assert.Equal(t, "2020-03-01", query["start_date"])
	assert.Equal(t, "2020-03-02", query["end_date"])
	assert.Equal(t, "temperature_2m,relative_humidity_2m", query["hourly"])
	assert.Equal(t, "Asia/Kolkata", query["timezone"])
	assert.Equal(t, "28.367", query["latitude"])

	require.Len(t, h.Times, 2)
	assert.Equal(t, day.Add(time.Hour), h.Times[1])
	assert.Equal(t, 14.2, h.Values[Temperature][0])
	assert.True(t, math.IsNaN(h.Values[Temperature][1]))
	assert.Equal(t, 78.0, h.Values[RelativeHumidity][1])
}

func TestOpenMeteoClientContractErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		op     string
	}{
		{"missing hourly", 200, `{"latitude":1,"longitude":2}`, "contract"},
		{"missing variable", 200, `{"hourly":{"time":["2020-03-01T00:00"],"temperature_2m":[1]}}`, "contract"},
		{"length mismatch", 200, `{"hourly":{"time":["2020-03-01T00:00"],"temperature_2m":[1,2],"relative_humidity_2m":[1]}}`, "contract"},
		{"malformed json", 200, `{"hourly":`, "decode"},
		{"bad time", 200, `{"hourly":{"time":["yesterday"],"temperature_2m":[1],"relative_humidity_2m":[1]}}`, "decode"},
		{"provider error", 400, `{"error":true,"reason":"Parameter 'start_date' is out of allowed range"}`, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewOpenMeteoClient(server.URL, time.Second).Fetch(context.Background(), Request{
				StartDate: day,
				EndDate:   day,
				Variables: []string{Temperature, RelativeHumidity},
			})
			require.Error(t, err)

			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.op, perr.Op)
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestOpenMeteoClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewOpenMeteoClient(url, time.Second).Fetch(context.Background(), Request{StartDate: day, EndDate: day})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestCachedProvider(t *testing.T) {
	dir := t.TempDir()
	data := constantWeather(day, 3, 20, 50)
	data.Values[Temperature][1] = math.NaN()
	inner := &fakeProvider{hourly: data}

	cached := NewCachedProvider(inner, dir, logging.Nop())
	req := Request{Latitude: 1, Longitude: 2, StartDate: day, EndDate: day, Variables: []string{Temperature, RelativeHumidity}}

	first, err := cached.Fetch(context.Background(), req)
	require.NoError(t, err)
	second, err := cached.Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second fetch should be served from disk")
	assert.Equal(t, first.Times, second.Times)
	assert.Equal(t, 22.0, second.Values[Temperature][2])
	assert.True(t, math.IsNaN(second.Values[Temperature][1]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// a different range is a miss
	req.EndDate = day.Add(24 * time.Hour)
	_, err = cached.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProviderCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	inner := &fakeProvider{hourly: constantWeather(day, 2, 20, 50)}
	cached := NewCachedProvider(inner, dir, logging.Nop())
	req := Request{StartDate: day, EndDate: day}

	require.NoError(t, os.WriteFile(cached.path(req), []byte("not snappy"), 0o644))

	_, err := cached.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProviderPropagatesErrors(t *testing.T) {
	inner := &fakeProvider{err: &ProviderError{Op: "request", Err: errors.New("timeout")}}
	cached := NewCachedProvider(inner, filepath.Join(t.TempDir(), "cache"), logging.Nop())

	_, err := cached.Fetch(context.Background(), Request{StartDate: day, EndDate: day})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestEnricherJoinsAndFills(t *testing.T) {
	series := demandSeries(48)
	data := constantWeather(day, 72, 10, 60)
	// 3-hour gap is filled, 8-hour gap keeps its middle
	for i := 5; i < 8; i++ {
		data.Values[Temperature][i] = math.NaN()
	}
	for i := 20; i < 28; i++ {
		data.Values[Temperature][i] = math.NaN()
	}
	provider := &fakeProvider{hourly: data}

	e := NewEnricher(provider, Location{Latitude: 28.367, Longitude: 79.4305, Timezone: "Asia/Kolkata"}, 3, logging.Nop())
	fetch := e.Enrich(context.Background(), series)

	require.True(t, fetch.Available)
	require.NoError(t, fetch.Reason)
	assert.False(t, series.HasWeather(), "input series must not be modified")

	out := fetch.Series
	require.True(t, out.HasWeather())
	require.Len(t, out.Weather.Temp, 48)

	assert.Equal(t, 14.0, out.Weather.Temp[5])
	assert.Equal(t, 14.0, out.Weather.Temp[7])

	// forward fill covers 20..22, backward fill covers 25..27
	assert.Equal(t, 29.0, out.Weather.Temp[22])
	assert.True(t, analytics.IsNull(out.Weather.Temp[23]))
	assert.True(t, analytics.IsNull(out.Weather.Temp[24]))
	assert.Equal(t, 38.0, out.Weather.Temp[25])

	require.NotNil(t, out.HorizonWeather)
	require.Len(t, out.HorizonWeather.Temp, hourly.Horizon)
	assert.Equal(t, 58.0, out.HorizonWeather.Temp[0])
	assert.Equal(t, 60.0, out.HorizonWeather.RH[23])

	assert.Equal(t, "2020-03-01", provider.last.StartDate.Format(time.DateOnly))
	assert.Equal(t, "2020-03-03", provider.last.EndDate.Format(time.DateOnly))
}

func TestEnricherProviderFailure(t *testing.T) {
	series := demandSeries(30)
	provider := &fakeProvider{err: &ProviderError{Op: "contract", Err: errors.New("response has no hourly field")}}

	fetch := NewEnricher(provider, Location{}, 3, logging.Nop()).Enrich(context.Background(), series)

	assert.False(t, fetch.Available)
	assert.True(t, errors.Is(fetch.Reason, ErrUnavailable))
	assert.Same(t, series, fetch.Series)
	assert.False(t, fetch.Series.HasWeather())
}

func TestEnricherAllNullHistory(t *testing.T) {
	tests := []struct {
		name   string
		column string
	}{
		{"temperature", Temperature},
		{"relative humidity", RelativeHumidity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := demandSeries(48)
			data := constantWeather(day, 72, 10, 60)
			for i := range data.Values[tt.column] {
				data.Values[tt.column][i] = math.NaN()
			}

			fetch := NewEnricher(&fakeProvider{hourly: data}, Location{}, 3, logging.Nop()).
				Enrich(context.Background(), series)

			assert.False(t, fetch.Available)
			assert.ErrorIs(t, fetch.Reason, ErrUnavailable)
			assert.Contains(t, fetch.Reason.Error(), tt.column)
			assert.Same(t, series, fetch.Series)
		})
	}
}

func TestEnricherHorizonOnlyWeather(t *testing.T) {
	series := demandSeries(48)
	// the first value arrives beyond backward-fill reach of the history
	data := constantWeather(day, 72, 10, 60)
	for i := 0; i < 52; i++ {
		data.Values[Temperature][i] = math.NaN()
	}

	fetch := NewEnricher(&fakeProvider{hourly: data}, Location{}, 3, logging.Nop()).
		Enrich(context.Background(), series)

	assert.False(t, fetch.Available)
	assert.ErrorIs(t, fetch.Reason, ErrUnavailable)
}
