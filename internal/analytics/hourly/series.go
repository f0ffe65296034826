// Package hourly builds the continuous hourly demand series the forecasters
// consume, and carries the optional weather columns joined onto it.
package hourly

import (
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
)

// Horizon is the number of hours forecast past the origin.
const Horizon = 24

// Weather holds hourly weather columns aligned to some index.
// Missing values are analytics.Null().
type Weather struct {
	Temp []float64 // temperature_2m, °C
	RH   []float64 // relative_humidity_2m, %
}

func (w *Weather) clone() *Weather {
	if w == nil {
		return nil
	}
	return &Weather{
		Temp: append([]float64(nil), w.Temp...),
		RH:   append([]float64(nil), w.RH...),
	}
}

func (w *Weather) slice(from, to int) *Weather {
	if w == nil {
		return nil
	}
	return &Weather{
		Temp: append([]float64(nil), w.Temp[from:to]...),
		RH:   append([]float64(nil), w.RH[from:to]...),
	}
}

// Series is an hourly demand series.
//
// Times are strictly increasing and exactly one hour apart. They carry the
// meter's wall clock labelled as UTC. KWh, and the Weather columns when
// present, are parallel to Times. HorizonWeather, when present, holds
// Horizon values for Origin()+1h .. Origin()+Horizon.
//
// A Series is never modified after construction; every transformation
// returns a new one.
type Series struct {
	Times          []time.Time
	KWh            []float64
	Weather        *Weather
	HorizonWeather *Weather
}

// Len returns the number of hourly slots.
func (s *Series) Len() int {
	return len(s.Times)
}

// Start returns the first slot.
func (s *Series) Start() time.Time {
	return s.Times[0]
}

// Origin returns the forecast origin, the last slot of the series.
func (s *Series) Origin() time.Time {
	return s.Times[len(s.Times)-1]
}

// HasWeather reports whether weather columns were joined.
func (s *Series) HasWeather() bool {
	return s.Weather != nil
}

// Index returns the slot index of t, or false when t is not a slot.
func (s *Series) Index(t time.Time) (int, bool) {
	if len(s.Times) == 0 {
		return 0, false
	}
	d := t.Sub(s.Times[0])
	if d < 0 || d%time.Hour != 0 {
		return 0, false
	}
	i := int(d / time.Hour)
	if i >= len(s.Times) {
		return 0, false
	}
	return i, true
}

// ValueAt returns the demand at t, null when t is outside the series.
func (s *Series) ValueAt(t time.Time) float64 {
	if i, ok := s.Index(t); ok {
		return s.KWh[i]
	}
	return analytics.Null()
}

// HorizonTimes returns Origin()+1h .. Origin()+Horizon.
func (s *Series) HorizonTimes() []time.Time {
	times := make([]time.Time, Horizon)
	origin := s.Origin()
	for h := 1; h <= Horizon; h++ {
		times[h-1] = origin.Add(time.Duration(h) * time.Hour)
	}
	return times
}

// Clone returns a deep copy.
func (s *Series) Clone() *Series {
	return &Series{
		Times:          append([]time.Time(nil), s.Times...),
		KWh:            append([]float64(nil), s.KWh...),
		Weather:        s.Weather.clone(),
		HorizonWeather: s.HorizonWeather.clone(),
	}
}

// WithWeather returns a copy of s carrying the given weather columns.
func (s *Series) WithWeather(history, horizon *Weather) *Series {
	out := s.Clone()
	out.Weather = history.clone()
	out.HorizonWeather = horizon.clone()
	return out
}

// WithoutLast returns a copy of s with the last n slots removed, together
// with the removed demand values. Weather observed in the removed slots
// becomes the horizon weather of the shortened series.
func (s *Series) WithoutLast(n int) (*Series, []float64) {
	if n <= 0 || n >= s.Len() {
		return s.Clone(), nil
	}
	cut := s.Len() - n
	out := &Series{
		Times:   append([]time.Time(nil), s.Times[:cut]...),
		KWh:     append([]float64(nil), s.KWh[:cut]...),
		Weather: s.Weather.slice(0, cut),
	}
	if s.Weather != nil {
		end := cut + Horizon
		if end > s.Len() {
			end = s.Len()
		}
		horizon := &Weather{Temp: nullSlice(Horizon), RH: nullSlice(Horizon)}
		copy(horizon.Temp, s.Weather.Temp[cut:end])
		copy(horizon.RH, s.Weather.RH[cut:end])
		out.HorizonWeather = horizon
	}
	return out, append([]float64(nil), s.KWh[cut:]...)
}

// Tail returns the last n slots of s as a new series without weather.
func (s *Series) Tail(n int) *Series {
	if n > s.Len() {
		n = s.Len()
	}
	from := s.Len() - n
	return &Series{
		Times: append([]time.Time(nil), s.Times[from:]...),
		KWh:   append([]float64(nil), s.KWh[from:]...),
	}
}

func nullSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = analytics.Null()
	}
	return out
}
