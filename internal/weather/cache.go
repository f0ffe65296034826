package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/gridcast/gridcast/internal/logging"
)

// CachedProvider serves repeated requests from snappy-compressed files in
// dir, so a re-run against the same date range sees the same weather.
type CachedProvider struct {
	next   Provider
	dir    string
	logger *logging.Logger
}

// NewCachedProvider wraps next with an on-disk response cache.
func NewCachedProvider(next Provider, dir string, logger *logging.Logger) *CachedProvider {
	return &CachedProvider{next: next, dir: dir, logger: logger}
}

type cacheEntry struct {
	Times  []string              `json:"times"`
	Values map[string][]*float64 `json:"values"`
}

// Fetch returns the cached response for req, fetching and storing it on a miss.
// A corrupt or unreadable cache file counts as a miss.
func (c *CachedProvider) Fetch(ctx context.Context, req Request) (*Hourly, error) {
	path := c.path(req)

	if data, err := os.ReadFile(path); err == nil {
		hourly, err := decodeCacheEntry(data)
		if err == nil {
			c.logger.Debug("Weather cache hit", "path", path)
			return hourly, nil
		}
		c.logger.Warn("Ignoring unreadable weather cache entry", "path", path, "error", err)
	}

	hourly, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.store(path, hourly); err != nil {
		c.logger.Warn("Failed to cache weather response", "path", path, "error", err)
	}
	return hourly, nil
}

// path derives a stable file name from the request.
func (c *CachedProvider) path(req Request) string {
	key := fmt.Sprintf("%.4f|%.4f|%s|%s|%s|%s",
		req.Latitude, req.Longitude,
		req.StartDate.Format(time.DateOnly), req.EndDate.Format(time.DateOnly),
		strings.Join(req.Variables, ","), req.Timezone)
	return filepath.Join(c.dir, uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()+".json.sz")
}

func (c *CachedProvider) store(path string, hourly *Hourly) error {
	data, err := encodeCacheEntry(hourly)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encodeCacheEntry(h *Hourly) ([]byte, error) {
	entry := cacheEntry{
		Times:  make([]string, len(h.Times)),
		Values: make(map[string][]*float64, len(h.Values)),
	}
	for i, t := range h.Times {
		entry.Times[i] = t.Format(openMeteoTimeLayout)
	}
	for name, column := range h.Values {
		out := make([]*float64, len(column))
		for i := range column {
			if !math.IsNaN(column[i]) {
				v := column[i]
				out[i] = &v
			}
		}
		entry.Values[name] = out
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func decodeCacheEntry(data []byte) (*Hourly, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	if len(entry.Times) == 0 {
		return nil, errors.New("empty cache entry")
	}

	h := &Hourly{
		Times:  make([]time.Time, len(entry.Times)),
		Values: make(map[string][]float64, len(entry.Values)),
	}
	for i, s := range entry.Times {
		t, err := time.Parse(openMeteoTimeLayout, s)
		if err != nil {
			return nil, err
		}
		h.Times[i] = t
	}
	for name, column := range entry.Values {
		values := make([]float64, len(column))
		for i, v := range column {
			if v == nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = *v
		}
		h.Values[name] = values
	}
	return h, nil
}
