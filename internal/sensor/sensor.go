// Package sensor polls a bedside monitor and appends its readings to the
// record as sensor-sourced vitals.
package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"medflow-backend/config"
	"medflow-backend/internal/model"
	"medflow-backend/internal/parse"
)

// Appender receives parsed readings. *shell.Shell satisfies it.
type Appender interface {
	AppendVital(ctx context.Context, v model.VitalReading) model.VitalReading
}

// Service orchestrates polling of the bedside monitor.
type Service struct {
	cfg    config.SensorConfig
	sink   Appender
	client *http.Client
	logger *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// NewService creates and initializes a new sensor service.
func NewService(cfg config.SensorConfig, sink Appender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sensor")

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warn("invalid proxy URL, polling without proxy", "proxy", cfg.HTTPProxy, "error", err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:  cfg,
		sink: sink,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		logger: logger,
	}
}

// Run polls in a loop until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled || s.cfg.URL == "" {
		s.logger.Info("sensor feed is disabled, not starting")
		return
	}
	s.logger.Info("starting sensor feed", "url", s.cfg.URL, "interval", s.cfg.Interval)

	s.pollAndLog(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sensor feed shutting down")
			return
		case <-timer.C:
			s.pollAndLog(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) pollAndLog(ctx context.Context) {
	n, err := s.PollOnce(ctx)
	if err != nil {
		s.logger.Error("sensor poll failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("sensor readings appended", "count", n)
	}
}

// PollOnce fetches the feed and appends every reading strictly newer than
// the last one ingested, oldest first. It returns the number appended.
// On fetch failure nothing is appended.
func (s *Service) PollOnce(ctx context.Context) (int, error) {
	resp, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}

	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return 0, fmt.Errorf("failed to load timezone %q: %w", s.cfg.Timezone, err)
	}

	readings := make([]model.VitalReading, 0, len(resp.Readings))
	for _, r := range resp.Readings {
		ts, err := parse.ParseTimestamp(r.Timestamp, loc)
		if err != nil {
			s.logger.Warn("skipping sensor reading", "timestamp", r.Timestamp, "error", err)
			continue
		}
		readings = append(readings, model.VitalReading{
			Timestamp:     ts,
			HeartRate:     r.HeartRate,
			SpO2:          r.SpO2,
			BloodPressure: r.BloodPressure,
			Source:        model.SourceSensor,
		})
	}
	slices.SortStableFunc(readings, func(a, b model.VitalReading) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	appended := 0
	for _, v := range readings {
		if !v.Timestamp.After(s.last) {
			continue
		}
		s.sink.AppendVital(ctx, v)
		s.last = v.Timestamp
		appended++
	}
	return appended, nil
}

func (s *Service) fetch(ctx context.Context) (*FeedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range s.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var feed FeedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed response: %w", err)
	}
	return &feed, nil
}
