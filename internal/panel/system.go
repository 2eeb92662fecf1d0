package panel

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"remnawave.dev/internal/client"
)

// SystemService exposes dashboard-level aggregates.
type SystemService struct {
	client *client.Client
}

func (s *SystemService) Stats(ctx context.Context) (SystemStats, error) {
	var stats SystemStats
	if err := s.client.Get(ctx, "/system/stats", nil, &stats); err != nil {
		return SystemStats{}, err
	}
	return stats, nil
}

func (s *SystemService) Health(ctx context.Context) (Health, error) {
	var health Health
	if err := s.client.Get(ctx, "/system/health", nil, &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

// Bandwidth aggregates fleet traffic between start and end; zero bounds mean
// the backend's default window.
func (s *SystemService) Bandwidth(ctx context.Context, start, end time.Time) (BandwidthStats, error) {
	query := url.Values{}
	if !start.IsZero() {
		query.Set("start", strconv.FormatInt(start.Unix(), 10))
	}
	if !end.IsZero() {
		query.Set("end", strconv.FormatInt(end.Unix(), 10))
	}
	var stats BandwidthStats
	if err := s.client.Get(ctx, "/system/bandwidth", query, &stats); err != nil {
		return BandwidthStats{}, err
	}
	return stats, nil
}
