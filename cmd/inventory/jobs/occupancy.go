package jobs

import (
	"context"
	"log/slog"
	"time"

	"setrag/internal/metrics"
	"setrag/internal/models"
)

// OccupancySource reports effective seat counts per trip
type OccupancySource interface {
	Occupancy(ctx context.Context) ([]models.TripOccupancy, error)
}

// OccupancyJob exports per-trip seat counts as gauges. It only reads:
// expired holds are counted as available, never rewritten.
type OccupancyJob struct {
	source   OccupancySource
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewOccupancyJob(source OccupancySource, interval time.Duration) *OccupancyJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &OccupancyJob{
		source:   source,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start reports once immediately, then on every tick
func (j *OccupancyJob) Start(ctx context.Context) {
	slog.Info("Starting occupancy job", "interval", j.interval)

	j.ticker = time.NewTicker(j.interval)

	go j.report(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				j.report(ctx)
			case <-j.done:
				slog.Info("Occupancy job stopped")
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (j *OccupancyJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *OccupancyJob) report(ctx context.Context) {
	trips, err := j.source.Occupancy(ctx)
	if err != nil {
		slog.Error("Failed to compute seat occupancy", "error", err)
		return
	}

	for _, t := range trips {
		metrics.SetOccupancy(t.TripID, t.Available, t.Held, t.Sold)
	}
	slog.Debug("Seat occupancy reported", "trips", len(trips))
}
