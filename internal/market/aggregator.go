package market

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Aggregator periodically snapshots the ledger, logs the aggregate and
// publishes it on the event sink for connected dashboards.
type Aggregator struct {
	ledger *Ledger
	events EventSink
	cron   *cron.Cron
	logger *zap.Logger
}

// NewAggregator creates an aggregator; Start schedules it
func NewAggregator(ledger *Ledger, events EventSink, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		ledger: ledger,
		events: events,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start schedules snapshots on the given cron spec (e.g. "@every 1m")
func (a *Aggregator) Start(schedule string) error {
	if _, err := a.cron.AddFunc(schedule, a.snapshot); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", schedule, err)
	}
	a.cron.Start()
	a.logger.Info("market aggregator started", zap.String("schedule", schedule))
	return nil
}

// Stop stops the schedule and waits for a running snapshot to finish
func (a *Aggregator) Stop() {
	<-a.cron.Stop().Done()
}

func (a *Aggregator) snapshot() {
	snap := a.ledger.Snapshot()

	a.logger.Info("market snapshot",
		zap.Int("active", snap.Active),
		zap.Int("sold", snap.Sold),
		zap.Int("cancelled", snap.Cancelled),
		zap.Float64("gross_volume", snap.GrossVolume),
		zap.Float64("fees_collected", snap.FeesCollected))

	if a.events != nil {
		a.events.Publish(EventMarketSnapshot, map[string]interface{}{
			"active":        snap.Active,
			"sold":          snap.Sold,
			"cancelled":     snap.Cancelled,
			"grossVolume":   snap.GrossVolume,
			"feesCollected": snap.FeesCollected,
			"generatedAt":   snap.GeneratedAt,
		})
	}
}
