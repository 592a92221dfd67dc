package hub

import (
	"context"

	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"go.uber.org/zap"
)

// StatsMessage is the message type carrying dashboard counters.
const StatsMessage = "stats"

// StatsNotifier recomputes the dashboard counters after a change and
// broadcasts them.
type StatsNotifier struct {
	hub    *Hub
	stats  service.StatsService
	logger *zap.Logger
}

// NewStatsNotifier creates a notifier broadcasting through h.
func NewStatsNotifier(h *Hub, stats service.StatsService, logger *zap.Logger) *StatsNotifier {
	return &StatsNotifier{hub: h, stats: stats, logger: logger}
}

// Notify is best effort: failures are logged and never reach the caller.
func (n *StatsNotifier) Notify(ctx context.Context) {
	stats, err := n.stats.Get(ctx)
	if err != nil {
		n.logger.Warn("failed to compute stats for broadcast", zap.Error(err))
		return
	}
	if err := n.hub.Broadcast(StatsMessage, stats); err != nil {
		n.logger.Warn("failed to broadcast stats", zap.Error(err))
	}
}
