package port

import (
	"time"

	"softwater2mqtt/internal/core/domain"
)

// FlowDeltaTracker consumes successive total-volume readings and yields the
// water used between them. Implementations carry the baseline across calls.
type FlowDeltaTracker interface {
	Observe(totalVolume int64) int64
}

// MaintenancePolicy decides whether the softener is due for service.
type MaintenancePolicy interface {
	Evaluate(lastMaintenance string, now time.Time) domain.MaintenanceState
}
