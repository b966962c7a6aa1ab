package service

import (
	"strings"
	"time"

	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/port"
)

// FlowDeltaAccumulator turns the monotonic total-volume counter into a
// per-cycle consumption delta. It is owned by the slow poller, which calls
// Observe exactly once per new Snapshot; the published value can then be
// read any number of times without consuming the delta again.
type FlowDeltaAccumulator struct {
	previous *int64
}

func NewFlowDeltaAccumulator() *FlowDeltaAccumulator {
	return &FlowDeltaAccumulator{}
}

// Observe records a new total-volume reading and returns the consumption
// since the previous one. The first observation establishes the baseline
// and returns 0. A decreasing counter (meter reset) is clamped to 0; the
// baseline still moves to the new reading.
func (a *FlowDeltaAccumulator) Observe(totalVolume int64) int64 {
	if a.previous == nil {
		a.previous = &totalVolume
		return 0
	}
	delta := totalVolume - *a.previous
	a.previous = &totalVolume
	if delta < 0 {
		return 0
	}
	return delta
}

const (
	// Softeners of this line want a service every two years.
	DefaultServiceIntervalDays = 730
	// The sensor turns on this many days before the interval elapses.
	DefaultDueWindowDays = 30
)

// MaintenanceChecker evaluates whether a service visit is due based on the
// last maintenance timestamp the device reports.
type MaintenanceChecker struct {
	ServiceIntervalDays int
	DueWindowDays       int
}

func NewMaintenanceChecker() *MaintenanceChecker {
	return &MaintenanceChecker{
		ServiceIntervalDays: DefaultServiceIntervalDays,
		DueWindowDays:       DefaultDueWindowDays,
	}
}

func (c *MaintenanceChecker) Evaluate(lastMaintenance string, now time.Time) domain.MaintenanceState {
	if lastMaintenance == "" {
		return domain.MaintenanceState{}
	}
	maintained, err := parseVendorTimestamp(lastMaintenance)
	if err != nil {
		return domain.MaintenanceState{}
	}

	next := maintained.AddDate(0, 0, c.ServiceIntervalDays)
	daysUntil := int(next.Sub(now).Hours() / 24)

	// Due turns on once fewer than DueWindowDays full days remain, so a
	// softener serviced exactly interval-window days ago is not yet due.
	return domain.MaintenanceState{
		Known:       true,
		Due:         daysUntil < c.DueWindowDays,
		NextService: next,
		DaysUntil:   daysUntil,
	}
}

// LowSalt reports whether any warning mentions salt, which is how the
// vendor flags an empty brine tank.
func LowSalt(warnings []domain.Warning) bool {
	for _, w := range warnings {
		if strings.Contains(strings.ToLower(w.Description), "salt") {
			return true
		}
	}
	return false
}

// WarningsText renders the warning list as the multi-line text the warnings
// sensor publishes, "" when there are none.
func WarningsText(warnings []domain.Warning) string {
	var lines []string
	for _, w := range warnings {
		if w.Description != "" {
			lines = append(lines, w.Description)
		}
	}
	return strings.Join(lines, "\n")
}

func parseVendorTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// ensure interface compliance
var (
	_ port.FlowDeltaTracker  = (*FlowDeltaAccumulator)(nil)
	_ port.MaintenancePolicy = (*MaintenanceChecker)(nil)
)
