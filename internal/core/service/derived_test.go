package service

import (
	"testing"
	"time"

	"softwater2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestFlowDeltaSequence(t *testing.T) {

	assert := assert.New(t)

	acc := NewFlowDeltaAccumulator()

	readings := []int64{1000, 1050, 1040, 1090}
	expected := []int64{0, 50, 0, 50}

	for i, reading := range readings {
		assert.Equal(expected[i], acc.Observe(reading), "delta for reading %d", reading)
	}
}

func TestFlowDeltaResetMovesBaseline(t *testing.T) {

	assert := assert.New(t)

	acc := NewFlowDeltaAccumulator()
	acc.Observe(5000)

	// meter reset: clamped to zero, baseline follows the new counter
	assert.Equal(int64(0), acc.Observe(10))
	assert.Equal(int64(40), acc.Observe(50))
}

func TestMaintenanceCheckerThreshold(t *testing.T) {

	assert := assert.New(t)

	checker := NewMaintenanceChecker()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	notYet := checker.Evaluate(now.AddDate(0, 0, -700).Format(time.RFC3339), now)
	assert.True(notYet.Known)
	assert.False(notYet.Due, "700 days since service is not yet due")
	assert.Equal(30, notYet.DaysUntil)

	due := checker.Evaluate(now.AddDate(0, 0, -705).Format(time.RFC3339), now)
	assert.True(due.Known)
	assert.True(due.Due, "705 days since service is due")
	assert.Equal(25, due.DaysUntil)

	overdue := checker.Evaluate(now.AddDate(0, 0, -800).Format(time.RFC3339), now)
	assert.True(overdue.Due)
	assert.True(overdue.DaysUntil < 0)
}

func TestMaintenanceCheckerFailsClosed(t *testing.T) {

	assert := assert.New(t)

	checker := NewMaintenanceChecker()
	now := time.Now()

	missing := checker.Evaluate("", now)
	assert.False(missing.Known)
	assert.False(missing.Due, "missing date is never due")

	garbage := checker.Evaluate("last tuesday", now)
	assert.False(garbage.Known)
	assert.False(garbage.Due, "unparseable date is never due")
}

func TestLowSalt(t *testing.T) {

	assert := assert.New(t)

	assert.True(LowSalt([]domain.Warning{{Description: "Low Salt Level"}}))
	assert.True(LowSalt([]domain.Warning{{Description: "CHECK SALT"}}), "match is case-insensitive")
	assert.False(LowSalt([]domain.Warning{{Description: "Filter dirty"}}))
	assert.False(LowSalt(nil))
}

func TestWarningsText(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("", WarningsText(nil))
	assert.Equal("Low Salt Level\nFilter dirty", WarningsText([]domain.Warning{
		{Description: "Low Salt Level"},
		{Description: "Filter dirty"},
		{Description: ""},
	}))
}
