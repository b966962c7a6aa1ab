package events

import (
	"testing"
	"time"

	"softwater2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotToUpdateEventsSkipsUnavailableFields(t *testing.T) {
	assert := assert.New(t)

	s := &domain.Snapshot{
		TotalVolume: "1500",
		Warnings:    []domain.Warning{},
		Settings:    map[string]any{},
		Features:    map[string]any{},
	}
	evs := SnapshotToUpdateEvents(s, 0, domain.MaintenanceState{})

	ids := eventIds(evs)
	assert.Contains(ids, SENSOR_ID_TOTAL_VOLUME)
	assert.Contains(ids, SENSOR_ID_WARNINGS)
	assert.Contains(ids, BINARY_SENSOR_ID_LOW_SALT)
	assert.Contains(ids, SENSOR_ID_FLOW_SINCE_LAST_POLL)
	assert.Contains(ids, SWITCH_ID_HOLIDAY_MODE)
	// nil-valued fields must not appear, so stale broker values persist
	assert.NotContains(ids, SENSOR_ID_WATER_HARDNESS)
	assert.NotContains(ids, SENSOR_ID_SALT_LEVEL)
	assert.NotContains(ids, SENSOR_ID_CURRENT_FLOW)
	assert.NotContains(ids, BINARY_SENSOR_ID_SERVICE_DUE)
	assert.NotContains(ids, SENSOR_ID_LAST_REGENERATION)
}

func TestSnapshotToUpdateEventsWarningsAlwaysPublished(t *testing.T) {
	assert := assert.New(t)

	s := &domain.Snapshot{TotalVolume: "0", Warnings: []domain.Warning{}}
	evs := SnapshotToUpdateEvents(s, 0, domain.MaintenanceState{})

	var warnings *domain.TextSensorUpdateEvent
	for _, e := range evs {
		if ev, ok := e.(domain.TextSensorUpdateEvent); ok && ev.SensorId() == SENSOR_ID_WARNINGS {
			warnings = &ev
		}
	}
	if assert.NotNil(warnings) {
		assert.Equal("", warnings.Value)
	}
}

func TestSnapshotToUpdateEventsMaintenance(t *testing.T) {
	assert := assert.New(t)

	hardness := 21.5
	salt := 40.0
	flow := 3.2
	days := 12
	s := &domain.Snapshot{
		TotalVolume:      "1500",
		LastRegeneration: "2026-08-01T03:00:00Z",
		Warnings:         []domain.Warning{{Description: "Salt level low", Code: "10"}},
		Status:           domain.Status{Title: "In service", Extra: "1162 L", DaysRemaining: &days},
		WaterHardness:    &hardness,
		SaltLevel:        &salt,
		FlowRate:         &flow,
		HolidayMode:      true,
	}
	next := time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)
	m := domain.MaintenanceState{Known: true, Due: true, NextService: next, DaysUntil: 25}

	evs := SnapshotToUpdateEvents(s, 50, m)
	ids := eventIds(evs)
	assert.Contains(ids, BINARY_SENSOR_ID_SERVICE_DUE)
	assert.Contains(ids, SENSOR_ID_NEXT_SERVICE)
	assert.Contains(ids, SENSOR_ID_DAYS_UNTIL_SERVICE)
	assert.Contains(ids, BINARY_SENSOR_ID_LOW_SALT)
	assert.Contains(ids, SENSOR_ID_CAPACITY_REMAINING)

	for _, e := range evs {
		switch ev := e.(type) {
		case domain.BinarySensorUpdateEvent:
			if ev.SensorId() == BINARY_SENSOR_ID_LOW_SALT {
				assert.True(ev.Value)
			}
		case domain.TimestampSensorUpdateEvent:
			if ev.SensorId() == SENSOR_ID_NEXT_SERVICE {
				assert.Equal("2026-09-24T00:00:00Z", ev.Value)
			}
		case domain.FloatSensorUpdateEvent:
			if ev.SensorId() == SENSOR_ID_FLOW_SINCE_LAST_POLL {
				assert.Equal(float64(50), ev.Value)
			}
			if ev.SensorId() == SENSOR_ID_CAPACITY_REMAINING {
				assert.Equal(float64(1162), ev.Value)
			}
		}
	}
}

func TestFlowToUpdateEvents(t *testing.T) {
	assert := assert.New(t)

	flow := 1.7
	evs := FlowToUpdateEvents(&domain.FlowSnapshot{FlowRate: &flow})
	if assert.Len(evs, 1) {
		ev := evs[0].(domain.FloatSensorUpdateEvent)
		assert.Equal(SENSOR_ID_CURRENT_FLOW, ev.SensorId())
		assert.Equal(1.7, ev.Value)
	}

	assert.Nil(FlowToUpdateEvents(&domain.FlowSnapshot{}))
	assert.Nil(FlowToUpdateEvents(nil))
}

func eventIds(evs []any) []string {
	ids := make([]string, 0, len(evs))
	for _, e := range evs {
		if ev, ok := e.(domain.SensorUpdateEvent); ok {
			ids = append(ids, ev.SensorId())
		}
	}
	return ids
}
