package events

import (
	"time"

	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/service"
)

// SnapshotToUpdateEvents maps one slow-poll snapshot plus its derived values
// to sensor update events. Fields the vendor did not report are skipped, so
// the last published value stays on the broker. Warnings text is published
// unconditionally so a cleared warning clears the sensor.
func SnapshotToUpdateEvents(s *domain.Snapshot, flowDelta int64, maintenance domain.MaintenanceState) []any {
	if s == nil {
		return nil
	}
	evs := make([]any, 0, 20)

	if total := service.CoerceFloat(s.TotalVolume); total != nil {
		evs = append(evs, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_TOTAL_VOLUME),
			Value:                  *total,
			Decimals:               0,
		})
	}
	if s.LastRegeneration != "" {
		evs = append(evs, domain.TimestampSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_LAST_REGENERATION),
			Value:                  s.LastRegeneration,
		})
	}
	evs = append(evs, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: mixIn(SENSOR_ID_NR_REGENERATIONS),
		Value:                  float64(s.NrRegenerations),
		Decimals:               0,
	})
	if s.LastMaintenance != "" {
		evs = append(evs, domain.TimestampSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_LAST_MAINTENANCE),
			Value:                  s.LastMaintenance,
		})
	}

	evs = append(evs, domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: mixIn(SENSOR_ID_WARNINGS),
		Value:                  service.WarningsText(s.Warnings),
	})
	evs = append(evs, domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: mixIn(BINARY_SENSOR_ID_LOW_SALT),
		Value:                  service.LowSalt(s.Warnings),
	})

	evs = append(evs, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: mixIn(SENSOR_ID_FLOW_SINCE_LAST_POLL),
		Value:                  float64(flowDelta),
		Decimals:               0,
	})

	if s.Status.Title != "" {
		evs = append(evs, domain.TextSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_STATUS),
			Value:                  s.Status.Title,
		})
	}
	if capacity := service.ParseLeadingInt(s.Status.Extra); capacity != nil {
		evs = append(evs, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_CAPACITY_REMAINING),
			Value:                  float64(*capacity),
			Decimals:               0,
		})
	}
	if s.Status.DaysRemaining != nil {
		evs = append(evs, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_DAYS_REMAINING),
			Value:                  float64(*s.Status.DaysRemaining),
			Decimals:               0,
		})
	}

	if s.WaterHardness != nil {
		evs = append(evs, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_WATER_HARDNESS),
			Value:                  *s.WaterHardness,
			Decimals:               1,
		})
	}
	if s.SaltLevel != nil {
		evs = append(evs, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_SALT_LEVEL),
			Value:                  *s.SaltLevel,
			Decimals:               0,
		})
	}
	if s.FlowRate != nil {
		evs = append(evs, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_CURRENT_FLOW),
			Value:                  *s.FlowRate,
			Decimals:               2,
		})
	}

	evs = append(evs, domain.SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: mixIn(SWITCH_ID_HOLIDAY_MODE),
		Value:                  s.HolidayMode,
	})

	if maintenance.Known {
		evs = append(evs, domain.BinarySensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(BINARY_SENSOR_ID_SERVICE_DUE),
			Value:                  maintenance.Due,
		})
		evs = append(evs, domain.TimestampSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_NEXT_SERVICE),
			Value:                  maintenance.NextService.Format(time.RFC3339),
		})
		evs = append(evs, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_DAYS_UNTIL_SERVICE),
			Value:                  float64(maintenance.DaysUntil),
			Decimals:               0,
		})
	}

	return evs
}

// FlowToUpdateEvents maps one fast-poll reading. Only the instantaneous flow
// sensor is touched on the fast path.
func FlowToUpdateEvents(f *domain.FlowSnapshot) []any {
	if f == nil || f.FlowRate == nil {
		return nil
	}
	return []any{
		domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(SENSOR_ID_CURRENT_FLOW),
			Value:                  *f.FlowRate,
			Decimals:               2,
		},
	}
}

// HolidayModeSwitchUpdateEvent reflects a confirmed switch change before the
// next poll cycle lands.
func HolidayModeSwitchUpdateEvent(enabled bool) domain.SwitchSensorUpdateEvent {
	return domain.SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: mixIn(SWITCH_ID_HOLIDAY_MODE),
		Value:                  enabled,
	}
}

func mixIn(id string) domain.SensorUpdateEventMixIn {
	return domain.SensorUpdateEventMixIn{Id: id}
}
