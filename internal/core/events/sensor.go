package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"softwater2mqtt/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE         = "bridge"
	SENSOR_ID_TOTAL_VOLUME         = "total_volume"
	SENSOR_ID_LAST_REGENERATION    = "last_regeneration"
	SENSOR_ID_NR_REGENERATIONS     = "nr_regenerations"
	SENSOR_ID_LAST_MAINTENANCE     = "last_maintenance"
	SENSOR_ID_WARNINGS             = "warnings"
	SENSOR_ID_FLOW_SINCE_LAST_POLL = "flow_since_last_poll"
	SENSOR_ID_STATUS               = "status"
	SENSOR_ID_CAPACITY_REMAINING   = "capacity_remaining"
	SENSOR_ID_DAYS_REMAINING       = "days_remaining"
	SENSOR_ID_WATER_HARDNESS       = "water_hardness"
	SENSOR_ID_SALT_LEVEL           = "salt_level"
	SENSOR_ID_CURRENT_FLOW         = "current_flow"
	SENSOR_ID_NEXT_SERVICE         = "next_service"
	SENSOR_ID_DAYS_UNTIL_SERVICE   = "days_until_service"
	BINARY_SENSOR_ID_LOW_SALT      = "low_salt"
	BINARY_SENSOR_ID_SERVICE_DUE   = "service_due"
	SWITCH_ID_HOLIDAY_MODE         = "holiday_mode"
	BUTTON_ID_FORCE_REGENERATION   = "force_regeneration"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_WATER           = "water"
	DEVICE_CLASS_TIMESTAMP       = "timestamp"
	DEVICE_CLASS_PROBLEM         = "problem"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"

	UNIT_LITERS          = "L"
	UNIT_LITERS_PER_MIN  = "L/min"
	UNIT_DAYS            = "d"
	UNIT_PERCENT         = "%"
	UNIT_GERMAN_HARDNESS = "°dH"
)

func BridgeDevice(baseTopic string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("softwater_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Softwater",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Softwater %s", md5HashShort(baseTopic)),
	}
}

func SoftenerDevice(name, serial, software string) domain.Device {
	if name == "" {
		name = "Water Softener"
	}
	return domain.Device{
		Id:           fmt.Sprintf("erie_softener_%s", md5HashShort(serial)),
		Name:         name,
		Manufacturer: "Pentair",
		Model:        "Water Softener",
		Version:      software,
		SerialNumber: serial,
	}
}

// SoftenerSensors is the discovery catalogue for the slow-poll and derived
// readings.
func SoftenerSensors(device domain.Device) []domain.GenericSensor {
	diag := true
	return []domain.GenericSensor{
		{
			Device:            device,
			Id:                SENSOR_ID_TOTAL_VOLUME,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Total volume",
			UniqueId:          uniqueId(device, SENSOR_ID_TOTAL_VOLUME),
			UnitOfMeasurement: UNIT_LITERS,
			StateClass:        STATE_CLASS_TOTAL_INCREASING,
			DeviceClass:       DEVICE_CLASS_WATER,
		},
		{
			Device:      device,
			Id:          SENSOR_ID_LAST_REGENERATION,
			SensorType:  SENSOR_TYPE_SENSOR,
			Name:        "Last regeneration",
			UniqueId:    uniqueId(device, SENSOR_ID_LAST_REGENERATION),
			DeviceClass: DEVICE_CLASS_TIMESTAMP,
		},
		{
			Device:     device,
			Id:         SENSOR_ID_NR_REGENERATIONS,
			SensorType: SENSOR_TYPE_SENSOR,
			Name:       "Regenerations",
			UniqueId:   uniqueId(device, SENSOR_ID_NR_REGENERATIONS),
			StateClass: STATE_CLASS_TOTAL_INCREASING,
		},
		{
			Device:           device,
			Id:               SENSOR_ID_LAST_MAINTENANCE,
			SensorType:       SENSOR_TYPE_SENSOR,
			Name:             "Last maintenance",
			UniqueId:         uniqueId(device, SENSOR_ID_LAST_MAINTENANCE),
			DeviceClass:      DEVICE_CLASS_TIMESTAMP,
			EntityCategory:   ENTITY_CLASS_DIAGNOSTIC,
			EnabledByDefault: &diag,
		},
		{
			Device:     device,
			Id:         SENSOR_ID_WARNINGS,
			SensorType: SENSOR_TYPE_SENSOR,
			Name:       "Warnings",
			UniqueId:   uniqueId(device, SENSOR_ID_WARNINGS),
			Icon:       "mdi:alert",
		},
		{
			Device:            device,
			Id:                SENSOR_ID_FLOW_SINCE_LAST_POLL,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Water used since last poll",
			UniqueId:          uniqueId(device, SENSOR_ID_FLOW_SINCE_LAST_POLL),
			UnitOfMeasurement: UNIT_LITERS,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_WATER,
		},
		{
			Device:     device,
			Id:         SENSOR_ID_STATUS,
			SensorType: SENSOR_TYPE_SENSOR,
			Name:       "Status",
			UniqueId:   uniqueId(device, SENSOR_ID_STATUS),
			Icon:       "mdi:water-check",
		},
		{
			Device:            device,
			Id:                SENSOR_ID_CAPACITY_REMAINING,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Capacity remaining",
			UniqueId:          uniqueId(device, SENSOR_ID_CAPACITY_REMAINING),
			UnitOfMeasurement: UNIT_LITERS,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_WATER,
		},
		{
			Device:            device,
			Id:                SENSOR_ID_DAYS_REMAINING,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Days until regeneration",
			UniqueId:          uniqueId(device, SENSOR_ID_DAYS_REMAINING),
			UnitOfMeasurement: UNIT_DAYS,
			StateClass:        STATE_CLASS_MEASUREMENT,
		},
		{
			Device:            device,
			Id:                SENSOR_ID_WATER_HARDNESS,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Water hardness",
			UniqueId:          uniqueId(device, SENSOR_ID_WATER_HARDNESS),
			UnitOfMeasurement: UNIT_GERMAN_HARDNESS,
			StateClass:        STATE_CLASS_MEASUREMENT,
			Icon:              "mdi:water-opacity",
		},
		{
			Device:            device,
			Id:                SENSOR_ID_SALT_LEVEL,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Salt level",
			UniqueId:          uniqueId(device, SENSOR_ID_SALT_LEVEL),
			UnitOfMeasurement: UNIT_PERCENT,
			StateClass:        STATE_CLASS_MEASUREMENT,
			Icon:              "mdi:shaker",
		},
		{
			Device:            device,
			Id:                SENSOR_ID_CURRENT_FLOW,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Current flow",
			UniqueId:          uniqueId(device, SENSOR_ID_CURRENT_FLOW),
			UnitOfMeasurement: UNIT_LITERS_PER_MIN,
			StateClass:        STATE_CLASS_MEASUREMENT,
			Icon:              "mdi:water-pump",
		},
		{
			Device:         device,
			Id:             SENSOR_ID_NEXT_SERVICE,
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           "Next service",
			UniqueId:       uniqueId(device, SENSOR_ID_NEXT_SERVICE),
			DeviceClass:    DEVICE_CLASS_TIMESTAMP,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		},
		{
			Device:            device,
			Id:                SENSOR_ID_DAYS_UNTIL_SERVICE,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Days until service",
			UniqueId:          uniqueId(device, SENSOR_ID_DAYS_UNTIL_SERVICE),
			UnitOfMeasurement: UNIT_DAYS,
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		},
		{
			Device:      device,
			Id:          BINARY_SENSOR_ID_LOW_SALT,
			SensorType:  SENSOR_TYPE_BINARY,
			Name:        "Low salt",
			UniqueId:    uniqueId(device, BINARY_SENSOR_ID_LOW_SALT),
			DeviceClass: DEVICE_CLASS_PROBLEM,
		},
		{
			Device:      device,
			Id:          BINARY_SENSOR_ID_SERVICE_DUE,
			SensorType:  SENSOR_TYPE_BINARY,
			Name:        "Service due",
			UniqueId:    uniqueId(device, BINARY_SENSOR_ID_SERVICE_DUE),
			DeviceClass: DEVICE_CLASS_PROBLEM,
		},
	}
}

func SoftenerSwitches(device domain.Device) []domain.GenericSwitch {
	return []domain.GenericSwitch{
		{
			Device:   device,
			Id:       SWITCH_ID_HOLIDAY_MODE,
			Name:     "Holiday mode",
			UniqueId: uniqueId(device, SWITCH_ID_HOLIDAY_MODE),
			Icon:     "mdi:airplane",
		},
	}
}

func SoftenerButtons(device domain.Device) []domain.GenericButton {
	return []domain.GenericButton{
		{
			Device:   device,
			Id:       BUTTON_ID_FORCE_REGENERATION,
			Name:     "Force regeneration",
			UniqueId: uniqueId(device, BUTTON_ID_FORCE_REGENERATION),
			Icon:     "mdi:refresh-circle",
		},
	}
}

func BridgeSensors(device domain.Device) []domain.GenericSensor {
	return []domain.GenericSensor{
		{
			Device:      device,
			Id:          SENSOR_ID_BRIDGE_STATE,
			SensorType:  SENSOR_TYPE_BINARY,
			Name:        "Bridge state",
			UniqueId:    uniqueId(device, SENSOR_ID_BRIDGE_STATE),
			DeviceClass: DEVICE_CLASS_CONNECTIVITY,
		},
	}
}

func uniqueId(device domain.Device, sensorId string) string {
	return fmt.Sprintf("%s_%s", device.Id, sensorId)
}

func md5HashShort(value string) string {
	hash := md5.Sum([]byte(value))
	return hex.EncodeToString(hash[:])[:8]
}
