package service

import (
	"testing"

	"softwater2mqtt/pkg/erieconnect"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTotalVolume(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("1500", NormalizeTotalVolume("1500 L"), "unit suffix stripped")
	assert.Equal("980", NormalizeTotalVolume("980"), "bare string kept")
	assert.Equal("1500", NormalizeTotalVolume(float64(1500)), "numeric stringified")
	assert.Equal("1500.5", NormalizeTotalVolume(1500.5), "fractional numeric stringified")
	assert.Equal("0", NormalizeTotalVolume(nil), "missing value reads as 0")
}

func TestBuildSnapshotDefaults(t *testing.T) {

	assert := assert.New(t)

	snapshot := BuildSnapshot(&erieconnect.DeviceInfo{
		Serial:      "S1",
		Software:    "  1.2.3\n",
		TotalVolume: "1500 L",
	}, nil, nil, nil, nil)

	assert.Equal("1.2.3", snapshot.Software, "software trimmed")
	assert.Equal("1500", snapshot.TotalVolume)
	assert.Empty(snapshot.Warnings, "warnings default to empty list")
	assert.False(snapshot.HolidayMode, "holiday mode defaults to false")
	assert.Empty(snapshot.Settings, "settings default to empty map")
	assert.Equal("", snapshot.Status.Title, "status defaults to empty")
	assert.Empty(snapshot.Features, "features default to empty map")
	if assert.NotNil(snapshot.FlowRate, "flow defaults to 0") {
		assert.Equal(0.0, *snapshot.FlowRate)
	}
}

func TestBuildSnapshotNestedFields(t *testing.T) {

	assert := assert.New(t)

	pct := 63.0
	days := 9
	snapshot := BuildSnapshot(
		&erieconnect.DeviceInfo{TotalVolume: "1500 L"},
		&erieconnect.Dashboard{
			Warnings: []erieconnect.Warning{{Description: "Low Salt Level", Code: 12.0}},
			Status: &erieconnect.Status{
				Title:         "In service",
				Code:          "in_service",
				Percentage:    &pct,
				Extra:         "1162 L",
				DaysRemaining: &days,
			},
			HolidayMode: true,
			SaltLevel:   "35",
			Meta:        &erieconnect.DashboardMeta{RegenTime: "02:00"},
		},
		&erieconnect.SettingsPayload{
			Settings: map[string]any{"install_hardness": 21.5},
		},
		&erieconnect.FlowReading{Flow: map[string]any{"flow_rate": 4.5}},
		map[string]any{"holiday_mode": true},
	)

	assert.Equal("12", snapshot.Warnings[0].Code, "numeric warning code coerced")
	assert.True(snapshot.HolidayMode)
	assert.Equal("02:00", snapshot.RegenTime, "regen_time read from dashboard meta")
	if assert.NotNil(snapshot.WaterHardness, "hardness read from nested settings") {
		assert.Equal(21.5, *snapshot.WaterHardness)
	}
	if assert.NotNil(snapshot.SaltLevel) {
		assert.Equal(35.0, *snapshot.SaltLevel)
	}
	if assert.NotNil(snapshot.FlowRate, "flow extracted from map payload") {
		assert.Equal(4.5, *snapshot.FlowRate)
	}
	assert.Equal(9, *snapshot.Status.DaysRemaining)
	assert.NotEmpty(snapshot.Features)
}

func TestNormalizeFlowRate(t *testing.T) {

	assert := assert.New(t)

	if v := NormalizeFlowRate(2.5); assert.NotNil(v) {
		assert.Equal(2.5, *v)
	}
	if v := NormalizeFlowRate(nil); assert.NotNil(v, "absent payload reads as 0") {
		assert.Equal(0.0, *v)
	}
	if v := NormalizeFlowRate(map[string]any{"current_flow": 1.25}); assert.NotNil(v) {
		assert.Equal(1.25, *v)
	}
	assert.Nil(NormalizeFlowRate(map[string]any{"bogus": true}), "unusable map reads as unavailable")
}

func TestParseLeadingInt(t *testing.T) {

	assert := assert.New(t)

	if v := ParseLeadingInt("1162 L"); assert.NotNil(v) {
		assert.Equal(1162, *v)
	}
	assert.Nil(ParseLeadingInt(""), "empty input")
	assert.Nil(ParseLeadingInt("n/a"), "malformed input")
	assert.Nil(ParseLeadingInt("12.5 L"), "fractional token is not a leading int")
}
