package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/pkg/erieconnect"
)

// BuildSnapshot normalizes the payloads of one slow-poll cycle into a
// Snapshot. Absent parent payloads degrade to empty values; only the caller
// decides whether a missing payload aborts the cycle.
func BuildSnapshot(info *erieconnect.DeviceInfo, dashboard *erieconnect.Dashboard,
	settings *erieconnect.SettingsPayload, flow *erieconnect.FlowReading,
	features map[string]any) *domain.Snapshot {

	snapshot := &domain.Snapshot{
		Warnings: []domain.Warning{},
		Settings: map[string]any{},
		Features: map[string]any{},
	}

	if info != nil {
		snapshot.LastRegeneration = info.LastRegeneration
		snapshot.NrRegenerations = info.NrRegenerations
		snapshot.LastMaintenance = info.LastMaintenance
		snapshot.Serial = info.Serial
		snapshot.Software = strings.TrimSpace(info.Software)
		snapshot.TotalVolume = NormalizeTotalVolume(info.TotalVolume)
	} else {
		snapshot.TotalVolume = NormalizeTotalVolume(nil)
	}

	if dashboard != nil {
		for _, w := range dashboard.Warnings {
			snapshot.Warnings = append(snapshot.Warnings, domain.Warning{
				Description: w.Description,
				Code:        CoerceString(w.Code),
			})
		}
		if dashboard.Status != nil {
			snapshot.Status = domain.Status{
				Title:         dashboard.Status.Title,
				Code:          CoerceString(dashboard.Status.Code),
				Percentage:    dashboard.Status.Percentage,
				Extra:         dashboard.Status.Extra,
				DaysRemaining: dashboard.Status.DaysRemaining,
			}
		}
		snapshot.HolidayMode = dashboard.HolidayMode
		snapshot.SaltLevel = CoerceFloat(dashboard.SaltLevel)
		if dashboard.Meta != nil {
			snapshot.RegenTime = dashboard.Meta.RegenTime
		}
	}

	if settings != nil && settings.Settings != nil {
		snapshot.Settings = settings.Settings
		snapshot.WaterHardness = CoerceFloat(settings.Settings["install_hardness"])
	}

	if flow != nil {
		snapshot.FlowRate = NormalizeFlowRate(flow.Flow)
	} else {
		zero := 0.0
		snapshot.FlowRate = &zero
	}

	if features != nil {
		snapshot.Features = features
	}

	return snapshot
}

// BuildFlowSnapshot normalizes one fast-poll cycle.
func BuildFlowSnapshot(flow *erieconnect.FlowReading) *domain.FlowSnapshot {
	if flow == nil {
		zero := 0.0
		return &domain.FlowSnapshot{FlowRate: &zero}
	}
	return &domain.FlowSnapshot{FlowRate: NormalizeFlowRate(flow.Flow)}
}

// NormalizeTotalVolume strips a textual unit suffix ("1500 L" -> "1500") or
// stringifies a numeric raw value. A missing value reads as "0".
func NormalizeTotalVolume(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "0"
	case string:
		fields := strings.Fields(v)
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// NormalizeFlowRate extracts the instantaneous flow from a value that is
// either a bare number or a map with a flow_rate/current_flow/value entry.
// A missing payload reads as 0; a present but unusable one reads as nil.
func NormalizeFlowRate(raw any) *float64 {
	if raw == nil {
		zero := 0.0
		return &zero
	}
	if m, ok := raw.(map[string]any); ok {
		for _, key := range []string{"flow_rate", "current_flow", "value"} {
			if v, present := m[key]; present {
				if f := CoerceFloat(v); f != nil {
					return f
				}
			}
		}
		return nil
	}
	return CoerceFloat(raw)
}

// CoerceFloat converts any JSON-shaped numeric value to a float, nil when
// the value cannot be read as a number.
func CoerceFloat(raw any) *float64 {
	switch v := raw.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &f
		}
	}
	return nil
}

// CoerceString renders scalar payload values as strings, "" for nil.
func CoerceString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseLeadingInt parses the integer token before the first whitespace of a
// "N unit" string ("1162 L" -> 1162). Nil on empty or malformed input.
func ParseLeadingInt(s string) *int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil
	}
	return &n
}
