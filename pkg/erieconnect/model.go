package erieconnect

import (
	"time"
)

// Auth holds the devise-token-auth session captured from the sign-in
// response headers.
type Auth struct {
	AccessToken string
	Client      string
	UID         string
	Expiry      time.Time
}

func (a Auth) Expired(now time.Time) bool {
	if a.AccessToken == "" {
		return true
	}
	if a.Expiry.IsZero() {
		return false
	}
	return !now.Before(a.Expiry)
}

// Device is a registered water softener.
type Device struct {
	ID   int
	Name string
}

// API payloads. Fields the vendor returns with unstable types are kept as
// `any` and normalized downstream.

type DeviceInfo struct {
	Serial           string `json:"serial"`
	Software         string `json:"software"`
	TotalVolume      any    `json:"total_volume"`
	LastRegeneration string `json:"last_regeneration"`
	NrRegenerations  int    `json:"nr_regenerations"`
	LastMaintenance  string `json:"last_maintenance"`
}

type Warning struct {
	Description string `json:"description"`
	Code        any    `json:"code,omitempty"`
}

type Status struct {
	Title         string   `json:"title"`
	Code          any      `json:"code"`
	Percentage    *float64 `json:"percentage"`
	Extra         string   `json:"extra"`
	DaysRemaining *int     `json:"days_remaining"`
}

type DashboardMeta struct {
	RegenTime string `json:"regen_time"`
}

type Dashboard struct {
	Warnings    []Warning      `json:"warnings"`
	Status      *Status        `json:"status"`
	HolidayMode bool           `json:"holiday_mode"`
	SaltLevel   any            `json:"salt_level"`
	Meta        *DashboardMeta `json:"meta"`
}

// SettingsPayload wraps the device settings endpoint response. The actual
// settings live one level down under the "settings" key.
type SettingsPayload struct {
	Settings map[string]any `json:"settings"`
}

// FlowReading is the flow endpoint response. Depending on firmware, "flow"
// is either a bare number (L/min) or a map with a flow_rate/current_flow/
// value entry.
type FlowReading struct {
	Flow any `json:"flow"`
}
