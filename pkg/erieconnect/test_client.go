package erieconnect

import (
	"errors"
	"time"
)

// TestClient is a deterministic in-memory Client. Each Fail* switch makes
// the corresponding endpoint return an error, so callers can exercise
// partial-failure handling without a network.
type TestClient struct {
	FailLogin     bool
	FailInfo      bool
	FailDashboard bool
	FailSettings  bool
	FailFlow      bool
	FailFeatures  bool
	FailActions   bool

	// FlowDelay makes Flow block, to exercise slow-endpoint handling.
	FlowDelay time.Duration

	InfoPayload      DeviceInfo
	DashboardPayload Dashboard
	SettingsPayload  SettingsPayload
	FlowPayload      FlowReading
	FeaturesPayload  map[string]any

	HolidayMode            bool
	RegenerationsTriggered int
	FlowCalls              int
}

func NewTestClient() *TestClient {
	days := 12
	pct := 77.0
	return &TestClient{
		InfoPayload: DeviceInfo{
			Serial:           "SW-0042-TEST",
			Software:         " 2.7.1 ",
			TotalVolume:      "1500 L",
			LastRegeneration: "2026-08-20T04:30:00Z",
			NrRegenerations:  128,
			LastMaintenance:  "2025-02-01T10:00:00Z",
		},
		DashboardPayload: Dashboard{
			Warnings: []Warning{},
			Status: &Status{
				Title:         "In service",
				Code:          "in_service",
				Percentage:    &pct,
				Extra:         "1162 L",
				DaysRemaining: &days,
			},
			HolidayMode: false,
			SaltLevel:   42.0,
			Meta:        &DashboardMeta{RegenTime: "04:30"},
		},
		SettingsPayload: SettingsPayload{
			Settings: map[string]any{
				"install_hardness": 21.5,
				"regen_hour":       4,
			},
		},
		FlowPayload:     FlowReading{Flow: 3.2},
		FeaturesPayload: map[string]any{"holiday_mode": true},
	}
}

func (c *TestClient) Login() error {
	if c.FailLogin {
		return errors.New("test: login failed")
	}
	return nil
}

func (c *TestClient) SelectFirstActiveDevice() error {
	if c.FailLogin {
		return errors.New("test: no device")
	}
	return nil
}

func (c *TestClient) Auth() *Auth {
	return &Auth{
		AccessToken: "test-token",
		Client:      "test-client",
		UID:         "test@example.com",
		Expiry:      time.Now().Add(24 * time.Hour),
	}
}

func (c *TestClient) Device() *Device {
	return &Device{ID: 42, Name: "Test Softener"}
}

func (c *TestClient) Info() (*DeviceInfo, error) {
	if c.FailInfo {
		return nil, errors.New("test: info unavailable")
	}
	info := c.InfoPayload
	return &info, nil
}

func (c *TestClient) Dashboard() (*Dashboard, error) {
	if c.FailDashboard {
		return nil, errors.New("test: dashboard unavailable")
	}
	dash := c.DashboardPayload
	return &dash, nil
}

func (c *TestClient) Settings() (*SettingsPayload, error) {
	if c.FailSettings {
		return nil, errors.New("test: settings unavailable")
	}
	settings := c.SettingsPayload
	return &settings, nil
}

func (c *TestClient) Flow() (*FlowReading, error) {
	c.FlowCalls++
	if c.FlowDelay > 0 {
		time.Sleep(c.FlowDelay)
	}
	if c.FailFlow {
		return nil, errors.New("test: flow unavailable")
	}
	flow := c.FlowPayload
	return &flow, nil
}

func (c *TestClient) Features() (map[string]any, error) {
	if c.FailFeatures {
		return nil, errors.New("test: features unavailable")
	}
	return c.FeaturesPayload, nil
}

func (c *TestClient) TriggerRegeneration() error {
	if c.FailActions {
		return errors.New("test: regeneration rejected")
	}
	c.RegenerationsTriggered++
	return nil
}

func (c *TestClient) SetHolidayMode(enable bool) error {
	if c.FailActions {
		return errors.New("test: holiday mode rejected")
	}
	c.HolidayMode = enable
	c.DashboardPayload.HolidayMode = enable
	return nil
}

// ensure interface compliance
var _ Client = (*TestClient)(nil)
