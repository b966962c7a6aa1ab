package erieconnect

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://connectmysoftenerapi.pentair.eu"
	apiPath        = "api/erieapp/v1"

	// The vendor API only answers to its own mobile app identity.
	appUserAgent = "App/3.5.1 (iPhone; iOS 15.1.1; Scale/2.0.0)"
	appVersion   = "3.5.1"

	headerAccessToken = "Access-Token"
	headerClient      = "Client"
	headerUID         = "Uid"
	headerExpiry      = "Expiry"
)

var (
	ErrNotAuthenticated = errors.New("erieconnect: not authenticated")
	ErrNoDevice         = errors.New("erieconnect: no active device found")
)

// Client is the remote surface of the Erie Connect cloud consumed by this
// bridge. Read calls return the decoded endpoint payload. Action calls hit
// endpoints the vendor mobile app uses but does not document; they are kept
// as explicit named methods instead of leaking URLs into callers.
type Client interface {
	Login() error
	SelectFirstActiveDevice() error
	Auth() *Auth
	Device() *Device

	Info() (*DeviceInfo, error)
	Dashboard() (*Dashboard, error)
	Settings() (*SettingsPayload, error)
	Flow() (*FlowReading, error)
	Features() (map[string]any, error)

	// Unofficial endpoints.
	TriggerRegeneration() error
	SetHolidayMode(enable bool) error
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	email      string
	password   string
	auth       *Auth
	device     *Device
	logger     *zap.Logger
}

// CreateClient builds a client that will sign in on first use.
func CreateClient(email, password string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		email:      email,
		password:   password,
		logger:     logger.With(zap.String("component", "erieconnect")),
	}
}

// CreateClientWithAuth resumes a previously stored session. The client
// re-signs-in transparently when the stored token is expired. A zero device
// leaves selection to SelectFirstActiveDevice.
func CreateClientWithAuth(email, password string, auth Auth, device Device, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	c := CreateClient(email, password, timeout, logger)
	c.auth = &auth
	if device.ID != 0 {
		c.device = &device
	}
	return c
}

// WithBaseURL overrides the API host, used by tests.
func (c *HTTPClient) WithBaseURL(baseURL string) *HTTPClient {
	c.baseURL = baseURL
	return c
}

// WithDevice pins a softener, skipping first-active selection. A zero device
// is a no-op.
func (c *HTTPClient) WithDevice(device Device) *HTTPClient {
	if device.ID != 0 {
		c.device = &device
	}
	return c
}

func (c *HTTPClient) Auth() *Auth {
	return c.auth
}

func (c *HTTPClient) Device() *Device {
	return c.device
}

func (c *HTTPClient) Login() error {
	body, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.url("auth/sign_in"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setAppHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erieconnect: sign in: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("erieconnect: sign in failed with status %d", resp.StatusCode)
	}

	auth := Auth{
		AccessToken: resp.Header.Get(headerAccessToken),
		Client:      resp.Header.Get(headerClient),
		UID:         resp.Header.Get(headerUID),
	}
	if auth.AccessToken == "" || auth.Client == "" {
		return errors.New("erieconnect: sign in response missing token headers")
	}
	if expiry := resp.Header.Get(headerExpiry); expiry != "" {
		if unix, err := strconv.ParseInt(expiry, 10, 64); err == nil {
			auth.Expiry = time.Unix(unix, 0)
		}
	}
	c.auth = &auth
	c.logger.Debug("signed in", zap.String("uid", auth.UID), zap.Time("expiry", auth.Expiry))
	return nil
}

func (c *HTTPClient) SelectFirstActiveDevice() error {
	if err := c.ensureAuth(); err != nil {
		return err
	}

	var devices []struct {
		ID      int            `json:"id"`
		Name    string         `json:"name"`
		Profile map[string]any `json:"profile"`
	}
	if err := c.getJSON("water_softeners", &devices); err != nil {
		return err
	}

	for _, d := range devices {
		if len(d.Profile) > 0 {
			c.device = &Device{ID: d.ID, Name: d.Name}
			c.logger.Debug("selected device", zap.Int("id", d.ID), zap.String("name", d.Name))
			return nil
		}
	}
	if len(devices) > 0 {
		c.device = &Device{ID: devices[0].ID, Name: devices[0].Name}
		return nil
	}
	return ErrNoDevice
}

func (c *HTTPClient) Info() (*DeviceInfo, error) {
	var out DeviceInfo
	if err := c.getDeviceJSON("info", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Dashboard() (*Dashboard, error) {
	var out Dashboard
	if err := c.getDeviceJSON("dashboard", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Settings() (*SettingsPayload, error) {
	var out SettingsPayload
	if err := c.getDeviceJSON("settings", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Flow() (*FlowReading, error) {
	var out FlowReading
	if err := c.getDeviceJSON("flow", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Features() (map[string]any, error) {
	var out map[string]any
	if err := c.getDeviceJSON("features", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) TriggerRegeneration() error {
	return c.postDeviceJSON("regeneration", nil)
}

func (c *HTTPClient) SetHolidayMode(enable bool) error {
	return c.postDeviceJSON("vacation", map[string]bool{"vacation_mode": enable})
}

func (c *HTTPClient) ensureAuth() error {
	if c.auth == nil || c.auth.Expired(time.Now()) {
		c.logger.Debug("session missing or expired, signing in")
		return c.Login()
	}
	return nil
}

func (c *HTTPClient) ensureSession() error {
	if err := c.ensureAuth(); err != nil {
		return err
	}
	if c.device == nil {
		return c.SelectFirstActiveDevice()
	}
	return nil
}

func (c *HTTPClient) getDeviceJSON(endpoint string, out any) error {
	if err := c.ensureSession(); err != nil {
		return err
	}
	return c.getJSON(fmt.Sprintf("water_softeners/%d/%s", c.device.ID, endpoint), out)
}

func (c *HTTPClient) postDeviceJSON(endpoint string, payload any) error {
	if err := c.ensureSession(); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.url(fmt.Sprintf("water_softeners/%d/%s", c.device.ID, endpoint)), body)
	if err != nil {
		return err
	}
	c.setAppHeaders(req)
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erieconnect: POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("erieconnect: POST %s returned status %d", endpoint, resp.StatusCode)
	}
}

func (c *HTTPClient) getJSON(path string, out any) error {
	if c.auth == nil {
		return ErrNotAuthenticated
	}

	req, err := http.NewRequest(http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	c.setAppHeaders(req)
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erieconnect: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("erieconnect: GET %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) url(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, apiPath, path)
}

func (c *HTTPClient) setAppHeaders(req *http.Request) {
	req.Header.Set("User-Agent", appUserAgent)
	req.Header.Set("app_version", appVersion)
	req.Header.Set("language", "en")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

func (c *HTTPClient) setAuthHeaders(req *http.Request) {
	if c.auth == nil {
		return
	}
	req.Header.Set(headerAccessToken, c.auth.AccessToken)
	req.Header.Set(headerClient, c.auth.Client)
	req.Header.Set(headerUID, c.auth.UID)
}

// ensure interface compliance
var _ Client = (*HTTPClient)(nil)
