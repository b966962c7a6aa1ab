package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	MinPollIntervalSeconds     = 30
	MaxPollIntervalSeconds     = 3600
	PollIntervalStepSeconds    = 30
	DefaultPollIntervalSeconds = 120

	MinFlowPollIntervalSeconds     = 1
	MaxFlowPollIntervalSeconds     = 60
	DefaultFlowPollIntervalSeconds = 5
)

type Config struct {
	LogLevel zapcore.Level
	Erie     ErieConfig `mapstructure:"erie"`
	MQTT     MQTTConfig `mapstructure:"mqtt"`

	PollConfig PollConfig `mapstructure:"poll"`
	Port       uint       `mapstructure:"port"`
	HttpLog    bool       `mapstructure:"http_log"`
}

type ErieConfig struct {
	Email    string
	Password string
	// Token fields resume a stored devise-token-auth session so restarts do
	// not burn a fresh login.
	AccessToken string `mapstructure:"access_token"`
	Client      string `mapstructure:"client"`
	Uid         string `mapstructure:"uid"`
	Expiry      int64  `mapstructure:"expiry"`
	// DeviceId pins a softener; 0 selects the first active device.
	DeviceId       int    `mapstructure:"device_id"`
	DeviceName     string `mapstructure:"device_name"`
	TimeoutSeconds uint   `mapstructure:"timeout_seconds"`
}

type PollConfig struct {
	IntervalSeconds     uint `mapstructure:"interval_seconds"`
	FlowIntervalSeconds uint `mapstructure:"flow_interval_seconds"`
	FlowPollEnable      bool `mapstructure:"flow_poll_enable"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// CheckPollInterval validates the slow-poll interval: bounded and aligned to
// the step the vendor backend tolerates.
func CheckPollInterval(seconds uint) (uint, error) {
	if seconds < MinPollIntervalSeconds || seconds > MaxPollIntervalSeconds {
		return 0, fmt.Errorf("poll interval must be between %d and %d seconds",
			MinPollIntervalSeconds, MaxPollIntervalSeconds)
	}
	if seconds%PollIntervalStepSeconds != 0 {
		return 0, fmt.Errorf("poll interval must be a multiple of %d seconds",
			PollIntervalStepSeconds)
	}
	return seconds, nil
}

func CheckFlowPollInterval(seconds uint) (uint, error) {
	if seconds < MinFlowPollIntervalSeconds || seconds > MaxFlowPollIntervalSeconds {
		return 0, fmt.Errorf("flow poll interval must be between %d and %d seconds",
			MinFlowPollIntervalSeconds, MaxFlowPollIntervalSeconds)
	}
	return seconds, nil
}

// CheckErieCredentials accepts either an email/password pair or a complete
// stored token session.
func CheckErieCredentials(cfg ErieConfig) error {
	if cfg.Email != "" && cfg.Password != "" {
		return nil
	}
	if cfg.AccessToken != "" && cfg.Client != "" && cfg.Uid != "" {
		return nil
	}
	return errors.New("either erie.email/erie.password or a stored token session (erie.access_token, erie.client, erie.uid) is required")
}
