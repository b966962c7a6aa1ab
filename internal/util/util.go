package util

import (
	"softwater2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Erie: config.ErieConfig{
			Email:          "test@example.com",
			Password:       "password",
			TimeoutSeconds: 10,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "softwater",
		},
		PollConfig: config.PollConfig{
			IntervalSeconds:     config.DefaultPollIntervalSeconds,
			FlowIntervalSeconds: config.DefaultFlowPollIntervalSeconds,
			FlowPollEnable:      true,
		},
		Port: 8080,
	}
}
