package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMQTTTopic(t *testing.T) {
	assert := assert.New(t)

	topic, err := CheckMQTTTopic("SoftWater_1")
	assert.NoError(err)
	assert.Equal("softwater_1", topic)

	_, err = CheckMQTTTopic("soft water")
	assert.Error(err)

	_, err = CheckMQTTTopic("")
	assert.Error(err)
}

func TestCheckPollInterval(t *testing.T) {
	assert := assert.New(t)

	v, err := CheckPollInterval(120)
	assert.NoError(err)
	assert.Equal(uint(120), v)

	_, err = CheckPollInterval(29)
	assert.Error(err)

	_, err = CheckPollInterval(3601)
	assert.Error(err)

	// in range but off the 30s grid
	_, err = CheckPollInterval(100)
	assert.Error(err)

	v, err = CheckPollInterval(3600)
	assert.NoError(err)
	assert.Equal(uint(3600), v)
}

func TestCheckFlowPollInterval(t *testing.T) {
	assert := assert.New(t)

	v, err := CheckFlowPollInterval(5)
	assert.NoError(err)
	assert.Equal(uint(5), v)

	_, err = CheckFlowPollInterval(0)
	assert.Error(err)

	_, err = CheckFlowPollInterval(61)
	assert.Error(err)
}

func TestCheckErieCredentials(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(CheckErieCredentials(ErieConfig{Email: "a@b.c", Password: "secret"}))
	assert.NoError(CheckErieCredentials(ErieConfig{AccessToken: "t", Client: "c", Uid: "a@b.c"}))
	assert.Error(CheckErieCredentials(ErieConfig{Email: "a@b.c"}))
	assert.Error(CheckErieCredentials(ErieConfig{AccessToken: "t"}))
	assert.Error(CheckErieCredentials(ErieConfig{}))
}
