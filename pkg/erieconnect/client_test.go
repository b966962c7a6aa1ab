package erieconnect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	regenCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/erieapp/v1/auth/sign_in", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Access-Token", "tok-123")
		w.Header().Set("Client", "cli-456")
		w.Header().Set("Uid", "user@example.com")
		w.Header().Set("Expiry", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/erieapp/v1/water_softeners", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Access-Token") != "tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[{"id":7,"name":"Basement","profile":{"plan":"standard"}}]`)
	})
	mux.HandleFunc("/api/erieapp/v1/water_softeners/7/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"serial":       "S123",
			"software":     " 2.0.1 ",
			"total_volume": "1500 L",
		})
	})
	mux.HandleFunc("/api/erieapp/v1/water_softeners/7/regeneration", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		regenCalls++
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux), &regenCalls
}

func TestLoginAndSelectDevice(t *testing.T) {

	assert := assert.New(t)

	server, _ := testServer(t)
	defer server.Close()

	client := CreateClient("user@example.com", "secret", 5*time.Second, zap.NewNop()).WithBaseURL(server.URL)

	err := client.Login()
	assert.NoError(err)
	assert.Equal("tok-123", client.Auth().AccessToken, "access token from headers")
	assert.Equal("user@example.com", client.Auth().UID, "uid from headers")
	assert.False(client.Auth().Expired(time.Now()), "token not expired")

	err = client.SelectFirstActiveDevice()
	assert.NoError(err)
	assert.Equal(7, client.Device().ID, "device id")
	assert.Equal("Basement", client.Device().Name, "device name")
}

func TestInfoResumesStoredSession(t *testing.T) {

	assert := assert.New(t)

	server, _ := testServer(t)
	defer server.Close()

	auth := Auth{
		AccessToken: "tok-123",
		Client:      "cli-456",
		UID:         "user@example.com",
		Expiry:      time.Now().Add(time.Hour),
	}
	client := CreateClientWithAuth("user@example.com", "secret", auth, Device{ID: 7, Name: "Basement"},
		5*time.Second, zap.NewNop()).WithBaseURL(server.URL)

	info, err := client.Info()
	assert.NoError(err)
	assert.Equal("S123", info.Serial)
	assert.Equal("1500 L", info.TotalVolume)
}

func TestExpiredSessionRelogins(t *testing.T) {

	assert := assert.New(t)

	server, _ := testServer(t)
	defer server.Close()

	auth := Auth{
		AccessToken: "stale",
		Client:      "stale",
		UID:         "user@example.com",
		Expiry:      time.Now().Add(-time.Hour),
	}
	client := CreateClientWithAuth("user@example.com", "secret", auth, Device{ID: 7, Name: "Basement"},
		5*time.Second, zap.NewNop()).WithBaseURL(server.URL)

	_, err := client.Info()
	assert.NoError(err)
	assert.Equal("tok-123", client.Auth().AccessToken, "token refreshed via re-login")
}

func TestTriggerRegeneration(t *testing.T) {

	assert := assert.New(t)

	server, regenCalls := testServer(t)
	defer server.Close()

	auth := Auth{
		AccessToken: "tok-123",
		Client:      "cli-456",
		UID:         "user@example.com",
		Expiry:      time.Now().Add(time.Hour),
	}
	client := CreateClientWithAuth("user@example.com", "secret", auth, Device{ID: 7, Name: "Basement"},
		5*time.Second, zap.NewNop()).WithBaseURL(server.URL)

	err := client.TriggerRegeneration()
	assert.NoError(err)
	assert.Equal(1, *regenCalls, "regeneration endpoint hit once")
}

func TestWithDevicePinsSoftener(t *testing.T) {

	assert := assert.New(t)

	logger := zap.NewNop()

	client := CreateClient("user@example.com", "secret", 5*time.Second, logger).
		WithDevice(Device{ID: 7, Name: "Basement"})
	if assert.NotNil(client.Device()) {
		assert.Equal(7, client.Device().ID)
	}

	// a zero device leaves selection to SelectFirstActiveDevice
	client = CreateClient("user@example.com", "secret", 5*time.Second, logger).
		WithDevice(Device{})
	assert.Nil(client.Device())
}
