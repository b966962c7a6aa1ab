package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "softwater2mqtt/internal/adapter/actor"
	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/util"
	"softwater2mqtt/pkg/erieconnect"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func spawnMasterActor(t *testing.T, client erieconnect.Client) (*actor.ActorSystem, *actor.RootContext, *actor.PID) {
	t.Helper()

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.CloudActor {
			return adactor.NewCloudActor(client, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(2 * time.Second)

	return as, context, pid
}

func TestMasterActor(t *testing.T) {

	client := erieconnect.NewTestClient()
	as, context, pid := spawnMasterActor(t, client)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)
}

func TestMasterActorLatestSnapshot(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	as, context, pid := spawnMasterActor(t, client)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.GetLatestSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := res.(domain.GetLatestSnapshotResponse)
	assert.True(ok)
	if assert.NotNil(resp.Snapshot) {
		assert.Equal("SW-0042-TEST", resp.Snapshot.Serial)
		assert.Equal("1500", resp.Snapshot.TotalVolume)
	}

	context.Stop(pid)
}

func TestMasterActorActionTriggersRefresh(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	as, context, pid := spawnMasterActor(t, client)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.SetHolidayModeRequest{Enable: true}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := res.(domain.SetHolidayModeResponse)
	assert.True(ok)
	assert.False(resp.HasResponseError())
	assert.True(client.HolidayMode)

	// the out-of-band refresh lands a snapshot with the new switch state
	time.Sleep(2 * time.Second)

	res, err = context.RequestFuture(pid, domain.GetLatestSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	snapResp := res.(domain.GetLatestSnapshotResponse)
	if assert.NotNil(snapResp.Snapshot) {
		assert.True(snapResp.Snapshot.HolidayMode)
	}

	context.Stop(pid)
}
