package actor

import (
	"testing"
	"time"

	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/util/actorutil"
	"softwater2mqtt/pkg/erieconnect"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func spawnCloudActor(t *testing.T, client erieconnect.Client) (*actor.ActorSystem, *actor.RootContext, *actor.PID) {
	t.Helper()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewCloudActor(client, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	return as, context, pid
}

func TestGetSnapshotCloudActor(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	as, context, pid := spawnCloudActor(t, client)
	defer as.Shutdown()

	result, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetSnapshotResponse)

	assert.False(resp.HasResponseError(), "no response error")
	assert.Equal("SW-0042-TEST", resp.Snapshot.Serial, "serial")
	assert.Equal("2.7.1", resp.Snapshot.Software, "software trimmed")
	assert.Equal("1500", resp.Snapshot.TotalVolume, "total volume without unit")
	if assert.NotNil(resp.Snapshot.WaterHardness) {
		assert.Equal(21.5, *resp.Snapshot.WaterHardness, "water hardness")
	}
	if assert.NotNil(resp.Snapshot.FlowRate) {
		assert.Equal(3.2, *resp.Snapshot.FlowRate, "flow rate")
	}

	context.Stop(pid)
}

func TestGetSnapshotCloudActorFeaturesBestEffort(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	client.FailFeatures = true
	as, context, pid := spawnCloudActor(t, client)
	defer as.Shutdown()

	result, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetSnapshotResponse)

	assert.False(resp.HasResponseError(), "features failure must not fail the cycle")
	assert.NotNil(resp.Snapshot.Features)
	assert.Empty(resp.Snapshot.Features, "features degrade to empty map")

	context.Stop(pid)
}

func TestGetSnapshotCloudActorRequiredEndpointFails(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	client.FailDashboard = true
	as, context, pid := spawnCloudActor(t, client)
	defer as.Shutdown()

	result, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetSnapshotResponse)

	assert.True(resp.HasResponseError(), "dashboard failure fails the cycle")
	assert.Nil(resp.Snapshot)

	context.Stop(pid)
}

func TestGetFlowCloudActor(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	as, context, pid := spawnCloudActor(t, client)
	defer as.Shutdown()

	result, err := context.RequestFuture(pid, domain.GetFlowRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetFlowResponse)

	assert.False(resp.HasResponseError(), "no response error")
	if assert.NotNil(resp.Flow.FlowRate) {
		assert.Equal(3.2, *resp.Flow.FlowRate, "flow rate")
	}
	assert.Equal(1, client.FlowCalls, "flow poll only hits the flow endpoint once")

	context.Stop(pid)
}

func TestCloudActorActions(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	as, context, pid := spawnCloudActor(t, client)
	defer as.Shutdown()

	result, err := context.RequestFuture(pid, domain.TriggerRegenerationRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	regenResp := result.(domain.TriggerRegenerationResponse)
	assert.False(regenResp.HasResponseError())
	assert.Equal(1, client.RegenerationsTriggered)

	result, err = context.RequestFuture(pid, domain.SetHolidayModeRequest{Enable: true}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	holidayResp := result.(domain.SetHolidayModeResponse)
	assert.False(holidayResp.HasResponseError())
	assert.True(holidayResp.Enable)
	assert.True(client.HolidayMode)

	context.Stop(pid)
}

func TestCloudActorActionErrorSurfaced(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	client.FailActions = true
	as, context, pid := spawnCloudActor(t, client)
	defer as.Shutdown()

	result, err := context.RequestFuture(pid, domain.TriggerRegenerationRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.TriggerRegenerationResponse)
	assert.True(resp.HasResponseError())
	assert.Equal(0, client.RegenerationsTriggered, "rejected action must not count")

	context.Stop(pid)
}
