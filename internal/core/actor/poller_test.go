package actor

import (
	"testing"
	"time"

	adactor "softwater2mqtt/internal/adapter/actor"
	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/events"
	"softwater2mqtt/internal/core/service"
	"softwater2mqtt/internal/util"
	"softwater2mqtt/pkg/erieconnect"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func spawnPollerActor(t *testing.T, client *erieconnect.TestClient, es *eventstream.EventStream) (*actor.ActorSystem, *actor.RootContext, *actor.PID) {
	t.Helper()

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	cloudProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewCloudActor(client, logger)
	})
	cloudPID := context.Spawn(cloudProps)

	pollerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(&cfg, cloudPID, es,
			service.NewFlowDeltaAccumulator(), service.NewMaintenanceChecker(), logger)
	})
	pollerPID := context.Spawn(pollerProps)

	time.Sleep(1 * time.Second)

	return as, context, pollerPID
}

func TestPollerFirstCyclePublishes(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	es := &eventstream.EventStream{}

	var published []domain.SensorUpdateEvent
	sub := es.Subscribe(func(value any) {
		if ev, ok := value.(domain.SensorUpdateEvent); ok {
			published = append(published, ev)
		}
	})
	defer es.Unsubscribe(sub)

	as, context, pid := spawnPollerActor(t, client, es)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.GetLatestSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := res.(domain.GetLatestSnapshotResponse)
	if assert.NotNil(resp.Snapshot) {
		assert.Equal("1500", resp.Snapshot.TotalVolume)
	}

	ids := map[string]bool{}
	for _, ev := range published {
		ids[ev.SensorId()] = true
	}
	assert.True(ids[events.SENSOR_ID_TOTAL_VOLUME], "total volume published")
	assert.True(ids[events.SENSOR_ID_FLOW_SINCE_LAST_POLL], "flow delta published")
	assert.True(ids[events.SWITCH_ID_HOLIDAY_MODE], "holiday switch published")

	context.Stop(pid)
}

func TestPollerKeepsSnapshotOnFailedCycle(t *testing.T) {

	assert := assert.New(t)

	client := erieconnect.NewTestClient()
	es := &eventstream.EventStream{}

	as, context, pid := spawnPollerActor(t, client, es)
	defer as.Shutdown()

	res, err := context.RequestFuture(pid, domain.GetLatestSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	first := res.(domain.GetLatestSnapshotResponse)
	assert.NotNil(first.Snapshot)

	// subsequent cycles fail, previous snapshot must survive
	client.FailDashboard = true
	context.Send(pid, domain.RefreshNowRequest{})
	time.Sleep(2 * time.Second)

	res, err = context.RequestFuture(pid, domain.GetLatestSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	second := res.(domain.GetLatestSnapshotResponse)
	if assert.NotNil(second.Snapshot) {
		assert.Equal(first.Snapshot.TotalVolume, second.Snapshot.TotalVolume)
		assert.Equal(first.Snapshot.Serial, second.Snapshot.Serial)
	}

	context.Stop(pid)
}
