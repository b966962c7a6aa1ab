package actor

import (
	"fmt"
	"strconv"
	"time"

	"softwater2mqtt/internal/config"
	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/events"
	"softwater2mqtt/internal/core/port"
	. "softwater2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const pollCycleTimeout = 45 * time.Second

// PollerActor drives the slow aggregation cycle. One cycle is in flight at a
// time; RefreshNow requests received mid-cycle coalesce into a single
// follow-up cycle.
type PollerActor struct {
	ActorWithStates
	scheduler   *scheduler.TimerScheduler
	stash       *Stash
	cloudActor  *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream

	flowDelta   port.FlowDeltaTracker
	maintenance port.MaintenancePolicy

	lastSnapshot  *domain.Snapshot
	refreshQueued bool

	logger *zap.Logger
}

type pollTick struct {
}

func NewPollerActor(config *config.Config, cloudActor *actor.PID, eventStream *eventstream.EventStream,
	flowDelta port.FlowDeltaTracker, maintenance port.MaintenancePolicy, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:      config,
		cloudActor:  cloudActor,
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_POLLER, logger),
		eventStream: eventStream,
		flowDelta:   flowDelta,
		maintenance: maintenance,
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(PollerStartingState{
		actor: act,
	})
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

func (state *PollerActor) pollInterval() time.Duration {
	return time.Duration(state.config.PollConfig.IntervalSeconds) * time.Second
}

func (state *PollerActor) requestSnapshot(ctx actor.Context) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.cloudActor, domain.GetSnapshotRequest{}, pollCycleTimeout), func(err error) any {
		return domain.GetSnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

// processSnapshot derives the per-cycle values and publishes the sensor
// update events for one successful cycle.
func (state *PollerActor) processSnapshot(snapshot *domain.Snapshot) {
	var delta int64
	if total, err := strconv.ParseInt(snapshot.TotalVolume, 10, 64); err == nil {
		delta = state.flowDelta.Observe(total)
	}
	maintenanceState := state.maintenance.Evaluate(snapshot.LastMaintenance, time.Now())

	for _, ev := range events.SnapshotToUpdateEvents(snapshot, delta, maintenanceState) {
		state.eventStream.Publish(ev)
	}
	state.lastSnapshot = snapshot
}

// Starting state

type PollerStartingState struct {
	ActorState
	actor *PollerActor
}

func (state PollerStartingState) Name() string {
	return "starting"
}

func (state PollerStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("poller@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)
		state.actor.requestSnapshot(ctx)
		state.actor.Become(PollerWaitingFirstState{
			actor: state.actor,
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting first snapshot state. A failed first cycle is fatal: without one
// complete snapshot there is nothing to publish and nothing to serve, so the
// actor restarts under its supervisor until the cloud answers.

type PollerWaitingFirstState struct {
	ActorState
	actor *PollerActor
}

func (state PollerWaitingFirstState) Name() string {
	return "waitingFirst"
}

func (state PollerWaitingFirstState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSnapshotResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("poller@waitingFirst first snapshot failed", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.actor.logger.Debug("poller@waitingFirst first snapshot")
		state.actor.processSnapshot(msg.Snapshot)
		state.actor.scheduler.RequestOnce(state.actor.pollInterval(), ctx.Self(), pollTick{})
		state.actor.Become(PollerIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("poller@waitingFirst: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type PollerIdleState struct {
	ActorState
	actor *PollerActor
}

func (state PollerIdleState) Name() string {
	return "idle"
}

func (state PollerIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("poller@idle: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   state.Name(),
		})
	case pollTick:
		state.actor.logger.Debug("poller@idle tick")
		state.actor.requestSnapshot(ctx)
		state.actor.scheduler.RequestOnce(state.actor.pollInterval(), ctx.Self(), pollTick{})
		state.actor.Become(PollerRefreshingState{
			actor: state.actor,
		})
	case domain.RefreshNowRequest:
		state.actor.logger.Debug("poller@idle RefreshNowRequest")
		state.actor.requestSnapshot(ctx)
		state.actor.Become(PollerRefreshingState{
			actor: state.actor,
		})
	case domain.GetLatestSnapshotRequest:
		state.actor.logger.Debug("poller@idle GetLatestSnapshotRequest")
		ForRequest(msg).Respond(ctx, domain.GetLatestSnapshotResponse{
			Snapshot: state.actor.lastSnapshot,
		})
	default:
		state.actor.logger.Debug("poller@idle recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Refreshing state. A cycle is in flight; sensors keep their previous values
// if it fails.

type PollerRefreshingState struct {
	ActorState
	actor *PollerActor
}

func (state PollerRefreshingState) Name() string {
	return "refreshing"
}

func (state PollerRefreshingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   state.Name(),
		})
	case domain.GetSnapshotResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("poller@refreshing cycle failed, keeping previous snapshot", zap.Error(msg.GetResponseError()))
		} else {
			state.actor.logger.Debug("poller@refreshing snapshot")
			state.actor.processSnapshot(msg.Snapshot)
		}
		if state.actor.refreshQueued {
			state.actor.refreshQueued = false
			state.actor.requestSnapshot(ctx)
		} else {
			state.actor.Become(PollerIdleState{
				actor: state.actor,
			})
		}
		state.actor.stash.UnstashAll(ctx)
	case domain.RefreshNowRequest:
		// coalesce: any number of requests mid-cycle yields one follow-up
		state.actor.logger.Debug("poller@refreshing RefreshNowRequest queued")
		state.actor.refreshQueued = true
	case domain.GetLatestSnapshotRequest:
		ForRequest(msg).Respond(ctx, domain.GetLatestSnapshotResponse{
			Snapshot: state.actor.lastSnapshot,
		})
	case pollTick:
		// tick landed mid-cycle, fold it into the queued refresh
		state.actor.refreshQueued = true
		state.actor.scheduler.RequestOnce(state.actor.pollInterval(), ctx.Self(), pollTick{})
	default:
		state.actor.logger.Debug("poller@refreshing: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}
