package actor

import (
	"fmt"
	"time"

	"softwater2mqtt/internal/config"
	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/events"
	. "softwater2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// FlowPollerActor polls only the flow endpoint on a short interval. Like the
// slow poller, a failed first cycle is fatal and the actor restarts under its
// supervisor; once a reading has been served, later failures log, keep the
// last reading and wait for the next tick.
type FlowPollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	cloudActor      *actor.PID
	config          *config.Config
	eventStream     *eventstream.EventStream
	lastFlow        *domain.FlowSnapshot
	requestInFlight bool

	logger *zap.Logger
}

type flowTick struct {
}

func NewFlowPollerActor(config *config.Config, cloudActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *FlowPollerActor {
	act := &FlowPollerActor{
		config:      config,
		cloudActor:  cloudActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_FLOW_POLLER, logger),
		eventStream: eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *FlowPollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *FlowPollerActor) flowInterval() time.Duration {
	return time.Duration(state.config.PollConfig.FlowIntervalSeconds) * time.Second
}

func (state *FlowPollerActor) requestFlow(ctx actor.Context) {
	state.requestInFlight = true
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.cloudActor, domain.GetFlowRequest{}, pollCycleTimeout), func(err error) any {
		return domain.GetFlowResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

func (state *FlowPollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("flowpoller@starting started")

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.requestFlow(ctx)
		state.behavior.Become(state.WaitingFirstReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("flowpoller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// Waiting first reading. Without one there is nothing to serve, so the actor
// restarts under its supervisor until the cloud answers.
func (state *FlowPollerActor) WaitingFirstReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetFlowResponse:
		if msg.HasResponseError() {
			state.logger.Error("flowpoller@waitingFirst first reading failed", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.logger.Debug("flowpoller@waitingFirst first reading")
		state.processFlow(msg.Flow)
		state.scheduler.RequestOnce(state.flowInterval(), ctx.Self(), flowTick{})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("flowpoller@waitingFirst: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *FlowPollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("flowpoller@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_FLOW_POLLER,
			Healthy: true,
			State:   "idle",
		})
	case flowTick:
		if state.requestInFlight {
			// previous request still pending, fold this tick into it
			state.logger.Debug("flowpoller@default tick while request in flight")
		} else {
			state.logger.Debug("flowpoller@default tick")
			state.requestFlow(ctx)
		}
		// schedule next tick
		state.scheduler.RequestOnce(state.flowInterval(), ctx.Self(), flowTick{})
	case domain.GetFlowResponse:
		state.requestInFlight = false
		if msg.HasResponseError() {
			state.logger.Error("flowpoller@default GetFlowResponse error", zap.Error(msg.GetResponseError()))
			return
		}
		state.logger.Debug("flowpoller@default GetFlowResponse")
		state.processFlow(msg.Flow)
	case domain.GetLatestFlowRequest:
		state.logger.Debug("flowpoller@default GetLatestFlowRequest")
		ForRequest(msg).Respond(ctx, domain.GetLatestFlowResponse{
			Flow: state.lastFlow,
		})
	default:
		state.logger.Debug("flowpoller@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *FlowPollerActor) processFlow(flow *domain.FlowSnapshot) {
	state.requestInFlight = false
	state.lastFlow = flow
	for _, ev := range events.FlowToUpdateEvents(flow) {
		state.eventStream.Publish(ev)
	}
}
