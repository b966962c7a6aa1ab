package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "softwater2mqtt/internal/adapter/actor"
	"softwater2mqtt/internal/config"
	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/events"
	"softwater2mqtt/internal/core/service"
	. "softwater2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type CloudActorProvider func() *adactor.CloudActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	cloudActor         *actor.PID
	mqttActor          *actor.PID
	pollerActor        *actor.PID
	flowPollerActor    *actor.PID
	cloudActorProvider CloudActorProvider
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	cloudActorHealthy      bool
	mqttActorHealthy       bool
	pollerActorHealthy     bool
	flowPollerActorHealthy bool
	checksExpected         int
	checksReceived         int
	respondTo              *actor.PID
}

// actionResult carries the outcome of a write action back from the cloud
// actor. Whatever the outcome, a refresh follows so published sensors
// reconverge with device state.
type actionResult struct {
	message any
	replyTo *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, cloudActorProvider CloudActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:             config,
		behavior:           actor.NewBehavior(),
		stash:              &Stash{},
		logger:             ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:        &eventstream.EventStream{},
		cloudActorProvider: cloudActorProvider,
		mqttActorProvider:  mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Cloud child
		cloudActorPID, err := state.startCloudActor(ctx)
		if err != nil {
			panic(err)
		}
		state.cloudActor = cloudActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Poller child
		pollerActorPID, err := state.startPollerActor(ctx)
		if err != nil {
			panic(err)
		}
		state.pollerActor = pollerActorPID

		// start FlowPoller child
		if state.config.PollConfig.FlowPollEnable {
			flowPollerActorPID, err := state.startFlowPollerActor(ctx)
			if err != nil {
				panic(err)
			}
			state.flowPollerActor = flowPollerActorPID
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		state.currentHealthCheck.checksExpected = 3
		// Cloud Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.cloudActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_CLOUD,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Poller Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.pollerActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_POLLER,
				Healthy: false,
			}
		})
		// FlowPoller Actor Request
		if state.flowPollerActor != nil {
			state.currentHealthCheck.checksExpected = 4
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.flowPollerActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      domain.ACTOR_ID_FLOW_POLLER,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err == nil && cmd != nil {
				switch pcmd := cmd.(type) {
				case domain.TriggerRegenerationRequest:
					state.runAction(ctx, pcmd, nil)
				case domain.SetHolidayModeRequest:
					state.runAction(ctx, pcmd, nil)
				}
			}
		}
	case domain.TriggerRegenerationRequest:
		state.logger.Debug("master@default TriggerRegenerationRequest")
		state.runAction(ctx, msg, ForRequest(msg).ReplyTo(ctx))
	case domain.SetHolidayModeRequest:
		state.logger.Debug("master@default SetHolidayModeRequest", zap.Bool("enable", msg.Enable))
		state.runAction(ctx, msg, ForRequest(msg).ReplyTo(ctx))
	case actionResult:
		state.handleActionResult(ctx, msg)
	case domain.RefreshNowRequest:
		ctx.Send(state.pollerActor, msg)
	case domain.GetLatestSnapshotRequest:
		state.logger.Debug("master@default GetLatestSnapshotRequest")
		ctx.Forward(state.pollerActor)
	case domain.GetLatestFlowRequest:
		state.logger.Debug("master@default GetLatestFlowRequest")
		if state.flowPollerActor != nil {
			ctx.Forward(state.flowPollerActor)
		} else {
			ForRequest(msg).Respond(ctx, domain.GetLatestFlowResponse{})
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_CLOUD) {
			state.logger.Error("master@default cloud error")
			panic(errors.New("cloud terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// runAction sends a write action to the cloud actor and pipes the typed
// outcome back to self.
func (state *MasterOfPuppetsActor) runAction(ctx actor.Context, request domain.ActorRequest, replyTo *actor.PID) {
	future := ctx.RequestFuture(state.cloudActor, request, pollCycleTimeout)
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), actionResult{
				message: domain.ActorResponseMixIn{ResponseError: err},
				replyTo: replyTo,
			})
			return
		}
		ctx.Send(ctx.Self(), actionResult{
			message: msg,
			replyTo: replyTo,
		})
	})
}

func (state *MasterOfPuppetsActor) handleActionResult(ctx actor.Context, result actionResult) {
	switch resp := result.message.(type) {
	case domain.TriggerRegenerationResponse:
		if resp.HasResponseError() {
			state.logger.Error("master@action regeneration failed", zap.Error(resp.GetResponseError()))
		} else {
			state.logger.Info("master@action regeneration triggered")
		}
	case domain.SetHolidayModeResponse:
		if resp.HasResponseError() {
			state.logger.Error("master@action holiday mode failed", zap.Error(resp.GetResponseError()))
		} else {
			state.logger.Info("master@action holiday mode set", zap.Bool("enable", resp.Enable))
			state.eventStream.Publish(events.HolidayModeSwitchUpdateEvent(resp.Enable))
		}
	case domain.ActorResponseMixIn:
		state.logger.Error("master@action failed", zap.Error(resp.GetResponseError()))
	}
	if result.replyTo != nil {
		ctx.Send(result.replyTo, result.message)
	}
	// reconverge published state with the device regardless of outcome
	ctx.Send(state.pollerActor, domain.RefreshNowRequest{})
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_CLOUD {
				state.currentHealthCheck.cloudActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_POLLER {
				state.currentHealthCheck.pollerActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_FLOW_POLLER {
				state.currentHealthCheck.flowPollerActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startCloudActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	cloudProps := actor.PropsFromProducer(func() actor.Actor {
		return state.cloudActorProvider()
	}, actor.WithSupervisor(supervisor))
	cloudActorPID, err := ctx.SpawnNamed(cloudProps, domain.ACTOR_ID_CLOUD)
	if err != nil {
		return nil, err
	}

	return cloudActorPID, nil
}

func (state *MasterOfPuppetsActor) startPollerActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 1*time.Minute, decider)

	pollerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(&state.config, state.cloudActor, state.eventStream,
			service.NewFlowDeltaAccumulator(), service.NewMaintenanceChecker(), state.logger)
	}, actor.WithSupervisor(supervisor))
	pollerActorPID, err := ctx.SpawnNamed(pollerProps, domain.ACTOR_ID_POLLER)
	if err != nil {
		return nil, err
	}

	return pollerActorPID, nil
}

func (state *MasterOfPuppetsActor) startFlowPollerActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	flowPollerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewFlowPollerActor(&state.config, state.cloudActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	flowPollerActorPID, err := ctx.SpawnNamed(flowPollerProps, domain.ACTOR_ID_FLOW_POLLER)
	if err != nil {
		return nil, err
	}

	return flowPollerActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.cloudActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.cloudActorHealthy = false
	state.mqttActorHealthy = false
	state.pollerActorHealthy = false
	state.flowPollerActorHealthy = false
	state.checksExpected = 3
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == state.checksExpected
}

func (state *healthCheckResult) allHealthy() bool {
	healthy := state.cloudActorHealthy && state.mqttActorHealthy && state.pollerActorHealthy
	if state.checksExpected == 4 {
		healthy = healthy && state.flowPollerActorHealthy
	}
	return healthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
