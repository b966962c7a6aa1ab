package actor

import (
	"errors"
	"fmt"
	"time"

	"softwater2mqtt/internal/config"
	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/events"
	"softwater2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes the Home Assistant discovery catalogue once the
// cloud and MQTT actors are known to be healthy, then goes quiet.
type HADiscoveryActor struct {
	config            *config.Config
	behavior          actor.Behavior
	stash             *actorutil.Stash
	cloudActor        *actor.PID
	mqttActor         *actor.PID
	cloudActorHealthy bool
	mqttActorHealthy  bool
	healthyRecv       int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, cloudActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:     config,
		cloudActor: cloudActor,
		mqttActor:  mqttActor,
		behavior:   actor.NewBehavior(),
		stash:      &actorutil.Stash{},
		logger:     actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Cloud and MQTT actor healthy
		state.healthyRecv = 0
		state.cloudActorHealthy = false
		state.mqttActorHealthy = false
		// Cloud Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.cloudActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_CLOUD,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_CLOUD:
				state.cloudActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.cloudActorHealthy && state.mqttActorHealthy {
				// Ask Cloud GetDeviceInfoRequest
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.cloudActor, domain.GetDeviceInfoRequest{}, pollCycleTimeout), func(err error) any {
					return domain.GetDeviceInfoResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingInfoReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Cloud Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetDeviceInfoResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info: GetDeviceInfoResponse", zap.Any("response", msg))

		var sensors []domain.GenericSensor

		bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors = append(sensors, events.BridgeSensors(bridgeDevice)...)

		deviceName := state.config.Erie.DeviceName
		if deviceName == "" {
			deviceName = msg.DeviceName
		}
		softenerDevice := events.SoftenerDevice(deviceName, msg.Serial, msg.Software)
		softenerDevice.ViaDevice = bridgeDevice.Id
		sensors = append(sensors, events.SoftenerSensors(softenerDevice)...)

		switches := events.SoftenerSwitches(softenerDevice)
		buttons := events.SoftenerButtons(softenerDevice)

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors:  sensors,
			Switches: switches,
			Buttons:  buttons,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
