package actor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"softwater2mqtt/internal/core/domain"
	"softwater2mqtt/internal/core/service"
	"softwater2mqtt/internal/util/actorutil"
	"softwater2mqtt/pkg/erieconnect"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const (
	CLOUD_ACTOR_ID = "cloud"

	cloudRequestTimeout = 30 * time.Second
)

// CloudActor owns the vendor API session. Requests are served one at a time:
// while a background call is in flight the actor stacks into WaitingCloud and
// stashes everything else, so two poll cycles can never overlap.
type CloudActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   erieconnect.Client
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewCloudActor(client erieconnect.Client, logger *zap.Logger) *CloudActor {
	act := &CloudActor{
		client:   client,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_CLOUD, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *CloudActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *CloudActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("cloud@starting started")
		if state.client.Device() == nil {
			if state.client.Auth() == nil {
				if err := state.client.Login(); err != nil {
					panic(err)
				}
			}
			if err := state.client.SelectFirstActiveDevice(); err != nil {
				panic(err)
			}
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("cloud@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *CloudActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("cloud@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CLOUD,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetDeviceInfoRequest:
		state.logger.Debug("cloud@default: GetDeviceInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getDeviceInfo),
			mapTaskResult[domain.GetDeviceInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetDeviceInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case domain.GetSnapshotRequest:
		state.logger.Debug("cloud@default: GetSnapshotRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getSnapshot),
			mapTaskResult[domain.GetSnapshotResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetSnapshotResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case domain.GetFlowRequest:
		state.logger.Debug("cloud@default: GetFlowRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getFlow),
			mapTaskResult[domain.GetFlowResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetFlowResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case domain.TriggerRegenerationRequest:
		state.logger.Debug("cloud@default: TriggerRegenerationRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.triggerRegeneration),
			mapTaskResult[domain.TriggerRegenerationResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.TriggerRegenerationResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case domain.SetHolidayModeRequest:
		state.logger.Debug("cloud@default: SetHolidayModeRequest", zap.Bool("enable", msg.Enable))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		enable := msg.Enable
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.SetHolidayModeResponse, error) {
			return state.setHolidayMode(enable)
		}),
			mapTaskResult[domain.SetHolidayModeResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetHolidayModeResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Enable: enable,
				},
				replyTo: sender,
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	default:
		state.logger.Debug("cloud@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *CloudActor) WaitingCloud(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("cloud@WaitingCloud backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("cloud@WaitingCloud stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *CloudActor) getDeviceInfo() (*domain.GetDeviceInfoResponse, error) {
	device := a.client.Device()
	if device == nil {
		return nil, fmt.Errorf("no device selected")
	}
	info, err := a.client.Info()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetDeviceInfoResponse{
		DeviceId:   strconv.Itoa(device.ID),
		DeviceName: device.Name,
		Serial:     info.Serial,
		Software:   strings.TrimSpace(info.Software),
	}, nil
}

// getSnapshot runs one full aggregation cycle. The four normalized endpoints
// must all succeed; the features endpoint is best effort and degrades to an
// empty map.
func (a *CloudActor) getSnapshot() (*domain.GetSnapshotResponse, error) {
	info, err := a.client.Info()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	dashboard, err := a.client.Dashboard()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	settings, err := a.client.Settings()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	flow, err := a.client.Flow()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	features, err := a.client.Features()
	if err != nil {
		a.logger.Warn("cloud: features endpoint failed, continuing without", zap.Error(err))
		features = map[string]any{}
	}
	return &domain.GetSnapshotResponse{
		Snapshot: service.BuildSnapshot(info, dashboard, settings, flow, features),
	}, nil
}

func (a *CloudActor) getFlow() (*domain.GetFlowResponse, error) {
	flow, err := a.client.Flow()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetFlowResponse{
		Flow: service.BuildFlowSnapshot(flow),
	}, nil
}

func (a *CloudActor) triggerRegeneration() (*domain.TriggerRegenerationResponse, error) {
	err := a.client.TriggerRegeneration()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.TriggerRegenerationResponse{}, nil
}

func (a *CloudActor) setHolidayMode(enable bool) (*domain.SetHolidayModeResponse, error) {
	err := a.client.SetHolidayMode(enable)
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.SetHolidayModeResponse{
		Enable: enable,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
