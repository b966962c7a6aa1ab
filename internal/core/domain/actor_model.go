package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_CLOUD        = "cloud"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_FLOW_POLLER  = "flowpoller"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// Cloud actor protocol. GetSnapshot aggregates the info, dashboard,
// settings and flow endpoints plus the optional features endpoint into one
// Snapshot. GetFlow only hits the flow endpoint.

type GetSnapshotRequest struct {
	ActorRequestMixIn
}

type GetSnapshotResponse struct {
	ActorResponseMixIn
	Snapshot *Snapshot
}

type GetFlowRequest struct {
	ActorRequestMixIn
}

type GetFlowResponse struct {
	ActorResponseMixIn
	Flow *FlowSnapshot
}

type GetDeviceInfoRequest struct {
	ActorRequestMixIn
}

type GetDeviceInfoResponse struct {
	ActorResponseMixIn
	DeviceId   string
	DeviceName string
	Serial     string
	Software   string
}

// Write actions. The response carries the write outcome; the caller decides
// what to surface, a refresh is requested either way.

type TriggerRegenerationRequest struct {
	ActorRequestMixIn
}

type TriggerRegenerationResponse struct {
	ActorResponseMixIn
}

type SetHolidayModeRequest struct {
	ActorRequestMixIn
	Enable bool
}

type SetHolidayModeResponse struct {
	ActorResponseMixIn
	Enable bool
}

// Poller protocol. RefreshNow schedules one out-of-band cycle; while a
// cycle is in flight additional requests coalesce into a single follow-up.

type RefreshNowRequest struct {
	ActorRequestMixIn
}

type GetLatestSnapshotRequest struct {
	ActorRequestMixIn
}

type GetLatestSnapshotResponse struct {
	ActorResponseMixIn
	Snapshot *Snapshot
}

type GetLatestFlowRequest struct {
	ActorRequestMixIn
}

type GetLatestFlowResponse struct {
	ActorResponseMixIn
	Flow *FlowSnapshot
}

// MQTT actor protocol.

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors  []GenericSensor
	Switches []GenericSwitch
	Buttons  []GenericButton
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
