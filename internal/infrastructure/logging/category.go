package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Signaling       Category = "Signaling"
	Internal        Category = "Internal"
	RabbitMQ        Category = "RabbitMQ"
	MongoDB         Category = "MongoDB"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Signaling
	Join       SubCategory = "Join"
	Leave      SubCategory = "Leave"
	Chat       SubCategory = "Chat"
	CallSignal SubCategory = "CallSignal"
	Relay      SubCategory = "Relay"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
	ConnectionID ExtraKey = "ConnectionId"
	RoomID       ExtraKey = "RoomId"
	PeerID       ExtraKey = "PeerId"
)
