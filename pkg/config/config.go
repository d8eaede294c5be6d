package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string // connection string for the database
	NatsURL           string // URL of the NATS server
	BoltFile          string // path of the bbolt database file
	Store             string // comma separated list of stores (postgres, nats, bolt, none)
	ListenAddr        string // UDP listen address for the telemetry feed
	HTTPAddr          string // listen addr for the status API (empty disables it)
	CarStatusLayout   string // car status record layout (55, 58, auto)
	HistoryCapacity   int    // number of samples kept per history channel
	WeatherInterval   string // minimum duration between two weather samples
	KVUpdateInterval  string // minimum duration between two snapshot KV updates
	QueueSize         int    // capacity of the persistence queue
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry ("stdout" writes to the console)
	ProfilingPort     int    // port for profiling
)
