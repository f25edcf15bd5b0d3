package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, e.g. "*:* -debug:race*"
	WaitForServices   string // duration to wait for other services to be ready
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry ("stdout" prints to console)
	ProfilingPort     int    // port for profiling
	Addr              string // listen addr for the http/websocket server
	DefaultTrack      string // track used when the client does not request one
	TrackFile         string // optional YAML file with additional tracks (reloaded on change)
	FrameRate         int    // simulation frames per second
	BlockID           string // id of the embedding block reported on completion
	NatsURL           string // NATS server for completion records (empty: log only)
	NatsSubject       string // subject prefix for completion records
	TLSCertFile       string // serve https/wss with this certificate (reloaded on change)
	TLSKeyFile        string // key for TLSCertFile
)
