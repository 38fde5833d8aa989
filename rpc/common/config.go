package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Shared configuration structs
// --------------------------------------------------------------------------

// SocketConf holds socket buffer sizes
type SocketConf struct {
	WriteBufferSize int `yaml:"write_buffer_size"` // in bytes, 0 keeps the OS default
	ReadBufferSize  int `yaml:"read_buffer_size"`  // in bytes, 0 keeps the OS default
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool `yaml:"tcp_nodelay"`
	TCPKeepAliveSec int  `yaml:"tcp_keepalive_sec"` // 0 disables keep alive
	TCPLingerSec    int  `yaml:"tcp_linger_sec"`    // 0 disables linger
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`        // debug, info, warn, error
	File       string `yaml:"file"`         // optional log file, rotated by size
	MaxSizeMB  int    `yaml:"max_size_mb"`  // rotate after this many megabytes
	MaxBackups int    `yaml:"max_backups"`  // number of rotated files to keep
	MaxAgeDays int    `yaml:"max_age_days"` // delete rotated files older than this
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the rKV server.
type ServerConfig struct {
	// Endpoint is the listen address: host:port for tcp or a socket path for unix
	Endpoint  string `yaml:"endpoint"`
	Transport string `yaml:"transport"` // tcp or unix

	// Protocol and event loop parameters
	MaxMessageSize int           `yaml:"max_message_size"`
	PollTimeout    time.Duration `yaml:"poll_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`    // 0 disables idle timeouts
	MaxConnections int           `yaml:"max_connections"` // 0 means unlimited
	Socket         SocketConf    `yaml:"socket"`
	TCP            TCPConf       `yaml:"tcp"`

	// Observability
	MetricsEndpoint string    `yaml:"metrics_endpoint"` // empty disables the HTTP metrics endpoint
	StatsInterval   string    `yaml:"stats_interval"`   // cron spec, e.g. "@every 1m"; empty disables
	Log             LogConfig `yaml:"log"`
}

// DefaultServerConfig returns the configuration used when nothing is set
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Endpoint:       "0.0.0.0:1234",
		Transport:      "tcp",
		MaxMessageSize: DefaultMaxMessageSize,
		PollTimeout:    time.Second,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks the configuration for values the server cannot work with
func (c *ServerConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Transport != "tcp" && c.Transport != "unix" {
		return fmt.Errorf("invalid transport %q (expected tcp or unix)", c.Transport)
	}
	if c.MaxMessageSize < 64 {
		return fmt.Errorf("max message size must be at least 64 bytes, got %d", c.MaxMessageSize)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive, got %s", c.PollTimeout)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max connections must not be negative, got %d", c.MaxConnections)
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	orDisabled := func(value string) string {
		if value == "" || value == "0" || value == "0s" {
			return "disabled"
		}
		return value
	}

	// Listener settings
	addSection("Listener")
	addField("Endpoint", c.Endpoint)
	addField("Transport", c.Transport)
	addField("Max Connections", orDisabled(strconv.Itoa(c.MaxConnections)))
	if c.Transport == "tcp" {
		addField("TCP No Delay", strconv.FormatBool(c.TCP.TCPNoDelay))
		addField("TCP Keep Alive", orDisabled(strconv.Itoa(c.TCP.TCPKeepAliveSec)))
	}

	// Event loop settings
	addSection("Event Loop")
	addField("Max Message Size", fmt.Sprintf("%d bytes", c.MaxMessageSize))
	addField("Poll Timeout", c.PollTimeout.String())
	addField("Idle Timeout", orDisabled(c.IdleTimeout.String()))

	// Observability
	addSection("Observability")
	addField("Metrics Endpoint", orDisabled(c.MetricsEndpoint))
	addField("Stats Interval", orDisabled(c.StatsInterval))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.Log.Level)
	addField("Log File", orDisabled(c.Log.File))
	if c.Log.File != "" {
		addField("Max Size", fmt.Sprintf("%d MB", c.Log.MaxSizeMB))
		addField("Max Backups", strconv.Itoa(c.Log.MaxBackups))
		addField("Max Age", fmt.Sprintf("%d days", c.Log.MaxAgeDays))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the connection level settings of a client
type ClientTransportConfig struct {
	Endpoints              []string   `yaml:"endpoints"`
	Transport              string     `yaml:"transport"` // tcp or unix
	RetryCount             int        `yaml:"retry_count"`
	ConnectionsPerEndpoint int        `yaml:"connections_per_endpoint"`
	MaxMessageSize         int        `yaml:"max_message_size"`
	SocketConf             SocketConf `yaml:"socket"`
	TCPConf                TCPConf    `yaml:"tcp"`
}

// ClientConfig holds the configuration of an rKV client
type ClientConfig struct {
	TimeoutSecond int                   `yaml:"timeout_second"`
	Transport     ClientTransportConfig `yaml:"transport"`
}

// DefaultClientConfig returns a client configuration for a local server
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		TimeoutSecond: 10,
		Transport: ClientTransportConfig{
			Endpoints:              []string{"localhost:1234"},
			Transport:              "tcp",
			RetryCount:             3,
			ConnectionsPerEndpoint: 1,
			MaxMessageSize:         DefaultMaxMessageSize,
			TCPConf:                TCPConf{TCPNoDelay: true},
		},
	}
}

// Timeout returns the request timeout as a duration
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Transport", c.Transport.Transport)
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))
	addField("Max Message Size", fmt.Sprintf("%d bytes", c.Transport.MaxMessageSize))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
