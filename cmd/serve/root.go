package serve

import (
	"fmt"

	cmdUtil "github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"github.com/ValentinKolb/rKV/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the rKV server",
		Long:    `Start the rKV server with the specified configuration. The configuration can be set via command line flags, a config file or environment variables. The format of the environment variables is RKV_<flag> (e.g. RKV_MAX_CONNECTIONS=100)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitEnv)

	defaults := common.DefaultServerConfig()
	AddServerFlags(ServeCmd, defaults)
}

// AddServerFlags registers every server setting as a flag on cmd
func AddServerFlags(cmd *cobra.Command, defaults common.ServerConfig) {
	key := "config"
	cmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional config file (yaml, json or toml) read before flags and environment variables are applied"))

	key = "endpoint"
	cmd.PersistentFlags().String(key, defaults.Endpoint, cmdUtil.WrapString("The address on which the server will listen (e.g. 0.0.0.0:1234 for tcp, /tmp/rkv.sock for unix)"))

	key = "transport"
	cmd.PersistentFlags().String(key, defaults.Transport, cmdUtil.WrapString("The transport to use (tcp, unix)"))

	key = "max-message-size"
	cmd.PersistentFlags().Int(key, defaults.MaxMessageSize, cmdUtil.WrapString("The largest request or response body in bytes. Larger requests close the connection, larger responses are replaced by an error"))

	key = "poll-timeout"
	cmd.PersistentFlags().Duration(key, defaults.PollTimeout, cmdUtil.WrapString("How long the event loop blocks waiting for readiness before checking timeouts and shutdown"))

	key = "idle-timeout"
	cmd.PersistentFlags().Duration(key, defaults.IdleTimeout, cmdUtil.WrapString("Close connections without traffic for this long (0 disables)"))

	key = "max-connections"
	cmd.PersistentFlags().Int(key, defaults.MaxConnections, cmdUtil.WrapString("Maximum number of simultaneous client connections (0 is unlimited)"))

	key = "socket-write-buffer"
	cmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "socket-read-buffer"
	cmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections (only for tcp)"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, defaults.TCP.TCPKeepAliveSec, cmdUtil.WrapString("The keepalive interval in seconds (0 disables, only for tcp)"))

	key = "tcp-linger"
	cmd.PersistentFlags().Int(key, defaults.TCP.TCPLingerSec, cmdUtil.WrapString("The linger time in seconds (0 disables, only for tcp)"))

	key = "metrics-endpoint"
	cmd.PersistentFlags().String(key, defaults.MetricsEndpoint, cmdUtil.WrapString("Address of the HTTP server exposing /metrics and /debug/pprof (e.g. localhost:9090, empty disables)"))

	key = "stats-interval"
	cmd.PersistentFlags().String(key, defaults.StatsInterval, cmdUtil.WrapString("Cron spec for the periodic stats log line (e.g. '@every 1m', empty disables)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.Log.Level, cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "log-file"
	cmd.PersistentFlags().String(key, defaults.Log.File, cmdUtil.WrapString("Additionally write logs to this file, rotated by size"))

	key = "log-max-size"
	cmd.PersistentFlags().Int(key, defaults.Log.MaxSizeMB, cmdUtil.WrapString("Rotate the log file after this many megabytes"))

	key = "log-max-backups"
	cmd.PersistentFlags().Int(key, defaults.Log.MaxBackups, cmdUtil.WrapString("Number of rotated log files to keep"))

	key = "log-max-age"
	cmd.PersistentFlags().Int(key, defaults.Log.MaxAgeDays, cmdUtil.WrapString("Delete rotated log files older than this many days"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	config, err := LoadServerConfig(cmd)
	if err != nil {
		return err
	}
	*serveCmdConfig = config
	return nil
}

// LoadServerConfig binds the flags of cmd to viper and builds the effective
// server configuration from flags, environment and the optional config file
func LoadServerConfig(cmd *cobra.Command) (common.ServerConfig, error) {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return common.ServerConfig{}, err
	}
	if err := cmdUtil.ReadConfigFile(); err != nil {
		return common.ServerConfig{}, err
	}

	config := common.ServerConfig{
		Endpoint:       viper.GetString("endpoint"),
		Transport:      viper.GetString("transport"),
		MaxMessageSize: viper.GetInt("max-message-size"),
		PollTimeout:    viper.GetDuration("poll-timeout"),
		IdleTimeout:    viper.GetDuration("idle-timeout"),
		MaxConnections: viper.GetInt("max-connections"),
		Socket: common.SocketConf{
			WriteBufferSize: viper.GetInt("socket-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("socket-read-buffer") * 1024,
		},
		TCP: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
		MetricsEndpoint: viper.GetString("metrics-endpoint"),
		StatsInterval:   viper.GetString("stats-interval"),
		Log: common.LogConfig{
			Level:      viper.GetString("log-level"),
			File:       viper.GetString("log-file"),
			MaxSizeMB:  viper.GetInt("log-max-size"),
			MaxBackups: viper.GetInt("log-max-backups"),
			MaxAgeDays: viper.GetInt("log-max-age"),
		},
	}

	if err := config.Validate(); err != nil {
		return common.ServerConfig{}, err
	}
	return config, nil
}

// run starts the rKV server
func run(cmd *cobra.Command, _ []string) error {
	// Parse the transport
	var t transport.IRPCServerTransport
	switch serveCmdConfig.Transport {
	case "tcp":
		t = tcp.NewTCPServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", serveCmdConfig.Transport)
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
	)

	return serv.Serve(cmd.Context())
}
