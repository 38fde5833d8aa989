package common

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerNames lists every named logger used by rKV
var LoggerNames = []string{"rpc", "server", "transport", "store", "client"}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// sink is the zap logger all named loggers write through. It is swapped
// when InitLoggers runs, so loggers created at package init time pick up
// the configured output.
var sink atomic.Pointer[zap.Logger]

func init() {
	sink.Store(newZapLogger(zapcore.AddSync(os.Stdout)))
}

// rkvLogger implements the ILogger interface on top of zap
type rkvLogger struct {
	name  string
	level atomic.Int32
}

func (l *rkvLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *rkvLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *rkvLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.sugar().Debugf(format, args...)
	}
}

func (l *rkvLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.sugar().Infof(format, args...)
	}
}

func (l *rkvLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.sugar().Warnf(format, args...)
	}
}

func (l *rkvLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.sugar().Errorf(format, args...)
	}
}

func (l *rkvLogger) Panicf(format string, args ...interface{}) {
	l.sugar().Panicf(format, args...)
}

func (l *rkvLogger) sugar() *zap.SugaredLogger {
	return sink.Load().Named(l.name).Sugar()
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	l := &rkvLogger{name: pkgName}
	l.SetLevel(logger.INFO)
	return l
}

// newZapLogger builds a console logger in the "time | LEVEL | name | msg" layout
func newZapLogger(out zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "name",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, zapcore.DebugLevel)
	return zap.New(core)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLogLevel converts a string level to logger.LogLevel
func parseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

var factoryOnce sync.Once

// InitLoggers installs the zap backed logger factory and applies the level
// and output of config to every rKV logger. It may be called more than once.
func InitLoggers(config LogConfig) error {
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return err
	}

	out := zapcore.AddSync(os.Stdout)
	if config.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
		}
		out = zapcore.NewMultiWriteSyncer(out, zapcore.AddSync(rotating))
	}

	previous := sink.Swap(newZapLogger(out))
	_ = previous.Sync()

	// Set as the global logger factory for Dragonboat
	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
