package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the server-wide structured logger. It is a no-op until Initialize
// runs so packages can log from tests without setup.
var Log = zap.NewNop()

// Options selects level, rotated file and console sink.
type Options struct {
	Level string
	File  string
	// Console receives human-readable lines; nil means stdout.
	Console io.Writer
	// JSONConsole switches the console encoder to JSON (production).
	JSONConsole bool
}

// Initialize sets up the structured logger with file rotation.
func Initialize(opts Options) error {
	if opts.File == "" {
		opts.File = "menuboard.log"
	}
	if opts.Level == "" {
		opts.Level = "info"
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	level := ParseLevel(opts.Level)

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	})

	jsonEncoderConfig := zap.NewProductionEncoderConfig()
	jsonEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	if opts.JSONConsole {
		consoleEncoder = zapcore.NewJSONEncoder(jsonEncoderConfig)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(opts.Console), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig), fileWriter, level),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	Log.Info("Logger initialized",
		zap.String("level", opts.Level),
		zap.String("file", opts.File),
	)
	return nil
}

// Close flushes the logger before shutdown.
func Close() error {
	return Log.Sync()
}

// ParseLevel converts a config string to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Resty adapts the logger to resty.Logger for the upstream menu client.
func Resty() *zap.SugaredLogger {
	return Log.Named("upstream").Sugar()
}

func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

func WithItemID(id string) zap.Field {
	return zap.String("item_id", id)
}

func WithOwner(owner bool) zap.Field {
	return zap.Bool("owner", owner)
}
