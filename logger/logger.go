package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log       *zap.SugaredLogger
	ZapLogger *zap.Logger // Expose the raw zap Logger
)

// Options controls where log lines go.
type Options struct {
	Level   string // debug, info, warn, error
	LogFile string // optional; empty disables the file core
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "T", // Keep time key brief
		LevelKey:         "L",
		NameKey:          "N",
		CallerKey:        "",              // Disable caller key
		FunctionKey:      zapcore.OmitKey, // Disable function key
		MessageKey:       "M",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,                        // INFO, WARN, etc.
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"), // Simpler time format
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder, // Won't be used due to empty CallerKey
		ConsoleSeparator: "  ",                       // Separator between elements in console output
	}
}

// ParseLevel maps a level name to a zap level. Unknown names fall back to info.
func ParseLevel(name string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// InitLogger builds the process logger. Human-readable lines go to stderr;
// when LogFile is set the same lines are appended to that file too.
func InitLogger(opts Options) error {
	encoderCfg := encoderConfig()
	level := ParseLevel(opts.Level)

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.Lock(os.Stderr), // Console output for the user
			level,
		),
	}

	if opts.LogFile != "" {
		logFile, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("can't open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(logFile),
			zap.InfoLevel, // Log InfoLevel and above to file
		))
	}

	ZapLogger = zap.New(zapcore.NewTee(cores...))
	Log = ZapLogger.Sugar()
	Log.Debugw("Logger initialized", "level", level.String(), "file", opts.LogFile)
	return nil
}

// Silence routes logging to the file core only (or nowhere). Used while a
// full-screen TUI owns the terminal.
func Silence(logFile string) error {
	if logFile == "" {
		ZapLogger = zap.NewNop()
		Log = ZapLogger.Sugar()
		return nil
	}
	return InitLogger(Options{Level: "fatal", LogFile: logFile})
}

func init() {
	// Usable before InitLogger runs (tests, early flag errors).
	ZapLogger = zap.NewNop()
	Log = ZapLogger.Sugar()
}

func Sync() {
	if ZapLogger != nil {
		_ = ZapLogger.Sync() // flushes buffer, if any
	}
}
