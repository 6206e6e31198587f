package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const TimeLayout = "2006-01-02 15:04:05"

type Options struct {
	Stdout io.Writer // defaults to os.Stdout
	LogDir string    // empty disables the rotated JSON file
	Level  string    // debug|info|warning|error
}

// NewLogger returns a logger writing "2006-01-02 15:04:05 [LEVEL] message"
// lines to stdout and, when LogDir is set, JSON lines with all fields to a
// rotated file.
func NewLogger(opts Options) (*zap.Logger, error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	level := ParseLevel(opts.Level)

	cores := []zapcore.Core{
		messageOnly{zapcore.NewCore(zapcore.NewConsoleEncoder(lineEncoderConfig()), zapcore.AddSync(out), level)},
	}

	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return nil, err
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.LogDir, "hostwatcher.log"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = encodeLevelName
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// LevelName is the spelling used in log lines and in mail-levels-list.
func LevelName(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.InfoLevel:
		return "INFO"
	case zapcore.WarnLevel:
		return "WARNING"
	default:
		return "ERROR"
	}
}

func lineEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		EncodeLevel:      encodeBracketLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

func encodeBracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + LevelName(l) + "]")
}

func encodeLevelName(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(LevelName(l))
}

// messageOnly drops structured fields so stdout carries the plain line
// format; the file core keeps them.
type messageOnly struct {
	zapcore.Core
}

func (c messageOnly) With([]zapcore.Field) zapcore.Core { return c }

func (c messageOnly) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c messageOnly) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	return c.Core.Write(ent, nil)
}
