package logger

import (
	"github.com/code19m/errx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingJSON   = "json"
	EncodingPretty = "pretty"

	levelDebug = "debug"
)

// Config selects level, format and destination of log output.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn or error.
	Level string `yaml:"level" validate:"oneof=debug info warn error" default:"debug"`

	// Encoding is "json" for log shippers or "pretty" for a colored header line
	// per entry followed by indented fields.
	Encoding string `yaml:"encoding" validate:"oneof=json pretty" default:"json"`

	// Output is a zap sink URL or path for the json encoding. The pretty encoding always writes to stdout.
	Output string `yaml:"output" default:"stdout"`

	// Caller adds the calling file and line to every entry.
	Caller bool `yaml:"caller" default:"false"`

	// Disable swaps in a no-op logger.
	Disable bool `yaml:"disable" default:"false"`
}

func (c Config) zapConfig() (*zap.Config, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"level": c.Level}))
	}

	output := c.Output
	if output == "" {
		output = "stdout"
	}

	return &zap.Config{
		Level:             level,
		Encoding:          EncodingJSON,
		EncoderConfig:     encoderConfig(),
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !c.Caller,
		DisableStacktrace: true,
	}, nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "time",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
