package logger_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     logger.Config
		wantErr bool
	}{
		{name: "json", cfg: logger.Config{Level: "info", Encoding: logger.EncodingJSON}},
		{name: "pretty", cfg: logger.Config{Level: "debug", Encoding: logger.EncodingPretty}},
		{name: "disabled ignores level", cfg: logger.Config{Level: "nonsense", Disable: true}},
		{name: "bad level", cfg: logger.Config{Level: "nonsense", Encoding: logger.EncodingJSON}, wantErr: true},
		{name: "stderr with caller", cfg: logger.Config{Level: "warn", Encoding: logger.EncodingJSON, Output: "stderr", Caller: true}},
		{name: "unknown sink", cfg: logger.Config{Level: "info", Encoding: logger.EncodingJSON, Output: "bogus://x"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := logger.New(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestErrorxExpandsErrxFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.FromZap(zap.New(core)).Named("test")

	l.Errorx(errx.New("boom", errx.WithCode("BOOM"), errx.WithType(errx.T_Conflict)))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].Message)
	assert.Equal(t, "test", entries[0].LoggerName)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "BOOM", ctx["error_code"])
	assert.Equal(t, errx.T_Conflict.String(), ctx["error_type"])
}

func TestWithContextAddsMeta(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.FromZap(zap.New(core))

	ctx := meta.InjectMetaToContext(t.Context(), map[meta.ContextKey]string{
		meta.TraceID:  "trace-1",
		meta.TenantID: "acme",
	})
	l.WithContext(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "trace-1", fields[string(meta.TraceID)])
	assert.Equal(t, "acme", fields[string(meta.TenantID)])
}
