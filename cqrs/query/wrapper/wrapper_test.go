package wrapper_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/blocks/cqrs/query"
	"github.com/rise-and-shine/blocks/cqrs/query/wrapper"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/result"
)

type getTask struct{ ID int }

func TestLoggerQueryWrapper(t *testing.T) {
	tests := []struct {
		name    string
		handler query.Func[getTask, string]
		kind    result.Kind
		level   zapcore.Level
	}{
		{
			name: "not found is a warning",
			handler: func(context.Context, getTask) result.Result[string] {
				return result.Failf[string](result.NotFound, "TASK_NOT_FOUND", "missing")
			},
			kind:  result.NotFound,
			level: zapcore.WarnLevel,
		},
		{
			name:    "panic is recovered",
			handler: func(context.Context, getTask) result.Result[string] { panic("boom") },
			kind:    result.Unexpected,
			level:   zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			q := query.Chain[getTask, string](tt.handler,
				wrapper.NewTracingQueryWrapper[getTask, string](),
				wrapper.NewLoggerQueryWrapper[getTask, string](logger.FromZap(zap.New(core)), "get_task"),
			)

			var res result.Result[string]
			require.NotPanics(t, func() { res = q.Execute(t.Context(), getTask{ID: 7}) })
			require.True(t, res.IsFail())
			assert.Equal(t, tt.kind, res.Error().Kind)

			entries := logs.FilterField(zap.String("query_name", "get_task")).All()
			require.NotEmpty(t, entries)
			assert.Equal(t, tt.level, entries[len(entries)-1].Level)
		})
	}
}

func TestLoggerQueryWrapperSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	q := query.Chain[getTask, string](
		query.Func[getTask, string](func(context.Context, getTask) result.Result[string] { return result.Ok("buy milk") }),
		wrapper.NewLoggerQueryWrapper[getTask, string](logger.FromZap(zap.New(core)), "get_task"),
	)

	assert.Equal(t, "buy milk", q.Execute(t.Context(), getTask{ID: 1}).Value())
	assert.Zero(t, logs.Len())
}
