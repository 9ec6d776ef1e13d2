package wrapper_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/cqrs/command/wrapper"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/result"
)

type createTask struct {
	Title    string `json:"title"    validate:"notblank"`
	Password string `json:"password" mask:"true"`
}

type alertRecorder struct {
	mu    sync.Mutex
	codes []string
	sent  chan struct{}
}

func newAlertRecorder() *alertRecorder {
	return &alertRecorder{sent: make(chan struct{}, 8)}
}

func (r *alertRecorder) SendError(_ context.Context, code, _, _ string, _ map[string]string) error {
	r.mu.Lock()
	r.codes = append(r.codes, code)
	r.mu.Unlock()
	r.sent <- struct{}{}
	return nil
}

func returning(res result.Result[command.Empty]) command.Command[createTask, command.Empty] {
	return command.Func[createTask, command.Empty](func(context.Context, createTask) result.Result[command.Empty] {
		return res
	})
}

func TestRecoveryWrapper(t *testing.T) {
	h := command.Chain(
		command.Command[createTask, command.Empty](command.Func[createTask, command.Empty](
			func(context.Context, createTask) result.Result[command.Empty] { panic("boom") },
		)),
		wrapper.NewRecoveryCommandWrapper[createTask, command.Empty](logger.Nop(), "create_task"),
	)

	var res result.Result[command.Empty]
	require.NotPanics(t, func() { res = h.Execute(t.Context(), createTask{Title: "x"}) })
	require.True(t, res.IsFail())
	assert.Equal(t, result.Unexpected, res.Error().Kind)
	assert.Equal(t, wrapper.CodePanicRecovered, res.Error().Code)
}

func TestValidationWrapper(t *testing.T) {
	called := false
	h := command.Chain(
		command.Command[createTask, command.Empty](command.Func[createTask, command.Empty](
			func(context.Context, createTask) result.Result[command.Empty] {
				called = true
				return result.Ok(command.Empty{})
			},
		)),
		wrapper.NewValidationCommandWrapper[createTask, command.Empty](),
	)

	res := h.Execute(t.Context(), createTask{Title: "   "})
	require.True(t, res.IsFail())
	assert.Equal(t, result.ValidationFailed, res.Error().Kind)
	assert.Contains(t, res.Error().Fields, "title")
	assert.False(t, called)

	require.True(t, h.Execute(t.Context(), createTask{Title: "buy milk"}).IsOk())
	assert.True(t, called)
}

func TestLoggerWrapperLevels(t *testing.T) {
	tests := []struct {
		name  string
		res   result.Result[command.Empty]
		level zapcore.Level
	}{
		{"success", result.Ok(command.Empty{}), zapcore.InfoLevel},
		{"expected failure", result.Failf[command.Empty](result.Conflict, "TASK_EXISTS", "exists"), zapcore.WarnLevel},
		{"unexpected failure", result.Failf[command.Empty](result.Unexpected, "DB_DOWN", "db down"), zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			h := command.Chain(returning(tt.res),
				wrapper.NewLoggerCommandWrapper[createTask, command.Empty](logger.FromZap(zap.New(core)), "create_task"),
			)

			h.Execute(t.Context(), createTask{Title: "x", Password: "secret"})

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, "create_task", entries[0].ContextMap()["command_name"])

			input, ok := entries[0].ContextMap()["input"].(*orderedmap.OrderedMap[string, any])
			require.True(t, ok)
			password, _ := input.Get("password")
			assert.Equal(t, "***masked-string***", password)
		})
	}
}

func TestAlertWrapperOnlyAlertsUnexpected(t *testing.T) {
	rec := newAlertRecorder()
	wrap := wrapper.NewAlertCommandWrapper[createTask, command.Empty](logger.Nop(), rec, "create_task")

	expected := command.Chain(returning(result.Failf[command.Empty](result.NotFound, "TASK_NOT_FOUND", "missing")), wrap)
	unexpected := command.Chain(returning(result.Failf[command.Empty](result.Unexpected, "DB_DOWN", "db down")), wrap)

	assert.True(t, expected.Execute(t.Context(), createTask{}).IsFail())
	res := unexpected.Execute(t.Context(), createTask{})
	assert.Equal(t, "DB_DOWN", res.Error().Code)

	select {
	case <-rec.sent:
	case <-time.After(time.Second):
		t.Fatal("alert was not sent")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"DB_DOWN"}, rec.codes)
}

func TestMetaInjectWrapper(t *testing.T) {
	var seen map[meta.ContextKey]string
	inner := command.Func[createTask, command.Empty](func(ctx context.Context, _ createTask) result.Result[command.Empty] {
		seen = meta.ExtractMetaFromContext(ctx)
		return result.Ok(command.Empty{})
	})
	h := command.Chain(command.Command[createTask, command.Empty](inner),
		wrapper.NewMetaInjectCommandWrapper[createTask, command.Empty]("todo", "1.0.0"),
	)

	h.Execute(t.Context(), createTask{})
	assert.Equal(t, "todo", seen[meta.ServiceName])
	assert.Contains(t, seen[meta.TraceID], "man-")

	ctx := meta.InjectMetaToContext(t.Context(), map[meta.ContextKey]string{meta.TraceID: "abc"})
	h.Execute(ctx, createTask{})
	assert.Equal(t, "abc", seen[meta.TraceID])
}

func TestTimeoutWrapper(t *testing.T) {
	var deadline bool
	inner := command.Func[createTask, command.Empty](func(ctx context.Context, _ createTask) result.Result[command.Empty] {
		_, deadline = ctx.Deadline()
		return result.Ok(command.Empty{})
	})
	h := command.Chain(command.Command[createTask, command.Empty](inner),
		wrapper.NewTimeoutCommandWrapper[createTask, command.Empty](time.Second),
	)

	h.Execute(t.Context(), createTask{})
	assert.True(t, deadline)
}

func TestTimeoutWrapperDisabled(t *testing.T) {
	var deadline bool
	inner := command.Func[createTask, command.Empty](func(ctx context.Context, _ createTask) result.Result[command.Empty] {
		_, deadline = ctx.Deadline()
		return result.Ok(command.Empty{})
	})
	h := command.Chain(command.Command[createTask, command.Empty](inner),
		wrapper.NewTimeoutCommandWrapper[createTask, command.Empty](0),
	)

	h.Execute(t.Context(), createTask{})
	assert.False(t, deadline)
}
