package integration_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/integration"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/memstore"
	"github.com/rise-and-shine/blocks/repository"
	"github.com/rise-and-shine/blocks/result"
	"github.com/rise-and-shine/blocks/tenancy"
	"github.com/rise-and-shine/blocks/uow"
)

type user struct {
	ID    string
	Email string
}

type createUser struct {
	ID    string
	Email string
}

type alerts struct {
	mu    sync.Mutex
	codes []string
}

func (a *alerts) SendError(_ context.Context, code, _, _ string, _ map[string]string) error {
	a.mu.Lock()
	a.codes = append(a.codes, code)
	a.mu.Unlock()
	return nil
}

func createUserHandler(
	db *memstore.DB,
	users *memstore.Table[user, string],
	emitter *integration.Emitter,
) command.Create[createUser, string] {
	def := repository.Definition[user, string]{Name: "user", IDOf: func(u *user) string { return u.ID }}

	return command.Func[createUser, command.CreateResponse[string]](
		func(ctx context.Context, in createUser) result.Result[command.CreateResponse[string]] {
			u := uow.New[*memstore.Tx](db)
			defer u.Close()

			repo := repository.NewRepo(def, users, u)
			if err := repo.Add(ctx, tenancy.System("admin"), &user{ID: in.ID, Email: in.Email}); err != nil {
				return result.FromError[command.CreateResponse[string]](err)
			}

			event := userCreated{Base: integration.NewBase(), UserID: in.ID, Email: in.Email}
			if err := u.AfterCommit(emitter.AfterCommit(event)); err != nil {
				return result.FromError[command.CreateResponse[string]](err)
			}

			if _, err := u.Commit(ctx); err != nil {
				return result.FromError[command.CreateResponse[string]](err)
			}
			return command.Created(in.ID)
		},
	)
}

func TestPublishFailureDoesNotAffectCommandResult(t *testing.T) {
	db := memstore.NewDB()
	users := memstore.NewTable(db, memstore.Config[user, string]{
		Name: "users",
		ID:   func(u *user) string { return u.ID },
	})

	core, logs := observer.New(zapcore.ErrorLevel)
	rec := &alerts{}
	broker := integration.PublisherFunc(func(context.Context, string, []byte) error {
		return errors.New("broker unreachable")
	})
	emitter := integration.NewEmitter(broker, logger.FromZap(zap.New(core)), integration.WithAlertProvider(rec))

	res := createUserHandler(db, users, emitter).Execute(t.Context(), createUser{ID: "u-1", Email: "a@b.c"})

	require.True(t, res.IsOk(), res.String())
	assert.Equal(t, "u-1", res.Value().ID)

	stored, err := users.FindOne(t.Context(), repository.Criteria{ID: "u-1"})
	require.NoError(t, err)
	require.NotNil(t, stored, "the local transaction stays committed")

	failures := logs.FilterField(zap.String("event_name", "identity.user_created")).All()
	require.Len(t, failures, 1)
	assert.Equal(t, integration.CodePublishFailed, failures[0].ContextMap()["error_code"])
	assert.Contains(t, failures[0].Message, "broker unreachable")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{integration.CodePublishFailed}, rec.codes)
}

func TestEmitterPublishesThroughRouter(t *testing.T) {
	r := integration.NewRouter(logger.Nop())
	var got []string
	integration.Subscribe[taskCompleted](r, integration.HandlerFunc[taskCompleted](func(_ context.Context, e taskCompleted) error {
		got = append(got, e.EventID().String())
		return nil
	}))

	emitter := integration.NewEmitter(r, logger.Nop())
	a := taskCompleted{Base: integration.NewBase(), TaskID: 1}
	b := taskCompleted{Base: integration.NewBase(), TaskID: 2}
	bad := leaky{Base: integration.NewBase()}

	assert.Equal(t, 2, emitter.PublishAll(t.Context(), a, bad, b))
	assert.Equal(t, []string{a.EventID().String(), b.EventID().String()}, got)
}
