package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []string
}

func (r *recorder) SendError(_ context.Context, code, _, op string, _ map[string]string) error {
	r.sent = append(r.sent, op+"/"+code)
	return nil
}

func TestCooldown(t *testing.T) {
	rec := &recorder{}
	p := WithCooldown(rec, time.Minute).(*cooldownProvider)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	require.NoError(t, p.SendError(t.Context(), "E1", "boom", "command: A", nil))
	require.NoError(t, p.SendError(t.Context(), "E1", "boom", "command: A", nil))
	require.NoError(t, p.SendError(t.Context(), "E2", "boom", "command: A", nil))

	clock = clock.Add(2 * time.Minute)
	require.NoError(t, p.SendError(t.Context(), "E1", "boom", "command: A", nil))

	assert.Equal(t, []string{"command: A/E1", "command: A/E2", "command: A/E1"}, rec.sent)
}

func TestGlobalDefaultsToNop(t *testing.T) {
	require.NoError(t, SendError(t.Context(), "E", "m", "op", nil))

	rec := &recorder{}
	SetGlobal(rec)
	t.Cleanup(func() { SetGlobal(Nop()) })

	require.NoError(t, SendError(t.Context(), "E", "m", "op", nil))
	assert.Equal(t, []string{"op/E"}, rec.sent)
}
