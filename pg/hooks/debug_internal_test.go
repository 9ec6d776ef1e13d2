package hooks

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	quiet := &DebugHook{slow: 50 * time.Millisecond}
	loud := &DebugHook{slow: 50 * time.Millisecond, verbose: true}
	noSlow := &DebugHook{verbose: true}

	tests := []struct {
		name string
		hook *DebugHook
		err  error
		took time.Duration
		want level
	}{
		{"quiet success", quiet, nil, time.Millisecond, levelSkip},
		{"verbose success", loud, nil, time.Millisecond, levelDebug},
		{"tx done is success", quiet, sql.ErrTxDone, time.Millisecond, levelSkip},
		{"no rows", quiet, sql.ErrNoRows, time.Millisecond, levelWarn},
		{"failure", quiet, errors.New("boom"), time.Millisecond, levelError},
		{"failure beats slow", loud, errors.New("boom"), time.Second, levelError},
		{"slow", quiet, nil, 80 * time.Millisecond, levelWarn},
		{"threshold disabled", noSlow, nil, time.Hour, levelDebug},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.hook.levelFor(tc.err, tc.took))
		})
	}
}
