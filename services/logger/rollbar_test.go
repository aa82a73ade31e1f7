package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/etarip26/EduConnect/core"
)

type logUser struct{ id string }

func (u logUser) LogIdentity() (string, string, string) { return u.id, "Test", "test@test.bd" }

func newObservedLogger() (*RollbarLogger, *observer.ObservedLogs) {
	zcore, logs := observer.New(zapcore.DebugLevel)
	conf := &core.Config{Env: "TEST"}
	l := NewRollbarLogger(zap.New(zcore).Sugar(), conf)
	l.Enable(false)
	return l, logs
}

func TestRollbarLogger_fields(t *testing.T) {
	l, logs := newObservedLogger()

	l.Info("audit: user.suspend", map[string]interface{}{"actor": "a1", "target": "u1"})
	l.Error("failed", errors.New("boom"), logUser{id: "u2"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "a1", ctx["actor"])
	assert.Equal(t, "u1", ctx["target"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	ctx = entries[1].ContextMap()
	assert.Equal(t, "u2", ctx["user_id"])
	assert.Contains(t, ctx["error"], "boom")
}

func TestRollbarLogger_onlyOnePerson(t *testing.T) {
	l, logs := newObservedLogger()

	l.Warn("twice", logUser{id: "first"}, logUser{id: "second"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].ContextMap()["user_id"])
}

func TestAudit(t *testing.T) {
	l, logs := newObservedLogger()

	core.Audit(l, "admin1", "teacher.verify", "t1")

	entries := logs.FilterMessage("audit: teacher.verify").AllUntimed()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "admin1", ctx["actor"])
	assert.Equal(t, "teacher.verify", ctx["action"])
	assert.Equal(t, "t1", ctx["target"])
	assert.NotEmpty(t, ctx["at"])
}
