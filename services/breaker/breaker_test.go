package breaker

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{ warnings int }

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Warn(string, ...interface{})  { l.warnings++ }
func (l *nopLogger) Error(string, ...interface{}) {}
func (l *nopLogger) Fatal(string, ...interface{}) {}

func TestNew_opensAfterThreeFailures(t *testing.T) {
	logger := new(nopLogger)
	cb := New(RabbitMQ, logger)
	fail := func() (interface{}, error) { return nil, errors.New("down") }

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(fail)
		assert.EqualError(t, err, "down")
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, 1, logger.warnings)

	_, err := cb.Execute(fail)
	assert.Equal(t, gobreaker.ErrOpenState, err)
}
