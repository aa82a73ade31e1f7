// Package breaker builds the circuit breakers guarding outbound calls (email API, message broker).
package breaker

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/etarip26/EduConnect/core"
)

// Names of the breakers
const (
	Sendgrid = "Sendgrid"
	RabbitMQ = "RabbitMQ-Publisher"
	Redis    = "Redis"
)

// New returns a breaker that opens after 3 consecutive failures.
func New(name string, logger core.Logger) *gobreaker.CircuitBreaker {
	var timeout time.Duration
	switch name {
	case Redis:
		timeout = 5 * time.Second
	case Sendgrid:
		timeout = 15 * time.Second
	default:
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(fmt.Sprintf("circuit breaker %s: %s -> %s", name, from, to))
		},
	})
}
