package core

import (
	"fmt"
	"time"
)

type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogUser is implemented by accounts that can be attached to log entries as the acting person.
type LogUser interface {
	LogIdentity() (id, name, email string)
}

// Audit writes an admin audit line: who did what to which entity, and when.
func Audit(logger Logger, actorID, action, targetID string) {
	logger.Info(
		fmt.Sprintf("audit: %s", action),
		map[string]interface{}{
			"actor":  actorID,
			"action": action,
			"target": targetID,
			"at":     time.Now().UTC().Format(time.RFC3339),
		},
	)
}
