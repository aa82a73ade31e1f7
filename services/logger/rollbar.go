package logsvc

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/etarip26/EduConnect/core"
)

// RollbarLogger writes every entry to zap and, when enabled, reports it to Rollbar.
type RollbarLogger struct {
	zap     *zap.SugaredLogger
	enabled bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(zl *zap.SugaredLogger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{zap: zl}
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.enabled = enabled && rollbar.Token() != ""
	rollbar.SetEnabled(l.enabled)
}

// Sync flushes buffered zap entries and waits for pending Rollbar reports.
func (l *RollbarLogger) Sync() {
	_ = l.zap.Sync()
	if l.enabled {
		rollbar.Wait()
	}
}

// expected fmt: msg | error, map[string]interface{}, core.LogUser
func (l *RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var usrSet bool
	reportArgs := make([]interface{}, 0, len(args)+1)
	reportArgs = append(reportArgs, msg)
	fields := make([]interface{}, 0, 2*len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case core.LogUser:
			if !usrSet { // only set one person
				id, name, email := a.LogIdentity()
				if l.enabled {
					rollbar.SetPerson(id, name, email)
				}
				fields = append(fields, "user_id", id)
				usrSet = true
			}
		case map[string]interface{}:
			for k, v := range a {
				fields = append(fields, k, v)
			}
			reportArgs = append(reportArgs, a)
		case error:
			fields = append(fields, "error", fmt.Sprintf("%+v", a))
			reportArgs = append(reportArgs, a)
		default:
			fields = append(fields, "extra", a)
			reportArgs = append(reportArgs, a)
		}
	}
	if !usrSet && l.enabled {
		rollbar.ClearPerson()
	}
	return reportArgs, fields
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	report, fields := l.prepare(msg, args)
	if l.enabled {
		rollbar.Debug(report...)
	}
	l.zap.Debugw(msg, fields...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	report, fields := l.prepare(msg, args)
	if l.enabled {
		rollbar.Info(report...)
	}
	l.zap.Infow(msg, fields...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	report, fields := l.prepare(msg, args)
	if l.enabled {
		rollbar.Warning(report...)
	}
	l.zap.Warnw(msg, fields...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	report, fields := l.prepare(msg, args)
	if l.enabled {
		rollbar.Error(report...)
	}
	l.zap.Errorw(msg, fields...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	report, fields := l.prepare(msg, args)
	if l.enabled {
		rollbar.Critical(report...)
		rollbar.Wait()
	}
	l.zap.Fatalw(msg, fields...)
}
