package logsvc

import (
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/user"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a local logger.
type RollbarLogger struct {
	local core.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(local core.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.DevAPI.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{local: local}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close flushes pending reports.
func (l RollbarLogger) Close() {
	rollbar.Wait()
}

// expected fmt: msg | error, "key", value, map[string]interface{}, user.User, *user.User
// Rollbar takes the last string it sees as the message, so everything but errors goes into one
// extras map.
func (l RollbarLogger) prepare(msg string, args []interface{}) (remote, local []interface{}) {
	var usr *user.User
	extras := make(map[string]interface{})
	remote = append(make([]interface{}, 0, 3), msg)
	local = make([]interface{}, 0, len(args)+2)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case user.User:
			if usr == nil {
				usr = &v
			}
		case *user.User:
			if usr == nil && v != nil {
				usr = v
			}
		case error:
			remote = append(remote, v)
			local = append(local, v)
		case map[string]interface{}:
			for k, x := range v {
				extras[k] = x
			}
			local = append(local, v)
		case string:
			if i+1 < len(args) && !isUser(args[i+1]) {
				extras[v] = args[i+1]
				local = append(local, v, args[i+1])
				i++
				continue
			}
			extras["arg"+strconv.Itoa(i)] = v
			local = append(local, v)
		default:
			extras["arg"+strconv.Itoa(i)] = v
			local = append(local, v)
		}
	}
	if usr != nil {
		rollbar.SetPerson(strconv.Itoa(usr.ID), usr.Name, usr.Email)
		local = append(local, "role", usr.Role)
		extras["role"] = usr.Role.String()
	} else {
		rollbar.ClearPerson()
	}
	if len(extras) > 0 {
		remote = append(remote, extras)
	}
	return remote, local
}

func isUser(arg interface{}) bool {
	switch arg.(type) {
	case user.User, *user.User:
		return true
	}
	return false
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	remote, local := l.prepare(msg, args)
	rollbar.Debug(remote...)
	l.local.Debug(msg, local...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	remote, local := l.prepare(msg, args)
	rollbar.Info(remote...)
	l.local.Info(msg, local...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	remote, local := l.prepare(msg, args)
	rollbar.Warning(remote...)
	l.local.Warn(msg, local...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	remote, local := l.prepare(msg, args)
	rollbar.Error(remote...)
	l.local.Error(msg, local...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	remote, local := l.prepare(msg, args)
	rollbar.Critical(remote...)
	rollbar.Wait()
	l.local.Fatal(msg, local...)
}
