package logsvc

import (
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/user"
)

// RollbarLogger reports to rollbar and echoes every entry to a std logger.
// Entries logged on behalf of a staff member carry their role, so reports can be told apart
// between assessors filling in assessments and consultants finalizing evaluations.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable turns reporting to rollbar on or off. Messages are still printed.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is a log call split into what rollbar reports and who it is reported for.
type entry struct {
	args   []interface{} // msg, then errors; extras last
	extras map[string]interface{}
	usr    *user.User
}

// newEntry accepts: error, map[string]interface{} (request extras), user.User (first one wins).
func newEntry(msg string, args []interface{}) entry {
	e := entry{args: make([]interface{}, 0, len(args)+2)}
	e.args = append(e.args, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if e.usr == nil {
				usr := a
				e.usr = &usr
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(a)+1)
			}
			for k, v := range a {
				e.extras[k] = v
			}
		default:
			e.args = append(e.args, arg)
		}
	}
	if e.usr != nil && e.usr.Role != "" {
		if e.extras == nil {
			e.extras = make(map[string]interface{}, 1)
		}
		e.extras["role"] = e.usr.Role
	}
	if e.extras != nil {
		e.args = append(e.args, e.extras)
	}
	return e
}

// person returns the rollbar person line, e.g. "user 7 (assessor)".
func (e entry) person() string {
	if e.usr == nil {
		return ""
	}
	p := "user " + strconv.Itoa(e.usr.ID)
	if e.usr.Role != "" {
		p += " (" + e.usr.Role + ")"
	}
	return p
}

func (l RollbarLogger) report(level string, msg string, args []interface{}) {
	e := newEntry(msg, args)
	if e.usr != nil {
		rollbar.SetPerson(strconv.Itoa(e.usr.ID), e.usr.Name, e.usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.args...)
	l.print(msg, e)
}

func (l RollbarLogger) print(msg string, e entry) {
	if p := e.person(); p != "" {
		msg += " - " + p
	}
	l.std.Println(msg)
	for _, arg := range e.args[1:] {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	l.std.Fatal(msg)
}
