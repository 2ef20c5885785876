package logsvc

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/tarpaulin/core"
	"github.com/trezcool/tarpaulin/core/authz"
)

// depth of the caller of a RollbarLogger method, as seen from print
const callDepth = 4

type level struct {
	name   string
	report func(interfaces ...interface{})
}

var (
	levelDebug = level{"DEBUG", rollbar.Debug}
	levelInfo  = level{"INFO", rollbar.Info}
	levelWarn  = level{"WARN", rollbar.Warning}
	levelError = level{"ERROR", rollbar.Error}
	levelFatal = level{"FATAL", rollbar.Critical}
)

// RollbarLogger reports entries to rollbar and echoes them to a std logger.
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

// New returns the logger of an app `component` (API, DB, ADMIN..) writing to `out`.
// Rollbar reporting is off in debug and test mode.
func New(component string, out io.Writer, conf *core.Config) *RollbarLogger {
	l := NewRollbarLogger(
		log.New(out, component+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	l.Enable(!conf.Debug && !conf.TestMode)
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, authz.Identity
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var idSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		id, ok := arg.(authz.Identity)
		if !ok {
			newArgs = append(newArgs, arg)
			continue
		}
		// only one caller
		if !idSet && !id.IsAnonymous() {
			rollbar.SetPerson(id.ID, id.Role, "")
			idSet = true
		}
	}
	if !idSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l RollbarLogger) print(lvl level, msg string, args []interface{}) {
	var b strings.Builder
	b.WriteString(lvl.name)
	b.WriteString(" ")
	b.WriteString(msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case authz.Identity:
			if a.IsAnonymous() {
				continue
			}
			_, _ = fmt.Fprintf(&b, "\n\tcaller: %s (%s)", a.ID, a.Role)
		case error:
			_, _ = fmt.Fprintf(&b, "\n\t%+v", a)
		default:
			_, _ = fmt.Fprintf(&b, "\n\t%v", a)
		}
	}
	_ = l.std.Output(callDepth, b.String())
}

func (l RollbarLogger) log(lvl level, msg string, args []interface{}) {
	lvl.report(l.prepare(msg, args)...)
	l.print(lvl, msg, args)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(levelInfo, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(levelWarn, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelFatal, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
