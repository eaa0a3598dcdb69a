// Package debug builds the command line logger and profiler.
package debug

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// LoggerOptions configures NewLogger
type LoggerOptions struct {
	Level   zerolog.Level
	NoColor bool
	// Caller adds the package, file and line of each log call
	Caller bool
}

// NewLogger returns a console logger writing to w with the time and caller hooks installed
func NewLogger(w io.Writer, opts LoggerOptions) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, NoColor: opts.NoColor}

	logger := zerolog.New(out).Level(opts.Level).Hook(CustomTimeHook{})
	if opts.Caller {
		logger = logger.Hook(CustomCallerHook{WithColor: !opts.NoColor})
	}
	return logger
}

func callerSkipFrameCount(e *zerolog.Event) int {
	// zerolog keeps the extra skip of Event.CallerSkipFrame unexported
	field := reflect.ValueOf(e).Elem().FieldByName("skipFrame")
	if field.IsValid() {
		return int(field.Int())
	}
	return 0
}

// CustomTimeHook stamps events with the local time. The console writer
// prints it as given when it does not parse as zerolog.TimeFieldFormat.
type CustomTimeHook struct {
	Format string
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		// millisecond precision, no timezone
		format = "2006-01-02T15:04:05.0000Z"
	}
	e.Str(zerolog.TimestampFieldName, time.Now().Format(format))
}

type CustomCallerHook struct {
	WithColor bool
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(callerSkipFrameCount(e) + 3)
	if !ok {
		return
	}

	pkg, _ := GetPackageAndFuncFromFuncName(runtime.FuncForPC(pc).Name())

	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// GetPackageAndFuncFromFuncName splits a runtime function name such as
// "github.com/a/b.(*T).M" into its package and function parts
func GetPackageAndFuncFromFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}

	firstDot := strings.IndexByte(name[lastSlash:], '.') + lastSlash
	if firstDot < lastSlash {
		return name, ""
	}

	pkg = name[:firstDot]
	function = name[firstDot+1:]

	if before, after, ok := strings.Cut(pkg, ".("); ok {
		pkg = before
		function = "(" + after + "." + function
	}

	return pkg, function
}

func FormatCaller(pkg, path string, number int, colorize bool) string {
	p := FileNameOfPath(path)
	if colorize {
		p = color.New(color.Bold).Sprint(p)
		num := color.New(color.FgHiRed, color.Bold).Sprintf("%d", number)
		sep := color.New(color.Faint).Sprint(":")

		return fmt.Sprintf("%s%s%s%s%s", pkg, sep, p, sep, num)
	}

	return fmt.Sprintf("%s:%s:%d", pkg, p, number)
}

func FileNameOfPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
