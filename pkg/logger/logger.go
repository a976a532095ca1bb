package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Leveled logger used across the duck service.
// - thin package-level facade over zerolog
// - provides Debug/Info/Warn/Error/Fatal variants and Init(level)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	level  = zerolog.InfoLevel
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	default:
		level = zerolog.InfoLevel
	}
}

// UseConsole switches output to zerolog's human friendly console writer.
func UseConsole() {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
}

func event(l zerolog.Level) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return nil
	}
	return logger.WithLevel(l)
}

func Debugf(format string, v ...interface{}) {
	if e := event(zerolog.DebugLevel); e != nil {
		e.Msgf(format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if e := event(zerolog.InfoLevel); e != nil {
		e.Msgf(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if e := event(zerolog.WarnLevel); e != nil {
		e.Msgf(format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if e := event(zerolog.ErrorLevel); e != nil {
		e.Msgf(format, v...)
	}
}

// Fatalf always logs and exits the process.
func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Println kept for brief messages (maps to Info)
func Println(v ...interface{}) {
	if e := event(zerolog.InfoLevel); e != nil {
		e.Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
	}
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}
