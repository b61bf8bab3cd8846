// Package log provides the leveled loggers shared by the analysis packages.
package log

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// Logger is the interface for logging.
type Logger interface {
	// Printf prints a formatted message to the log.
	Printf(format string, v ...interface{})

	// Print prints a message to the log.
	Print(v ...interface{})

	// Enabled reports whether messages of this logger are written.
	Enabled() bool
}

// Level represents the log level.
type Level int

const (
	// DebugLevel reports every CEGAR step, constraint and model.
	DebugLevel Level = iota
	// InfoLevel reports iterations and verdicts.
	InfoLevel
	// ErrorLevel reports failures only.
	ErrorLevel
	// DisabledLevel turns logging off.
	DisabledLevel
)

var levelNames = map[string]Level{
	"debug":    DebugLevel,
	"info":     InfoLevel,
	"error":    ErrorLevel,
	"disabled": DisabledLevel,
}

func (l Level) String() string {
	for name, level := range levelNames {
		if level == l {
			return name
		}
	}
	return "unknown"
}

var (
	// Debug is a debug-level logger.
	Debug Logger = &logger{DebugLevel, color.New(color.FgCyan)}
	// Info is an info-level logger.
	Info Logger = &logger{InfoLevel, color.New(color.FgGreen)}
	// Error is an error-level logger.
	Error Logger = &logger{ErrorLevel, color.New(color.FgRed)}
)

var (
	mu      sync.RWMutex
	current = InfoLevel
	out     = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.LUTC)
)

type logger struct {
	level Level
	color *color.Color
}

func (l *logger) tag() string {
	return "[" + l.color.Sprint(l.level) + "] "
}

func (l *logger) Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return l.level >= current
}

func (l *logger) Printf(format string, v ...interface{}) {
	if l.Enabled() {
		out.Printf(l.tag()+format, v...)
	}
}

func (l *logger) Print(v ...interface{}) {
	if l.Enabled() {
		out.Print(append([]interface{}{l.tag()}, v...)...)
	}
}

// SetLevel sets the current logging level.
func SetLevel(level Level) {
	mu.Lock()
	current = level
	mu.Unlock()
}

// ParseLevel returns the level with the given case-insensitive name.
func ParseLevel(name string) (Level, error) {
	level, ok := levelNames[strings.ToLower(name)]
	if !ok {
		return DisabledLevel, errors.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// SetLevelByName sets the current logging level with a name.
func SetLevelByName(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	SetLevel(level)
	return nil
}

// SetOutput redirects all loggers to w.
func SetOutput(w io.Writer) {
	out.SetOutput(w)
}
