package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Log flags
const (
	LstdFlags     = log.LstdFlags
	Lmicroseconds = log.Lmicroseconds
)

// Logger wraps the standard log.Logger with highlighted found and warning lines
type Logger struct {
	*log.Logger
	found *color.Color
	warn  *color.Color
}

// New creates a new logger writing to stdout
func New() *Logger {
	return NewWriter(os.Stdout)
}

// NewWriter creates a new logger that writes to the provided writer.
// Colours are only emitted when w is a terminal.
func NewWriter(w io.Writer) *Logger {
	l := &Logger{
		Logger: log.New(w, "", log.LstdFlags),
		found:  color.New(color.FgGreen, color.Bold),
		warn:   color.New(color.FgYellow),
	}
	if f, ok := w.(*os.File); !ok || f != os.Stdout || color.NoColor {
		l.found.DisableColor()
		l.warn.DisableColor()
	}
	return l
}

// SetOutput sets the output destination for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// SetFlags sets the output flags for the logger
func (l *Logger) SetFlags(flag int) {
	l.Logger.SetFlags(flag)
}

// Found logs a line reporting a discovered key
func (l *Logger) Found(format string, v ...any) {
	l.Output(2, l.found.Sprint(fmt.Sprintf(format, v...)))
}

// Warn logs a recoverable condition such as backpressure
func (l *Logger) Warn(format string, v ...any) {
	l.Output(2, l.warn.Sprint(fmt.Sprintf(format, v...)))
}
