package utils

import (
	"io"
	"log"
	"os"

	"github.com/google/uuid"
)

// Log is the leveled logging capability handed to every component.
// Silly is the most verbose level, below Debug.
type Log interface {
	Error(v ...interface{})
	Warn(v ...interface{})
	Info(v ...interface{})
	Debug(v ...interface{})
	Silly(v ...interface{})
}

type Logger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
	sillyLogger *log.Logger
	debug       bool
	silly       bool
	requestID   string
}

func NewLogger(debug, silly bool, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	flags := log.Ldate | log.Ltime

	return &Logger{
		errorLogger: log.New(out, "ERROR: ", flags),
		warnLogger:  log.New(out, "WARN: ", flags),
		infoLogger:  log.New(out, "INFO: ", flags),
		debugLogger: log.New(out, "DEBUG: ", flags),
		sillyLogger: log.New(out, "SILLY: ", flags),
		debug:       debug || silly,
		silly:       silly,
	}
}

// NewRequestID returns a fresh id for request-scoped loggers.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequest returns a child logger that prefixes every line with the
// request id. Request state lives on the logger instance, never in a
// package-level variable, so concurrent requests cannot bleed into each
// other's lines.
func (l *Logger) WithRequest(id string) *Logger {
	child := *l
	child.requestID = "[" + id + "]"
	return &child
}

func (l *Logger) line(args []interface{}) []interface{} {
	if l.requestID == "" {
		return args
	}
	return append([]interface{}{l.requestID}, args...)
}

func (l *Logger) Error(v ...interface{}) {
	l.errorLogger.Println(l.line(v)...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.errorLogger.Println(l.line(v)...)
	os.Exit(1)
}

func (l *Logger) Warn(v ...interface{}) {
	l.warnLogger.Println(l.line(v)...)
}

func (l *Logger) Info(v ...interface{}) {
	l.infoLogger.Println(l.line(v)...)
}

func (l *Logger) Debug(v ...interface{}) {
	if l.debug {
		l.debugLogger.Println(l.line(v)...)
	}
}

func (l *Logger) Silly(v ...interface{}) {
	if l.silly {
		l.sillyLogger.Println(l.line(v)...)
	}
}
