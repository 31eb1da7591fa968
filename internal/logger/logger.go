package logger

import (
	"encoding/json"
	"io"
	"os"
	"runtime"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// ParseLevel DEBUG, INFO, WARN, ERROR kabul eder, yoksa INFO.
func ParseLevel(s string) Level {
	for l, name := range levelNames {
		if name == s {
			return l
		}
	}
	return LevelInfo
}

type LogEntry struct {
	Timestamp string      `json:"timestamp"`
	Level     string      `json:"level"`
	Service   string      `json:"service"`
	Action    string      `json:"action"`
	Message   string      `json:"message"`
	Hostname  string      `json:"hostname"`
	RequestID string      `json:"request_id,omitempty"`
	Error     *ErrorEntry `json:"error,omitempty"`
}

type ErrorEntry struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack,omitempty"`
}

// Logger her satıra bir JSON nesnesi yazar.
type Logger struct {
	service  string
	hostname string
	min      Level

	mu  sync.Mutex
	out io.Writer
}

func New(service string, min Level) *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		service:  service,
		hostname: hostname,
		min:      min,
		out:      os.Stdout,
	}
}

// SetOutput çıktıyı yönlendirir (testler).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// With aynı çıktıyı paylaşan başka servis adlı logger döner.
func (l *Logger) With(service string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{service: service, hostname: l.hostname, min: l.min, out: l.out}
}

func (l *Logger) Debug(requestID, action, message string) {
	l.log(LevelDebug, requestID, action, message, nil)
}

func (l *Logger) Info(requestID, action, message string) {
	l.log(LevelInfo, requestID, action, message, nil)
}

func (l *Logger) Warn(requestID, action, message string) {
	l.log(LevelWarn, requestID, action, message, nil)
}

func (l *Logger) Error(requestID, action, message string, err error) {
	var entry *ErrorEntry
	if err != nil {
		buf := make([]byte, 1024)
		n := runtime.Stack(buf, false)
		entry = &ErrorEntry{Msg: err.Error(), Stack: string(buf[:n])}
	}
	l.log(LevelError, requestID, action, message, entry)
}

func (l *Logger) log(level Level, requestID, action, message string, errorEntry *ErrorEntry) {
	if level < l.min {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     levelNames[level],
		Service:   l.service,
		Action:    action,
		Message:   message,
		Hostname:  l.hostname,
		RequestID: requestID,
		Error:     errorEntry,
	}

	data, _ := json.Marshal(entry)
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(data)
}

// Nop hiçbir şey yazmaz.
func Nop() *Logger {
	l := New("nop", LevelError+1)
	l.out = io.Discard
	return l
}
