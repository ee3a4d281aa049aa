// Copyright (c) 2024 tgkit

package utils

import (
	"fmt"
	"io"
	"maps"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	TraceLevel LogLevel = iota + 1
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
	NoLevel
)

func (l LogLevel) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	case NoLevel:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a config string to a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info", "":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	case "none", "disable", "disabled":
		return NoLevel
	default:
		return InfoLevel
	}
}

var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func levelColor(level LogLevel) string {
	switch level {
	case TraceLevel:
		return colorCyan
	case DebugLevel:
		return colorBlue
	case InfoLevel:
		return colorGreen
	case WarnLevel:
		return colorYellow
	case ErrorLevel, FatalLevel:
		return colorRed
	default:
		return colorReset
	}
}

type Logger struct {
	mu              sync.RWMutex
	level           LogLevel
	prefix          string
	output          io.Writer
	fields          map[string]any
	color           bool
	timestampFormat string
}

func NewLogger(prefix string) *Logger {
	return &Logger{
		level:           InfoLevel,
		prefix:          prefix,
		output:          os.Stdout,
		fields:          make(map[string]any),
		timestampFormat: "2006-01-02 15:04:05.000",
	}
}

func (l *Logger) Clone() *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	clone := &Logger{
		level:           l.level,
		prefix:          l.prefix,
		output:          l.output,
		fields:          make(map[string]any),
		color:           l.color,
		timestampFormat: l.timestampFormat,
	}
	maps.Copy(clone.fields, l.fields)
	return clone
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	clone := l.Clone()
	clone.prefix = prefix
	return clone
}

func (l *Logger) WithField(key string, value any) *Logger {
	clone := l.Clone()
	clone.fields[key] = value
	return clone
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	clone := l.Clone()
	maps.Copy(clone.fields, fields)
	return clone
}

func (l *Logger) WithError(err error) *Logger {
	clone := l.Clone()
	clone.fields["error"] = err
	return clone
}

func (l *Logger) SetLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level == 0 {
		level = InfoLevel
	}
	l.level = level
	return l
}

func (l *Logger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) Lev() LogLevel {
	return l.GetLevel()
}

func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	return l
}

func (l *Logger) SetColor(enabled bool) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = enabled
	return l
}

func (l *Logger) log(level LogLevel, msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.level || l.level == NoLevel {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format(l.timestampFormat))
	b.WriteByte(' ')

	lev := fmt.Sprintf("[%s]", level)
	if l.color {
		lev = levelColor(level) + lev + colorReset
	}
	b.WriteString(lev)

	if l.prefix != "" {
		b.WriteString(" [" + l.prefix + "]")
	}
	b.WriteByte(' ')
	b.WriteString(msg)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
		}
	}
	b.WriteByte('\n')

	fmt.Fprint(l.output, b.String())
}

func (l *Logger) Trace(args ...any) { l.log(TraceLevel, fmt.Sprint(args...)) }
func (l *Logger) Debug(args ...any) { l.log(DebugLevel, fmt.Sprint(args...)) }
func (l *Logger) Info(args ...any)  { l.log(InfoLevel, fmt.Sprint(args...)) }
func (l *Logger) Warn(args ...any)  { l.log(WarnLevel, fmt.Sprint(args...)) }
func (l *Logger) Error(args ...any) { l.log(ErrorLevel, fmt.Sprint(args...)) }

func (l *Logger) Fatal(args ...any) {
	l.log(FatalLevel, fmt.Sprint(args...))
	os.Exit(1)
}

func (l *Logger) Tracef(format string, args ...any) { l.log(TraceLevel, fmt.Sprintf(format, args...)) }
func (l *Logger) Debugf(format string, args ...any) { l.log(DebugLevel, fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.log(InfoLevel, fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(WarnLevel, fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.log(ErrorLevel, fmt.Sprintf(format, args...)) }

func (l *Logger) Fatalf(format string, args ...any) {
	l.log(FatalLevel, fmt.Sprintf(format, args...))
	os.Exit(1)
}
