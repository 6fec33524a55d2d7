package types

import (
	"errors"
	"log/slog"
	"strings"
)

// LogLevel names a syslog-style severity.
type LogLevel string

// Log levels, most severe first.
const (
	LogEmergency LogLevel = "emergency"
	LogAlert     LogLevel = "alert"
	LogCritical  LogLevel = "critical"
	LogError     LogLevel = "error"
	LogWarning   LogLevel = "warning"
	LogNotice    LogLevel = "notice"
	LogInfo      LogLevel = "info"
	LogDebug     LogLevel = "debug"
)

// ErrInvalidLogLevel is returned when a level name is not recognized.
var ErrInvalidLogLevel = errors.New("invalid log level")

// slog has four levels; the extra severities sit between them.
var slogLevels = map[LogLevel]slog.Level{
	LogEmergency: slog.LevelError + 12,
	LogAlert:     slog.LevelError + 8,
	LogCritical:  slog.LevelError + 4,
	LogError:     slog.LevelError,
	LogWarning:   slog.LevelWarn,
	LogNotice:    slog.LevelInfo + 2,
	LogInfo:      slog.LevelInfo,
	LogDebug:     slog.LevelDebug,
}

// ParseLogLevel maps a level name to a LogLevel. "warn" is accepted as an
// alias of "warning".
func ParseLogLevel(name string) (LogLevel, error) {
	l := LogLevel(strings.ToLower(strings.TrimSpace(name)))
	if l == "warn" {
		return LogWarning, nil
	}
	if _, ok := slogLevels[l]; !ok {
		return "", ErrInvalidLogLevel
	}
	return l, nil
}

// Slog returns the slog.Level for l. Unknown levels map to slog.LevelInfo.
func (l LogLevel) Slog() slog.Level {
	if lvl, ok := slogLevels[l]; ok {
		return lvl
	}
	return slog.LevelInfo
}
