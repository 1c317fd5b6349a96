package domain

import (
	"fmt"
	"strings"
)

// Level is the severity of a feedback message.
// The numeric values leave room for custom levels between the predefined ones.
type Level int

const (
	LevelUndefined Level = 0
	LevelDebug     Level = 100
	LevelInfo      Level = 200
	LevelSuccess   Level = 250
	LevelWarning   Level = 300
	LevelError     Level = 400
	LevelFatal     Level = 500
)

var levelNames = map[Level]string{
	LevelUndefined: "undefined",
	LevelDebug:     "debug",
	LevelInfo:      "info",
	LevelSuccess:   "success",
	LevelWarning:   "warning",
	LevelError:     "error",
	LevelFatal:     "fatal",
}

// Levels lists the predefined levels in ascending severity.
func Levels() []Level {
	return []Level{LevelDebug, LevelInfo, LevelSuccess, LevelWarning, LevelError, LevelFatal}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// IsError reports whether the level is ERROR or above.
func (l Level) IsError() bool {
	return l >= LevelError
}

// ParseLevel accepts the level names (case-insensitive) and "warn" as an alias.
func ParseLevel(s string) (Level, error) {
	clean := strings.ToLower(strings.TrimSpace(s))
	if clean == "warn" {
		return LevelWarning, nil
	}
	for level, name := range levelNames {
		if name == clean {
			return level, nil
		}
	}
	return LevelUndefined, fmt.Errorf("unknown feedback level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
