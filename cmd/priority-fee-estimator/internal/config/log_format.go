package config

import "fmt"

// LogFormat selects the output encoding of the logger.
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

func ParseLogFormat(s string) (LogFormat, error) {
	switch s {
	case "text":
		return LogFormatText, nil
	case "json":
		return LogFormatJSON, nil
	default:
		return LogFormatText, fmt.Errorf("invalid log format: %s", s)
	}
}

func (f LogFormat) String() string {
	if f == LogFormatJSON {
		return "json"
	}
	return "text"
}
