package blockmesh

import "fmt"

// ConfigError reports missing or inconsistent input, Field names the
// offending input
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// TopologyError reports a structurally malformed block graph
type TopologyError struct {
	Msg string
}

func (e *TopologyError) Error() string {
	return "should not be reached: " + e.Msg
}

func topologyErrorf(format string, args ...interface{}) error {
	return &TopologyError{Msg: fmt.Sprintf(format, args...)}
}

// NumericError reports degenerate gradings or interpolation weights
type NumericError struct {
	Msg string
}

func (e *NumericError) Error() string {
	return "numeric error: " + e.Msg
}

func numericErrorf(format string, args ...interface{}) error {
	return &NumericError{Msg: fmt.Sprintf(format, args...)}
}
