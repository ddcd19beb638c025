package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ConfigurationError signals missing or malformed credentials/settings. It is
// terminal: callers report it at the boundary and never retry.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigurationError creates a ConfigurationError for a named setting.
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// NetworkError wraps a connectivity-class failure. Background polling treats
// it as a connectivity degradation rather than an application fault.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx application response from an upstream API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

// CommandError wraps the failure of a device command. It always accompanies a
// rollback of the optimistic overlay.
type CommandError struct {
	EntityID string
	Command  string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed for %s: %v", e.Command, e.EntityID, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// NewCommandError wraps err as a command failure for the given entity.
func NewCommandError(entityID, command string, err error) *CommandError {
	return &CommandError{EntityID: entityID, Command: command, Err: err}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return stderrors.As(err, &ce)
}

// networkErrorPatterns are the message fragments that identify a
// connectivity-class failure. Generic 4xx/5xx responses must not match, or
// connectivity status would flap on transient application errors.
var networkErrorPatterns = []string{
	"timeout",
	"deadline exceeded",
	"no such host",
	"connection refused",
	"connection reset",
	"network is unreachable",
	"cors",
	"failed to fetch",
}

// IsNetworkError reports whether err belongs to the connectivity class,
// either structurally (a *NetworkError) or by recognized message pattern.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if stderrors.As(err, &ne) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range networkErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
