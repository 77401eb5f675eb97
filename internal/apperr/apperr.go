// Package apperr defines the gateway's error taxonomy. Configuration
// errors are fatal to the startup of the subsystem that raised them;
// platform errors are recoverable transport/client failures that carry the
// originating platform so callers can decide whether to retry.
package apperr

import (
	"errors"
	"fmt"

	"github.com/polygate-bot/polygate/internal/domain"
)

// ConfigurationError reports missing or invalid setup (absent credential,
// disabled platform, malformed config value).
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("configuration: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError wraps cause (which may be nil) in a
// ConfigurationError with the given message.
func NewConfigurationError(message string, cause error) error {
	return &ConfigurationError{Message: message, Err: cause}
}

// PlatformError reports a failure of a platform client or of an operation
// invoked against it. Op names the failed operation ("send_message",
// "initialize", ...).
type PlatformError struct {
	Platform domain.Platform
	Op       string
	Message  string
	Err      error
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("platform %s: %s: %s: %v", e.Platform, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("platform %s: %s: %s", e.Platform, e.Op, e.Message)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewPlatformError wraps cause (which may be nil) in a PlatformError.
func NewPlatformError(platform domain.Platform, op, message string, cause error) error {
	return &PlatformError{Platform: platform, Op: op, Message: message, Err: cause}
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsPlatform reports whether err is (or wraps) a PlatformError.
func IsPlatform(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe)
}
