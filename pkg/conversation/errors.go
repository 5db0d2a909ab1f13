package conversation

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every error returned for an invalid buffer
// setup.
var ErrConfiguration = errors.New("invalid conversation configuration")

// ErrPolicyDeferred is returned by a Policy that declines to choose; the
// buffer then removes the oldest turns.
var ErrPolicyDeferred = errors.New("eviction policy deferred to default strategy")

// ConfigError reports which setting made a buffer unusable.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}
