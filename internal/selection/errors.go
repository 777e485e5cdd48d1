package selection

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is matched by every InvalidConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid selector configuration")

// InvalidConfigurationError reports a malformed score table or resolver option.
type InvalidConfigurationError struct {
	Field   string
	Message string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Field, e.Message)
}

// Is lets errors.Is match ErrInvalidConfiguration.
func (e *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func invalidConfig(field, format string, args ...any) error {
	return &InvalidConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CatalogFetchError is returned when the live catalog cannot be loaded.
// It is never converted into a default-model fallback.
type CatalogFetchError struct {
	Source     string
	StatusCode int
	Message    string
	Err        error
}

func (e *CatalogFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch model catalog from %s: status %d: %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("failed to fetch model catalog from %s: %s", e.Source, e.Message)
}

func (e *CatalogFetchError) Unwrap() error {
	return e.Err
}
