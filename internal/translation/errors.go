package translation

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the backend answers without fragments
var ErrEmptyResponse = errors.New("empty response from translation engine")

// TranslationError reports a failed translation. No partial result is ever
// returned alongside it.
type TranslationError struct {
	Provider string
	Err      error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("%s translation failed: %v", e.Provider, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
