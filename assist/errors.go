package assist

import "errors"

var (
	// ErrDisabled indicates the assistant is not configured for this
	// deployment. The API maps it to 503.
	ErrDisabled = errors.New("assistant disabled")

	// ErrUnavailable indicates the Ollama server is unreachable.
	ErrUnavailable = errors.New("ollama server unavailable")

	// ErrTimeout indicates the generation request exceeded its timeout.
	ErrTimeout = errors.New("assistant request timed out")

	// ErrInvalidOutput indicates the model response could not be parsed
	// into the expected structure.
	ErrInvalidOutput = errors.New("invalid assistant output")

	// ErrRetryExhausted indicates all retry attempts failed.
	ErrRetryExhausted = errors.New("assistant retry attempts exhausted")
)
