// Package pipeline defines the error taxonomy shared across every compose
// stage: a small set of Kind values, not Go types, so callers branch on
// e.Kind rather than type-switching.
package pipeline

import "fmt"

// Kind is one of the error categories the CLI and callers branch on.
type Kind string

const (
	InvalidArgument  Kind = "InvalidArgument"
	SchemaViolation  Kind = "SchemaViolation"
	DriverFailure    Kind = "DriverFailure"
	NarrationMismatch Kind = "NarrationMismatch"
	TtsFailure       Kind = "TtsFailure"
	RenderFailure    Kind = "RenderFailure"
)

// Error wraps an underlying cause with the kind taxonomy spec.md §7
// defines, plus enough context (action/url/selector) for DriverFailure to
// carry what it promises.
type Error struct {
	Kind     Kind
	Message  string
	Action   string
	URL      string
	Selector string
	Cause    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Action != "" {
		msg = fmt.Sprintf("%s (action=%s", msg, e.Action)
		if e.URL != "" {
			msg += fmt.Sprintf(" url=%s", e.URL)
		}
		if e.Selector != "" {
			msg += fmt.Sprintf(" selector=%s", e.Selector)
		}
		msg += ")"
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a plain, kind-tagged error.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapDriverFailure wraps cause as a DriverFailure, carrying the action
// name, URL, and selector as spec.md §7 requires.
func WrapDriverFailure(action, url, selector string, cause error) *Error {
	return &Error{
		Kind:     DriverFailure,
		Message:  "driver operation failed",
		Action:   action,
		URL:      url,
		Selector: selector,
		Cause:    cause,
	}
}

// WrapSchemaViolation wraps cause as a fatal SchemaViolation.
func WrapSchemaViolation(cause error) *Error {
	return &Error{Kind: SchemaViolation, Message: "timeline failed validation", Cause: cause}
}

// WrapTtsFailure wraps cause as a TtsFailure, which callers may downgrade
// (--no-voiceover) instead of treating as fatal.
func WrapTtsFailure(cause error) *Error {
	return &Error{Kind: TtsFailure, Message: "tts synthesis or duration probing failed", Cause: cause}
}

// WrapRenderFailure wraps cause as a fatal RenderFailure.
func WrapRenderFailure(cause error) *Error {
	return &Error{Kind: RenderFailure, Message: "encoder or frame resolver error", Cause: cause}
}

// NewNarrationMismatch reports a divergence between the preprocessed and
// recorded narration counts.
func NewNarrationMismatch(preprocessed, recorded int) *Error {
	return &Error{
		Kind:    NarrationMismatch,
		Message: fmt.Sprintf("recorded narration count %d differs from preprocessed count %d", recorded, preprocessed),
	}
}
