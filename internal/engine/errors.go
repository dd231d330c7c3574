package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/ceremony/internal/timeline"
)

// CallbackKind identifies which caller-supplied function failed.
type CallbackKind string

const (
	CallbackModeSwitch CallbackKind = "on-mode-switch"
	CallbackComplete   CallbackKind = "on-complete"
	CallbackObserver   CallbackKind = "observer"
)

// CallbackError wraps a panic recovered from a callback or observer.
//
// The controller never returns errors from its public operations. Failures
// in caller code are reported through the logger and the error handler
// instead, and playback continues.
type CallbackError struct {
	Kind       CallbackKind
	PlaybackID string
	Identifier timeline.Identifier
	Value      any
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	if e.PlaybackID != "" {
		return fmt.Sprintf("%s panicked: %v (playback=%s, ceremony=%s)", e.Kind, e.Value, e.PlaybackID, e.Identifier)
	}
	return fmt.Sprintf("%s panicked: %v", e.Kind, e.Value)
}

// Unwrap returns the panic value when it was itself an error.
func (e *CallbackError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsCallbackError reports whether err is a CallbackError of the given kind.
// An empty kind matches any CallbackError. Uses errors.As to handle wrapped errors.
func IsCallbackError(err error, kind CallbackKind) bool {
	var ce *CallbackError
	if errors.As(err, &ce) {
		return kind == "" || ce.Kind == kind
	}
	return false
}
