// Package rtsperrors contains the typed errors surfaced by the RTSP control
// state machine and transport adapters.
package rtsperrors

import (
	"fmt"

	"github.com/tidecam/rtspcat/pkg/base"
)

// ErrMalformedURL is returned when the RTSP URL passed to New cannot be
// parsed, or is missing a port.
type ErrMalformedURL struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e ErrMalformedURL) Error() string {
	return fmt.Sprintf("malformed RTSP URL '%s': %v", e.URL, e.Err)
}

// ErrConnectFailed is returned when the initial TCP control connection
// cannot be established.
type ErrConnectFailed struct {
	Addr string
	Err  error
}

// Error implements the error interface.
func (e ErrConnectFailed) Error() string {
	return fmt.Sprintf("unable to connect to %s: %v", e.Addr, e.Err)
}

// ErrNon200 is returned when a RTSP reply's status code is not 200.
type ErrNon200 struct {
	Method     base.Method
	StatusCode base.StatusCode
	Message    string
}

// Error implements the error interface.
func (e ErrNon200) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Method, e.StatusCode, e.Message)
}

// ErrUnexpectedCSeq is returned when a reply's CSeq does not match the
// outstanding request. Per the state machine contract this is fatal: the
// request/reply pairing can no longer be trusted.
type ErrUnexpectedCSeq struct {
	Expected int
	Got      int
}

// Error implements the error interface.
func (e ErrUnexpectedCSeq) Error() string {
	return fmt.Sprintf("unexpected CSeq: expected %d, got %d", e.Expected, e.Got)
}

// ErrSessionMissing is returned when a SETUP reply with status 200 leaves
// the client without a Session id.
type ErrSessionMissing struct {
	Method base.Method
}

// Error implements the error interface.
func (e ErrSessionMissing) Error() string {
	return fmt.Sprintf("%s reply is missing a Session header", e.Method)
}

// ErrInvalidState is returned by an operation invoked while the client is
// in a state that does not allow it.
type ErrInvalidState struct {
	Allowed []fmt.Stringer
	Current fmt.Stringer
}

// Error implements the error interface.
func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("must be in state %v, is in state %v", e.Allowed, e.Current)
}

// ErrTerminated is returned by in-flight operations once disconnect() has
// been called.
type ErrTerminated struct{}

// Error implements the error interface.
func (e ErrTerminated) Error() string {
	return "terminated"
}
