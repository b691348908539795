// Package status provides the error taxonomy used throughout the storage
// engine: a small, closed set of codes (Ok, NotFound, Corruption,
// NotSupported, InvalidArgument, IOError), each carrying a primary message
// and an optional secondary one.
//
// Status implements the standard error interface so it composes with
// errors.Is, errors.As and fmt.Errorf("%w", ...), while still exposing Code
// for callers that need to branch on the taxonomy directly.
package status

import "strings"

// Code is one of the six kinds a Status can carry.
type Code int

const (
	Ok Code = iota
	NotFound
	Corruption
	NotSupported
	InvalidArgument
	IOError
)

func (c Code) String() string {
	switch c {
	case Ok:
		return "OK"
	case NotFound:
		return "NotFound"
	case Corruption:
		return "Corruption"
	case NotSupported:
		return "NotSupported"
	case InvalidArgument:
		return "InvalidArgument"
	case IOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Status is a code plus message(s). The zero Status is Ok.
type Status struct {
	code    Code
	msg     string
	msg2    string
	hasMsg2 bool
}

// OK returns the success status.
func OK() Status { return Status{code: Ok} }

func newStatus(c Code, msg string, msg2 ...string) Status {
	s := Status{code: c, msg: msg}
	if len(msg2) > 0 && msg2[0] != "" {
		s.msg2 = msg2[0]
		s.hasMsg2 = true
	}
	return s
}

func NewNotFound(msg string, msg2 ...string) Status        { return newStatus(NotFound, msg, msg2...) }
func NewCorruption(msg string, msg2 ...string) Status       { return newStatus(Corruption, msg, msg2...) }
func NewNotSupported(msg string, msg2 ...string) Status     { return newStatus(NotSupported, msg, msg2...) }
func NewInvalidArgument(msg string, msg2 ...string) Status  { return newStatus(InvalidArgument, msg, msg2...) }
func NewIOError(msg string, msg2 ...string) Status          { return newStatus(IOError, msg, msg2...) }

// Code reports the status's taxonomy code.
func (s Status) Code() Code { return s.code }

func (s Status) IsOK() bool              { return s.code == Ok }
func (s Status) IsNotFound() bool        { return s.code == NotFound }
func (s Status) IsCorruption() bool      { return s.code == Corruption }
func (s Status) IsIOError() bool         { return s.code == IOError }
func (s Status) IsNotSupported() bool    { return s.code == NotSupported }
func (s Status) IsInvalidArgument() bool { return s.code == InvalidArgument }

// Error implements the error interface. A zero-value (Ok) Status returns
// the empty string so that `var s Status; s.Error()` never panics, but
// callers should prefer checking IsOK before treating a Status as an error.
func (s Status) Error() string {
	if s.code == Ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(s.code.String())
	b.WriteString(": ")
	b.WriteString(s.msg)
	if s.hasMsg2 {
		b.WriteString(" (")
		b.WriteString(s.msg2)
		b.WriteString(")")
	}
	return b.String()
}

// AsError returns nil for Ok, and the Status itself (as an error) otherwise.
// Useful at API boundaries that want to return a plain `error`.
func (s Status) AsError() error {
	if s.code == Ok {
		return nil
	}
	return s
}
