// Package fault holds the error taxonomy shared by every command. An error
// carries a Kind that ends up as the "type" field of the error document printed
// by the cli.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"unicode/utf8"
)

type Kind string

const (
	KindNetwork       Kind = "network"
	KindAntiBot       Kind = "anti-bot"
	KindParse         Kind = "parse"
	KindNotFound      Kind = "not-found"
	KindValidation    Kind = "validation"
	KindNotTradingDay Kind = "not-trading-day"
	KindUpstream      Kind = "upstream"
	KindHTTP          Kind = "http"
	KindException     Kind = "exception"
	KindUnknown       Kind = "unknown"
)

// Error is a classified error. Details is any json-serializable value that
// helps explain the failure (the raw row, the missing field list, ...).
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err as kind, message may be empty.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails returns a copy of e with details attached.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// KindOf classifies any error. Errors that are not a *Error are classified as
// network errors when they come from the transport, otherwise as unknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ferr *Error
	if errors.As(err, &ferr) {
		return ferr.Kind
	}
	if IsTransport(err) {
		return KindNetwork
	}
	return KindUnknown
}

// IsTransport reports whether err is a transport level failure (dial, tls,
// timeout, connection reset, cancelled request).
func IsTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Document is the json form of an error that is embedded in command output.
type Document struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// ToDocument converts err into a Document, nil errors give a nil document.
func ToDocument(err error) *Document {
	if err == nil {
		return nil
	}
	doc := &Document{Type: KindOf(err), Message: err.Error()}
	var ferr *Error
	if errors.As(err, &ferr) {
		doc.Details = ferr.Details
	}
	return doc
}

// Truncate cuts s to at most n bytes for use as error details, a multi-byte
// character is never split. "..." is appended when anything was cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
