// Package apperr defines the error categories that abort a CGA run.
//
// Error taxonomy
//
//	KindConfiguration  – unusable configuration or input files (no MPA name
//	                     field, missing/malformed CSV, conflicting options).
//	KindGeometry       – a projection, intersection or dissolve step failed
//	                     for a layer. No partial retry.
//	KindDataIntegrity  – a percentage computation hit a zero denominator.
//
// Silent fallbacks (missing inclusion cell, missing threshold or scaling
// attribute) are not errors and never produce one of these.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindGeometry      Kind = "geometry"
	KindDataIntegrity Kind = "data_integrity"
)

// Error is a categorised run failure.
type Error struct {
	Kind    Kind
	Op      string // pipeline step, e.g. "intersect"
	Subject string // layer or MPA the failure concerns
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Subject != "":
		return fmt.Sprintf("%s error: %s %s: %s", e.Kind, e.Op, e.Subject, msg)
	case e.Op != "":
		return fmt.Sprintf("%s error: %s: %s", e.Kind, e.Op, msg)
	case e.Subject != "":
		return fmt.Sprintf("%s error: %s: %s", e.Kind, e.Subject, msg)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Configf creates a configuration error.
func Configf(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Config wraps err as a configuration error about subject.
func Config(subject string, err error) error {
	return &Error{Kind: KindConfiguration, Subject: subject, Err: err}
}

// Geometry wraps a failed geometry operation on subject.
func Geometry(op, subject string, err error) error {
	return &Error{Kind: KindGeometry, Op: op, Subject: subject, Err: err}
}

// Integrityf creates a data integrity error about subject.
func Integrityf(subject, format string, args ...any) error {
	return &Error{Kind: KindDataIntegrity, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsConfiguration reports whether err is (or wraps) a configuration error.
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

// IsGeometry reports whether err is (or wraps) a geometry error.
func IsGeometry(err error) bool { return KindOf(err) == KindGeometry }

// IsDataIntegrity reports whether err is (or wraps) a data integrity error.
func IsDataIntegrity(err error) bool { return KindOf(err) == KindDataIntegrity }
