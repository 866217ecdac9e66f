package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch marks transport level failures talking to a provider.
	ErrFetch = errors.New("weather fetch failed")
	// ErrParse marks provider responses with an unexpected shape.
	ErrParse = errors.New("malformed weather response")
	// ErrUnknownDate is returned when a date is not in the dataset.
	ErrUnknownDate = errors.New("unknown date")
	// ErrIncompatibleSequence is returned when two days cannot be compared.
	ErrIncompatibleSequence = errors.New("incompatible sequences")
	// ErrDuplicateDate is returned when a date is loaded twice under DuplicateReject.
	ErrDuplicateDate = errors.New("duplicate date")
)

// FetchError wraps a failed provider call.
type FetchError struct {
	Provider   string
	Mode       Mode
	StatusCode int
	Reason     string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s %s fetch failed", e.Provider, e.Mode)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ParseError reports a response or timestamp that could not be interpreted.
type ParseError struct {
	Provider string
	Detail   string
	Err      error
}

func (e *ParseError) Error() string {
	msg := "malformed weather response"
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// UnknownDateError is a dataset lookup miss.
type UnknownDateError struct {
	Date string
}

func (e *UnknownDateError) Error() string {
	return fmt.Sprintf("unknown date %q", e.Date)
}

func (e *UnknownDateError) Is(target error) bool { return target == ErrUnknownDate }

// IncompatibleSequenceError is returned when two days differ in length or
// hour alignment.
type IncompatibleSequenceError struct {
	DateA, DateB string
	LenA, LenB   int
}

func (e *IncompatibleSequenceError) Error() string {
	if e.LenA == e.LenB {
		return fmt.Sprintf("incompatible sequences %s and %s: hours are not aligned", e.DateA, e.DateB)
	}
	return fmt.Sprintf("incompatible sequences %s (%d values) and %s (%d values)", e.DateA, e.LenA, e.DateB, e.LenB)
}

func (e *IncompatibleSequenceError) Is(target error) bool { return target == ErrIncompatibleSequence }

// DuplicateDateError is returned when a date is loaded twice.
type DuplicateDateError struct {
	Date string
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("date %s loaded twice", e.Date)
}

func (e *DuplicateDateError) Is(target error) bool { return target == ErrDuplicateDate }
