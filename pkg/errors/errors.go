// Package errors provides structured error types for tilekit.
//
// Every failure that aborts an organize run carries a machine-readable
// [Code] plus enough context (group path, offending tile ids) for a curator
// to fix the grouping config without reading a stack trace.
//
// # Error Codes
//
// The organizer taxonomy:
//   - CONFIG_ERROR: malformed or inconsistent grouping config
//   - MANIFEST_LOOKUP_ERROR: a config references a tile absent from the manifest
//   - LAYOUT_ERROR: inconsistent tile dimensions in a layout group
//   - EDGE_MATCH_ERROR: inconsistent tile dimensions in an edge-match group
//
// Ambient codes (INVALID_*, FILE_NOT_FOUND, OUTPUT_EXISTS, INTERNAL_ERROR)
// cover CLI input and file-system failures.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfig, "duplicate pos %v", pos).In("terrain/grass")
//	if errors.Is(err, errors.ErrCodeConfig) {
//	    // Handle config error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open manifest %s", path)
package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Organizer errors
	ErrCodeConfig         Code = "CONFIG_ERROR"
	ErrCodeManifestLookup Code = "MANIFEST_LOOKUP_ERROR"
	ErrCodeLayout         Code = "LAYOUT_ERROR"
	ErrCodeEdgeMatch      Code = "EDGE_MATCH_ERROR"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidImage    Code = "INVALID_IMAGE"

	// File-system errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeOutputExists Code = "OUTPUT_EXISTS"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, optional group context and cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Group   string // Group path the error belongs to (optional)
	TileIDs []int  // Offending tile ids (optional)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	if e.Group != "" {
		fmt.Fprintf(&b, "group %q: ", e.Group)
	}
	b.WriteString(e.Message)
	b.WriteString(tileSuffix(e.TileIDs))
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// In sets the group path and returns e for chaining.
func (e *Error) In(group string) *Error {
	e.Group = group
	return e
}

// Tiles records the offending tile ids and returns e for chaining.
func (e *Error) Tiles(ids ...int) *Error {
	e.TileIDs = append(e.TileIDs, ids...)
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// InGroup attaches a group path to err.
// An *Error without a group is annotated in place; anything else is wrapped
// so the original code survives.
func InGroup(err error, group string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Group == "" {
		e.Group = group
		return err
	}
	return fmt.Errorf("group %q: %w", group, err)
}

// Is reports whether err has the given error code.
// It walks wrapped and joined errors looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return Is(x.Unwrap(), code)
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetGroup extracts the group path from an error, if available.
func GetGroup(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Group
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix. Joined
// errors yield one line per error. Other errors are returned as-is.
func UserMessage(err error) string {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var lines []string
		for _, inner := range j.Unwrap() {
			lines = append(lines, UserMessage(inner))
		}
		return strings.Join(lines, "\n")
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message + tileSuffix(e.TileIDs)
		if e.Group != "" {
			msg = e.Group + ": " + msg
		}
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
		return msg
	}
	return err.Error()
}

func tileSuffix(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = strconv.Itoa(id)
	}
	return " (tiles " + strings.Join(s, ", ") + ")"
}

// Join combines errs the same way the standard library does.
// It exists so callers need only one errors import.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
