package trig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnexpectedEOF is wrapped by the fatal error raised when input ends inside a construct.
	ErrUnexpectedEOF = errors.New("unexpected end of file")
	// ErrSessionFailed is returned when a parser that already hit a fatal error is used again.
	ErrSessionFailed = errors.New("parser session already failed; create a new parser")
)

// ParseError is a fatal parse failure. It aborts the parse at the point of detection.
type ParseError struct {
	Line   int    // 1-based line of the offending input
	Column int    // 1-based column of the offending input (0 if unknown)
	Msg    string // description of the failure
	Err    error  // underlying cause, if any
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString("trig")
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&msg, ":%d", e.Line)
		}
	}
	msg.WriteString(": ")
	msg.WriteString(e.Msg)
	if e.Err != nil && e.Msg != e.Err.Error() {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ViolationClass groups recoverable violations so they can be enforced individually.
type ViolationClass string

const (
	// ClassIRISyntax covers spaces, string escapes and trailing dots inside <...> IRIs.
	ClassIRISyntax ViolationClass = "iri-syntax"
	// ClassDecoding covers malformed \u / \U escapes in IRIs.
	ClassDecoding ViolationClass = "decoding"
	// ClassRelativeIRI covers relative IRIs with no base and bad prefixed name starts.
	ClassRelativeIRI ViolationClass = "relative-iri"
	// ClassBlankNodeLabel covers blank node labels starting with an illegal character.
	ClassBlankNodeLabel ViolationClass = "blank-node-label"
	// ClassDirectiveCase covers @PREFIX / @BASE spelled with the wrong case.
	ClassDirectiveCase ViolationClass = "directive-case"
)

// AllViolationClasses lists every known class
var AllViolationClasses = []ViolationClass{
	ClassIRISyntax,
	ClassDecoding,
	ClassRelativeIRI,
	ClassBlankNodeLabel,
	ClassDirectiveCase,
}

// ParseViolationClass maps a class name, as used in configuration files, to its class.
func ParseViolationClass(name string) (ViolationClass, error) {
	for _, c := range AllViolationClasses {
		if string(c) == strings.ToLower(strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown violation class: %q", name)
}

// Violation is a recoverable problem found in the input. Parsing continues after it is reported,
// with a best-effort value unless its class is enforced.
type Violation struct {
	Class   ViolationClass
	Message string
	Line    int
	Column  int
}

func (v Violation) String() string {
	return fmt.Sprintf("%d:%d: [%s] %s", v.Line, v.Column, v.Class, v.Message)
}
