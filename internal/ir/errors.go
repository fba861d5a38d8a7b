package ir

import "fmt"

// ParseError is a syntax or resolution error in textual IR.
//
// Format: file:line:column: message
//
// If Suggestion is non-empty it is appended on its own line:
//
//	demo.ir:4:12: undefined value %y
//
//	Suggestion: define %y before the end of the function
type ParseError struct {
	File       string // Source name given to Parse
	Line       int    // Line number (1-indexed)
	Column     int    // Column number (1-indexed)
	Message    string // Error message
	Suggestion string // Optional hint, empty if none
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	result := fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	if e.Suggestion != "" {
		result += fmt.Sprintf("\n\nSuggestion: %s", e.Suggestion)
	}
	return result
}

func newParseError(file string, tok token, format string, args ...interface{}) *ParseError {
	return &ParseError{
		File:    file,
		Line:    tok.line,
		Column:  tok.col,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ParseError) withSuggestion(s string) *ParseError {
	e.Suggestion = s
	return e
}
