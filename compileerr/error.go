// Package compileerr defines the compiler's located error type and its
// source-context formatter.
package compileerr

import (
	"fmt"
	"strings"

	"github.com/nilang-go/nilangc/token"
)

// Kind identifies which stage raised the error and carries its
// stage-specific payload in Args.
type Kind string

// Lexer error kinds.
const (
	UnexpectedCharacter Kind = "UnexpectedCharacter"
	ExpectedCharacter   Kind = "ExpectedCharacter"
	UnexpectedEOF       Kind = "UnexpectedEndOfFile"
)

// Parser error kinds.
const (
	EndOfInput        Kind = "EndOfInput"
	UnexpectedToken    Kind = "UnexpectedToken"
	ExpectedTokens     Kind = "ExpectedTokens"
	InvalidOperand     Kind = "InvalidOperand"
	EmptyParenthesis   Kind = "EmptyParenthesis"
	InvalidLiteral     Kind = "InvalidLiteral"
	DuplicateField     Kind = "DuplicateField"
)

// Transformer error kinds.
const (
	TypeMismatch                  Kind = "TypeMismatch"
	FunctionNotFound               Kind = "FunctionNotFound"
	TypeNotFound                   Kind = "TypeNotFound"
	FunctionCallArgumentsMismatch  Kind = "FunctionCallArgumentsMismatch"
	FieldsMismatch                 Kind = "FieldsMismatch"
	TemporaryNotFound              Kind = "TemporaryNotFound"
)

// Codegen error kinds.
const (
	VariableAlreadyExists Kind = "VariableAlreadyExists"
	VariableDoesNotExist  Kind = "VariableDoesNotExist"
	InvalidNode           Kind = "InvalidNode"
)

// CompilerError is a single, located compiler error. It carries enough
// context (source text and an optional file name) to render itself with
// a highlighted window of surrounding lines.
type CompilerError struct {
	Kind     Kind
	Message  string
	Location token.Location
	Source   string
	File     string
}

// New constructs a CompilerError. message is the fully-rendered, already
// kind-specific description (e.g. "unexpected character 'q'").
func New(kind Kind, message string, loc token.Location, source, file string) *CompilerError {
	return &CompilerError{Kind: kind, Message: message, Location: loc, Source: source, File: file}
}

// Error implements the error interface with an uncolored, single-line-context
// rendering.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format renders a one-line header plus the offending source line and a
// caret underneath the start column. If color is true, ANSI escapes are
// used for the caret and message.
func (e *CompilerError) Format(color bool) string {
	return e.FormatWithContext(0, color)
}

// FormatWithContext renders the error with contextLines of source before
// and after the offending line; the CLI calls this with 3.
func (e *CompilerError) FormatWithContext(contextLines int, color bool) string {
	var sb strings.Builder

	line := e.Location.LineStart + 1
	col := e.Location.ColStart + 1

	if e.File != "" {
		fmt.Fprintf(&sb, "Error in %s:%d:%d\n", e.File, line, col)
	} else {
		fmt.Fprintf(&sb, "Error at line %d:%d\n", line, col)
	}

	contextLinesList, startLine := e.sourceContext(line, contextLines)
	if len(contextLinesList) == 0 {
		sb.WriteString(e.renderMessage(color))
		return sb.String()
	}

	for i, src := range contextLinesList {
		current := startLine + i
		lineNumStr := fmt.Sprintf("%4d | ", current)

		if current == line {
			sb.WriteString(lineNumStr)
			sb.WriteString(src)
			sb.WriteString("\n")

			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+col-1))
			width := e.Location.ColEnd - e.Location.ColStart
			if e.Location.LineEnd != e.Location.LineStart || width < 1 {
				width = 1
			}
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString(strings.Repeat("^", width))
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		} else {
			if color {
				sb.WriteString("\033[2m")
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(src)
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(e.renderMessage(color))
	return sb.String()
}

func (e *CompilerError) renderMessage(color bool) string {
	var sb strings.Builder
	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func (e *CompilerError) sourceLines() []string {
	if e.Source == "" {
		return nil
	}
	return strings.Split(e.Source, "\n")
}

func (e *CompilerError) sourceContext(line, contextLines int) ([]string, int) {
	lines := e.sourceLines()
	if line < 1 || line > len(lines) {
		return nil, 0
	}

	start := line - contextLines
	if start < 1 {
		start = 1
	}
	end := line + contextLines
	if end > len(lines) {
		end = len(lines)
	}

	return lines[start-1 : end], start
}

// FormatErrors renders a batch of errors. The pipeline itself always
// aborts on the first error it hits; this exists for a REPL-like
// embedder that collects several before reporting.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].FormatWithContext(3, color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Compilation failed with %d error(s):\n\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&sb, "[Error %d of %d]\n", i+1, len(errs))
		sb.WriteString(err.FormatWithContext(3, color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
