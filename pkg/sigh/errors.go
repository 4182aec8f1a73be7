package sigh

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Phase records which stage of processing emitted a diagnostic.
type Phase int

const (
	PhaseParse Phase = iota
	PhaseSemantic
	PhaseRuntime
)

func (p Phase) String() string {
	switch p {
	case PhaseParse:
		return "parse"
	case PhaseSemantic:
		return "semantic"
	default:
		return "runtime"
	}
}

// SemanticError is a diagnostic produced during parsing or analysis.
// Errors accumulate; their presence blocks execution.
type SemanticError struct {
	Message string
	Node    Node // may be nil when no node is implicated
	Phase   Phase
}

func NewSemanticError(message string, node Node, phase Phase) *SemanticError {
	return &SemanticError{Message: message, Node: node, Phase: phase}
}

func (e *SemanticError) Error() string {
	if e.Node == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Node.GetSpan())
}

// RuntimeError is a run-time fault: null dereference, out-of-bounds
// index, shape mismatch, and the like. It unwinds the evaluation.
type RuntimeError struct {
	Message string
	Node    Node // may be nil
}

func NewRuntimeError(node Node, format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Node: node}
}

func (e *RuntimeError) Error() string {
	if e.Node == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Node.GetSpan())
}

// returnSignal implements the control flow of the return statement: it
// unwinds the evaluation up to the enclosing call (or the script root)
// carrying the returned value. It is distinct from RuntimeError so that
// faults and returns can never be confused.
type returnSignal struct {
	value any
}

func (returnSignal) Error() string { return "return outside of evaluation" }

// ---------------------------------------------------------------------------
// Diagnostic rendering

var (
	errorHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	phaseStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	locationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	gutterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	caretStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// RenderDiagnostic formats a diagnostic with a window into the source,
// highlighting the implicated line.
func RenderDiagnostic(message string, phase Phase, span Span, filename, source string, color bool) string {
	head := "Error: " + message
	loc := fmt.Sprintf("  --> %s:%d:%d", filename, span.Start.Line, span.Start.Column)
	if color {
		head = errorHeadStyle.Render("Error:") + " " + message + " " + phaseStyle.Render("["+phase.String()+"]")
		loc = locationStyle.Render(loc)
	} else {
		head += " [" + phase.String() + "]"
	}

	var sb strings.Builder
	sb.WriteString(head + "\n")
	sb.WriteString(loc + "\n")

	lines := strings.Split(source, "\n")
	if span.Start.Line < 1 || span.Start.Line > len(lines) {
		return sb.String()
	}

	first := max(1, span.Start.Line-1)
	last := min(len(lines), span.Start.Line+1)
	for i := first; i <= last; i++ {
		gutter := fmt.Sprintf("%4d | ", i)
		if color {
			gutter = gutterStyle.Render(gutter)
		}
		sb.WriteString(gutter + lines[i-1] + "\n")
		if i == span.Start.Line {
			caret := strings.Repeat(" ", 7+span.Start.Column-1) + "^"
			if color {
				caret = caretStyle.Render(caret)
			}
			sb.WriteString(caret + "\n")
		}
	}
	return sb.String()
}
