package sigh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kr/pretty"
)

// Program is a parsed and analyzed script, ready to run.
type Program struct {
	Filename string
	Source   string
	Root     *Root
	Reactor  *Reactor
}

// Load parses the source and runs the semantic analysis to its
// fixpoint. A non-nil error means the source did not parse; semantic
// errors are collected on the program instead.
func Load(filename, source string) (*Program, error) {
	root, err := Parse(source)
	if err != nil {
		return nil, err
	}

	reactor := NewReactor()
	Analyze(reactor, root)

	return &Program{
		Filename: filename,
		Source:   source,
		Root:     root,
		Reactor:  reactor,
	}, nil
}

// Errors returns the semantic errors accumulated during analysis.
func (p *Program) Errors() []*SemanticError {
	return p.Reactor.Errors()
}

// Run interprets the program, writing print output to out. It refuses
// to run when the analysis produced errors.
func (p *Program) Run(out io.Writer) (any, error) {
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("program has %d semantic error(s)", len(errs))
	}
	interp := NewInterpreter(p.Reactor)
	if out != nil {
		interp.SetOutput(out)
	}
	return interp.Interpret(p.Root)
}

// Interpret is a convenience for tests and embedders: parse, analyze
// and run a source string in one go.
func Interpret(source string, out io.Writer) (any, error) {
	program, err := Load("<script>", source)
	if err != nil {
		return nil, err
	}
	if errs := program.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return program.Run(out)
}

// RunFile loads and runs a script file, rendering diagnostics to
// stderr. It returns a non-nil error when anything went wrong, for the
// CLI to turn into a nonzero exit code.
func RunFile(path string, color bool) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	source := string(contents)

	program, err := Load(path, source)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			span := Span{Start: parseErr.Pos, End: parseErr.Pos}
			fmt.Fprint(os.Stderr, RenderDiagnostic(parseErr.Message, PhaseParse, span, path, source, color))
			return fmt.Errorf("%s does not parse", path)
		}
		return err
	}

	slog.Debug("parsed", "file", path)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("ast", "dump", pretty.Sprint(program.Root))
	}

	if errs := program.Errors(); len(errs) > 0 {
		for _, semErr := range errs {
			var span Span
			if semErr.Node != nil {
				span = semErr.Node.GetSpan()
			}
			fmt.Fprint(os.Stderr, RenderDiagnostic(semErr.Message, semErr.Phase, span, path, source, color))
		}
		return fmt.Errorf("%s has %d semantic error(s)", path, len(errs))
	}

	interp := NewInterpreter(program.Reactor)
	value, err := interp.Interpret(program.Root)
	if err != nil {
		var rtErr *RuntimeError
		if errors.As(err, &rtErr) {
			var span Span
			if rtErr.Node != nil {
				span = rtErr.Node.GetSpan()
			}
			fmt.Fprint(os.Stderr, RenderDiagnostic(rtErr.Message, PhaseRuntime, span, path, source, color))
			return fmt.Errorf("%s failed at run time", path)
		}
		return err
	}

	slog.Debug("script finished", "value", ConvertToString(value))
	return nil
}
