package gap

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// Filter is a compiled CEL predicate over candidate fields, for example
//
//	source_category == "Theory" && strength >= 2.0
type Filter struct {
	expr    string
	program cel.Program
}

func newFilterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("source", cel.StringType),
		cel.Variable("target", cel.StringType),
		cel.Variable("source_category", cel.StringType),
		cel.Variable("target_category", cel.StringType),
		cel.Variable("topological", cel.IntType),
		cel.Variable("cooccurrence", cel.DoubleType),
		cel.Variable("bridge", cel.DoubleType),
		cel.Variable("strength", cel.DoubleType),
	)
}

// CompileFilter compiles expr. An empty expression returns a nil filter,
// which matches everything.
func CompileFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := newFilterEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid gap filter %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("gap filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build gap filter %q", expr)
	}
	return &Filter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match reports whether c satisfies the filter.
func (f *Filter) Match(c Candidate) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, _, err := f.program.Eval(map[string]any{
		"source":          c.Source,
		"target":          c.Target,
		"source_category": string(c.SourceCategory),
		"target_category": string(c.TargetCategory),
		"topological":     int64(c.Topological),
		"cooccurrence":    c.Cooccurrence,
		"bridge":          c.Bridge,
		"strength":        c.Strength,
	})
	if err != nil {
		return false, errors.Wrapf(err, "evaluate gap filter %q", f.expr)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("gap filter %q returned %T", f.expr, out.Value())
	}
	return matched, nil
}
