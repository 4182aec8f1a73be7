package sigh

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
)

// Attribute identifies a semantic attribute as a (node, name) pair.
type Attribute struct {
	Node Node
	Name string
}

func Attr(node Node, name string) Attribute {
	return Attribute{Node: node, Name: name}
}

func (a Attribute) String() string {
	kind := strings.TrimPrefix(fmt.Sprintf("%T", a.Node), "*sigh.")
	return fmt.Sprintf("%s@%p.%s", strcase.ToSnake(kind), a.Node, a.Name)
}

// Reactor is a write-once dataflow engine: rules declare the attributes
// they read and the attributes they write, and fire once all inputs are
// present. Rules may register further rules while firing, which is how
// forward references resolve. Semantic errors accumulate; their
// presence blocks execution, never rule evaluation.
type Reactor struct {
	values  map[Attribute]any
	waiting map[Attribute][]*rule
	queue   []*rule
	errs    []*SemanticError
}

func NewReactor() *Reactor {
	return &Reactor{
		values:  make(map[Attribute]any),
		waiting: make(map[Attribute][]*rule),
	}
}

type rule struct {
	inputs  []Attribute
	outputs []Attribute
	run     func(rc *RuleContext)

	missing int
	queued  bool
}

// RuleBuilder assembles a rule; obtain one from Reactor.Rule.
type RuleBuilder struct {
	reactor *Reactor
	outputs []Attribute
	inputs  []Attribute
}

// Rule starts a new rule writing the given output attributes (possibly
// none, for pure check rules).
func (r *Reactor) Rule(outputs ...Attribute) *RuleBuilder {
	return &RuleBuilder{reactor: r, outputs: outputs}
}

// Using declares the input attributes the rule depends on.
func (b *RuleBuilder) Using(inputs ...Attribute) *RuleBuilder {
	b.inputs = append(b.inputs, inputs...)
	return b
}

// By installs the rule body and registers the rule. The body runs once,
// after every input attribute has been set.
func (b *RuleBuilder) By(fn func(rc *RuleContext)) {
	rl := &rule{inputs: b.inputs, outputs: b.outputs, run: fn}
	for _, in := range rl.inputs {
		if _, ok := b.reactor.values[in]; !ok {
			rl.missing++
			b.reactor.waiting[in] = append(b.reactor.waiting[in], rl)
		}
	}
	if rl.missing == 0 {
		rl.queued = true
		b.reactor.queue = append(b.reactor.queue, rl)
	}
}

// CopyFirst is a rule body that forwards its first input to its first
// output unchanged.
func CopyFirst(rc *RuleContext) { rc.Set(0, rc.Get(0)) }

// RuleContext is handed to a firing rule to read inputs, write outputs
// and report errors.
type RuleContext struct {
	reactor *Reactor
	rule    *rule
}

// Get returns the i-th input attribute's value.
func (rc *RuleContext) Get(i int) any {
	v, ok := rc.reactor.values[rc.rule.inputs[i]]
	if !ok {
		panic(errors.Errorf("rule fired with missing input %s", rc.rule.inputs[i]))
	}
	return v
}

// GetType returns the i-th input as a Type.
func (rc *RuleContext) GetType(i int) Type {
	t, ok := rc.Get(i).(Type)
	if !ok {
		panic(errors.Errorf("attribute %s does not hold a type", rc.rule.inputs[i]))
	}
	return t
}

// Set writes the i-th output attribute.
func (rc *RuleContext) Set(i int, value any) {
	rc.reactor.set(rc.rule.outputs[i], value)
}

// Error reports a semantic error located at node.
func (rc *RuleContext) Error(message string, node Node) {
	rc.reactor.Error(NewSemanticError(message, node, PhaseSemantic))
}

// ErrorFor reports a semantic error attributed to the given output
// attributes, which are left unset.
func (rc *RuleContext) ErrorFor(message string, node Node, affected ...Attribute) {
	rc.reactor.Error(NewSemanticError(message, node, PhaseSemantic))
}

// Set establishes an attribute value outside any rule.
func (r *Reactor) Set(node Node, name string, value any) {
	r.set(Attr(node, name), value)
}

func (r *Reactor) set(attr Attribute, value any) {
	if _, ok := r.values[attr]; ok {
		panic(errors.Errorf("attribute %s set twice", attr))
	}
	slog.Debug("attribute set", "attr", attr.String())
	r.values[attr] = value
	for _, rl := range r.waiting[attr] {
		rl.missing--
		if rl.missing == 0 && !rl.queued {
			rl.queued = true
			r.queue = append(r.queue, rl)
		}
	}
	delete(r.waiting, attr)
}

// Get returns the value of an attribute, which must have been set; the
// interpreter relies on this after a clean analysis.
func (r *Reactor) Get(node Node, name string) any {
	v, ok := r.values[Attr(node, name)]
	if !ok {
		panic(errors.Errorf("missing attribute %s", Attr(node, name)))
	}
	return v
}

// GetType returns a "type"-ish attribute as a Type.
func (r *Reactor) GetType(node Node, name string) Type {
	t, ok := r.Get(node, name).(Type)
	if !ok {
		panic(errors.Errorf("attribute %s does not hold a type", Attr(node, name)))
	}
	return t
}

// Has reports whether an attribute has been established.
func (r *Reactor) Has(node Node, name string) bool {
	_, ok := r.values[Attr(node, name)]
	return ok
}

// Error records a semantic error; analysis continues.
func (r *Reactor) Error(err *SemanticError) {
	slog.Debug("semantic error", "message", err.Message)
	r.errs = append(r.errs, err)
}

// Errors returns the accumulated semantic errors.
func (r *Reactor) Errors() []*SemanticError {
	return r.errs
}

// Run fires rules until no more can fire. The order is unspecified
// beyond the data dependencies; since attributes are write-once and
// rules are pure in their inputs, the resulting attribute set is
// deterministic.
func (r *Reactor) Run() {
	for len(r.queue) > 0 {
		rl := r.queue[0]
		r.queue = r.queue[1:]
		rl.run(&RuleContext{reactor: r, rule: rl})
	}
}
