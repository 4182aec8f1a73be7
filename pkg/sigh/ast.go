package sigh

import (
	"fmt"
	"strings"
)

// Node is implemented by every AST node. Nodes are always handled through
// pointers so that they can serve as attribute keys in the reactor.
type Node interface {
	GetSpan() Span
	String() string
}

// Expression is implemented by nodes that produce a value.
type Expression interface {
	Node
	isExpression()
}

// Statement is implemented by statement and declaration nodes.
type Statement interface {
	Node
	isStatement()
}

// TypeNode is implemented by nodes denoting a type in the source.
type TypeNode interface {
	Node
	isTypeNode()
}

// Declaration is implemented by nodes that bind a name in a scope.
type Declaration interface {
	Node
	DeclaredName() string
	DeclaredThing() string
}

type baseNode struct {
	Span Span
}

func (n *baseNode) GetSpan() Span { return n.Span }

type expressionNode struct{ baseNode }

func (*expressionNode) isExpression() {}
func (*expressionNode) isStatement()  {}

type statementNode struct{ baseNode }

func (*statementNode) isStatement() {}

type typeNodeBase struct{ baseNode }

func (*typeNodeBase) isTypeNode() {}

// ---------------------------------------------------------------------------
// Expressions

type IntLiteral struct {
	expressionNode
	Value int64
}

func (n *IntLiteral) String() string { return fmt.Sprintf("%d", n.Value) }

type FloatLiteral struct {
	expressionNode
	Value float64
}

func (n *FloatLiteral) String() string { return fmt.Sprintf("%g", n.Value) }

type StringLiteral struct {
	expressionNode
	Value string
}

func (n *StringLiteral) String() string { return fmt.Sprintf("%q", n.Value) }

type Reference struct {
	expressionNode
	Name string
}

func (n *Reference) String() string { return n.Name }

type ArrayLiteral struct {
	expressionNode
	Components []Expression
}

func (n *ArrayLiteral) String() string {
	return "[" + joinNodes(n.Components, ", ") + "]"
}

// MatrixLiteral is an array literal whose components are all array
// literals; the parser promotes those to matrices whatever their row
// lengths, and the analysis rejects rows of unequal length.
type MatrixLiteral struct {
	expressionNode
	Components []*ArrayLiteral
}

func (n *MatrixLiteral) String() string {
	parts := make([]string, len(n.Components))
	for i, c := range n.Components {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MatrixGenerator is the [filler](rows, cols) form. A single-element
// shape list is normalized to (1, n) at construction.
type MatrixGenerator struct {
	expressionNode
	Filler Expression
	Shape  []Expression
}

func NewMatrixGenerator(span Span, filler Expression, shape []Expression) *MatrixGenerator {
	if len(shape) == 1 {
		one := &IntLiteral{Value: 1}
		one.Span = span
		shape = []Expression{one, shape[0]}
	}
	n := &MatrixGenerator{Filler: filler, Shape: shape}
	n.Span = span
	return n
}

func (n *MatrixGenerator) String() string {
	return fmt.Sprintf("[%s](%s)", n.Filler, joinNodes(n.Shape, ", "))
}

type Paren struct {
	expressionNode
	Inner Expression
}

func (n *Paren) String() string { return "(" + n.Inner.String() + ")" }

type FieldAccess struct {
	expressionNode
	Stem      Expression
	FieldName string
}

func (n *FieldAccess) String() string { return n.Stem.String() + "." + n.FieldName }

type ArrayAccess struct {
	expressionNode
	Array Expression
	Index Expression
}

func (n *ArrayAccess) String() string {
	return fmt.Sprintf("%s[%s]", n.Array, n.Index)
}

// SlicingAccess is array[start:end]. Missing endpoints default to the 0
// and -1 literals, -1 meaning "to the end".
type SlicingAccess struct {
	expressionNode
	Array      Expression
	StartIndex Expression
	EndIndex   Expression
}

func NewSlicingAccess(span Span, array, start, end Expression) *SlicingAccess {
	if start == nil {
		zero := &IntLiteral{Value: 0}
		zero.Span = span
		start = zero
	}
	if end == nil {
		minusOne := &IntLiteral{Value: -1}
		minusOne.Span = span
		end = minusOne
	}
	n := &SlicingAccess{Array: array, StartIndex: start, EndIndex: end}
	n.Span = span
	return n
}

func (n *SlicingAccess) String() string {
	return fmt.Sprintf("%s[%s:%s]", n.Array, n.StartIndex, n.EndIndex)
}

type UnaryExpression struct {
	expressionNode
	Operator UnaryOperator
	Operand  Expression
}

func (n *UnaryExpression) String() string {
	return n.Operator.String() + n.Operand.String()
}

type BinaryExpression struct {
	expressionNode
	Left     Expression
	Operator BinaryOperator
	Right    Expression
}

func (n *BinaryExpression) String() string {
	return fmt.Sprintf("%s %s %s", n.Left, n.Operator, n.Right)
}

// ConstructorRef is the $Struct form, denoting a struct's constructor.
type ConstructorRef struct {
	expressionNode
	Ref *Reference
}

func (n *ConstructorRef) String() string { return "$" + n.Ref.Name }

type FunCall struct {
	expressionNode
	Function  Expression
	Arguments []Expression
}

func (n *FunCall) String() string {
	return fmt.Sprintf("%s(%s)", n.Function, joinNodes(n.Arguments, ", "))
}

type Assignment struct {
	expressionNode
	Left  Expression
	Right Expression
}

func (n *Assignment) String() string {
	return fmt.Sprintf("%s = %s", n.Left, n.Right)
}

// ---------------------------------------------------------------------------
// Type nodes

type SimpleTypeNode struct {
	typeNodeBase
	Name string
}

func (n *SimpleTypeNode) String() string { return n.Name }

type ArrayTypeNode struct {
	typeNodeBase
	ComponentType TypeNode
}

func (n *ArrayTypeNode) String() string { return n.ComponentType.String() + "[]" }

type MatrixTypeNode struct {
	typeNodeBase
	ComponentType TypeNode
}

func (n *MatrixTypeNode) String() string { return "Mat#" + n.ComponentType.String() }

// ---------------------------------------------------------------------------
// Declarations

type VarDeclaration struct {
	statementNode
	Name        string
	Type        TypeNode
	Initializer Expression
}

func (n *VarDeclaration) DeclaredName() string  { return n.Name }
func (n *VarDeclaration) DeclaredThing() string { return "variable" }
func (n *VarDeclaration) String() string {
	return fmt.Sprintf("var %s: %s = %s", n.Name, n.Type, n.Initializer)
}

type FieldDeclaration struct {
	statementNode
	Name string
	Type TypeNode
}

func (n *FieldDeclaration) DeclaredName() string  { return n.Name }
func (n *FieldDeclaration) DeclaredThing() string { return "field" }
func (n *FieldDeclaration) String() string {
	return fmt.Sprintf("var %s: %s", n.Name, n.Type)
}

type Parameter struct {
	statementNode
	Name string
	Type TypeNode
}

func (n *Parameter) DeclaredName() string  { return n.Name }
func (n *Parameter) DeclaredThing() string { return "parameter" }
func (n *Parameter) String() string {
	return fmt.Sprintf("%s: %s", n.Name, n.Type)
}

type FunDeclaration struct {
	statementNode
	Name       string
	Parameters []*Parameter
	ReturnType TypeNode
	Body       *Block
}

func (n *FunDeclaration) DeclaredName() string  { return n.Name }
func (n *FunDeclaration) DeclaredThing() string { return "function" }
func (n *FunDeclaration) String() string {
	params := make([]string, len(n.Parameters))
	for i, p := range n.Parameters {
		params[i] = p.String()
	}
	return fmt.Sprintf("fun %s(%s): %s %s",
		n.Name, strings.Join(params, ", "), n.ReturnType, n.Body)
}

type StructDeclaration struct {
	statementNode
	Name   string
	Fields []*FieldDeclaration
}

func (n *StructDeclaration) DeclaredName() string  { return n.Name }
func (n *StructDeclaration) DeclaredThing() string { return "struct" }
func (n *StructDeclaration) String() string {
	return fmt.Sprintf("struct %s { %s }", n.Name, joinNodes(n.Fields, "; "))
}

// SymbolicVarDeclaration is the synthetic declaration of the wildcard
// "_" installed in every case statement's scope.
type SymbolicVarDeclaration struct {
	statementNode
}

// SymbolicName is the source name of the wildcard element.
const SymbolicName = "_"

func (n *SymbolicVarDeclaration) DeclaredName() string  { return SymbolicName }
func (n *SymbolicVarDeclaration) DeclaredThing() string { return "variable" }
func (n *SymbolicVarDeclaration) String() string        { return "symvar _" }

// DeclarationKind classifies synthetic root-scope declarations.
type DeclarationKind int

const (
	KindType DeclarationKind = iota
	KindVariable
	KindFunction
)

// SyntheticDeclaration is a declaration without source text: the
// built-in types, the true/false/null constants, the print function, and
// the type declarations synthesized for generic parameters.
type SyntheticDeclaration struct {
	statementNode
	Name string
	Kind DeclarationKind
}

func (n *SyntheticDeclaration) DeclaredName() string { return n.Name }
func (n *SyntheticDeclaration) DeclaredThing() string {
	switch n.Kind {
	case KindType:
		return "type"
	case KindFunction:
		return "function"
	default:
		return "variable"
	}
}
func (n *SyntheticDeclaration) String() string { return n.Name }

// ---------------------------------------------------------------------------
// Statements

type Root struct {
	statementNode
	Statements []Statement
}

func (n *Root) String() string { return joinNodes(n.Statements, "; ") }

type Block struct {
	statementNode
	Statements []Statement
}

func (n *Block) String() string {
	return "{ " + joinNodes(n.Statements, "; ") + " }"
}

type ExpressionStatement struct {
	statementNode
	Expression Expression
}

func (n *ExpressionStatement) String() string { return n.Expression.String() }

type If struct {
	statementNode
	Condition      Expression
	TrueStatement  Statement
	FalseStatement Statement // nil if absent
}

func (n *If) String() string {
	if n.FalseStatement == nil {
		return fmt.Sprintf("if (%s) %s", n.Condition, n.TrueStatement)
	}
	return fmt.Sprintf("if (%s) %s else %s", n.Condition, n.TrueStatement, n.FalseStatement)
}

type While struct {
	statementNode
	Condition Expression
	Body      Statement
}

func (n *While) String() string {
	return fmt.Sprintf("while (%s) %s", n.Condition, n.Body)
}

type Return struct {
	statementNode
	Expression Expression // nil for a bare return
}

func (n *Return) String() string {
	if n.Expression == nil {
		return "return"
	}
	return "return " + n.Expression.String()
}

// Case is the pattern-matching statement. DefaultBlock is never nil: an
// absent default is represented by an empty block.
type Case struct {
	statementNode
	Element      Expression
	Bodies       []*CaseBody
	DefaultBlock *Block
}

func (n *Case) String() string {
	var sb strings.Builder
	sb.WriteString("case " + n.Element.String() + " { ")
	for _, b := range n.Bodies {
		sb.WriteString(b.String() + ", ")
	}
	sb.WriteString("default: " + n.DefaultBlock.String() + " }")
	return sb.String()
}

type CaseBody struct {
	statementNode
	Pattern    Expression
	Statements *Block
}

func (n *CaseBody) String() string {
	return n.Pattern.String() + ": " + n.Statements.String()
}

func joinNodes[N Node](nodes []N, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}
