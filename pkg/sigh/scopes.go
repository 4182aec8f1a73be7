package sigh

// Scope is a lexical scope mapping names to declarations. Each block,
// function body and case statement owns one; the root scope persists
// for the whole run.
type Scope struct {
	Node   Node
	Parent *Scope

	declarations map[string]Declaration
}

// NewScope creates a child scope owned by node.
func NewScope(node Node, parent *Scope) *Scope {
	return &Scope{
		Node:         node,
		Parent:       parent,
		declarations: make(map[string]Declaration),
	}
}

// DeclarationContext pairs a declaration with the scope it lives in.
type DeclarationContext struct {
	Scope       *Scope
	Declaration Declaration
}

// Declare binds name to decl in this scope, shadowing outer bindings.
func (s *Scope) Declare(name string, decl Declaration) {
	s.declarations[name] = decl
}

// Lookup resolves name in this scope or an ancestor, or returns nil.
func (s *Scope) Lookup(name string) *DeclarationContext {
	for scope := s; scope != nil; scope = scope.Parent {
		if decl, ok := scope.declarations[name]; ok {
			return &DeclarationContext{Scope: scope, Declaration: decl}
		}
	}
	return nil
}

// LookupLocal resolves name in this scope only.
func (s *Scope) LookupLocal(name string) Declaration {
	return s.declarations[name]
}

// ---------------------------------------------------------------------------

// RootScope is the top-level scope, pre-populated with the synthetic
// declarations of the built-in types, constants and functions.
type RootScope struct {
	*Scope

	IntDecl    *SyntheticDeclaration
	FloatDecl  *SyntheticDeclaration
	BoolDecl   *SyntheticDeclaration
	StringDecl *SyntheticDeclaration
	VoidDecl   *SyntheticDeclaration
	TypeDecl   *SyntheticDeclaration

	TrueDecl  *SyntheticDeclaration
	FalseDecl *SyntheticDeclaration
	NullDecl  *SyntheticDeclaration

	PrintDecl *SyntheticDeclaration
}

// NewRootScope builds the root scope and stamps the types of its
// synthetic declarations into the reactor.
func NewRootScope(node Node, r *Reactor) *RootScope {
	root := &RootScope{Scope: NewScope(node, nil)}

	typeDecl := func(name string, declared Type) *SyntheticDeclaration {
		decl := &SyntheticDeclaration{Name: name, Kind: KindType}
		root.Declare(name, decl)
		r.Set(decl, "type", TypeT)
		r.Set(decl, "declared", declared)
		return decl
	}
	varDecl := func(name string, typ Type) *SyntheticDeclaration {
		decl := &SyntheticDeclaration{Name: name, Kind: KindVariable}
		root.Declare(name, decl)
		r.Set(decl, "type", typ)
		return decl
	}

	root.IntDecl = typeDecl("Int", IntT)
	root.FloatDecl = typeDecl("Float", FloatT)
	root.BoolDecl = typeDecl("Bool", BoolT)
	root.StringDecl = typeDecl("String", StringT)
	root.VoidDecl = typeDecl("Void", VoidT)
	root.TypeDecl = typeDecl("Type", TypeT)

	root.TrueDecl = varDecl("true", BoolT)
	root.FalseDecl = varDecl("false", BoolT)
	root.NullDecl = varDecl("null", NullT)

	root.PrintDecl = &SyntheticDeclaration{Name: "print", Kind: KindFunction}
	root.Declare("print", root.PrintDecl)
	r.Set(root.PrintDecl, "type", FunType{ReturnType: StringT, ParamTypes: []Type{StringT}})

	return root
}

// ---------------------------------------------------------------------------

// ScopeStorage holds the run-time bindings of one scope instance; it
// forms a stack mirroring the lexical nesting of the executing code.
type ScopeStorage struct {
	Scope  *Scope
	Parent *ScopeStorage

	values map[string]any
}

func NewScopeStorage(scope *Scope, parent *ScopeStorage) *ScopeStorage {
	return &ScopeStorage{Scope: scope, Parent: parent, values: make(map[string]any)}
}

// InitRoot installs the values of the root scope's synthetic constants.
func (s *ScopeStorage) InitRoot(root *RootScope) {
	s.values["true"] = true
	s.values["false"] = false
	s.values["null"] = Null
}

// Get reads name from the storage frame matching scope.
func (s *ScopeStorage) Get(scope *Scope, name string) any {
	for storage := s; storage != nil; storage = storage.Parent {
		if storage.Scope == scope {
			return storage.values[name]
		}
	}
	return nil
}

// Set writes name in the storage frame matching scope; if no frame
// matches, the value lands in the current frame.
func (s *ScopeStorage) Set(scope *Scope, name string, value any) {
	for storage := s; storage != nil; storage = storage.Parent {
		if storage.Scope == scope {
			storage.values[name] = value
			return
		}
	}
	s.values[name] = value
}
