package ast

import "math/big"

// Identifier is a bare name reference, used both as an expression and,
// via the Pattern alias, as a binding target.
type Identifier struct {
	exprBase
	Name string
}

// Pattern is any node usable as a binding target: Identifier, ArrayPattern,
// ObjectPattern, RestElement, or AssignmentPattern (default value).
type Pattern = Expression

type NullLiteral struct{ exprBase }

type BooleanLiteral struct {
	exprBase
	Value bool
}

type NumericLiteral struct {
	exprBase
	Value float64
}

type BigIntLiteral struct {
	exprBase
	Value *big.Int
}

type StringLiteral struct {
	exprBase
	Value string
}

// RegExpLiteral carries the raw pattern/flags; the core treats the regex
// engine as an opaque matcher (see spec §1) conforming to pkg/intrinsics'
// regexp contract.
type RegExpLiteral struct {
	exprBase
	Pattern string
	Flags   string
}

type ThisExpression struct{ exprBase }

type SuperExpression struct{ exprBase }

// MetaProperty covers `new.target` and `import.meta`.
type MetaProperty struct {
	exprBase
	Meta     string
	Property string
}

type TemplateElement struct {
	Cooked string
	Raw    string
	Tail   bool
}

type TemplateLiteral struct {
	exprBase
	Quasis      []TemplateElement
	Expressions []Expression
}

type TaggedTemplateExpression struct {
	exprBase
	Tag   Expression
	Quasi *TemplateLiteral
}

type ArrayElement struct {
	Expr   Expression // nil marks an elision ("hole")
	Spread bool
}

type ArrayLiteral struct {
	exprBase
	Elements []ArrayElement
}

type PropertyKind string

const (
	PropertyInit   PropertyKind = "init"
	PropertyGet    PropertyKind = "get"
	PropertySet    PropertyKind = "set"
	PropertySpread PropertyKind = "spread"
)

type Property struct {
	Key       Expression
	Value     Expression
	Kind      PropertyKind
	Computed  bool
	Shorthand bool
}

type ObjectLiteral struct {
	exprBase
	Properties []Property
}
