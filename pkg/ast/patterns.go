package ast

// ArrayPatternElement mirrors ArrayElement but for destructuring targets;
// a nil Target marks an elided position ("let [, b] = xs").
type ArrayPatternElement struct {
	Target Pattern
	Rest   bool
}

type ArrayPattern struct {
	exprBase
	Elements []ArrayPatternElement
}

type ObjectPatternProperty struct {
	Key       Expression
	Value     Pattern
	Computed  bool
	Shorthand bool
}

type ObjectPattern struct {
	exprBase
	Properties []ObjectPatternProperty
	// Rest holds the `...rest` binding target, or nil.
	Rest Pattern
}

// RestElement wraps a binding target preceded by `...`, used in both
// array patterns (tail position) and function parameter lists.
type RestElement struct {
	exprBase
	Argument Pattern
}

// AssignmentPattern represents a pattern with a default value:
// `function f(a = 1)` or `let { a = 1 } = obj`.
type AssignmentPattern struct {
	exprBase
	Left  Pattern
	Right Expression
}
