package ast

// FunctionShape is the common payload shared by function declarations,
// function expressions, and (minus ExpressionBody) arrow functions.
type FunctionShape struct {
	Id         *Identifier // nil for anonymous function expressions
	Params     []Pattern   // may include *AssignmentPattern (defaults) and *RestElement (tail)
	Body       *BlockStatement
	IsAsync    bool
	IsGenerator bool
	// Strict is true when the function's own directive prologue contains
	// "use strict", independent of the enclosing scope's strictness.
	Strict bool
}

type FunctionDeclaration struct {
	stmtBase
	*FunctionShape
}

type ClassMemberKind string

const (
	ClassMethod      ClassMemberKind = "method"
	ClassGetter      ClassMemberKind = "get"
	ClassSetter      ClassMemberKind = "set"
	ClassField       ClassMemberKind = "field"
	ClassConstructor ClassMemberKind = "constructor"
	ClassStaticBlock ClassMemberKind = "staticBlock"
)

type ClassMember struct {
	Kind     ClassMemberKind
	Key      Expression // Identifier (also for `#name` members, with Private set), StringLiteral, NumericLiteral, or computed Expression
	Value    Expression // *FunctionExpression for methods/accessors, initializer Expression for fields
	Static   bool
	Computed bool
	// Private is true for `#name` members (ECMAScript private fields).
	Private bool
}

type ClassShape struct {
	Id         *Identifier
	SuperClass Expression
	Body       []ClassMember
}

type ClassDeclaration struct {
	stmtBase
	*ClassShape
}
