// Package ast defines the contract between the core runtime and a
// surface-syntax parser. This module's pkg/parser is one such producer;
// any parser is assumed to hand the core a fully-formed tree of these
// node types, with binding patterns, literals, and source locations
// already resolved.
package ast

// SourceLocation carries the line/column plus byte range the external
// parser attaches to every node, for diagnostics and stack traces.
type SourceLocation struct {
	Line   int
	Column int
	Start  int
	End    int
}

// Node is the base interface implemented by every AST node.
type Node interface {
	Loc() SourceLocation
	node()
}

// Statement is a statement-position node.
type Statement interface {
	Node
	statementNode()
}

// Expression is an expression-position node.
type Expression interface {
	Node
	expressionNode()
}

// base is embedded by every concrete node to supply Loc() without
// repeating the field and accessor on every type.
type base struct {
	Location SourceLocation
}

func (b base) Loc() SourceLocation { return b.Location }
func (base) node()                 {}

type stmtBase struct{ base }

func (stmtBase) statementNode() {}

type exprBase struct{ base }

func (exprBase) expressionNode() {}

// DeclarationKind distinguishes var/let/const per spec §3 environment
// record rules (var/function -> variable environment, let/const/class ->
// lexical environment with TDZ).
type DeclarationKind string

const (
	KindVar   DeclarationKind = "var"
	KindLet   DeclarationKind = "let"
	KindConst DeclarationKind = "const"
)
