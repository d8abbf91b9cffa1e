package ast

// ImportSpecifier covers the three import-clause shapes:
//   import Default from 'm'               -> Default=true
//   import * as ns from 'm'                -> Namespace=true
//   import { a, b as c } from 'm'           -> Imported/Local pair
type ImportSpecifier struct {
	Imported  string // source-side export name ("default" for the default import)
	Local     string // local binding name
	Default   bool
	Namespace bool
}

type ImportDeclaration struct {
	stmtBase
	Specifiers []ImportSpecifier
	Source     string
}

// ExportSpecifier covers named re-exports: `export { a, b as c }` and
// `export { a as b } from 'm'`.
type ExportSpecifier struct {
	Local    string
	Exported string
}

type ExportNamedDeclaration struct {
	stmtBase
	// Declaration holds a *VariableDeclaration, *FunctionDeclaration, or
	// *ClassDeclaration for `export let x = 1`-style exports; nil for the
	// specifier-list form.
	Declaration Statement
	Specifiers  []ExportSpecifier
	Source      string // "" unless this is a re-export ("export {a} from 'm'")
}

type ExportDefaultDeclaration struct {
	stmtBase
	// Declaration is an Expression for `export default <expr>`, or a
	// *FunctionDeclaration/*ClassDeclaration for the named-form defaults.
	Declaration Node
}

// ExportAllDeclaration covers `export * from 'm'` (Exported == "") and
// `export * as ns from 'm'` (Exported == "ns").
type ExportAllDeclaration struct {
	stmtBase
	Source   string
	Exported string
}
