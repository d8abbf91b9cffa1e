package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/errors"
	"ecmacore/pkg/runtime"
)

// hoistVarNames collects every `var`-declared binding name reachable
// from stmts without crossing into a nested function body, implementing
// the VarDeclaredNames static semantic (spec §4.5 "hoisting").
// Block-scoped let/const/class names are deliberately excluded;
// lexicalNames handles those per-block instead.
func hoistVarNames(stmts []ast.Statement) []string {
	var names []string
	var walkStmt func(ast.Statement)
	var walkPattern func(ast.Pattern)

	walkPattern = func(p ast.Pattern) {
		switch n := p.(type) {
		case *ast.Identifier:
			names = append(names, n.Name)
		case *ast.ArrayPattern:
			for _, el := range n.Elements {
				if el.Target != nil {
					walkPattern(el.Target)
				}
			}
		case *ast.ObjectPattern:
			for _, prop := range n.Properties {
				walkPattern(prop.Value)
			}
			if n.Rest != nil {
				walkPattern(n.Rest)
			}
		case *ast.AssignmentPattern:
			walkPattern(n.Left)
		case *ast.RestElement:
			walkPattern(n.Argument)
		}
	}

	walkStmt = func(s ast.Statement) {
		switch n := s.(type) {
		case *ast.VariableDeclaration:
			if n.Kind == ast.KindVar {
				for _, d := range n.Declarations {
					walkPattern(d.Id)
				}
			}
		case *ast.BlockStatement:
			for _, st := range n.Statements {
				walkStmt(st)
			}
		case *ast.IfStatement:
			walkStmt(n.Consequent)
			if n.Alternate != nil {
				walkStmt(n.Alternate)
			}
		case *ast.ForStatement:
			if decl, ok := n.Init.(*ast.VariableDeclaration); ok && decl.Kind == ast.KindVar {
				for _, d := range decl.Declarations {
					walkPattern(d.Id)
				}
			}
			walkStmt(n.Body)
		case *ast.ForInStatement:
			if decl, ok := n.Left.(*ast.VariableDeclaration); ok && decl.Kind == ast.KindVar {
				for _, d := range decl.Declarations {
					walkPattern(d.Id)
				}
			}
			walkStmt(n.Body)
		case *ast.ForOfStatement:
			if decl, ok := n.Left.(*ast.VariableDeclaration); ok && decl.Kind == ast.KindVar {
				for _, d := range decl.Declarations {
					walkPattern(d.Id)
				}
			}
			walkStmt(n.Body)
		case *ast.WhileStatement:
			walkStmt(n.Body)
		case *ast.DoWhileStatement:
			walkStmt(n.Body)
		case *ast.TryStatement:
			walkStmt(n.Block)
			if n.Handler != nil {
				walkStmt(n.Handler.Body)
			}
			if n.Finalizer != nil {
				walkStmt(n.Finalizer)
			}
		case *ast.SwitchStatement:
			for _, c := range n.Cases {
				for _, st := range c.Consequent {
					walkStmt(st)
				}
			}
		case *ast.LabeledStatement:
			walkStmt(n.Body)
		case *ast.WithStatement:
			walkStmt(n.Body)
		case *ast.FunctionDeclaration:
			// function declarations are hoisted separately (see
			// hoistFunctionDecls); their own names are not VarDeclaredNames
			// at nested block scope.
		case *ast.ExportNamedDeclaration:
			if n.Declaration != nil {
				walkStmt(n.Declaration)
			}
		}
	}
	for _, s := range stmts {
		walkStmt(s)
	}
	return names
}

// hoistFunctionDecls returns the function declarations directly in stmts
// (not nested inside blocks/ifs), which are both var-hoisted (their name
// becomes a var-like binding) and pre-initialized to the function object
// before the rest of the body runs (spec "InstantiateFunctionObject" at
// the top of FunctionDeclarationInstantiation/GlobalDeclarationInstantiation).
// A named function declaration wrapped in `export` or `export default` is
// hoisted the same way as an unwrapped one.
func hoistFunctionDecls(stmts []ast.Statement) []*ast.FunctionDeclaration {
	var out []*ast.FunctionDeclaration
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.FunctionDeclaration:
			out = append(out, n)
		case *ast.ExportNamedDeclaration:
			if fd, ok := n.Declaration.(*ast.FunctionDeclaration); ok {
				out = append(out, fd)
			}
		case *ast.ExportDefaultDeclaration:
			if fd, ok := n.Declaration.(*ast.FunctionDeclaration); ok && fd.Id != nil {
				out = append(out, fd)
			}
		}
	}
	return out
}

// lexicalNames collects the let/const/class names declared directly in
// stmts (one block's LexicalDeclarations, not recursing into nested
// blocks), used to pre-declare TDZ bindings when entering a new block.
// `export`/`export default` wrappers around a let/const/class declaration
// unwrap transparently, same as hoistFunctionDecls.
func lexicalNames(stmts []ast.Statement) (lets []string, consts []string, classes []string) {
	addDecl := func(s ast.Statement) {
		switch n := s.(type) {
		case *ast.VariableDeclaration:
			if n.Kind == ast.KindLet {
				for _, d := range n.Declarations {
					lets = append(lets, patternNames(d.Id)...)
				}
			} else if n.Kind == ast.KindConst {
				for _, d := range n.Declarations {
					consts = append(consts, patternNames(d.Id)...)
				}
			}
		case *ast.ClassDeclaration:
			if n.Id != nil {
				classes = append(classes, n.Id.Name)
			}
		}
	}
	for _, s := range stmts {
		addDecl(s)
		if exp, ok := s.(*ast.ExportNamedDeclaration); ok && exp.Declaration != nil {
			addDecl(exp.Declaration)
		}
		if exp, ok := s.(*ast.ExportDefaultDeclaration); ok {
			if cd, ok := exp.Declaration.(*ast.ClassDeclaration); ok && cd.Id != nil {
				classes = append(classes, cd.Id.Name)
			}
		}
	}
	return
}

func patternNames(p ast.Pattern) []string {
	var names []string
	var walk func(ast.Pattern)
	walk = func(p ast.Pattern) {
		switch n := p.(type) {
		case *ast.Identifier:
			names = append(names, n.Name)
		case *ast.ArrayPattern:
			for _, el := range n.Elements {
				if el.Target != nil {
					walk(el.Target)
				}
			}
		case *ast.ObjectPattern:
			for _, prop := range n.Properties {
				walk(prop.Value)
			}
			if n.Rest != nil {
				walk(n.Rest)
			}
		case *ast.AssignmentPattern:
			walk(n.Left)
		case *ast.RestElement:
			walk(n.Argument)
		}
	}
	walk(p)
	return names
}

// globalDeclarationInstantiation implements the spec algorithm of the same
// name: var/function names become (configurable, in sloppy-eval; here
// always non-deletable at the true top level) global object properties,
// then function declarations are eagerly initialized.
func (ip *Interpreter) globalDeclarationInstantiation(f *frame, stmts []ast.Statement) error {
	env := f.env
	for _, name := range hoistVarNames(stmts) {
		if err := env.CreateGlobalVarBinding(name, false); err != nil {
			return err
		}
	}
	lets, consts, classes := lexicalNames(stmts)
	for _, name := range lets {
		if err := rejectGlobalRedeclaration(env, name); err != nil {
			return err
		}
		if err := env.CreateMutableBinding(name, false); err != nil {
			return err
		}
	}
	for _, name := range consts {
		if err := rejectGlobalRedeclaration(env, name); err != nil {
			return err
		}
		if err := env.CreateImmutableBinding(name, f.strict); err != nil {
			return err
		}
	}
	for _, name := range classes {
		if err := rejectGlobalRedeclaration(env, name); err != nil {
			return err
		}
		if err := env.CreateMutableBinding(name, false); err != nil {
			return err
		}
	}
	for _, fd := range hoistFunctionDecls(stmts) {
		fn := ip.makeFunction(f, fd.FunctionShape, false, nil)
		if err := env.CreateGlobalFunctionBinding(fd.Id.Name, runtime.NewObject(fn), false); err != nil {
			return err
		}
	}
	return nil
}

// rejectGlobalRedeclaration implements the Global Environment Record's
// HasLexicalDeclaration check (spec §4.4): re-declaring an existing
// lexical binding via let/const/class at the top level is a TypeError,
// not a silent overwrite (testable property 7, spec §8).
func rejectGlobalRedeclaration(env *runtime.Environment, name string) error {
	has, err := env.HasBinding(name)
	if err != nil {
		return err
	}
	if has {
		return runtime.NewTypeErrorValue(errors.AlreadyDeclaredMessage(name))
	}
	return nil
}

// functionDeclarationInstantiation mirrors globalDeclarationInstantiation
// for a function body: var names are declared (and initialized to
// undefined unless already bound as a parameter), lexical names get TDZ
// bindings, and nested function declarations are eagerly materialized.
func (ip *Interpreter) functionDeclarationInstantiation(f *frame, stmts []ast.Statement) error {
	env := f.env
	for _, name := range hoistVarNames(stmts) {
		has, _ := env.HasBinding(name)
		if !has {
			if err := env.CreateMutableBinding(name, false); err != nil {
				return err
			}
			if err := env.InitializeBinding(name, runtime.Undefined); err != nil {
				return err
			}
		}
	}
	lets, consts, classes := lexicalNames(stmts)
	for _, name := range lets {
		if err := env.CreateMutableBinding(name, false); err != nil {
			return err
		}
	}
	for _, name := range consts {
		if err := env.CreateImmutableBinding(name, f.strict); err != nil {
			return err
		}
	}
	for _, name := range classes {
		if err := env.CreateMutableBinding(name, false); err != nil {
			return err
		}
	}
	for _, fd := range hoistFunctionDecls(stmts) {
		fn := ip.makeFunction(f, fd.FunctionShape, false, nil)
		if has, _ := env.HasBinding(fd.Id.Name); !has {
			if err := env.CreateMutableBinding(fd.Id.Name, false); err != nil {
				return err
			}
		}
		if err := env.InitializeBinding(fd.Id.Name, runtime.NewObject(fn)); err != nil {
			return err
		}
	}
	return nil
}

// moduleDeclarationInstantiation mirrors functionDeclarationInstantiation
// for a module body (spec §16.2.1.12 "InitializeEnvironment"): var names
// become declarative bindings of the module environment itself (modules
// have no global object to hang var bindings off), lexical names get TDZ
// bindings, and a module with a default export gets a "*default*" binding
// a later ExportDefaultDeclaration statement initializes. Import bindings
// are installed separately by the module linker before this runs.
func (ip *Interpreter) moduleDeclarationInstantiation(f *frame, stmts []ast.Statement) error {
	env := f.env
	for _, name := range hoistVarNames(stmts) {
		has, _ := env.HasBinding(name)
		if !has {
			if err := env.CreateMutableBinding(name, false); err != nil {
				return err
			}
			if err := env.InitializeBinding(name, runtime.Undefined); err != nil {
				return err
			}
		}
	}
	lets, consts, classes := lexicalNames(stmts)
	for _, name := range lets {
		if err := env.CreateMutableBinding(name, false); err != nil {
			return err
		}
	}
	for _, name := range consts {
		if err := env.CreateImmutableBinding(name, true); err != nil {
			return err
		}
	}
	for _, name := range classes {
		if err := env.CreateMutableBinding(name, false); err != nil {
			return err
		}
	}
	for _, fd := range hoistFunctionDecls(stmts) {
		fn := ip.makeFunction(f, fd.FunctionShape, false, nil)
		if has, _ := env.HasBinding(fd.Id.Name); !has {
			if err := env.CreateMutableBinding(fd.Id.Name, false); err != nil {
				return err
			}
		}
		if err := env.InitializeBinding(fd.Id.Name, runtime.NewObject(fn)); err != nil {
			return err
		}
	}
	for _, s := range stmts {
		if _, ok := s.(*ast.ExportDefaultDeclaration); ok {
			if err := env.CreateMutableBinding("*default*", false); err != nil {
				return err
			}
		}
	}
	return nil
}
