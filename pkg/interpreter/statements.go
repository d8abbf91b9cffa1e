package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// exec evaluates one statement and returns its completion (spec §4.5's
// "Evaluation" for Statement), threading abrupt completions (break,
// continue, return) up to the nearest construct that absorbs them and Go
// errors for thrown values straight up the call stack.
func (ip *Interpreter) exec(f *frame, stmt ast.Statement) (runtime.Completion, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		v, err := ip.eval(f, s.Expr)
		if err != nil {
			return runtime.Completion{}, err
		}
		return runtime.NormalCompletion(v), nil

	case *ast.VariableDeclaration:
		for _, d := range s.Declarations {
			var v runtime.Value = runtime.Undefined
			if d.Init != nil {
				var err error
				v, err = ip.eval(f, d.Init)
				if err != nil {
					return runtime.Completion{}, err
				}
				if id, ok := d.Id.(*ast.Identifier); ok {
					nameAnonymousFunction(v, id.Name)
				}
			} else if s.Kind == ast.KindConst {
				return runtime.Completion{}, runtime.NewSyntaxErrorValue("Missing initializer in const declaration")
			}
			if err := ip.bindPattern(f, d.Id, v, s.Kind); err != nil {
				return runtime.Completion{}, err
			}
		}
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.FunctionDeclaration:
		// already materialized by hoisting; declaring again is a no-op.
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.ClassDeclaration:
		cls, err := ip.evalClass(f, s.ClassShape)
		if err != nil {
			return runtime.Completion{}, err
		}
		if s.Id != nil {
			if err := f.env.InitializeBinding(s.Id.Name, runtime.NewObject(cls)); err != nil {
				return runtime.Completion{}, err
			}
		}
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.BlockStatement:
		return ip.execBlock(f, s)

	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.IfStatement:
		test, err := ip.eval(f, s.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if test.ToBoolean() {
			return ip.exec(f, s.Consequent)
		}
		if s.Alternate != nil {
			return ip.exec(f, s.Alternate)
		}
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.WhileStatement:
		return ip.execWhile(f, s)

	case *ast.DoWhileStatement:
		return ip.execDoWhile(f, s)

	case *ast.ForStatement:
		return ip.execFor(f, s)

	case *ast.ForInStatement:
		return ip.execForIn(f, s)

	case *ast.ForOfStatement:
		return ip.execForOf(f, s)

	case *ast.BreakStatement:
		return runtime.BreakCompletion(s.Label), nil

	case *ast.ContinueStatement:
		return runtime.ContinueCompletion(s.Label), nil

	case *ast.ReturnStatement:
		var v runtime.Value = runtime.Undefined
		if s.Argument != nil {
			var err error
			v, err = ip.eval(f, s.Argument)
			if err != nil {
				return runtime.Completion{}, err
			}
		}
		return runtime.ReturnCompletion(v), nil

	case *ast.LabeledStatement:
		return ip.execLabeled(f, s)

	case *ast.SwitchStatement:
		return ip.execSwitch(f, s)

	case *ast.ThrowStatement:
		v, err := ip.eval(f, s.Argument)
		if err != nil {
			return runtime.Completion{}, err
		}
		return runtime.Completion{}, runtime.NewThrow(v)

	case *ast.TryStatement:
		return ip.execTry(f, s)

	case *ast.WithStatement:
		return ip.execWith(f, s)

	case *ast.ImportDeclaration:
		// bindings are installed directly on the module environment by the
		// module linker before evaluation starts; nothing runs here.
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.ExportNamedDeclaration:
		if s.Declaration != nil {
			return ip.exec(f, s.Declaration)
		}
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.ExportDefaultDeclaration:
		return ip.execExportDefault(f, s)

	case *ast.ExportAllDeclaration:
		// re-export flattening happens in the module linker, not here.
		return runtime.NormalCompletion(runtime.Undefined), nil

	default:
		return runtime.Completion{}, runtime.NewSyntaxErrorValue("unsupported statement node")
	}
}

// execBlock creates a fresh declarative environment for the block's
// lexical declarations (spec §4.4's per-block lexical environment) and
// executes its statements in order.
func (ip *Interpreter) execBlock(f *frame, b *ast.BlockStatement) (runtime.Completion, error) {
	blockEnv := runtime.NewDeclarativeEnvironment(f.env)
	nf := f.withEnv(blockEnv)
	lets, consts, classes := lexicalNames(b.Statements)
	for _, name := range lets {
		if err := blockEnv.CreateMutableBinding(name, false); err != nil {
			return runtime.Completion{}, err
		}
	}
	for _, name := range consts {
		if err := blockEnv.CreateImmutableBinding(name, nf.strict); err != nil {
			return runtime.Completion{}, err
		}
	}
	for _, name := range classes {
		if err := blockEnv.CreateMutableBinding(name, false); err != nil {
			return runtime.Completion{}, err
		}
	}
	for _, fd := range hoistFunctionDecls(b.Statements) {
		fn := ip.makeFunction(&nf, fd.FunctionShape, false, nil)
		blockEnv.CreateMutableBinding(fd.Id.Name, false)
		blockEnv.InitializeBinding(fd.Id.Name, runtime.NewObject(fn))
	}
	return ip.execStatements(&nf, b.Statements)
}

func (ip *Interpreter) execStatements(f *frame, stmts []ast.Statement) (runtime.Completion, error) {
	var result runtime.Completion
	for _, stmt := range stmts {
		if err := f.realm.Quota.CheckStatement(); err != nil {
			return runtime.Completion{}, err
		}
		c, err := ip.exec(f, stmt)
		if err != nil {
			return runtime.Completion{}, err
		}
		if !c.Value.IsUndefined() {
			result = c
		} else if !c.IsAbrupt() {
			result.Kind = runtime.CompletionNormal
		}
		if c.IsAbrupt() {
			return c, nil
		}
	}
	return result, nil
}

func (ip *Interpreter) execWith(f *frame, s *ast.WithStatement) (runtime.Completion, error) {
	if f.strict {
		return runtime.Completion{}, runtime.NewSyntaxErrorValue("Strict mode code may not include a with statement")
	}
	v, err := ip.eval(f, s.Object)
	if err != nil {
		return runtime.Completion{}, err
	}
	obj, err := ip.toObject(f, v)
	if err != nil {
		return runtime.Completion{}, err
	}
	nf := f.withEnv(runtime.NewObjectEnvironment(obj, true, f.env))
	return ip.exec(&nf, s.Body)
}

// matchesLoopLabel reports whether a break/continue carrying label targets
// a loop whose label set is labels: an unlabeled jump always does, a
// labeled one only if its label is in the set (the AST attaches labels as
// wrapping LabeledStatement nodes rather than a field on the loop).
func matchesLoopLabel(label string, labels []string) bool {
	if label == "" {
		return true
	}
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func (ip *Interpreter) execLabeled(f *frame, s *ast.LabeledStatement) (runtime.Completion, error) {
	nf := *f
	nf.labels = append(append([]string{}, f.labels...), s.Label)
	c, err := ip.exec(&nf, s.Body)
	if err != nil {
		return runtime.Completion{}, err
	}
	if c.Kind == runtime.CompletionBreak && c.Label == s.Label {
		return runtime.NormalCompletion(runtime.Undefined), nil
	}
	return c, nil
}

func (ip *Interpreter) execWhile(f *frame, s *ast.WhileStatement) (runtime.Completion, error) {
	labels := f.labels
	var result runtime.Completion
	for {
		if err := f.realm.Quota.CheckStatement(); err != nil {
			return runtime.Completion{}, err
		}
		test, err := ip.eval(f, s.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if !test.ToBoolean() {
			return result, nil
		}
		c, err := ip.exec(f, s.Body)
		if err != nil {
			return runtime.Completion{}, err
		}
		switch {
		case c.Kind == runtime.CompletionBreak && matchesLoopLabel(c.Label, labels):
			return runtime.NormalCompletion(result.Value), nil
		case c.Kind == runtime.CompletionContinue && matchesLoopLabel(c.Label, labels):
			// fall through to next iteration
		case c.IsAbrupt():
			return c, nil
		default:
			result = c
		}
	}
}

func (ip *Interpreter) execDoWhile(f *frame, s *ast.DoWhileStatement) (runtime.Completion, error) {
	labels := f.labels
	var result runtime.Completion
	for {
		if err := f.realm.Quota.CheckStatement(); err != nil {
			return runtime.Completion{}, err
		}
		c, err := ip.exec(f, s.Body)
		if err != nil {
			return runtime.Completion{}, err
		}
		switch {
		case c.Kind == runtime.CompletionBreak && matchesLoopLabel(c.Label, labels):
			return runtime.NormalCompletion(result.Value), nil
		case c.Kind == runtime.CompletionContinue && matchesLoopLabel(c.Label, labels):
			// continue below to test
		case c.IsAbrupt():
			return c, nil
		default:
			result = c
		}
		test, err := ip.eval(f, s.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if !test.ToBoolean() {
			return result, nil
		}
	}
}

func (ip *Interpreter) execFor(f *frame, s *ast.ForStatement) (runtime.Completion, error) {
	loopEnv := runtime.NewDeclarativeEnvironment(f.env)
	nf := f.withEnv(loopEnv)
	perIterationNames := []string(nil)
	if decl, ok := s.Init.(*ast.VariableDeclaration); ok {
		if decl.Kind != ast.KindVar {
			for _, d := range decl.Declarations {
				names := patternNames(d.Id)
				perIterationNames = append(perIterationNames, names...)
				for _, n := range names {
					if decl.Kind == ast.KindConst {
						loopEnv.CreateImmutableBinding(n, nf.strict)
					} else {
						loopEnv.CreateMutableBinding(n, false)
					}
				}
			}
		}
		if _, err := ip.exec(&nf, decl); err != nil {
			return runtime.Completion{}, err
		}
	} else if s.Init != nil {
		if expr, ok := s.Init.(ast.Expression); ok {
			if _, err := ip.eval(&nf, expr); err != nil {
				return runtime.Completion{}, err
			}
		}
	}

	labels := f.labels
	var result runtime.Completion
	for {
		if err := f.realm.Quota.CheckStatement(); err != nil {
			return runtime.Completion{}, err
		}
		if s.Test != nil {
			test, err := ip.eval(&nf, s.Test)
			if err != nil {
				return runtime.Completion{}, err
			}
			if !test.ToBoolean() {
				return result, nil
			}
		}
		// Copy-per-iteration so closures created inside the body capture
		// the value at this iteration, not a shared mutable binding
		// (spec "CreatePerIterationEnvironment").
		if len(perIterationNames) > 0 {
			iterEnv := runtime.NewDeclarativeEnvironment(f.env)
			for _, n := range perIterationNames {
				v, _ := nf.env.GetBindingValue(n, false)
				iterEnv.CreateMutableBinding(n, false)
				iterEnv.InitializeBinding(n, v)
			}
			nf = f.withEnv(iterEnv)
		}
		c, err := ip.exec(&nf, s.Body)
		if err != nil {
			return runtime.Completion{}, err
		}
		switch {
		case c.Kind == runtime.CompletionBreak && matchesLoopLabel(c.Label, labels):
			return runtime.NormalCompletion(result.Value), nil
		case c.Kind == runtime.CompletionContinue && matchesLoopLabel(c.Label, labels):
			// fall through to Update
		case c.IsAbrupt():
			return c, nil
		default:
			result = c
		}
		if s.Update != nil {
			if _, err := ip.eval(&nf, s.Update); err != nil {
				return runtime.Completion{}, err
			}
		}
	}
}

func (ip *Interpreter) execSwitch(f *frame, s *ast.SwitchStatement) (runtime.Completion, error) {
	disc, err := ip.eval(f, s.Discriminant)
	if err != nil {
		return runtime.Completion{}, err
	}
	var stmts []ast.Statement
	for _, c := range s.Cases {
		stmts = append(stmts, c.Consequent...)
	}
	switchEnv := runtime.NewDeclarativeEnvironment(f.env)
	nf := f.withEnv(switchEnv)
	lets, consts, classes := lexicalNames(stmts)
	for _, name := range lets {
		switchEnv.CreateMutableBinding(name, false)
	}
	for _, name := range consts {
		switchEnv.CreateImmutableBinding(name, nf.strict)
	}
	for _, name := range classes {
		switchEnv.CreateMutableBinding(name, false)
	}

	matched := -1
	defaultIdx := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			defaultIdx = i
			continue
		}
		tv, err := ip.eval(&nf, c.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if runtime.StrictEquals(disc, tv) {
			matched = i
			break
		}
	}
	if matched == -1 {
		matched = defaultIdx
	}
	if matched == -1 {
		return runtime.NormalCompletion(runtime.Undefined), nil
	}
	var result runtime.Completion
	for i := matched; i < len(s.Cases); i++ {
		for _, stmt := range s.Cases[i].Consequent {
			if err := f.realm.Quota.CheckStatement(); err != nil {
				return runtime.Completion{}, err
			}
			c, err := ip.exec(&nf, stmt)
			if err != nil {
				return runtime.Completion{}, err
			}
			if c.Kind == runtime.CompletionBreak && c.Label == "" {
				return runtime.NormalCompletion(result.Value), nil
			}
			if c.IsAbrupt() {
				return c, nil
			}
			result = c
		}
	}
	return result, nil
}

// execExportDefault implements `export default ...` (spec "Evaluation" for
// ExportDeclaration, §16.2.3.7): a named function/class default was already
// bound under its own name by hoisting/moduleDeclarationInstantiation, so
// only the module's "*default*" slot needs initializing here; an anonymous
// function/class or a bare expression has no other binding and is both
// created and bound in place.
func (ip *Interpreter) execExportDefault(f *frame, s *ast.ExportDefaultDeclaration) (runtime.Completion, error) {
	switch d := s.Declaration.(type) {
	case *ast.FunctionDeclaration:
		if d.Id != nil {
			v, err := f.env.GetBindingValue(d.Id.Name, false)
			if err != nil {
				return runtime.Completion{}, err
			}
			if err := f.env.InitializeBinding("*default*", v); err != nil {
				return runtime.Completion{}, err
			}
			return runtime.NormalCompletion(runtime.Undefined), nil
		}
		fn := ip.makeFunction(f, d.FunctionShape, false, nil)
		v := runtime.NewObject(fn)
		nameAnonymousFunction(v, "default")
		if err := f.env.InitializeBinding("*default*", v); err != nil {
			return runtime.Completion{}, err
		}
		return runtime.NormalCompletion(runtime.Undefined), nil

	case *ast.ClassDeclaration:
		cls, err := ip.evalClass(f, d.ClassShape)
		if err != nil {
			return runtime.Completion{}, err
		}
		v := runtime.NewObject(cls)
		if d.Id != nil {
			if err := f.env.InitializeBinding(d.Id.Name, v); err != nil {
				return runtime.Completion{}, err
			}
		}
		if err := f.env.InitializeBinding("*default*", v); err != nil {
			return runtime.Completion{}, err
		}
		return runtime.NormalCompletion(runtime.Undefined), nil

	default:
		expr, ok := s.Declaration.(ast.Expression)
		if !ok {
			return runtime.Completion{}, runtime.NewSyntaxErrorValue("invalid export default declaration")
		}
		v, err := ip.eval(f, expr)
		if err != nil {
			return runtime.Completion{}, err
		}
		nameAnonymousFunction(v, "default")
		if err := f.env.InitializeBinding("*default*", v); err != nil {
			return runtime.Completion{}, err
		}
		return runtime.NormalCompletion(runtime.Undefined), nil
	}
}

// execTry implements spec §4.5's abrupt-completion-aware try/catch/finally:
// the finally block always runs (even over a break/continue/return/throw
// from try or catch), and its own abrupt completion (if any) overrides
// whatever try/catch produced, matching TryStatement's "Evaluation".
func (ip *Interpreter) execTry(f *frame, s *ast.TryStatement) (runtime.Completion, error) {
	c, err := ip.execBlock(f, s.Block)
	if err != nil {
		if thr, ok := err.(*runtime.Throw); ok && s.Handler != nil {
			catchEnv := runtime.NewDeclarativeEnvironment(f.env)
			nf := f.withEnv(catchEnv)
			if s.Handler.Param != nil {
				for _, n := range patternNames(s.Handler.Param) {
					catchEnv.CreateMutableBinding(n, false)
				}
				if berr := ip.bindPattern(&nf, s.Handler.Param, thr.Value, ast.KindLet); berr != nil {
					c, err = runtime.Completion{}, berr
					goto finally
				}
			}
			c, err = ip.execBlock(&nf, s.Handler.Body)
		}
	}
finally:
	if s.Finalizer != nil {
		fc, ferr := ip.execBlock(f, s.Finalizer)
		if ferr != nil || fc.IsAbrupt() {
			return fc, ferr
		}
	}
	return c, err
}
