package parser

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/lexer"
)

// parseStatement dispatches on curToken to the right statement parser. It
// is called once per top-level statement and once per block-statement
// entry, so every keyword-led statement form is routed from here.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.VAR, lexer.LET, lexer.CONST:
		return p.parseVariableStatement()
	case lexer.LBRACE:
		return p.parseBlockStatement()
	case lexer.SEMICOLON:
		return &ast.EmptyStatement{}
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.DO:
		return p.parseDoWhileStatement()
	case lexer.BREAK:
		return p.parseBreakStatement()
	case lexer.CONTINUE:
		return p.parseContinueStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.SWITCH:
		return p.parseSwitchStatement()
	case lexer.THROW:
		return p.parseThrowStatement()
	case lexer.TRY:
		return p.parseTryStatement()
	case lexer.FUNCTION:
		return p.parseFunctionDeclaration(false)
	case lexer.CLASS:
		return p.parseClassDeclaration()
	case lexer.DEBUGGER:
		p.consumeSemicolon()
		return &ast.DebuggerStatement{}
	case lexer.WITH:
		return p.parseWithStatement()
	case lexer.IMPORT:
		return p.parseImportDeclaration()
	case lexer.EXPORT:
		return p.parseExportDeclaration()
	case lexer.IDENT:
		if p.curToken.Literal == "async" && p.peekTokenIs(lexer.FUNCTION) {
			p.nextToken()
			return p.parseFunctionDeclaration(true)
		}
		if p.peekTokenIs(lexer.COLON) {
			return p.parseLabeledStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	expr := p.parseExpression(LOWEST)
	p.consumeSemicolon()
	return &ast.ExpressionStatement{Expr: expr}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{}
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	return block
}

func declKindFor(tt lexer.TokenType) ast.DeclarationKind {
	switch tt {
	case lexer.VAR:
		return ast.KindVar
	case lexer.CONST:
		return ast.KindConst
	default:
		return ast.KindLet
	}
}

func (p *Parser) parseVariableStatement() ast.Statement {
	decl := p.parseVariableDeclaration()
	p.consumeSemicolon()
	return decl
}

// parseVariableDeclaration parses the `var`/`let`/`const` declaration list
// without consuming a trailing semicolon, so for/for-in/for-of headers can
// reuse it.
func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	kind := declKindFor(p.curToken.Type)
	decl := &ast.VariableDeclaration{Kind: kind}

	for {
		p.nextToken()
		target := p.parseBindingTarget()
		var init ast.Expression
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			init = p.parseAssignExpr()
		}
		decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Id: target, Init: init})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return decl
}

func (p *Parser) parseIfStatement() ast.Statement {
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	test := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	cons := p.parseStatement()

	var alt ast.Statement
	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken()
		p.nextToken()
		alt = p.parseStatement()
	}
	return &ast.IfStatement{Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	test := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.WhileStatement{Test: test, Body: body}
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	p.nextToken()
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	if !p.expectPeek(lexer.WHILE) {
		return nil
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	test := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.consumeSemicolon()
	return &ast.DoWhileStatement{Test: test, Body: body}
}

// parseForStatement parses `for`, `for-in`, and `for-of` uniformly: it
// parses the init clause first (possibly a declaration), then looks for
// `in`/`of` before committing to the classic three-clause form.
func (p *Parser) parseForStatement() ast.Statement {
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}

	isAwait := false
	_ = isAwait

	var init ast.Node
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	} else {
		p.nextToken()
		switch p.curToken.Type {
		case lexer.VAR, lexer.LET, lexer.CONST:
			decl := p.parseVariableDeclaration()
			if p.peekTokenIs(lexer.IN) {
				p.nextToken()
				p.nextToken()
				right := p.parseExpression(LOWEST)
				if !p.expectPeek(lexer.RPAREN) {
					return nil
				}
				p.nextToken()
				p.inLoop++
				body := p.parseStatement()
				p.inLoop--
				return &ast.ForInStatement{Left: decl, Right: right, Body: body}
			}
			if p.peekTokenIs(lexer.IDENT) && p.peekToken.Literal == "of" {
				p.nextToken()
				p.nextToken()
				right := p.parseAssignExpr()
				if !p.expectPeek(lexer.RPAREN) {
					return nil
				}
				p.nextToken()
				p.inLoop++
				body := p.parseStatement()
				p.inLoop--
				return &ast.ForOfStatement{Left: decl, Right: right, Body: body}
			}
			init = decl
		default:
			// Parse at RELATIONAL first so a for-in's `in` is not folded
			// into the head as a binary operator.
			expr := p.parseExpression(RELATIONAL)
			if p.peekTokenIs(lexer.IN) {
				p.nextToken()
				p.nextToken()
				right := p.parseExpression(LOWEST)
				if !p.expectPeek(lexer.RPAREN) {
					return nil
				}
				p.nextToken()
				p.inLoop++
				body := p.parseStatement()
				p.inLoop--
				return &ast.ForInStatement{Left: exprToPattern(expr), Right: right, Body: body}
			}
			if p.peekTokenIs(lexer.IDENT) && p.peekToken.Literal == "of" {
				p.nextToken()
				p.nextToken()
				right := p.parseAssignExpr()
				if !p.expectPeek(lexer.RPAREN) {
					return nil
				}
				p.nextToken()
				p.inLoop++
				body := p.parseStatement()
				p.inLoop--
				return &ast.ForOfStatement{Left: exprToPattern(expr), Right: right, Body: body}
			}
			// Not for-in/for-of: fold in the rest of a classic init clause.
			for !p.peekTokenIs(lexer.SEMICOLON) && LOWEST < p.peekPrecedence() {
				infix := p.infixParseFns[p.peekToken.Type]
				if infix == nil {
					break
				}
				p.nextToken()
				expr = infix(expr)
			}
			init = &ast.ExpressionStatement{Expr: expr}
		}
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
	}

	var test ast.Expression
	if !p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		test = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}

	var update ast.Expression
	if !p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		update = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	p.nextToken()
	p.inLoop++
	body := p.parseStatement()
	p.inLoop--
	return &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}
}

func (p *Parser) parseBreakStatement() ast.Statement {
	stmt := &ast.BreakStatement{}
	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		stmt.Label = p.curToken.Literal
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseContinueStatement() ast.Statement {
	stmt := &ast.ContinueStatement{}
	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		stmt.Label = p.curToken.Literal
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{}
	if !p.peekTokenIs(lexer.SEMICOLON) && !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		stmt.Argument = p.parseExpression(LOWEST)
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	label := p.curToken.Literal
	p.nextToken() // ':'
	p.nextToken()
	body := p.parseStatement()
	return &ast.LabeledStatement{Label: label, Body: body}
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	disc := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	p.inSwitch++
	defer func() { p.inSwitch-- }()

	stmt := &ast.SwitchStatement{Discriminant: disc}
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		var c ast.SwitchCase
		if p.curTokenIs(lexer.CASE) {
			p.nextToken()
			c.Test = p.parseExpression(LOWEST)
			if !p.expectPeek(lexer.COLON) {
				return nil
			}
		} else if p.curTokenIs(lexer.DEFAULT) {
			if !p.expectPeek(lexer.COLON) {
				return nil
			}
		} else {
			p.addErrorf("line %d: expected 'case' or 'default' in switch body", p.curToken.Line)
			return nil
		}
		p.nextToken()
		for !p.curTokenIs(lexer.CASE) && !p.curTokenIs(lexer.DEFAULT) && !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
			s := p.parseStatement()
			if s != nil {
				c.Consequent = append(c.Consequent, s)
			}
			p.nextToken()
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	return stmt
}

func (p *Parser) parseThrowStatement() ast.Statement {
	p.nextToken()
	arg := p.parseExpression(LOWEST)
	p.consumeSemicolon()
	return &ast.ThrowStatement{Argument: arg}
}

func (p *Parser) parseTryStatement() ast.Statement {
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	stmt := &ast.TryStatement{Block: p.parseBlockStatement()}

	if p.peekTokenIs(lexer.CATCH) {
		p.nextToken()
		clause := &ast.CatchClause{}
		if p.peekTokenIs(lexer.LPAREN) {
			p.nextToken()
			p.nextToken()
			clause.Param = p.parseBindingTarget()
			if !p.expectPeek(lexer.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		clause.Body = p.parseBlockStatement()
		stmt.Handler = clause
	}

	if p.peekTokenIs(lexer.FINALLY) {
		p.nextToken()
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		stmt.Finalizer = p.parseBlockStatement()
	}

	return stmt
}

func (p *Parser) parseWithStatement() ast.Statement {
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	obj := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	body := p.parseStatement()
	return &ast.WithStatement{Object: obj, Body: body}
}
