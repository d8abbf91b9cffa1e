package parser

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/lexer"
)

// parseFunctionExpression parses `function [name]? (params) { body }` as a
// primary expression, including `function*` generators.
func (p *Parser) parseFunctionExpression() ast.Expression {
	isAsync := false // handled by caller for `async function`, see parseAsyncFunctionExpression
	isGenerator := false
	if p.peekTokenIs(lexer.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}

	var id *ast.Identifier
	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		id = &ast.Identifier{Name: p.curToken.Literal}
	}

	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	shape := p.finishFunctionShape(id, isAsync, isGenerator)
	return &ast.FunctionExpression{FunctionShape: shape}
}

// parseFunctionDeclaration parses a function statement, including the
// `async function` form. curToken sits on FUNCTION in both forms; callers
// step past the `async` IDENT before calling with isAsync set.
func (p *Parser) parseFunctionDeclaration(isAsync bool) ast.Statement {
	isGenerator := false
	if p.peekTokenIs(lexer.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	id := &ast.Identifier{Name: p.curToken.Literal}

	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	shape := p.finishFunctionShape(id, isAsync, isGenerator)
	return &ast.FunctionDeclaration{FunctionShape: shape}
}

// parseFunctionTail parses the parameter list and body for a method-shaped
// definition (object literal methods). curToken is either on '(' or on the
// token just before it, the property key, where parseObjectProperty leaves
// it; in the second case the '(' is consumed here first.
func (p *Parser) parseFunctionTail(id *ast.Identifier, isAsync, isGenerator bool) *ast.FunctionShape {
	if !p.curTokenIs(lexer.LPAREN) {
		if !p.expectPeek(lexer.LPAREN) {
			return &ast.FunctionShape{}
		}
	}
	return p.finishFunctionShape(id, isAsync, isGenerator)
}

// finishFunctionShape expects curToken == '(' and parses through the
// closing '}' of the body.
func (p *Parser) finishFunctionShape(id *ast.Identifier, isAsync, isGenerator bool) *ast.FunctionShape {
	params := p.parseParamList()

	if !p.expectPeek(lexer.LBRACE) {
		return &ast.FunctionShape{Id: id, Params: params, IsAsync: isAsync, IsGenerator: isGenerator}
	}

	if isAsync {
		p.inAsyncFunction++
	}
	if isGenerator {
		p.inGenerator++
	}
	body := p.parseBlockStatement()
	if isAsync {
		p.inAsyncFunction--
	}
	if isGenerator {
		p.inGenerator--
	}

	return &ast.FunctionShape{Id: id, Params: params, Body: body, IsAsync: isAsync, IsGenerator: isGenerator}
}

// parseParamList expects curToken == '(' and parses through ')', returning
// each parameter as a Pattern (RestElement for a trailing `...rest`,
// AssignmentPattern for a default value, Identifier/ArrayPattern/
// ObjectPattern otherwise).
func (p *Parser) parseParamList() []ast.Pattern {
	var params []ast.Pattern
	for !p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		if p.curTokenIs(lexer.SPREAD) {
			p.nextToken()
			params = append(params, &ast.RestElement{Argument: p.parseBindingTarget()})
			break
		}
		target := p.parseBindingTarget()
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			def := p.parseAssignExpr()
			target = &ast.AssignmentPattern{Left: target, Right: def}
		}
		params = append(params, target)
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expectPeek(lexer.RPAREN)
	return params
}

// parseBindingTarget parses one destructuring binding target: an
// identifier, an array pattern, or an object pattern. curToken sits on the
// target's first token.
func (p *Parser) parseBindingTarget() ast.Pattern {
	switch p.curToken.Type {
	case lexer.LBRACKET:
		return p.parseArrayPattern()
	case lexer.LBRACE:
		return p.parseObjectPattern()
	default:
		return &ast.Identifier{Name: p.curToken.Literal}
	}
}

func (p *Parser) parseArrayPattern() *ast.ArrayPattern {
	pat := &ast.ArrayPattern{}
	for !p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		if p.curTokenIs(lexer.COMMA) {
			pat.Elements = append(pat.Elements, ast.ArrayPatternElement{})
			continue
		}
		rest := false
		if p.curTokenIs(lexer.SPREAD) {
			rest = true
			p.nextToken()
		}
		target := p.parseBindingTarget()
		if !rest && p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			def := p.parseAssignExpr()
			target = &ast.AssignmentPattern{Left: target, Right: def}
		}
		pat.Elements = append(pat.Elements, ast.ArrayPatternElement{Target: target, Rest: rest})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expectPeek(lexer.RBRACKET)
	return pat
}

func (p *Parser) parseObjectPattern() *ast.ObjectPattern {
	pat := &ast.ObjectPattern{}
	for !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		if p.curTokenIs(lexer.SPREAD) {
			p.nextToken()
			pat.Rest = p.parseBindingTarget()
			if p.peekTokenIs(lexer.COMMA) {
				p.nextToken()
			}
			continue
		}

		computed := false
		var key ast.Expression
		if p.curTokenIs(lexer.LBRACKET) {
			computed = true
			p.nextToken()
			key = p.parseAssignExpr()
			p.expectPeek(lexer.RBRACKET)
		} else {
			key = p.parsePropertyKey()
		}

		var value ast.Pattern
		shorthand := true
		if p.peekTokenIs(lexer.COLON) {
			shorthand = false
			p.nextToken()
			p.nextToken()
			value = p.parseBindingTarget()
		} else {
			ident, _ := key.(*ast.Identifier)
			value = ident
		}
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			def := p.parseAssignExpr()
			value = &ast.AssignmentPattern{Left: value, Right: def}
		}
		pat.Properties = append(pat.Properties, ast.ObjectPatternProperty{Key: key, Value: value, Computed: computed, Shorthand: shorthand})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expectPeek(lexer.RBRACE)
	return pat
}

// parseArrowFromParen parses an arrow function whose parameter list is
// parenthesized: curToken == '(', already confirmed by isArrowAhead to be
// followed (after the matching ')') by '=>'.
func (p *Parser) parseArrowFromParen() ast.Expression {
	params := p.parseParamList()
	if !p.expectPeek(lexer.ARROW) {
		return nil
	}
	return p.finishArrow(params, false)
}

// parseAsyncExpression disambiguates `async` as the start of an async
// function expression (`async function ...`), an async arrow function
// (`async (x) => ...` / `async x => ...`), or a plain identifier
// reference, called from parseIdentifierOrContextual when curToken is the
// IDENT "async".
func (p *Parser) parseAsyncExpression() ast.Expression {
	if p.peekTokenIs(lexer.FUNCTION) {
		p.nextToken()
		return p.parseAsyncFunctionExpression()
	}
	if p.peekTokenIs(lexer.LPAREN) {
		savedPos := p.l.CurrentPosition()
		savedCur, savedPeek := p.curToken, p.peekToken
		p.nextToken()
		if isArrowAhead(p) {
			params := p.parseParamList()
			if p.expectPeek(lexer.ARROW) {
				return p.finishArrow(params, true)
			}
		}
		p.l.SetPosition(savedPos)
		p.curToken, p.peekToken = savedCur, savedPeek
		return &ast.Identifier{Name: "async"}
	}
	if p.peekTokenIs(lexer.IDENT) {
		savedPos := p.l.CurrentPosition()
		savedCur, savedPeek := p.curToken, p.peekToken
		p.nextToken()
		param := &ast.Identifier{Name: p.curToken.Literal}
		if p.peekTokenIs(lexer.ARROW) {
			p.nextToken()
			return p.finishArrow([]ast.Pattern{param}, true)
		}
		p.l.SetPosition(savedPos)
		p.curToken, p.peekToken = savedCur, savedPeek
	}
	return &ast.Identifier{Name: "async"}
}

func (p *Parser) parseAsyncFunctionExpression() ast.Expression {
	fn := p.parseFunctionExpression().(*ast.FunctionExpression)
	fn.IsAsync = true
	return fn
}

// finishArrow expects curToken == '=>' and parses either a concise
// expression body or a block body.
func (p *Parser) finishArrow(params []ast.Pattern, isAsync bool) ast.Expression {
	if isAsync {
		p.inAsyncFunction++
	}
	defer func() {
		if isAsync {
			p.inAsyncFunction--
		}
	}()

	if p.peekTokenIs(lexer.LBRACE) {
		p.nextToken()
		body := p.parseBlockStatement()
		return &ast.ArrowFunctionExpression{FunctionShape: &ast.FunctionShape{Params: params, Body: body, IsAsync: isAsync}}
	}
	p.nextToken()
	expr := p.parseAssignExpr()
	return &ast.ArrowFunctionExpression{FunctionShape: &ast.FunctionShape{Params: params, IsAsync: isAsync}, ExpressionBody: expr}
}

// parseIdentifierOrContextual handles identifiers that double as
// contextual keywords (async) needing special-cased lookahead.
func (p *Parser) parseIdentifierOrContextual() ast.Expression {
	if p.curToken.Literal == "async" {
		return p.parseAsyncExpression()
	}
	return p.parseIdentifier()
}
