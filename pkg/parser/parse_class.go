package parser

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/lexer"
)

// parseClassDeclaration parses `class Name [extends Super] { ...body }`.
func (p *Parser) parseClassDeclaration() ast.Statement {
	shape := p.parseClassShape(true)
	if shape == nil {
		return nil
	}
	return &ast.ClassDeclaration{ClassShape: shape}
}

// parseClassExpression is registered as CLASS's prefix parse fn; the name
// is optional in expression position.
func (p *Parser) parseClassExpression() ast.Expression {
	shape := p.parseClassShape(false)
	if shape == nil {
		return nil
	}
	return &ast.ClassExpression{ClassShape: shape}
}

// parseClassShape expects curToken == CLASS and parses the common
// name/superclass/body structure both declarations and expressions share.
// requireName is cosmetic only (both forms accept an anonymous class;
// only a declaration statement conventionally needs one, but this parser
// does not enforce it, matching the contract's error-tolerant role).
func (p *Parser) parseClassShape(requireName bool) *ast.ClassShape {
	shape := &ast.ClassShape{}

	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		shape.Id = &ast.Identifier{Name: p.curToken.Literal}
	}

	if p.peekTokenIs(lexer.EXTENDS) {
		p.nextToken()
		p.nextToken()
		shape.SuperClass = p.parseExpression(CALL)
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}

	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}
		member := p.parseClassMember()
		if member != nil {
			shape.Body = append(shape.Body, *member)
		}
		p.nextToken()
	}

	return shape
}

// parseClassMember parses one member: method, getter/setter, field, static
// block, or constructor, with leading `static`/`async`/`*`/`#` modifiers in
// whatever combination ECMAScript allows (static async *#name() {}).
func (p *Parser) parseClassMember() *ast.ClassMember {
	static := false
	if p.curTokenIs(lexer.IDENT) && p.curToken.Literal == "static" && !p.peekIsMemberTerminator() {
		static = true
		p.nextToken()
		if static && p.curTokenIs(lexer.LBRACE) {
			body := p.parseBlockStatement()
			return &ast.ClassMember{Kind: ast.ClassStaticBlock, Static: true, Value: &ast.FunctionExpression{FunctionShape: &ast.FunctionShape{Body: body}}}
		}
	}

	isAsync := false
	if p.curTokenIs(lexer.IDENT) && p.curToken.Literal == "async" && !p.peekIsMemberTerminator() {
		isAsync = true
		p.nextToken()
	}

	isGenerator := false
	if p.curTokenIs(lexer.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}

	accessor := ""
	if p.curTokenIs(lexer.IDENT) && (p.curToken.Literal == "get" || p.curToken.Literal == "set") && !p.peekIsMemberTerminator() {
		accessor = p.curToken.Literal
		p.nextToken()
	}

	private := false
	computed := false
	var key ast.Expression
	switch p.curToken.Type {
	case lexer.PRIVATE_NAME:
		private = true
		key = &ast.Identifier{Name: p.curToken.Literal}
	case lexer.LBRACKET:
		computed = true
		p.nextToken()
		key = p.parseAssignExpr()
		if !p.expectPeek(lexer.RBRACKET) {
			return nil
		}
	default:
		key = p.parsePropertyKey()
	}

	isConstructor := !static && !computed && !private && accessor == "" && !isAsync && !isGenerator
	if ident, ok := key.(*ast.Identifier); ok && isConstructor && ident.Name != "constructor" {
		isConstructor = false
	}

	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		shape := p.finishFunctionShape(nil, isAsync, isGenerator)
		kind := ast.ClassMethod
		switch {
		case isConstructor:
			kind = ast.ClassConstructor
		case accessor == "get":
			kind = ast.ClassGetter
		case accessor == "set":
			kind = ast.ClassSetter
		}
		return &ast.ClassMember{Kind: kind, Key: key, Value: &ast.FunctionExpression{FunctionShape: shape}, Static: static, Computed: computed, Private: private}
	}

	// field declaration, with or without an initializer
	var init ast.Expression
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		init = p.parseAssignExpr()
	}
	p.consumeSemicolon()
	return &ast.ClassMember{Kind: ast.ClassField, Key: key, Value: init, Static: static, Computed: computed, Private: private}
}

// peekIsMemberTerminator reports whether the token after curToken ends the
// member-key position, meaning curToken itself (e.g. "static", "async",
// "get") must be the member's actual name rather than a modifier.
func (p *Parser) peekIsMemberTerminator() bool {
	switch p.peekToken.Type {
	case lexer.LPAREN, lexer.ASSIGN, lexer.SEMICOLON, lexer.RBRACE:
		return true
	default:
		return false
	}
}
