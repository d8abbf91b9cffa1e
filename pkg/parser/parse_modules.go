package parser

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/lexer"
)

// parseImportDeclaration parses the import-clause shapes spec.md's AST
// contract lists: default, namespace, named (with renaming), combinations
// of default+named/default+namespace, and bare side-effect imports.
func (p *Parser) parseImportDeclaration() ast.Statement {
	decl := &ast.ImportDeclaration{}

	if p.peekTokenIs(lexer.STRING) {
		p.nextToken()
		decl.Source = p.curToken.Literal
		p.consumeSemicolon()
		return decl
	}

	for {
		switch {
		case p.peekTokenIs(lexer.ASTERISK):
			p.nextToken()
			if !p.expectPeek(lexer.IDENT) || p.curToken.Literal != "as" {
				p.addErrorf("line %d: expected 'as' after '*' in import clause", p.curToken.Line)
				return nil
			}
			if !p.expectPeek(lexer.IDENT) {
				return nil
			}
			decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{Local: p.curToken.Literal, Namespace: true})
		case p.peekTokenIs(lexer.LBRACE):
			p.nextToken()
			for !p.peekTokenIs(lexer.RBRACE) {
				p.nextToken()
				imported := p.curToken.Literal
				local := imported
				if p.peekTokenIs(lexer.IDENT) && p.peekToken.Literal == "as" {
					p.nextToken()
					p.nextToken()
					local = p.curToken.Literal
				}
				decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{Imported: imported, Local: local})
				if p.peekTokenIs(lexer.COMMA) {
					p.nextToken()
				} else {
					break
				}
			}
			if !p.expectPeek(lexer.RBRACE) {
				return nil
			}
		case p.peekTokenIs(lexer.IDENT):
			p.nextToken()
			decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{Imported: "default", Local: p.curToken.Literal, Default: true})
		default:
			p.addErrorf("line %d: malformed import declaration", p.curToken.Line)
			return nil
		}

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if !p.expectPeek(lexer.IDENT) || p.curToken.Literal != "from" {
		p.addErrorf("line %d: expected 'from' in import declaration", p.curToken.Line)
		return nil
	}
	if !p.expectPeek(lexer.STRING) {
		return nil
	}
	decl.Source = p.curToken.Literal
	p.consumeSemicolon()
	return decl
}

// parseExportDeclaration covers `export <decl>`, `export default ...`,
// `export { ... } [from "m"]`, and `export * [as ns] from "m"`.
func (p *Parser) parseExportDeclaration() ast.Statement {
	if p.peekTokenIs(lexer.DEFAULT) {
		p.nextToken()
		p.nextToken()
		var node ast.Node
		switch p.curToken.Type {
		case lexer.FUNCTION:
			node = p.parseFunctionDeclaration(false)
		case lexer.CLASS:
			node = p.parseClassDeclaration()
		default:
			if p.curTokenIs(lexer.IDENT) && p.curToken.Literal == "async" && p.peekTokenIs(lexer.FUNCTION) {
				p.nextToken()
				node = p.parseFunctionDeclaration(true)
			} else {
				node = p.parseExpression(ASSIGN - 1)
				p.consumeSemicolon()
			}
		}
		return &ast.ExportDefaultDeclaration{Declaration: node}
	}

	if p.peekTokenIs(lexer.ASTERISK) {
		p.nextToken()
		exported := ""
		if p.peekTokenIs(lexer.IDENT) && p.peekToken.Literal == "as" {
			p.nextToken()
			if !p.expectPeek(lexer.IDENT) {
				return nil
			}
			exported = p.curToken.Literal
		}
		if !p.expectPeek(lexer.IDENT) || p.curToken.Literal != "from" {
			p.addErrorf("line %d: expected 'from' in export * declaration", p.curToken.Line)
			return nil
		}
		if !p.expectPeek(lexer.STRING) {
			return nil
		}
		source := p.curToken.Literal
		p.consumeSemicolon()
		return &ast.ExportAllDeclaration{Source: source, Exported: exported}
	}

	if p.peekTokenIs(lexer.LBRACE) {
		p.nextToken()
		decl := &ast.ExportNamedDeclaration{}
		for !p.peekTokenIs(lexer.RBRACE) {
			p.nextToken()
			local := p.curToken.Literal
			exported := local
			if p.peekTokenIs(lexer.IDENT) && p.peekToken.Literal == "as" {
				p.nextToken()
				p.nextToken()
				exported = p.curToken.Literal
			}
			decl.Specifiers = append(decl.Specifiers, ast.ExportSpecifier{Local: local, Exported: exported})
			if p.peekTokenIs(lexer.COMMA) {
				p.nextToken()
			} else {
				break
			}
		}
		if !p.expectPeek(lexer.RBRACE) {
			return nil
		}
		if p.peekTokenIs(lexer.IDENT) && p.peekToken.Literal == "from" {
			p.nextToken()
			if !p.expectPeek(lexer.STRING) {
				return nil
			}
			decl.Source = p.curToken.Literal
		}
		p.consumeSemicolon()
		return decl
	}

	p.nextToken()
	var inner ast.Statement
	switch p.curToken.Type {
	case lexer.VAR, lexer.LET, lexer.CONST:
		inner = p.parseVariableStatement()
	case lexer.FUNCTION:
		inner = p.parseFunctionDeclaration(false)
	case lexer.CLASS:
		inner = p.parseClassDeclaration()
	default:
		if p.curTokenIs(lexer.IDENT) && p.curToken.Literal == "async" && p.peekTokenIs(lexer.FUNCTION) {
			p.nextToken()
			inner = p.parseFunctionDeclaration(true)
		} else {
			p.addErrorf("line %d: malformed export declaration", p.curToken.Line)
			return nil
		}
	}
	return &ast.ExportNamedDeclaration{Declaration: inner}
}
