// Package parser turns a token stream from ecmacore/pkg/lexer into the
// ecmacore/pkg/ast tree the rest of the engine consumes. It fills the
// external-parser role the core runtime assumes (see pkg/ast's package
// doc): a Pratt parser with prefix/infix tables keyed by token type, in the
// same shape as the lexer/parser pairing it was adapted from, retargeted to
// emit ecmacore/pkg/ast nodes instead of a bespoke AST.
package parser

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/lexer"
	"fmt"
)

// precedence levels, lowest to highest binding power.
const (
	_ int = iota
	LOWEST
	COMMA
	ASSIGN
	CONDITIONAL
	COALESCE
	LOGICALOR
	LOGICALAND
	BITOR
	BITXOR
	BITAND
	EQUALITY
	RELATIONAL
	SHIFT
	ADDITIVE
	MULTIPLICATIVE
	EXPONENT
	UNARY
	POSTFIX
	CALL
	MEMBER
)

var precedences = map[lexer.TokenType]int{
	lexer.COMMA:                        COMMA,
	lexer.ASSIGN:                       ASSIGN,
	lexer.PLUS_ASSIGN:                  ASSIGN,
	lexer.MINUS_ASSIGN:                 ASSIGN,
	lexer.ASTERISK_ASSIGN:              ASSIGN,
	lexer.SLASH_ASSIGN:                 ASSIGN,
	lexer.PERCENT_ASSIGN:               ASSIGN,
	lexer.EXPONENT_ASSIGN:              ASSIGN,
	lexer.BITWISE_AND_ASSIGN:           ASSIGN,
	lexer.BITWISE_OR_ASSIGN:            ASSIGN,
	lexer.BITWISE_XOR_ASSIGN:           ASSIGN,
	lexer.LEFT_SHIFT_ASSIGN:            ASSIGN,
	lexer.RIGHT_SHIFT_ASSIGN:           ASSIGN,
	lexer.UNSIGNED_RIGHT_SHIFT_ASSIGN:  ASSIGN,
	lexer.LOGICAL_AND_ASSIGN:           ASSIGN,
	lexer.LOGICAL_OR_ASSIGN:            ASSIGN,
	lexer.COALESCE_ASSIGN:              ASSIGN,
	lexer.QUESTION:                     CONDITIONAL,
	lexer.COALESCE:                     COALESCE,
	lexer.LOGICAL_OR:                   LOGICALOR,
	lexer.LOGICAL_AND:                  LOGICALAND,
	lexer.PIPE:                         BITOR,
	lexer.BITWISE_XOR:                  BITXOR,
	lexer.BITWISE_AND:                  BITAND,
	lexer.EQ:                           EQUALITY,
	lexer.NOT_EQ:                       EQUALITY,
	lexer.STRICT_EQ:                    EQUALITY,
	lexer.STRICT_NOT_EQ:                EQUALITY,
	lexer.LT:                           RELATIONAL,
	lexer.GT:                           RELATIONAL,
	lexer.LE:                           RELATIONAL,
	lexer.GE:                           RELATIONAL,
	lexer.INSTANCEOF:                   RELATIONAL,
	lexer.IN:                           RELATIONAL,
	lexer.LEFT_SHIFT:                   SHIFT,
	lexer.RIGHT_SHIFT:                  SHIFT,
	lexer.UNSIGNED_RIGHT_SHIFT:         SHIFT,
	lexer.PLUS:                         ADDITIVE,
	lexer.MINUS:                        ADDITIVE,
	lexer.ASTERISK:                     MULTIPLICATIVE,
	lexer.SLASH:                        MULTIPLICATIVE,
	lexer.PERCENT:                      MULTIPLICATIVE,
	lexer.EXPONENT:                     EXPONENT,
	lexer.LPAREN:                       CALL,
	lexer.DOT:                          MEMBER,
	lexer.OPTIONAL_CHAIN:               MEMBER,
	lexer.LBRACKET:                     MEMBER,
	lexer.TEMPLATE_FULL:                MEMBER,
	lexer.TEMPLATE_HEAD:                MEMBER,
}

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// Parser consumes a *lexer.Lexer and builds an *ast.Program. It keeps the
// classic two-token lookahead (curToken/peekToken) and prefix/infix
// function tables that drive Pratt expression parsing. inGenerator,
// inAsyncFunction, inLoop and inSwitch count the nested bodies being
// parsed; no parse step reads them, so yield/await/break/continue are
// accepted in any context.
type Parser struct {
	l *lexer.Lexer

	curToken  lexer.Token
	peekToken lexer.Token

	errors []error

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	inGenerator     int
	inAsyncFunction int
	inLoop          int
	inSwitch        int
}

// NewParser constructs a Parser over l and primes the two-token lookahead.
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifierOrContextual)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.BIGINT, p.parseBigIntLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TEMPLATE_FULL, p.parseTemplateLiteral)
	p.registerPrefix(lexer.TEMPLATE_HEAD, p.parseTemplateLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.NULL, p.parseNullLiteral)
	p.registerPrefix(lexer.UNDEFINED, p.parseUndefinedLiteral)
	p.registerPrefix(lexer.THIS, p.parseThisExpression)
	p.registerPrefix(lexer.SUPER, p.parseSuperExpression)
	p.registerPrefix(lexer.LPAREN, p.parseParenOrArrow)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(lexer.FUNCTION, p.parseFunctionExpression)
	p.registerPrefix(lexer.CLASS, p.parseClassExpression)
	p.registerPrefix(lexer.NEW, p.parseNewExpression)
	p.registerPrefix(lexer.BANG, p.parseUnaryExpression)
	p.registerPrefix(lexer.MINUS, p.parseUnaryExpression)
	p.registerPrefix(lexer.PLUS, p.parseUnaryExpression)
	p.registerPrefix(lexer.BITWISE_NOT, p.parseUnaryExpression)
	p.registerPrefix(lexer.TYPEOF, p.parseUnaryExpression)
	p.registerPrefix(lexer.VOID, p.parseUnaryExpression)
	p.registerPrefix(lexer.DELETE, p.parseUnaryExpression)
	p.registerPrefix(lexer.INC, p.parseUpdatePrefixExpression)
	p.registerPrefix(lexer.DEC, p.parseUpdatePrefixExpression)
	p.registerPrefix(lexer.AWAIT, p.parseAwaitExpression)
	p.registerPrefix(lexer.YIELD, p.parseYieldExpression)
	p.registerPrefix(lexer.REGEX_LITERAL, p.parseRegexLiteral)
	p.registerPrefix(lexer.SLASH, p.parseRegexRescan)
	p.registerPrefix(lexer.SLASH_ASSIGN, p.parseRegexRescan)
	p.registerPrefix(lexer.PRIVATE_NAME, p.parsePrivateNameExpression)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, tt := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT, lexer.EXPONENT,
		lexer.EQ, lexer.NOT_EQ, lexer.STRICT_EQ, lexer.STRICT_NOT_EQ,
		lexer.LT, lexer.GT, lexer.LE, lexer.GE, lexer.INSTANCEOF, lexer.IN,
		lexer.LEFT_SHIFT, lexer.RIGHT_SHIFT, lexer.UNSIGNED_RIGHT_SHIFT,
		lexer.PIPE, lexer.BITWISE_AND, lexer.BITWISE_XOR,
	} {
		p.registerInfix(tt, p.parseBinaryExpression)
	}
	for _, tt := range []lexer.TokenType{lexer.LOGICAL_AND, lexer.LOGICAL_OR, lexer.COALESCE} {
		p.registerInfix(tt, p.parseLogicalExpression)
	}
	for _, tt := range []lexer.TokenType{
		lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.ASTERISK_ASSIGN,
		lexer.SLASH_ASSIGN, lexer.PERCENT_ASSIGN, lexer.EXPONENT_ASSIGN,
		lexer.BITWISE_AND_ASSIGN, lexer.BITWISE_OR_ASSIGN, lexer.BITWISE_XOR_ASSIGN,
		lexer.LEFT_SHIFT_ASSIGN, lexer.RIGHT_SHIFT_ASSIGN, lexer.UNSIGNED_RIGHT_SHIFT_ASSIGN,
		lexer.LOGICAL_AND_ASSIGN, lexer.LOGICAL_OR_ASSIGN, lexer.COALESCE_ASSIGN,
	} {
		p.registerInfix(tt, p.parseAssignmentExpression)
	}
	p.registerInfix(lexer.QUESTION, p.parseConditionalExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.DOT, p.parseMemberExpression)
	p.registerInfix(lexer.OPTIONAL_CHAIN, p.parseOptionalMemberExpression)
	p.registerInfix(lexer.LBRACKET, p.parseComputedMemberExpression)
	p.registerInfix(lexer.INC, p.parseUpdatePostfixExpression)
	p.registerInfix(lexer.DEC, p.parseUpdatePostfixExpression)
	p.registerInfix(lexer.COMMA, p.parseSequenceExpression)
	p.registerInfix(lexer.TEMPLATE_FULL, p.parseTaggedTemplate)
	p.registerInfix(lexer.TEMPLATE_HEAD, p.parseTaggedTemplate)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(tt lexer.TokenType, fn prefixParseFn) { p.prefixParseFns[tt] = fn }
func (p *Parser) registerInfix(tt lexer.TokenType, fn infixParseFn)   { p.infixParseFns[tt] = fn }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(tt lexer.TokenType) bool  { return p.curToken.Type == tt }
func (p *Parser) peekTokenIs(tt lexer.TokenType) bool { return p.peekToken.Type == tt }

func (p *Parser) expectPeek(tt lexer.TokenType) bool {
	if p.peekTokenIs(tt) {
		p.nextToken()
		return true
	}
	p.peekError(tt)
	return false
}

func (p *Parser) peekError(tt lexer.TokenType) {
	p.addErrorf("line %d: expected next token to be %s, got %s instead", p.peekToken.Line, tt, p.peekToken.Type)
}

func (p *Parser) addErrorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) loc() ast.SourceLocation {
	return ast.SourceLocation{Line: p.curToken.Line, Column: p.curToken.Column, Start: p.curToken.StartPos, End: p.curToken.EndPos}
}

// ParseProgram parses the full token stream into a Program. It is the
// entry point pkg/modules' worker pool and pkg/engine's facade both drive.
func (p *Parser) ParseProgram() (*ast.Program, []error) {
	prog := &ast.Program{}

	for !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}

	return prog, p.errors
}

// consumeSemicolon implements automatic semicolon insertion loosely: an
// explicit ';' is consumed, anything else (including EOF, '}', or a
// newline-separated next statement) is accepted as an elided semicolon.
func (p *Parser) consumeSemicolon() {
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}
