package parser

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/lexer"
	"math/big"
	"strconv"
	"strings"
)

// parseExpression is the Pratt-parser core: it parses a prefix expression
// then repeatedly folds in infix/postfix operators whose precedence binds
// tighter than the caller's floor.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addErrorf("line %d: no prefix parse function for %s found", p.curToken.Line, p.curToken.Type)
		return nil
	}
	leftExp := prefix()

	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Name: p.curToken.Literal}
}

func (p *Parser) parsePrivateNameExpression() ast.Expression {
	return &ast.Identifier{Name: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := p.curToken.Literal
	val, err := parseNumericLiteral(lit)
	if err != nil {
		p.addErrorf("line %d: could not parse %q as number", p.curToken.Line, lit)
		return nil
	}
	return &ast.NumericLiteral{Value: val}
}

func parseNumericLiteral(lit string) (float64, error) {
	clean := strings.ReplaceAll(lit, "_", "")
	switch {
	case strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X"):
		n, err := strconv.ParseInt(clean[2:], 16, 64)
		return float64(n), err
	case strings.HasPrefix(clean, "0o") || strings.HasPrefix(clean, "0O"):
		n, err := strconv.ParseInt(clean[2:], 8, 64)
		return float64(n), err
	case strings.HasPrefix(clean, "0b") || strings.HasPrefix(clean, "0B"):
		n, err := strconv.ParseInt(clean[2:], 2, 64)
		return float64(n), err
	default:
		return strconv.ParseFloat(clean, 64)
	}
}

func (p *Parser) parseBigIntLiteral() ast.Expression {
	clean := strings.ReplaceAll(p.curToken.Literal, "_", "")
	v := new(big.Int)
	base := 10
	switch {
	case strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X"):
		clean, base = clean[2:], 16
	case strings.HasPrefix(clean, "0o") || strings.HasPrefix(clean, "0O"):
		clean, base = clean[2:], 8
	case strings.HasPrefix(clean, "0b") || strings.HasPrefix(clean, "0B"):
		clean, base = clean[2:], 2
	}
	if _, ok := v.SetString(clean, base); !ok {
		p.addErrorf("line %d: could not parse %q as bigint", p.curToken.Line, p.curToken.Literal)
		return nil
	}
	return &ast.BigIntLiteral{Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Value: p.curTokenIs(lexer.TRUE)}
}

func (p *Parser) parseNullLiteral() ast.Expression { return &ast.NullLiteral{} }

func (p *Parser) parseUndefinedLiteral() ast.Expression { return &ast.Identifier{Name: "undefined"} }

func (p *Parser) parseThisExpression() ast.Expression { return &ast.ThisExpression{} }

func (p *Parser) parseSuperExpression() ast.Expression { return &ast.SuperExpression{} }

func (p *Parser) parseRegexLiteral() ast.Expression {
	pattern, flags := splitRegex(p.curToken.Literal)
	return &ast.RegExpLiteral{Pattern: pattern, Flags: flags}
}

// parseRegexRescan handles a '/' or '/=' arriving where a primary
// expression is expected: NextToken's greedy lookahead already lexed it as
// division, so the lexer is rewound to the token's start and re-lexed as a
// regex literal via ScanRegexLiteral.
func (p *Parser) parseRegexRescan() ast.Expression {
	p.l.SetPosition(p.curToken.StartPos)
	tok := p.l.ScanRegexLiteral()
	if tok.Type == lexer.ILLEGAL {
		p.addErrorf("line %d: %s", tok.Line, tok.Literal)
		return nil
	}
	p.curToken = tok
	p.peekToken = p.l.NextToken()
	pattern, flags := splitRegex(tok.Literal)
	return &ast.RegExpLiteral{Pattern: pattern, Flags: flags}
}

func splitRegex(literal string) (pattern, flags string) {
	idx := strings.LastIndex(literal, "/")
	if idx <= 0 {
		return literal, ""
	}
	return literal[1:idx], literal[idx+1:]
}

func (p *Parser) parseTemplateLiteral() ast.Expression {
	lit := &ast.TemplateLiteral{}
	tok := p.curToken
	for {
		tail := tok.Type == lexer.TEMPLATE_FULL || tok.Type == lexer.TEMPLATE_TAIL
		lit.Quasis = append(lit.Quasis, ast.TemplateElement{Cooked: tok.Literal, Raw: tok.Raw, Tail: tail})
		if tail {
			break
		}
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		lit.Expressions = append(lit.Expressions, expr)
		if !p.expectPeek(lexer.RBRACE) {
			break
		}
		tok = p.l.ReadTemplateToken(true)
		p.curToken = tok
		p.peekToken = p.l.NextToken()
	}
	return lit
}

func (p *Parser) parseTaggedTemplate(tag ast.Expression) ast.Expression {
	quasi := p.parseTemplateLiteral().(*ast.TemplateLiteral)
	return &ast.TaggedTemplateExpression{Tag: tag, Quasi: quasi}
}

func (p *Parser) parseParenOrArrow() ast.Expression {
	if isArrowAhead(p) {
		return p.parseArrowFromParen()
	}
	p.nextToken()
	if p.curTokenIs(lexer.RPAREN) {
		return &ast.Identifier{Name: "undefined"}
	}
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLiteral{}
	for !p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		if p.curTokenIs(lexer.COMMA) {
			arr.Elements = append(arr.Elements, ast.ArrayElement{})
			continue
		}
		spread := false
		if p.curTokenIs(lexer.SPREAD) {
			spread = true
			p.nextToken()
		}
		el := p.parseAssignExpr()
		arr.Elements = append(arr.Elements, ast.ArrayElement{Expr: el, Spread: spread})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	return arr
}

// parseAssignExpr parses one assignment-level expression (precedence just
// below COMMA), the level array/object/argument list elements bind at.
func (p *Parser) parseAssignExpr() ast.Expression {
	return p.parseExpression(ASSIGN - 1)
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	obj := &ast.ObjectLiteral{}
	for !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		prop := p.parseObjectProperty()
		if prop != nil {
			obj.Properties = append(obj.Properties, *prop)
		}
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return obj
}

func (p *Parser) parseObjectProperty() *ast.Property {
	if p.curTokenIs(lexer.SPREAD) {
		p.nextToken()
		val := p.parseAssignExpr()
		return &ast.Property{Value: val, Kind: ast.PropertySpread}
	}

	isAsync, isGenerator := false, false
	if p.curTokenIs(lexer.IDENT) && p.curToken.Literal == "async" && !p.peekTokenIs(lexer.COLON) && !p.peekTokenIs(lexer.COMMA) && !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.LPAREN) {
		isAsync = true
		p.nextToken()
	}
	if p.curTokenIs(lexer.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}

	getOrSet := ""
	if p.curTokenIs(lexer.IDENT) && (p.curToken.Literal == "get" || p.curToken.Literal == "set") &&
		!p.peekTokenIs(lexer.COLON) && !p.peekTokenIs(lexer.COMMA) && !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.LPAREN) {
		getOrSet = p.curToken.Literal
		p.nextToken()
	}

	computed := false
	var key ast.Expression
	if p.curTokenIs(lexer.LBRACKET) {
		computed = true
		p.nextToken()
		key = p.parseAssignExpr()
		if !p.expectPeek(lexer.RBRACKET) {
			return nil
		}
	} else {
		key = p.parsePropertyKey()
	}

	switch {
	case getOrSet != "" || p.peekTokenIs(lexer.LPAREN):
		kind := ast.PropertyInit
		if getOrSet == "get" {
			kind = ast.PropertyGet
		} else if getOrSet == "set" {
			kind = ast.PropertySet
		}
		fn := p.parseFunctionTail(nil, isAsync, isGenerator)
		return &ast.Property{Key: key, Value: &ast.FunctionExpression{FunctionShape: fn}, Kind: kind, Computed: computed}
	case p.peekTokenIs(lexer.COLON):
		p.nextToken()
		p.nextToken()
		val := p.parseAssignExpr()
		return &ast.Property{Key: key, Value: val, Kind: ast.PropertyInit, Computed: computed}
	case p.peekTokenIs(lexer.ASSIGN):
		// shorthand with default, valid only inside a destructuring pattern;
		// kept as an AssignmentPattern so pattern conversion can see it.
		p.nextToken()
		p.nextToken()
		def := p.parseAssignExpr()
		ident, _ := key.(*ast.Identifier)
		return &ast.Property{Key: key, Value: &ast.AssignmentPattern{Left: ident, Right: def}, Kind: ast.PropertyInit, Shorthand: true, Computed: computed}
	default:
		return &ast.Property{Key: key, Value: key, Kind: ast.PropertyInit, Shorthand: true, Computed: computed}
	}
}

func (p *Parser) parsePropertyKey() ast.Expression {
	switch p.curToken.Type {
	case lexer.STRING:
		return &ast.StringLiteral{Value: p.curToken.Literal}
	case lexer.NUMBER:
		v, _ := parseNumericLiteral(p.curToken.Literal)
		return &ast.NumericLiteral{Value: v}
	default:
		return &ast.Identifier{Name: p.curToken.Literal}
	}
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	op := p.curToken.Literal
	p.nextToken()
	arg := p.parseExpression(UNARY)
	return &ast.UnaryExpression{Operator: op, Argument: arg}
}

func (p *Parser) parseUpdatePrefixExpression() ast.Expression {
	op := p.curToken.Literal
	p.nextToken()
	arg := p.parseExpression(UNARY)
	return &ast.UpdateExpression{Operator: op, Argument: arg, Prefix: true}
}

func (p *Parser) parseUpdatePostfixExpression(left ast.Expression) ast.Expression {
	return &ast.UpdateExpression{Operator: p.curToken.Literal, Argument: left, Prefix: false}
}

func (p *Parser) parseAwaitExpression() ast.Expression {
	p.nextToken()
	arg := p.parseExpression(UNARY)
	return &ast.AwaitExpression{Argument: arg}
}

func (p *Parser) parseYieldExpression() ast.Expression {
	y := &ast.YieldExpression{}
	if p.peekTokenIs(lexer.ASTERISK) {
		y.Delegate = true
		p.nextToken()
	}
	if !p.peekTokenIs(lexer.SEMICOLON) && !p.peekTokenIs(lexer.RPAREN) && !p.peekTokenIs(lexer.RBRACE) &&
		!p.peekTokenIs(lexer.RBRACKET) && !p.peekTokenIs(lexer.COMMA) && !p.peekTokenIs(lexer.COLON) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		y.Argument = p.parseAssignExpr()
	}
	return y
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right}
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &ast.LogicalExpression{Operator: op, Left: left, Right: right}
}

func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	op := p.curToken.Literal
	target := exprToPattern(left)
	p.nextToken()
	right := p.parseExpression(ASSIGN - 1)
	return &ast.AssignmentExpression{Operator: op, Left: target, Right: right}
}

func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	p.nextToken()
	cons := p.parseAssignExpr()
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	alt := p.parseAssignExpr()
	return &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseSequenceExpression(left ast.Expression) ast.Expression {
	seq := &ast.SequenceExpression{Expressions: []ast.Expression{left}}
	p.nextToken()
	seq.Expressions = append(seq.Expressions, p.parseAssignExpr())
	return seq
}

func (p *Parser) parseMemberExpression(obj ast.Expression) ast.Expression {
	if !p.peekTokenIs(lexer.IDENT) && !p.peekTokenIs(lexer.PRIVATE_NAME) {
		p.addErrorf("line %d: expected identifier after '.'", p.peekToken.Line)
		return nil
	}
	p.nextToken()
	prop := &ast.Identifier{Name: p.curToken.Literal}
	return &ast.MemberExpression{Object: obj, Property: prop, Computed: false}
}

func (p *Parser) parseOptionalMemberExpression(obj ast.Expression) ast.Expression {
	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		call := p.parseCallExpression(obj).(*ast.CallExpression)
		call.Optional = true
		return call
	}
	if p.peekTokenIs(lexer.LBRACKET) {
		p.nextToken()
		p.nextToken()
		idx := p.parseExpression(LOWEST)
		if !p.expectPeek(lexer.RBRACKET) {
			return nil
		}
		return &ast.MemberExpression{Object: obj, Property: idx, Computed: true, Optional: true}
	}
	p.nextToken()
	prop := &ast.Identifier{Name: p.curToken.Literal}
	return &ast.MemberExpression{Object: obj, Property: prop, Computed: false, Optional: true}
}

func (p *Parser) parseComputedMemberExpression(obj ast.Expression) ast.Expression {
	p.nextToken()
	idx := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	return &ast.MemberExpression{Object: obj, Property: idx, Computed: true}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	args := p.parseCallArguments()
	return &ast.CallExpression{Callee: callee, Arguments: args}
}

func (p *Parser) parseCallArguments() []ast.CallArgument {
	var args []ast.CallArgument
	for !p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		spread := false
		if p.curTokenIs(lexer.SPREAD) {
			spread = true
			p.nextToken()
		}
		args = append(args, ast.CallArgument{Expr: p.parseAssignExpr(), Spread: spread})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		} else {
			break
		}
	}
	if !p.expectPeek(lexer.RPAREN) {
		return args
	}
	return args
}

func (p *Parser) parseNewExpression() ast.Expression {
	if p.peekTokenIs(lexer.DOT) {
		p.nextToken()
		p.nextToken()
		return &ast.MetaProperty{Meta: "new", Property: p.curToken.Literal}
	}
	p.nextToken()
	callee := p.parseExpression(MEMBER)
	var args []ast.CallArgument
	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		args = p.parseCallArguments()
	}
	return &ast.NewExpression{Callee: callee, Arguments: args}
}

// exprToPattern reinterprets an already-parsed expression as an assignment
// target. Array/object literals parsed as expressions are converted to
// their Pattern equivalents; anything else is assumed to already be a
// valid reference (Identifier or MemberExpression).
func exprToPattern(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case *ast.ArrayLiteral:
		pat := &ast.ArrayPattern{}
		for _, el := range n.Elements {
			if el.Expr == nil {
				pat.Elements = append(pat.Elements, ast.ArrayPatternElement{})
				continue
			}
			pat.Elements = append(pat.Elements, ast.ArrayPatternElement{Target: exprToPattern(el.Expr), Rest: el.Spread})
		}
		return pat
	case *ast.ObjectLiteral:
		pat := &ast.ObjectPattern{}
		for _, prop := range n.Properties {
			if prop.Kind == ast.PropertySpread {
				pat.Rest = exprToPattern(prop.Value)
				continue
			}
			pat.Properties = append(pat.Properties, ast.ObjectPatternProperty{
				Key: prop.Key, Value: exprToPattern(prop.Value), Computed: prop.Computed, Shorthand: prop.Shorthand,
			})
		}
		return pat
	case *ast.AssignmentExpression:
		if n.Operator == "=" {
			return &ast.AssignmentPattern{Left: exprToPattern(n.Left), Right: n.Right}
		}
		return n
	default:
		return e
	}
}

// isArrowAhead looks past a balanced '(' ... ')' to see whether '=>'
// follows, without mutating parser state (it scans via a cloned lexer
// position and restores it).
func isArrowAhead(p *Parser) bool {
	savedPos := p.l.CurrentPosition()
	savedCur, savedPeek := p.curToken, p.peekToken

	depth := 0
	for {
		switch p.curToken.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				result := p.peekToken.Type == lexer.ARROW
				p.l.SetPosition(savedPos)
				p.curToken, p.peekToken = savedCur, savedPeek
				return result
			}
		case lexer.EOF:
			p.l.SetPosition(savedPos)
			p.curToken, p.peekToken = savedCur, savedPeek
			return false
		}
		p.nextToken()
	}
}
