package parser

import (
	"strconv"
	"strings"

	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/lexer"
)

// Operator precedence, lowest to highest. Assignment is parsed specially
// (right-associative, only valid over an l-value) rather than through
// this table.
const (
	precLowest = iota
	precOr
	precAnd
	precIs
	precCompare
	precAdd
	precMul
	precUnary
	precPostfix
)

func precedenceOf(t lexer.TokenType) int {
	switch t {
	case lexer.TokenOrOr:
		return precOr
	case lexer.TokenAndAnd:
		return precAnd
	case lexer.TokenIs:
		return precIs
	case lexer.TokenEq, lexer.TokenNotEq, lexer.TokenLt, lexer.TokenGt, lexer.TokenLte, lexer.TokenGte:
		return precCompare
	case lexer.TokenPlus, lexer.TokenMinus:
		return precAdd
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return precMul
	default:
		return precLowest
	}
}

// parseExpr parses an expression, honoring minPrec as the lowest binding
// power to consume at this recursion level.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	left = p.parsePostfix(left)

	if minPrec == precLowest && isAssignStart(p.cur.Type) {
		return p.parseAssign(left)
	}

	for {
		prec := precedenceOf(p.cur.Type)
		if prec <= minPrec {
			break
		}
		if p.cur.Type == lexer.TokenIs {
			left = p.parseIs(left)
			continue
		}
		op := binaryOpFor(p.cur.Type)
		start := p.cur
		p.next()
		right := p.parseExpr(prec)
		left = &ast.Binary{Op: op, Left: left, Right: right, Span: span(start)}
	}
	return left
}

func isAssignStart(t lexer.TokenType) bool {
	switch t {
	case lexer.TokenAssign, lexer.TokenPlusEq, lexer.TokenMinusEq, lexer.TokenStarEq, lexer.TokenSlashEq:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAssign(target ast.Expr) ast.Expr {
	var op ast.AssignOp
	switch p.cur.Type {
	case lexer.TokenAssign:
		op = ast.AssignPlain
	case lexer.TokenPlusEq:
		op = ast.AssignAdd
	case lexer.TokenMinusEq:
		op = ast.AssignSub
	case lexer.TokenStarEq:
		op = ast.AssignMul
	case lexer.TokenSlashEq:
		op = ast.AssignDiv
	}
	start := p.cur
	p.next()
	val := p.parseExpr(precLowest)
	return &ast.Assign{Op: op, Target: target, Value: val, Span: span(start)}
}

func (p *Parser) parseIs(x ast.Expr) ast.Expr {
	start := p.cur
	p.next() // 'is'
	kind := ast.IsPositive
	if p.curIs(lexer.TokenNot) {
		kind = ast.IsNegative
		p.next()
	}
	typeName := p.expect(lexer.TokenIdent, "type name").Literal
	return &ast.Is{Kind: kind, X: x, Type: typeName, Span: span(start)}
}

func binaryOpFor(t lexer.TokenType) ast.BinaryOp {
	switch t {
	case lexer.TokenPlus:
		return ast.BinAdd
	case lexer.TokenMinus:
		return ast.BinSub
	case lexer.TokenStar:
		return ast.BinMul
	case lexer.TokenSlash:
		return ast.BinDiv
	case lexer.TokenPercent:
		return ast.BinRem
	case lexer.TokenEq:
		return ast.BinEq
	case lexer.TokenNotEq:
		return ast.BinNeq
	case lexer.TokenLt:
		return ast.BinLt
	case lexer.TokenGt:
		return ast.BinGt
	case lexer.TokenLte:
		return ast.BinLte
	case lexer.TokenGte:
		return ast.BinGte
	case lexer.TokenAndAnd:
		return ast.BinAnd
	case lexer.TokenOrOr:
		return ast.BinOr
	default:
		return ast.BinAdd
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Type {
	case lexer.TokenBang:
		start := p.cur
		p.next()
		return &ast.Unary{Op: ast.UnaryNot, X: p.parseUnary(), Span: span(start)}
	case lexer.TokenMinus:
		start := p.cur
		p.next()
		return &ast.Unary{Op: ast.UnaryNeg, X: p.parseUnary(), Span: span(start)}
	default:
		return p.parsePrimary()
	}
}

// parsePostfix handles call, index, field/tuple-index access, `.await`
// and `?` — all left-associative and binding tighter than any binary
// operator.
func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case lexer.TokenLParen:
			start := p.cur
			p.next()
			saved := p.noStructLit
			p.noStructLit = false
			var args []ast.Expr
			for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
				args = append(args, p.parseExpr(precLowest))
				if p.curIs(lexer.TokenComma) {
					p.next()
				}
			}
			p.expect(lexer.TokenRParen, "')'")
			p.noStructLit = saved
			x = &ast.Call{Callee: x, Args: args, Span: span(start)}
		case lexer.TokenLBracket:
			start := p.cur
			p.next()
			saved := p.noStructLit
			p.noStructLit = false
			idx := p.parseExpr(precLowest)
			p.expect(lexer.TokenRBracket, "']'")
			p.noStructLit = saved
			x = &ast.Index{X: x, Idx: idx, Span: span(start)}
		case lexer.TokenDot:
			start := p.cur
			p.next()
			if p.curIs(lexer.TokenIdent) && p.cur.Literal == "await" {
				p.next()
				x = &ast.Await{X: x, Span: span(start)}
				continue
			}
			if p.curIs(lexer.TokenInt) {
				n, _ := parseIntLiteral(p.cur.Literal)
				p.next()
				x = &ast.TupleIndex{X: x, Index: int(n), Span: span(start)}
				continue
			}
			field := p.expect(lexer.TokenIdent, "field name").Literal
			x = &ast.FieldAccess{X: x, Field: field, Span: span(start)}
		case lexer.TokenQuestion:
			start := p.cur
			p.next()
			x = &ast.Try{X: x, Span: span(start)}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur
	switch p.cur.Type {
	case lexer.TokenInt:
		n, err := parseIntLiteral(p.cur.Literal)
		if err != nil {
			p.errorf("invalid integer literal %q: %v", p.cur.Literal, err)
		}
		p.next()
		return &ast.IntLit{Value: n, Span: span(start)}
	case lexer.TokenFloat:
		f, _ := parseFloatLiteral(p.cur.Literal)
		p.next()
		return &ast.FloatLit{Value: f, Span: span(start)}
	case lexer.TokenString:
		lit := p.cur.Literal
		p.next()
		return &ast.StringLit{Value: lit, Span: span(start)}
	case lexer.TokenTemplateString:
		lit := p.cur.Literal
		p.next()
		return p.parseTemplate(lit, start)
	case lexer.TokenChar:
		r := []rune(p.cur.Literal)[0]
		p.next()
		return &ast.CharLit{Value: r, Span: span(start)}
	case lexer.TokenTrue:
		p.next()
		return &ast.BoolLit{Value: true, Span: span(start)}
	case lexer.TokenFalse:
		p.next()
		return &ast.BoolLit{Value: false, Span: span(start)}
	case lexer.TokenIdent:
		name := p.cur.Literal
		p.next()
		path := []string{name}
		for p.curIs(lexer.TokenColonColon) {
			p.next()
			path = append(path, p.expect(lexer.TokenIdent, "path component").Literal)
		}
		if p.curIs(lexer.TokenLBrace) && !p.noStructLit {
			return p.parseStructLit(path, start)
		}
		if len(path) > 1 {
			return &ast.Path{Components: path, Span: span(start)}
		}
		return &ast.Ident{Name: name, Span: span(start)}
	case lexer.TokenLParen:
		p.next()
		if p.curIs(lexer.TokenRParen) {
			p.next()
			return &ast.TupleLit{Span: span(start)}
		}
		saved := p.noStructLit
		p.noStructLit = false
		first := p.parseExpr(precLowest)
		if p.curIs(lexer.TokenComma) {
			elems := []ast.Expr{first}
			for p.curIs(lexer.TokenComma) {
				p.next()
				if p.curIs(lexer.TokenRParen) {
					break
				}
				elems = append(elems, p.parseExpr(precLowest))
			}
			p.expect(lexer.TokenRParen, "')'")
			p.noStructLit = saved
			return &ast.TupleLit{Elems: elems, Span: span(start)}
		}
		p.expect(lexer.TokenRParen, "')'")
		p.noStructLit = saved
		return first
	case lexer.TokenLBracket:
		return p.parseVecLit()
	case lexer.TokenHashLBrace:
		return p.parseObjectLit()
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenMatch:
		return p.parseMatch()
	case lexer.TokenWhile:
		return p.parseWhile("")
	case lexer.TokenLoop:
		return p.parseLoop("")
	case lexer.TokenFor:
		return p.parseFor("")
	case lexer.TokenLabel:
		label := p.cur.Literal
		p.next()
		p.expect(lexer.TokenColon, "':'")
		switch p.cur.Type {
		case lexer.TokenWhile:
			return p.parseWhile(label)
		case lexer.TokenLoop:
			return p.parseLoop(label)
		case lexer.TokenFor:
			return p.parseFor(label)
		default:
			p.errorf("expected loop after label")
			return &ast.Ident{Name: "", Span: span(start)}
		}
	default:
		p.errorf("unexpected token %q in expression", p.cur.Literal)
		p.next()
		return &ast.Ident{Name: "", Span: span(start)}
	}
}

// parseStructLit parses `Path { k: v, k2 }` once the caller has
// already consumed path and confirmed the next token is '{'.
func (p *Parser) parseStructLit(path []string, start lexer.Token) ast.Expr {
	p.expect(lexer.TokenLBrace, "'{'")
	saved := p.noStructLit
	p.noStructLit = false
	var entries []ast.ObjectEntry
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		key := p.expect(lexer.TokenIdent, "field name").Literal
		if p.curIs(lexer.TokenColon) {
			p.next()
			entries = append(entries, ast.ObjectEntry{Key: key, Value: p.parseExpr(precLowest)})
		} else {
			entries = append(entries, ast.ObjectEntry{Key: key})
		}
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	p.noStructLit = saved
	return &ast.StructLit{Path: path, Entries: entries, Span: span(start)}
}

func (p *Parser) parseVecLit() ast.Expr {
	start := p.expect(lexer.TokenLBracket, "'['")
	saved := p.noStructLit
	p.noStructLit = false
	var elems []ast.Expr
	for !p.curIs(lexer.TokenRBracket) && !p.curIs(lexer.TokenEOF) {
		elems = append(elems, p.parseExpr(precLowest))
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBracket, "']'")
	p.noStructLit = saved
	return &ast.VecLit{Elems: elems, Span: span(start)}
}

func (p *Parser) parseObjectLit() ast.Expr {
	start := p.expect(lexer.TokenHashLBrace, "'#{'")
	saved := p.noStructLit
	p.noStructLit = false
	var entries []ast.ObjectEntry
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		key := p.parseObjectKey()
		if p.curIs(lexer.TokenColon) {
			p.next()
			val := p.parseExpr(precLowest)
			entries = append(entries, ast.ObjectEntry{Key: key, Value: val})
		} else {
			entries = append(entries, ast.ObjectEntry{Key: key})
		}
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	p.noStructLit = saved
	return &ast.ObjectLit{Entries: entries, Span: span(start)}
}

func (p *Parser) parseObjectKey() string {
	if p.curIs(lexer.TokenString) {
		s := p.cur.Literal
		p.next()
		return s
	}
	return p.expect(lexer.TokenIdent, "object key").Literal
}

func (p *Parser) parseIf() ast.Expr {
	start := p.cur
	p.next() // 'if'
	saved := p.noStructLit
	p.noStructLit = true
	cond := p.parseExpr(precLowest)
	p.noStructLit = saved
	then := p.parseBlock()
	node := &ast.If{Cond: cond, Then: then, Span: span(start)}
	if p.curIs(lexer.TokenElse) {
		p.next()
		if p.curIs(lexer.TokenIf) {
			node.Else = p.parseIf()
		} else {
			node.Else = p.parseBlock()
		}
	}
	return node
}

func (p *Parser) parseMatch() ast.Expr {
	start := p.cur
	p.next() // 'match'
	saved := p.noStructLit
	p.noStructLit = true
	x := p.parseExpr(precLowest)
	p.noStructLit = saved
	p.expect(lexer.TokenLBrace, "'{'")
	var arms []ast.MatchArm
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		pat := p.parsePattern()
		var guard ast.Expr
		if p.curIs(lexer.TokenIf) {
			p.next()
			guard = p.parseExpr(precLowest)
		}
		p.expect(lexer.TokenFatArrow, "'=>'")
		body := p.parseExpr(precLowest)
		arms = append(arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body})
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return &ast.Match{X: x, Arms: arms, Span: span(start)}
}

func (p *Parser) parseWhile(label string) ast.Expr {
	start := p.cur
	p.next() // 'while'
	saved := p.noStructLit
	p.noStructLit = true
	cond := p.parseExpr(precLowest)
	p.noStructLit = saved
	body := p.parseBlock()
	return &ast.While{Label: label, Cond: cond, Body: body, Span: span(start)}
}

func (p *Parser) parseLoop(label string) ast.Expr {
	start := p.cur
	p.next() // 'loop'
	body := p.parseBlock()
	return &ast.Loop{Label: label, Body: body, Span: span(start)}
}

func (p *Parser) parseFor(label string) ast.Expr {
	start := p.cur
	p.next() // 'for'
	pat := p.parsePattern()
	p.expect(lexer.TokenIn, "'in'")
	saved := p.noStructLit
	p.noStructLit = true
	iter := p.parseExpr(precLowest)
	p.noStructLit = saved
	body := p.parseBlock()
	return &ast.For{Label: label, Pattern: pat, Iter: iter, Body: body, Span: span(start)}
}

// parseTemplate splits a template string's raw text (as read by the
// lexer, holes left as literal `{…}` substrings) into literal/expr parts,
// recursively invoking the parser on each hole's contents.
func (p *Parser) parseTemplate(raw string, start lexer.Token) ast.Expr {
	lit := &ast.TemplateLit{Span: span(start)}
	var buf strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '{' {
			if buf.Len() > 0 {
				lit.Parts = append(lit.Parts, ast.TemplatePart{Text: buf.String()})
				buf.Reset()
			}
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				}
				if raw[j] == '}' {
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			exprSrc := raw[i+1 : j]
			sub := New(exprSrc)
			expr := sub.parseExpr(precLowest)
			p.errors = append(p.errors, sub.errors...)
			lit.Parts = append(lit.Parts, ast.TemplatePart{Expr: expr})
			i = j + 1
			continue
		}
		buf.WriteByte(raw[i])
		i++
	}
	if buf.Len() > 0 {
		lit.Parts = append(lit.Parts, ast.TemplatePart{Text: buf.String()})
	}
	return lit
}

func parseFloatLiteral(lit string) (float64, error) {
	return strconv.ParseFloat(lit, 64)
}
