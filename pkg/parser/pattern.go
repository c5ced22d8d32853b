package parser

import (
	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/lexer"
)

// parsePattern parses one pattern: wildcard, identifier binding, literal,
// sequence `[..]`, object `#{..}`, or a path-qualified tuple/object form
// used to destructure a struct or enum variant.
func (p *Parser) parsePattern() ast.Pattern {
	start := p.cur
	switch p.cur.Type {
	case lexer.TokenUnderscore:
		p.next()
		return &ast.WildcardPattern{Span: span(start)}
	case lexer.TokenMinus, lexer.TokenInt, lexer.TokenFloat, lexer.TokenString,
		lexer.TokenChar, lexer.TokenTrue, lexer.TokenFalse:
		return &ast.LiteralPattern{Value: p.parsePatternLiteral(), Span: span(start)}
	case lexer.TokenLBracket:
		return p.parseSeqPattern()
	case lexer.TokenHashLBrace:
		return p.parseObjectPattern()
	case lexer.TokenIdent:
		name := p.cur.Literal
		p.next()
		if p.curIs(lexer.TokenColonColon) || p.curIs(lexer.TokenLParen) || p.curIs(lexer.TokenLBrace) {
			path := []string{name}
			for p.curIs(lexer.TokenColonColon) {
				p.next()
				path = append(path, p.expect(lexer.TokenIdent, "path component").Literal)
			}
			switch p.cur.Type {
			case lexer.TokenLParen:
				return p.parseTypedTuplePattern(path, start)
			case lexer.TokenLBrace:
				return p.parseStructObjectPattern(path, start)
			default:
				return &ast.IdentPattern{Name: name, Span: span(start)}
			}
		}
		return &ast.IdentPattern{Name: name, Span: span(start)}
	default:
		p.errorf("unexpected token %q in pattern", p.cur.Literal)
		p.next()
		return &ast.WildcardPattern{Span: span(start)}
	}
}

// parsePatternLiteral parses the small literal subset allowed in pattern
// position, including a leading unary minus for numeric literals.
func (p *Parser) parsePatternLiteral() ast.Expr {
	start := p.cur
	neg := false
	if p.curIs(lexer.TokenMinus) {
		neg = true
		p.next()
	}
	switch p.cur.Type {
	case lexer.TokenInt:
		n, err := parseIntLiteral(p.cur.Literal)
		if err != nil {
			p.errorf("invalid integer literal %q: %v", p.cur.Literal, err)
		}
		p.next()
		if neg {
			n = -n
		}
		return &ast.IntLit{Value: n, Span: span(start)}
	case lexer.TokenFloat:
		f, _ := parseFloatLiteral(p.cur.Literal)
		p.next()
		if neg {
			f = -f
		}
		return &ast.FloatLit{Value: f, Span: span(start)}
	case lexer.TokenString:
		s := p.cur.Literal
		p.next()
		return &ast.StringLit{Value: s, Span: span(start)}
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
	default:
		p.errorf("expected literal in pattern, got %q", p.cur.Literal)
		p.next()
		return &ast.IntLit{Span: span(start)}
	}
}

func (p *Parser) parseSeqPattern() ast.Pattern {
	start := p.expect(lexer.TokenLBracket, "'['")
	sp := &ast.SeqPattern{Span: span(start)}
	for !p.curIs(lexer.TokenRBracket) && !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenDotDot) {
			p.next()
			sp.Open = true
			break
		}
		sp.Elems = append(sp.Elems, p.parsePattern())
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBracket, "']'")
	return sp
}

func (p *Parser) parseObjectPattern() ast.Pattern {
	start := p.expect(lexer.TokenHashLBrace, "'#{'")
	op := &ast.ObjectPattern{Span: span(start)}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenDotDot) {
			p.next()
			op.Open = true
			break
		}
		key := p.expect(lexer.TokenIdent, "field name").Literal
		field := ast.ObjectPatternField{Key: key}
		if p.curIs(lexer.TokenColon) {
			p.next()
			field.Pattern = p.parsePattern()
		}
		op.Fields = append(op.Fields, field)
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return op
}

func (p *Parser) parseTypedTuplePattern(path []string, start lexer.Token) ast.Pattern {
	p.expect(lexer.TokenLParen, "'('")
	tp := &ast.TypedTuplePattern{Path: path, Span: span(start)}
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		tp.Elems = append(tp.Elems, p.parsePattern())
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRParen, "')'")
	return tp
}

func (p *Parser) parseStructObjectPattern(path []string, start lexer.Token) ast.Pattern {
	p.expect(lexer.TokenLBrace, "'{'")
	sp := &ast.StructObjectPattern{Path: path, Span: span(start)}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenDotDot) {
			p.next()
			sp.Open = true
			break
		}
		key := p.expect(lexer.TokenIdent, "field name").Literal
		field := ast.StructObjectPatternField{Key: key}
		if p.curIs(lexer.TokenColon) {
			p.next()
			field.Pattern = p.parsePattern()
		}
		sp.Fields = append(sp.Fields, field)
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return sp
}
