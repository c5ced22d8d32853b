// Package parser implements a recursive-descent parser for the surface
// language, turning a token stream from pkg/lexer into the pkg/ast tree
// the compiler consumes: two-token lookahead, errors accumulated rather
// than aborting at the first one.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kristofer/weave/pkg/ast"
	"github.com/kristofer/weave/pkg/lexer"
)

// Parser holds parsing state: a lexer-fed two-token lookahead window and
// accumulated syntax errors.
type Parser struct {
	l      *lexer.Lexer
	cur    lexer.Token
	peek   lexer.Token
	errors []string

	// noStructLit suppresses parsing `Ident { ... }` / `Path { ... }` as a
	// struct literal, the way the condition of an if/while, a match
	// scrutinee, and a for-loop's iterable would otherwise swallow the
	// block/arms that follow as field entries. Wrapping the expression in
	// parens (or any other bracketed grouping) lifts the restriction for
	// what's inside.
	noStructLit bool
}

// New creates a Parser over input.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", p.cur.Line, fmt.Sprintf(format, args...)))
}

// Errors reports every syntax error accumulated during Parse.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t lexer.TokenType, what string) lexer.Token {
	if !p.curIs(t) {
		p.errorf("expected %s, got %q", what, p.cur.Literal)
		return p.cur
	}
	tok := p.cur
	p.next()
	return tok
}

func span(tok lexer.Token) ast.Span { return ast.Span{Start: tok.Pos, Line: tok.Line} }

// Parse parses a complete program, returning every accumulated syntax
// error joined into one error value on failure.
func Parse(input string) (*ast.Program, error) {
	p := New(input)
	prog := p.parseProgram()
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("parse errors:\n%s", strings.Join(p.errors, "\n"))
	}
	return prog, nil
}

func (p *Parser) parseProgram() *ast.Program {
	start := p.cur
	prog := &ast.Program{Span: span(start)}
	for !p.curIs(lexer.TokenEOF) {
		item := p.parseItem()
		if item != nil {
			prog.Items = append(prog.Items, item)
		} else {
			p.next() // avoid an infinite loop on unrecoverable tokens
		}
	}
	return prog
}

func (p *Parser) parseItem() ast.Stmt {
	switch p.cur.Type {
	case lexer.TokenUse:
		return p.parseUse()
	case lexer.TokenFn:
		return p.parseFn(false)
	case lexer.TokenAsync:
		p.next()
		if !p.curIs(lexer.TokenFn) {
			p.errorf("expected 'fn' after 'async'")
			return nil
		}
		return p.parseFn(true)
	case lexer.TokenStruct:
		return p.parseStruct()
	case lexer.TokenEnum:
		return p.parseEnum()
	default:
		p.errorf("expected item (fn, struct, enum, use), got %q", p.cur.Literal)
		return nil
	}
}

func (p *Parser) parseUse() ast.Stmt {
	start := p.cur
	p.next() // consume 'use'
	var path []string
	path = append(path, p.expect(lexer.TokenIdent, "identifier").Literal)
	for p.curIs(lexer.TokenColonColon) {
		p.next()
		path = append(path, p.expect(lexer.TokenIdent, "identifier").Literal)
	}
	if p.curIs(lexer.TokenSemicolon) {
		p.next()
	}
	return &ast.UseDecl{Path: path, Span: span(start)}
}

func (p *Parser) parseFn(async bool) ast.Stmt {
	start := p.cur
	p.next() // consume 'fn'
	name := p.expect(lexer.TokenIdent, "function name").Literal
	p.expect(lexer.TokenLParen, "'('")
	var params []string
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		params = append(params, p.expect(lexer.TokenIdent, "parameter name").Literal)
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRParen, "')'")
	body := p.parseBlock()
	return &ast.FnDecl{Name: []string{name}, Params: params, Body: body, Async: async, Span: span(start)}
}

func (p *Parser) parseStruct() ast.Stmt {
	start := p.cur
	p.next() // 'struct'
	name := p.expect(lexer.TokenIdent, "struct name").Literal
	switch p.cur.Type {
	case lexer.TokenSemicolon:
		p.next()
		return &ast.StructDecl{Name: name, Kind: ast.StructUnit, Span: span(start)}
	case lexer.TokenLParen:
		p.next()
		var fields []string
		for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
			fields = append(fields, p.expect(lexer.TokenIdent, "field name").Literal)
			if p.curIs(lexer.TokenComma) {
				p.next()
			}
		}
		p.expect(lexer.TokenRParen, "')'")
		if p.curIs(lexer.TokenSemicolon) {
			p.next()
		}
		return &ast.StructDecl{Name: name, Kind: ast.StructTuple, Fields: fields, Span: span(start)}
	case lexer.TokenLBrace:
		p.next()
		var fields []string
		for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
			fields = append(fields, p.expect(lexer.TokenIdent, "field name").Literal)
			if p.curIs(lexer.TokenComma) {
				p.next()
			}
		}
		p.expect(lexer.TokenRBrace, "'}'")
		return &ast.StructDecl{Name: name, Kind: ast.StructObject, Fields: fields, Span: span(start)}
	default:
		p.errorf("expected ';', '(' or '{' after struct name")
		return nil
	}
}

func (p *Parser) parseEnum() ast.Stmt {
	start := p.cur
	p.next() // 'enum'
	name := p.expect(lexer.TokenIdent, "enum name").Literal
	p.expect(lexer.TokenLBrace, "'{'")
	var variants []ast.EnumVariant
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		vname := p.expect(lexer.TokenIdent, "variant name").Literal
		v := ast.EnumVariant{Name: vname, Kind: ast.StructUnit}
		switch p.cur.Type {
		case lexer.TokenLParen:
			p.next()
			for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
				p.expect(lexer.TokenIdent, "field name")
				v.Arity++
				if p.curIs(lexer.TokenComma) {
					p.next()
				}
			}
			p.expect(lexer.TokenRParen, "')'")
			v.Kind = ast.StructTuple
		case lexer.TokenLBrace:
			p.next()
			for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
				v.Fields = append(v.Fields, p.expect(lexer.TokenIdent, "field name").Literal)
				if p.curIs(lexer.TokenComma) {
					p.next()
				}
			}
			p.expect(lexer.TokenRBrace, "'}'")
			v.Kind = ast.StructObject
		}
		variants = append(variants, v)
		if p.curIs(lexer.TokenComma) {
			p.next()
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return &ast.EnumDecl{Name: name, Variants: variants, Span: span(start)}
}

// parseBlock parses `{ stmt* tailExpr? }`.
func (p *Parser) parseBlock() *ast.Block {
	start := p.expect(lexer.TokenLBrace, "'{'")
	b := &ast.Block{Span: span(start)}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenSemicolon) {
			p.next()
			continue
		}
		stmt, isTail := p.parseBlockStmt()
		if isTail {
			if e, ok := stmt.(*ast.ExprStmt); ok {
				b.Tail = e.X
			}
			break
		}
		if stmt != nil {
			b.Stmts = append(b.Stmts, stmt)
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return b
}

// parseBlockStmt parses one statement. The bool result reports whether
// this was a trailing, semicolon-less expression that should become the
// block's tail value rather than an ordinary ExprStmt.
func (p *Parser) parseBlockStmt() (ast.Stmt, bool) {
	start := p.cur
	switch p.cur.Type {
	case lexer.TokenLet:
		return p.parseLet(), false
	case lexer.TokenReturn:
		p.next()
		if p.curIs(lexer.TokenSemicolon) || p.curIs(lexer.TokenRBrace) {
			return &ast.ReturnStmt{Span: span(start)}, false
		}
		val := p.parseExpr(precLowest)
		return &ast.ReturnStmt{Value: val, Span: span(start)}, false
	case lexer.TokenBreak:
		p.next()
		label := ""
		if p.curIs(lexer.TokenLabel) {
			label = p.cur.Literal
			p.next()
		}
		var val ast.Expr
		if !p.curIs(lexer.TokenSemicolon) && !p.curIs(lexer.TokenRBrace) {
			val = p.parseExpr(precLowest)
		}
		return &ast.BreakStmt{Label: label, Value: val, Span: span(start)}, false
	case lexer.TokenContinue:
		p.next()
		label := ""
		if p.curIs(lexer.TokenLabel) {
			label = p.cur.Literal
			p.next()
		}
		return &ast.ContinueStmt{Label: label, Span: span(start)}, false
	default:
		expr := p.parseExpr(precLowest)
		stmt := &ast.ExprStmt{X: expr, Span: span(start)}
		if p.curIs(lexer.TokenSemicolon) {
			p.next()
			return stmt, false
		}
		if p.curIs(lexer.TokenRBrace) {
			return stmt, true
		}
		// A block-form expression (if/match/while/loop/for) may be
		// followed directly by another statement without a semicolon.
		return stmt, false
	}
}

func (p *Parser) parseLet() ast.Stmt {
	start := p.cur
	p.next() // 'let'
	pat := p.parsePattern()
	p.expect(lexer.TokenAssign, "'='")
	val := p.parseExpr(precLowest)
	if p.curIs(lexer.TokenSemicolon) {
		p.next()
	}
	return &ast.LetStmt{Pattern: pat, Value: val, Span: span(start)}
}

func parseIntLiteral(lit string) (int64, error) {
	switch {
	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		return strconv.ParseInt(lit[2:], 16, 64)
	case strings.HasPrefix(lit, "0o") || strings.HasPrefix(lit, "0O"):
		return strconv.ParseInt(lit[2:], 8, 64)
	case strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B"):
		return strconv.ParseInt(lit[2:], 2, 64)
	default:
		return strconv.ParseInt(lit, 10, 64)
	}
}
