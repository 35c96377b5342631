package parser

import (
	"errors"
	"fmt"

	"github.com/razeghi71/csvqb/ast"
	"github.com/razeghi71/csvqb/lexer"
)

// MaxTokens bounds the length of a single pipeline.
const MaxTokens = 1 << 16

// ErrTooManyTokens is returned for pipelines longer than MaxTokens.
var ErrTooManyTokens = errors.New("pipeline too long")

// Parser converts a token stream into a Pipeline.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse parses pipeline text, e.g. "GRP city CSUM qty".
func Parse(input string) (*ast.Pipeline, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	p := &Parser{tokens: tokens}
	return p.parsePipeline()
}

// ParseAtoms parses an already split pipeline. Atoms are taken verbatim, so
// field names containing whitespace survive here even though they cannot
// survive the text form.
func ParseAtoms(atoms []string) (*ast.Pipeline, error) {
	p := &Parser{tokens: lexer.FromStrings(atoms)}
	return p.parsePipeline()
}

// MustParse is like Parse but panics on error. Intended for tests and
// static pipelines.
func MustParse(input string) *ast.Pipeline {
	p, err := Parse(input)
	if err != nil {
		panic(fmt.Sprintf("parser: Parse(%q): %v", input, err))
	}
	return p
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) parsePipeline() (*ast.Pipeline, error) {
	if n := len(p.tokens) - 1; n > MaxTokens {
		return nil, fmt.Errorf("%w: %d tokens, maximum is %d", ErrTooManyTokens, n, MaxTokens)
	}

	ops := make([]ast.Op, 0, len(p.tokens))
	for p.peek().Type != lexer.TokenEOF {
		ops = append(ops, decode(p.advance()))
	}
	return &ast.Pipeline{Ops: ops}, nil
}

func decode(tok lexer.Token) ast.Op {
	a := ast.Atom{Text: tok.Val, Pos: tok.Pos}
	switch tok.Type {
	case lexer.TokenGroup:
		return &ast.GroupOp{Atom: a}
	case lexer.TokenLParen:
		return &ast.OpenOp{Atom: a}
	case lexer.TokenRParen:
		return &ast.CloseOp{Atom: a}
	case lexer.TokenSum:
		return &ast.SumOp{Atom: a}
	case lexer.TokenCount:
		return &ast.CountOp{Atom: a}
	case lexer.TokenAvg:
		return &ast.AvgOp{Atom: a}
	case lexer.TokenCMul:
		return &ast.CMulOp{Atom: a}
	case lexer.TokenMul:
		return &ast.MulOp{Atom: a}
	case lexer.TokenEq:
		return &ast.EqOp{Atom: a}
	case lexer.TokenLt:
		return &ast.LtOp{Atom: a}
	case lexer.TokenGt:
		return &ast.GtOp{Atom: a}
	case lexer.TokenNumber:
		return &ast.NumberOp{Atom: a, Value: number(tok.Val)}
	default:
		return &ast.IdentOp{Atom: a}
	}
}
