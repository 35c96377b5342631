package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/razeghi71/csvqb/table"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Grouping
	TokenGroup  TokenType = iota // GRP
	TokenLParen                  // (
	TokenRParen                  // )

	// Column aggregates, each followed by a field name
	TokenSum   // CSUM
	TokenCount // CCOUNT
	TokenAvg   // CAVG
	TokenCMul  // CMUL

	// Stack operators
	TokenMul // MUL
	TokenEq  // =
	TokenLt  // <
	TokenGt  // >

	// Literals
	TokenNumber // numeric literal
	TokenIdent  // field name or free text

	// End
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenGroup: "GRP", TokenLParen: "(", TokenRParen: ")",
	TokenSum: "CSUM", TokenCount: "CCOUNT", TokenAvg: "CAVG", TokenCMul: "CMUL",
	TokenMul: "MUL", TokenEq: "=", TokenLt: "<", TokenGt: ">",
	TokenNumber: "NUMBER", TokenIdent: "IDENT", TokenEOF: "EOF",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Val  string
	Pos  int // byte offset in original input, or index when built from a slice
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Val, t.Pos)
}

// Keywords are matched by exact, case-sensitive text.
var keywords = map[string]TokenType{
	"GRP":    TokenGroup,
	"(":      TokenLParen,
	")":      TokenRParen,
	"CSUM":   TokenSum,
	"CCOUNT": TokenCount,
	"CAVG":   TokenAvg,
	"CMUL":   TokenCMul,
	"MUL":    TokenMul,
	"=":      TokenEq,
	"<":      TokenLt,
	">":      TokenGt,
}

// Classify returns the token type of a single pipeline atom.
func Classify(s string) TokenType {
	if tt, ok := keywords[s]; ok {
		return tt
	}
	if _, ok := table.ParseNumber(s); ok {
		return TokenNumber
	}
	return TokenIdent
}

// Lex splits pipeline text on whitespace and classifies every atom.
// The result always ends with a TokenEOF.
func Lex(input string) ([]Token, error) {
	if !utf8.ValidString(input) {
		for i := 0; i < len(input); {
			r, size := utf8.DecodeRuneInString(input[i:])
			if r == utf8.RuneError && size == 1 {
				return nil, fmt.Errorf("invalid UTF-8 at position %d", i)
			}
			i += size
		}
	}

	var tokens []Token
	start := -1
	for i, ch := range input {
		if unicode.IsSpace(ch) {
			if start >= 0 {
				tokens = append(tokens, newToken(input[start:i], start))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, newToken(input[start:], start))
	}

	tokens = append(tokens, Token{TokenEOF, "", len(input)})
	return tokens, nil
}

// FromStrings classifies an already split pipeline, as assembled by a UI.
// Positions are slice indices. The result ends with a TokenEOF.
func FromStrings(atoms []string) []Token {
	tokens := make([]Token, 0, len(atoms)+1)
	for i, a := range atoms {
		tokens = append(tokens, newToken(a, i))
	}
	return append(tokens, Token{TokenEOF, "", len(atoms)})
}

func newToken(s string, pos int) Token {
	return Token{Type: Classify(s), Val: s, Pos: pos}
}

// Join renders a pipeline in its persisted text form: atoms separated by a
// single space. Atoms containing whitespace do not survive a Split.
func Join(atoms []string) string {
	return strings.Join(atoms, " ")
}

// Split is the inverse of Join for atoms without internal whitespace.
func Split(text string) []string {
	return strings.Fields(text)
}
