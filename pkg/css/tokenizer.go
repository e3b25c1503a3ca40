package css

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/css/scanner"
)

type TokenType int

const (
	TokenIdent TokenType = iota
	TokenString
	TokenNumber
	TokenPercentage
	TokenDimension
	TokenHash
	TokenDelim
	TokenWhitespace
	TokenAtKeyword
	TokenFunction
	// TokenBadString is a string cut short by a newline or the end of input.
	TokenBadString
	TokenEOF
)

var tokenTypeNames = [...]string{
	TokenIdent:      "Ident",
	TokenString:     "String",
	TokenNumber:     "Number",
	TokenPercentage: "Percentage",
	TokenDimension:  "Dimension",
	TokenHash:       "Hash",
	TokenDelim:      "Delim",
	TokenWhitespace: "Whitespace",
	TokenAtKeyword:  "AtKeyword",
	TokenFunction:   "Function",
	TokenBadString:  "BadString",
	TokenEOF:        "EOF",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "Unknown"
}

// Token is one lexical unit of a style sheet.
//
// Value holds the token text with its syntax stripped: a String has no
// quotes, a Hash no '#', an AtKeyword no '@' and a Function no '('.
// Numeric tokens also carry their parsed Num and lower-cased Unit ("%" for
// percentages).
type Token struct {
	Type   TokenType
	Value  string
	Num    float64
	Unit   string
	Line   int
	Column int
}

// Is reports whether the token is the delimiter d.
func (t Token) Is(d string) bool {
	return t.Type == TokenDelim && t.Value == d
}

// Text renders the token back to style sheet syntax.
func (t Token) Text() string {
	switch t.Type {
	case TokenString:
		return strconv.Quote(t.Value)
	case TokenHash:
		return "#" + t.Value
	case TokenAtKeyword:
		return "@" + t.Value
	case TokenFunction:
		return t.Value + "("
	case TokenWhitespace:
		return " "
	case TokenEOF:
		return ""
	}
	return t.Value
}

// Tokenizer turns style sheet text into Tokens. Scanning is done by the
// gorilla scanner; comments, CDO/CDC markers and byte order marks are
// dropped. An unclosed string becomes a TokenBadString running to the end
// of its line and scanning resumes after it. An unclosed comment ends the
// stream.
type Tokenizer struct {
	input   string
	scanner *scanner.Scanner
	pos     int // byte offset of the next scanner token in input
	line    int // where the current scanner started
	col     int
	done    bool
}

// preprocess applies the scanner's own newline normalization up front so
// byte offsets into input agree with the scanner's.
var preprocess = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n", "\u0000", "\ufffd")

func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{input: preprocess.Replace(input)}
	t.restart(0, 1, 1)
	return t
}

func (t *Tokenizer) restart(pos, line, col int) {
	t.scanner = scanner.New(t.input[pos:])
	t.pos, t.line, t.col = pos, line, col
}

// Next returns the next token, or a TokenEOF token at the end of input.
func (t *Tokenizer) Next() Token {
	for !t.done {
		st := t.scanner.Next()
		tok := Token{Value: st.Value, Line: st.Line + t.line - 1, Column: st.Column}
		if st.Line == 1 {
			tok.Column += t.col - 1
		}
		switch st.Type {
		case scanner.TokenEOF:
			t.done = true
			continue
		case scanner.TokenError:
			if st.Value != "unclosed quotation mark" {
				t.done = true
				continue
			}
			return t.badString(tok)
		}
		t.advance(st)

		switch st.Type {
		case scanner.TokenComment, scanner.TokenCDO, scanner.TokenCDC, scanner.TokenBOM:
			continue
		case scanner.TokenIdent, scanner.TokenUnicodeRange, scanner.TokenURI:
			tok.Type = TokenIdent
			return tok
		case scanner.TokenString:
			tok.Type = TokenString
			tok.Value = unquote(st.Value)
			return tok
		case scanner.TokenHash:
			tok.Type = TokenHash
			tok.Value = strings.TrimPrefix(st.Value, "#")
			return tok
		case scanner.TokenAtKeyword:
			tok.Type = TokenAtKeyword
			tok.Value = strings.ToLower(strings.TrimPrefix(st.Value, "@"))
			return tok
		case scanner.TokenFunction:
			tok.Type = TokenFunction
			tok.Value = strings.ToLower(strings.TrimSuffix(st.Value, "("))
			return tok
		case scanner.TokenNumber:
			tok.Type = TokenNumber
			tok.Num, _ = strconv.ParseFloat(st.Value, 64)
			return tok
		case scanner.TokenPercentage:
			tok.Type = TokenPercentage
			tok.Num, _ = strconv.ParseFloat(strings.TrimSuffix(st.Value, "%"), 64)
			tok.Unit = "%"
			return tok
		case scanner.TokenDimension:
			tok.Type = TokenDimension
			tok.Num, tok.Unit = splitDimension(st.Value)
			return tok
		case scanner.TokenS:
			tok.Type = TokenWhitespace
			return tok
		default:
			// Single characters and the attribute match operators.
			tok.Type = TokenDelim
			return tok
		}
	}
	return Token{Type: TokenEOF}
}

// advance moves pos past st. A Char holding U+FFFD may stand for a single
// invalid byte in input.
func (t *Tokenizer) advance(st *scanner.Token) {
	width := len(st.Value)
	if st.Type == scanner.TokenChar && st.Value == "\ufffd" {
		_, width = utf8.DecodeRuneInString(t.input[t.pos:])
	}
	t.pos += width
}

// badString consumes an unclosed string up to, not including, the next
// newline and restarts scanning there.
func (t *Tokenizer) badString(tok Token) Token {
	rest := t.input[t.pos:]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		end = len(rest)
	}
	tok.Type = TokenBadString
	tok.Value = rest[1:end]
	t.restart(t.pos+end, tok.Line, tok.Column+utf8.RuneCountInString(rest[:end]))
	return tok
}

// Tokenize returns every token of input, without the trailing EOF.
func Tokenize(input string) []Token {
	t := NewTokenizer(input)
	tokens := make([]Token, 0)
	for {
		tok := t.Next()
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func splitDimension(s string) (float64, string) {
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	num, _ := strconv.ParseFloat(s[:i], 64)
	return num, strings.ToLower(s[i:])
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
