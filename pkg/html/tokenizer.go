package html

import (
	"strings"

	nethtml "golang.org/x/net/html"
)

type TokenType int

const (
	TokenStartTag TokenType = iota
	TokenEndTag
	TokenText
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenStartTag:
		return "StartTag"
	case TokenEndTag:
		return "EndTag"
	case TokenText:
		return "Text"
	}
	return "EOF"
}

type Token struct {
	Type        TokenType
	TagName     string
	Attributes  []Attribute
	Text        string
	SelfClosing bool // True for tags ending with /> (XHTML self-closing syntax)
}

// Tokenizer splits markup into tokens. It alternates between text mode and
// tag mode on '<' and '>' boundaries. It never fails: anything that does not
// form a well-formed tag comes back as text.
type Tokenizer struct {
	input      string
	pos        int
	viewSource bool
}

func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// Next returns the next token, or a TokenEOF token once the input is used up.
func (t *Tokenizer) Next() Token {
	for t.pos < len(t.input) {
		if t.viewSource {
			raw := t.input[t.pos:]
			t.pos = len(t.input)
			return Token{Type: TokenText, Text: nethtml.UnescapeString(raw)}
		}
		if t.input[t.pos] != '<' {
			return t.readText(t.pos)
		}
		start := t.pos
		tok, ok, skipped := t.readTag()
		if skipped {
			continue
		}
		if !ok {
			// Malformed tag: the '<' and what follows up to the next '<' is text.
			t.pos = start
			return t.readText(start + 1)
		}
		return tok
	}
	return Token{Type: TokenEOF}
}

// readText reads text from the current position up to the next '<' at or
// after from.
func (t *Tokenizer) readText(from int) Token {
	start := t.pos
	end := strings.IndexByte(t.input[from:], '<')
	if end < 0 {
		t.pos = len(t.input)
	} else {
		t.pos = from + end
	}
	return Token{Type: TokenText, Text: nethtml.UnescapeString(t.input[start:t.pos])}
}

// readTag reads a tag starting at '<'. skipped is true for comments,
// doctypes and processing instructions, which produce no token.
func (t *Tokenizer) readTag() (tok Token, ok bool, skipped bool) {
	t.pos++ // '<'
	if t.pos >= len(t.input) {
		return Token{}, false, false
	}
	switch c := t.input[t.pos]; {
	case strings.HasPrefix(t.input[t.pos:], "!--"):
		t.skipPast("-->", t.pos+3)
		return Token{}, false, true
	case c == '!' || c == '?':
		t.skipPast(">", t.pos)
		return Token{}, false, true
	case c == '/':
		t.pos++
		name := t.readTagName()
		if name == "" {
			return Token{}, false, false
		}
		end := strings.IndexByte(t.input[t.pos:], '>')
		if end < 0 {
			return Token{}, false, false
		}
		t.pos += end + 1
		return Token{Type: TokenEndTag, TagName: name}, true, false
	case isASCIILetter(c):
		return t.readStartTag()
	}
	return Token{}, false, false
}

func (t *Tokenizer) readStartTag() (Token, bool, bool) {
	tok := Token{Type: TokenStartTag, TagName: t.readTagName()}
	for {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			return Token{}, false, false
		}
		switch t.input[t.pos] {
		case '>':
			t.pos++
			return tok, true, false
		case '/':
			t.pos++
			if t.pos < len(t.input) && t.input[t.pos] == '>' {
				t.pos++
				tok.SelfClosing = true
				return tok, true, false
			}
			continue
		}
		name, value, ok := t.readAttribute()
		if !ok {
			return Token{}, false, false
		}
		if name == "" {
			continue
		}
		if _, dup := findAttr(tok.Attributes, name); !dup {
			tok.Attributes = append(tok.Attributes, Attribute{Key: name, Val: value})
		}
	}
}

func findAttr(attrs []Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (t *Tokenizer) readTagName() string {
	start := t.pos
	for t.pos < len(t.input) && isTagNameChar(t.input[t.pos]) {
		t.pos++
	}
	return strings.ToLower(t.input[start:t.pos])
}

// readAttribute reads name[=value]. An empty name means a stray character
// was consumed. ok is false only for an unterminated quoted value.
func (t *Tokenizer) readAttribute() (name, value string, ok bool) {
	start := t.pos
	for t.pos < len(t.input) && isAttributeNameChar(t.input[t.pos]) {
		t.pos++
	}
	name = strings.ToLower(t.input[start:t.pos])
	if name == "" {
		t.pos++
		return "", "", true
	}
	t.skipWhitespace()
	if t.pos >= len(t.input) || t.input[t.pos] != '=' {
		return name, "", true
	}
	t.pos++
	t.skipWhitespace()
	if t.pos >= len(t.input) {
		return name, "", true
	}
	quote := t.input[t.pos]
	if quote == '"' || quote == '\'' {
		end := strings.IndexByte(t.input[t.pos+1:], quote)
		if end < 0 {
			return "", "", false
		}
		value = t.input[t.pos+1 : t.pos+1+end]
		t.pos += end + 2
		return name, nethtml.UnescapeString(value), true
	}
	start = t.pos
	for t.pos < len(t.input) && !isSpace(t.input[t.pos]) && t.input[t.pos] != '>' {
		t.pos++
	}
	return name, nethtml.UnescapeString(t.input[start:t.pos]), true
}

// ReadRawUntil reads raw content until the closing end tag is found (e.g., </script>).
// This is used for raw text elements like <script> and <style> where '<' does not
// start a new tag.
func (t *Tokenizer) ReadRawUntil(endTag string) string {
	needle := "</" + endTag
	rest := strings.ToLower(t.input[t.pos:])
	idx := strings.Index(rest, needle)
	if idx < 0 {
		content := t.input[t.pos:]
		t.pos = len(t.input)
		return content
	}
	content := t.input[t.pos : t.pos+idx]
	t.pos += idx
	if end := strings.IndexByte(t.input[t.pos:], '>'); end >= 0 {
		t.pos += end + 1
	} else {
		t.pos = len(t.input)
	}
	return content
}

func (t *Tokenizer) skipPast(marker string, from int) {
	if from > len(t.input) {
		from = len(t.input)
	}
	idx := strings.Index(t.input[from:], marker)
	if idx < 0 {
		t.pos = len(t.input)
		return
	}
	t.pos = from + idx + len(marker)
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && isSpace(t.input[t.pos]) {
		t.pos++
	}
}

// isSpace reports markup whitespace. Only ASCII counts, so bytes of a
// multi-byte UTF-8 sequence are never mistaken for spaces.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isTagNameChar(c byte) bool {
	return isASCIILetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == ':'
}

func isAttributeNameChar(c byte) bool {
	return c > ' ' && c != '/' && c != '>' && c != '=' && c != '"' && c != '\'' && c != '<'
}

const markupSpace = " \t\n\r\f"

// IsWhitespace reports whether s consists only of markup whitespace.
func IsWhitespace(s string) bool {
	return strings.Trim(s, markupSpace) == ""
}
