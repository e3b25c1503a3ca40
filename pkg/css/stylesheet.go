package css

import (
	"strings"

	"go.uber.org/zap"
)

// Origin is the source a rule came from. Later origins win the cascade.
type Origin int

const (
	OriginUserAgent Origin = iota
	OriginAuthor
	OriginInline
)

func (o Origin) String() string {
	switch o {
	case OriginUserAgent:
		return "user-agent"
	case OriginInline:
		return "inline"
	}
	return "author"
}

type Combinator int

const (
	DescendantCombinator Combinator = iota // "div p"
	ChildCombinator                        // "div > p"
)

// SelectorPart is a compound selector: an optional tag name (or "*")
// followed by any number of #id and .class conditions.
type SelectorPart struct {
	Element string
	ID      string
	Classes []string
}

// Selector is a chain of compound selectors. Combinators[i] joins Parts[i]
// and Parts[i+1]; the last part matches the subject element.
type Selector struct {
	Raw         string
	Parts       []SelectorPart
	Combinators []Combinator
	Specificity int
}

type Declaration struct {
	Property string
	Value    string
}

// Rule is a selector with its declarations. A selector list produces one
// Rule per selector, all sharing the same Order.
type Rule struct {
	Selector     Selector
	Declarations []Declaration
	Order        int
	Origin       Origin
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules  []Rule
	Origin Origin
}

type options struct {
	log          *zap.Logger
	origin       Origin
	rootFontSize float64
}

// Option configures parsing and the cascade.
type Option func(*options)

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithOrigin sets the origin of the parsed rules (author by default).
func WithOrigin(origin Origin) Option {
	return func(o *options) { o.origin = origin }
}

// WithRootFontSize sets the font size of the root element, which is also
// the base for rem units and font-size keywords. The default is 16.
func WithRootFontSize(size float64) Option {
	return func(o *options) {
		if size > 0 {
			o.rootFontSize = size
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{log: zap.NewNop(), origin: OriginAuthor, rootFontSize: DefaultFontSize}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type parser struct {
	tokens []Token
	pos    int
	log    *zap.Logger
}

// Parse parses style sheet text into rules in source order. It never fails:
// invalid selectors drop their rule, invalid declarations are skipped one
// by one and at-rules are skipped whole.
func Parse(input string, opts ...Option) *Stylesheet {
	o := newOptions(opts)
	p := &parser{tokens: Tokenize(input), log: o.log}
	sheet := &Stylesheet{Rules: make([]Rule, 0), Origin: o.origin}

	order := 0
	for {
		p.skipWhitespace()
		tok := p.peek()
		switch {
		case tok.Type == TokenEOF:
			return sheet
		case tok.Type == TokenAtKeyword:
			p.log.Debug("skipping at-rule", zap.String("rule", tok.Value), zap.Int("line", tok.Line))
			p.skipAtRule()
			continue
		case tok.Is("}"):
			p.pos++
			continue
		}

		prelude, ok := p.readPrelude()
		if !ok {
			return sheet
		}
		decls := p.parseDeclarations(p.readBlock())
		for _, raw := range splitTokens(prelude, ",") {
			sel, ok := parseSelector(raw)
			if !ok {
				p.log.Debug("skipping rule with invalid selector", zap.String("selector", renderTokens(raw)))
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				Selector:     sel,
				Declarations: decls,
				Order:        order,
				Origin:       o.origin,
			})
		}
		order++
	}
}

// ParseDeclarations parses the contents of a style attribute.
func ParseDeclarations(input string, opts ...Option) []Declaration {
	o := newOptions(opts)
	p := &parser{log: o.log}
	return p.parseDeclarations(Tokenize(input))
}

func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenWhitespace {
		p.pos++
	}
}

// readPrelude reads up to and including the '{' of a rule. ok is false if
// the input ends first.
func (p *parser) readPrelude() ([]Token, bool) {
	start := p.pos
	for ; p.pos < len(p.tokens); p.pos++ {
		if p.tokens[p.pos].Is("{") {
			prelude := p.tokens[start:p.pos]
			p.pos++
			return prelude, true
		}
	}
	return nil, false
}

// readBlock reads a block body up to its matching '}'. An unterminated
// block runs to the end of input.
func (p *parser) readBlock() []Token {
	start := p.pos
	depth := 0
	for ; p.pos < len(p.tokens); p.pos++ {
		tok := p.tokens[p.pos]
		switch {
		case tok.Is("{"):
			depth++
		case tok.Is("}"):
			if depth == 0 {
				body := p.tokens[start:p.pos]
				p.pos++
				return body
			}
			depth--
		}
	}
	return p.tokens[start:]
}

// skipAtRule skips an at-rule: either up to a top-level ';' or past its block.
func (p *parser) skipAtRule() {
	p.pos++
	for ; p.pos < len(p.tokens); p.pos++ {
		tok := p.tokens[p.pos]
		if tok.Is(";") {
			p.pos++
			return
		}
		if tok.Is("{") {
			p.pos++
			p.readBlock()
			return
		}
	}
}

func (p *parser) parseDeclarations(tokens []Token) []Declaration {
	decls := make([]Declaration, 0)
	for _, raw := range splitTokens(tokens, ";") {
		raw = trimWhitespace(raw)
		if len(raw) == 0 {
			continue
		}
		if raw[0].Type != TokenIdent {
			p.log.Debug("skipping malformed declaration", zap.String("declaration", renderTokens(raw)))
			continue
		}
		property := strings.ToLower(raw[0].Value)
		rest := trimWhitespace(raw[1:])
		if len(rest) == 0 || !rest[0].Is(":") {
			p.log.Debug("skipping declaration without colon", zap.String("property", property))
			continue
		}
		if hasBadString(rest) {
			p.log.Debug("skipping declaration with unclosed string", zap.String("property", property))
			continue
		}
		value := renderTokens(stripImportant(trimWhitespace(rest[1:])))
		expanded, err := expandShorthand(property, value)
		if err != nil {
			p.log.Debug("skipping declaration",
				zap.String("property", property),
				zap.String("value", value),
				zap.Error(err))
			continue
		}
		decls = append(decls, expanded...)
	}
	return decls
}

func hasBadString(tokens []Token) bool {
	for _, tok := range tokens {
		if tok.Type == TokenBadString {
			return true
		}
	}
	return false
}

// stripImportant removes a trailing "!important". The flag is accepted but
// has no effect on the cascade.
func stripImportant(tokens []Token) []Token {
	n := len(tokens)
	if n >= 2 && tokens[n-1].Type == TokenIdent && strings.EqualFold(tokens[n-1].Value, "important") {
		rest := trimWhitespace(tokens[:n-1])
		if len(rest) > 0 && rest[len(rest)-1].Is("!") {
			return trimWhitespace(rest[:len(rest)-1])
		}
	}
	return tokens
}

// parseSelector parses one selector of a selector list. Pseudo-classes,
// attribute selectors and sibling combinators make it invalid.
func parseSelector(tokens []Token) (Selector, bool) {
	tokens = trimWhitespace(tokens)
	sel := Selector{Raw: renderTokens(tokens)}
	if len(tokens) == 0 {
		return sel, false
	}

	var part SelectorPart
	empty := true
	pending := -1 // combinator waiting for the next compound, -1 for none
	flush := func() bool {
		if empty {
			return false
		}
		sel.Parts = append(sel.Parts, part)
		part, empty = SelectorPart{}, true
		return true
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		startsCompound := tok.Type == TokenIdent || tok.Is("*") || tok.Type == TokenHash || tok.Is(".")
		if startsCompound && pending >= 0 {
			if !flush() {
				return sel, false
			}
			sel.Combinators = append(sel.Combinators, Combinator(pending))
			pending = -1
		}
		switch {
		case tok.Type == TokenIdent || tok.Is("*"):
			if !empty {
				return sel, false
			}
			part.Element = strings.ToLower(tok.Value)
			empty = false
		case tok.Type == TokenHash:
			if part.ID != "" || !isIdentStart(tok.Value) {
				return sel, false
			}
			part.ID = tok.Value
			empty = false
		case tok.Is("."):
			if i+1 >= len(tokens) || tokens[i+1].Type != TokenIdent {
				return sel, false
			}
			i++
			part.Classes = append(part.Classes, tokens[i].Value)
			empty = false
		case tok.Type == TokenWhitespace:
			if pending < 0 {
				pending = int(DescendantCombinator)
			}
		case tok.Is(">"):
			if empty && len(sel.Parts) == 0 {
				return sel, false
			}
			pending = int(ChildCombinator)
		default:
			return sel, false
		}
	}
	if pending >= 0 || !flush() {
		return sel, false
	}
	sel.Specificity = specificity(sel.Parts)
	return sel, true
}

func isIdentStart(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '-' || c == '_' || c >= 0x80 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// specificity sums id (100), class (10) and tag (1) conditions.
func specificity(parts []SelectorPart) int {
	score := 0
	for _, part := range parts {
		if part.ID != "" {
			score += 100
		}
		score += 10 * len(part.Classes)
		if part.Element != "" && part.Element != "*" {
			score++
		}
	}
	return score
}

// splitTokens splits at top-level occurrences of the delimiter sep, outside
// of parentheses.
func splitTokens(tokens []Token, sep string) [][]Token {
	out := make([][]Token, 0)
	depth := 0
	start := 0
	for i, tok := range tokens {
		switch {
		case tok.Type == TokenFunction || tok.Is("("):
			depth++
		case tok.Is(")"):
			if depth > 0 {
				depth--
			}
		case depth == 0 && tok.Is(sep):
			out = append(out, tokens[start:i])
			start = i + 1
		}
	}
	return append(out, tokens[start:])
}

func trimWhitespace(tokens []Token) []Token {
	for len(tokens) > 0 && tokens[0].Type == TokenWhitespace {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].Type == TokenWhitespace {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func renderTokens(tokens []Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Text())
	}
	return sb.String()
}
