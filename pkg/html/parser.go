package html

import (
	"strings"

	"go.uber.org/zap"
)

// Option configures a Parser.
type Option func(*Parser)

// WithLogger routes recovery diagnostics to log.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithViewSource disables tag interpretation: the whole input becomes text.
func WithViewSource() Option {
	return func(p *Parser) { p.tokenizer.viewSource = true }
}

// Parser builds a Document from tokens using an explicit stack of open
// elements. html, head and body always exist; they are synthesized up front
// and explicit tags for them only contribute attributes.
type Parser struct {
	tokenizer   *Tokenizer
	doc         *Document
	html        *Node
	head        *Node
	body        *Node
	stack       []*Node
	bodyStarted bool
	log         *zap.Logger
}

func NewParser(markup string, opts ...Option) *Parser {
	p := &Parser{
		tokenizer: NewTokenizer(markup),
		html:      newElement("html"),
		head:      newElement("head"),
		body:      newElement("body"),
		log:       zap.NewNop(),
	}
	p.html.AddChild(p.head)
	p.html.AddChild(p.body)
	p.doc = &Document{Root: p.html, Stylesheets: make([]string, 0)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses markup into a Document. Malformed markup never fails; it
// degrades to a flatter or differently nested tree.
func Parse(markup string, opts ...Option) *Document {
	return NewParser(markup, opts...).Parse()
}

func (p *Parser) Parse() *Document {
	p.stack = []*Node{p.html}
	for {
		token := p.tokenizer.Next()
		if token.Type == TokenEOF {
			break
		}
		switch token.Type {
		case TokenStartTag:
			p.startTag(token)
		case TokenEndTag:
			p.endTag(token.TagName)
		case TokenText:
			p.text(token.Text)
		}
	}
	p.doc.index()
	return p.doc
}

func (p *Parser) startTag(token Token) {
	switch token.TagName {
	case "html":
		mergeAttributes(p.html, token.Attributes)
		return
	case "head":
		if !p.bodyStarted {
			p.stack = []*Node{p.html, p.head}
		}
		mergeAttributes(p.head, token.Attributes)
		return
	case "body":
		p.startBody()
		mergeAttributes(p.body, token.Attributes)
		return
	}

	if !(isHeadTag(token.TagName) && !p.bodyStarted) {
		p.startBody()
	} else if p.currentParent() != p.head {
		p.stack = []*Node{p.html, p.head}
	}

	if isBlockTag(token.TagName) {
		p.autoCloseP()
	}
	if token.TagName == "li" {
		p.autoCloseLi()
	}

	node := &Node{
		Type:       ElementNode,
		TagName:    token.TagName,
		Attributes: token.Attributes,
		Children:   make([]*Node, 0),
	}
	p.currentParent().AddChild(node)

	if rawTextTag(token.TagName) && !token.SelfClosing {
		p.rawText(node)
		return
	}
	if !IsVoid(token.TagName) && !token.SelfClosing {
		p.push(node)
	}
}

// rawText consumes the content of a raw text element such as <style>.
func (p *Parser) rawText(node *Node) {
	content := p.tokenizer.ReadRawUntil(node.TagName)
	switch node.TagName {
	case "style":
		p.doc.Stylesheets = append(p.doc.Stylesheets, content)
		node.AppendText(content)
	case "title":
		if p.doc.Title == "" {
			p.doc.Title = strings.Join(strings.Fields(content), " ")
		}
		node.AppendText(content)
	case "textarea":
		node.AppendText(content)
	}
}

func (p *Parser) endTag(tagName string) {
	switch tagName {
	case "html", "body":
		return
	case "head":
		if !p.bodyStarted {
			p.stack = []*Node{p.html}
		}
		return
	}
	if !p.closeTag(tagName) {
		p.log.Debug("ignoring unmatched end tag", zap.String("tag", tagName))
	}
}

func (p *Parser) text(text string) {
	if !p.bodyStarted {
		if IsWhitespace(text) {
			return
		}
		p.startBody()
	}
	parent := p.currentParent()
	if IsWhitespace(text) && insignificantWhitespace(parent) {
		return
	}
	parent.AppendText(text)
}

// insignificantWhitespace reports whether whitespace-only text appended to
// parent now would sit between non-inline-level elements.
func insignificantWhitespace(parent *Node) bool {
	if parent.Type == ElementNode && IsInlineTag(parent.TagName) {
		return false
	}
	last := parent.LastChild()
	if last == nil {
		return true
	}
	return last.Type == ElementNode && !IsInlineTag(last.TagName)
}

// startBody switches from head content to body content, closing head.
func (p *Parser) startBody() {
	if p.bodyStarted {
		return
	}
	p.bodyStarted = true
	p.stack = []*Node{p.html, p.body}
}

// currentParent returns the current parent node (top of stack)
func (p *Parser) currentParent() *Node {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) push(node *Node) {
	p.stack = append(p.stack, node)
}

// closeTag pops the stack until the matching tag is found and closed. The
// synthesized html/head/body frames are never popped.
func (p *Parser) closeTag(tagName string) bool {
	for i := len(p.stack) - 1; i >= 2; i-- {
		if p.stack[i].TagName == tagName {
			p.stack = p.stack[:i]
			return true
		}
	}
	return false
}

// autoCloseP closes an open <p> element if one is on the stack
func (p *Parser) autoCloseP() {
	for i := len(p.stack) - 1; i >= 2; i-- {
		if p.stack[i].TagName == "p" {
			p.stack = p.stack[:i]
			return
		}
		// Don't close past block-level containers
		if isBlockTag(p.stack[i].TagName) {
			return
		}
	}
}

// autoCloseLi closes an open <li> of the same list.
func (p *Parser) autoCloseLi() {
	for i := len(p.stack) - 1; i >= 2; i-- {
		switch p.stack[i].TagName {
		case "li":
			p.stack = p.stack[:i]
			return
		case "ul", "ol":
			return
		}
	}
}

func mergeAttributes(n *Node, attrs []Attribute) {
	for _, a := range attrs {
		if _, ok := n.GetAttribute(a.Key); !ok {
			n.Attributes = append(n.Attributes, a)
		}
	}
}
