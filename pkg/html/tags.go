package html

import "golang.org/x/net/html/atom"

// IsVoid reports whether tag never has content and never receives an end tag.
func IsVoid(tag string) bool {
	switch atom.Lookup([]byte(tag)) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr,
		atom.Img, atom.Input, atom.Link, atom.Meta, atom.Param, atom.Source,
		atom.Track, atom.Wbr:
		return true
	}
	return false
}

// isBlockTag returns true for elements that auto-close <p>
func isBlockTag(tag string) bool {
	switch atom.Lookup([]byte(tag)) {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Details,
		atom.Dialog, atom.Dd, atom.Div, atom.Dl, atom.Dt, atom.Fieldset,
		atom.Figcaption, atom.Figure, atom.Footer, atom.Form, atom.H1, atom.H2,
		atom.H3, atom.H4, atom.H5, atom.H6, atom.Header, atom.Hgroup, atom.Hr,
		atom.Li, atom.Main, atom.Nav, atom.Ol, atom.P, atom.Pre, atom.Section,
		atom.Table, atom.Ul:
		return true
	}
	return false
}

// isHeadTag reports tags that belong in head when they appear before any
// body content.
func isHeadTag(tag string) bool {
	switch atom.Lookup([]byte(tag)) {
	case atom.Base, atom.Link, atom.Meta, atom.Script, atom.Style, atom.Title:
		return true
	}
	return false
}

// IsInlineTag reports phrasing elements. Whitespace between them is
// significant; whitespace between anything else is dropped by the parser.
func IsInlineTag(tag string) bool {
	switch tag {
	case "a", "abbr", "b", "big", "br", "cite", "code", "em", "font", "i",
		"img", "kbd", "label", "mark", "q", "s", "samp", "small", "span",
		"strike", "strong", "sub", "sup", "tt", "u", "var":
		return true
	}
	return false
}

// rawTextTag reports elements whose content is not tokenized as markup.
func rawTextTag(tag string) bool {
	return tag == "style" || tag == "script" || tag == "title" || tag == "textarea"
}
