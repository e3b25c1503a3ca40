package html

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParser_ImplicitStructure(t *testing.T) {
	doc := Parse("")
	if !doc.Root.IsElement("html") {
		t.Fatalf("expected html root, got %q", doc.Root.TagName)
	}
	if len(doc.Root.Children) != 2 || !doc.Head().IsElement("head") || !doc.Body().IsElement("body") {
		t.Fatalf("expected html to hold head and body, got %s", doc.Root.SerializeOuter())
	}
}

func TestParser_NestedElements(t *testing.T) {
	doc := Parse(`<div><p>Hi</p></div>`)
	body := doc.Body()
	if len(body.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(body.Children))
	}

	div := body.Children[0]
	if div.TagName != "div" {
		t.Errorf("expected 'div', got '%s'", div.TagName)
	}
	if len(div.Children) != 1 {
		t.Fatalf("expected div to have 1 child, got %d", len(div.Children))
	}

	p := div.Children[0]
	if p.TagName != "p" {
		t.Errorf("expected 'p', got '%s'", p.TagName)
	}
	if len(p.Children) != 1 {
		t.Fatalf("expected p to have 1 text child, got %d", len(p.Children))
	}
	if p.Children[0].Type != TextNode || p.Children[0].Text != "Hi" {
		t.Error("expected text node with 'Hi'")
	}
	if p.Parent != div || div.Parent != body {
		t.Error("parent back references are not set")
	}
}

func TestParser_ExplicitStructureMergesAttributes(t *testing.T) {
	doc := Parse(`<html lang="en"><head><title> My  Page </title></head><body class="x"><p>a</p></body></html>`)
	if v, _ := doc.Root.GetAttribute("lang"); v != "en" {
		t.Errorf("expected lang on html, got %q", v)
	}
	if !doc.Body().HasClass("x") {
		t.Error("expected body class to be merged")
	}
	if doc.Title != "My Page" {
		t.Errorf("expected title 'My Page', got %q", doc.Title)
	}
	if len(doc.Head().Children) != 1 || doc.Head().Children[0].TagName != "title" {
		t.Errorf("expected title in head, got %s", doc.Head().SerializeOuter())
	}
	if got := doc.Body().Serialize(); got != "<p>a</p>" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestParser_HeadTagsBeforeBodyContent(t *testing.T) {
	doc := Parse(`<meta charset="utf-8"><style>p{}</style>text<link rel="x">`)
	if len(doc.Head().Children) != 2 {
		t.Errorf("expected meta and style in head, got %s", doc.Head().SerializeOuter())
	}
	if len(doc.Stylesheets) != 1 || doc.Stylesheets[0] != "p{}" {
		t.Errorf("expected collected stylesheet, got %v", doc.Stylesheets)
	}
	if got := doc.Body().Serialize(); got != `text<link rel="x">` {
		t.Errorf("unexpected body %q", got)
	}
}

func TestParser_ScriptContentDiscarded(t *testing.T) {
	doc := Parse(`<p>a</p><script>if (a < b) { x() }</script><p>b</p>`)
	body := doc.Body()
	if len(body.Children) != 3 {
		t.Fatalf("expected 3 children, got %s", body.SerializeOuter())
	}
	if len(body.Children[1].Children) != 0 {
		t.Error("expected script to have no content")
	}
}

func TestParser_VoidElements(t *testing.T) {
	doc := Parse(`<p>a<br>b<img src="x.png">c</p>`)
	p := doc.Body().Children[0]
	if len(p.Children) != 5 {
		t.Fatalf("expected 5 children, got %s", p.SerializeOuter())
	}
	if len(p.Children[1].Children) != 0 || len(p.Children[3].Children) != 0 {
		t.Error("void elements must not receive children")
	}
}

func TestParser_UnmatchedEndTagIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	doc := Parse(`<p>one</div>two</p>`, WithLogger(zap.New(core)))
	if got := doc.Body().Serialize(); got != "<p>onetwo</p>" {
		t.Errorf("unexpected body %q", got)
	}
	if logs.FilterMessage("ignoring unmatched end tag").Len() != 1 {
		t.Errorf("expected the unmatched end tag to be logged, got %v", logs.All())
	}
}

func TestParser_MismatchedEndTagClosesNearestMatch(t *testing.T) {
	doc := Parse(`<div><span><b>x</div>y`)
	if got := doc.Body().Serialize(); got != "<div><span><b>x</b></span></div>y" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestParser_UnclosedElements(t *testing.T) {
	doc := Parse(`<div><p>open`)
	if got := doc.Body().Serialize(); got != "<div><p>open</p></div>" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestParser_AutoCloseP(t *testing.T) {
	doc := Parse(`<p>one<p>two<div>three</div>`)
	if got := doc.Body().Serialize(); got != "<p>one</p><p>two</p><div>three</div>" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestParser_AutoCloseLi(t *testing.T) {
	doc := Parse(`<ul><li>a<li>b<ul><li>c</ul></ul>`)
	if got := doc.Body().Serialize(); got != "<ul><li>a</li><li>b<ul><li>c</li></ul></li></ul>" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestParser_InsignificantWhitespaceDropped(t *testing.T) {
	doc := Parse("<div>\n  <p>a <b>b</b> <i>c</i></p>\n  <p>d</p>\n</div>")
	div := doc.Body().Children[0]
	if len(div.Children) != 2 {
		t.Fatalf("expected whitespace between blocks to be dropped, got %q", div.Serialize())
	}
	p := div.Children[0]
	if got := p.Serialize(); got != "a <b>b</b> <i>c</i>" {
		t.Errorf("expected whitespace between inline elements kept, got %q", got)
	}
}

func TestParser_ViewSource(t *testing.T) {
	doc := Parse("<p>hi</p>", WithViewSource())
	body := doc.Body()
	if len(body.Children) != 1 || body.Children[0].Type != TextNode || body.Children[0].Text != "<p>hi</p>" {
		t.Errorf("expected markup as text, got %s", body.SerializeOuter())
	}
}

func TestParser_NodeIDsFollowDocumentOrder(t *testing.T) {
	doc := Parse(`<div><p>a</p>b</div>`)
	for i, n := range doc.Nodes() {
		if n.ID != i {
			t.Fatalf("node %d has ID %d", i, n.ID)
		}
		if doc.NodeByID(i) != n {
			t.Fatalf("NodeByID(%d) mismatch", i)
		}
	}
	// html, head, body, div, p, "a", "b"
	if doc.Len() != 7 {
		t.Errorf("expected 7 nodes, got %d:\n%s", doc.Len(), doc.Root.Dump())
	}
	if doc.NodeByID(-1) != nil || doc.NodeByID(doc.Len()) != nil {
		t.Error("out of range IDs must return nil")
	}
}

func TestParser_NeverFails(t *testing.T) {
	inputs := []string{
		"</div></p></body></html>",
		"<<<>>>",
		"<div <p>>",
		"<!-- unterminated",
		"<table><tr><td>x</table></td>",
		"&&&;;<",
	}
	for _, input := range inputs {
		doc := Parse(input)
		if doc.Root == nil || doc.Body() == nil {
			t.Errorf("%q: expected a document", input)
		}
	}
}
