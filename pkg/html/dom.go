package html

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

func (t NodeType) String() string {
	if t == TextNode {
		return "text"
	}
	return "element"
}

// Attribute is a single name/value pair of an element, in source order.
type Attribute struct {
	Key string
	Val string
}

// Node is an element or a text node of the document tree. A node owns its
// Children; Parent is a back reference only. ID is the node's index in its
// document's arena (see Document.Nodes) and is stable for the document's
// lifetime.
type Node struct {
	ID         int
	Type       NodeType
	TagName    string
	Attributes []Attribute
	Text       string
	Children   []*Node
	Parent     *Node
}

// Document is the result of parsing one markup text. Root is always the
// html element, whose children are exactly head and body.
type Document struct {
	Root        *Node
	Title       string
	Stylesheets []string // contents of <style> elements, in source order

	nodes []*Node
}

func newElement(tag string) *Node {
	return &Node{Type: ElementNode, TagName: tag, Children: make([]*Node, 0)}
}

// Nodes returns every node of the document in document order. The slice
// index of a node equals its ID.
func (d *Document) Nodes() []*Node {
	return d.nodes
}

// Len is the number of nodes in the document.
func (d *Document) Len() int {
	return len(d.nodes)
}

// NodeByID returns the node with the given ID, or nil.
func (d *Document) NodeByID(id int) *Node {
	if id < 0 || id >= len(d.nodes) {
		return nil
	}
	return d.nodes[id]
}

func (d *Document) Head() *Node { return d.Root.Children[0] }
func (d *Document) Body() *Node { return d.Root.Children[1] }

// index numbers the tree in pre-order and rebuilds the node arena.
func (d *Document) index() {
	d.nodes = d.nodes[:0]
	d.Root.Walk(func(n *Node) bool {
		n.ID = len(d.nodes)
		d.nodes = append(d.nodes, n)
		return true
	})
}

func (n *Node) GetAttribute(name string) (string, bool) {
	for _, a := range n.Attributes {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute sets an attribute, keeping the position of an existing one.
func (n *Node) SetAttribute(name, value string) {
	for i, a := range n.Attributes {
		if a.Key == name {
			n.Attributes[i].Val = value
			return
		}
	}
	n.Attributes = append(n.Attributes, Attribute{Key: name, Val: value})
}

// Classes returns the whitespace separated entries of the class attribute.
func (n *Node) Classes() []string {
	class, ok := n.GetAttribute("class")
	if !ok {
		return nil
	}
	return strings.Fields(class)
}

func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// IsElement reports whether n is an element with the given tag name.
func (n *Node) IsElement(tag string) bool {
	return n != nil && n.Type == ElementNode && n.TagName == tag
}

// AddChild adds a child node and sets up the parent relationship
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AppendText adds text content, merging it into a trailing text node.
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	if last := n.LastChild(); last != nil && last.Type == TextNode {
		last.Text += text
		return
	}
	n.AddChild(&Node{Type: TextNode, Text: text})
}

func (n *Node) LastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Serialize returns the markup of all child nodes, but not the node's own tags.
func (n *Node) Serialize() string {
	var sb strings.Builder
	for _, child := range n.Children {
		serializeNode(&sb, child)
	}
	return sb.String()
}

// SerializeOuter returns the markup of the node and all descendants.
func (n *Node) SerializeOuter() string {
	var sb strings.Builder
	serializeNode(&sb, n)
	return sb.String()
}

func serializeNode(sb *strings.Builder, n *Node) {
	if n.Type == TextNode {
		sb.WriteString(escapeHTML(n.Text))
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.TagName)
	for _, a := range n.Attributes {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(a.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	if IsVoid(n.TagName) {
		return
	}
	for _, child := range n.Children {
		serializeNode(sb, child)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// Dump renders the subtree rooted at n as an indented tree, for debugging.
func (n *Node) Dump() string {
	tree := treeprint.New()
	dumpNode(tree, n)
	return tree.String()
}

func dumpNode(tree treeprint.Tree, n *Node) {
	if len(n.Children) == 0 {
		tree.AddNode(n.label())
		return
	}
	branch := tree.AddBranch(n.label())
	for _, c := range n.Children {
		dumpNode(branch, c)
	}
}

func (n *Node) label() string {
	if n.Type == TextNode {
		return fmt.Sprintf("#%d %q", n.ID, n.Text)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d <%s", n.ID, n.TagName)
	for _, a := range n.Attributes {
		fmt.Fprintf(&sb, " %s=%q", a.Key, a.Val)
	}
	sb.WriteByte('>')
	return sb.String()
}
