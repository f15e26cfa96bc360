package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
)

// node is a flat copy of one tree node. Classification reads only this
// copy, so the tree can be pruned after every node has been judged.
type node struct {
	id        int
	parent    int // -1 for children of <body>
	kind      html.NodeType
	tag       string
	parentTag string
	attrs     []html.Attribute
	text      string // data for text nodes, descendant text for anchors
	ref       *html.Node
}

func (n node) lookup(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (n node) attr(key string) string {
	v, _ := n.lookup(key)
	return v
}

// snapshot lists every descendant of body in document order.
func snapshot(body *html.Node) []node {
	var nodes []node
	var walk func(n *html.Node, parent int, parentTag string)
	walk = func(n *html.Node, parent int, parentTag string) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sn := node{
				id:        len(nodes),
				parent:    parent,
				kind:      c.Type,
				parentTag: parentTag,
				attrs:     append([]html.Attribute(nil), c.Attr...),
				ref:       c,
			}
			switch c.Type {
			case html.TextNode:
				sn.text = c.Data
			case html.ElementNode:
				sn.tag = c.Data
				if c.Data == "a" {
					sn.text = textOf(c)
				}
			}
			nodes = append(nodes, sn)
			if c.Type == html.ElementNode {
				walk(c, sn.id, sn.tag)
			}
		}
	}
	walk(body, -1, "body")
	return nodes
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
