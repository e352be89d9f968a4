// Package extract turns rendered WordPress HTML into plain-text paragraphs
// and image references.
package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// placeholder stands in for posts with no extractable text.
const placeholder = "No content available"

// blockAtoms are the elements that terminate the pending inline run and
// emit their own paragraph.
var blockAtoms = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Blockquote: true,
}

// Paragraphs extracts the block-level text of bodyHTML in document order.
// Inline content between block elements accumulates into its own paragraph;
// <br> splits the accumulator without emitting an empty entry. Script and
// style subtrees are dropped. HTML entities are decoded by the parser. The
// result is never empty: content-free input yields a single placeholder
// paragraph.
func Paragraphs(bodyHTML string) []string {
	root, err := html.Parse(strings.NewReader(bodyHTML))
	if err != nil {
		return []string{placeholder}
	}

	var (
		paragraphs []string
		pending    []string
	)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if text := collapse(strings.Join(pending, " ")); text != "" {
			paragraphs = append(paragraphs, text)
		}
		pending = pending[:0]
	}

	for _, node := range topLevel(root) {
		switch {
		case node.Type == html.TextNode:
			if text := collapse(node.Data); text != "" {
				pending = append(pending, text)
			}
		case node.Type != html.ElementNode:
			// comments, doctypes
		case node.DataAtom == atom.Script || node.DataAtom == atom.Style:
			// dropped entirely
		case node.DataAtom == atom.Br:
			flush()
		case blockAtoms[node.DataAtom]:
			flush()
			if text := collapse(flatten(node)); text != "" {
				paragraphs = append(paragraphs, text)
			}
		default:
			if text := collapse(flatten(node)); text != "" {
				pending = append(pending, text)
			}
		}
	}
	flush()

	if len(paragraphs) == 0 {
		return []string{placeholder}
	}
	return paragraphs
}

// ImageURLs collects the src attribute of every <img> in document order.
func ImageURLs(bodyHTML string) []string {
	root, err := html.Parse(strings.NewReader(bodyHTML))
	if err != nil {
		return nil
	}
	var urls []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			for _, a := range n.Attr {
				if a.Key == "src" && a.Val != "" {
					urls = append(urls, a.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return urls
}

// Text strips markup from an HTML fragment and collapses whitespace. Used
// for rendered titles, which WordPress may deliver with inline tags and
// entities.
func Text(fragment string) string {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(flatten(root))
}

// topLevel returns the direct children of the parsed document body.
func topLevel(root *html.Node) []*html.Node {
	body := find(root, atom.Body)
	if body == nil {
		return nil
	}
	var children []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

// flatten concatenates the text nodes under n, skipping script and style.
func flatten(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapse normalizes all runs of whitespace to single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
