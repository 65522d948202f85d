// Package rewrite routes the same-origin references of an archived legacy
// HTML document through the legacy content proxy.
package rewrite

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ProxyPath is the same-origin endpoint that streams legacy resources.
const ProxyPath = "/api/proxy"

// Document is a rewritten legacy page.
type Document struct {
	// Head holds the rewritten stylesheet links and external scripts found
	// in <head>, serialized in document order.
	Head string
	// Body holds the inner markup of <body>, or the whole document when the
	// parse tree has no body element.
	Body string
}

// Rewrite parses src and rewrites img[src], a[href],
// link[rel=stylesheet][href] and script[src] to go through the proxy for
// year. Absolute http(s) URLs are left alone, as are anchors pointing at
// "#fragment" or "mailto:".
func Rewrite(src, year string) (Document, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return Document{}, fmt.Errorf("parse legacy html: %w", err)
	}

	walk(doc, func(n *html.Node) {
		rewriteNode(n, year)
	})

	var out Document
	head := findElement(doc, atom.Head)
	if head != nil {
		var b strings.Builder
		for c := head.FirstChild; c != nil; c = c.NextSibling {
			if !isHeadResource(c) {
				continue
			}
			if err := html.Render(&b, c); err != nil {
				return Document{}, fmt.Errorf("render head: %w", err)
			}
			b.WriteByte('\n')
		}
		out.Head = b.String()
	}

	body := findElement(doc, atom.Body)
	var b strings.Builder
	if body == nil {
		if err := html.Render(&b, doc); err != nil {
			return Document{}, fmt.Errorf("render document: %w", err)
		}
		out.Body = b.String()
		return out, nil
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return Document{}, fmt.Errorf("render body: %w", err)
		}
	}
	out.Body = b.String()
	return out, nil
}

// ProxyURL returns the proxy URL for a legacy reference. Paths without a
// leading slash are treated as relative to the year root.
func ProxyURL(year, ref string) string {
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return ProxyPath + "?year=" + EncodeURIComponent(year) + "&path=" + EncodeURIComponent(ref)
}

func rewriteNode(n *html.Node, year string) {
	if n.Type != html.ElementNode {
		return
	}
	switch n.DataAtom {
	case atom.Img, atom.Script:
		rewriteAttr(n, "src", year, false)
	case atom.A:
		rewriteAttr(n, "href", year, true)
	case atom.Link:
		if isStylesheet(n) {
			rewriteAttr(n, "href", year, false)
		}
	}
}

func rewriteAttr(n *html.Node, key, year string, anchor bool) {
	for i := range n.Attr {
		attr := &n.Attr[i]
		if attr.Namespace != "" || attr.Key != key {
			continue
		}
		if keep(attr.Val, anchor) {
			return
		}
		attr.Val = ProxyURL(year, attr.Val)
		return
	}
}

func keep(ref string, anchor bool) bool {
	switch {
	case ref == "":
		return true
	case strings.HasPrefix(ref, "http"):
		return true
	case strings.HasPrefix(ref, "data:"):
		return true
	case anchor && (strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "mailto:")):
		return true
	}
	return false
}

func isStylesheet(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "rel" {
			continue
		}
		for _, token := range strings.Fields(attr.Val) {
			if strings.EqualFold(token, "stylesheet") {
				return true
			}
		}
	}
	return false
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key && attr.Val != "" {
			return true
		}
	}
	return false
}

func isHeadResource(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Link:
		return isStylesheet(n) && hasAttr(n, "href")
	case atom.Script:
		return hasAttr(n, "src")
	}
	return false
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
