package curator

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

func parseHTML(body []byte) (*html.Node, error) {
	return html.Parse(strings.NewReader(string(body)))
}

func nodeAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := nodeAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func isTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textContent(n *html.Node) string {
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

// formFields collects every non-submit <input>'s name/value pair inside
// form.
func formFields(form *html.Node) url.Values {
	values := url.Values{}
	for _, input := range findAll(form, isTag("input")) {
		typ, _ := nodeAttr(input, "type")
		if typ == "submit" {
			continue
		}
		name, ok := nodeAttr(input, "name")
		if !ok {
			continue
		}
		if typ == "checkbox" || typ == "radio" {
			if _, checked := nodeAttr(input, "checked"); !checked {
				continue
			}
		}
		value, _ := nodeAttr(input, "value")
		values.Set(name, value)
	}
	return values
}

// findSubmitButton locates the submit <input> inside form whose value
// matches label exactly, returning its name/value pair.
func findSubmitButton(form *html.Node, label string) (name, value string, ok bool) {
	for _, input := range findAll(form, isTag("input")) {
		typ, _ := nodeAttr(input, "type")
		if typ != "submit" {
			continue
		}
		v, _ := nodeAttr(input, "value")
		if v == label {
			n, _ := nodeAttr(input, "name")
			return n, v, true
		}
	}
	return "", "", false
}
