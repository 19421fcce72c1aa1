package auth

import (
	"io"

	"golang.org/x/net/html"
)

// extractHiddenInputs walks an HTML document and returns the values of the
// named hidden form inputs. The document is untrusted provider output:
// absent names are simply missing from the result, and only the first
// occurrence of a name is kept.
func extractHiddenInputs(r io.Reader, names ...string) (map[string]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	found := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			var name, value, inputType string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "value":
					value = attr.Val
				case "type":
					inputType = attr.Val
				}
			}
			if inputType == "hidden" && wanted[name] {
				if _, ok := found[name]; !ok {
					found[name] = value
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return found, nil
}
